// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pdiddy/floorplan-diff/internal/engine"
	"github.com/pdiddy/floorplan-diff/internal/entityio"
	"github.com/pdiddy/floorplan-diff/internal/store"
	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// CompareRequest is the body of POST /api/v1/compare.
type CompareRequest struct {
	Original []types.GeometryEntity `json:"original"`
	Revised  []types.GeometryEntity `json:"revised"`

	// Profile names a configured or built-in profile. Tolerance, when set,
	// is used instead.
	Profile   string                  `json:"profile,omitempty"`
	Tolerance *types.ToleranceProfile `json:"tolerance,omitempty"`

	IncludeUnchanged bool `json:"include_unchanged,omitempty"`

	// Save stores the result; Label names it in listings.
	Save  bool   `json:"save,omitempty"`
	Label string `json:"label,omitempty"`
}

// CompareResponse carries the result and, when saved, its id.
type CompareResponse struct {
	ID     string            `json:"id,omitempty"`
	Result *types.DiffResult `json:"result"`
}

// NormalizeRequest is the body of POST /api/v1/normalize.
type NormalizeRequest struct {
	Original []types.GeometryEntity `json:"original"`
	Revised  []types.GeometryEntity `json:"revised"`
}

// NormalizeResponse reports the computed alignment.
type NormalizeResponse struct {
	Transform     types.NormalizationTransform `json:"transform"`
	Normalization types.Normalization          `json:"normalization"`
	Diagnostics   []types.Diagnostic           `json:"diagnostics"`
}

func (s *Server) compare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	profile, err := s.resolveProfile(req)
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	if req.Save && s.store == nil {
		abort(c, http.StatusServiceUnavailable, errors.New("diff store is not configured"))
		return
	}

	entityio.Canonicalize(req.Original, types.SourceOriginal)
	entityio.Canonicalize(req.Revised, types.SourceRevised)

	opts := engine.OptionsFromConfig(s.cfg, s.log)
	opts.IncludeUnchanged = req.IncludeUnchanged
	res, err := engine.Match(c.Request.Context(), req.Original, req.Revised, profile, opts)
	if err != nil {
		var tolErr *types.ToleranceError
		if errors.As(err, &tolErr) {
			abort(c, http.StatusBadRequest, err)
			return
		}
		abort(c, http.StatusInternalServerError, err)
		return
	}

	resp := CompareResponse{Result: res}
	if req.Save {
		meta, err := s.store.Save(c.Request.Context(), res, store.SaveOptions{Label: req.Label})
		if err != nil {
			abort(c, http.StatusInternalServerError, fmt.Errorf("saving diff: %w", err))
			return
		}
		resp.ID = meta.ID
		s.log.WithField("id", meta.ID).Info("diff saved")
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) resolveProfile(req CompareRequest) (types.ToleranceProfile, error) {
	if req.Tolerance != nil {
		p := *req.Tolerance
		if p.Name == "" {
			p.Name = "custom"
		}
		return p, nil
	}
	return s.cfg.ResolveProfile(req.Profile)
}

func (s *Server) normalize(c *gin.Context) {
	var req NormalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	entityio.Canonicalize(req.Original, types.SourceOriginal)
	entityio.Canonicalize(req.Revised, types.SourceRevised)

	t, rep := engine.Normalize(req.Original, req.Revised, s.cfg.Normalizer)
	diags := rep.Diagnostics
	if diags == nil {
		diags = []types.Diagnostic{}
	}
	c.JSON(http.StatusOK, NormalizeResponse{
		Transform:     t,
		Normalization: rep.Normalization,
		Diagnostics:   diags,
	})
}

func (s *Server) requireStore(c *gin.Context) bool {
	if s.store == nil {
		abort(c, http.StatusServiceUnavailable, errors.New("diff store is not configured"))
		return false
	}
	return true
}

// intQuery reads a non-negative integer query parameter.
func intQuery(c *gin.Context, name string) (int, error) {
	v := c.Query(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer, got %q", name, v)
	}
	return n, nil
}

func (s *Server) storeError(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		abort(c, http.StatusNotFound, err)
		return
	}
	abort(c, http.StatusInternalServerError, err)
}

func (s *Server) listDiffs(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}

	metas, err := s.store.List(c.Request.Context(), store.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.storeError(c, err)
		return
	}
	if metas == nil {
		metas = []store.Meta{}
	}
	c.JSON(http.StatusOK, gin.H{"diffs": metas})
}

func (s *Server) getDiff(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	d, err := s.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) diffRecords(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	limit, err := intQuery(c, "limit")
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	offset, err := intQuery(c, "offset")
	if err != nil {
		abort(c, http.StatusBadRequest, err)
		return
	}
	q := store.RecordQuery{
		ChangeType: types.ChangeType(c.Query("change_type")),
		Layer:      c.Query("layer"),
		EntityID:   c.Query("entity_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if q.ChangeType != "" && !q.ChangeType.Valid() {
		abort(c, http.StatusBadRequest, fmt.Errorf("unknown change_type %q", q.ChangeType))
		return
	}
	if et := c.Query("entity_type"); et != "" {
		t, ok := types.ParseEntityType(et)
		if !ok {
			abort(c, http.StatusBadRequest, fmt.Errorf("unknown entity_type %q (want one of %s)", et, entityTypeList()))
			return
		}
		q.EntityType = t
	}

	id := c.Param("id")
	if _, err := s.store.Lookup(c.Request.Context(), id); err != nil {
		s.storeError(c, err)
		return
	}
	recs, err := s.store.Records(c.Request.Context(), id, q)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "records": recs})
}

func (s *Server) deleteDiff(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	if err := s.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.storeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func entityTypeList() string {
	names := make([]string, len(types.EntityTypes))
	for i, t := range types.EntityTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
