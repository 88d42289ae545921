// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// outputFormat is json, yaml, or table.
type outputFormat string

const (
	outputJSON  outputFormat = "json"
	outputYAML  outputFormat = "yaml"
	outputTable outputFormat = "table"
)

func parseOutputFormat(s string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(s)); f {
	case outputJSON, outputYAML, outputTable:
		return f, nil
	case "":
		return outputTable, nil
	}
	return "", fmt.Errorf("unsupported format %q: use json, yaml, or table", s)
}

// openOutput returns stdout for "" or "-", otherwise a created file.
func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, f.Close, nil
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, v any, f outputFormat) error {
	switch f {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("format %q is not structured", f)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// writeResultTable prints a summary, the change records, and diagnostics.
func writeResultTable(w io.Writer, res *types.DiffResult) {
	n := res.Normalization
	fmt.Fprintf(w, "normalization: %s", n.Method)
	if n.Method == types.MethodGridFit {
		fmt.Fprintf(w, " (%d nodes, residual %.3g)", n.GridNodes, n.Residual)
	}
	fmt.Fprintln(w)
	writeTransform(w, n.Transform)
	if n.Reason != "" {
		fmt.Fprintf(w, "  reason: %s\n", n.Reason)
	}
	fmt.Fprintf(w, "profile: %s (position %g, angle %g rad, strict %t)\n\n",
		res.Profile.Name, res.Profile.PositionTolerance, res.Profile.AngleTolerance, res.Profile.AttributeStrict)

	if len(res.Records) == 0 {
		fmt.Fprintln(w, "No changes.")
	} else {
		fmt.Fprintf(w, "%-9s  %-8s  %-14s  %-16s  %-24s  %s\n",
			"Change", "Type", "Layer", "Entity", "Label", "Attributes")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, r := range res.Records {
			fmt.Fprintf(w, "%-9s  %-8s  %-14s  %-16s  %-24s  %s\n",
				r.ChangeType, r.EntityType, truncate(r.Layer, 14), truncate(r.EntityID, 16),
				truncate(r.Label, 24), attributeNames(r.AttributeDeltas))
		}
	}

	s := res.Summary
	fmt.Fprintf(w, "\nadded: %d, removed: %d, modified: %d, unchanged: %d (original %d, revised %d)\n",
		s.Added, s.Removed, s.Modified, s.Unchanged, s.TotalOriginal, s.TotalRevised)
	writeDiagnostics(w, res.Diagnostics)
}

func writeTransform(w io.Writer, t types.NormalizationTransform) {
	fmt.Fprintf(w, "  rotation %.6g rad, scale %.6g/%.6g, translation (%.6g, %.6g)\n",
		t.Rotation, t.ScaleX, t.ScaleY, t.TX, t.TY)
}

func writeDiagnostics(w io.Writer, diags []types.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d diagnostics:\n", len(diags))
	for _, d := range diags {
		subject := ""
		if d.EntityID != "" {
			subject = fmt.Sprintf(" %s/%s", d.Source, d.EntityID)
		}
		fmt.Fprintf(w, "  %-7s  %-20s%s: %s\n", d.Severity, d.Code, subject, d.Message)
	}
}

func attributeNames(deltas map[string]types.AttributeDelta) string {
	if len(deltas) == 0 {
		return ""
	}
	names := make([]string, 0, len(deltas))
	for k := range deltas {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}
