// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package entityio reads and writes entity collections as the extraction
// stage hands them over: JSON or YAML, either a bare list of entities or a
// document with an "entities" key. Decoding is pluggable per format.
package entityio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/floorplan-diff/pkg/types"
)

// Format names an entity file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml", or "yml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown entity format %q (want json or yaml)", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("cannot infer entity format of %s: no extension", path)
	}
	return ParseFormat(ext)
}

// Decoder turns an encoded entity collection into entities.
type Decoder interface {
	Decode(r io.Reader) ([]types.GeometryEntity, error)
}

// NewDecoder returns the decoder for f.
func NewDecoder(f Format) (Decoder, error) {
	switch f {
	case FormatJSON:
		return jsonDecoder{}, nil
	case FormatYAML:
		return yamlDecoder{}, nil
	}
	return nil, fmt.Errorf("no decoder for format %q", f)
}

// document is the wrapped collection shape.
type document struct {
	Entities []types.GeometryEntity `json:"entities" yaml:"entities"`
}

type jsonDecoder struct{}

func (jsonDecoder) Decode(r io.Reader) ([]types.GeometryEntity, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading entities: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var list []types.GeometryEntity
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, fmt.Errorf("decoding entity list: %w", err)
		}
		return list, nil
	}
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding entity document: %w", err)
	}
	return doc.Entities, nil
}

type yamlDecoder struct{}

func (yamlDecoder) Decode(r io.Reader) ([]types.GeometryEntity, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decoding entities: %w", err)
	}
	root := &node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	switch root.Kind {
	case yaml.SequenceNode:
		var list []types.GeometryEntity
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("decoding entity list: %w", err)
		}
		return list, nil
	case yaml.MappingNode:
		var doc document
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding entity document: %w", err)
		}
		return doc.Entities, nil
	}
	return nil, fmt.Errorf("decoding entities: expected a list or a mapping, got %s", kindName(root.Kind))
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.AliasNode:
		return "an alias"
	}
	return "an empty document"
}

// Read decodes a collection from r and canonicalizes it for src.
func Read(r io.Reader, f Format, src types.Source) ([]types.GeometryEntity, error) {
	dec, err := NewDecoder(f)
	if err != nil {
		return nil, err
	}
	entities, err := dec.Decode(r)
	if err != nil {
		return nil, err
	}
	Canonicalize(entities, src)
	return entities, nil
}

// Canonicalize maps extractor type aliases onto the supported set and tags
// untagged entities with src, in place. Unknown types are left as given.
func Canonicalize(entities []types.GeometryEntity, src types.Source) {
	for i := range entities {
		if t, ok := types.ParseEntityType(string(entities[i].Type)); ok {
			entities[i].Type = t
		}
		if entities[i].Source == "" {
			entities[i].Source = src
		}
	}
}

// ReadFile reads the collection at path. An empty format is inferred from
// the file extension.
func ReadFile(path string, f Format, src types.Source) ([]types.GeometryEntity, error) {
	if f == "" {
		var err error
		if f, err = FormatFromPath(path); err != nil {
			return nil, err
		}
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening entity file %s: %w", path, err)
	}
	defer file.Close()

	entities, err := Read(file, f, src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return entities, nil
}

// Write encodes entities as a document with an "entities" key.
func Write(w io.Writer, entities []types.GeometryEntity, f Format) error {
	doc := document{Entities: entities}
	if doc.Entities == nil {
		doc.Entities = []types.GeometryEntity{}
	}
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding entities: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encoding entities: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("no encoder for format %q", f)
}
