package lod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/buger/jsonparser"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/gltf"
)

// ScreenCoverageKey is the extras field holding per-level screen coverage on
// scene root nodes.
const ScreenCoverageKey = "MSFT_screencoverage"

// MergeOption configures MergeAsLODs.
type MergeOption func(*merger)

type merger struct {
	coverage []float64
	logger   *slog.Logger
}

// WithScreenCoverage stores pcts under the MSFT_screencoverage extras field of
// every scene root node of the merged document. An empty list adds nothing.
func WithScreenCoverage(pcts ...float64) MergeOption {
	return func(m *merger) {
		m.coverage = pcts
	}
}

// WithLogger sets the logger merge steps are reported to.
func WithLogger(logger *slog.Logger) MergeOption {
	return func(m *merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// MergeAsLODs merges docs into a single document. docs[0] is the primary;
// every following document becomes the next LOD level of the primary's scene
// root nodes. The inputs are never modified.
func MergeAsLODs(docs []*gltf.Document, opts ...MergeOption) (*gltf.Document, error) {
	m := &merger{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(m)
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("lod: merge: %w: no documents", apperr.ErrInvalidInput)
	}
	for i, doc := range docs {
		if doc == nil {
			return nil, fmt.Errorf("lod: merge: %w: document %d is nil", apperr.ErrInvalidInput, i)
		}
	}

	primary, err := docs[0].Clone()
	if err != nil {
		return nil, fmt.Errorf("lod: merge: %w", err)
	}
	reg, err := ParseDocumentNodeLODs(primary)
	if err != nil {
		return nil, fmt.Errorf("lod: merge: primary: %w", err)
	}

	for i, doc := range docs[1:] {
		merged, level, err := addNodeLOD(primary, reg, doc)
		if err != nil {
			return nil, fmt.Errorf("lod: merge document %d: %w", i+1, err)
		}
		primary = merged
		m.logger.Debug("lod: merged document",
			slog.Int("document", i+1),
			slog.Int("level", level),
			slog.Int("nodes", len(primary.Nodes)),
			slog.Int("meshes", len(primary.Meshes)),
			slog.Int("materials", len(primary.Materials)))
	}

	for i, node := range primary.Nodes {
		if reg.Depth(node.ID) == 0 {
			continue
		}
		payload, err := SerializeLODExtension(KindNode, reg.LODs(node.ID), primary)
		if err != nil {
			return nil, fmt.Errorf("lod: merge: node %d: %w", i, err)
		}
		if node.Extensions == nil {
			node.Extensions = gltf.Extensions{}
		}
		node.Extensions[ExtensionLOD] = payload
	}

	if len(m.coverage) > 0 {
		if err := applyScreenCoverage(primary, m.coverage); err != nil {
			return nil, fmt.Errorf("lod: merge: %w", err)
		}
	}

	m.logger.Debug("lod: merge complete",
		slog.Int("documents", len(docs)),
		slog.Int("levels", CountNodeLODLevels(primary, reg)))
	return primary, nil
}

func applyScreenCoverage(doc *gltf.Document, pcts []float64) error {
	value, err := json.Marshal(pcts)
	if err != nil {
		return fmt.Errorf("encode screen coverage: %w", err)
	}
	for _, scene := range doc.Scenes {
		for _, root := range scene.Nodes {
			node := doc.Node(root)
			if node == nil {
				continue
			}
			extras, err := setExtra(node.Extras, ScreenCoverageKey, value)
			if err != nil {
				return fmt.Errorf("node %s extras: %w", root, err)
			}
			node.Extras = extras
		}
	}
	return nil
}

// setExtra sets key to value in an extras object, keeping its other fields.
func setExtra(extras json.RawMessage, key string, value []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(extras)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || isEmptyObject(trimmed) {
		return json.Marshal(map[string]json.RawMessage{key: value})
	}
	if trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: extras is not an object", apperr.ErrMalformedExtension)
	}
	out, err := jsonparser.Set(bytes.Clone(trimmed), value, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedExtension, err)
	}
	return out, nil
}

func isEmptyObject(b []byte) bool {
	if len(b) < 2 || b[0] != '{' || b[len(b)-1] != '}' {
		return false
	}
	return len(bytes.TrimSpace(b[1:len(b)-1])) == 0
}
