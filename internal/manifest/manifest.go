// Package manifest reads merge manifests: YAML files naming the documents to
// merge as LOD levels and where to write the result.
//
//	output: props/chair.gltf
//	screen_coverage: [0.5, 0.2, 0.05]
//	inputs:
//	  - props/chair_lod0.gltf
//	  - props/chair_lod1.gltf
//	  - props/chair_lod2.gltf
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/storage"
)

// Manifest describes one merge. Inputs[0] is the primary document; the rest
// become LOD levels 1..n in order. Paths are relative to the asset directory.
type Manifest struct {
	Output         string    `yaml:"output" json:"output"`
	Inputs         []string  `yaml:"inputs" json:"inputs"`
	ScreenCoverage []float64 `yaml:"screen_coverage,omitempty" json:"screen_coverage,omitempty"`
}

// Parse decodes and validates a YAML manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("manifest: %w: empty document", apperr.ErrInvalidInput)
		}
		return nil, fmt.Errorf("manifest: %w: %v", apperr.ErrInvalidInput, err)
	}
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// New builds and validates a manifest from already-decoded fields.
func New(output string, inputs []string, coverage []float64) (*Manifest, error) {
	m := &Manifest{
		Output:         output,
		Inputs:         slices.Clone(inputs),
		ScreenCoverage: slices.Clone(coverage),
	}
	m.normalize()
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the manifest. Errors wrap apperr.ErrInvalidInput.
func (m *Manifest) Validate() error {
	err := validation.ValidateStruct(m,
		validation.Field(&m.Output, validation.Required, validation.By(assetPath), validation.By(m.notAnInput)),
		validation.Field(&m.Inputs, validation.Required, validation.Each(validation.Required, validation.By(assetPath))),
		validation.Field(&m.ScreenCoverage, validation.Each(validation.Required, validation.Min(0.0).Exclusive(), validation.Max(1.0))),
	)
	if err != nil {
		return fmt.Errorf("manifest: %w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

// WithDefaults fills what the manifest leaves unset: the screen coverage, and
// the directory of a bare output file name.
func (m *Manifest) WithDefaults(coverage []float64, outputDir string) *Manifest {
	out := &Manifest{
		Output:         m.Output,
		Inputs:         slices.Clone(m.Inputs),
		ScreenCoverage: slices.Clone(m.ScreenCoverage),
	}
	if len(out.ScreenCoverage) == 0 {
		out.ScreenCoverage = slices.Clone(coverage)
	}
	if outputDir != "" && !strings.Contains(out.Output, "/") {
		out.Output = path.Join(outputDir, out.Output)
	}
	return out
}

// Encode renders the manifest as YAML.
func (m *Manifest) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("manifest: encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (m *Manifest) normalize() {
	m.Output = cleanPath(m.Output)
	for i, in := range m.Inputs {
		m.Inputs[i] = cleanPath(in)
	}
}

func (m *Manifest) notAnInput(value any) error {
	out, _ := value.(string)
	if slices.Contains(m.Inputs, out) {
		return errors.New("must not overwrite an input")
	}
	return nil
}

func cleanPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func assetPath(value any) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return errors.New("must be relative to the asset directory")
	}
	if !storage.IsAsset(p) {
		return fmt.Errorf("must be a %s file", storage.AssetExt)
	}
	return nil
}
