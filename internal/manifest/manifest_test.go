package manifest

import (
	"errors"
	"reflect"
	"testing"

	"github.com/starford/lodmerge/internal/apperr"
)

func TestParse_Valid(t *testing.T) {
	input := []byte("output: out/chair.gltf\nscreen_coverage: [0.5, 0.2]\ninputs:\n  - chair.gltf\n  - ./lods/chair_lod1.gltf\n")
	m, err := Parse(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Output != "out/chair.gltf" {
		t.Errorf("output = %q", m.Output)
	}
	want := []string{"chair.gltf", "lods/chair_lod1.gltf"}
	if !reflect.DeepEqual(m.Inputs, want) {
		t.Errorf("inputs = %v, want %v", m.Inputs, want)
	}
	if !reflect.DeepEqual(m.ScreenCoverage, []float64{0.5, 0.2}) {
		t.Errorf("coverage = %v", m.ScreenCoverage)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"empty":            "",
		"no inputs":        "output: a.gltf\n",
		"no output":        "inputs: [a.gltf]\n",
		"wrong extension":  "output: a.glb\ninputs: [b.gltf]\n",
		"escapes root":     "output: ../a.gltf\ninputs: [b.gltf]\n",
		"absolute":         "output: /tmp/a.gltf\ninputs: [b.gltf]\n",
		"coverage above 1": "output: a.gltf\ninputs: [b.gltf]\nscreen_coverage: [1.5]\n",
		"coverage zero":    "output: a.gltf\ninputs: [b.gltf]\nscreen_coverage: [0]\n",
		"overwrites input": "output: b.gltf\ninputs: [b.gltf, c.gltf]\n",
		"unknown field":    "output: a.gltf\ninputs: [b.gltf]\nlevels: 3\n",
		"bad yaml":         "output: [\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(input))
			if !errors.Is(err, apperr.ErrInvalidInput) {
				t.Errorf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestParse_RepeatedInputsAllowed(t *testing.T) {
	m, err := Parse([]byte("output: merged.gltf\ninputs: [a.gltf, a.gltf, a.gltf]\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Inputs) != 3 {
		t.Errorf("inputs = %v", m.Inputs)
	}
}

func TestWithDefaults(t *testing.T) {
	m := &Manifest{Output: "chair.gltf", Inputs: []string{"a.gltf"}}
	got := m.WithDefaults([]float64{1, 0.5}, "merged")
	if got.Output != "merged/chair.gltf" {
		t.Errorf("output = %q", got.Output)
	}
	if !reflect.DeepEqual(got.ScreenCoverage, []float64{1, 0.5}) {
		t.Errorf("coverage = %v", got.ScreenCoverage)
	}
	if m.Output != "chair.gltf" || m.ScreenCoverage != nil {
		t.Error("receiver must not be modified")
	}

	m = &Manifest{Output: "props/chair.gltf", Inputs: []string{"a.gltf"}, ScreenCoverage: []float64{0.3}}
	got = m.WithDefaults([]float64{1, 0.5}, "merged")
	if got.Output != "props/chair.gltf" {
		t.Errorf("output with directory should be kept, got %q", got.Output)
	}
	if !reflect.DeepEqual(got.ScreenCoverage, []float64{0.3}) {
		t.Errorf("manifest coverage should win, got %v", got.ScreenCoverage)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	m := &Manifest{Output: "out.gltf", Inputs: []string{"a.gltf", "b.gltf"}, ScreenCoverage: []float64{0.5}}
	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !reflect.DeepEqual(got, m) {
		t.Errorf("got %+v, want %+v", got, m)
	}
}

func TestNew(t *testing.T) {
	inputs := []string{"a.gltf", "lods\\a_lod1.gltf"}
	m, err := New(" out/a.gltf ", inputs, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Output != "out/a.gltf" || m.Inputs[1] != "lods/a_lod1.gltf" {
		t.Errorf("unexpected manifest: %+v", m)
	}
	if inputs[1] != "lods\\a_lod1.gltf" {
		t.Error("caller slice must not be modified")
	}

	if _, err := New("out.gltf", nil, nil); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
