package gltf

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jinzhu/copier"
)

// Decode parses a glTF JSON manifest and assigns every entity its positional ID.
// Members outside the glTF 2.0 schema are rejected rather than dropped, so a
// decoded document always encodes back to the same content.
func Decode(data []byte) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("gltf: decode: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("gltf: decode: trailing data after document")
	}
	if err := doc.assignIDs(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Encode serializes the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("gltf: encode: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of the document. Mutating the copy never touches d.
func (d *Document) Clone() (*Document, error) {
	out := new(Document)
	if err := copier.CopyWithOption(out, d, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("gltf: clone: %w", err)
	}
	return out, nil
}

func (d *Document) assignIDs() error {
	var err error
	assign := func(collection string, n int, set func(i int) bool) {
		for i := 0; i < n && err == nil; i++ {
			if !set(i) {
				err = fmt.Errorf("gltf: decode: %s[%d] is null", collection, i)
			}
		}
	}
	assign("buffers", len(d.Buffers), func(i int) bool {
		if d.Buffers[i] == nil {
			return false
		}
		d.Buffers[i].ID = Ref(i)
		return true
	})
	assign("bufferViews", len(d.BufferViews), func(i int) bool {
		if d.BufferViews[i] == nil {
			return false
		}
		d.BufferViews[i].ID = Ref(i)
		return true
	})
	assign("accessors", len(d.Accessors), func(i int) bool {
		if d.Accessors[i] == nil {
			return false
		}
		d.Accessors[i].ID = Ref(i)
		return true
	})
	assign("images", len(d.Images), func(i int) bool {
		if d.Images[i] == nil {
			return false
		}
		d.Images[i].ID = Ref(i)
		return true
	})
	assign("samplers", len(d.Samplers), func(i int) bool {
		if d.Samplers[i] == nil {
			return false
		}
		d.Samplers[i].ID = Ref(i)
		return true
	})
	assign("textures", len(d.Textures), func(i int) bool {
		if d.Textures[i] == nil {
			return false
		}
		d.Textures[i].ID = Ref(i)
		return true
	})
	assign("materials", len(d.Materials), func(i int) bool {
		if d.Materials[i] == nil {
			return false
		}
		d.Materials[i].ID = Ref(i)
		return true
	})
	assign("meshes", len(d.Meshes), func(i int) bool {
		if d.Meshes[i] == nil {
			return false
		}
		for _, p := range d.Meshes[i].Primitives {
			if p == nil {
				return false
			}
		}
		d.Meshes[i].ID = Ref(i)
		return true
	})
	assign("nodes", len(d.Nodes), func(i int) bool {
		if d.Nodes[i] == nil {
			return false
		}
		d.Nodes[i].ID = Ref(i)
		return true
	})
	assign("cameras", len(d.Cameras), func(i int) bool {
		if d.Cameras[i] == nil {
			return false
		}
		d.Cameras[i].ID = Ref(i)
		return true
	})
	assign("skins", len(d.Skins), func(i int) bool {
		if d.Skins[i] == nil {
			return false
		}
		d.Skins[i].ID = Ref(i)
		return true
	})
	assign("animations", len(d.Animations), func(i int) bool {
		if d.Animations[i] == nil {
			return false
		}
		for _, c := range d.Animations[i].Channels {
			if c == nil {
				return false
			}
		}
		for _, s := range d.Animations[i].Samplers {
			if s == nil {
				return false
			}
		}
		d.Animations[i].ID = Ref(i)
		return true
	})
	assign("scenes", len(d.Scenes), func(i int) bool {
		if d.Scenes[i] == nil {
			return false
		}
		d.Scenes[i].ID = Ref(i)
		return true
	})
	return err
}
