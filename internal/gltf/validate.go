package gltf

import (
	"errors"
	"fmt"
)

// Validate checks that every collection is densely numbered (each entity's ID
// equals its position) and that every set reference resolves to an entity of
// the collection it names. All problems are reported together.
func (d *Document) Validate() error {
	v := &validator{}

	for i, b := range d.Buffers {
		v.position("buffers", i, b.ID)
	}
	for i, bv := range d.BufferViews {
		v.position("bufferViews", i, bv.ID)
		v.required(fmt.Sprintf("bufferViews[%d].buffer", i), bv.Buffer, len(d.Buffers))
	}
	for i, a := range d.Accessors {
		v.position("accessors", i, a.ID)
		v.ref(fmt.Sprintf("accessors[%d].bufferView", i), a.BufferView, len(d.BufferViews))
		if a.Sparse != nil {
			v.required(fmt.Sprintf("accessors[%d].sparse.indices.bufferView", i), a.Sparse.Indices.BufferView, len(d.BufferViews))
			v.required(fmt.Sprintf("accessors[%d].sparse.values.bufferView", i), a.Sparse.Values.BufferView, len(d.BufferViews))
		}
	}
	for i, img := range d.Images {
		v.position("images", i, img.ID)
		v.ref(fmt.Sprintf("images[%d].bufferView", i), img.BufferView, len(d.BufferViews))
	}
	for i, s := range d.Samplers {
		v.position("samplers", i, s.ID)
	}
	for i, t := range d.Textures {
		v.position("textures", i, t.ID)
		v.ref(fmt.Sprintf("textures[%d].sampler", i), t.Sampler, len(d.Samplers))
		v.ref(fmt.Sprintf("textures[%d].source", i), t.Source, len(d.Images))
	}
	for i, m := range d.Materials {
		v.position("materials", i, m.ID)
		field := func(name string) string { return fmt.Sprintf("materials[%d].%s", i, name) }
		v.texture(field("normalTexture"), m.NormalTexture, len(d.Textures))
		v.texture(field("occlusionTexture"), m.OcclusionTexture, len(d.Textures))
		v.texture(field("emissiveTexture"), m.EmissiveTexture, len(d.Textures))
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			v.texture(field("pbrMetallicRoughness.baseColorTexture"), pbr.BaseColorTexture, len(d.Textures))
			v.texture(field("pbrMetallicRoughness.metallicRoughnessTexture"), pbr.MetallicRoughnessTexture, len(d.Textures))
		}
	}
	for i, m := range d.Meshes {
		v.position("meshes", i, m.ID)
		for j, p := range m.Primitives {
			prefix := fmt.Sprintf("meshes[%d].primitives[%d]", i, j)
			for semantic, id := range p.Attributes {
				v.required(prefix+".attributes."+semantic, id, len(d.Accessors))
			}
			for k, target := range p.Targets {
				for semantic, id := range target {
					v.required(fmt.Sprintf("%s.targets[%d].%s", prefix, k, semantic), id, len(d.Accessors))
				}
			}
			v.ref(prefix+".indices", p.Indices, len(d.Accessors))
			v.ref(prefix+".material", p.Material, len(d.Materials))
		}
	}
	for i, c := range d.Cameras {
		v.position("cameras", i, c.ID)
	}
	for i, s := range d.Skins {
		v.position("skins", i, s.ID)
		v.ref(fmt.Sprintf("skins[%d].inverseBindMatrices", i), s.InverseBindMatrices, len(d.Accessors))
		v.ref(fmt.Sprintf("skins[%d].skeleton", i), s.Skeleton, len(d.Nodes))
		for j, joint := range s.Joints {
			v.required(fmt.Sprintf("skins[%d].joints[%d]", i, j), joint, len(d.Nodes))
		}
	}
	for i, a := range d.Animations {
		v.position("animations", i, a.ID)
		for j, s := range a.Samplers {
			v.required(fmt.Sprintf("animations[%d].samplers[%d].input", i, j), s.Input, len(d.Accessors))
			v.required(fmt.Sprintf("animations[%d].samplers[%d].output", i, j), s.Output, len(d.Accessors))
		}
		for j, c := range a.Channels {
			if c.Sampler < 0 || c.Sampler >= len(a.Samplers) {
				v.errs = append(v.errs, fmt.Errorf("gltf: animations[%d].channels[%d].sampler = %d is out of range (%d samplers)", i, j, c.Sampler, len(a.Samplers)))
			}
			v.ref(fmt.Sprintf("animations[%d].channels[%d].target.node", i, j), c.Target.Node, len(d.Nodes))
		}
	}
	for i, n := range d.Nodes {
		v.position("nodes", i, n.ID)
		v.ref(fmt.Sprintf("nodes[%d].mesh", i), n.Mesh, len(d.Meshes))
		v.ref(fmt.Sprintf("nodes[%d].skin", i), n.Skin, len(d.Skins))
		v.ref(fmt.Sprintf("nodes[%d].camera", i), n.Camera, len(d.Cameras))
		for j, c := range n.Children {
			v.required(fmt.Sprintf("nodes[%d].children[%d]", i, j), c, len(d.Nodes))
		}
	}
	for i, s := range d.Scenes {
		v.position("scenes", i, s.ID)
		for j, n := range s.Nodes {
			v.required(fmt.Sprintf("scenes[%d].nodes[%d]", i, j), n, len(d.Nodes))
		}
	}
	v.ref("scene", d.Scene, len(d.Scenes))

	return errors.Join(v.errs...)
}

type validator struct {
	errs []error
}

func (v *validator) position(collection string, i int, id ID) {
	if id.Index() != i {
		v.errs = append(v.errs, fmt.Errorf("gltf: %s[%d] has id %q", collection, i, id.String()))
	}
}

// ref checks an optional reference.
func (v *validator) ref(field string, id ID, size int) {
	if !id.Valid() {
		return
	}
	if id.Index() >= size {
		v.errs = append(v.errs, fmt.Errorf("gltf: %s = %d is out of range (%d entities)", field, id.Index(), size))
	}
}

// required checks a reference that must be set.
func (v *validator) required(field string, id ID, size int) {
	if !id.Valid() {
		v.errs = append(v.errs, fmt.Errorf("gltf: %s is not set", field))
		return
	}
	v.ref(field, id, size)
}

func (v *validator) texture(field string, info *TextureInfo, size int) {
	if info != nil {
		v.required(field+".index", info.Index, size)
	}
}
