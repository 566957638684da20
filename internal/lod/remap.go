package lod

import (
	"fmt"
	"slices"

	"github.com/starford/lodmerge/internal/gltf"
)

// offsets holds the size of each primary collection before a LOD document
// is appended: the amount every reference into that collection shifts by.
type offsets struct {
	buffers, samplers, bufferViews, accessors, images int
	textures, materials, meshes, nodes                int
	cameras, skins                                    int
}

// addNodeLOD appends lod onto a copy of primary and records lod's root nodes as
// the next LOD variant of primary's root nodes. Collections are appended from
// the least dependent (buffers) to the most dependent (nodes), so every target
// offset is known before a reference into it is rewritten.
//
// primary, lod and reg are left untouched when an error is returned.
func addNodeLOD(primary *gltf.Document, reg *Registry, lod *gltf.Document) (*gltf.Document, int, error) {
	level, err := checkTopology(primary, lod, reg)
	if err != nil {
		return nil, 0, err
	}
	merged, err := primary.Clone()
	if err != nil {
		return nil, 0, err
	}
	src, err := lod.Clone()
	if err != nil {
		return nil, 0, err
	}
	label := fmt.Sprintf("_lod%d", level)

	off := offsets{
		buffers:     len(merged.Buffers),
		samplers:    len(merged.Samplers),
		bufferViews: len(merged.BufferViews),
		accessors:   len(merged.Accessors),
		images:      len(merged.Images),
		textures:    len(merged.Textures),
		materials:   len(merged.Materials),
		meshes:      len(merged.Meshes),
		nodes:       len(merged.Nodes),
		cameras:     len(merged.Cameras),
		skins:       len(merged.Skins),
	}

	// Buffers, samplers and cameras reference nothing.
	for _, b := range src.Buffers {
		b.ID = b.ID.Offset(off.buffers)
		merged.Buffers = append(merged.Buffers, b)
	}
	for _, s := range src.Samplers {
		s.ID = s.ID.Offset(off.samplers)
		merged.Samplers = append(merged.Samplers, s)
	}
	for _, c := range src.Cameras {
		c.ID = c.ID.Offset(off.cameras)
		merged.Cameras = append(merged.Cameras, c)
	}
	for _, ext := range src.ExtensionsUsed {
		merged.UseExtension(ext)
	}
	for _, ext := range src.ExtensionsRequired {
		if !slices.Contains(merged.ExtensionsRequired, ext) {
			merged.ExtensionsRequired = append(merged.ExtensionsRequired, ext)
		}
	}
	merged.UseExtension(ExtensionLOD)

	for _, bv := range src.BufferViews {
		bv.ID = bv.ID.Offset(off.bufferViews)
		bv.Buffer = bv.Buffer.Offset(off.buffers)
		merged.BufferViews = append(merged.BufferViews, bv)
	}

	for _, a := range src.Accessors {
		a.ID = a.ID.Offset(off.accessors)
		a.BufferView = a.BufferView.Offset(off.bufferViews)
		if a.Sparse != nil {
			a.Sparse.Indices.BufferView = a.Sparse.Indices.BufferView.Offset(off.bufferViews)
			a.Sparse.Values.BufferView = a.Sparse.Values.BufferView.Offset(off.bufferViews)
		}
		merged.Accessors = append(merged.Accessors, a)
	}
	for _, img := range src.Images {
		img.ID = img.ID.Offset(off.images)
		img.BufferView = img.BufferView.Offset(off.bufferViews)
		merged.Images = append(merged.Images, img)
	}

	for _, t := range src.Textures {
		t.ID = t.ID.Offset(off.textures)
		t.Sampler = t.Sampler.Offset(off.samplers)
		t.Source = t.Source.Offset(off.images)
		if err := textureSourceExtensions.apply(t.Extensions, off.images); err != nil {
			return nil, 0, fmt.Errorf("texture %s: %w", t.ID, err)
		}
		merged.Textures = append(merged.Textures, t)
	}

	for _, m := range src.Materials {
		m.Name += label
		m.ID = m.ID.Offset(off.materials)
		offsetTextureInfo(m.NormalTexture, off.textures)
		offsetTextureInfo(m.OcclusionTexture, off.textures)
		offsetTextureInfo(m.EmissiveTexture, off.textures)
		if pbr := m.PBRMetallicRoughness; pbr != nil {
			offsetTextureInfo(pbr.BaseColorTexture, off.textures)
			offsetTextureInfo(pbr.MetallicRoughnessTexture, off.textures)
		}
		if err := materialTextureExtensions.apply(m.Extensions, off.textures); err != nil {
			return nil, 0, fmt.Errorf("material %s: %w", m.ID, err)
		}
		if err := offsetLODExtension(m.Extensions, off.materials); err != nil {
			return nil, 0, fmt.Errorf("material %s: %w", m.ID, err)
		}
		merged.Materials = append(merged.Materials, m)
	}

	for _, mesh := range src.Meshes {
		mesh.Name += label
		mesh.ID = mesh.ID.Offset(off.meshes)
		for _, p := range mesh.Primitives {
			offsetAttributes(p.Attributes, off.accessors)
			for _, target := range p.Targets {
				offsetAttributes(target, off.accessors)
			}
			p.Indices = p.Indices.Offset(off.accessors)
			p.Material = p.Material.Offset(off.materials)
		}
		merged.Meshes = append(merged.Meshes, mesh)
	}

	// Skins and nodes reference each other; both offsets are already known.
	for _, s := range src.Skins {
		s.ID = s.ID.Offset(off.skins)
		s.InverseBindMatrices = s.InverseBindMatrices.Offset(off.accessors)
		s.Skeleton = s.Skeleton.Offset(off.nodes)
		for i, joint := range s.Joints {
			s.Joints[i] = joint.Offset(off.nodes)
		}
		merged.Skins = append(merged.Skins, s)
	}

	for _, n := range src.Nodes {
		n.Name += label
		n.ID = n.ID.Offset(off.nodes)
		n.Mesh = n.Mesh.Offset(off.meshes)
		n.Skin = n.Skin.Offset(off.skins)
		n.Camera = n.Camera.Offset(off.cameras)
		for i, child := range n.Children {
			n.Children[i] = child.Offset(off.nodes)
		}
		if err := offsetLODExtension(n.Extensions, off.nodes); err != nil {
			return nil, 0, fmt.Errorf("node %s: %w", n.ID, err)
		}
		merged.Nodes = append(merged.Nodes, n)
	}

	// Channel samplers index into their own animation and stay as they are.
	animations := len(merged.Animations)
	for _, a := range src.Animations {
		a.ID = a.ID.Offset(animations)
		for _, s := range a.Samplers {
			s.Input = s.Input.Offset(off.accessors)
			s.Output = s.Output.Offset(off.accessors)
		}
		for _, c := range a.Channels {
			c.Target.Node = c.Target.Node.Offset(off.nodes)
		}
		merged.Animations = append(merged.Animations, a)
	}

	// New variants always go to the back of each root's list.
	for i, ps := range primary.Scenes {
		for slot, root := range ps.Nodes {
			reg.add(root, lod.Scenes[i].Nodes[slot].Offset(off.nodes))
		}
	}
	reg.grow(len(merged.Nodes))

	return merged, level, nil
}

func offsetTextureInfo(info *gltf.TextureInfo, offset int) {
	if info != nil {
		info.Index = info.Index.Offset(offset)
	}
}

func offsetAttributes(attrs map[string]gltf.ID, offset int) {
	for semantic, id := range attrs {
		attrs[semantic] = id.Offset(offset)
	}
}
