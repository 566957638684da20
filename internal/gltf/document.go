// Package gltf models the glTF 2.0 JSON manifest as ordered entity collections
// connected by positional IDs.
//
// Every core glTF 2.0 collection is modeled so that nothing is lost on a
// decode and encode round trip. Extension and extras payloads are kept as raw
// JSON; any other member is rejected by Decode.
package gltf

import (
	"encoding/json"
	"slices"
)

// Extensions maps an extension name to its raw JSON payload.
type Extensions map[string]json.RawMessage

// Document is the root of a glTF manifest.
type Document struct {
	Asset              Asset           `json:"asset"`
	ExtensionsUsed     []string        `json:"extensionsUsed,omitempty"`
	ExtensionsRequired []string        `json:"extensionsRequired,omitempty"`
	Scene              ID              `json:"scene,omitzero"`
	Scenes             []*Scene        `json:"scenes,omitempty"`
	Nodes              []*Node         `json:"nodes,omitempty"`
	Meshes             []*Mesh         `json:"meshes,omitempty"`
	Materials          []*Material     `json:"materials,omitempty"`
	Textures           []*Texture      `json:"textures,omitempty"`
	Images             []*Image        `json:"images,omitempty"`
	Samplers           []*Sampler      `json:"samplers,omitempty"`
	Accessors          []*Accessor     `json:"accessors,omitempty"`
	Cameras            []*Camera       `json:"cameras,omitempty"`
	Skins              []*Skin         `json:"skins,omitempty"`
	Animations         []*Animation    `json:"animations,omitempty"`
	BufferViews        []*BufferView   `json:"bufferViews,omitempty"`
	Buffers            []*Buffer       `json:"buffers,omitempty"`
	Extensions         Extensions      `json:"extensions,omitempty"`
	Extras             json.RawMessage `json:"extras,omitempty"`
}

// Asset holds metadata about the glTF asset.
type Asset struct {
	Version    string          `json:"version"`
	MinVersion string          `json:"minVersion,omitempty"`
	Generator  string          `json:"generator,omitempty"`
	Copyright  string          `json:"copyright,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Buffer points to binary geometry, animation or skin data.
type Buffer struct {
	ID         ID              `json:"-"`
	Name       string          `json:"name,omitempty"`
	URI        string          `json:"uri,omitempty"`
	ByteLength int             `json:"byteLength"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// BufferView is a view into a buffer.
type BufferView struct {
	ID         ID              `json:"-"`
	Name       string          `json:"name,omitempty"`
	Buffer     ID              `json:"buffer"`
	ByteOffset int             `json:"byteOffset,omitempty"`
	ByteLength int             `json:"byteLength"`
	ByteStride int             `json:"byteStride,omitempty"`
	Target     int             `json:"target,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Accessor is a typed view into a buffer view.
type Accessor struct {
	ID            ID              `json:"-"`
	Name          string          `json:"name,omitempty"`
	BufferView    ID              `json:"bufferView,omitzero"`
	ByteOffset    int             `json:"byteOffset,omitempty"`
	ComponentType int             `json:"componentType"`
	Normalized    bool            `json:"normalized,omitempty"`
	Count         int             `json:"count"`
	Type          string          `json:"type"`
	Max           []float64       `json:"max,omitempty"`
	Min           []float64       `json:"min,omitempty"`
	Sparse        *Sparse         `json:"sparse,omitempty"`
	Extensions    Extensions      `json:"extensions,omitempty"`
	Extras        json.RawMessage `json:"extras,omitempty"`
}

// Sparse stores displacements of accessor elements from their initial values.
type Sparse struct {
	Count      int             `json:"count"`
	Indices    SparseIndices   `json:"indices"`
	Values     SparseValues    `json:"values"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// SparseIndices locates the indices of the displaced elements.
type SparseIndices struct {
	BufferView    ID              `json:"bufferView"`
	ByteOffset    int             `json:"byteOffset,omitempty"`
	ComponentType int             `json:"componentType"`
	Extensions    Extensions      `json:"extensions,omitempty"`
	Extras        json.RawMessage `json:"extras,omitempty"`
}

// SparseValues locates the displaced element values.
type SparseValues struct {
	BufferView ID              `json:"bufferView"`
	ByteOffset int             `json:"byteOffset,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Image is image data referenced by a URI or a buffer view.
type Image struct {
	ID         ID              `json:"-"`
	Name       string          `json:"name,omitempty"`
	URI        string          `json:"uri,omitempty"`
	MimeType   string          `json:"mimeType,omitempty"`
	BufferView ID              `json:"bufferView,omitzero"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Sampler holds texture filtering and wrapping modes.
type Sampler struct {
	ID         ID              `json:"-"`
	Name       string          `json:"name,omitempty"`
	MagFilter  int             `json:"magFilter,omitempty"`
	MinFilter  int             `json:"minFilter,omitempty"`
	WrapS      int             `json:"wrapS,omitempty"`
	WrapT      int             `json:"wrapT,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Texture pairs an image with a sampler.
type Texture struct {
	ID         ID              `json:"-"`
	Name       string          `json:"name,omitempty"`
	Sampler    ID              `json:"sampler,omitzero"`
	Source     ID              `json:"source,omitzero"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// TextureInfo references a texture from a material. Scale is only meaningful
// for normal textures and Strength for occlusion textures.
type TextureInfo struct {
	Index      ID              `json:"index"`
	TexCoord   int             `json:"texCoord,omitempty"`
	Scale      *float64        `json:"scale,omitempty"`
	Strength   *float64        `json:"strength,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// PBRMetallicRoughness is the core metallic-roughness material model.
type PBRMetallicRoughness struct {
	BaseColorFactor          []float64       `json:"baseColorFactor,omitempty"`
	BaseColorTexture         *TextureInfo    `json:"baseColorTexture,omitempty"`
	MetallicFactor           *float64        `json:"metallicFactor,omitempty"`
	RoughnessFactor          *float64        `json:"roughnessFactor,omitempty"`
	MetallicRoughnessTexture *TextureInfo    `json:"metallicRoughnessTexture,omitempty"`
	Extensions               Extensions      `json:"extensions,omitempty"`
	Extras                   json.RawMessage `json:"extras,omitempty"`
}

// Material describes the appearance of a primitive.
type Material struct {
	ID                   ID                    `json:"-"`
	Name                 string                `json:"name,omitempty"`
	PBRMetallicRoughness *PBRMetallicRoughness `json:"pbrMetallicRoughness,omitempty"`
	NormalTexture        *TextureInfo          `json:"normalTexture,omitempty"`
	OcclusionTexture     *TextureInfo          `json:"occlusionTexture,omitempty"`
	EmissiveTexture      *TextureInfo          `json:"emissiveTexture,omitempty"`
	EmissiveFactor       []float64             `json:"emissiveFactor,omitempty"`
	AlphaMode            string                `json:"alphaMode,omitempty"`
	AlphaCutoff          *float64              `json:"alphaCutoff,omitempty"`
	DoubleSided          bool                  `json:"doubleSided,omitempty"`
	Extensions           Extensions            `json:"extensions,omitempty"`
	Extras               json.RawMessage       `json:"extras,omitempty"`
}

// Primitive is geometry to be rendered with a given material.
type Primitive struct {
	Attributes map[string]ID   `json:"attributes"`
	Indices    ID              `json:"indices,omitzero"`
	Material   ID              `json:"material,omitzero"`
	Mode       *int            `json:"mode,omitempty"`
	Targets    []map[string]ID `json:"targets,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Mesh is a set of primitives.
type Mesh struct {
	ID         ID              `json:"-"`
	Name       string          `json:"name,omitempty"`
	Primitives []*Primitive    `json:"primitives"`
	Weights    []float64       `json:"weights,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Node is an element of the scene hierarchy.
type Node struct {
	ID          ID              `json:"-"`
	Name        string          `json:"name,omitempty"`
	Children    []ID            `json:"children,omitempty"`
	Mesh        ID              `json:"mesh,omitzero"`
	Skin        ID              `json:"skin,omitzero"`
	Camera      ID              `json:"camera,omitzero"`
	Matrix      []float64       `json:"matrix,omitempty"`
	Rotation    []float64       `json:"rotation,omitempty"`
	Scale       []float64       `json:"scale,omitempty"`
	Translation []float64       `json:"translation,omitempty"`
	Weights     []float64       `json:"weights,omitempty"`
	Extensions  Extensions      `json:"extensions,omitempty"`
	Extras      json.RawMessage `json:"extras,omitempty"`
}

// Camera is a projection used to view the scene.
type Camera struct {
	ID           ID                  `json:"-"`
	Name         string              `json:"name,omitempty"`
	Type         string              `json:"type"`
	Perspective  *PerspectiveCamera  `json:"perspective,omitempty"`
	Orthographic *OrthographicCamera `json:"orthographic,omitempty"`
	Extensions   Extensions          `json:"extensions,omitempty"`
	Extras       json.RawMessage     `json:"extras,omitempty"`
}

// PerspectiveCamera holds the values of a perspective projection.
type PerspectiveCamera struct {
	AspectRatio *float64        `json:"aspectRatio,omitempty"`
	YFov        float64         `json:"yfov"`
	ZFar        *float64        `json:"zfar,omitempty"`
	ZNear       float64         `json:"znear"`
	Extensions  Extensions      `json:"extensions,omitempty"`
	Extras      json.RawMessage `json:"extras,omitempty"`
}

// OrthographicCamera holds the values of an orthographic projection.
type OrthographicCamera struct {
	XMag       float64         `json:"xmag"`
	YMag       float64         `json:"ymag"`
	ZFar       float64         `json:"zfar"`
	ZNear      float64         `json:"znear"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Skin binds joint nodes to the vertices of a mesh.
type Skin struct {
	ID                  ID              `json:"-"`
	Name                string          `json:"name,omitempty"`
	InverseBindMatrices ID              `json:"inverseBindMatrices,omitzero"`
	Skeleton            ID              `json:"skeleton,omitzero"`
	Joints              []ID            `json:"joints"`
	Extensions          Extensions      `json:"extensions,omitempty"`
	Extras              json.RawMessage `json:"extras,omitempty"`
}

// Animation is a set of keyframe channels.
type Animation struct {
	ID         ID                  `json:"-"`
	Name       string              `json:"name,omitempty"`
	Channels   []*AnimationChannel `json:"channels"`
	Samplers   []*AnimationSampler `json:"samplers"`
	Extensions Extensions          `json:"extensions,omitempty"`
	Extras     json.RawMessage     `json:"extras,omitempty"`
}

// AnimationChannel targets a node property with one of the animation's
// samplers. Sampler is local to the animation and never shifts on merge.
type AnimationChannel struct {
	Sampler    int             `json:"sampler"`
	Target     ChannelTarget   `json:"target"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// ChannelTarget is the node and property an animation channel drives.
type ChannelTarget struct {
	Node       ID              `json:"node,omitzero"`
	Path       string          `json:"path"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// AnimationSampler pairs keyframe times with output values.
type AnimationSampler struct {
	Input         ID              `json:"input"`
	Interpolation string          `json:"interpolation,omitempty"`
	Output        ID              `json:"output"`
	Extensions    Extensions      `json:"extensions,omitempty"`
	Extras        json.RawMessage `json:"extras,omitempty"`
}

// Scene lists the root nodes to render.
type Scene struct {
	ID         ID              `json:"-"`
	Name       string          `json:"name,omitempty"`
	Nodes      []ID            `json:"nodes,omitempty"`
	Extensions Extensions      `json:"extensions,omitempty"`
	Extras     json.RawMessage `json:"extras,omitempty"`
}

// Node returns the node id refers to, or nil when it does not resolve.
func (d *Document) Node(id ID) *Node {
	if i := id.Index(); i >= 0 && i < len(d.Nodes) {
		return d.Nodes[i]
	}
	return nil
}

// UseExtension adds name to extensionsUsed if it is not listed yet.
func (d *Document) UseExtension(name string) {
	if slices.Contains(d.ExtensionsUsed, name) {
		return
	}
	d.ExtensionsUsed = append(d.ExtensionsUsed, name)
}
