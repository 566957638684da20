package gltf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const triangle = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [{"name": "root", "mesh": 0, "children": [1]}, {"name": "child"}],
  "meshes": [{"name": "tri", "primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}],
  "materials": [{"name": "red", "pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
  "textures": [{"sampler": 0, "source": 0}],
  "images": [{"uri": "red.png"}],
  "samplers": [{"magFilter": 9729}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ],
  "bufferViews": [
    {"buffer": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "buffers": [{"uri": "tri.bin", "byteLength": 42}],
  "extensionsUsed": ["KHR_texture_transform"],
  "extras": {"author": "test"}
}`

func TestID_ZeroIsUnset(t *testing.T) {
	var id ID
	assert.False(t, id.Valid())
	assert.True(t, id.IsZero())
	assert.Equal(t, -1, id.Index())
	assert.Equal(t, "", id.String())
	assert.Equal(t, Unset, id.Offset(10))
}

func TestID_OffsetIsAdditive(t *testing.T) {
	id := Ref(2)
	assert.Equal(t, 2, id.Index())
	assert.Equal(t, "2", id.String())
	assert.Equal(t, 7, id.Offset(5).Index())
	assert.Equal(t, 2, id.Offset(0).Index())
}

func TestID_JSON(t *testing.T) {
	var n struct {
		Mesh     ID   `json:"mesh,omitzero"`
		Children []ID `json:"children"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"mesh":0,"children":[3,1]}`), &n))
	assert.Equal(t, Ref(0), n.Mesh)
	assert.Equal(t, IDs(3, 1), n.Children)

	n.Mesh = Unset
	out, err := json.Marshal(n)
	require.NoError(t, err)
	assert.JSONEq(t, `{"children":[3,1]}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"mesh":-2}`), &n))
	assert.Error(t, json.Unmarshal([]byte(`{"mesh":"x"}`), &n))
}

func TestDecode_AssignsPositionalIDs(t *testing.T) {
	doc, err := Decode([]byte(triangle))
	require.NoError(t, err)

	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, Ref(0), doc.Nodes[0].ID)
	assert.Equal(t, Ref(1), doc.Nodes[1].ID)
	assert.Equal(t, Ref(1), doc.Accessors[1].ID)
	assert.Equal(t, Ref(0), doc.Scene)
	assert.Equal(t, Ref(0), doc.Meshes[0].Primitives[0].Material)
	assert.Equal(t, Ref(1), doc.Meshes[0].Primitives[0].Indices)
	assert.Equal(t, Ref(0), doc.Materials[0].PBRMetallicRoughness.BaseColorTexture.Index)
	assert.NoError(t, doc.Validate())
}

func TestDecode_RejectsNullEntity(t *testing.T) {
	_, err := Decode([]byte(`{"asset":{"version":"2.0"},"nodes":[null]}`))
	assert.Error(t, err)
}

func TestEncode_RoundTripKeepsReferences(t *testing.T) {
	doc, err := Decode([]byte(triangle))
	require.NoError(t, err)
	data, err := doc.Encode()
	require.NoError(t, err)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, doc.Nodes[0].Children, again.Nodes[0].Children)
	assert.Equal(t, doc.Meshes[0].Primitives[0].Attributes, again.Meshes[0].Primitives[0].Attributes)
	assert.JSONEq(t, `{"author":"test"}`, string(again.Extras))
	assert.False(t, again.Images[0].BufferView.Valid())
}

const rigged = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0, 2]}],
  "nodes": [
    {"name": "armature", "children": [1]},
    {"name": "body", "mesh": 0, "skin": 0},
    {"name": "eye", "camera": 1, "translation": [0, 1, 2]}
  ],
  "meshes": [{"primitives": [{"attributes": {"POSITION": 0, "JOINTS_0": 1, "WEIGHTS_0": 2}}]}],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"},
    {"bufferView": 0, "componentType": 5123, "count": 3, "type": "VEC4"},
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC4"},
    {"bufferView": 0, "componentType": 5126, "count": 1, "type": "MAT4"},
    {"bufferView": 0, "componentType": 5126, "count": 2, "type": "SCALAR"},
    {"bufferView": 0, "componentType": 5126, "count": 2, "type": "VEC4"}
  ],
  "cameras": [
    {"name": "wide", "type": "perspective", "perspective": {"aspectRatio": 1.5, "yfov": 0.66, "znear": 0.01}},
    {"type": "orthographic", "orthographic": {"xmag": 1, "ymag": 1, "zfar": 100, "znear": 0.1}}
  ],
  "skins": [{"name": "rig", "inverseBindMatrices": 3, "skeleton": 0, "joints": [0]}],
  "animations": [{
    "name": "wave",
    "channels": [{"sampler": 0, "target": {"node": 0, "path": "rotation"}}],
    "samplers": [{"input": 4, "interpolation": "LINEAR", "output": 5}]
  }],
  "bufferViews": [{"buffer": 0, "byteLength": 64}],
  "buffers": [{"byteLength": 64}]
}`

func TestEncode_RoundTripKeepsSkinsCamerasAnimations(t *testing.T) {
	doc, err := Decode([]byte(rigged))
	require.NoError(t, err)
	require.NoError(t, doc.Validate())

	assert.Equal(t, Ref(0), doc.Nodes[1].Skin)
	assert.Equal(t, Ref(1), doc.Nodes[2].Camera)
	assert.False(t, doc.Nodes[0].Skin.Valid())
	assert.Equal(t, Ref(0), doc.Animations[0].ID)
	assert.Equal(t, Ref(1), doc.Cameras[1].ID)

	data, err := doc.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, rigged, string(data))
}

func TestDecode_RejectsUnknownMembers(t *testing.T) {
	for name, in := range map[string]string{
		"top level": `{"asset":{"version":"2.0"},"lights":[]}`,
		"node":      `{"asset":{"version":"2.0"},"nodes":[{"light":0}]}`,
		"camera":    `{"asset":{"version":"2.0"},"cameras":[{"type":"perspective","fov":1}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(in))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "unknown field")
		})
	}
}

func TestValidate_ReportsDanglingRigReferences(t *testing.T) {
	doc, err := Decode([]byte(rigged))
	require.NoError(t, err)

	doc.Skins[0].Joints[0] = Ref(7)
	doc.Animations[0].Channels[0].Sampler = 3
	doc.Animations[0].Samplers[0].Output = Ref(9)
	doc.Nodes[2].Camera = Ref(4)

	err = doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skins[0].joints[0]")
	assert.Contains(t, err.Error(), "animations[0].channels[0].sampler")
	assert.Contains(t, err.Error(), "animations[0].samplers[0].output")
	assert.Contains(t, err.Error(), "nodes[2].camera")
}

func TestClone_IsDeep(t *testing.T) {
	doc, err := Decode([]byte(triangle))
	require.NoError(t, err)

	cp, err := doc.Clone()
	require.NoError(t, err)
	cp.Nodes[0].Name = "changed"
	cp.Nodes[0].Children[0] = Ref(0)
	cp.Meshes[0].Primitives[0].Attributes["POSITION"] = Ref(1)
	cp.Nodes = append(cp.Nodes, &Node{ID: Ref(2)})

	assert.Equal(t, "root", doc.Nodes[0].Name)
	assert.Equal(t, Ref(1), doc.Nodes[0].Children[0])
	assert.Equal(t, Ref(0), doc.Meshes[0].Primitives[0].Attributes["POSITION"])
	assert.Len(t, doc.Nodes, 2)
	assert.Equal(t, Ref(1), cp.Nodes[1].ID)
}

func TestValidate_ReportsDanglingReferences(t *testing.T) {
	doc, err := Decode([]byte(triangle))
	require.NoError(t, err)

	doc.Nodes[0].Mesh = Ref(5)
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, Ref(9))
	doc.Textures[0].Source = Ref(1)

	err = doc.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nodes[0].mesh")
	assert.Contains(t, err.Error(), "scenes[0].nodes[1]")
	assert.Contains(t, err.Error(), "textures[0].source")
}

func TestValidate_ReportsSparseIDs(t *testing.T) {
	doc, err := Decode([]byte(triangle))
	require.NoError(t, err)
	doc.Nodes[1].ID = Ref(3)
	assert.Error(t, doc.Validate())
}

func TestUseExtension_Deduplicates(t *testing.T) {
	doc := &Document{}
	doc.UseExtension("MSFT_lod")
	doc.UseExtension("MSFT_lod")
	assert.Equal(t, []string{"MSFT_lod"}, doc.ExtensionsUsed)
}
