package lod

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/gltf"
)

// indexPath locates an integer index inside an extension payload: either a
// top-level field ("source") or a field nested one level ("normalTexture", "index").
type indexPath []string

// extensionIndexes lists, per extension name, the index fields its payload embeds.
// Every path of one table points into the same target collection.
type extensionIndexes map[string][]indexPath

// textureSourceExtensions embed an image index in a texture.
var textureSourceExtensions = extensionIndexes{
	"MSFT_texture_dds":   {{"source"}},
	"KHR_texture_basisu": {{"source"}},
	"EXT_texture_webp":   {{"source"}},
}

// materialTextureExtensions embed texture indices in a material.
var materialTextureExtensions = extensionIndexes{
	"MSFT_packing_occlusionRoughnessMetallic": {
		{"occlusionRoughnessMetallicTexture", "index"},
		{"roughnessMetallicOcclusionTexture", "index"},
		{"normalTexture", "index"},
	},
	"KHR_materials_pbrSpecularGlossiness": {
		{"diffuseTexture", "index"},
		{"specularGlossinessTexture", "index"},
	},
}

// apply shifts every known index field found in exts by offset.
func (t extensionIndexes) apply(exts gltf.Extensions, offset int) error {
	for name, paths := range t {
		raw, ok := exts[name]
		if !ok || len(raw) == 0 {
			continue
		}
		for _, p := range paths {
			patched, err := PatchEmbeddedIndex(raw, offset, p...)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			raw = patched
		}
		exts[name] = raw
	}
	return nil
}

// PatchEmbeddedIndex adds offset to the integer stored at path inside blob.
// A blob that does not contain path is returned unchanged. The input slice is
// never modified.
func PatchEmbeddedIndex(blob json.RawMessage, offset int, path ...string) (json.RawMessage, error) {
	if len(blob) == 0 || len(path) == 0 || offset == 0 {
		return blob, nil
	}
	n, err := jsonparser.GetInt(blob, path...)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return blob, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrMalformedExtension, strings.Join(path, "."), err)
	}
	out, err := jsonparser.Set(bytes.Clone(blob), strconv.AppendInt(nil, n+int64(offset), 10), path...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrMalformedExtension, strings.Join(path, "."), err)
	}
	return out, nil
}
