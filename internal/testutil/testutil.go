// Package testutil provides shared test helpers for setting up asset
// directories, catalogs and glTF fixtures.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/starford/lodmerge/internal/catalog"
	"github.com/starford/lodmerge/internal/storage"
)

// assetTemplate is a one-mesh, one-material document hanging below a single
// scene root. %[1]s prefixes every entity name.
const assetTemplate = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "%[1]s_root", "children": [1]},
    {"name": "%[1]s_body", "mesh": 0}
  ],
  "meshes": [{"name": "%[1]s_mesh", "primitives": [{"attributes": {"POSITION": 0}, "material": 0}]}],
  "materials": [{"name": "%[1]s_mat", "pbrMetallicRoughness": {"baseColorTexture": {"index": 0}}}],
  "textures": [{"source": 0}],
  "images": [{"uri": "%[1]s.png"}],
  "accessors": [{"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3"}],
  "bufferViews": [{"buffer": 0, "byteLength": 36}],
  "buffers": [{"uri": "%[1]s.bin", "byteLength": 36}]
}`

// Asset returns a small valid glTF document whose entity names start with name.
func Asset(name string) []byte {
	return []byte(fmt.Sprintf(assetTemplate, name))
}

// TestDB creates a temporary SQLite catalog that is automatically cleaned up.
func TestDB(t *testing.T) *catalog.DB {
	t.Helper()
	db, err := catalog.Open(filepath.Join(t.TempDir(), "lodmerge-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestAssets creates a temporary asset directory with a storage.Provider.
func TestAssets(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// WriteAssets writes Asset(name) to "<name>.gltf" for every name.
func WriteAssets(t *testing.T, store storage.Provider, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := store.Write(name+storage.AssetExt, Asset(name)); err != nil {
			t.Fatal(err)
		}
	}
}
