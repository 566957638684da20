package catalog

import (
	"log/slog"
	"path"
	"strings"

	"github.com/starford/lodmerge/internal/checksum"
	"github.com/starford/lodmerge/internal/gltf"
	"github.com/starford/lodmerge/internal/lod"
	"github.com/starford/lodmerge/internal/models"
	"github.com/starford/lodmerge/internal/storage"
)

// Sync walks the asset directory and brings the catalog up to date:
//   - new/changed files are decoded and upserted
//   - files removed from disk are deleted from the catalog
//
// Files that are not valid glTF are logged and skipped.
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteAsset(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// Describe decodes a glTF file and summarises it for the catalog. The second
// result holds the entity names to search on.
func Describe(p string, data []byte) (models.Asset, string, error) {
	doc, err := gltf.Decode(data)
	if err != nil {
		return models.Asset{}, "", err
	}
	reg, err := lod.ParseDocumentNodeLODs(doc)
	if err != nil {
		return models.Asset{}, "", err
	}

	a := models.Asset{
		Path:       p,
		Name:       assetName(p, doc),
		Checksum:   checksum.Sum(data),
		Scenes:     len(doc.Scenes),
		Nodes:      len(doc.Nodes),
		Materials:  len(doc.Materials),
		LODLevels:  lod.CountNodeLODLevels(doc, reg),
		Extensions: doc.ExtensionsUsed,
	}
	return a, entityNames(doc), nil
}

func indexFile(db *DB, p string, data []byte) error {
	a, names, err := Describe(p, data)
	if err != nil {
		return err
	}
	return db.UpsertAsset(a, names)
}

// assetName returns the name of the default scene, falling back to the file
// name without its extension.
func assetName(p string, doc *gltf.Document) string {
	if i := doc.Scene.Index(); i >= 0 && i < len(doc.Scenes) && doc.Scenes[i].Name != "" {
		return doc.Scenes[i].Name
	}
	if len(doc.Scenes) > 0 && doc.Scenes[0].Name != "" {
		return doc.Scenes[0].Name
	}
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func entityNames(doc *gltf.Document) string {
	var names []string
	for _, n := range doc.Nodes {
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	for _, m := range doc.Meshes {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	for _, m := range doc.Materials {
		if m.Name != "" {
			names = append(names, m.Name)
		}
	}
	return strings.Join(names, " ")
}
