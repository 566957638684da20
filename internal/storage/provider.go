// Package storage defines the asset directory abstraction.
package storage

import "github.com/starford/lodmerge/internal/models"

// AssetExt is the extension of the glTF JSON files the provider lists.
const AssetExt = ".gltf"

// Provider is the interface for asset file operations.
type Provider interface {
	// List returns metadata for every .gltf file under dir (relative to the asset root).
	List(dir string) ([]models.AssetMetadata, error)
	// Read returns the raw bytes of the file at path (relative to the asset root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to the asset root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to the asset root).
	Delete(path string) error
	// Move renames oldPath to newPath (both relative to the asset root).
	Move(oldPath, newPath string) error
}
