package mergeservice

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/catalog"
	"github.com/starford/lodmerge/internal/gltf"
	"github.com/starford/lodmerge/internal/models"
	"github.com/starford/lodmerge/internal/storage"
)

// MaxAssetSize caps the size of an uploaded glTF manifest.
const MaxAssetSize = 32 << 20

// PutAsset checks that data is a valid glTF document and stores it at p,
// replacing any existing file, then catalogues it.
func (s *Service) PutAsset(_ context.Context, p string, data []byte) (*models.Asset, error) {
	p, err := cleanAssetPath(p)
	if err != nil {
		return nil, err
	}
	if len(data) > MaxAssetSize {
		return nil, fmt.Errorf("asset %s: %w: %d bytes exceeds %d", p, apperr.ErrInvalidInput, len(data), MaxAssetSize)
	}
	doc, err := gltf.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w: %v", p, apperr.ErrInvalidInput, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("asset %s: %w: %v", p, apperr.ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Write(p, data); err != nil {
		return nil, err
	}
	asset, names, err := catalog.Describe(p, data)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertAsset(asset, names); err != nil {
		return nil, err
	}
	return &asset, nil
}

// DeleteAsset removes an asset file and its catalog entry.
func (s *Service) DeleteAsset(_ context.Context, p string) error {
	p, err := cleanAssetPath(p)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(p); err != nil {
		return err
	}
	return s.db.DeleteAsset(p)
}

// MoveAsset renames an asset file and moves its catalog entry along with it.
// An existing file at to is never overwritten.
func (s *Service) MoveAsset(_ context.Context, from, to string) (*models.Asset, error) {
	from, err := cleanAssetPath(from)
	if err != nil {
		return nil, err
	}
	to, err = cleanAssetPath(to)
	if err != nil {
		return nil, err
	}
	if from == to {
		return nil, fmt.Errorf("%w: %s is already at that path", apperr.ErrInvalidInput, from)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Move(from, to); err != nil {
		return nil, err
	}
	data, err := s.store.Read(to)
	if err != nil {
		return nil, err
	}
	asset, names, err := catalog.Describe(to, data)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertAsset(asset, names); err != nil {
		return nil, err
	}
	if err := s.db.DeleteAsset(from); err != nil {
		return nil, err
	}
	return &asset, nil
}

func cleanAssetPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("%w: path is required", apperr.ErrInvalidInput)
	}
	p = path.Clean(p)
	if path.IsAbs(p) || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: path %s escapes the asset directory", apperr.ErrInvalidInput, p)
	}
	if !storage.IsAsset(p) {
		return "", fmt.Errorf("%w: path %s is not a %s file", apperr.ErrInvalidInput, p, storage.AssetExt)
	}
	return p, nil
}
