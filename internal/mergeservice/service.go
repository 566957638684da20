// Package mergeservice runs LOD merges over the asset directory and keeps the
// catalog in step with their outputs.
package mergeservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/catalog"
	"github.com/starford/lodmerge/internal/gltf"
	"github.com/starford/lodmerge/internal/lod"
	"github.com/starford/lodmerge/internal/manifest"
	"github.com/starford/lodmerge/internal/models"
	"github.com/starford/lodmerge/internal/storage"
)

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaults sets the screen coverage and output directory applied to
// manifests that leave them unset.
func WithDefaults(coverage []float64, outputDir string) Option {
	return func(s *Service) {
		s.coverage = slices.Clone(coverage)
		s.outputDir = outputDir
	}
}

// WithOnMerge registers a callback invoked after every successful merge.
func WithOnMerge(fn func(models.Merge)) Option {
	return func(s *Service) {
		s.onMerge = fn
	}
}

// Service coordinates storage, the LOD engine and the catalog.
type Service struct {
	store     storage.Provider
	db        catalog.Catalog
	logger    *slog.Logger
	coverage  []float64
	outputDir string
	onMerge   func(models.Merge)

	// mu serialises merges so two runs never write the same output at once.
	mu sync.Mutex
}

// NewService creates a new merge service.
func NewService(store storage.Provider, db catalog.Catalog, opts ...Option) *Service {
	s := &Service{
		store:  store,
		db:     db,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Merge loads the manifest inputs, merges them as LOD levels of the first,
// writes the result to the manifest output and records the run.
func (s *Service) Merge(ctx context.Context, m *manifest.Manifest) (*models.Merge, error) {
	if m == nil {
		return nil, fmt.Errorf("merge: %w: manifest is required", apperr.ErrInvalidInput)
	}
	m = m.WithDefaults(s.coverage, s.outputDir)
	if err := m.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	docs, err := s.loadAll(ctx, m.Inputs)
	if err != nil {
		return nil, err
	}

	merged, err := lod.MergeAsLODs(docs,
		lod.WithScreenCoverage(m.ScreenCoverage...),
		lod.WithLogger(s.logger.With(slog.String("output", m.Output))))
	if err != nil {
		return nil, fmt.Errorf("merge %s: %w", m.Output, err)
	}
	if err := merged.Validate(); err != nil {
		return nil, fmt.Errorf("merge %s: result does not validate: %w", m.Output, err)
	}
	data, err := merged.Encode()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Write(m.Output, data); err != nil {
		return nil, err
	}
	asset, names, err := catalog.Describe(m.Output, data)
	if err != nil {
		return nil, err
	}
	if err := s.db.UpsertAsset(asset, names); err != nil {
		return nil, err
	}

	rec := models.Merge{
		Output:         m.Output,
		Inputs:         m.Inputs,
		ScreenCoverage: m.ScreenCoverage,
		LODLevels:      asset.LODLevels,
		Checksum:       asset.Checksum,
		CreatedAt:      time.Now().UTC(),
	}
	id, err := s.db.RecordMerge(rec)
	if err != nil {
		return nil, err
	}
	rec.ID = id

	s.logger.Info("merge completed",
		slog.Int64("id", id),
		slog.String("output", m.Output),
		slog.Int("inputs", len(m.Inputs)),
		slog.Int("lod_levels", rec.LODLevels),
		slog.Duration("took", time.Since(start)))

	if s.onMerge != nil {
		s.onMerge(rec)
	}
	return &rec, nil
}

// loadAll reads and decodes inputs concurrently, keeping their order.
func (s *Service) loadAll(ctx context.Context, inputs []string) ([]*gltf.Document, error) {
	docs := make([]*gltf.Document, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, p := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			doc, err := s.load(p)
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Service) load(p string) (*gltf.Document, error) {
	data, err := s.store.Read(p)
	if err != nil {
		return nil, err
	}
	doc, err := gltf.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w: %v", p, apperr.ErrInvalidInput, err)
	}
	return doc, nil
}

// Inspect reports the LOD structure of an asset.
func (s *Service) Inspect(_ context.Context, p string) (*models.Inspection, error) {
	doc, err := s.load(p)
	if err != nil {
		return nil, err
	}
	return InspectDocument(p, doc)
}

// GetAsset returns the catalog entry of an asset.
func (s *Service) GetAsset(_ context.Context, p string) (*models.Asset, error) {
	return s.db.GetAsset(p)
}

// ListAssets returns a page of catalogued assets and the total count.
func (s *Service) ListAssets(_ context.Context, limit, offset int, lodOnly bool) ([]models.Asset, int, error) {
	return s.db.ListAssets(limit, offset, lodOnly)
}

// SearchAssets delegates search to the catalog.
func (s *Service) SearchAssets(_ context.Context, query string, limit int) ([]catalog.SearchResult, error) {
	return s.db.Search(query, limit)
}

// GetMerge returns a recorded merge.
func (s *Service) GetMerge(_ context.Context, id int64) (*models.Merge, error) {
	return s.db.GetMerge(id)
}

// ListMerges returns a page of recorded merges, newest first.
func (s *Service) ListMerges(_ context.Context, limit, offset int) ([]models.Merge, int, error) {
	return s.db.ListMerges(limit, offset)
}

// IsClientError reports whether err was caused by the request rather than the
// service: bad input, an incompatible document set or a missing file.
func IsClientError(err error) bool {
	return errors.Is(err, apperr.ErrInvalidInput) ||
		errors.Is(err, apperr.ErrIncompatibleTopology) ||
		errors.Is(err, apperr.ErrMalformedExtension) ||
		errors.Is(err, apperr.ErrNotFound)
}
