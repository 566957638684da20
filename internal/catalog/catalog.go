package catalog

import "github.com/starford/lodmerge/internal/models"

// Catalog defines the asset and merge bookkeeping operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type Catalog interface {
	UpsertAsset(a models.Asset, names string) error
	DeleteAsset(path string) error
	GetChecksum(path string) (string, error)
	GetAsset(path string) (*models.Asset, error)
	ListAssets(limit, offset int, lodOnly bool) ([]models.Asset, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	RecordMerge(m models.Merge) (int64, error)
	GetMerge(id int64) (*models.Merge, error)
	ListMerges(limit, offset int) ([]models.Merge, int, error)
	Close() error
}

var _ Catalog = (*DB)(nil)
