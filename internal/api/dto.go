package api

import (
	"github.com/starford/lodmerge/internal/catalog"
	"github.com/starford/lodmerge/internal/models"
)

// MergeRequest is the JSON body of POST /merges.
type MergeRequest struct {
	Output         string    `json:"output" example:"merged/chair.gltf" validate:"required"`
	Inputs         []string  `json:"inputs" example:"chair.gltf,chair_lod1.gltf" validate:"required"`
	ScreenCoverage []float64 `json:"screen_coverage,omitempty" example:"0.5,0.2"`
}

// MoveRequest is the JSON body of PATCH /assets/{path}.
type MoveRequest struct {
	Path string `json:"path" example:"archive/chair.gltf" validate:"required"`
}

// AssetListResponse wraps paginated asset listings.
type AssetListResponse struct {
	Assets []models.Asset `json:"assets" validate:"required"`
	Total  int            `json:"total" example:"42" validate:"required"`
}

// AssetDetail is the response of GET /assets/{path}: the catalog entry and a
// fresh inspection of the file.
type AssetDetail struct {
	Asset      *models.Asset      `json:"asset"`
	Inspection *models.Inspection `json:"inspection" validate:"required"`
}

// MergeListResponse wraps paginated merge listings.
type MergeListResponse struct {
	Merges []models.Merge `json:"merges" validate:"required"`
	Total  int            `json:"total" example:"3" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []catalog.SearchResult `json:"results" validate:"required"`
}
