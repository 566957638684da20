// Package models defines the domain types for lodmerge.
package models

import "time"

// Asset represents a catalogued glTF file in the asset directory.
type Asset struct {
	Path       string    `json:"path"`
	Name       string    `json:"name,omitempty"`
	Checksum   string    `json:"checksum"`
	Scenes     int       `json:"scenes"`
	Nodes      int       `json:"nodes"`
	Materials  int       `json:"materials"`
	LODLevels  int       `json:"lod_levels"`
	Extensions []string  `json:"extensions,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// AssetMetadata is a lightweight representation returned by list operations.
type AssetMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Merge is a recorded MergeAsLODs run.
type Merge struct {
	ID             int64     `json:"id"`
	Output         string    `json:"output"`
	Inputs         []string  `json:"inputs"`
	ScreenCoverage []float64 `json:"screen_coverage,omitempty"`
	LODLevels      int       `json:"lod_levels"`
	Checksum       string    `json:"checksum"`
	CreatedAt      time.Time `json:"created_at"`
}

// NodeLODs lists the LOD variants recorded for one node.
type NodeLODs struct {
	Node  int    `json:"node"`
	Name  string `json:"name,omitempty"`
	Root  bool   `json:"root"`
	LODs  []int  `json:"lods"`
	Depth int    `json:"depth"`

	// Coverage is the screen coverage stored on this node, set for scene roots only.
	Coverage []float64 `json:"screen_coverage,omitempty"`
}

// Inspection summarises the LOD structure of a document.
type Inspection struct {
	Path      string     `json:"path"`
	Scenes    int        `json:"scenes"`
	Nodes     int        `json:"nodes"`
	Materials int        `json:"materials"`
	LODLevels int        `json:"lod_levels"`
	LODNodes  []NodeLODs `json:"lod_nodes"`
	// Coverage holds the screen coverage of the first root of the first scene,
	// if any. Per-root values are reported on LODNodes.
	Coverage []float64 `json:"screen_coverage,omitempty"`
}
