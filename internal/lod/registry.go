package lod

import (
	"slices"

	"github.com/starford/lodmerge/internal/gltf"
)

// Registry records, for every node of the running primary document, the root
// nodes of its LOD variants ordered from first merged to last merged.
//
// Entries are addressed by node position and only ever grow. A Registry belongs
// to a single merge and must not be shared between goroutines.
type Registry struct {
	lods [][]gltf.ID
}

// ParseDocumentNodeLODs seeds a registry from the MSFT_lod extensions already
// present on doc's nodes. Nodes without the extension get an empty entry.
func ParseDocumentNodeLODs(doc *gltf.Document) (*Registry, error) {
	r := &Registry{lods: make([][]gltf.ID, len(doc.Nodes))}
	for i, node := range doc.Nodes {
		ids, err := ParseLODExtension(node)
		if err != nil {
			return nil, err
		}
		r.lods[i] = ids
	}
	return r, nil
}

// Len returns the number of nodes tracked.
func (r *Registry) Len() int { return len(r.lods) }

// LODs returns a copy of the LOD list recorded for node.
func (r *Registry) LODs(node gltf.ID) []gltf.ID {
	if i := node.Index(); i >= 0 && i < len(r.lods) {
		return slices.Clone(r.lods[i])
	}
	return nil
}

// Depth returns the number of LOD variants recorded for node.
func (r *Registry) Depth(node gltf.ID) int {
	if i := node.Index(); i >= 0 && i < len(r.lods) {
		return len(r.lods[i])
	}
	return 0
}

func (r *Registry) add(node, variant gltf.ID) {
	i := node.Index()
	r.lods[i] = append(r.lods[i], variant)
}

// grow adds empty entries until n nodes are tracked.
func (r *Registry) grow(n int) {
	for len(r.lods) < n {
		r.lods = append(r.lods, nil)
	}
}

// CountNodeLODLevels returns the deepest LOD list recorded for any node of doc,
// or 0 when no node has LOD variants.
func CountNodeLODLevels(doc *gltf.Document, r *Registry) int {
	levels := 0
	for _, node := range doc.Nodes {
		levels = max(levels, r.Depth(node.ID))
	}
	return levels
}
