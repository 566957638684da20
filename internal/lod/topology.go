package lod

import (
	"fmt"
	"slices"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/gltf"
)

// checkTopology verifies that lod can be merged into primary: both must have
// the same number of scenes, and each scene pair the same root nodes. A scene
// with a single root only has to match in count.
//
// It returns the LOD level the merged variant will get: one more than the
// deepest LOD list recorded for any root node of primary.
func checkTopology(primary, lod *gltf.Document, reg *Registry) (int, error) {
	if len(primary.Scenes) == 0 {
		return 0, fmt.Errorf("%w: primary document has no scenes", apperr.ErrIncompatibleTopology)
	}
	if len(primary.Scenes) != len(lod.Scenes) {
		return 0, fmt.Errorf("%w: primary has %d scenes, LOD has %d",
			apperr.ErrIncompatibleTopology, len(primary.Scenes), len(lod.Scenes))
	}

	depth := 0
	for i, ps := range primary.Scenes {
		ls := lod.Scenes[i]
		if len(ps.Nodes) != len(ls.Nodes) {
			return 0, fmt.Errorf("%w: scene %d has %d root nodes in primary, %d in LOD",
				apperr.ErrIncompatibleTopology, i, len(ps.Nodes), len(ls.Nodes))
		}
		if len(ls.Nodes) != 1 && !slices.Equal(ps.Nodes, ls.Nodes) {
			return 0, fmt.Errorf("%w: scene %d root nodes differ", apperr.ErrIncompatibleTopology, i)
		}
		for slot, root := range ps.Nodes {
			if primary.Node(root) == nil {
				return 0, fmt.Errorf("%w: primary scene %d root %q does not resolve", apperr.ErrInvalidInput, i, root.String())
			}
			if lod.Node(ls.Nodes[slot]) == nil {
				return 0, fmt.Errorf("%w: LOD scene %d root %q does not resolve", apperr.ErrInvalidInput, i, ls.Nodes[slot].String())
			}
			depth = max(depth, reg.Depth(root))
		}
	}
	return depth + 1, nil
}
