package mergeservice

import (
	"errors"
	"fmt"

	"github.com/buger/jsonparser"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/gltf"
	"github.com/starford/lodmerge/internal/lod"
	"github.com/starford/lodmerge/internal/models"
)

// InspectDocument lists the nodes of doc that carry LOD variants. Each listed
// scene root reports its own screen coverage; the document-level Coverage is
// taken from the first root of the first scene only, which is where a merge
// with a single coverage list puts it for single-root assets.
func InspectDocument(p string, doc *gltf.Document) (*models.Inspection, error) {
	reg, err := lod.ParseDocumentNodeLODs(doc)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", p, err)
	}

	roots := map[gltf.ID]bool{}
	for _, scene := range doc.Scenes {
		for _, root := range scene.Nodes {
			roots[root] = true
		}
	}

	out := &models.Inspection{
		Path:      p,
		Scenes:    len(doc.Scenes),
		Nodes:     len(doc.Nodes),
		Materials: len(doc.Materials),
		LODLevels: lod.CountNodeLODLevels(doc, reg),
		LODNodes:  []models.NodeLODs{},
	}
	for _, node := range doc.Nodes {
		depth := reg.Depth(node.ID)
		if depth == 0 {
			continue
		}
		ids := reg.LODs(node.ID)
		lods := make([]int, len(ids))
		for i, id := range ids {
			lods[i] = id.Index()
		}
		entry := models.NodeLODs{
			Node:  node.ID.Index(),
			Name:  node.Name,
			Root:  roots[node.ID],
			LODs:  lods,
			Depth: depth,
		}
		if entry.Root {
			if entry.Coverage, err = screenCoverage(node.Extras); err != nil {
				return nil, fmt.Errorf("inspect %s: node %s: %w", p, node.ID, err)
			}
		}
		out.LODNodes = append(out.LODNodes, entry)
	}

	if len(doc.Scenes) > 0 && len(doc.Scenes[0].Nodes) > 0 {
		if root := doc.Node(doc.Scenes[0].Nodes[0]); root != nil {
			coverage, err := screenCoverage(root.Extras)
			if err != nil {
				return nil, fmt.Errorf("inspect %s: node %s: %w", p, root.ID, err)
			}
			out.Coverage = coverage
		}
	}
	return out, nil
}

func screenCoverage(extras []byte) ([]float64, error) {
	if len(extras) == 0 {
		return nil, nil
	}
	var (
		out     []float64
		elemErr error
	)
	_, err := jsonparser.ArrayEach(extras, func(value []byte, dataType jsonparser.ValueType, _ int, _ error) {
		if elemErr != nil {
			return
		}
		if dataType != jsonparser.Number {
			elemErr = fmt.Errorf("coverage value %q is not a number", value)
			return
		}
		f, err := jsonparser.ParseFloat(value)
		if err != nil {
			elemErr = err
			return
		}
		out = append(out, f)
	}, lod.ScreenCoverageKey)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, nil
	}
	if err == nil {
		err = elemErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrMalformedExtension, lod.ScreenCoverageKey, err)
	}
	return out, nil
}
