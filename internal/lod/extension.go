// Package lod merges glTF documents that describe the same asset at different
// levels of detail into one document tagged with the MSFT_lod extension.
package lod

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"

	"github.com/starford/lodmerge/internal/apperr"
	"github.com/starford/lodmerge/internal/gltf"
)

// ExtensionLOD is the name of the LOD marker extension.
const ExtensionLOD = "MSFT_lod"

const lodIDsKey = "ids"

// Kind is the entity type an MSFT_lod extension is attached to.
type Kind int

// Entity kinds.
const (
	KindNode Kind = iota + 1
	KindMaterial
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindMaterial:
		return "material"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

type lodPayload struct {
	IDs []int `json:"ids"`
}

// ParseLODExtension returns the LOD ids recorded on node, in order.
// A node without the extension has no LODs.
func ParseLODExtension(node *gltf.Node) ([]gltf.ID, error) {
	raw, ok := node.Extensions[ExtensionLOD]
	if !ok || len(raw) == 0 {
		return nil, nil
	}
	ids, err := parseLODIDs(raw)
	if err != nil {
		return nil, fmt.Errorf("node %s: %w", node.ID, err)
	}
	return ids, nil
}

func parseLODIDs(raw json.RawMessage) ([]gltf.ID, error) {
	var (
		ids     []gltf.ID
		elemErr error
	)
	_, err := jsonparser.ArrayEach(raw, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if elemErr != nil {
			return
		}
		if err != nil {
			elemErr = err
			return
		}
		if dataType != jsonparser.Number {
			elemErr = fmt.Errorf("id %q is not a number", value)
			return
		}
		n, err := jsonparser.ParseInt(value)
		if err != nil || n < 0 {
			elemErr = fmt.Errorf("id %q is not a valid index", value)
			return
		}
		ids = append(ids, gltf.Ref(int(n)))
	}, lodIDsKey)
	if errors.Is(err, jsonparser.KeyPathNotFoundError) {
		return nil, nil
	}
	if err == nil {
		err = elemErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrMalformedExtension, ExtensionLOD, err)
	}
	return ids, nil
}

// SerializeLODExtension encodes ids as an MSFT_lod payload for an entity of the
// given kind. Each id must resolve within the matching collection of doc.
// An empty list yields a nil payload: the extension should be omitted.
func SerializeLODExtension(kind Kind, ids []gltf.ID, doc *gltf.Document) (json.RawMessage, error) {
	var size int
	switch kind {
	case KindNode:
		size = len(doc.Nodes)
	case KindMaterial:
		size = len(doc.Materials)
	default:
		return nil, fmt.Errorf("%w: got %s", apperr.ErrUnsupportedLODTarget, kind)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	payload := lodPayload{IDs: make([]int, 0, len(ids))}
	for _, id := range ids {
		if !id.Valid() || id.Index() >= size {
			return nil, fmt.Errorf("%s LOD id %q: %w", kind, id.String(), apperr.ErrNotFound)
		}
		payload.IDs = append(payload.IDs, id.Index())
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ExtensionLOD, err)
	}
	return data, nil
}

// offsetLODExtension shifts the ids of an MSFT_lod payload already present in
// exts. Other fields of the payload are kept.
func offsetLODExtension(exts gltf.Extensions, offset int) error {
	raw, ok := exts[ExtensionLOD]
	if !ok || len(raw) == 0 || offset == 0 {
		return nil
	}
	ids, err := parseLODIDs(raw)
	if err != nil || ids == nil {
		return err
	}
	shifted := make([]int, len(ids))
	for i, id := range ids {
		shifted[i] = id.Offset(offset).Index()
	}
	value, err := json.Marshal(shifted)
	if err != nil {
		return err
	}
	out, err := jsonparser.Set(bytes.Clone(raw), value, lodIDsKey)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrMalformedExtension, ExtensionLOD, err)
	}
	exts[ExtensionLOD] = out
	return nil
}
