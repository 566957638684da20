package gltf

import (
	"bytes"
	"fmt"
	"strconv"
)

// ID is the position of an entity within one of a document's collections.
// The zero ID is unset: it marks an optional reference that points nowhere.
type ID int

// Unset is the ID of an absent reference.
const Unset ID = 0

// Ref returns the ID of the entity at position i. Negative positions yield Unset.
func Ref(i int) ID {
	if i < 0 {
		return Unset
	}
	return ID(i + 1)
}

// Valid reports whether id refers to an entity.
func (id ID) Valid() bool { return id > 0 }

// IsZero reports whether id is unset. It drives `omitzero` struct tags.
func (id ID) IsZero() bool { return !id.Valid() }

// Index returns the position id refers to, or -1 when unset.
func (id ID) Index() int {
	if !id.Valid() {
		return -1
	}
	return int(id) - 1
}

// Offset shifts id by n positions. An unset ID stays unset.
func (id ID) Offset(n int) ID {
	if !id.Valid() {
		return id
	}
	return id + ID(n)
}

// String returns the decimal index, or "" when unset.
func (id ID) String() string {
	if !id.Valid() {
		return ""
	}
	return strconv.Itoa(id.Index())
}

// MarshalJSON writes the index as a JSON number.
func (id ID) MarshalJSON() ([]byte, error) {
	if !id.Valid() {
		return []byte("null"), nil
	}
	return strconv.AppendInt(nil, int64(id.Index()), 10), nil
}

// UnmarshalJSON reads a JSON number. null leaves the ID unset.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = Unset
		return nil
	}
	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("gltf: index %s is not an integer", data)
	}
	if n < 0 {
		return fmt.Errorf("gltf: negative index %d", n)
	}
	*id = Ref(n)
	return nil
}

// IDs converts a list of positions into IDs.
func IDs(positions ...int) []ID {
	out := make([]ID, len(positions))
	for i, p := range positions {
		out[i] = Ref(p)
	}
	return out
}
