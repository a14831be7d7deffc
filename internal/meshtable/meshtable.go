// Package meshtable maps tile lookup keys to mesh assets.
//
// A table is a YAML document keyed by "<tileset>_<localID>":
//
//	ground_0:
//	  asset: Meshes/Floor.obj
//	  bounds_scale: 1.5
//	  collision: BlockAll
//	props_3:
//	  asset: Meshes/Barrel.obj
package meshtable

import (
	"errors"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrInvalidTable is returned when a mesh table can't be decoded.
var ErrInvalidTable = errors.New("invalid mesh table")

// Row defaults for placed static meshes.
const (
	DefaultBoundsScale = 4.0
	DefaultCollision   = "BlockAll"
)

// Mesh is one row of the table.
type Mesh struct {
	Key         string  `yaml:"-"`
	Asset       string  `yaml:"asset"`
	BoundsScale float32 `yaml:"bounds_scale,omitempty"`
	Collision   string  `yaml:"collision,omitempty"`
}

// Usable reports whether the row names an asset to place.
func (m *Mesh) Usable() bool {
	return m != nil && m.Asset != ""
}

// Table is an immutable key -> mesh lookup.
type Table struct {
	rows map[string]*Mesh
}

// New builds a table from rows. Row keys are taken from the map keys and
// unset fields get the defaults.
func New(rows map[string]Mesh) *Table {
	t := &Table{rows: make(map[string]*Mesh, len(rows))}
	for key, m := range rows {
		m.Key = key
		if m.BoundsScale == 0 {
			m.BoundsScale = DefaultBoundsScale
		}
		if m.Collision == "" {
			m.Collision = DefaultCollision
		}
		t.rows[key] = &m
	}
	return t
}

// Parse decodes a YAML mesh table. An empty document is an empty table.
func Parse(data []byte) (*Table, error) {
	rows := make(map[string]Mesh)
	if err := yaml.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	for key, m := range rows {
		if m.BoundsScale < 0 {
			return nil, fmt.Errorf("%w: %s: negative bounds_scale", ErrInvalidTable, key)
		}
	}
	return New(rows), nil
}

// Lookup returns the mesh registered under key. A nil table has no rows.
func (t *Table) Lookup(key string) (*Mesh, bool) {
	if t == nil {
		return nil, false
	}
	m, ok := t.rows[key]
	return m, ok
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Keys returns all row keys in sorted order.
func (t *Table) Keys() []string {
	keys := make([]string, 0, len(t.rows))
	for key := range t.rows {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Marshal encodes the table back to YAML.
func (t *Table) Marshal() ([]byte, error) {
	rows := make(map[string]Mesh, len(t.rows))
	for key, m := range t.rows {
		rows[key] = *m
	}
	return yaml.Marshal(rows)
}
