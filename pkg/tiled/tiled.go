// Package tiled decodes Tiled map documents into tile placements: tileset
// ranges, packed GID flags and row-major layer grids.
package tiled

import (
	"errors"
	"fmt"
)

// Document errors.
var (
	ErrInvalidDocument     = errors.New("invalid map document")
	ErrUnsupportedEncoding = errors.New("unsupported layer encoding")
	ErrTruncatedLayerData  = errors.New("truncated layer data")
)

// Layer types as written by Tiled.
const (
	LayerTypeTile   = "tilelayer"
	LayerTypeObject = "objectgroup"
	LayerTypeImage  = "imagelayer"
	LayerTypeGroup  = "group"
)

// TilesetRef is a tileset entry of a map: the first GID of its range and
// the name used to build mesh lookup keys.
type TilesetRef struct {
	FirstGID uint32
	Name     string
	Source   string // External tileset file, empty when embedded
}

// Layer is a tile layer. Data holds raw GIDs in row-major order.
type Layer struct {
	ID      int
	Name    string
	Type    string
	Width   int
	Height  int
	Visible bool
	Data    []uint32
	Layers  []Layer // Children of a group layer
}

// IsTileLayer reports whether the layer carries a tile grid.
// Untyped layers with data are accepted as tile layers.
func (l *Layer) IsTileLayer() bool {
	switch l.Type {
	case LayerTypeTile:
		return true
	case "":
		return len(l.Data) > 0
	default:
		return false
	}
}

// CellCount returns the number of cells the walker visits.
func (l *Layer) CellCount() int {
	if l.Width <= 0 || l.Height <= 0 {
		return 0
	}
	n := l.Width * l.Height
	if len(l.Data) < n {
		return len(l.Data)
	}
	return n
}

// Document is a parsed map.
type Document struct {
	Width       int
	Height      int
	TileWidth   int
	TileHeight  int
	Orientation string
	Infinite    bool
	Tilesets    []TilesetRef
	Layers      []Layer
}

// TileLayers returns every tile layer in document order, with group
// layers flattened in place.
func (d *Document) TileLayers() []*Layer {
	var out []*Layer
	var visit func(layers []Layer)
	visit = func(layers []Layer) {
		for i := range layers {
			l := &layers[i]
			if l.Type == LayerTypeGroup {
				visit(l.Layers)
				continue
			}
			if l.IsTileLayer() {
				out = append(out, l)
			}
		}
	}
	visit(d.Layers)
	return out
}

// String returns a one-line summary of the document.
func (d *Document) String() string {
	return fmt.Sprintf("%dx%d map, %d tilesets, %d tile layers",
		d.Width, d.Height, len(d.Tilesets), len(d.TileLayers()))
}
