package tiled

import (
	"fmt"
	"sort"
)

// Resolved is a GID attributed to its owning tileset.
type Resolved struct {
	Tileset  string
	FirstGID uint32
	LocalID  uint32
}

// Key returns the mesh lookup key "<tileset>_<localID>".
func (r Resolved) Key() string {
	return fmt.Sprintf("%s_%d", r.Tileset, r.LocalID)
}

// Registry holds a map's tilesets sorted by FirstGID, highest first.
type Registry struct {
	tilesets []TilesetRef
}

// NewRegistry builds a registry from tilesets in any order.
func NewRegistry(tilesets []TilesetRef) *Registry {
	sorted := make([]TilesetRef, len(tilesets))
	copy(sorted, tilesets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].FirstGID > sorted[j].FirstGID
	})
	return &Registry{tilesets: sorted}
}

// Len returns the number of tilesets.
func (r *Registry) Len() int {
	return len(r.tilesets)
}

// Tilesets returns the tilesets in resolution order (highest FirstGID first).
func (r *Registry) Tilesets() []TilesetRef {
	return r.tilesets
}

// FirstGID returns the lowest FirstGID of the map, or 0 when the registry
// is empty. GIDs below it belong to no tileset and are treated as empty.
func (r *Registry) FirstGID() uint32 {
	if len(r.tilesets) == 0 {
		return 0
	}
	return r.tilesets[len(r.tilesets)-1].FirstGID
}

// Resolve finds the tileset owning a cleaned GID. It returns false for the
// empty tile (0), for GIDs below FirstGID and when no tileset matches.
func (r *Registry) Resolve(gid uint32) (Resolved, bool) {
	if gid == 0 || gid < r.FirstGID() {
		return Resolved{}, false
	}

	// Descending order makes the first hit the greatest lower bound.
	for _, ts := range r.tilesets {
		if gid >= ts.FirstGID {
			return Resolved{
				Tileset:  ts.Name,
				FirstGID: ts.FirstGID,
				LocalID:  gid - ts.FirstGID,
			}, true
		}
	}
	return Resolved{}, false
}
