package sink

import (
	"github.com/Faultbox/tiledmesh/internal/importer"
	"github.com/Faultbox/tiledmesh/internal/meshtable"
)

// Tee forwards every call to each of its sinks in order.
type Tee []importer.Sink

// ClearAll clears every sink.
func (t Tee) ClearAll() {
	for _, s := range t {
		s.ClearAll()
	}
}

// Place places p in every sink.
func (t Tee) Place(p importer.Placement, mesh *meshtable.Mesh) {
	for _, s := range t {
		s.Place(p, mesh)
	}
}
