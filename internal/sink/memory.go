// Package sink collects placements produced by an import.
package sink

import (
	"sort"
	"sync"

	"github.com/Faultbox/tiledmesh/internal/importer"
	"github.com/Faultbox/tiledmesh/internal/meshtable"
)

// Instance is a placement bound to its mesh.
type Instance struct {
	importer.Placement
	Mesh meshtable.Mesh
}

// cell identifies a placement within one import.
type cell struct {
	layer int // Walk order, since layer ids may repeat
	tile  int
}

// Memory keeps the placements of the latest import in memory. It is safe to
// read while an import writes to it.
type Memory struct {
	mu        sync.RWMutex
	instances map[cell]Instance
	epoch     uint64
	clears    int
}

// NewMemory creates an empty memory sink.
func NewMemory() *Memory {
	return &Memory{
		instances: make(map[cell]Instance),
	}
}

// ClearAll drops every instance.
func (m *Memory) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances = make(map[cell]Instance)
	m.clears++
}

// Place stores a placement, replacing any earlier one for the same cell.
func (m *Memory) Place(p importer.Placement, mesh *meshtable.Mesh) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances[cell{p.LayerIndex, p.TileIndex}] = Instance{Placement: p, Mesh: *mesh}
	if p.Epoch > m.epoch {
		m.epoch = p.Epoch
	}
}

// Len returns the number of stored instances.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.instances)
}

// Epoch returns the newest epoch seen by Place.
func (m *Memory) Epoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// Clears returns how many times ClearAll ran.
func (m *Memory) Clears() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clears
}

// At returns the instance placed at a tile of the layer walked in position
// layerIndex.
func (m *Memory) At(layerIndex, tileIndex int) (Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[cell{layerIndex, tileIndex}]
	return inst, ok
}

// Snapshot returns all instances in walk order.
func (m *Memory) Snapshot() []Instance {
	m.mu.RLock()
	out := make([]Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	m.mu.RUnlock()

	sortInstances(out)
	return out
}

func sortInstances(out []Instance) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].LayerIndex != out[j].LayerIndex {
			return out[i].LayerIndex < out[j].LayerIndex
		}
		return out[i].TileIndex < out[j].TileIndex
	})
}
