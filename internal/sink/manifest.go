package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/tiledmesh/internal/importer"
	"github.com/Faultbox/tiledmesh/internal/meshtable"
)

// Manifest collects placements and writes them as a YAML document.
type Manifest struct {
	mu        sync.Mutex
	mapPath   string
	instances []Instance
	epoch     uint64
}

// NewManifest creates a manifest for the given map.
func NewManifest(mapPath string) *Manifest {
	return &Manifest{mapPath: mapPath}
}

// ClearAll drops every collected placement.
func (m *Manifest) ClearAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instances = m.instances[:0]
}

// Place records a placement.
func (m *Manifest) Place(p importer.Placement, mesh *meshtable.Mesh) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances = append(m.instances, Instance{Placement: p, Mesh: *mesh})
	m.epoch = p.Epoch
}

// Len returns the number of collected placements.
func (m *Manifest) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

type manifestDoc struct {
	Map        string          `yaml:"map"`
	Epoch      uint64          `yaml:"epoch"`
	Placements []manifestEntry `yaml:"placements"`
}

type manifestEntry struct {
	Name        string      `yaml:"name"`
	Key         string      `yaml:"key"`
	Mesh        string      `yaml:"mesh"`
	Grid        [2]int      `yaml:"grid,flow"`
	Position    [3]float32  `yaml:"position,flow"`
	Rotation    [3]float32  `yaml:"rotation,flow"`
	Scale       [3]float32  `yaml:"scale,flow"`
	Quat        [4]float32  `yaml:"quat,flow"`      // x, y, z, w
	Transform   [16]float32 `yaml:"transform,flow"` // Column-major local-to-world
	BoundsScale float32     `yaml:"bounds_scale"`
	Collision   string      `yaml:"collision"`
}

// WriteTo encodes the manifest as YAML.
func (m *Manifest) WriteTo(w io.Writer) (int64, error) {
	m.mu.Lock()
	doc := manifestDoc{
		Map:        m.mapPath,
		Epoch:      m.epoch,
		Placements: make([]manifestEntry, 0, len(m.instances)),
	}
	for _, inst := range m.instances {
		q := inst.Quat()
		doc.Placements = append(doc.Placements, manifestEntry{
			Name:        inst.Name,
			Key:         inst.Key,
			Mesh:        inst.Mesh.Asset,
			Grid:        [2]int{inst.GridX, inst.GridY},
			Position:    [3]float32{inst.Position.X, inst.Position.Y, inst.Position.Z},
			Rotation:    [3]float32{inst.Rotation.X, inst.Rotation.Y, inst.Rotation.Z},
			Scale:       [3]float32{inst.Scale.X, inst.Scale.Y, inst.Scale.Z},
			Quat:        [4]float32{q.X, q.Y, q.Z, q.W},
			Transform:   inst.Transform(),
			BoundsScale: inst.Mesh.BoundsScale,
			Collision:   inst.Mesh.Collision,
		})
	}
	m.mu.Unlock()

	data, err := yaml.Marshal(&doc)
	if err != nil {
		return 0, fmt.Errorf("encoding manifest: %w", err)
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Save writes the manifest to path, or to stdout when path is "-" or empty.
func (m *Manifest) Save(path string) error {
	if path == "" || path == "-" {
		_, err := m.WriteTo(os.Stdout)
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating manifest dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating manifest: %w", err)
	}
	if _, err := m.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
