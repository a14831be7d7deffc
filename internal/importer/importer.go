// Package importer turns a Tiled map into mesh placements.
//
// An import validates its options, loads and parses the map, clears the
// sink, then walks every tile layer in document order and emits one
// placement per tile that resolves to a tileset and a mesh. Tiles that
// resolve to nothing are skipped silently.
package importer

import (
	"context"
	"io/fs"
	"reflect"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Faultbox/tiledmesh/internal/logger"
	"github.com/Faultbox/tiledmesh/internal/meshtable"
	"github.com/Faultbox/tiledmesh/pkg/math"
	"github.com/Faultbox/tiledmesh/pkg/tiled"
)

// Loader reads a map document by its content-relative path.
type Loader interface {
	Load(path string) ([]byte, error)
}

// sourceLoader is implemented by loaders that can expose the file system
// holding a path, so TMX maps can reach their external tilesets.
type sourceLoader interface {
	Source(path string) (fs.FS, bool)
}

// MeshTable looks up the mesh for a "<tileset>_<localID>" key.
type MeshTable interface {
	Lookup(key string) (*meshtable.Mesh, bool)
}

// Sink receives placements. ClearAll drops everything placed so far and
// runs once per import, after the map parsed and before the first Place.
type Sink interface {
	ClearAll()
	Place(p Placement, mesh *meshtable.Mesh)
}

// Options control one import.
type Options struct {
	MapPath       string    // Content-relative map path
	TileSize      math.Vec2 // World units per grid cell
	AllowFlipping bool      // Mirror tiles carrying a single flip flag
}

// DefaultOptions returns the default import options.
func DefaultOptions() Options {
	return Options{
		MapPath:  "Maps/Map.json",
		TileSize: math.Vec2{X: 100, Y: 100},
	}
}

// Result summarizes a completed import.
type Result struct {
	Epoch   uint64
	Layers  int // Tile layers walked
	Tiles   int // Cells visited
	Placed  int // Placements emitted
	Empty   int // Cells with no tile or an unowned GID
	Missing int // Resolved tiles without a usable mesh
}

// Importer runs imports against one loader, mesh table and sink.
// Imports must not run concurrently on the same Importer.
type Importer struct {
	loader Loader
	meshes MeshTable
	sink   Sink
	epoch  atomic.Uint64
}

// New creates an importer.
func New(loader Loader, meshes MeshTable, sink Sink) *Importer {
	return &Importer{
		loader: loader,
		meshes: meshes,
		sink:   sink,
	}
}

// Epoch returns the epoch of the last import that reached the reset step.
func (im *Importer) Epoch() uint64 {
	return im.epoch.Load()
}

// Import runs one import. Configuration, read and parse failures return an
// *ImportError and leave the sink untouched. Once the sink is cleared,
// only context cancellation can stop the walk early.
func (im *Importer) Import(ctx context.Context, opts Options) (Result, error) {
	log := logger.Named("importer")

	if err := im.validate(opts); err != nil {
		log.Warn("Import rejected", zap.Error(err))
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	doc, err := im.read(opts.MapPath)
	if err != nil {
		log.Warn("Import failed", zap.String("map", opts.MapPath), zap.Error(err))
		return Result{}, err
	}

	registry := tiled.NewRegistry(doc.Tilesets)
	layers := doc.TileLayers()

	im.sink.ClearAll()
	res := Result{Epoch: im.epoch.Add(1)}

	log.Debug("Importing map",
		zap.String("map", opts.MapPath),
		zap.Uint64("epoch", res.Epoch),
		zap.Int("tilesets", registry.Len()),
		zap.Uint32("first_gid", registry.FirstGID()),
		zap.Int("layers", len(layers)))

	for i, layer := range layers {
		if err := ctx.Err(); err != nil {
			log.Warn("Import cancelled", zap.Uint64("epoch", res.Epoch), zap.Int("placed", res.Placed))
			return res, err
		}
		res.Layers++
		layer.Walk(func(c tiled.Cell) bool {
			im.emit(i, layer, c, registry, opts, &res)
			return true
		})
	}

	log.Info("Map imported",
		zap.String("map", opts.MapPath),
		zap.Uint64("epoch", res.Epoch),
		zap.Int("placed", res.Placed),
		zap.Int("missing", res.Missing))

	return res, nil
}

func (im *Importer) validate(opts Options) error {
	switch {
	case opts.MapPath == "":
		return configError(errNoMapPath)
	case isNil(im.meshes):
		return configError(errNoMeshTable)
	case isNil(im.sink):
		return configError(errNoSink)
	case isNil(im.loader):
		return configError(errNoLoader)
	}
	return nil
}

// isNil also catches nil pointers, maps and funcs stored in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Func, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func (im *Importer) read(path string) (*tiled.Document, error) {
	data, err := im.loader.Load(path)
	if err != nil {
		return nil, &ImportError{Kind: ErrIO, Path: path, Err: err}
	}

	var fsys fs.FS
	if src, ok := im.loader.(sourceLoader); ok {
		fsys, _ = src.Source(path)
	}

	doc, err := tiled.Parse(path, data, fsys)
	if err != nil {
		return nil, &ImportError{Kind: ErrFormat, Path: path, Err: err}
	}
	return doc, nil
}

// emit resolves one cell and hands the placement to the sink.
func (im *Importer) emit(layerIndex int, layer *tiled.Layer, c tiled.Cell, registry *tiled.Registry, opts Options, res *Result) {
	res.Tiles++

	gid, orient := tiled.DecodeGID(c.GID, opts.AllowFlipping)
	tile, ok := registry.Resolve(gid)
	if !ok {
		res.Empty++
		return
	}

	key := tile.Key()
	mesh, ok := im.meshes.Lookup(key)
	if !ok || !mesh.Usable() {
		res.Missing++
		return
	}

	im.sink.Place(Placement{
		Epoch:      res.Epoch,
		LayerID:    layer.ID,
		LayerIndex: layerIndex,
		TileIndex:  c.Index,
		GridX:      c.X,
		GridY:      c.Y,
		Tileset:    tile.Tileset,
		LocalID:    tile.LocalID,
		Key:        key,
		Name:       placementName(layer.ID, c.Index),
		Position:   math.Vec2{X: float32(c.X), Y: float32(c.Y)}.Mul(opts.TileSize).Vec3(0),
		Rotation:   math.Vec3{Y: orient.Yaw},
		Scale:      orient.Scale.Vec3(1),
	}, mesh)
	res.Placed++
}
