package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/Faultbox/tiledmesh/internal/meshtable"
	"github.com/Faultbox/tiledmesh/pkg/math"
)

const scenarioMap = `{
  "tilesets": [
    {"firstgid": 100, "name": "props"},
    {"firstgid": 1, "name": "ground"}
  ],
  "layers": [
    {"id": 1, "name": "floor", "type": "tilelayer", "width": 3, "height": 1, "data": [1, 101, 0]},
    {"id": 2, "name": "spawns", "type": "objectgroup", "objects": []}
  ]
}`

// memLoader serves documents from memory.
type memLoader map[string]string

func (l memLoader) Load(path string) ([]byte, error) {
	data, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, fs.ErrNotExist)
	}
	return []byte(data), nil
}

// fsLoader serves documents from an fs.FS and exposes it as the source.
type fsLoader struct {
	fsys fs.FS
}

func (l fsLoader) Load(path string) ([]byte, error) {
	return fs.ReadFile(l.fsys, path)
}

func (l fsLoader) Source(path string) (fs.FS, bool) {
	return l.fsys, true
}

type placed struct {
	p    Placement
	mesh *meshtable.Mesh
}

// recordSink records every call it receives.
type recordSink struct {
	clears int
	placed []placed
}

func (s *recordSink) ClearAll() {
	s.clears++
	s.placed = nil
}

func (s *recordSink) Place(p Placement, mesh *meshtable.Mesh) {
	s.placed = append(s.placed, placed{p, mesh})
}

func scenarioTable() *meshtable.Table {
	return meshtable.New(map[string]meshtable.Mesh{
		"ground_0": {Asset: "Meshes/Floor.obj"},
		"props_1":  {Asset: "Meshes/Crate.obj"},
		"t_4":      {Asset: "Meshes/Wall.obj"},
	})
}

func TestImport_Scenario(t *testing.T) {
	sink := &recordSink{}
	im := New(memLoader{"Maps/Map.json": scenarioMap}, scenarioTable(), sink)

	res, err := im.Import(context.Background(), DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if res.Epoch != 1 || res.Layers != 1 || res.Tiles != 3 || res.Placed != 2 || res.Empty != 1 || res.Missing != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if sink.clears != 1 {
		t.Errorf("expected 1 clear, got %d", sink.clears)
	}
	if len(sink.placed) != 2 {
		t.Fatalf("expected 2 placements, got %d", len(sink.placed))
	}

	tests := []struct {
		key      string
		name     string
		grid     [2]int
		position math.Vec3
		asset    string
	}{
		{"ground_0", "1_0", [2]int{0, 0}, math.Vec3{X: 0, Y: 0, Z: 0}, "Meshes/Floor.obj"},
		{"props_1", "1_1", [2]int{1, 0}, math.Vec3{X: 100, Y: 0, Z: 0}, "Meshes/Crate.obj"},
	}

	for i, tt := range tests {
		got := sink.placed[i]
		if got.p.Key != tt.key {
			t.Errorf("placement %d: key = %s, want %s", i, got.p.Key, tt.key)
		}
		if got.p.Name != tt.name {
			t.Errorf("placement %d: name = %s, want %s", i, got.p.Name, tt.name)
		}
		if got.p.GridX != tt.grid[0] || got.p.GridY != tt.grid[1] {
			t.Errorf("placement %d: grid = (%d,%d), want %v", i, got.p.GridX, got.p.GridY, tt.grid)
		}
		if got.p.Position != tt.position {
			t.Errorf("placement %d: position = %v, want %v", i, got.p.Position, tt.position)
		}
		if got.p.Rotation != (math.Vec3{}) || got.p.Scale != math.One {
			t.Errorf("placement %d: expected identity orientation, got %v %v", i, got.p.Rotation, got.p.Scale)
		}
		if got.mesh.Asset != tt.asset {
			t.Errorf("placement %d: asset = %s, want %s", i, got.mesh.Asset, tt.asset)
		}
		if got.p.Epoch != 1 {
			t.Errorf("placement %d: epoch = %d, want 1", i, got.p.Epoch)
		}
	}
}

func TestImport_Idempotent(t *testing.T) {
	sink := &recordSink{}
	im := New(memLoader{"Maps/Map.json": scenarioMap}, scenarioTable(), sink)
	ctx := context.Background()

	if _, err := im.Import(ctx, DefaultOptions()); err != nil {
		t.Fatalf("first Import failed: %v", err)
	}
	first := append([]placed(nil), sink.placed...)

	res, err := im.Import(ctx, DefaultOptions())
	if err != nil {
		t.Fatalf("second Import failed: %v", err)
	}

	if res.Epoch != 2 || im.Epoch() != 2 {
		t.Errorf("expected epoch 2, got result %d importer %d", res.Epoch, im.Epoch())
	}
	if len(sink.placed) != len(first) {
		t.Fatalf("placement count changed: %d -> %d", len(first), len(sink.placed))
	}
	for i := range first {
		a, b := first[i].p, sink.placed[i].p
		a.Epoch, b.Epoch = 0, 0
		if a != b {
			t.Errorf("placement %d differs: %+v vs %+v", i, a, b)
		}
	}
}

func TestImport_MirroredTile(t *testing.T) {
	doc := fmt.Sprintf(`{"tilesets":[{"firstgid":1,"name":"t"}],
		"layers":[{"id":4,"type":"tilelayer","width":2,"height":2,"data":[0,0,0,%d]}]}`, uint32(0x80000005))

	opts := DefaultOptions()
	opts.AllowFlipping = true
	opts.TileSize = math.Vec2{X: 50, Y: 25}

	sink := &recordSink{}
	im := New(memLoader{opts.MapPath: doc}, scenarioTable(), sink)
	if _, err := im.Import(context.Background(), opts); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if len(sink.placed) != 1 {
		t.Fatalf("expected 1 placement, got %d", len(sink.placed))
	}
	p := sink.placed[0].p
	if p.Key != "t_4" || p.LocalID != 4 || p.Tileset != "t" {
		t.Errorf("unexpected resolution: %+v", p)
	}
	if p.Name != "4_3" {
		t.Errorf("name = %s, want 4_3", p.Name)
	}
	if p.Position != (math.Vec3{X: 50, Y: 25, Z: 0}) {
		t.Errorf("position = %v", p.Position)
	}
	if p.Yaw() != 0 || p.Scale != (math.Vec3{X: -1, Y: 1, Z: 1}) {
		t.Errorf("orientation = yaw %v scale %v", p.Yaw(), p.Scale)
	}
}

func TestImport_DiagonalVerticalIgnoresFlipping(t *testing.T) {
	raw := uint32(0x20000000 | 0x40000000 | 1)
	doc := fmt.Sprintf(`{"tilesets":[{"firstgid":1,"name":"ground"}],
		"layers":[{"id":1,"type":"tilelayer","width":1,"height":1,"data":[%d]}]}`, raw)

	for _, flip := range []bool{false, true} {
		t.Run(fmt.Sprintf("flip=%v", flip), func(t *testing.T) {
			opts := DefaultOptions()
			opts.AllowFlipping = flip

			sink := &recordSink{}
			im := New(memLoader{opts.MapPath: doc}, scenarioTable(), sink)
			if _, err := im.Import(context.Background(), opts); err != nil {
				t.Fatalf("Import failed: %v", err)
			}
			if len(sink.placed) != 1 {
				t.Fatalf("expected 1 placement, got %d", len(sink.placed))
			}
			p := sink.placed[0].p
			if p.Rotation != (math.Vec3{Y: -90}) || p.Scale != math.One {
				t.Errorf("orientation = rot %v scale %v", p.Rotation, p.Scale)
			}
			want := math.Compose(math.Vec3{}, -90, math.One)
			if p.Transform() != want {
				t.Errorf("transform = %v, want %v", p.Transform(), want)
			}
		})
	}
}

func TestImport_EmptyTilesets(t *testing.T) {
	doc := `{"tilesets":[],"layers":[{"id":1,"type":"tilelayer","width":2,"height":1,"data":[1,7]}]}`

	sink := &recordSink{}
	im := New(memLoader{"Maps/Map.json": doc}, scenarioTable(), sink)
	res, err := im.Import(context.Background(), DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Placed != 0 || res.Empty != 2 {
		t.Errorf("unexpected result: %+v", res)
	}
	if sink.clears != 1 {
		t.Errorf("expected sink to be reset once, got %d", sink.clears)
	}
}

func TestImport_MissingMeshSkipped(t *testing.T) {
	table := meshtable.New(map[string]meshtable.Mesh{
		"ground_0": {Asset: ""},
	})

	sink := &recordSink{}
	im := New(memLoader{"Maps/Map.json": scenarioMap}, table, sink)
	res, err := im.Import(context.Background(), DefaultOptions())
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Placed != 0 || res.Missing != 2 || res.Empty != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestImport_Errors(t *testing.T) {
	table := scenarioTable()

	tests := []struct {
		name    string
		loader  Loader
		meshes  MeshTable
		mapPath string
		kind    error
		message string
	}{
		{"no map path", memLoader{}, table, "", ErrConfiguration, "map path not set"},
		{"no mesh table", memLoader{}, nil, "Maps/Map.json", ErrConfiguration, "mesh table is not set"},
		{"nil mesh table pointer", memLoader{"Maps/Map.json": scenarioMap}, (*meshtable.Table)(nil), "Maps/Map.json", ErrConfiguration, "mesh table is not set"},
		{"no loader", nil, table, "Maps/Map.json", ErrConfiguration, "map loader is not set"},
		{"unreadable", memLoader{}, table, "Maps/Missing.json", ErrIO, "couldn't read Maps/Missing.json"},
		{"malformed", memLoader{"Maps/Bad.json": "{not json"}, table, "Maps/Bad.json", ErrFormat, "couldn't deserialize Maps/Bad.json"},
		{"bad layer data", memLoader{"Maps/Bad.json": `{"layers":[{"data":"AAA=","encoding":"base64"}]}`}, table, "Maps/Bad.json", ErrFormat, "couldn't deserialize Maps/Bad.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := &recordSink{}
			im := New(tt.loader, tt.meshes, sink)

			opts := DefaultOptions()
			opts.MapPath = tt.mapPath

			_, err := im.Import(context.Background(), opts)
			if !errors.Is(err, tt.kind) {
				t.Fatalf("expected %v, got %v", tt.kind, err)
			}

			var ie *ImportError
			if !errors.As(err, &ie) {
				t.Fatalf("expected *ImportError, got %T", err)
			}
			if got := err.Error(); len(got) < len(tt.message) || got[:len(tt.message)] != tt.message {
				t.Errorf("message = %q, want prefix %q", got, tt.message)
			}
			if sink.clears != 0 {
				t.Error("sink must not be reset when the import fails")
			}
			if im.Epoch() != 0 {
				t.Errorf("epoch advanced to %d on failure", im.Epoch())
			}
		})
	}
}

func TestImport_FailureKeepsPreviousPlacements(t *testing.T) {
	loader := memLoader{"Maps/Map.json": scenarioMap}
	sink := &recordSink{}
	im := New(loader, scenarioTable(), sink)

	if _, err := im.Import(context.Background(), DefaultOptions()); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	loader["Maps/Map.json"] = "[broken"
	if _, err := im.Import(context.Background(), DefaultOptions()); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}

	if sink.clears != 1 || len(sink.placed) != 2 {
		t.Errorf("previous placements lost: clears=%d placed=%d", sink.clears, len(sink.placed))
	}
}

func TestImport_NilSink(t *testing.T) {
	sinks := []Sink{nil, (*recordSink)(nil)}
	for _, sink := range sinks {
		im := New(memLoader{"Maps/Map.json": scenarioMap}, scenarioTable(), sink)
		_, err := im.Import(context.Background(), DefaultOptions())
		if !errors.Is(err, ErrConfiguration) {
			t.Errorf("sink %T: expected ErrConfiguration, got %v", sink, err)
		}
	}
}

func TestImport_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := &recordSink{}
	im := New(memLoader{"Maps/Map.json": scenarioMap}, scenarioTable(), sink)
	_, err := im.Import(ctx, DefaultOptions())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if sink.clears != 0 {
		t.Error("sink must not be reset for a cancelled import")
	}
}

func TestImport_TMX(t *testing.T) {
	tmx := `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="3" height="1" tilewidth="32" tileheight="32" infinite="0" nextlayerid="2" nextobjectid="1">
 <tileset firstgid="1" name="ground" tilewidth="32" tileheight="32" tilecount="99" columns="9"/>
 <tileset firstgid="100" name="props" tilewidth="32" tileheight="32" tilecount="10" columns="5"/>
 <layer id="1" name="floor" width="3" height="1">
  <data encoding="csv">
1,101,0
</data>
 </layer>
</map>`

	loader := fsLoader{fsys: fstest.MapFS{"Maps/Map.tmx": {Data: []byte(tmx)}}}
	sink := &recordSink{}
	im := New(loader, scenarioTable(), sink)

	opts := DefaultOptions()
	opts.MapPath = "Maps/Map.tmx"

	res, err := im.Import(context.Background(), opts)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if res.Placed != 2 {
		t.Fatalf("expected 2 placements, got %+v", res)
	}
	if sink.placed[0].p.Key != "ground_0" || sink.placed[1].p.Key != "props_1" {
		t.Errorf("unexpected keys: %s, %s", sink.placed[0].p.Key, sink.placed[1].p.Key)
	}
}

func TestPlacementQuat(t *testing.T) {
	p := Placement{Rotation: math.Vec3{Y: 90}}
	q := p.Quat()
	want := math.QuatFromYaw(90)
	if q != want {
		t.Errorf("Quat = %v, want %v", q, want)
	}
}
