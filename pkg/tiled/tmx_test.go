package tiled

import (
	"testing"
	"testing/fstest"
)

const scenarioTMX = `<?xml version="1.0" encoding="UTF-8"?>
<map version="1.10" orientation="orthogonal" renderorder="right-down" width="3" height="1" tilewidth="32" tileheight="32" infinite="0" nextlayerid="2" nextobjectid="1">
 <tileset firstgid="1" name="ground" tilewidth="32" tileheight="32" tilecount="99" columns="9"/>
 <tileset firstgid="100" name="props" tilewidth="32" tileheight="32" tilecount="10" columns="5"/>
 <layer id="1" name="floor" width="3" height="1">
  <data encoding="csv">1,2147483749,0</data>
 </layer>
</map>
`

func TestParseTMX(t *testing.T) {
	doc, err := ParseTMX([]byte(scenarioTMX), nil, ".")
	if err != nil {
		t.Fatalf("ParseTMX failed: %v", err)
	}

	if doc.Width != 3 || doc.Height != 1 {
		t.Errorf("expected 3x1 map, got %dx%d", doc.Width, doc.Height)
	}
	if len(doc.Tilesets) != 2 {
		t.Fatalf("expected 2 tilesets, got %d", len(doc.Tilesets))
	}

	layers := doc.TileLayers()
	if len(layers) != 1 {
		t.Fatalf("expected 1 tile layer, got %d", len(layers))
	}
	if layers[0].ID != 1 || layers[0].Name != "floor" {
		t.Errorf("unexpected layer header: %+v", layers[0])
	}

	// 2147483749 is 0x80000065: gid 101 flipped horizontally.
	want := []uint32{1, 0x80000065, 0}
	for i, g := range want {
		if layers[0].Data[i] != g {
			t.Errorf("data[%d] = %#x, want %#x", i, layers[0].Data[i], g)
		}
	}
}

func TestParse_DispatchesOnExtension(t *testing.T) {
	fsys := fstest.MapFS{}

	doc, err := Parse("Maps/level.TMX", []byte(scenarioTMX), fsys)
	if err != nil {
		t.Fatalf("Parse tmx failed: %v", err)
	}
	if len(doc.Tilesets) != 2 {
		t.Errorf("expected 2 tilesets from tmx, got %d", len(doc.Tilesets))
	}

	if _, err := Parse("Maps/level.json", []byte(scenarioTMX), fsys); err == nil {
		t.Error("expected xml content to fail as json")
	}

	doc, err = Parse("Maps/level.tmj", []byte(scenarioMap), fsys)
	if err != nil {
		t.Fatalf("Parse tmj failed: %v", err)
	}
	if len(doc.TileLayers()) != 1 {
		t.Errorf("expected 1 tile layer, got %d", len(doc.TileLayers()))
	}
}

func TestParseTMX_Invalid(t *testing.T) {
	if _, err := ParseTMX([]byte("<map"), nil, "."); err == nil {
		t.Error("expected error for malformed tmx")
	}
}
