package tiled

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strings"

	gotiled "github.com/lafriks/go-tiled"
)

// ParseTMX parses a map in the Tiled XML format. External tilesets are
// resolved relative to baseDir inside fsys; a nil fsys reads from disk.
//
// go-tiled only exposes tile layers on Map.Layers, so group layers are not
// walked for TMX input.
func ParseTMX(data []byte, fsys fs.FS, baseDir string) (*Document, error) {
	var opts []gotiled.LoaderOption
	if fsys != nil {
		opts = append(opts, gotiled.WithFileSystem(fsys))
	}

	m, err := gotiled.LoadReader(baseDir, bytes.NewReader(data), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	doc := &Document{
		Width:       m.Width,
		Height:      m.Height,
		TileWidth:   m.TileWidth,
		TileHeight:  m.TileHeight,
		Orientation: m.Orientation,
		Infinite:    m.Infinite,
		Tilesets:    make([]TilesetRef, 0, len(m.Tilesets)),
		Layers:      make([]Layer, 0, len(m.Layers)),
	}

	for _, ts := range m.Tilesets {
		doc.Tilesets = append(doc.Tilesets, TilesetRef{
			FirstGID: ts.FirstGID,
			Name:     ts.Name,
			Source:   ts.Source,
		})
	}

	for _, l := range m.Layers {
		layer := Layer{
			ID:      int(l.ID),
			Name:    l.Name,
			Type:    LayerTypeTile,
			Width:   m.Width,
			Height:  m.Height,
			Visible: true,
			Data:    make([]uint32, len(l.Tiles)),
		}
		for i, tile := range l.Tiles {
			layer.Data[i] = rawGID(tile)
		}
		doc.Layers = append(doc.Layers, layer)
	}

	return doc, nil
}

// rawGID packs a go-tiled layer tile back into its raw GID form.
func rawGID(tile *gotiled.LayerTile) uint32 {
	if tile == nil || tile.IsNil() || tile.Tileset == nil {
		return 0
	}
	gid := tile.Tileset.FirstGID + tile.ID
	if tile.HorizontalFlip {
		gid |= uint32(FlipHorizontal)
	}
	if tile.VerticalFlip {
		gid |= uint32(FlipVertical)
	}
	if tile.DiagonalFlip {
		gid |= uint32(FlipDiagonal)
	}
	return gid
}

// Parse parses a map document, choosing the format from the file extension:
// ".tmx" is read as XML, anything else as JSON.
func Parse(name string, data []byte, fsys fs.FS) (*Document, error) {
	if strings.EqualFold(path.Ext(name), ".tmx") {
		return ParseTMX(data, fsys, path.Dir(name))
	}
	return ParseJSON(data)
}
