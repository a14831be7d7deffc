package tiled

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type jsonMap struct {
	Width       int           `json:"width"`
	Height      int           `json:"height"`
	TileWidth   int           `json:"tilewidth"`
	TileHeight  int           `json:"tileheight"`
	Orientation string        `json:"orientation"`
	Infinite    bool          `json:"infinite"`
	Tilesets    []jsonTileset `json:"tilesets"`
	Layers      []jsonLayer   `json:"layers"`
}

type jsonTileset struct {
	FirstGID uint32 `json:"firstgid"`
	Name     string `json:"name"`
	Source   string `json:"source"`
}

type jsonLayer struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	Visible     *bool           `json:"visible"`
	Encoding    string          `json:"encoding"`
	Compression string          `json:"compression"`
	Data        json.RawMessage `json:"data"`
	Layers      []jsonLayer     `json:"layers"`
}

// ParseJSON parses a map in the Tiled JSON format.
// Missing tilesets or layers yield an empty document rather than an error.
func ParseJSON(data []byte) (*Document, error) {
	var m jsonMap
	if err := json.Unmarshal(data, &m); err != nil {
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
	}

	for _, ts := range m.Tilesets {
		doc.Tilesets = append(doc.Tilesets, TilesetRef{
			FirstGID: ts.FirstGID,
			Name:     ts.Name,
			Source:   ts.Source,
		})
	}

	layers, err := convertJSONLayers(m.Layers)
	if err != nil {
		return nil, err
	}
	doc.Layers = layers

	return doc, nil
}

// ParseJSONFile parses a Tiled JSON map from disk.
func ParseJSONFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file: %w", err)
	}
	return ParseJSON(data)
}

func convertJSONLayers(in []jsonLayer) ([]Layer, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]Layer, 0, len(in))
	for _, jl := range in {
		l := Layer{
			ID:      jl.ID,
			Name:    jl.Name,
			Type:    jl.Type,
			Width:   jl.Width,
			Height:  jl.Height,
			Visible: jl.Visible == nil || *jl.Visible,
		}

		if jl.Type == LayerTypeTile || jl.Type == "" {
			data, err := decodeLayerData(jl.Data, jl.Encoding, jl.Compression)
			if err != nil {
				return nil, fmt.Errorf("layer %d (%s): %w", jl.ID, jl.Name, err)
			}
			l.Data = data
		}

		children, err := convertJSONLayers(jl.Layers)
		if err != nil {
			return nil, err
		}
		l.Layers = children

		out = append(out, l)
	}
	return out, nil
}

// decodeLayerData accepts either a JSON array of GIDs or a base64 string of
// little-endian uint32 GIDs, optionally zlib or gzip compressed.
func decodeLayerData(raw json.RawMessage, encoding, compression string) ([]uint32, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var gids []uint32
		if err := json.Unmarshal(raw, &gids); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		return gids, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if encoding != "base64" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}

	payload, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	payload, err = decompress(payload, compression)
	if err != nil {
		return nil, err
	}

	if len(payload)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTruncatedLayerData, len(payload))
	}

	gids := make([]uint32, len(payload)/4)
	for i := range gids {
		gids[i] = binary.LittleEndian.Uint32(payload[i*4:])
	}
	return gids, nil
}

func decompress(payload []byte, compression string) ([]byte, error) {
	var r io.ReadCloser
	var err error
	switch compression {
	case "":
		return payload, nil
	case "zlib":
		r, err = zlib.NewReader(bytes.NewReader(payload))
	case "gzip":
		r, err = gzip.NewReader(bytes.NewReader(payload))
	default:
		return nil, fmt.Errorf("%w: compression %q", ErrUnsupportedEncoding, compression)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return out, nil
}
