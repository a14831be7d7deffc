package tiled

import (
	"strings"

	"github.com/Faultbox/tiledmesh/pkg/math"
)

// Flag is one of the orientation bits packed into the top of a raw GID.
type Flag uint32

// GID orientation flags.
const (
	FlipDiagonal   Flag = 0x20000000
	FlipVertical   Flag = 0x40000000
	FlipHorizontal Flag = 0x80000000

	flagMask = uint32(FlipDiagonal | FlipVertical | FlipHorizontal)
)

// Flags extracts the orientation bits of a raw GID.
func Flags(raw uint32) Flag {
	return Flag(raw & flagMask)
}

// Has reports whether all bits of other are set.
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// String returns the set flags as "H|V|D", or "None".
func (f Flag) String() string {
	var parts []string
	if f.Has(FlipHorizontal) {
		parts = append(parts, "H")
	}
	if f.Has(FlipVertical) {
		parts = append(parts, "V")
	}
	if f.Has(FlipDiagonal) {
		parts = append(parts, "D")
	}
	if len(parts) == 0 {
		return "None"
	}
	return strings.Join(parts, "|")
}

// CleanGID clears the orientation bits, leaving the global tile ID.
func CleanGID(raw uint32) uint32 {
	return raw &^ flagMask
}

// Orientation is the yaw and planar scale a tile is placed with.
// Yaw is in degrees.
type Orientation struct {
	Yaw   float32
	Scale math.Vec2
}

// Identity is the orientation of an unflipped tile.
var Identity = Orientation{Yaw: 0, Scale: math.Vec2{X: 1, Y: 1}}

// DecodeGID splits a raw GID into its global tile ID and orientation.
//
// Flag combinations are matched in a fixed order and the first match wins:
// diagonal+vertical, horizontal+diagonal, horizontal+vertical, then plain
// mirroring when allowFlipping is set. A diagonal-only flip, or any flip
// with mirroring disabled, yields the identity orientation.
func DecodeGID(raw uint32, allowFlipping bool) (uint32, Orientation) {
	f := Flags(raw)
	diagonal := f.Has(FlipDiagonal)
	vertical := f.Has(FlipVertical)
	horizontal := f.Has(FlipHorizontal)

	o := Identity
	switch {
	case diagonal && vertical:
		o.Yaw = -90
	case horizontal && diagonal:
		o.Yaw = 90
	case horizontal && vertical:
		o.Yaw = 180
	case allowFlipping:
		if horizontal {
			o.Scale.X = -1
		}
		if vertical {
			o.Scale.Y = -1
		}
	}

	return CleanGID(raw), o
}
