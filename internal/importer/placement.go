package importer

import (
	"fmt"

	"github.com/Faultbox/tiledmesh/pkg/math"
)

// Placement is one mesh instance produced from a map tile.
type Placement struct {
	Epoch      uint64 // Import run that produced it
	LayerID    int
	LayerIndex int // Position of the layer in walk order
	TileIndex  int
	GridX      int
	GridY      int
	Tileset    string
	LocalID    uint32
	Key        string // Mesh lookup key, "<tileset>_<localID>"
	Name       string // "<layerID>_<tileIndex>"; repeats when layers share an id

	Position math.Vec3
	Rotation math.Vec3 // Pitch, yaw, roll in degrees
	Scale    math.Vec3
}

func placementName(layerID, tileIndex int) string {
	return fmt.Sprintf("%d_%d", layerID, tileIndex)
}

// Yaw returns the rotation about the up axis in degrees.
func (p Placement) Yaw() float32 {
	return p.Rotation.Y
}

// Transform returns the placement's local-to-world matrix.
func (p Placement) Transform() math.Mat4 {
	return math.Compose(p.Position, p.Rotation.Y, p.Scale)
}

// Quat returns the placement rotation as a quaternion.
func (p Placement) Quat() math.Quat {
	return math.QuatFromYaw(p.Rotation.Y)
}
