// Package math provides the small vector and matrix types used to describe
// placement transforms.
package math

import "math"

// Vec2 is a 2D vector.
type Vec2 struct {
	X, Y float32
}

// Mul returns the component-wise product of v and other.
func (v Vec2) Mul(other Vec2) Vec2 {
	return Vec2{v.X * other.X, v.Y * other.Y}
}

// Vec3 returns v extended with the given Z component.
func (v Vec2) Vec3(z float32) Vec3 {
	return Vec3{v.X, v.Y, z}
}

// Vec3 is a 3D vector.
type Vec3 struct {
	X, Y, Z float32
}

// One is the unit scale vector.
var One = Vec3{1, 1, 1}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// ApproxEqual reports whether every component of v is within eps of other.
func (v Vec3) ApproxEqual(other Vec3, eps float32) bool {
	d := v.Sub(other)
	return abs32(d.X) <= eps && abs32(d.Y) <= eps && abs32(d.Z) <= eps
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math.Pi / 180
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
