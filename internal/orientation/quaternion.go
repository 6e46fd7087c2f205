// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import "math"

// Quat is an orientation quaternion. Components follow the hand-tracking
// runtimes' (x, y, z, w) ordering.
type Quat struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Identity is the no-rotation quaternion.
var Identity = Quat{W: 1}

// Inverse returns the conjugate of q. For unit quaternions this is the
// inverse rotation; q is not normalized first.
func (q Quat) Inverse() Quat {
	return Quat{X: -q.X, Y: -q.Y, Z: -q.Z, W: q.W}
}

// Mul returns the Hamilton product q * r.
func (q Quat) Mul(r Quat) Quat {
	return Quat{
		X: q.W*r.X + q.X*r.W + q.Y*r.Z - q.Z*r.Y,
		Y: q.W*r.Y - q.X*r.Z + q.Y*r.W + q.Z*r.X,
		Z: q.W*r.Z + q.X*r.Y - q.Y*r.X + q.Z*r.W,
		W: q.W*r.W - q.X*r.X - q.Y*r.Y - q.Z*r.Z,
	}
}

// Relative expresses child in the local frame of parent:
// inverse(parent) * child.
func Relative(parent, child Quat) Quat {
	return parent.Inverse().Mul(child)
}

// Norm returns the quaternion length.
func (q Quat) Norm() float64 {
	return math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

// FromAxisAngle builds a unit quaternion rotating rad radians around the
// (x, y, z) axis. The axis is normalized; a zero axis yields Identity.
func FromAxisAngle(x, y, z, rad float64) Quat {
	n := math.Sqrt(x*x + y*y + z*z)
	if n == 0 {
		return Identity
	}
	s := math.Sin(rad/2) / n
	return Quat{X: x * s, Y: y * s, Z: z * s, W: math.Cos(rad / 2)}
}
