// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// GimbalLockThreshold is the |sy| value at and above which Decompose
// switches to the locked formulas.
const GimbalLockThreshold = 0.99999

// Angles is an Euler decomposition of a rotation, in radians.
// Pitch is the rotation around X, Yaw around Y, Roll around Z.
type Angles struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`

	// Locked reports that the gimbal-lock branch was taken; Roll is 0.
	Locked bool `json:"locked"`
}

// Decompose extracts X-Y-Z Euler angles from q.
//
// When |sy| reaches GimbalLockThreshold, roll is pinned to 0 and pitch is
// taken from the alternate matrix terms so the result stays defined.
// Inputs are not normalized; a non-unit q can push sy outside [-1, 1] and
// the resulting NaN is returned as is.
func Decompose(q Quat) Angles {
	sy := 2*q.X*q.Z + 2*q.Y*q.W
	if math.Abs(sy) < GimbalLockThreshold {
		return Angles{
			Pitch: math.Atan2(-(2*q.Y*q.Z - 2*q.X*q.W), 2*q.W*q.W+2*q.Z*q.Z-1),
			Yaw:   math.Asin(sy),
			Roll:  math.Atan2(-(2*q.X*q.Y - 2*q.Z*q.W), 2*q.W*q.W+2*q.X*q.X-1),
		}
	}
	return Angles{
		Pitch:  math.Atan2(2*q.Y*q.Z+2*q.X*q.W, 2*q.W*q.W+2*q.Y*q.Y-1),
		Yaw:    math.Asin(sy),
		Locked: true,
	}
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}

// Degrees returns the angles converted to degrees.
func (a Angles) Degrees() Angles {
	return Angles{
		Pitch:  Degrees(a.Pitch),
		Yaw:    Degrees(a.Yaw),
		Roll:   Degrees(a.Roll),
		Locked: a.Locked,
	}
}
