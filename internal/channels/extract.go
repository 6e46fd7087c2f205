// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package channels

import (
	"github.com/relabs-tech/finger_tracker/internal/hand"
	"github.com/relabs-tech/finger_tracker/internal/orientation"
)

// Relative returns the rotation of c's child joint in the frame of its
// parent joint.
func (c Channel) Relative(s *hand.Snapshot) orientation.Quat {
	return orientation.Relative(s.Joints[c.Parent], s.Joints[c.Child])
}

// Angle returns the signed raw angle of the channel in degrees.
// Stretch channels read pitch, spread channels read yaw.
func (c Channel) Angle(s *hand.Snapshot) float64 {
	a := orientation.Decompose(c.Relative(s))
	v := a.Pitch
	if c.Kind == Spread {
		v = a.Yaw
	}
	return c.Sign * orientation.Degrees(v)
}

// Extract computes the raw angle of every channel from one frame.
func Extract(f *hand.Frame) Frame {
	var out Frame
	for i := range Table {
		c := &Table[i]
		out[i] = c.Angle(f.Hand(c.Hand))
	}
	return out
}
