// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"errors"
	"math"

	"github.com/relabs-tech/finger_tracker/internal/channels"
)

// MinSpan is the narrowest range Capture will emit, in degrees. Channels
// that barely moved are widened symmetrically to this span.
const MinSpan = 10.0

var ErrNoSamples = errors.New("calibration: no samples captured")

// Capture derives a Table from raw channel frames recorded in two phases:
// a rest pose that defines the offsets, then free motion through the full
// range of every finger that defines the ranges.
type Capture struct {
	restSum   [channels.Count]float64
	restCount int

	min, max    [channels.Count]float64
	motionCount int
}

func NewCapture() *Capture {
	return &Capture{}
}

// AddRest records one frame of the rest pose. Frames containing NaN are
// ignored.
func (c *Capture) AddRest(raw *channels.Frame) bool {
	if hasNaN(raw) {
		return false
	}
	for i, v := range raw {
		c.restSum[i] += v
	}
	c.restCount++
	return true
}

// AddMotion records one frame of the motion phase. Rest frames must be
// captured first so the offsets are known.
func (c *Capture) AddMotion(raw *channels.Frame) bool {
	if hasNaN(raw) || c.restCount == 0 {
		return false
	}
	offsets := c.offsets()
	for i, v := range raw {
		a := Wrap(v + offsets[i])
		if c.motionCount == 0 || a < c.min[i] {
			c.min[i] = a
		}
		if c.motionCount == 0 || a > c.max[i] {
			c.max[i] = a
		}
	}
	c.motionCount++
	return true
}

// Counts returns how many rest and motion frames were accepted.
func (c *Capture) Counts() (rest, motion int) {
	return c.restCount, c.motionCount
}

// Table returns the captured calibration.
func (c *Capture) Table() (*Table, error) {
	if c.restCount == 0 || c.motionCount == 0 {
		return nil, ErrNoSamples
	}
	t := &Table{Offsets: c.offsets()}
	for i := range t.Ranges {
		lo, hi := c.min[i], c.max[i]
		if hi-lo < MinSpan {
			mid := (lo + hi) / 2
			lo, hi = mid-MinSpan/2, mid+MinSpan/2
		}
		t.Ranges[i] = Range{Min: lo, Max: hi}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// offsets moves the mean rest angle of every channel to zero.
func (c *Capture) offsets() [channels.Count]float64 {
	var o [channels.Count]float64
	if c.restCount == 0 {
		return o
	}
	for i := range o {
		o[i] = -c.restSum[i] / float64(c.restCount)
	}
	return o
}

func hasNaN(raw *channels.Frame) bool {
	for _, v := range raw {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
