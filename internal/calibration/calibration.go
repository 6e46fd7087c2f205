// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package calibration maps raw channel angles into the [-1, 1] signal range
// using a per-channel offset and calibrated [min, max] range, all in degrees.
package calibration

import (
	"errors"
	"fmt"
	"math"

	"github.com/relabs-tech/finger_tracker/internal/channels"
)

var (
	ErrMissingLine      = errors.New("calibration: missing line")
	ErrDegenerateRange  = errors.New("calibration: range min equals max")
	ErrInvalidValue     = errors.New("calibration: value is not finite")
	ErrWrongChannelSize = errors.New("calibration: wrong number of channels")
)

// Range is the calibrated angle span of a channel, in degrees.
type Range struct {
	Min float64 `toml:"min" json:"min"`
	Max float64 `toml:"max" json:"max"`
}

// Table holds the calibration of every channel. It is loaded once and
// never modified afterwards.
type Table struct {
	Offsets [channels.Count]float64
	Ranges  [channels.Count]Range
}

// Uniform returns a table with the same offset and range on every channel.
func Uniform(offset float64, r Range) *Table {
	t := &Table{}
	for i := range t.Offsets {
		t.Offsets[i] = offset
		t.Ranges[i] = r
	}
	return t
}

// Validate rejects ranges that cannot be normalized.
func (t *Table) Validate() error {
	for i := range t.Ranges {
		r := t.Ranges[i]
		if !finite(t.Offsets[i]) || !finite(r.Min) || !finite(r.Max) {
			return fmt.Errorf("channel %d: %w", i, ErrInvalidValue)
		}
		if r.Min == r.Max {
			return fmt.Errorf("channel %d [%g, %g]: %w", i, r.Min, r.Max, ErrDegenerateRange)
		}
	}
	return nil
}

// Wrap brings an angle back into [-180, 180] with one correction of 360°.
// Angles more than one turn away are not folded further.
func Wrap(deg float64) float64 {
	if deg > 180 {
		deg -= 360
	}
	if deg < -180 {
		deg += 360
	}
	return deg
}

// InverseLerp returns where v sits between a and b, 0 at a and 1 at b.
func InverseLerp(a, b, v float64) float64 {
	return (v - a) / (b - a)
}

// Normalize maps the raw angle of channel i into the signal range.
// Angles outside the calibrated range map outside [-1, 1]; no clamping.
func (t *Table) Normalize(i int, deg float64) float64 {
	a := Wrap(deg + t.Offsets[i])
	r := t.Ranges[i]
	return InverseLerp(r.Min, r.Max, a)*2 - 1
}

// NormalizeFrame normalizes every channel of raw.
func (t *Table) NormalizeFrame(raw *channels.Frame) channels.Frame {
	var out channels.Frame
	for i, v := range raw {
		out[i] = t.Normalize(i, v)
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
