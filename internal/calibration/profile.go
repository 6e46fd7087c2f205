// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"fmt"
	"io"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/relabs-tech/finger_tracker/internal/channels"
)

// profile is the TOML form of a Table:
//
//	offsets = [0.0, 0.0, ...]   # 40 values
//	[[range]]
//	min = -45.0
//	max = 45.0
//	# ... 40 [[range]] tables
type profile struct {
	Offsets []float64 `toml:"offsets"`
	Ranges  []Range   `toml:"range"`
}

// LoadProfile reads a TOML calibration profile.
func LoadProfile(path string) (*Table, error) {
	var p profile
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return nil, fmt.Errorf("calibration profile parse failed (%s): %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("calibration profile %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return p.table()
}

func (p profile) table() (*Table, error) {
	if len(p.Offsets) != channels.Count {
		return nil, fmt.Errorf("offsets: got %d, want %d: %w", len(p.Offsets), channels.Count, ErrWrongChannelSize)
	}
	if len(p.Ranges) != channels.Count {
		return nil, fmt.Errorf("ranges: got %d, want %d: %w", len(p.Ranges), channels.Count, ErrWrongChannelSize)
	}
	t := &Table{}
	copy(t.Offsets[:], p.Offsets)
	copy(t.Ranges[:], p.Ranges)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteProfile encodes t as a TOML profile.
func (t *Table) WriteProfile(w io.Writer) error {
	p := profile{
		Offsets: append([]float64(nil), t.Offsets[:]...),
		Ranges:  append([]Range(nil), t.Ranges[:]...),
	}
	return toml.NewEncoder(w).Encode(p)
}
