// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mux

import (
	"fmt"
	"strconv"
	"strings"
)

// Mode selects how the 40 channels are shared across ticks.
type Mode int

const (
	// Full sends every channel on every tick under per-hand addresses.
	Full Mode = 0
	// Quarter sends one of four 10-channel groups per tick.
	Quarter Mode = 1
	// Half sends one hand per tick.
	Half Mode = 2

	DefaultMode = Half
)

func (m Mode) String() string {
	switch m {
	case Quarter:
		return "quarter"
	case Half:
		return "half"
	default:
		return "full"
	}
}

// Economy reports whether the mode rotates channel subsets with a flag.
func (m Mode) Economy() bool {
	return m == Quarter || m == Half
}

// ParseMode accepts the numeric selector or a mode name. Numbers other
// than 1 and 2 select Full.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		return FromSelector(n), nil
	}
	switch s {
	case "full":
		return Full, nil
	case "quarter", "economy-quarter":
		return Quarter, nil
	case "half", "economy-half":
		return Half, nil
	}
	return Full, fmt.Errorf("unknown mode %q", s)
}

// FromSelector maps the numeric mode selector to a Mode.
func FromSelector(n int) Mode {
	switch n {
	case 1:
		return Quarter
	case 2:
		return Half
	default:
		return Full
	}
}
