// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package receiver rebuilds the 40-channel frame from decoded bundles,
// keying economy updates by the flag that follows them.
package receiver

import (
	"errors"
	"fmt"

	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/hand"
	"github.com/relabs-tech/finger_tracker/internal/mux"
	"github.com/relabs-tech/finger_tracker/internal/osc"
)

var ErrUnknownFlag = errors.New("receiver: unknown flag")

var (
	fullIndex   = make(map[string]int, channels.Count)
	quarterSlot = make(map[string]int, len(mux.QuarterAddresses))
	// economyIndex maps a shared address to its left and right channel.
	economyIndex = make(map[string][2]int, channels.Count/2)
)

func init() {
	for i, addr := range mux.FullAddresses {
		fullIndex[addr] = i
	}
	for k, addr := range mux.QuarterAddresses {
		quarterSlot[addr] = k
	}
	left := channels.HandChannels(hand.Left)
	right := channels.HandChannels(hand.Right)
	for k := range left {
		economyIndex[mux.EconomyAddresses[left[k]]] = [2]int{left[k], right[k]}
	}
}

type pendingValue struct {
	addr  string
	value float32
}

// Assembler accumulates channel values across bundles. It is not safe
// for concurrent use.
type Assembler struct {
	frame   channels.Frame
	seen    [channels.Count]bool
	pending []pendingValue
	flag    int
}

func NewAssembler() *Assembler {
	return &Assembler{}
}

// Apply folds one bundle into the frame and returns the channels it
// updated, in arrival order.
func (a *Assembler) Apply(b osc.Bundle) ([]int, error) {
	var updated []int
	for _, m := range b.Messages {
		if len(m.Args) != 1 {
			continue
		}
		if m.Address == mux.FlagAddress {
			flag, ok := m.Args[0].(int32)
			if !ok {
				return updated, fmt.Errorf("receiver: flag carries %T", m.Args[0])
			}
			a.flag = int(flag)
			if flag == 0 {
				a.pending = a.pending[:0]
				continue
			}
			chans, err := a.commit(int(flag))
			updated = append(updated, chans...)
			if err != nil {
				return updated, err
			}
			continue
		}

		v, ok := m.Args[0].(float32)
		if !ok {
			continue
		}
		if i, ok := fullIndex[m.Address]; ok {
			a.set(i, v)
			updated = append(updated, i)
			continue
		}
		a.pending = append(a.pending, pendingValue{addr: m.Address, value: v})
	}
	return updated, nil
}

func (a *Assembler) commit(flag int) ([]int, error) {
	defer func() { a.pending = a.pending[:0] }()
	var updated []int
	for _, p := range a.pending {
		if k, ok := quarterSlot[p.addr]; ok {
			if flag < 1 || flag > 4 {
				return updated, fmt.Errorf("%w: %d for quarter slot", ErrUnknownFlag, flag)
			}
			ch := mux.QuarterGroup(flag - 1)[k]
			a.set(ch, p.value)
			updated = append(updated, ch)
			continue
		}
		if pair, ok := economyIndex[p.addr]; ok {
			if flag < 1 || flag > 2 {
				return updated, fmt.Errorf("%w: %d for half slot", ErrUnknownFlag, flag)
			}
			ch := pair[flag-1]
			a.set(ch, p.value)
			updated = append(updated, ch)
		}
	}
	return updated, nil
}

func (a *Assembler) set(i int, v float32) {
	a.frame[i] = float64(v)
	a.seen[i] = true
}

// Frame returns the latest value of every channel.
func (a *Assembler) Frame() channels.Frame { return a.frame }

// Flag returns the last flag received.
func (a *Assembler) Flag() int { return a.flag }

// Complete reports whether every channel has been received at least once.
func (a *Assembler) Complete() bool {
	for _, ok := range a.seen {
		if !ok {
			return false
		}
	}
	return true
}
