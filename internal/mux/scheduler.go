// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package mux decides which channels go out on each tick and under which
// addresses, and wraps economy units in the FingerFlag side channel.
package mux

import (
	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/hand"
	"github.com/relabs-tech/finger_tracker/internal/osc"
)

// Unit is what one tick transmits.
type Unit struct {
	Messages []osc.Message
	// Flag is the group index sent after the data, 0 in full mode.
	Flag int
	// Channels lists the channel indices carried, in message order.
	Channels []int
}

// strategy picks the channels and addresses for counter value c.
type strategy interface {
	slot(c uint32) (flag int, chans []int, addrs []string)
}

type fullStrategy struct{}

func (fullStrategy) slot(uint32) (int, []int, []string) {
	chans := make([]int, channels.Count)
	for i := range chans {
		chans[i] = i
	}
	return 0, chans, FullAddresses[:]
}

type quarterStrategy struct{}

func (quarterStrategy) slot(c uint32) (int, []int, []string) {
	g := int(c % 4)
	group := quarterGroups[g]
	return g + 1, group[:], QuarterAddresses[:]
}

type halfStrategy struct{}

func (halfStrategy) slot(c uint32) (int, []int, []string) {
	side := hand.Side(c % 2)
	chans := channels.HandChannels(side)
	addrs := make([]string, len(chans))
	for k, ch := range chans {
		addrs[k] = EconomyAddresses[ch]
	}
	return int(side) + 1, chans, addrs
}

// Scheduler holds the mode and the tick counter. The counter only moves
// when Next is called, which the tick loop does for emitted ticks only.
type Scheduler struct {
	mode     Mode
	strategy strategy
	counter  uint32
}

func New(mode Mode) *Scheduler {
	s := &Scheduler{mode: mode}
	switch mode {
	case Quarter:
		s.strategy = quarterStrategy{}
	case Half:
		s.strategy = halfStrategy{}
	default:
		s.mode = Full
		s.strategy = fullStrategy{}
	}
	return s
}

func (s *Scheduler) Mode() Mode { return s.mode }

// Counter returns the number of economy units produced, modulo 2^32.
func (s *Scheduler) Counter() uint32 { return s.counter }

// Next builds the unit for the normalized frame f.
func (s *Scheduler) Next(f *channels.Frame) Unit {
	if s.mode.Economy() {
		s.counter++
	}
	flag, chans, addrs := s.strategy.slot(s.counter)

	msgs := make([]osc.Message, 0, len(chans)+2)
	if s.mode.Economy() {
		msgs = append(msgs, osc.Int(FlagAddress, 0))
	}
	for k, ch := range chans {
		msgs = append(msgs, osc.Float(addrs[k], float32(f[ch])))
	}
	if s.mode.Economy() {
		msgs = append(msgs, osc.Int(FlagAddress, int32(flag)))
	}
	return Unit{Messages: msgs, Flag: flag, Channels: chans}
}
