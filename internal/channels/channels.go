// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package channels defines the 40 finger channels derived from a pair of
// hand snapshots and extracts their raw angles.
//
// Channels 0-29 are stretch (flexion) channels, 15 per hand, left first.
// Channels 30-39 are spread (abduction) channels, 5 per hand, left first.
package channels

import (
	"github.com/relabs-tech/finger_tracker/internal/hand"
)

// Count is the number of channels in a frame.
const Count = 40

const (
	StretchPerHand = 15
	SpreadPerHand  = 5

	firstSpread = 2 * StretchPerHand
)

// Kind selects which Euler component a channel reads.
type Kind int

const (
	Stretch Kind = iota // pitch
	Spread              // yaw
)

func (k Kind) String() string {
	if k == Spread {
		return "spread"
	}
	return "stretch"
}

// Channel binds one signal to a child/parent joint pair of one hand.
type Channel struct {
	Index  int
	Hand   hand.Side
	Kind   Kind
	Child  hand.Joint
	Parent hand.Joint
	Sign   float64
}

// Frame is one value per channel.
type Frame [Count]float64

var stretchChild = [StretchPerHand]hand.Joint{
	hand.ThumbMetacarpal,
	hand.ThumbProximal,
	hand.ThumbDistal,
	hand.IndexProximal,
	hand.IndexIntermediate,
	hand.IndexDistal,
	hand.MiddleProximal,
	hand.MiddleIntermediate,
	hand.MiddleDistal,
	hand.RingProximal,
	hand.RingIntermediate,
	hand.RingDistal,
	hand.LittleProximal,
	hand.LittleIntermediate,
	hand.LittleDistal,
}

var stretchParent = [StretchPerHand]hand.Joint{
	hand.Wrist,
	hand.ThumbMetacarpal,
	hand.ThumbProximal,
	hand.IndexMetacarpal,
	hand.IndexProximal,
	hand.IndexIntermediate,
	hand.MiddleMetacarpal,
	hand.MiddleProximal,
	hand.MiddleIntermediate,
	hand.RingMetacarpal,
	hand.RingProximal,
	hand.RingIntermediate,
	hand.LittleMetacarpal,
	hand.LittleProximal,
	hand.LittleIntermediate,
}

var spreadChild = [SpreadPerHand]hand.Joint{
	hand.ThumbProximal,
	hand.IndexProximal,
	hand.MiddleProximal,
	hand.RingProximal,
	hand.LittleProximal,
}

// The index finger spreads against the thumb metacarpal, not its own;
// receivers are calibrated against this pairing.
var spreadParent = [SpreadPerHand]hand.Joint{
	hand.Wrist,
	hand.ThumbMetacarpal,
	hand.MiddleMetacarpal,
	hand.RingMetacarpal,
	hand.LittleMetacarpal,
}

var spreadSign = [2 * SpreadPerHand]float64{
	-1, 1, 1, -1, -1, // left
	1, -1, -1, 1, 1, // right
}

// Table is the static channel binding table, indexed by channel.
var Table = buildTable()

func buildTable() [Count]Channel {
	var t [Count]Channel
	for _, side := range []hand.Side{hand.Left, hand.Right} {
		for i := 0; i < StretchPerHand; i++ {
			idx := int(side)*StretchPerHand + i
			t[idx] = Channel{
				Index:  idx,
				Hand:   side,
				Kind:   Stretch,
				Child:  stretchChild[i],
				Parent: stretchParent[i],
				Sign:   -1,
			}
		}
		for i := 0; i < SpreadPerHand; i++ {
			k := int(side)*SpreadPerHand + i
			idx := firstSpread + k
			t[idx] = Channel{
				Index:  idx,
				Hand:   side,
				Kind:   Spread,
				Child:  spreadChild[i],
				Parent: spreadParent[i],
				Sign:   spreadSign[k],
			}
		}
	}
	return t
}

// HandChannels returns the channel indices of one hand: its stretch
// channels followed by its spread channels.
func HandChannels(side hand.Side) []int {
	out := make([]int, 0, StretchPerHand+SpreadPerHand)
	for i := 0; i < StretchPerHand; i++ {
		out = append(out, int(side)*StretchPerHand+i)
	}
	for i := 0; i < SpreadPerHand; i++ {
		out = append(out, firstSpread+int(side)*SpreadPerHand+i)
	}
	return out
}
