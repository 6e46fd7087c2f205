// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mux

import (
	"fmt"

	"github.com/relabs-tech/finger_tracker/internal/channels"
)

// Namespace is the parameter namespace every address lives under.
const Namespace = "/avatar/parameters/"

// FlagAddress carries the economy flag.
const FlagAddress = Namespace + "FingerFlag"

var fingerNames = [5]string{"Thumb", "Index", "Middle", "Ring", "Little"}

var (
	// FullAddresses is indexed by channel: LHThumb1..RHLittle3 then
	// LHThumbS..RHLittleS.
	FullAddresses [channels.Count]string
	// EconomyAddresses is indexed by channel and drops the hand prefix, so
	// left and right channels share an address.
	EconomyAddresses [channels.Count]string
	// QuarterAddresses are the ten slot addresses of quarter mode.
	QuarterAddresses [10]string
)

// quarterGroups lists the channels of each quarter group in slot order.
// Receivers depend on this exact grouping.
var quarterGroups = [4][10]int{
	{0, 1, 2, 30, 3, 4, 5, 31, 6, 7},
	{8, 32, 9, 10, 11, 33, 12, 13, 14, 34},
	{15, 16, 17, 35, 18, 19, 20, 36, 21, 22},
	{23, 37, 24, 25, 26, 38, 27, 28, 29, 39},
}

// QuarterGroup returns the channels sent under flag g+1.
func QuarterGroup(g int) [10]int {
	return quarterGroups[g]
}

func init() {
	prefixes := [2]string{"LH", "RH"}
	for h, prefix := range prefixes {
		for f, finger := range fingerNames {
			for seg := 0; seg < 3; seg++ {
				i := h*channels.StretchPerHand + f*3 + seg
				name := fmt.Sprintf("%s%d", finger, seg+1)
				FullAddresses[i] = Namespace + prefix + name
				EconomyAddresses[i] = Namespace + name
			}
			i := 2*channels.StretchPerHand + h*channels.SpreadPerHand + f
			FullAddresses[i] = Namespace + prefix + finger + "S"
			EconomyAddresses[i] = Namespace + finger + "S"
		}
	}
	for k := range QuarterAddresses {
		QuarterAddresses[k] = fmt.Sprintf("%sFinger%d", Namespace, k)
	}
}
