// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

// Joint enumerates the tracked skeletal joints of one hand, in the order
// hand-tracking runtimes report them.
type Joint int

const (
	Palm Joint = iota
	Wrist
	ThumbMetacarpal
	ThumbProximal
	ThumbDistal
	ThumbTip
	IndexMetacarpal
	IndexProximal
	IndexIntermediate
	IndexDistal
	IndexTip
	MiddleMetacarpal
	MiddleProximal
	MiddleIntermediate
	MiddleDistal
	MiddleTip
	RingMetacarpal
	RingProximal
	RingIntermediate
	RingDistal
	RingTip
	LittleMetacarpal
	LittleProximal
	LittleIntermediate
	LittleDistal
	LittleTip

	JointCount = int(LittleTip) + 1
)

var jointNames = [JointCount]string{
	"palm", "wrist",
	"thumb_metacarpal", "thumb_proximal", "thumb_distal", "thumb_tip",
	"index_metacarpal", "index_proximal", "index_intermediate", "index_distal", "index_tip",
	"middle_metacarpal", "middle_proximal", "middle_intermediate", "middle_distal", "middle_tip",
	"ring_metacarpal", "ring_proximal", "ring_intermediate", "ring_distal", "ring_tip",
	"little_metacarpal", "little_proximal", "little_intermediate", "little_distal", "little_tip",
}

func (j Joint) String() string {
	if j < 0 || int(j) >= JointCount {
		return "unknown"
	}
	return jointNames[j]
}

// Valid reports whether j is inside the joint set.
func (j Joint) Valid() bool {
	return j >= 0 && int(j) < JointCount
}
