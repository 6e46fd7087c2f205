// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import (
	"math"
	"time"

	"github.com/relabs-tech/finger_tracker/internal/orientation"
)

type mockSource struct {
	start time.Time
	now   func() time.Time
}

// NewMockSource creates a synthetic source whose fingers slowly curl and
// spread, so every channel moves.
func NewMockSource() Source {
	return NewMockSourceWithClock(time.Now)
}

// NewMockSourceWithClock is NewMockSource with an injectable clock.
func NewMockSourceWithClock(now func() time.Time) Source {
	return &mockSource{start: now(), now: now}
}

func (m *mockSource) Next() (Frame, error) {
	t := m.now()
	elapsed := t.Sub(m.start).Seconds()
	return Frame{
		Time:  t,
		Left:  PoseHand(Left, 0.5+0.5*math.Sin(elapsed), 0.3*math.Cos(elapsed*0.7)),
		Right: PoseHand(Right, 0.5+0.5*math.Cos(elapsed*0.9), 0.3*math.Sin(elapsed*0.5)),
	}, nil
}

func (m *mockSource) Close() error { return nil }

var fingerChains = [5][4]Joint{
	{ThumbMetacarpal, ThumbProximal, ThumbDistal, ThumbTip},
	{IndexMetacarpal, IndexProximal, IndexIntermediate, IndexDistal},
	{MiddleMetacarpal, MiddleProximal, MiddleIntermediate, MiddleDistal},
	{RingMetacarpal, RingProximal, RingIntermediate, RingDistal},
	{LittleMetacarpal, LittleProximal, LittleIntermediate, LittleDistal},
}

// PoseHand builds an active snapshot where every finger segment is flexed
// by curl*60° around X and each proximal joint is abducted by spread*20°
// around Y. curl=0, spread=0 is the flat hand.
func PoseHand(side Side, curl, spread float64) Snapshot {
	s := IdentitySnapshot()
	wrist := orientation.FromAxisAngle(0, 0, 1, 0.1)
	if side == Right {
		wrist = wrist.Inverse()
	}
	s.Joints[Palm] = wrist
	s.Joints[Wrist] = wrist

	flex := orientation.FromAxisAngle(1, 0, 0, -curl*math.Pi/3)
	for f, chain := range fingerChains {
		abduct := orientation.FromAxisAngle(0, 1, 0, spread*math.Pi/9*float64(f-2)/2)
		cur := wrist
		for i, j := range chain {
			if i == 1 {
				cur = cur.Mul(abduct)
			}
			cur = cur.Mul(flex)
			s.Joints[j] = cur
		}
	}
	s.Joints[IndexTip] = s.Joints[IndexDistal]
	s.Joints[MiddleTip] = s.Joints[MiddleDistal]
	s.Joints[RingTip] = s.Joints[RingDistal]
	s.Joints[LittleTip] = s.Joints[LittleDistal]
	return s
}
