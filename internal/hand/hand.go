// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import (
	"errors"
	"fmt"
	"time"

	"github.com/relabs-tech/finger_tracker/internal/orientation"
)

// Side selects the left or right hand.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Right {
		return "right"
	}
	return "left"
}

// ParseSide accepts "L"/"R" and "left"/"right".
func ParseSide(v string) (Side, error) {
	switch v {
	case "L", "l", "left":
		return Left, nil
	case "R", "r", "right":
		return Right, nil
	}
	return Left, fmt.Errorf("unknown hand %q", v)
}

// Snapshot is the joint orientation set of one hand at one instant.
type Snapshot struct {
	Active bool                         `json:"active"`
	Joints [JointCount]orientation.Quat `json:"joints"`
}

// Frame holds one sample of both hands.
type Frame struct {
	Time  time.Time `json:"time"`
	Left  Snapshot  `json:"left"`
	Right Snapshot  `json:"right"`
}

// Hand returns the snapshot for side.
func (f *Frame) Hand(s Side) *Snapshot {
	if s == Right {
		return &f.Right
	}
	return &f.Left
}

// Active reports whether both hands were tracked.
func (f Frame) Active() bool {
	return f.Left.Active && f.Right.Active
}

// IdentitySnapshot returns an active snapshot with every joint at identity.
func IdentitySnapshot() Snapshot {
	s := Snapshot{Active: true}
	for i := range s.Joints {
		s.Joints[i] = orientation.Identity
	}
	return s
}

// Source is anything that can provide hand frames over time: the mock
// generator, an MQTT feed, a serial glove or a recorded sequence.
type Source interface {
	Next() (Frame, error)
	Close() error
}

// ErrCapability marks failures of the pose-source capability itself.
var ErrCapability = errors.New("hand tracking capability failure")

// CapabilityError reports the operation that failed while bringing up or
// querying a pose source.
type CapabilityError struct {
	Op  string
	Err error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CapabilityError) Unwrap() []error {
	return []error{ErrCapability, e.Err}
}
