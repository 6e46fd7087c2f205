// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/relabs-tech/finger_tracker/internal/orientation"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func TestSequenceSourceEndsWithEOF(t *testing.T) {
	f := Frame{Left: IdentitySnapshot(), Right: IdentitySnapshot()}
	src := NewSequenceSource(f, f)
	for i := 0; i < 2; i++ {
		if _, err := src.Next(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if _, err := src.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestMockSourceIsActiveAndMoves(t *testing.T) {
	clk := &fakeClock{t: time.Unix(100, 0)}
	src := NewMockSourceWithClock(clk.now)

	a, err := src.Next()
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	clk.t = clk.t.Add(700 * time.Millisecond)
	b, _ := src.Next()

	if !a.Active() || !b.Active() {
		t.Fatalf("mock frames must be active")
	}
	if a.Left.Joints[IndexProximal] == b.Left.Joints[IndexProximal] {
		t.Fatalf("index proximal did not move between frames")
	}
}

func TestPoseHandFlatIsWristAligned(t *testing.T) {
	s := PoseHand(Left, 0, 0)
	w := s.Joints[Wrist]
	for _, j := range []Joint{IndexProximal, MiddleDistal, LittleIntermediate} {
		if d := s.Joints[j]; math.Abs(d.W-w.W) > 1e-12 || math.Abs(d.Z-w.Z) > 1e-12 {
			t.Fatalf("%s = %+v, want wrist orientation %+v", j, d, w)
		}
	}
}

func TestSnapshotPayloadValidatesJointCount(t *testing.T) {
	s := PoseHand(Right, 0.4, 0.1)
	b, err := EncodeSnapshot(s)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeSnapshot(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != s {
		t.Fatalf("decoded snapshot differs")
	}

	if _, err := DecodeSnapshot([]byte(`{"active":true,"joints":[{"w":1}]}`)); err == nil {
		t.Fatalf("expected error for short joint list")
	}
	if _, err := DecodeSnapshot([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid json")
	}
}

func TestMQTTSourceServesLatestAndExpires(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	src := &mqttSource{latest: newLatest(100*time.Millisecond, clk.now)}

	f, _ := src.Next()
	if f.Left.Active || f.Right.Active {
		t.Fatalf("hands must be inactive before first payload")
	}

	left, _ := EncodeSnapshot(PoseHand(Left, 0.2, 0))
	right, _ := EncodeSnapshot(PoseHand(Right, 0.3, 0))
	src.handlePayload(Left, left)
	f, _ = src.Next()
	if !f.Left.Active || f.Right.Active {
		t.Fatalf("only left should be active: %v %v", f.Left.Active, f.Right.Active)
	}

	src.handlePayload(Right, right)
	src.handlePayload(Right, []byte("garbage"))
	f, _ = src.Next()
	if !f.Active() {
		t.Fatalf("both hands should be active")
	}

	clk.t = clk.t.Add(150 * time.Millisecond)
	f, _ = src.Next()
	if f.Left.Active || f.Right.Active {
		t.Fatalf("stale hands must be inactive")
	}
}

type nopPort struct{ bytes.Buffer }

func (nopPort) Close() error { return nil }

func TestSerialSourceAppliesSentences(t *testing.T) {
	src := newSerialSource(&nopPort{}, 0)

	q := orientation.FromAxisAngle(1, 0, 0, 0.5)
	lines := []string{
		"garbage line",
		FormatJoint(Left, IndexProximal, q),
		FormatState(Left, true),
		FormatState(Right, true),
	}
	for _, l := range lines {
		if err := src.handleLine(l); err != nil {
			t.Fatalf("handleLine(%q): %v", l, err)
		}
	}

	f, _ := src.Next()
	if !f.Active() {
		t.Fatalf("both hands should be active")
	}
	got := f.Left.Joints[IndexProximal]
	if math.Abs(got.X-q.X) > 1e-6 || math.Abs(got.W-q.W) > 1e-6 {
		t.Fatalf("index proximal = %+v, want %+v", got, q)
	}
	if f.Right.Joints[IndexProximal] != orientation.Identity {
		t.Fatalf("right hand must keep identity joints")
	}

	if err := src.handleLine(FormatState(Right, false)); err != nil {
		t.Fatalf("state: %v", err)
	}
	if f, _ = src.Next(); f.Right.Active {
		t.Fatalf("right hand should be inactive")
	}
}

func TestSerialSourceRejectsBadSentences(t *testing.T) {
	src := newSerialSource(&nopPort{}, 0)
	bad := []string{
		"$FTHJT,L,3,0,0,0,1*00",
		FormatJoint(Left, Joint(40), orientation.Identity),
		formatSentence(TypeState, "X,1"),
	}
	for _, l := range bad {
		if err := src.handleLine(l); err == nil {
			t.Fatalf("handleLine(%q): expected error", l)
		}
	}
}

func TestCapabilityErrorMatches(t *testing.T) {
	cause := errors.New("no runtime")
	err := error(&CapabilityError{Op: "xrGetSystem", Err: cause})
	if !errors.Is(err, ErrCapability) || !errors.Is(err, cause) {
		t.Fatalf("capability error must match both sentinel and cause")
	}
	if err.Error() != "xrGetSystem: no runtime" {
		t.Fatalf("message = %q", err.Error())
	}
}
