// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package tracker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/relabs-tech/finger_tracker/internal/calibration"
	"github.com/relabs-tech/finger_tracker/internal/hand"
	"github.com/relabs-tech/finger_tracker/internal/mux"
	"github.com/relabs-tech/finger_tracker/internal/osc"
	"github.com/relabs-tech/finger_tracker/internal/receiver"
	"github.com/relabs-tech/finger_tracker/internal/testutil/testlog"
)

// instantClock fires every wait immediately and counts them.
type instantClock struct {
	now   time.Time
	waits int
}

func (c *instantClock) Now() time.Time { return c.now }

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.waits++
	c.now = c.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

// stoppedClock never fires.
type stoppedClock struct{}

func (stoppedClock) Now() time.Time                       { return time.Unix(0, 0) }
func (stoppedClock) After(time.Duration) <-chan time.Time { return nil }

type recorder struct {
	packets [][]byte
	err     error
}

func (r *recorder) Send(b []byte) error {
	r.packets = append(r.packets, append([]byte(nil), b...))
	return r.err
}

type failingSource struct{ err error }

func (s failingSource) Next() (hand.Frame, error) { return hand.Frame{}, s.err }
func (failingSource) Close() error                { return nil }

func activeFrame() hand.Frame {
	return hand.Frame{Left: hand.IdentitySnapshot(), Right: hand.IdentitySnapshot()}
}

func inactiveFrame(side hand.Side) hand.Frame {
	f := activeFrame()
	f.Hand(side).Active = false
	return f
}

func newRunner(t *testing.T, mode mux.Mode, src hand.Source, tr Transport, clock Clock, sinks ...Sink) *Runner {
	t.Helper()
	testlog.Start(t)
	r, err := New(Options{
		Interval:    33 * time.Millisecond,
		Mode:        mode,
		Calibration: calibration.Uniform(0, calibration.Range{Min: -45, Max: 45}),
		Source:      src,
		Transport:   tr,
		Clock:       clock,
		Sinks:       sinks,
	})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return r
}

func decodeFlags(t *testing.T, packets [][]byte) []int32 {
	t.Helper()
	var flags []int32
	for _, p := range packets {
		b, err := osc.ParsePacket(p)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		last := b.Messages[len(b.Messages)-1]
		if last.Address != mux.FlagAddress {
			t.Fatalf("last message %s is not the flag", last.Address)
		}
		flags = append(flags, last.Args[0].(int32))
	}
	return flags
}

func TestInactiveTickSkipsWithoutAdvancing(t *testing.T) {
	src := hand.NewSequenceSource(
		activeFrame(),
		inactiveFrame(hand.Left),
		inactiveFrame(hand.Right),
		activeFrame(),
		activeFrame(),
	)
	rec := &recorder{}
	var ticks []Tick
	clock := &instantClock{now: time.Unix(100, 0)}
	r := newRunner(t, mux.Half, src, rec, clock, SinkFunc(func(tk Tick) { ticks = append(ticks, tk) }))

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(rec.packets) != 3 {
		t.Fatalf("sent %d packets, want 3", len(rec.packets))
	}
	flags := decodeFlags(t, rec.packets)
	want := []int32{2, 1, 2}
	for i := range want {
		if flags[i] != want[i] {
			t.Fatalf("flags = %v, want %v", flags, want)
		}
	}
	if len(ticks) != 5 || !ticks[1].Skipped || !ticks[2].Skipped || ticks[3].Skipped {
		t.Fatalf("unexpected sink ticks: %+v", ticks)
	}
	if ticks[4].Seq != 3 {
		t.Fatalf("last seq = %d, want 3", ticks[4].Seq)
	}
	// One wait per tick plus the one that found the source exhausted.
	if clock.waits != 6 {
		t.Fatalf("clock waited %d times, want 6", clock.waits)
	}
}

func TestIdentityPoseNormalizesToZero(t *testing.T) {
	rec := &recorder{}
	r := newRunner(t, mux.Full, hand.NewSequenceSource(activeFrame()), rec, &instantClock{})

	tick, err := r.Step()
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	for i, v := range tick.Normalized {
		if v != 0 || tick.Raw[i] != 0 {
			t.Fatalf("channel %d raw=%v normalized=%v, want 0", i, tick.Raw[i], v)
		}
	}

	b, err := osc.ParsePacket(rec.packets[0])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(b.Messages) != 40 {
		t.Fatalf("full packet has %d messages", len(b.Messages))
	}
	for _, m := range b.Messages {
		if m.Args[0].(float32) != 0 {
			t.Fatalf("%s = %v, want 0", m.Address, m.Args[0])
		}
	}
}

func TestQuarterTicksReassemble(t *testing.T) {
	frames := make([]hand.Frame, 4)
	for i := range frames {
		frames[i] = hand.Frame{
			Left:  hand.PoseHand(hand.Left, 0.4, 0.2),
			Right: hand.PoseHand(hand.Right, 0.7, -0.1),
		}
	}
	rec := &recorder{}
	var last Tick
	r := newRunner(t, mux.Quarter, hand.NewSequenceSource(frames...), rec, &instantClock{},
		SinkFunc(func(tk Tick) { last = tk }))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	a := receiver.NewAssembler()
	for _, p := range rec.packets {
		b, err := osc.ParsePacket(p)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if _, err := a.Apply(b); err != nil {
			t.Fatalf("apply: %v", err)
		}
	}
	if !a.Complete() {
		t.Fatalf("4 quarter ticks did not cover the frame")
	}
	got := a.Frame()
	for i := range got {
		if float32(got[i]) != float32(last.Normalized[i]) {
			t.Fatalf("channel %d = %v, want %v", i, got[i], last.Normalized[i])
		}
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	r := newRunner(t, mux.Half, hand.NewMockSource(), &recorder{}, stoppedClock{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestSourceFailureIsFatal(t *testing.T) {
	boom := errors.New("runtime lost")
	r := newRunner(t, mux.Half, failingSource{err: boom}, &recorder{}, &instantClock{})
	if err := r.Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
}

func TestOversizedPacketIsFatal(t *testing.T) {
	rec := &recorder{}
	r := newRunner(t, mux.Full, hand.NewSequenceSource(activeFrame()), rec, &instantClock{})
	r.enc.Limit = 64
	if err := r.Run(context.Background()); !errors.Is(err, osc.ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
	if len(rec.packets) != 0 {
		t.Fatalf("oversized packet was sent")
	}
}

func TestSendFailureKeepsRunning(t *testing.T) {
	rec := &recorder{err: errors.New("connection refused")}
	var sent int
	r := newRunner(t, mux.Half, hand.NewSequenceSource(activeFrame(), activeFrame()), rec, &instantClock{},
		SinkFunc(func(tk Tick) {
			if tk.SendErr != nil {
				sent++
			}
		}))
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if sent != 2 {
		t.Fatalf("observed %d failed sends, want 2", sent)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("expected error for empty options")
	}
}
