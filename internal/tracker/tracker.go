// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package tracker runs the tick loop: sample both hands, extract and
// normalize the 40 channels, pick this tick's unit and send it as one
// bundle.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/calibration"
	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/hand"
	"github.com/relabs-tech/finger_tracker/internal/mux"
	"github.com/relabs-tech/finger_tracker/internal/osc"
)

// Transport delivers one encoded bundle. b is only valid during the call.
type Transport interface {
	Send(b []byte) error
}

// Tick describes one pass of the loop. Skipped ticks carry no channel data.
type Tick struct {
	Seq        uint64
	Time       time.Time
	Skipped    bool
	Mode       mux.Mode
	Raw        channels.Frame
	Normalized channels.Frame
	Flag       int
	Channels   []int
	Bytes      int
	SendErr    error
}

// Sink observes ticks. Observe runs on the loop goroutine and must not block.
type Sink interface {
	Observe(t Tick)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Tick)

func (f SinkFunc) Observe(t Tick) { f(t) }

type Options struct {
	Interval    time.Duration
	Mode        mux.Mode
	Calibration *calibration.Table
	Source      hand.Source
	Transport   Transport
	Clock       Clock
	Sinks       []Sink
}

// Runner owns the multiplexer state. Run and Step must not be called
// concurrently.
type Runner struct {
	interval  time.Duration
	cal       *calibration.Table
	source    hand.Source
	transport Transport
	clock     Clock
	sinks     []Sink

	sched *mux.Scheduler
	enc   *osc.Encoder
	seq   uint64
}

func New(opts Options) (*Runner, error) {
	if opts.Calibration == nil {
		return nil, errors.New("tracker: calibration table is required")
	}
	if opts.Source == nil {
		return nil, errors.New("tracker: hand source is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("tracker: transport is required")
	}
	if opts.Interval <= 0 {
		return nil, fmt.Errorf("tracker: invalid interval %s", opts.Interval)
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	return &Runner{
		interval:  opts.Interval,
		cal:       opts.Calibration,
		source:    opts.Source,
		transport: opts.Transport,
		clock:     opts.Clock,
		sinks:     opts.Sinks,
		sched:     mux.New(opts.Mode),
		enc:       osc.NewEncoder(),
	}, nil
}

// Mode returns the multiplexing mode in effect.
func (r *Runner) Mode() mux.Mode { return r.sched.Mode() }

// Run waits one interval before every tick until ctx is cancelled or the
// source is exhausted, both of which end the loop without error. A source
// failure or an oversized packet stops the loop with an error.
func (r *Runner) Run(ctx context.Context) error {
	log.Info().
		Str("mode", r.sched.Mode().String()).
		Dur("interval", r.interval).
		Msg("tick loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("ticks", r.seq).Msg("tick loop stopped")
			return nil
		case <-r.clock.After(r.interval):
		}

		if _, err := r.Step(); err != nil {
			if errors.Is(err, io.EOF) {
				log.Info().Uint64("ticks", r.seq).Msg("hand source exhausted")
				return nil
			}
			return err
		}
	}
}

// Step runs one tick immediately.
func (r *Runner) Step() (Tick, error) {
	frame, err := r.source.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Tick{}, err
		}
		return Tick{}, fmt.Errorf("hand source: %w", err)
	}

	tick := Tick{Time: r.clock.Now(), Mode: r.sched.Mode()}
	if !frame.Active() {
		log.Debug().
			Bool("left", frame.Left.Active).
			Bool("right", frame.Right.Active).
			Msg("hand inactive, tick skipped")
		tick.Skipped = true
		r.notify(tick)
		return tick, nil
	}

	tick.Raw = channels.Extract(&frame)
	tick.Normalized = r.cal.NormalizeFrame(&tick.Raw)
	unit := r.sched.Next(&tick.Normalized)

	b, err := r.enc.EncodeBundle(unit.Messages)
	if err != nil {
		return tick, fmt.Errorf("encode tick %d: %w", r.seq+1, err)
	}
	if err := r.transport.Send(b); err != nil {
		log.Warn().Err(err).Msg("send failed")
		tick.SendErr = err
	}

	r.seq++
	tick.Seq = r.seq
	tick.Flag = unit.Flag
	tick.Channels = unit.Channels
	tick.Bytes = len(b)
	r.notify(tick)
	return tick, nil
}

func (r *Runner) notify(t Tick) {
	for _, s := range r.sinks {
		s.Observe(t)
	}
}
