// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/osc"
	"github.com/relabs-tech/finger_tracker/internal/receiver"
)

// RunMonitor listens on MONITOR_LISTEN, reassembles the channel frame from
// incoming bundles and prints each update until ctx is cancelled.
func RunMonitor(ctx context.Context) error {
	cfg := config.Get()

	l, err := osc.Listen(cfg.MonitorListen)
	if err != nil {
		return err
	}
	defer l.Close()
	log.Info().Str("addr", l.LocalAddr().String()).Msg("monitor: listening")

	m := newMonitor(os.Stdout)
	for {
		b, err := l.Receive(ctx)
		switch {
		case ctx.Err() != nil:
			log.Info().Uint64("bundles", m.bundles).Msg("monitor: shutting down")
			return nil
		case errors.Is(err, osc.ErrMalformed), errors.Is(err, osc.ErrUnsupportedType):
			log.Warn().Err(err).Msg("monitor: dropped packet")
			continue
		case err != nil:
			return err
		}
		if err := m.handle(b); err != nil {
			log.Warn().Err(err).Msg("monitor: bad bundle")
		}
	}
}

type monitor struct {
	asm      *receiver.Assembler
	out      io.Writer
	bundles  uint64
	complete bool
}

func newMonitor(out io.Writer) *monitor {
	return &monitor{asm: receiver.NewAssembler(), out: out}
}

func (m *monitor) handle(b osc.Bundle) error {
	m.bundles++
	updated, err := m.asm.Apply(b)
	if err != nil {
		return err
	}
	if len(updated) == 0 {
		return nil
	}
	if !m.complete && m.asm.Complete() {
		m.complete = true
		log.Info().Uint64("bundles", m.bundles).Msg("monitor: all channels received")
	}
	frame := m.asm.Frame()
	fmt.Fprintln(m.out, formatUpdate(m.asm.Flag(), updated, &frame))
	return nil
}

func formatUpdate(flag int, updated []int, f *channels.Frame) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[OSC] flag=%d n=%d", flag, len(updated))
	for _, c := range updated {
		fmt.Fprintf(&b, " %d=%+.3f", c, f[c])
	}
	return b.String()
}
