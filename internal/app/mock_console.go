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
	"time"

	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/hand"
)

// RunMockConsole prints the raw channel angles of the mock source every
// CONSOLE_LOG_INTERVAL until ctx is cancelled.
func RunMockConsole(ctx context.Context) error {
	cfg := config.Get()
	return runConsole(ctx, hand.NewMockSource(), time.Duration(cfg.ConsoleLogInterval)*time.Millisecond, os.Stdout)
}

func runConsole(ctx context.Context, src hand.Source, interval time.Duration, out io.Writer) error {
	defer src.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		f, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		raw := channels.Extract(&f)
		fmt.Fprint(out, formatRaw(&raw))
	}
}

// formatRaw prints one line of stretch and one of spread angles per hand.
func formatRaw(raw *channels.Frame) string {
	var b strings.Builder
	for _, side := range []hand.Side{hand.Left, hand.Right} {
		idx := channels.HandChannels(side)
		tag := "L"
		if side == hand.Right {
			tag = "R"
		}
		fmt.Fprintf(&b, "STRETCH-%s", tag)
		for _, c := range idx[:channels.StretchPerHand] {
			fmt.Fprintf(&b, " %s", formatValue(raw[c]))
		}
		fmt.Fprintf(&b, "\nSPREAD-%s ", tag)
		for _, c := range idx[channels.StretchPerHand:] {
			fmt.Fprintf(&b, " %s", formatValue(raw[c]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
