// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/app"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/logging"
	"github.com/relabs-tech/finger_tracker/internal/metrics"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file (defaults apply when empty)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config file] [host] [port] [interval_ms] [mode]\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "  mode: 0 full, 1 quarter, 2 half (default)")
		flag.PrintDefaults()
	}
	flag.Parse()

	logging.ConfigureRuntime("fingertracker")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if err := config.Get().ApplyArgs(flag.Args()); err != nil {
		log.Fatal().Err(err).Msg("invalid arguments")
	}

	metrics.RegisterMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunTracker(ctx); err != nil {
		log.Error().Err(err).Msg("fatal")
		stop()
		os.Exit(1)
	}
	log.Info().Msg("shutting down")
}
