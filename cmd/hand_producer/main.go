package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/app"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/logging"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	logging.ConfigureRuntime("hand-producer")
	log.Info().Msg("starting finger-tracker hand producer (mock -> MQTT)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunHandProducer(ctx); err != nil {
		log.Error().Err(err).Msg("fatal")
		stop()
		os.Exit(1)
	}
}
