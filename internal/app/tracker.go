// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/calibration"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/hand"
	"github.com/relabs-tech/finger_tracker/internal/metrics"
	"github.com/relabs-tech/finger_tracker/internal/osc"
	"github.com/relabs-tech/finger_tracker/internal/tracker"
)

// LoadCalibration reads the TOML profile when configured, otherwise the
// offsets and ranges line files.
func LoadCalibration(cfg *config.Config) (*calibration.Table, error) {
	if cfg.CalibrationProfile != "" {
		return calibration.LoadProfile(cfg.CalibrationProfile)
	}
	return calibration.LoadFiles(cfg.OffsetsFile, cfg.RangesFile)
}

func writeProfile(path string, t *calibration.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	if err := t.WriteProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("write profile: %w", err)
	}
	return f.Close()
}

// OpenSource brings up the configured pose source.
func OpenSource(cfg *config.Config) (hand.Source, error) {
	switch cfg.Source {
	case config.SourceMQTT:
		log.Info().Str("broker", cfg.MQTTBroker).Msg("using MQTT hand source")
		return hand.NewMQTTSource(hand.MQTTOptions{
			Broker:     cfg.MQTTBroker,
			ClientID:   fmt.Sprintf("%s-source", cfg.MQTTClientID),
			TopicLeft:  cfg.TopicHandLeft,
			TopicRight: cfg.TopicHandRight,
			MaxAge:     cfg.MaxAge(),
		})
	case config.SourceSerial:
		log.Info().Str("port", cfg.SerialPort).Int("baud", cfg.SerialBaudRate).Msg("using serial glove source")
		return hand.NewSerialSource(hand.SerialOptions{
			Port:     cfg.SerialPort,
			BaudRate: uint(cfg.SerialBaudRate),
			MaxAge:   cfg.MaxAge(),
		})
	default:
		log.Info().Msg("using mock hand source")
		return hand.NewMockSource(), nil
	}
}

// RunTracker runs the tick loop with every sink the configuration enables
// until ctx is cancelled.
func RunTracker(ctx context.Context) error {
	cfg := config.Get()

	log.Info().Msg("Finger Tracker OSC")
	log.Info().
		Str("host", cfg.OSCHost).
		Int("port", cfg.OSCPort).
		Int("interval_ms", cfg.TickInterval).
		Str("mode", cfg.Mode.String()).
		Str("source", cfg.Source).
		Msg("configuration")

	table, err := LoadCalibration(cfg)
	if err != nil {
		return fmt.Errorf("calibration: %w", err)
	}

	src, err := OpenSource(cfg)
	if err != nil {
		return err
	}
	defer src.Close()

	sender, err := osc.Dial(cfg.OSCHost, cfg.OSCPort)
	if err != nil {
		return err
	}
	defer sender.Close()

	sinks := []tracker.Sink{metrics.Sink}

	if cfg.WebServerPort > 0 {
		hub := NewFrameHub()
		sinks = append(sinks, hub)
		mux := NewWebMux(hub, NewCalibrationHandler(hub, SaveCalibration(cfg)))
		go func() {
			if err := ServeWeb(ctx, cfg.WebServerPort, mux); err != nil {
				log.Error().Err(err).Msg("web server stopped")
			}
		}()
	}

	if cfg.TopicFrame != "" {
		client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, "mirror")
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		sinks = append(sinks, NewFrameMirror(mqttPublisher{client: client, retain: true}, cfg.TopicFrame))
	}

	if cfg.DisplayEnabled {
		dev, closeDisplay, err := OpenDisplay()
		if err != nil {
			log.Warn().Err(err).Msg("display unavailable, continuing without it")
		} else {
			defer closeDisplay()
			status := NewStatusDisplay(cfg.Mode)
			sinks = append(sinks, status)
			go status.Run(ctx, dev, cfg.DisplayInterval())
		}
	}

	runner, err := tracker.New(tracker.Options{
		Interval:    cfg.Interval(),
		Mode:        cfg.Mode,
		Calibration: table,
		Source:      src,
		Transport:   sender,
		Sinks:       sinks,
	})
	if err != nil {
		return err
	}

	log.Info().Str("dest", sender.Addr()).Msg("OK!")
	return runner.Run(ctx)
}
