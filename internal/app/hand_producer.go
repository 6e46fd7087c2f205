// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/hand"
)

// RunHandProducer publishes mock hand snapshots to the hand topics so the
// MQTT source can be exercised without a tracker.
func RunHandProducer(ctx context.Context) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, "producer")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	log.Info().
		Str("left", cfg.TopicHandLeft).
		Str("right", cfg.TopicHandRight).
		Int("interval_ms", cfg.TickInterval).
		Msg("publishing mock hands")

	return produceHands(ctx, hand.NewMockSource(), mqttPublisher{client: client}, cfg.TopicHandLeft, cfg.TopicHandRight, cfg.Interval())
}

func produceHands(ctx context.Context, src hand.Source, pub Publisher, left, right string, interval time.Duration) error {
	defer src.Close()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var published uint64
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("frames", published).Msg("producer stopped")
			return nil
		case <-ticker.C:
		}

		f, err := src.Next()
		if err != nil {
			log.Warn().Err(err).Msg("error from hand source")
			continue
		}

		for _, side := range []hand.Side{hand.Left, hand.Right} {
			topic := left
			if side == hand.Right {
				topic = right
			}
			payload, err := hand.EncodeSnapshot(*f.Hand(side))
			if err != nil {
				log.Error().Err(err).Str("hand", side.String()).Msg("json marshal error")
				continue
			}
			if err := pub.Publish(topic, payload); err != nil {
				log.Warn().Err(err).Str("topic", topic).Msg("MQTT publish error")
			}
		}
		published++
		if published%100 == 0 {
			log.Debug().Uint64("frames", published).Msg("published hands")
		}
	}
}
