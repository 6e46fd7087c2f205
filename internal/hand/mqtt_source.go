// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import (
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// MQTTOptions configures NewMQTTSource.
type MQTTOptions struct {
	Broker     string
	ClientID   string
	TopicLeft  string
	TopicRight string

	// MaxAge marks a hand inactive when its last snapshot is older.
	// Zero disables the check.
	MaxAge time.Duration
}

type mqttSource struct {
	client mqtt.Client
	latest *latest
}

// NewMQTTSource subscribes to one topic per hand and serves the most recent
// snapshot of each.
func NewMQTTSource(opts MQTTOptions) (Source, error) {
	o := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID)

	client := mqtt.NewClient(o)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, &CapabilityError{Op: "mqtt connect", Err: token.Error()}
	}
	log.Info().Str("broker", opts.Broker).Msg("hand source connected to MQTT")

	s := &mqttSource{client: client, latest: newLatest(opts.MaxAge, nil)}
	topics := [2]string{Left: opts.TopicLeft, Right: opts.TopicRight}
	for side, topic := range topics {
		token := client.Subscribe(topic, 0, s.handler(Side(side)))
		token.Wait()
		if token.Error() != nil {
			client.Disconnect(250)
			return nil, &CapabilityError{Op: "mqtt subscribe " + topic, Err: token.Error()}
		}
		log.Info().Str("topic", topic).Stringer("hand", Side(side)).Msg("subscribed to hand topic")
	}
	return s, nil
}

func (s *mqttSource) handler(side Side) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		s.handlePayload(side, msg.Payload())
	}
}

func (s *mqttSource) handlePayload(side Side, payload []byte) {
	snap, err := DecodeSnapshot(payload)
	if err != nil {
		log.Warn().Err(err).Stringer("hand", side).Msg("dropping hand payload")
		return
	}
	s.latest.store(side, snap)
}

func (s *mqttSource) Next() (Frame, error) {
	return s.latest.frame(), nil
}

func (s *mqttSource) Close() error {
	if s.client != nil {
		s.client.Disconnect(250)
	}
	return nil
}
