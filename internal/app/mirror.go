// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/tracker"
)

// FrameMirror republishes every sent tick as a FrameView.
type FrameMirror struct {
	pub   Publisher
	topic string
}

func NewFrameMirror(pub Publisher, topic string) *FrameMirror {
	return &FrameMirror{pub: pub, topic: topic}
}

func (m *FrameMirror) Observe(t tracker.Tick) {
	if t.Skipped {
		return
	}
	payload, err := json.Marshal(NewFrameView(t))
	if err != nil {
		log.Error().Err(err).Msg("json marshal error (frame)")
		return
	}
	if err := m.pub.Publish(m.topic, payload); err != nil {
		log.Warn().Err(err).Str("topic", m.topic).Msg("MQTT publish error (frame)")
	}
}
