// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/tracker"
)

// Value is a channel value that encodes NaN and infinities as JSON null.
type Value float64

func (v Value) MarshalJSON() ([]byte, error) {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*v = Value(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Value(f)
	return nil
}

// FrameView is the JSON form of a sent tick, served on the web API and
// mirrored to MQTT.
type FrameView struct {
	Seq        uint64                `json:"seq"`
	Time       time.Time             `json:"time"`
	Mode       string                `json:"mode"`
	Flag       int                   `json:"flag"`
	Channels   []int                 `json:"channels"`
	Bytes      int                   `json:"bytes"`
	Raw        [channels.Count]Value `json:"raw"`
	Normalized [channels.Count]Value `json:"normalized"`
}

// NewFrameView converts a tick; raw angles are in degrees.
func NewFrameView(t tracker.Tick) FrameView {
	v := FrameView{
		Seq:      t.Seq,
		Time:     t.Time,
		Mode:     t.Mode.String(),
		Flag:     t.Flag,
		Channels: t.Channels,
		Bytes:    t.Bytes,
	}
	for i := range t.Raw {
		v.Raw[i] = Value(t.Raw[i])
		v.Normalized[i] = Value(t.Normalized[i])
	}
	return v
}
