// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import (
	"encoding/json"
	"fmt"

	"github.com/relabs-tech/finger_tracker/internal/orientation"
)

// snapshotPayload is the JSON schema published per hand on MQTT.
type snapshotPayload struct {
	Active bool               `json:"active"`
	Joints []orientation.Quat `json:"joints"`
}

// EncodeSnapshot serializes s for the MQTT hand topics.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	return json.Marshal(snapshotPayload{Active: s.Active, Joints: s.Joints[:]})
}

// DecodeSnapshot parses an MQTT hand payload. The joint list must cover the
// whole joint set.
func DecodeSnapshot(payload []byte) (Snapshot, error) {
	var p snapshotPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Snapshot{}, fmt.Errorf("hand payload: %w", err)
	}
	if len(p.Joints) != JointCount {
		return Snapshot{}, fmt.Errorf("hand payload: got %d joints, want %d", len(p.Joints), JointCount)
	}
	s := Snapshot{Active: p.Active}
	copy(s.Joints[:], p.Joints)
	return s, nil
}
