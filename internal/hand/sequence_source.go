// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import "io"

type sequenceSource struct {
	frames []Frame
	pos    int
}

// NewSequenceSource replays frames in order and then reports io.EOF.
func NewSequenceSource(frames ...Frame) Source {
	return &sequenceSource{frames: frames}
}

func (s *sequenceSource) Next() (Frame, error) {
	if s.pos >= len(s.frames) {
		return Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *sequenceSource) Close() error { return nil }
