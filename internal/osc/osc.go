// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package osc encodes and decodes the subset of OSC 1.0 used on the wire:
// bundles with an immediate time tag holding messages whose arguments are
// 32-bit floats, 32-bit integers or strings.
package osc

import (
	"errors"
	"fmt"
)

const (
	// MaxPacketSize is the capacity of one outbound datagram.
	MaxPacketSize = 6144

	// TimeTagImmediate is the OSC time tag meaning "process on arrival".
	TimeTagImmediate uint64 = 1

	bundleTag = "#bundle"
)

var (
	ErrPacketTooLarge  = errors.New("osc: packet exceeds capacity")
	ErrUnsupportedType = errors.New("osc: unsupported argument type")
	ErrMalformed       = errors.New("osc: malformed packet")
)

// Message is one OSC message. Args hold float32, int32 or string values.
type Message struct {
	Address string
	Args    []any
}

// Float builds a message carrying a single float argument.
func Float(address string, v float32) Message {
	return Message{Address: address, Args: []any{v}}
}

// Int builds a message carrying a single int argument.
func Int(address string, v int32) Message {
	return Message{Address: address, Args: []any{v}}
}

// Bundle is a decoded OSC bundle. Nested bundles are flattened into
// Messages in wire order.
type Bundle struct {
	TimeTag  uint64
	Messages []Message
}

func (m Message) String() string {
	return fmt.Sprintf("%s %v", m.Address, m.Args)
}

// typeTag returns the OSC type tag of a single argument.
func typeTag(arg any) (byte, error) {
	switch arg.(type) {
	case float32:
		return 'f', nil
	case int32:
		return 'i', nil
	case string:
		return 's', nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, arg)
	}
}

// padLen returns n rounded up to a multiple of 4.
func padLen(n int) int {
	return (n + 3) &^ 3
}
