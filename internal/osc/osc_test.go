// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package osc

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"net"
	"testing"
	"time"
)

func TestAppendMessageLayout(t *testing.T) {
	b, err := AppendMessage(nil, Float("/a", 1.0))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := []byte{
		'/', 'a', 0, 0,
		',', 'f', 0, 0,
		0x3f, 0x80, 0, 0,
	}
	if !bytes.Equal(b, want) {
		t.Fatalf("message bytes = % x, want % x", b, want)
	}

	b, err = AppendMessage(nil, Int("/abc", -2))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want = []byte{
		'/', 'a', 'b', 'c', 0, 0, 0, 0,
		',', 'i', 0, 0,
		0xff, 0xff, 0xff, 0xfe,
	}
	if !bytes.Equal(b, want) {
		t.Fatalf("message bytes = % x, want % x", b, want)
	}
}

func TestEncodeBundleHeader(t *testing.T) {
	b, err := EncodeBundle([]Message{Int("/avatar/parameters/FingerFlag", 0)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(b, []byte("#bundle\x00")) {
		t.Fatalf("missing bundle tag: % x", b[:8])
	}
	if tt := binary.BigEndian.Uint64(b[8:16]); tt != TimeTagImmediate {
		t.Fatalf("time tag = %d, want %d", tt, TimeTagImmediate)
	}
	size := int(binary.BigEndian.Uint32(b[16:20]))
	if size != len(b)-20 || size%4 != 0 {
		t.Fatalf("element size = %d, packet tail = %d", size, len(b)-20)
	}
}

func TestEncodeDecode(t *testing.T) {
	in := []Message{
		Int("/avatar/parameters/FingerFlag", 0),
		Float("/avatar/parameters/Finger0", -0.25),
		Float("/avatar/parameters/Finger1", float32(math.NaN())),
		{Address: "/note", Args: []any{"hello", int32(7)}},
		Int("/avatar/parameters/FingerFlag", 3),
	}
	b, err := EncodeBundle(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := ParsePacket(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.TimeTag != TimeTagImmediate {
		t.Fatalf("time tag = %d", out.TimeTag)
	}
	if len(out.Messages) != len(in) {
		t.Fatalf("got %d messages, want %d", len(out.Messages), len(in))
	}
	for i := range in {
		if out.Messages[i].Address != in[i].Address {
			t.Fatalf("message %d address = %q, want %q", i, out.Messages[i].Address, in[i].Address)
		}
	}
	if v := out.Messages[1].Args[0].(float32); v != -0.25 {
		t.Fatalf("float arg = %v", v)
	}
	if v := out.Messages[2].Args[0].(float32); !math.IsNaN(float64(v)) {
		t.Fatalf("NaN did not survive encoding: %v", v)
	}
	if s := out.Messages[3].Args[0].(string); s != "hello" {
		t.Fatalf("string arg = %q", s)
	}
	if v := out.Messages[4].Args[0].(int32); v != 3 {
		t.Fatalf("flag = %d", v)
	}
}

func TestEncodeBundleTooLarge(t *testing.T) {
	msgs := make([]Message, 0, 400)
	for i := 0; i < cap(msgs); i++ {
		msgs = append(msgs, Float(fmt.Sprintf("/avatar/parameters/LongParameterName%03d", i), 1))
	}
	if _, err := EncodeBundle(msgs); !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}

	enc := NewEncoder()
	enc.Limit = 32
	if _, err := enc.EncodeBundle([]Message{Float("/a", 1)}); err != nil {
		t.Fatalf("small bundle: %v", err)
	}
	if _, err := enc.EncodeBundle([]Message{Float("/a", 1), Float("/b", 2)}); !errors.Is(err, ErrPacketTooLarge) {
		t.Fatalf("expected ErrPacketTooLarge, got %v", err)
	}
}

func TestEncodeRejectsBadInput(t *testing.T) {
	if _, err := EncodeBundle([]Message{{Address: "/x", Args: []any{1.0}}}); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := EncodeBundle([]Message{Float("x", 1)}); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestParsePacketMalformed(t *testing.T) {
	good, err := EncodeBundle([]Message{Float("/a", 1)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tests := map[string][]byte{
		"empty":     nil,
		"truncated": good[:len(good)-2],
		"header":    []byte("#bundlX\x00\x00\x00\x00\x00\x00\x00\x00\x01"),
		"no time":   []byte("#bundle\x00\x00\x00"),
	}
	for name, b := range tests {
		if _, err := ParsePacket(b); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: expected ErrMalformed, got %v", name, err)
		}
	}
}

func TestParseBareMessage(t *testing.T) {
	b, err := AppendMessage(nil, Float("/a", 0.5))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := ParsePacket(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Messages) != 1 || out.Messages[0].Args[0].(float32) != 0.5 {
		t.Fatalf("unexpected bundle: %+v", out)
	}
}

func TestSenderListener(t *testing.T) {
	l, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Skipf("udp unavailable: %v", err)
	}
	defer l.Close()

	udpPort := l.LocalAddr().(*net.UDPAddr).Port

	s, err := Dial("127.0.0.1", udpPort)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer s.Close()

	b, err := EncodeBundle([]Message{Float("/avatar/parameters/Finger0", 0.75)})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := s.Send(b); err != nil {
		t.Fatalf("send: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	got, err := l.Receive(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(got.Messages) != 1 || got.Messages[0].Args[0].(float32) != 0.75 {
		t.Fatalf("unexpected bundle: %+v", got)
	}
}
