// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package osc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encoder builds bundles into a reused buffer bounded by Limit bytes.
// It is not safe for concurrent use.
type Encoder struct {
	Limit int
	buf   []byte
}

// NewEncoder returns an encoder bounded by MaxPacketSize.
func NewEncoder() *Encoder {
	return &Encoder{Limit: MaxPacketSize, buf: make([]byte, 0, MaxPacketSize)}
}

// EncodeBundle encodes msgs as one bundle with an immediate time tag.
// The returned slice is only valid until the next call.
func (e *Encoder) EncodeBundle(msgs []Message) ([]byte, error) {
	buf, err := AppendBundle(e.buf[:0], msgs)
	if err != nil {
		return nil, err
	}
	e.buf = buf
	if len(buf) > e.Limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrPacketTooLarge, len(buf), e.Limit)
	}
	return buf, nil
}

// EncodeBundle encodes msgs into a new bundle bounded by MaxPacketSize.
func EncodeBundle(msgs []Message) ([]byte, error) {
	b, err := NewEncoder().EncodeBundle(msgs)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// AppendBundle appends a bundle holding msgs to dst without any size limit.
func AppendBundle(dst []byte, msgs []Message) ([]byte, error) {
	dst = appendString(dst, bundleTag)
	dst = binary.BigEndian.AppendUint64(dst, TimeTagImmediate)
	for _, m := range msgs {
		sizeAt := len(dst)
		dst = append(dst, 0, 0, 0, 0)
		var err error
		dst, err = AppendMessage(dst, m)
		if err != nil {
			return nil, err
		}
		binary.BigEndian.PutUint32(dst[sizeAt:], uint32(len(dst)-sizeAt-4))
	}
	return dst, nil
}

// AppendMessage appends the encoding of a single message to dst.
func AppendMessage(dst []byte, m Message) ([]byte, error) {
	if len(m.Address) == 0 || m.Address[0] != '/' {
		return nil, fmt.Errorf("%w: address %q", ErrMalformed, m.Address)
	}
	tags := make([]byte, 1, len(m.Args)+1)
	tags[0] = ','
	for _, arg := range m.Args {
		tag, err := typeTag(arg)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}

	dst = appendString(dst, m.Address)
	dst = appendString(dst, string(tags))
	for _, arg := range m.Args {
		switch v := arg.(type) {
		case float32:
			dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(v))
		case int32:
			dst = binary.BigEndian.AppendUint32(dst, uint32(v))
		case string:
			dst = appendString(dst, v)
		}
	}
	return dst, nil
}

// appendString writes s null terminated and zero padded to 4 bytes.
func appendString(dst []byte, s string) []byte {
	dst = append(dst, s...)
	for n := padLen(len(s) + 1); n > len(s); n-- {
		dst = append(dst, 0)
	}
	return dst
}
