// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// ParsePacket decodes a datagram. A bare message is returned as a bundle
// with an immediate time tag.
func ParsePacket(b []byte) (Bundle, error) {
	if len(b) == 0 {
		return Bundle{}, fmt.Errorf("%w: empty packet", ErrMalformed)
	}
	if b[0] == '/' {
		m, err := parseMessage(b)
		if err != nil {
			return Bundle{}, err
		}
		return Bundle{TimeTag: TimeTagImmediate, Messages: []Message{m}}, nil
	}
	var out Bundle
	if err := parseBundle(b, &out, true); err != nil {
		return Bundle{}, err
	}
	return out, nil
}

func parseBundle(b []byte, out *Bundle, top bool) error {
	tag, rest, err := readString(b)
	if err != nil {
		return err
	}
	if tag != bundleTag {
		return fmt.Errorf("%w: unexpected header %q", ErrMalformed, tag)
	}
	if len(rest) < 8 {
		return fmt.Errorf("%w: short time tag", ErrMalformed)
	}
	if top {
		out.TimeTag = binary.BigEndian.Uint64(rest)
	}
	rest = rest[8:]

	for len(rest) > 0 {
		if len(rest) < 4 {
			return fmt.Errorf("%w: short element size", ErrMalformed)
		}
		size := int(binary.BigEndian.Uint32(rest))
		rest = rest[4:]
		if size <= 0 || size > len(rest) || size%4 != 0 {
			return fmt.Errorf("%w: element size %d", ErrMalformed, size)
		}
		elem := rest[:size]
		rest = rest[size:]

		if elem[0] == '#' {
			if err := parseBundle(elem, out, false); err != nil {
				return err
			}
			continue
		}
		m, err := parseMessage(elem)
		if err != nil {
			return err
		}
		out.Messages = append(out.Messages, m)
	}
	return nil
}

func parseMessage(b []byte) (Message, error) {
	addr, rest, err := readString(b)
	if err != nil {
		return Message{}, err
	}
	if len(addr) == 0 || addr[0] != '/' {
		return Message{}, fmt.Errorf("%w: address %q", ErrMalformed, addr)
	}
	m := Message{Address: addr}
	if len(rest) == 0 {
		return m, nil
	}

	tags, rest, err := readString(rest)
	if err != nil {
		return Message{}, err
	}
	if len(tags) == 0 || tags[0] != ',' {
		return Message{}, fmt.Errorf("%w: type tags %q", ErrMalformed, tags)
	}
	for _, tag := range []byte(tags[1:]) {
		switch tag {
		case 'f', 'i':
			if len(rest) < 4 {
				return Message{}, fmt.Errorf("%w: short argument in %s", ErrMalformed, addr)
			}
			v := binary.BigEndian.Uint32(rest)
			rest = rest[4:]
			if tag == 'f' {
				m.Args = append(m.Args, math.Float32frombits(v))
			} else {
				m.Args = append(m.Args, int32(v))
			}
		case 's':
			var s string
			s, rest, err = readString(rest)
			if err != nil {
				return Message{}, err
			}
			m.Args = append(m.Args, s)
		default:
			return Message{}, fmt.Errorf("%w: tag %q", ErrUnsupportedType, tag)
		}
	}
	return m, nil
}

func readString(b []byte) (string, []byte, error) {
	end := bytes.IndexByte(b, 0)
	if end < 0 {
		return "", nil, fmt.Errorf("%w: unterminated string", ErrMalformed)
	}
	n := padLen(end + 1)
	if n > len(b) {
		return "", nil, fmt.Errorf("%w: string padding", ErrMalformed)
	}
	return string(b[:end]), b[n:], nil
}
