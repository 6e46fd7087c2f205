// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package mux

import (
	"math"
	"testing"

	"github.com/relabs-tech/finger_tracker/internal/channels"
)

// indexedFrame holds i/100 in channel i so values identify their channel.
func indexedFrame() *channels.Frame {
	var f channels.Frame
	for i := range f {
		f[i] = float64(i) / 100
	}
	return &f
}

func checkFlags(t *testing.T, u Unit, want int) {
	t.Helper()
	first, last := u.Messages[0], u.Messages[len(u.Messages)-1]
	if first.Address != FlagAddress || first.Args[0].(int32) != 0 {
		t.Fatalf("first message = %v, want %s 0", first, FlagAddress)
	}
	if last.Address != FlagAddress || last.Args[0].(int32) != int32(want) {
		t.Fatalf("last message = %v, want %s %d", last, FlagAddress, want)
	}
	if u.Flag != want {
		t.Fatalf("unit flag = %d, want %d", u.Flag, want)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"0", Full},
		{"1", Quarter},
		{"2", Half},
		{"7", Full},
		{"-1", Full},
		{"full", Full},
		{"Quarter", Quarter},
		{"economy-half", Half},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if err != nil {
			t.Fatalf("ParseMode(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Fatalf("expected error for unknown mode name")
	}
}

func TestAddresses(t *testing.T) {
	checks := map[int][2]string{
		0:  {"/avatar/parameters/LHThumb1", "/avatar/parameters/Thumb1"},
		14: {"/avatar/parameters/LHLittle3", "/avatar/parameters/Little3"},
		15: {"/avatar/parameters/RHThumb1", "/avatar/parameters/Thumb1"},
		23: {"/avatar/parameters/RHMiddle3", "/avatar/parameters/Middle3"},
		30: {"/avatar/parameters/LHThumbS", "/avatar/parameters/ThumbS"},
		39: {"/avatar/parameters/RHLittleS", "/avatar/parameters/LittleS"},
	}
	for i, want := range checks {
		if FullAddresses[i] != want[0] || EconomyAddresses[i] != want[1] {
			t.Fatalf("channel %d addresses = %q %q, want %q %q", i, FullAddresses[i], EconomyAddresses[i], want[0], want[1])
		}
	}
	if QuarterAddresses[9] != "/avatar/parameters/Finger9" {
		t.Fatalf("quarter slot 9 = %q", QuarterAddresses[9])
	}
}

func TestFullModeSendsEverythingWithoutFlag(t *testing.T) {
	s := New(Full)
	f := indexedFrame()
	for tick := 0; tick < 3; tick++ {
		u := s.Next(f)
		if len(u.Messages) != channels.Count || u.Flag != 0 {
			t.Fatalf("got %d messages flag %d", len(u.Messages), u.Flag)
		}
		for i, m := range u.Messages {
			if m.Address != FullAddresses[i] {
				t.Fatalf("message %d address = %q", i, m.Address)
			}
			if v := m.Args[0].(float32); v != float32(f[i]) {
				t.Fatalf("message %d value = %v", i, v)
			}
		}
	}
	if s.Counter() != 0 {
		t.Fatalf("full mode advanced the counter to %d", s.Counter())
	}
}

func TestQuarterCycleCoversEveryChannelOnce(t *testing.T) {
	s := New(Quarter)
	f := indexedFrame()
	wantFlags := []int{2, 3, 4, 1, 2, 3, 4, 1}

	for start := 0; start+4 <= len(wantFlags); start += 4 {
		seen := make(map[int]int)
		for k := 0; k < 4; k++ {
			u := s.Next(f)
			checkFlags(t, u, wantFlags[start+k])
			if len(u.Messages) != 12 {
				t.Fatalf("quarter unit has %d messages, want 12", len(u.Messages))
			}
			for slot, ch := range u.Channels {
				seen[ch]++
				m := u.Messages[slot+1]
				if m.Address != QuarterAddresses[slot] {
					t.Fatalf("slot %d address = %q", slot, m.Address)
				}
				if v := m.Args[0].(float32); v != float32(f[ch]) {
					t.Fatalf("slot %d carries %v, want channel %d", slot, v, ch)
				}
			}
		}
		if len(seen) != channels.Count {
			t.Fatalf("4 ticks covered %d channels, want %d", len(seen), channels.Count)
		}
		for ch, n := range seen {
			if n != 1 {
				t.Fatalf("channel %d sent %d times", ch, n)
			}
		}
	}
}

func TestQuarterFlagSelectsGroup(t *testing.T) {
	s := New(Quarter)
	f := indexedFrame()
	for k := 0; k < 4; k++ {
		u := s.Next(f)
		group := QuarterGroup(u.Flag - 1)
		for slot, ch := range u.Channels {
			if group[slot] != ch {
				t.Fatalf("flag %d slot %d = channel %d, want %d", u.Flag, slot, ch, group[slot])
			}
		}
	}
}

func TestHalfAlternatesHands(t *testing.T) {
	s := New(Half)
	f := indexedFrame()
	wantFlags := []int{2, 1, 2, 1}
	for k, want := range wantFlags {
		u := s.Next(f)
		checkFlags(t, u, want)
		if len(u.Channels) != 20 {
			t.Fatalf("half unit has %d channels", len(u.Channels))
		}
		right := want == 2
		for slot, ch := range u.Channels {
			isRight := (ch >= 15 && ch < 30) || ch >= 35
			if isRight != right {
				t.Fatalf("tick %d mixes hands: channel %d", k, ch)
			}
			m := u.Messages[slot+1]
			if m.Address != EconomyAddresses[ch] {
				t.Fatalf("channel %d address = %q", ch, m.Address)
			}
		}
	}
}

func TestCounterWraps(t *testing.T) {
	s := New(Quarter)
	s.counter = math.MaxUint32
	u := s.Next(indexedFrame())
	if s.Counter() != 0 || u.Flag != 1 {
		t.Fatalf("after wrap counter=%d flag=%d", s.Counter(), u.Flag)
	}
}
