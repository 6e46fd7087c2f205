// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package hand

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/orientation"
)

// Glove sentences use NMEA 0183 framing with the "FT" talker:
//
//	$FTHJT,<L|R>,<joint>,<x>,<y>,<z>,<w>*hh   one joint orientation
//	$FTHST,<L|R>,<0|1>*hh                     commit hand with active flag
const (
	TalkerGlove = "FT"
	TypeJoint   = "HJT"
	TypeState   = "HST"
)

// JointSentence carries one joint orientation.
type JointSentence struct {
	nmea.BaseSentence
	Hand       string
	Joint      int64
	X, Y, Z, W float64
}

// StateSentence closes a hand update.
type StateSentence struct {
	nmea.BaseSentence
	Hand   string
	Active int64
}

func init() {
	nmea.MustRegisterParser(TypeJoint, func(s nmea.BaseSentence) (nmea.Sentence, error) {
		p := nmea.NewParser(s)
		return JointSentence{
			BaseSentence: s,
			Hand:         p.EnumString(0, "hand", "L", "R"),
			Joint:        p.Int64(1, "joint"),
			X:            p.Float64(2, "x"),
			Y:            p.Float64(3, "y"),
			Z:            p.Float64(4, "z"),
			W:            p.Float64(5, "w"),
		}, p.Err()
	})
	nmea.MustRegisterParser(TypeState, func(s nmea.BaseSentence) (nmea.Sentence, error) {
		p := nmea.NewParser(s)
		return StateSentence{
			BaseSentence: s,
			Hand:         p.EnumString(0, "hand", "L", "R"),
			Active:       p.Int64(1, "active"),
		}, p.Err()
	})
}

// FormatJoint renders a joint sentence with its checksum.
func FormatJoint(side Side, j Joint, q orientation.Quat) string {
	return formatSentence(TypeJoint, fmt.Sprintf("%s,%d,%.6f,%.6f,%.6f,%.6f", sideCode(side), int(j), q.X, q.Y, q.Z, q.W))
}

// FormatState renders a state sentence with its checksum.
func FormatState(side Side, active bool) string {
	flag := 0
	if active {
		flag = 1
	}
	return formatSentence(TypeState, fmt.Sprintf("%s,%d", sideCode(side), flag))
}

func formatSentence(typ, fields string) string {
	body := TalkerGlove + typ + "," + fields
	return "$" + body + "*" + nmea.Checksum(body)
}

func sideCode(s Side) string {
	if s == Right {
		return "R"
	}
	return "L"
}

// SerialOptions configures NewSerialSource.
type SerialOptions struct {
	Port     string
	BaudRate uint
	MaxAge   time.Duration
}

type serialSource struct {
	port   io.ReadWriteCloser
	latest *latest

	mu      sync.Mutex
	pending [2]Snapshot
}

// NewSerialSource opens a data glove on a serial port and reads glove
// sentences in the background.
func NewSerialSource(opts SerialOptions) (Source, error) {
	serialOpts := serial.OpenOptions{
		PortName:              opts.Port,
		BaudRate:              opts.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return nil, &CapabilityError{Op: "serial open " + opts.Port, Err: err}
	}
	log.Info().Str("port", opts.Port).Uint("baud", opts.BaudRate).Msg("glove serial port opened")

	s := newSerialSource(port, opts.MaxAge)
	go s.readLoop()
	return s, nil
}

func newSerialSource(port io.ReadWriteCloser, maxAge time.Duration) *serialSource {
	s := &serialSource{port: port, latest: newLatest(maxAge, nil)}
	for i := range s.pending {
		s.pending[i] = IdentitySnapshot()
	}
	return s
}

func (s *serialSource) readLoop() {
	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		if err := s.handleLine(scanner.Text()); err != nil {
			log.Debug().Err(err).Msg("glove sentence skipped")
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("glove serial read stopped")
	}
}

// handleLine applies one glove sentence. Lines that are not sentences are
// ignored; malformed sentences return an error and leave state untouched.
func (s *serialSource) handleLine(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return nil
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return err
	}

	switch m := sentence.(type) {
	case JointSentence:
		side, err := ParseSide(m.Hand)
		if err != nil {
			return err
		}
		j := Joint(m.Joint)
		if !j.Valid() {
			return fmt.Errorf("joint %d out of range", m.Joint)
		}
		s.mu.Lock()
		s.pending[side].Joints[j] = orientation.Quat{X: m.X, Y: m.Y, Z: m.Z, W: m.W}
		s.mu.Unlock()

	case StateSentence:
		side, err := ParseSide(m.Hand)
		if err != nil {
			return err
		}
		s.mu.Lock()
		s.pending[side].Active = m.Active != 0
		snap := s.pending[side]
		s.mu.Unlock()
		s.latest.store(side, snap)

	default:
		return fmt.Errorf("unexpected sentence %s", sentence.DataType())
	}
	return nil
}

func (s *serialSource) Next() (Frame, error) {
	return s.latest.frame(), nil
}

func (s *serialSource) Close() error {
	return s.port.Close()
}
