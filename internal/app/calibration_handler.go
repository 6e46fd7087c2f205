// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/calibration"
	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/config"
)

// Calibration phases, in order.
const (
	phaseRest   = "rest"
	phaseMotion = "motion"
)

// CalibrationHandler runs guided calibration sessions over a websocket,
// recording the raw angles the hub publishes while the tracker runs.
type CalibrationHandler struct {
	hub            *FrameHub
	save           func(*calibration.Table) (string, error)
	RestDuration   time.Duration
	MotionDuration time.Duration
}

func NewCalibrationHandler(hub *FrameHub, save func(*calibration.Table) (string, error)) *CalibrationHandler {
	return &CalibrationHandler{
		hub:            hub,
		save:           save,
		RestDuration:   5 * time.Second,
		MotionDuration: 30 * time.Second,
	}
}

// CalibrationSession holds the state of an active calibration
type CalibrationSession struct {
	handler      *CalibrationHandler
	conn         *websocket.Conn
	mu           sync.Mutex
	currentPhase string
	capture      *calibration.Capture
	closed       chan struct{}
}

// WebSocket message types
type WSMessage struct {
	Action string `json:"action"` // next, cancel
}

type WSResponse struct {
	Type     string      `json:"type"` // phase, progress, step, complete, error
	Phase    string      `json:"phase,omitempty"`
	Progress float64     `json:"progress,omitempty"`
	Samples  int         `json:"samples,omitempty"`
	Results  interface{} `json:"results,omitempty"`
	Message  string      `json:"message,omitempty"`
}

var errSessionClosed = errors.New("calibration: session closed")

func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("calibration: websocket upgrade error")
		return
	}
	defer conn.Close()

	session := &CalibrationSession{
		handler: h,
		conn:    conn,
		capture: calibration.NewCapture(),
		closed:  make(chan struct{}),
	}

	// cancel and disconnects must be seen while a phase is capturing
	next := make(chan struct{}, 1)
	go session.readLoop(next)

	for {
		select {
		case <-session.closed:
			return
		case <-next:
		}

		session.mu.Lock()
		err := session.runNextStep()
		session.mu.Unlock()
		if errors.Is(err, errSessionClosed) {
			return
		}
		if err != nil {
			session.sendError(err.Error())
		}
	}
}

// readLoop forwards "next" requests and closes s.closed on cancel or when
// the connection goes away.
func (s *CalibrationSession) readLoop(next chan<- struct{}) {
	defer close(s.closed)
	for {
		var msg WSMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			log.Debug().Err(err).Msg("calibration: websocket closed")
			return
		}

		switch msg.Action {
		case "next":
			select {
			case next <- struct{}{}:
			default:
				log.Debug().Msg("calibration: next already pending, ignoring")
			}
		case "cancel":
			log.Info().Msg("calibration: cancelled by user")
			return
		}
	}
}

// runNextStep advances only when the step succeeds, so a failed phase can
// be retried with another "next".
func (s *CalibrationSession) runNextStep() error {
	switch s.currentPhase {
	case "":
		if err := s.runCapture(phaseRest, s.handler.RestDuration, s.capture.AddRest); err != nil {
			s.capture = calibration.NewCapture()
			return err
		}
		s.currentPhase = phaseRest
	case phaseRest:
		if err := s.runCapture(phaseMotion, s.handler.MotionDuration, s.capture.AddMotion); err != nil {
			return err
		}
		s.currentPhase = phaseMotion
	case phaseMotion:
		if err := s.complete(); err != nil {
			s.currentPhase = ""
			s.capture = calibration.NewCapture()
			return err
		}
	}
	return nil
}

func (s *CalibrationSession) runCapture(phase string, dur time.Duration, add func(*channels.Frame) bool) error {
	s.send(WSResponse{Type: "phase", Phase: phase})

	frames, cancel := s.handler.hub.SubscribeRaw(64)
	defer cancel()

	start := time.Now()
	deadline := time.NewTimer(dur)
	defer deadline.Stop()
	progress := time.NewTicker(dur / 10)
	defer progress.Stop()

	samples := 0
	for {
		select {
		case <-s.closed:
			log.Info().Str("phase", phase).Msg("calibration: capture aborted")
			return errSessionClosed
		case f := <-frames:
			if add(&f) {
				samples++
			}
		case <-progress.C:
			s.send(WSResponse{Type: "progress", Phase: phase, Progress: 100 * time.Since(start).Seconds() / dur.Seconds()})
		case <-deadline.C:
			if samples == 0 {
				return fmt.Errorf("no frames received during %s phase; is the tracker sending?", phase)
			}
			log.Info().Str("phase", phase).Int("samples", samples).Msg("calibration: phase captured")
			s.send(WSResponse{Type: "step", Phase: phase, Progress: 100, Samples: samples})
			return nil
		}
	}
}

func (s *CalibrationSession) complete() error {
	table, err := s.capture.Table()
	if err != nil {
		return err
	}
	where, err := s.handler.save(table)
	if err != nil {
		return fmt.Errorf("failed to save calibration: %w", err)
	}
	log.Info().Str("path", where).Msg("calibration: saved results")

	s.send(WSResponse{
		Type:    "complete",
		Results: table,
		Message: where,
	})
	s.currentPhase = ""
	s.capture = calibration.NewCapture()
	return nil
}

func (s *CalibrationSession) send(resp WSResponse) {
	_ = s.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := s.conn.WriteJSON(resp); err != nil {
		log.Debug().Err(err).Msg("calibration: websocket write error")
	}
}

func (s *CalibrationSession) sendError(message string) {
	s.send(WSResponse{
		Type:    "error",
		Message: message,
	})
}

// SaveCalibration writes t where cfg loads calibration from: the TOML
// profile when one is configured, otherwise the two line files.
func SaveCalibration(cfg *config.Config) func(*calibration.Table) (string, error) {
	return func(t *calibration.Table) (string, error) {
		if cfg.CalibrationProfile != "" {
			return cfg.CalibrationProfile, writeProfile(cfg.CalibrationProfile, t)
		}
		if err := t.WriteFiles(cfg.OffsetsFile, cfg.RangesFile); err != nil {
			return "", err
		}
		return cfg.OffsetsFile + ", " + cfg.RangesFile, nil
	}
}
