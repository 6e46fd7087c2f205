// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// ./cmd/calibration/main.go
//
// Guided console calibration of the 40 finger channels.
//
//  1. Rest: hold both hands flat and relaxed. The mean angle of every channel
//     becomes its offset.
//  2. Motion: curl, stretch and spread every finger through its full range.
//     The extremes seen after the offset become the channel range.
//
// Output goes where the tracker reads calibration from: CALIBRATION_PROFILE
// when set, otherwise OFFSETS_FILE and RANGES_FILE.
//
// Run:
//
//	go run ./cmd/calibration -config fingertracker.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/app"
	"github.com/relabs-tech/finger_tracker/internal/calibration"
	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/hand"
	"github.com/relabs-tech/finger_tracker/internal/logging"
)

const sampleHz = 60 // target loop frequency (best-effort)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	profile := flag.String("profile", "", "write a TOML profile here instead of the configured files")
	restDur := flag.Duration("rest", 5*time.Second, "rest capture duration")
	motionDur := flag.Duration("motion", 30*time.Second, "maximum motion capture duration")
	flag.Parse()

	logging.ConfigureRuntime("calibration")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	cfg := config.Get()
	if *profile != "" {
		cfg.CalibrationProfile = *profile
	}

	src, err := app.OpenSource(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open hand source")
	}
	defer src.Close()

	in := bufio.NewReader(os.Stdin)
	capture := calibration.NewCapture()

	fmt.Println("=== Guided Finger Calibration ===")
	fmt.Println()

	fmt.Println("Step 1/2: Rest pose")
	fmt.Println("Hold both hands flat, fingers together and relaxed. Keep still.")
	waitEnter(in, fmt.Sprintf("Press ENTER to start rest capture (%s)...", *restDur))
	n, err := capturePhase(src, *restDur, nil, capture.AddRest)
	if err != nil {
		log.Fatal().Err(err).Msg("rest capture failed")
	}
	fmt.Printf("Captured %d rest frames.\n\n", n)

	fmt.Println("Step 2/2: Range of motion")
	fmt.Println("Make fists, stretch every finger back, then spread and close them.")
	fmt.Println("Repeat a few times. Press ENTER again to stop early.")
	waitEnter(in, fmt.Sprintf("Press ENTER to start motion capture (max %s)...", *motionDur))
	stop := make(chan struct{}, 1)
	go func() {
		_, _ = in.ReadString('\n')
		stop <- struct{}{}
	}()
	n, err = capturePhase(src, *motionDur, stop, capture.AddMotion)
	if err != nil {
		log.Fatal().Err(err).Msg("motion capture failed")
	}
	fmt.Printf("Captured %d motion frames.\n\n", n)

	table, err := capture.Table()
	if err != nil {
		log.Fatal().Err(err).Msg("calibration failed")
	}
	printTable(table)

	where, err := app.SaveCalibration(cfg)(table)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to save calibration")
	}
	fmt.Println("\nCalibration complete.")
	fmt.Printf("Saved to %s\n", where)
}

func waitEnter(in *bufio.Reader, prompt string) {
	fmt.Print(prompt)
	_, _ = in.ReadString('\n')
}

// capturePhase feeds active frames to add until dur elapses or stop fires,
// and returns how many add accepted.
func capturePhase(src hand.Source, dur time.Duration, stop <-chan struct{}, add func(*channels.Frame) bool) (int, error) {
	deadline := time.Now().Add(dur)
	period := time.Second / sampleHz
	accepted, inactive := 0, 0

	for time.Now().Before(deadline) {
		select {
		case <-stop:
			return accepted, nil
		default:
		}

		f, err := src.Next()
		if err != nil {
			return accepted, err
		}
		if !f.Active() {
			inactive++
		} else {
			raw := channels.Extract(&f)
			if add(&raw) {
				accepted++
			}
		}
		time.Sleep(period)
	}
	if inactive > 0 {
		log.Warn().Int("frames", inactive).Msg("hands not tracked during part of the capture")
	}
	return accepted, nil
}

func printTable(t *calibration.Table) {
	fmt.Println(" ch  hand  kind      offset      min      max")
	for i, c := range channels.Table {
		r := t.Ranges[i]
		fmt.Printf("%3d  %-5s %-8s %8.2f %8.2f %8.2f\n", i, c.Hand, c.Kind, t.Offsets[i], r.Min, r.Max)
	}
}
