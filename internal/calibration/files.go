// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package calibration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/relabs-tech/finger_tracker/internal/channels"
)

// Default file names of the line-based calibration files.
const (
	DefaultOffsetsFile = "num.txt"
	DefaultRangesFile  = "muscle.txt"
)

// LoadFiles reads the offsets file (one value per channel) and the ranges
// file (min and max per channel, one value per line) and validates them.
func LoadFiles(offsetsPath, rangesPath string) (*Table, error) {
	t := &Table{}

	offsets, err := readFile(offsetsPath, channels.Count)
	if err != nil {
		return nil, err
	}
	copy(t.Offsets[:], offsets)

	ranges, err := readFile(rangesPath, 2*channels.Count)
	if err != nil {
		return nil, err
	}
	for i := range t.Ranges {
		t.Ranges[i] = Range{Min: ranges[2*i], Max: ranges[2*i+1]}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func readFile(path string, n int) ([]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration file: %w", err)
	}
	defer file.Close()

	vals, err := ReadValues(file, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return vals, nil
}

// ReadValues reads exactly n values, one per line. Lines after the n-th
// are ignored.
func ReadValues(r io.Reader, n int) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	vals := make([]float64, 0, n)
	for len(vals) < n {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return nil, fmt.Errorf("error reading calibration: %w", err)
			}
			return nil, fmt.Errorf("line %d of %d: %w", len(vals)+1, n, ErrMissingLine)
		}
		line := strings.TrimSpace(scanner.Text())
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value on line %d %q: %w", len(vals)+1, line, err)
		}
		vals = append(vals, v)
	}
	return vals, nil
}

// WriteFiles stores t in the line-based format read by LoadFiles.
func (t *Table) WriteFiles(offsetsPath, rangesPath string) error {
	var offsets, ranges strings.Builder
	for i := range t.Offsets {
		fmt.Fprintln(&offsets, strconv.FormatFloat(t.Offsets[i], 'f', -1, 64))
	}
	for _, r := range t.Ranges {
		fmt.Fprintln(&ranges, strconv.FormatFloat(r.Min, 'f', -1, 64))
		fmt.Fprintln(&ranges, strconv.FormatFloat(r.Max, 'f', -1, 64))
	}
	if err := os.WriteFile(offsetsPath, []byte(offsets.String()), 0o644); err != nil {
		return fmt.Errorf("write offsets: %w", err)
	}
	if err := os.WriteFile(rangesPath, []byte(ranges.String()), 0o644); err != nil {
		return fmt.Errorf("write ranges: %w", err)
	}
	return nil
}
