// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/relabs-tech/finger_tracker/internal/mux"
	"github.com/relabs-tech/finger_tracker/internal/tracker"
)

type fakeDrawer struct {
	mu    sync.Mutex
	draws int
	last  image.Image
}

func (f *fakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, 128, 64) }

func (f *fakeDrawer) Draw(_ image.Rectangle, src image.Image, _ image.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draws++
	f.last = src
	return nil
}

func (f *fakeDrawer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draws
}

func lit(img *image1bit.VerticalLSB) int {
	n := 0
	for _, b := range img.Pix {
		for ; b != 0; b &= b - 1 {
			n++
		}
	}
	return n
}

func TestStatusDisplayCounts(t *testing.T) {
	d := NewStatusDisplay(mux.Quarter)
	d.Observe(tracker.Tick{Skipped: true})
	d.Observe(tracker.Tick{Seq: 1, Flag: 2})
	d.Observe(tracker.Tick{Seq: 2, Flag: 3, SendErr: errors.New("refused")})
	d.Observe(tracker.Tick{Skipped: true})

	st := d.snapshot()
	if !st.haveTick || st.seq != 2 || st.flag != 3 || st.skipped != 2 || st.sendErrs != 1 || !st.lastSkip {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestRenderStatus(t *testing.T) {
	waiting := renderStatus(displayStatus{mode: mux.Half})
	busy := renderStatus(displayStatus{mode: mux.Half, haveTick: true, seq: 1234, flag: 2, skipped: 5})

	if lit(waiting) == 0 || lit(busy) == 0 {
		t.Fatalf("nothing drawn")
	}
	if bytes.Equal(waiting.Pix, busy.Pix) {
		t.Fatalf("waiting and running screens are identical")
	}
}

func TestStatusDisplayRun(t *testing.T) {
	d := NewStatusDisplay(mux.Half)
	dev := &fakeDrawer{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, dev, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for dev.count() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
	if dev.count() < 3 {
		t.Fatalf("display drawn %d times", dev.count())
	}
}

func litRows(img *image1bit.VerticalLSB, y0, y1 int) int {
	n := 0
	for y := y0; y <= y1; y++ {
		for x := 0; x < img.Bounds().Dx(); x++ {
			if img.At(x, y) == image1bit.On {
				n++
			}
		}
	}
	return n
}

func TestRenderStatusErrorLineFits(t *testing.T) {
	st := displayStatus{mode: mux.Half, haveTick: true, seq: 99, flag: 1, skipped: 3, lastSkip: true}
	clean := renderStatus(st)
	st.sendErrs = 7
	failing := renderStatus(st)

	// below the skip line only the error line may draw
	if n := litRows(clean, 51, 63); n != 0 {
		t.Fatalf("%d pixels below the skip line without errors", n)
	}
	if n := litRows(failing, 51, 62); n == 0 {
		t.Fatalf("error line not drawn")
	}
	if n := litRows(failing, 63, 63); n != 0 {
		t.Fatalf("error line touches the last row (%d pixels)", n)
	}
}
