package app

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/finger_tracker/internal/mux"
	"github.com/relabs-tech/finger_tracker/internal/tracker"
)

// Drawer is the part of an OLED device the status display needs.
type Drawer interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// displayStatus holds the latest data for display
type displayStatus struct {
	mode     mux.Mode
	haveTick bool
	seq      uint64
	flag     int
	skipped  uint64
	sendErrs uint64
	lastSkip bool
}

// StatusDisplay renders tracker status on a 128x64 SSD1306.
type StatusDisplay struct {
	mu     sync.RWMutex
	status displayStatus
}

func NewStatusDisplay(mode mux.Mode) *StatusDisplay {
	return &StatusDisplay{status: displayStatus{mode: mode}}
}

func (d *StatusDisplay) Observe(t tracker.Tick) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status.lastSkip = t.Skipped
	if t.Skipped {
		d.status.skipped++
		return
	}
	d.status.haveTick = true
	d.status.seq = t.Seq
	d.status.flag = t.Flag
	if t.SendErr != nil {
		d.status.sendErrs++
	}
}

func (d *StatusDisplay) snapshot() displayStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.status
}

// OpenDisplay initializes periph and the SSD1306 on the default I2C bus.
func OpenDisplay() (Drawer, func(), error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open("")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I2C bus: %w", err)
	}

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		bus.Close()
		return nil, nil, fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Info().Msg("display: initialized")

	return dev, func() {
		_ = dev.Halt()
		bus.Close()
	}, nil
}

// Run shows the splash screen, then redraws every interval until ctx is done.
func (d *StatusDisplay) Run(ctx context.Context, dev Drawer, interval time.Duration) {
	if err := dev.Draw(dev.Bounds(), renderSplash(), image.Point{}); err != nil {
		log.Warn().Err(err).Msg("display: error showing splash")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Msg("display: starting update loop")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := dev.Draw(dev.Bounds(), renderStatus(d.snapshot()), image.Point{}); err != nil {
				log.Warn().Err(err).Msg("display: error updating display")
			}
		}
	}
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, 128, 64))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLine(drawer *font.Drawer, x, y int, s string) {
	drawer.Dot = fixed.P(x, y)
	drawer.DrawString(s)
}

func renderStatus(st displayStatus) *image1bit.VerticalLSB {
	img, drawer := newCanvas()

	drawLine(drawer, 0, 12, "Mode: "+st.mode.String())
	if !st.haveTick {
		drawLine(drawer, 0, 36, "Waiting...")
		return img
	}

	if st.flag > 0 {
		drawLine(drawer, 0, 24, fmt.Sprintf("Flag: %d", st.flag))
	}
	drawLine(drawer, 0, 36, fmt.Sprintf("Sent: %d", st.seq))
	skip := fmt.Sprintf("Skip: %d", st.skipped)
	if st.lastSkip {
		skip += " !"
	}
	drawLine(drawer, 0, 48, skip)
	if st.sendErrs > 0 {
		drawLine(drawer, 0, 60, fmt.Sprintf("Err: %d", st.sendErrs))
	}
	return img
}

func renderSplash() *image1bit.VerticalLSB {
	img, drawer := newCanvas()
	drawLine(drawer, 10, 26, "Finger Tracker")
	drawLine(drawer, 40, 43, "OSC")
	return img
}
