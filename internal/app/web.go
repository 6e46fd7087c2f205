package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/metrics"
	"github.com/relabs-tech/finger_tracker/internal/tracker"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const wsWriteTimeout = 5 * time.Second

// FrameHub keeps the latest frame and fans it out to websocket clients and
// calibration sessions. Slow subscribers miss frames instead of blocking
// the publisher.
type FrameHub struct {
	mu      sync.RWMutex
	last    FrameView
	have    bool
	clients map[chan []byte]struct{}
	raw     map[chan channels.Frame]struct{}
}

func NewFrameHub() *FrameHub {
	return &FrameHub{
		clients: make(map[chan []byte]struct{}),
		raw:     make(map[chan channels.Frame]struct{}),
	}
}

// Observe publishes sent ticks; skipped ticks are ignored.
func (h *FrameHub) Observe(t tracker.Tick) {
	if t.Skipped {
		return
	}
	h.Publish(NewFrameView(t))
}

func (h *FrameHub) Publish(v FrameView) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("frame encode error")
		return
	}

	var raw channels.Frame
	for i := range raw {
		raw[i] = float64(v.Raw[i])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = v
	h.have = true
	for c := range h.clients {
		select {
		case c <- payload:
		default:
		}
	}
	for c := range h.raw {
		select {
		case c <- raw:
		default:
		}
	}
}

// Latest returns the most recent frame.
func (h *FrameHub) Latest() (FrameView, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.last, h.have
}

func (h *FrameHub) subscribe() (chan []byte, func()) {
	c := make(chan []byte, 16)
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c, func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
	}
}

// SubscribeRaw delivers the raw angles of every published frame.
func (h *FrameHub) SubscribeRaw(buffer int) (<-chan channels.Frame, func()) {
	c := make(chan channels.Frame, buffer)
	h.mu.Lock()
	h.raw[c] = struct{}{}
	h.mu.Unlock()
	return c, func() {
		h.mu.Lock()
		delete(h.raw, c)
		h.mu.Unlock()
	}
}

func (h *FrameHub) serveFrame(w http.ResponseWriter, _ *http.Request) {
	v, ok := h.Latest()
	if !ok {
		http.Error(w, "no data yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("json encode error")
	}
}

func (h *FrameHub) serveWS(w http.ResponseWriter, r *http.Request) {
	ch, cancel := h.subscribe()
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	// Reading is only needed to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if v, ok := h.Latest(); ok {
		if payload, err := json.Marshal(v); err == nil {
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}

	for {
		select {
		case <-done:
			return
		case payload := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug().Err(err).Msg("websocket write error")
				return
			}
		}
	}
}

// NewWebMux wires the HTTP API. cal may be nil to disable web calibration.
func NewWebMux(hub *FrameHub, cal *CalibrationHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/frame", hub.serveFrame)
	mux.HandleFunc("/ws/frames", hub.serveWS)
	mux.Handle("/metrics", metrics.Handler())
	if cal != nil {
		mux.Handle("/ws/calibration", cal)
	}

	// Static files from ./web as the root
	if st, err := os.Stat("web"); err == nil && st.IsDir() {
		mux.Handle("/", http.FileServer(http.Dir("web")))
	}
	return mux
}

// ServeWeb runs handler on port until ctx is cancelled.
func ServeWeb(ctx context.Context, port int, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", srv.Addr).Msg("web server listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunWeb serves the dashboard from frames mirrored on TOPIC_FRAME, for a
// tracker running elsewhere.
func RunWeb(ctx context.Context) error {
	cfg := config.Get()
	if cfg.TopicFrame == "" {
		return errors.New("TOPIC_FRAME is required for the web dashboard")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, "web")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	hub := NewFrameHub()
	err = subscribe(client, cfg.TopicFrame, func(_ mqtt.Client, msg mqtt.Message) {
		var v FrameView
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Warn().Err(err).Msg("MQTT payload unmarshal error")
			return
		}
		hub.Publish(v)
	})
	if err != nil {
		return err
	}

	return ServeWeb(ctx, cfg.WebServerPort, NewWebMux(hub, nil))
}
