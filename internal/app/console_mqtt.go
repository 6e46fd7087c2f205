package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/relabs-tech/finger_tracker/internal/channels"
	"github.com/relabs-tech/finger_tracker/internal/config"
	"github.com/relabs-tech/finger_tracker/internal/hand"
)

// RunConsoleMQTT prints mirrored frames and raw hand snapshots until ctx is
// cancelled.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, "console")
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	out := os.Stdout

	if cfg.TopicFrame != "" {
		err := subscribe(client, cfg.TopicFrame, func(_ mqtt.Client, msg mqtt.Message) {
			var v FrameView
			if err := json.Unmarshal(msg.Payload(), &v); err != nil {
				log.Warn().Err(err).Msg("console: frame unmarshal error")
				return
			}
			fmt.Fprintln(out, formatFrameView(v))
		})
		if err != nil {
			return err
		}
	}

	for _, side := range []hand.Side{hand.Left, hand.Right} {
		topic := cfg.TopicHandLeft
		if side == hand.Right {
			topic = cfg.TopicHandRight
		}
		if err := subscribe(client, topic, snapshotPrinter(out, side)); err != nil {
			return err
		}
	}

	<-ctx.Done()
	log.Info().Msg("console: shutting down")
	return nil
}

func snapshotPrinter(out io.Writer, side hand.Side) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		s, err := hand.DecodeSnapshot(msg.Payload())
		if err != nil {
			log.Warn().Err(err).Str("hand", side.String()).Msg("console: snapshot decode error")
			return
		}
		fmt.Fprintln(out, formatSnapshot(side, &s))
	}
}

// formatFrameView renders one mirrored frame: its header and the normalized
// values of the channels it carried.
func formatFrameView(v FrameView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[FRAME] #%d mode=%s", v.Seq, v.Mode)
	if v.Flag > 0 {
		fmt.Fprintf(&b, " flag=%d", v.Flag)
	}
	fmt.Fprintf(&b, " bytes=%d", v.Bytes)
	for _, c := range v.Channels {
		fmt.Fprintf(&b, " %d=%s", c, formatValue(float64(v.Normalized[c])))
	}
	return b.String()
}

// formatSnapshot renders the stretch then spread angles of one hand in
// degrees.
func formatSnapshot(side hand.Side, s *hand.Snapshot) string {
	var b strings.Builder
	tag := "[HAND-L]"
	if side == hand.Right {
		tag = "[HAND-R]"
	}
	b.WriteString(tag)
	if !s.Active {
		b.WriteString(" inactive")
		return b.String()
	}
	for _, c := range channels.HandChannels(side) {
		fmt.Fprintf(&b, " %s", formatValue(channels.Table[c].Angle(s)))
	}
	return b.String()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "  NaN"
	}
	return fmt.Sprintf("%6.2f", v)
}
