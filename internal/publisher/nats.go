package publisher

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"journey-tracker/internal/geo"
	"journey-tracker/internal/playback"
)

type NATSPublisher struct {
	nc          *nats.Conn
	subjectBase string
	journeyID   string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, subjectBase, journeyID string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("journey-tracker"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			slog.Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			slog.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			slog.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{
		nc:          nc,
		subjectBase: subjectToken(subjectBase),
		journeyID:   subjectToken(journeyID),
		logSubjects: logSubjects,
		metrics:     m,
	}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// PublishSnapshot emits one tick's HUD snapshot on <base>.<journey>.hud.
func (p *NATSPublisher) PublishSnapshot(snap playback.Snapshot) error {
	return p.publish(fmt.Sprintf("%s.%s.hud", p.subjectBase, p.journeyID), snap)
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		slog.Debug("nats publish", "subject", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// cameraCommand is the wire form of one map-control command.
type cameraCommand struct {
	Command            string  `json:"command"`
	Lat                float64 `json:"lat,omitempty"`
	Lon                float64 `json:"lon,omitempty"`
	Zoom               float64 `json:"zoom,omitempty"`
	Bearing            float64 `json:"bearing,omitempty"`
	Pitch              float64 `json:"pitch,omitempty"`
	EaseMs             int64   `json:"easeMs,omitempty"`
	InteractionEnabled *bool   `json:"interactionEnabled,omitempty"`
	MinZoom            float64 `json:"minZoom,omitempty"`
	MaxZoom            float64 `json:"maxZoom,omitempty"`
}

// MapPublisher adapts the camera controller's command surface onto NATS,
// emitting each command on <base>.<journey>.camera for the rendering
// collaborator to consume.
type MapPublisher struct {
	p *NATSPublisher
}

func NewMapPublisher(p *NATSPublisher) *MapPublisher { return &MapPublisher{p: p} }

func (m *MapPublisher) subject() string {
	return fmt.Sprintf("%s.%s.camera", m.p.subjectBase, m.p.journeyID)
}

func (m *MapPublisher) Recenter(target geo.Point, zoom, bearing, pitch float64, ease time.Duration) {
	if err := m.p.publish(m.subject(), cameraCommand{
		Command: "recenter",
		Lat:     target.Lat,
		Lon:     target.Lon,
		Zoom:    zoom,
		Bearing: bearing,
		Pitch:   pitch,
		EaseMs:  ease.Milliseconds(),
	}); err != nil {
		slog.Warn("publish camera recenter failed", "err", err)
	}
}

func (m *MapPublisher) SetInteractionEnabled(enabled bool) {
	if err := m.p.publish(m.subject(), cameraCommand{
		Command:            "setInteractionEnabled",
		InteractionEnabled: &enabled,
	}); err != nil {
		slog.Warn("publish camera interaction failed", "err", err)
	}
}

func (m *MapPublisher) SetZoomBounds(min, max float64) {
	if err := m.p.publish(m.subject(), cameraCommand{
		Command: "setZoomBounds",
		MinZoom: min,
		MaxZoom: max,
	}); err != nil {
		slog.Warn("publish camera zoom bounds failed", "err", err)
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

// SubscribeCommands listens for user-facing commands (follow toggle,
// music toggle, streamer mode) on <base>.<journey>.commands and forwards
// the command name to the handler. Malformed payloads are dropped.
func (p *NATSPublisher) SubscribeCommands(handler func(command string)) (*nats.Subscription, error) {
	subject := fmt.Sprintf("%s.%s.commands", p.subjectBase, p.journeyID)
	return p.nc.Subscribe(subject, func(m *nats.Msg) {
		var c struct {
			Command string `json:"command"`
		}
		if err := json.Unmarshal(m.Data, &c); err != nil || c.Command == "" {
			slog.Debug("ignoring malformed command", "subject", subject)
			return
		}
		handler(c.Command)
	})
}
