package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
)

// NATSPublisher broadcasts carrier relocation, dwell/event, and
// handoff notifications over NATS subjects scoped by transport entry
// and current map.
type NATSPublisher struct {
	nc          *nats.Conn
	logSubjects bool
	metrics     PublisherMetrics
}

// PublisherMetrics is the minimal metrics surface the publisher needs,
// kept small so tests can supply a stub without pulling in Prometheus.
type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	NATSSetConnected(connected bool)
}

// NewNATSPublisher connects to url and wires connection-state changes
// into m.
func NewNATSPublisher(url string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("transportd"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, logSubjects: logSubjects, metrics: m}, nil
}

// Close drains and closes the underlying connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// RelocationMessage is the periodic position/orientation broadcast for
// one carrier, published on the cadence C4/C5 recompute its pose.
type RelocationMessage struct {
	Entry       uint32    `json:"entry"`
	MapID       uint32    `json:"mapId"`
	Timestamp   time.Time `json:"timestamp"`
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Z           float64   `json:"z"`
	Orientation float64   `json:"orientation"`
	State       string    `json:"state"`
}

// EventMessage is one scripted arrival/departure event firing.
type EventMessage struct {
	Entry     uint32    `json:"entry"`
	EventID   uint32    `json:"eventId"`
	Arrival   bool      `json:"arrival"`
	Timestamp time.Time `json:"timestamp"`
}

// HandoffMessage announces a completed cross-map handoff.
type HandoffMessage struct {
	Entry             uint32    `json:"entry"`
	FromMapID         uint32    `json:"fromMapId"`
	ToMapID           uint32    `json:"toMapId"`
	DroppedNonPlayers int       `json:"droppedNonPlayers"`
	Timestamp         time.Time `json:"timestamp"`
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// PublishRelocation broadcasts a carrier's current pose.
func (p *NATSPublisher) PublishRelocation(msg RelocationMessage) error {
	return p.publish(relocationSubject(msg.Entry, msg.MapID), msg)
}

// PublishEvent broadcasts an arrival or departure event firing.
func (p *NATSPublisher) PublishEvent(mapID uint32, msg EventMessage) error {
	return p.publish(relocationSubject(msg.Entry, mapID)+".event", msg)
}

// PublishHandoff broadcasts a completed cross-map handoff.
func (p *NATSPublisher) PublishHandoff(msg HandoffMessage) error {
	return p.publish(relocationSubject(msg.Entry, msg.ToMapID)+".handoff", msg)
}

// relocationSubject builds "transport.<entry>.<mapId>", matching the
// subject scheme SPEC_FULL.md assigns to the ambient messaging stack.
func relocationSubject(entry, mapID uint32) string {
	return fmt.Sprintf("transport.%s.%s", subjectToken(strconv.FormatUint(uint64(entry), 10)), subjectToken(strconv.FormatUint(uint64(mapID), 10)))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
