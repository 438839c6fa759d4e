package broker

import (
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subject prefixes for the two addressing modes. Room traffic fans out to
// every subscriber of the room subject; user traffic lands on a private
// per-user subject that a gateway bridges to that user's connections.
const (
	subjectRoomPrefix = "chat.room."
	subjectUserPrefix = "chat.user."
)

// SubjectRoom returns the broadcast subject for a room.
func SubjectRoom(roomID string) string { return subjectRoomPrefix + roomID }

// SubjectUser returns the private subject for a user.
func SubjectUser(userID string) string { return subjectUserPrefix + userID }

// NATSDispatcher publishes events to NATS subjects instead of in-process
// channels, for deployments where delivery gateways run as separate
// processes. Publishing is fire-and-forget; NATS core (not JetStream) gives
// exactly the at-most-once semantics the core asks of a Dispatcher.
type NATSDispatcher struct {
	nc  *nats.Conn
	log zerolog.Logger
}

// NewNATSDispatcher connects to the given NATS URL.
func NewNATSDispatcher(url string, log zerolog.Logger) (*NATSDispatcher, error) {
	nc, err := nats.Connect(url, nats.Name("chat-core"))
	if err != nil {
		return nil, err
	}
	return &NATSDispatcher{nc: nc, log: log}, nil
}

// Broadcast implements Dispatcher.
func (d *NATSDispatcher) Broadcast(roomID string, event any) {
	d.publish(SubjectRoom(roomID), event)
}

// SendToUser implements Dispatcher.
func (d *NATSDispatcher) SendToUser(userID string, event any) {
	d.publish(SubjectUser(userID), event)
}

func (d *NATSDispatcher) publish(subject string, event any) {
	payload, err := json.Marshal(event)
	if err != nil {
		d.log.Error().Err(err).Str("subject", subject).Msg("marshal event")
		return
	}
	if err := d.nc.Publish(subject, payload); err != nil {
		// Best effort: a failed publish is a missed notification, not a
		// failed operation.
		d.log.Warn().Err(err).Str("subject", subject).Msg("publish failed")
	}
}

// Close drains the underlying connection.
func (d *NATSDispatcher) Close() {
	if err := d.nc.Drain(); err != nil {
		d.log.Warn().Err(err).Msg("drain nats connection")
	}
}
