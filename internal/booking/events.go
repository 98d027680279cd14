package booking

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType distinguishes the domain events the core emits.
type EventType string

const (
	// EventStatusChanged fires on every booking status transition.
	EventStatusChanged EventType = "booking.status_changed"
	// EventCheckInReminder fires once per booking and civil date the day
	// before an approved check-in.
	EventCheckInReminder EventType = "booking.checkin_reminder"
)

// Event is a domain event about a single booking.
type Event struct {
	Type      EventType
	BookingID string
	RoomID    string
	From      Status // zero for reminders
	To        Status // zero for reminders
	Note      string
	At        time.Time
}

// Emitter receives domain events. Delivery transport is outside the core;
// the default emitter just logs.
type Emitter interface {
	Emit(ctx context.Context, ev Event)
}

type logEmitter struct {
	log *logrus.Logger
}

// NewLogEmitter returns an Emitter that writes events to the logger.
func NewLogEmitter(log *logrus.Logger) Emitter {
	return &logEmitter{log: log}
}

func (e *logEmitter) Emit(_ context.Context, ev Event) {
	fields := logrus.Fields{
		"event":      string(ev.Type),
		"booking_id": ev.BookingID,
		"room_id":    ev.RoomID,
		"at":         ev.At.Format(time.RFC3339),
	}
	if ev.Type == EventStatusChanged {
		fields["from"] = string(ev.From)
		fields["to"] = string(ev.To)
	}
	if ev.Note != "" {
		fields["note"] = ev.Note
	}
	e.log.WithFields(fields).Info("booking event")
}
