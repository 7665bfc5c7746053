package cdc

import (
	"log/slog"

	"github.com/loykin/dockhand/internal/model"
)

// Package cdc carries schedule mutations from the schedule service to the
// scheduler loop over a bounded channel. Single producer, single consumer.
// On overflow the oldest event is dropped: the consumer's reload step
// always re-reads the whole schedule table, so a dropped event still
// results in a coherent working set as long as any event gets through.

// Op is the kind of schedule mutation.
type Op string

const (
	OpNew    Op = "new"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event announces one mutation of the schedule table. Schedule is nil for
// deletes.
type Event struct {
	Op         Op
	ScheduleID int64
	Schedule   *model.Schedule
}

// DefaultCapacity is the bound of the event channel.
const DefaultCapacity = 8

// Bus is the bounded schedule-mutation channel.
type Bus struct {
	ch      chan Event
	dropped func() // invoked when an event is evicted, nil ok
}

// NewBus creates a bus with the given capacity (DefaultCapacity if <= 0).
// onDrop, if non-nil, is called once per evicted event.
func NewBus(capacity int, onDrop func()) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bus{ch: make(chan Event, capacity), dropped: onDrop}
}

// Publish enqueues ev without blocking. When the channel is full the
// oldest buffered event is evicted to make room.
func (b *Bus) Publish(ev Event) {
	for {
		select {
		case b.ch <- ev:
			return
		default:
		}
		select {
		case old := <-b.ch:
			slog.Warn("cdc buffer full, dropping oldest event", "op", old.Op, "schedule_id", old.ScheduleID)
			if b.dropped != nil {
				b.dropped()
			}
		default:
			// consumer drained in between; retry the send
		}
	}
}

// Drain removes and returns all currently buffered events without
// blocking. Returns nil when the buffer is empty.
func (b *Bus) Drain() []Event {
	var out []Event
	for {
		select {
		case ev := <-b.ch:
			out = append(out, ev)
		default:
			return out
		}
	}
}

// Len reports the number of buffered events.
func (b *Bus) Len() int { return len(b.ch) }
