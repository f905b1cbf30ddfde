package types

import "time"

// Event is one entry of the world event log.
type Event struct {
	Text      string    `json:"text"`
	WorldTime float64   `json:"worldTime"`
	Timestamp time.Time `json:"timestamp"`
}

// EventLog keeps the most recent events, newest first.
type EventLog struct {
	events []Event
	max    int
}

func NewEventLog(max int) *EventLog {
	return &EventLog{
		events: make([]Event, 0, max),
		max:    max,
	}
}

// Add records an event at the front of the log and drops the oldest past the cap.
func (l *EventLog) Add(text string, worldTime float64) Event {
	e := Event{Text: text, WorldTime: worldTime, Timestamp: time.Now()}
	l.events = append(l.events, Event{})
	copy(l.events[1:], l.events)
	l.events[0] = e
	if len(l.events) > l.max {
		l.events = l.events[:l.max]
	}
	return e
}

// Events returns a copy of the log, newest first.
func (l *EventLog) Events() []Event {
	events := make([]Event, len(l.events))
	copy(events, l.events)
	return events
}

func (l *EventLog) Len() int {
	return len(l.events)
}
