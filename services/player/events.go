package player

import (
	"encoding/json"
	"errors"
	"fmt"
)

// EventType tags a player message forwarded from the embed iframe's
// postMessage channel.
type EventType string

const (
	EventPlay       EventType = "play"
	EventPause      EventType = "pause"
	EventEnded      EventType = "ended"
	EventTimeUpdate EventType = "timeupdate"
	EventSeeked     EventType = "seeked"
)

// Event is the tagged union {type, data} the embed provider posts. Data is
// kept raw; its shape depends on the type.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TimeUpdate carries playback position for timeupdate and seeked events.
type TimeUpdate struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

var ErrUnknownEvent = errors.New("unknown player event type")

// ParseEvent decodes a raw postMessage payload into a typed Event.
func ParseEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("decode player event: %w", err)
	}
	switch ev.Type {
	case EventPlay, EventPause, EventEnded, EventTimeUpdate, EventSeeked:
		return ev, nil
	default:
		return Event{}, fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
}

// Handler dispatches parsed events to optional callbacks. Nil callbacks are
// skipped.
type Handler struct {
	OnPlay       func()
	OnPause      func()
	OnEnded      func()
	OnTimeUpdate func(TimeUpdate)
	OnSeeked     func(TimeUpdate)
}

// Dispatch routes one event to its callback, decoding the payload where the
// type carries one.
func (h Handler) Dispatch(ev Event) error {
	switch ev.Type {
	case EventPlay:
		if h.OnPlay != nil {
			h.OnPlay()
		}
	case EventPause:
		if h.OnPause != nil {
			h.OnPause()
		}
	case EventEnded:
		if h.OnEnded != nil {
			h.OnEnded()
		}
	case EventTimeUpdate, EventSeeked:
		var tu TimeUpdate
		if len(ev.Data) > 0 {
			if err := json.Unmarshal(ev.Data, &tu); err != nil {
				return fmt.Errorf("decode %s payload: %w", ev.Type, err)
			}
		}
		if ev.Type == EventTimeUpdate && h.OnTimeUpdate != nil {
			h.OnTimeUpdate(tu)
		}
		if ev.Type == EventSeeked && h.OnSeeked != nil {
			h.OnSeeked(tu)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, ev.Type)
	}
	return nil
}
