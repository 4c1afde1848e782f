package domain

import "time"

// PresenterTopic is the broker topic presenter events are published on. The
// routing key is the session id.
const PresenterTopic = "presenter.events"

// PresenterState is the interaction state of a single view.
type PresenterState string

const (
	StateIdle            PresenterState = "idle"
	StateValidating      PresenterState = "validating"
	StateErrorShown      PresenterState = "error_shown"
	StateHashing         PresenterState = "hashing"
	StateResultRevealing PresenterState = "result_revealing"
)

type EventType string

const (
	EventHashStarted     EventType = "hash_started"
	EventErrorShown      EventType = "error_shown"
	EventErrorCleared    EventType = "error_cleared"
	EventRevealStarted   EventType = "reveal_started"
	EventRevealProgress  EventType = "reveal_progress"
	EventRevealCompleted EventType = "reveal_completed"
)

// DisplayState is what the view currently shows.
type DisplayState struct {
	State        PresenterState `json:"state"`
	Digest       Digest         `json:"digest,omitempty"`
	Displayed    string         `json:"displayed"`
	Typing       bool           `json:"typing"`
	ErrorVisible bool           `json:"error_visible"`
	InFlight     int            `json:"in_flight"`
}

// PresenterEvent is pushed to the page every time the display changes.
// Displayed always carries the whole revealed prefix, so a dropped event
// never corrupts the panel.
type PresenterEvent struct {
	Type      EventType      `json:"type"`
	SessionID string         `json:"session_id"`
	State     PresenterState `json:"state"`
	Displayed string         `json:"displayed"`
	Typing    bool           `json:"typing"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// InboundMessage is what the page sends over the socket.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

const InboundSubmit = "submit"
