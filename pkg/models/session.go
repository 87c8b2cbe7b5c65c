package models

import "time"

// SessionStatus represents the current state of a browser session
type SessionStatus string

const (
	StatusRunning SessionStatus = "running"
	StatusClosed  SessionStatus = "closed"
	StatusTimeout SessionStatus = "timeout"
)

// Viewport is the logical page size of a session's window
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Session represents a live browser session. It only exists in memory;
// once closed, the persisted SessionRecord stream is the remaining truth.
type Session struct {
	ID           string        `json:"id"`
	Profile      string        `json:"profile,omitempty"`
	ClientID     string        `json:"clientId"`
	Viewport     *Viewport     `json:"viewport,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	Status       SessionStatus `json:"status"`
	WindowID     *int          `json:"windowId"`
	Visible      bool          `json:"visible"`
	CreatedAt    time.Time     `json:"createdAt"`
	LastActiveAt time.Time     `json:"lastActiveAt"`
	ClosedAt     *time.Time    `json:"closedAt,omitempty"`
}

// CreateSessionRequest is the payload for creating a new session
type CreateSessionRequest struct {
	Profile   string    `json:"profile,omitempty"`
	ClientID  string    `json:"clientId,omitempty"`
	Viewport  *Viewport `json:"viewport,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
}

// SessionFilter narrows Registry.List results; zero values match everything
type SessionFilter struct {
	Profile  string
	ClientID string
	Status   SessionStatus
}
