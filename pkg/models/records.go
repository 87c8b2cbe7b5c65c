package models

import "time"

// ActionStatus is the terminal status of one action attempt
type ActionStatus string

const (
	ActionOK      ActionStatus = "ok"
	ActionFailed  ActionStatus = "failed"
	ActionTimeout ActionStatus = "timeout"
)

// ActionRecord is the persisted, append-only trace of one completed action
// attempt. Exactly one record is written per attempt; a crash mid-action
// writes none.
type ActionRecord struct {
	ID           string                 `json:"id"`
	SessionID    string                 `json:"sessionId"`
	Type         string                 `json:"type"`
	Params       map[string]interface{} `json:"params,omitempty"`
	StartAt      time.Time              `json:"startAt"`
	EndAt        time.Time              `json:"endAt"`
	DurationMs   int64                  `json:"durationMs"`
	Status       ActionStatus           `json:"status"`
	ErrorCode    string                 `json:"errorCode,omitempty"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
	SnapshotID   string                 `json:"snapshotId,omitempty"`
	HTTPStatus   *int                   `json:"httpStatus,omitempty"`
	Network      map[string]interface{} `json:"network,omitempty"`
}

// SessionRecord is one persisted session lifecycle event. A historical
// session's truth is derived by folding every record with the same id,
// never read from a single record.
type SessionRecord struct {
	SessionID        string        `json:"sessionId"`
	Profile          string        `json:"profile,omitempty"`
	ClientID         string        `json:"clientId,omitempty"`
	Status           SessionStatus `json:"status"`
	CreatedAt        *time.Time    `json:"createdAt,omitempty"`
	FinishedAt       *time.Time    `json:"finishedAt,omitempty"`
	LastErrorCode    string        `json:"lastErrorCode,omitempty"`
	LastErrorMessage string        `json:"lastErrorMessage,omitempty"`
}

// SnapshotRecord describes one persisted screenshot
type SnapshotRecord struct {
	SnapshotID  string    `json:"snapshotId"`
	SessionID   string    `json:"sessionId"`
	ActionID    string    `json:"actionId,omitempty"`
	Path        string    `json:"path"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// FileRecord generalizes any persisted artifact under the data root
// (currently only screenshots)
type FileRecord struct {
	FileID    string    `json:"fileId"`
	SessionID string    `json:"sessionId"`
	Path      string    `json:"path"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	MimeType  string    `json:"mimeType"`
	CreatedAt time.Time `json:"createdAt"`
}
