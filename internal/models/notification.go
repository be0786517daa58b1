package models

import "time"

// Notification severities.
const (
	SeverityInfo    = "info"
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// Notification is one fire-and-forget user-facing message. Rendering
// (toast, banner) is the UI's concern; the core only delivers it.
type Notification struct {
	Severity  string    `json:"severity"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusUpdate is pushed whenever a profile's derived fields change from a
// live-state push, without a full snapshot reload.
type StatusUpdate struct {
	Profile string `json:"profile"`
	Enabled bool   `json:"enabled"`
	Status  string `json:"status"`
}
