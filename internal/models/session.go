package models

import "time"

// Target kinds for an edit session.
const (
	TargetProfile = "profile"
	TargetArea    = "area"
)

// TargetNew is the sentinel key meaning "create a new profile/area".
const TargetNew = "new"

// Edit dialog tabs. Profiles use the four form tabs; areas use a single one.
const (
	TabBasic    = "basic"
	TabSensors  = "sensors"
	TabSun      = "sun"
	TabAdvanced = "advanced"
	TabArea     = "area"
)

// FormValues carries the visible field values of one form tab as submitted
// by the UI.
type FormValues map[string]interface{}

// EditSession is the scratch state of one open edit dialog. The draft is a
// partial attribute mapping keyed by the configuration field names; it is
// isolated from the canonical snapshot until committed.
type EditSession struct {
	ID            string     `json:"id"`
	TargetKind    string     `json:"target_kind"`
	TargetKey     string     `json:"target_key"`
	ActiveFormTab string     `json:"active_form_tab"`
	Draft         FormValues `json:"draft"`
	OpenedAt      time.Time  `json:"opened_at"`
}

// IsNew reports whether the session creates a new target rather than
// editing an existing one.
func (s *EditSession) IsNew() bool {
	return s.TargetKey == TargetNew
}

// OpenSessionRequest opens an edit dialog.
type OpenSessionRequest struct {
	TargetKind string `json:"target_kind" binding:"required"`
	TargetKey  string `json:"target_key" binding:"required"`
}

// SetTabRequest switches the active form tab, merging the submitted values
// of the tab being left into the draft first.
type SetTabRequest struct {
	Tab    string     `json:"tab" binding:"required"`
	Fields FormValues `json:"fields"`
}

// CommitSessionRequest carries the final form values of the active tab.
type CommitSessionRequest struct {
	Fields FormValues `json:"fields"`
}
