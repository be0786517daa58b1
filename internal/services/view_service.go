package services

import (
	"fmt"
	"sync"

	"github.com/fschubi/shutterpilot/internal/models"
)

// Main view tabs.
const (
	ViewTabProfiles = "profiles"
	ViewTabAreas    = "areas"
	ViewTabSettings = "settings"
)

// ViewState is what a UI needs to render: the active main tab, the current
// selection and the open edit session, if any.
type ViewState struct {
	ActiveTab    string              `json:"active_tab"`
	SelectedKind string              `json:"selected_kind,omitempty"`
	SelectedKey  string              `json:"selected_key,omitempty"`
	Session      *models.EditSession `json:"session,omitempty"`
}

// ViewService is the glue between the UI and the edit session: it tracks
// which main tab is shown and which profile/area is selected. It holds no
// configuration data of its own.
type ViewService struct {
	edit *EditService

	mu           sync.Mutex
	activeTab    string
	selectedKind string
	selectedKey  string
}

// NewViewService creates a new view state tracker
func NewViewService(edit *EditService) *ViewService {
	return &ViewService{
		edit:      edit,
		activeTab: ViewTabProfiles,
	}
}

// State returns the current view state
func (s *ViewService) State() ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ViewState{
		ActiveTab:    s.activeTab,
		SelectedKind: s.selectedKind,
		SelectedKey:  s.selectedKey,
		Session:      s.edit.Session(),
	}
}

// SetActiveTab switches the main view tab. Switching clears the selection.
func (s *ViewService) SetActiveTab(tab string) (ViewState, error) {
	switch tab {
	case ViewTabProfiles, ViewTabAreas, ViewTabSettings:
	default:
		return ViewState{}, fmt.Errorf("unknown view tab: %s", tab)
	}

	s.mu.Lock()
	if s.activeTab != tab {
		s.selectedKind = ""
		s.selectedKey = ""
	}
	s.activeTab = tab
	s.mu.Unlock()
	return s.State(), nil
}

// Select marks one profile or area as selected
func (s *ViewService) Select(kind, key string) (ViewState, error) {
	if kind != models.TargetProfile && kind != models.TargetArea {
		return ViewState{}, fmt.Errorf("unknown selection kind: %s", kind)
	}

	s.mu.Lock()
	s.selectedKind = kind
	s.selectedKey = key
	s.mu.Unlock()
	return s.State(), nil
}

// ClearSelection drops the current selection
func (s *ViewService) ClearSelection() ViewState {
	s.mu.Lock()
	s.selectedKind = ""
	s.selectedKey = ""
	s.mu.Unlock()
	return s.State()
}
