package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fschubi/shutterpilot/internal/models"
)

// EditService manages the single active edit session. There is never more
// than one open dialog: opening a new session replaces the previous one and
// its draft is discarded.
type EditService struct {
	sync    *SyncService
	deriver *StatusDeriver

	mu      sync.Mutex
	session *models.EditSession
}

// NewEditService creates a new edit session manager
func NewEditService(syncService *SyncService, deriver *StatusDeriver) *EditService {
	return &EditService{
		sync:    syncService,
		deriver: deriver,
	}
}

// Session returns a copy of the active session, or nil
func (s *EditService) Session() *models.EditSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneSession(s.session)
}

// Open starts an edit session for an existing profile/area or, with the
// "new" key, for a fresh one initialized from the documented defaults.
func (s *EditService) Open(req *models.OpenSessionRequest) (*models.EditSession, error) {
	if req.TargetKind != models.TargetProfile && req.TargetKind != models.TargetArea {
		return nil, fmt.Errorf("unknown edit target kind: %s", req.TargetKind)
	}

	snap := s.sync.Snapshot()
	var draft models.FormValues
	switch {
	case req.TargetKind == models.TargetProfile && req.TargetKey == models.TargetNew:
		draft = s.newProfileDraft(snap)
	case req.TargetKind == models.TargetProfile:
		p := snap.ProfileByName(req.TargetKey)
		if p == nil {
			return nil, fmt.Errorf("profile %s not found", req.TargetKey)
		}
		draft = profileToForm(*p)
	case req.TargetKey == models.TargetNew:
		draft = models.FormValues{"area_name": "", "area_mode": models.ModeSun}
	default:
		a, ok := snap.Areas[req.TargetKey]
		if !ok {
			return nil, fmt.Errorf("area %s not found", req.TargetKey)
		}
		draft = areaToForm(a)
	}

	session := &models.EditSession{
		ID:            uuid.NewString(),
		TargetKind:    req.TargetKind,
		TargetKey:     req.TargetKey,
		ActiveFormTab: DefaultTab(req.TargetKind),
		Draft:         draft,
		OpenedAt:      time.Now(),
	}

	s.mu.Lock()
	if s.session != nil {
		logrus.Warnf("Replacing open edit session %s, its draft is discarded", s.session.ID)
	}
	s.session = session
	s.mu.Unlock()

	return cloneSession(session), nil
}

// SetActiveTab merges the submitted values of the tab being left into the
// draft, then switches tabs. Boolean fields missing from the submitted
// values are written as explicit false, never skipped.
func (s *EditService) SetActiveTab(req *models.SetTabRequest) (*models.EditSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil, models.ErrNoActiveSession
	}
	if _, ok := SchemaFor(s.session.TargetKind, req.Tab); !ok {
		return nil, fmt.Errorf("unknown tab %s for %s edit", req.Tab, s.session.TargetKind)
	}

	s.mergeTabLocked(req.Fields)
	s.session.ActiveFormTab = req.Tab
	return cloneSession(s.session), nil
}

// Commit performs the final tab merge, validates the draft, merges it into
// a copy of the canonical configuration and delegates to Save. The session
// closes only after Save resolves; on any failure it stays open with the
// draft intact.
func (s *EditService) Commit(ctx context.Context, req *models.CommitSessionRequest) (*models.ConfigSnapshot, error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return nil, models.ErrNoActiveSession
	}
	s.mergeTabLocked(req.Fields)
	session := cloneSession(s.session)
	s.mu.Unlock()

	if err := validateDraft(session); err != nil {
		return nil, err
	}

	snap := s.sync.Snapshot()
	profiles := snap.Profiles
	areas := snap.Areas

	switch session.TargetKind {
	case models.TargetProfile:
		updated, err := s.draftProfile(session, snap)
		if err != nil {
			return nil, err
		}
		if session.IsNew() {
			profiles = append(profiles, updated)
		} else {
			replaced := false
			for i := range profiles {
				if profiles[i].Name == session.TargetKey {
					profiles[i] = updated
					replaced = true
					break
				}
			}
			if !replaced {
				return nil, fmt.Errorf("profile %s no longer exists", session.TargetKey)
			}
		}
	case models.TargetArea:
		updated, err := draftArea(session, snap)
		if err != nil {
			return nil, err
		}
		key := session.TargetKey
		if session.IsNew() {
			key = s.deriver.SanitizeName(updated.Name)
		}
		areas[key] = updated
	}

	result, err := s.sync.Save(ctx, profiles, areas)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// A replacement session opened while the save was pending is left alone.
	if s.session != nil && s.session.ID == session.ID {
		s.session = nil
	}
	s.mu.Unlock()
	return result, nil
}

// Cancel discards the draft unconditionally. No backend interaction.
func (s *EditService) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
}

// mergeTabLocked folds one tab's submitted values into the draft
func (s *EditService) mergeTabLocked(fields models.FormValues) {
	schema, ok := SchemaFor(s.session.TargetKind, s.session.ActiveFormTab)
	if !ok {
		return
	}
	for _, name := range schema.Fields {
		if v, present := fields[name]; present {
			s.session.Draft[name] = v
		}
	}
	for _, name := range schema.Booleans {
		if _, present := fields[name]; !present {
			s.session.Draft[name] = false
		}
	}
}

// newProfileDraft builds the default draft for a new profile
func (s *EditService) newProfileDraft(snap *models.ConfigSnapshot) models.FormValues {
	p := models.Profile{
		Area:               models.AreaNone,
		DayPosition:        40,
		NightPosition:      0,
		VentPosition:       snap.GlobalSettings.DefaultVentPosition,
		DoorSafePosition:   30,
		LuxThreshold:       20000,
		TempThreshold:      26,
		LuxHysteresis:      20,
		TempHysteresis:     10,
		AzimuthMin:         -360,
		AzimuthMax:         360,
		CooldownSec:        snap.GlobalSettings.DefaultCooldown,
		HeatProtectionTemp: 30,
		LightBrightness:    80,
		LightOnShade:       true,
		LightOnNight:       true,
	}
	return profileToForm(p)
}

// draftProfile applies the draft over the profile being edited (or over the
// new-profile defaults) and strips the runtime-only fields.
func (s *EditService) draftProfile(session *models.EditSession, snap *models.ConfigSnapshot) (models.Profile, error) {
	var base models.Profile
	if !session.IsNew() {
		if p := snap.ProfileByName(session.TargetKey); p != nil {
			base = *p
		}
	}
	if err := applyDraft(&base, session.Draft); err != nil {
		return models.Profile{}, err
	}
	base.Enabled = false
	base.Status = ""
	return base, nil
}

func draftArea(session *models.EditSession, snap *models.ConfigSnapshot) (models.Area, error) {
	var base models.Area
	if !session.IsNew() {
		if a, ok := snap.Areas[session.TargetKey]; ok {
			base = a
		}
	}
	if err := applyDraft(&base, session.Draft); err != nil {
		return models.Area{}, err
	}
	return base, nil
}

// validateDraft checks the required fields and returns a ValidationError
// naming every missing one.
func validateDraft(session *models.EditSession) error {
	var missing []string
	switch session.TargetKind {
	case models.TargetProfile:
		if isEmptyString(session.Draft["name"]) {
			missing = append(missing, "name")
		}
		if isEmptyString(session.Draft["cover_entity_id"]) {
			missing = append(missing, "cover_entity_id")
		}
	case models.TargetArea:
		if isEmptyString(session.Draft["area_name"]) {
			missing = append(missing, "area_name")
		}
	}
	if len(missing) > 0 {
		return &models.ValidationError{Fields: missing}
	}
	return nil
}

func isEmptyString(v interface{}) bool {
	s, ok := v.(string)
	return !ok || s == ""
}

// profileToForm flattens a profile into form values, minus derived fields
func profileToForm(p models.Profile) models.FormValues {
	form := toForm(p)
	for _, f := range models.DerivedProfileFields {
		delete(form, f)
	}
	return form
}

func areaToForm(a models.Area) models.FormValues {
	return toForm(a)
}

func toForm(v interface{}) models.FormValues {
	raw, err := json.Marshal(v)
	if err != nil {
		return models.FormValues{}
	}
	var form models.FormValues
	if err := json.Unmarshal(raw, &form); err != nil {
		return models.FormValues{}
	}
	return form
}

// applyDraft overlays draft values onto a typed configuration struct
func applyDraft(target interface{}, draft models.FormValues) error {
	raw, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return &models.SaveFailedError{Cause: fmt.Errorf("draft does not match the configuration schema: %w", err)}
	}
	return nil
}

func cloneSession(s *models.EditSession) *models.EditSession {
	if s == nil {
		return nil
	}
	out := *s
	out.Draft = make(models.FormValues, len(s.Draft))
	for k, v := range s.Draft {
		out.Draft[k] = v
	}
	return &out
}
