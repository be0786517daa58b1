package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fschubi/shutterpilot/internal/database/repository"
	"github.com/fschubi/shutterpilot/internal/hass"
	"github.com/fschubi/shutterpilot/internal/models"
)

// ConfigEntity is the backend sensor whose attributes carry the full
// configuration document.
const ConfigEntity = "sensor.shutterpilot_configuration"

// Sync engine states.
const (
	SyncIdle             = "idle"
	SyncLoading          = "loading"
	SyncSaving           = "saving"
	SyncReconcilePending = "reconcile_pending"
)

// Backend is the subset of the Home Assistant client the sync engine needs.
type Backend interface {
	GetState(ctx context.Context, entityID string) (*hass.EntityState, error)
	GetStates(ctx context.Context) ([]hass.EntityState, error)
	CallService(ctx context.Context, domain, service string, data map[string]interface{}) error
}

// SyncService owns the canonical ConfigSnapshot. The snapshot is replaced
// wholesale on each successful load or optimistic save, never patched
// field-by-field from outside.
type SyncService struct {
	backend     Backend
	deriver     *StatusDeriver
	scheduler   Scheduler
	hub         *EventHub
	versionRepo repository.SnapshotVersionRepository
	settleDelay time.Duration
	entryID     string

	mu              sync.Mutex
	state           string
	snapshot        *models.ConfigSnapshot
	cancelReconcile func()
}

// NewSyncService creates a new configuration sync engine. versionRepo may be
// nil when snapshot archiving is disabled. entryID seeds the config entry id
// used for saves until the first successful load reports the real one.
func NewSyncService(backend Backend, deriver *StatusDeriver, scheduler Scheduler, hub *EventHub, versionRepo repository.SnapshotVersionRepository, entryID string, settleDelay time.Duration) *SyncService {
	if settleDelay <= 0 {
		settleDelay = 2 * time.Second
	}
	return &SyncService{
		backend:     backend,
		deriver:     deriver,
		scheduler:   scheduler,
		hub:         hub,
		versionRepo: versionRepo,
		settleDelay: settleDelay,
		entryID:     entryID,
		state:       SyncIdle,
		snapshot:    &models.ConfigSnapshot{Areas: map[string]models.Area{}},
	}
}

// State returns the current engine state
func (s *SyncService) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns the last good configuration snapshot (a deep copy)
func (s *SyncService) Snapshot() *models.ConfigSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot.Clone()
}

// EntryID returns the backend config entry id seen on the last load
func (s *SyncService) EntryID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entryID
}

// Load fetches the configuration from the backend and replaces the snapshot
// atomically. A load requested while another load or a save is in flight is
// coalesced: the call returns the last good snapshot without touching the
// backend. A load during the reconcile window cancels the pending reconcile
// and serves as it.
func (s *SyncService) Load(ctx context.Context) (*models.ConfigSnapshot, error) {
	s.mu.Lock()
	switch s.state {
	case SyncLoading, SyncSaving:
		snap := s.snapshot.Clone()
		s.mu.Unlock()
		return snap, nil
	case SyncReconcilePending:
		if s.cancelReconcile != nil {
			s.cancelReconcile()
			s.cancelReconcile = nil
		}
	}
	s.state = SyncLoading
	s.mu.Unlock()

	snap, defaulted, err := s.fetchSnapshot(ctx)

	s.mu.Lock()
	s.state = SyncIdle
	if err != nil {
		snap = s.snapshot.Clone()
		s.mu.Unlock()
		logrus.Warnf("Configuration load failed: %v", err)
		s.notifyLoadFailure(err)
		return snap, err
	}
	s.snapshot = snap
	if snap.EntryID != "" {
		s.entryID = snap.EntryID
	}
	result := snap.Clone()
	s.mu.Unlock()

	for _, section := range defaulted {
		logrus.Warnf("Configuration has no %s section, using built-in defaults", section)
		if s.hub != nil {
			s.hub.Notify(models.SeverityWarning, fmt.Sprintf("Configuration has no %s section, using built-in defaults", section))
		}
	}

	s.archiveVersion(models.VersionSourceLoad, result)
	if s.hub != nil {
		s.hub.BroadcastSnapshot(result.SourceVersion)
	}
	logrus.Infof("Configuration loaded: %d profiles, %d areas (version %s)", len(result.Profiles), len(result.Areas), result.SourceVersion)
	return result, nil
}

// Save sends the full profile list and area mapping to the backend update
// service. The write is always whole-snapshot, never a diff. On success the
// local snapshot is updated optimistically and one authoritative load is
// scheduled after the settle delay. On failure nothing changes locally.
func (s *SyncService) Save(ctx context.Context, profiles []models.Profile, areas map[string]models.Area) (*models.ConfigSnapshot, error) {
	s.mu.Lock()
	if s.state != SyncIdle {
		s.mu.Unlock()
		return nil, models.ErrSaveInFlight
	}
	s.state = SyncSaving
	entryID := s.entryID
	settings := s.snapshot.GlobalSettings
	prior := s.snapshot
	s.mu.Unlock()

	payload := map[string]interface{}{
		"entry_id":        entryID,
		"profiles":        stripDerivedFields(profiles),
		"areas":           areas,
		"global_settings": settings,
	}
	if err := s.backend.CallService(ctx, "shutterpilot", "update_config", payload); err != nil {
		s.mu.Lock()
		s.state = SyncIdle
		s.mu.Unlock()
		return nil, &models.SaveFailedError{Cause: err}
	}

	// Optimistic replacement: the request payload becomes the snapshot,
	// with the previously derived runtime fields carried over by name.
	next := &models.ConfigSnapshot{
		EntryID:        entryID,
		Profiles:       make([]models.Profile, len(profiles)),
		Areas:          make(map[string]models.Area, len(areas)),
		GlobalSettings: settings,
		SourceVersion:  uuid.NewString(),
	}
	copy(next.Profiles, profiles)
	for k, v := range areas {
		next.Areas[k] = v
	}
	for i := range next.Profiles {
		p := &next.Profiles[i]
		if old := prior.ProfileByName(p.Name); old != nil {
			p.Enabled = old.Enabled
			p.Status = old.Status
		} else {
			p.Enabled = false
			p.Status = models.ProfileStatusUnknown
		}
	}

	s.mu.Lock()
	s.snapshot = next
	s.state = SyncReconcilePending
	s.cancelReconcile = s.scheduler.AfterFunc(s.settleDelay, s.reconcile)
	result := next.Clone()
	s.mu.Unlock()

	s.archiveVersion(models.VersionSourceSave, result)
	if s.hub != nil {
		s.hub.BroadcastSnapshot(result.SourceVersion)
	}
	logrus.Infof("Configuration saved optimistically (version %s), reconcile in %s", result.SourceVersion, s.settleDelay)
	return result, nil
}

// notifyLoadFailure surfaces a failed load through the notification sink.
// An unreachable backend is recoverable and reported as a warning; a
// malformed configuration document is an error.
func (s *SyncService) notifyLoadFailure(err error) {
	if s.hub == nil {
		return
	}
	severity := models.SeverityError
	var unavailable *models.BackendUnavailableError
	if errors.As(err, &unavailable) {
		severity = models.SeverityWarning
	}
	s.hub.Notify(severity, fmt.Sprintf("Configuration load failed: %v", err))
}

// reconcile runs once per save, after the settle delay
func (s *SyncService) reconcile() {
	s.mu.Lock()
	if s.state != SyncReconcilePending {
		s.mu.Unlock()
		return
	}
	s.state = SyncIdle
	s.cancelReconcile = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := s.Load(ctx); err != nil {
		logrus.Warnf("Post-save reconcile load failed: %v", err)
	}
}

// NeedsRefresh reports whether a live-state change warrants a full reload:
// the global automation switch flipped, or the set of managed entities grew
// or shrank. Pure status-sensor changes are handled by the status deriver
// without a reload.
func (s *SyncService) NeedsRefresh(prev, next map[string]hass.EntityState) bool {
	prevGlobal, prevOK := prev[GlobalSwitchEntity]
	nextGlobal, nextOK := next[GlobalSwitchEntity]
	if prevOK != nextOK {
		return true
	}
	if prevOK && prevGlobal.State != nextGlobal.State {
		return true
	}
	return countManaged(prev) != countManaged(next)
}

// ApplyLiveState folds a single entity state document into the derived
// fields of the snapshot. Returns the resulting status update and true when
// the entity belongs to a known profile.
func (s *SyncService) ApplyLiveState(state hass.EntityState) (models.StatusUpdate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.snapshot.Profiles {
		p := &s.snapshot.Profiles[i]
		if upd, ok := s.deriver.DeriveProfile(p, state); ok {
			next := s.snapshot.Clone()
			next.Profiles[i].Enabled = upd.Enabled
			next.Profiles[i].Status = upd.Status
			s.snapshot = next
			return upd, true
		}
	}
	return models.StatusUpdate{}, false
}

func (s *SyncService) fetchSnapshot(ctx context.Context) (*models.ConfigSnapshot, []string, error) {
	entity, err := s.backend.GetState(ctx, ConfigEntity)
	if err != nil {
		return nil, nil, err
	}

	snap, defaulted, err := parseConfigAttributes(entity.Attributes)
	if err != nil {
		return nil, nil, err
	}
	snap.SourceVersion = uuid.NewString()

	states, err := s.backend.GetStates(ctx)
	if err != nil {
		return nil, nil, err
	}
	byID := make(map[string]hass.EntityState, len(states))
	for _, st := range states {
		byID[st.EntityID] = st
	}
	return s.deriver.Derive(snap, byID), defaulted, nil
}

func (s *SyncService) archiveVersion(source string, snap *models.ConfigSnapshot) {
	if s.versionRepo == nil {
		return
	}
	payload, err := snapshotPayload(snap)
	if err != nil {
		logrus.Errorf("Failed to encode snapshot for archiving: %v", err)
		return
	}
	version := &models.SnapshotVersion{
		ID:        snap.SourceVersion,
		CreatedAt: time.Now(),
		Source:    source,
		EntryID:   snap.EntryID,
		Payload:   payload,
	}
	if err := s.versionRepo.Create(version); err != nil {
		logrus.Errorf("Failed to archive snapshot version: %v", err)
	}
}

// parseConfigAttributes decodes the configuration sensor attributes into a
// snapshot. A missing profiles field means the document is malformed; a
// missing areas or global_settings subsection falls back to the built-in
// defaults for that subsection only, and is reported in the second return.
func parseConfigAttributes(attrs map[string]interface{}) (*models.ConfigSnapshot, []string, error) {
	if attrs == nil {
		return nil, nil, &models.MalformedConfigError{Missing: "attributes"}
	}
	if _, ok := attrs["profiles"]; !ok {
		return nil, nil, &models.MalformedConfigError{Missing: "profiles"}
	}

	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode configuration attributes: %w", err)
	}

	var doc struct {
		EntryID        string                 `json:"entry_id"`
		Profiles       []models.Profile       `json:"profiles"`
		Areas          map[string]models.Area `json:"areas"`
		GlobalSettings *models.GlobalSettings `json:"global_settings"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, &models.MalformedConfigError{Missing: "valid profiles structure"}
	}

	snap := &models.ConfigSnapshot{
		EntryID:  doc.EntryID,
		Profiles: doc.Profiles,
	}
	if snap.Profiles == nil {
		snap.Profiles = []models.Profile{}
	}
	var defaulted []string
	if doc.Areas != nil {
		snap.Areas = doc.Areas
	} else {
		snap.Areas = models.DefaultAreas()
		defaulted = append(defaulted, "areas")
	}
	if doc.GlobalSettings != nil {
		snap.GlobalSettings = *doc.GlobalSettings
	} else {
		snap.GlobalSettings = models.DefaultGlobalSettings()
		defaulted = append(defaulted, "global_settings")
	}
	return snap, defaulted, nil
}

// stripDerivedFields drops runtime-only fields from each profile before the
// payload goes to the backend.
func stripDerivedFields(profiles []models.Profile) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(profiles))
	for _, p := range profiles {
		raw, err := json.Marshal(p)
		if err != nil {
			continue
		}
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		for _, f := range models.DerivedProfileFields {
			delete(m, f)
		}
		out = append(out, m)
	}
	return out
}

func countManaged(states map[string]hass.EntityState) int {
	n := 0
	for id := range states {
		if id == GlobalSwitchEntity || id == ConfigEntity {
			continue
		}
		if strings.HasPrefix(id, switchEntityPrefix) || strings.HasPrefix(id, statusEntityPrefix) {
			n++
		}
	}
	return n
}

func snapshotPayload(snap *models.ConfigSnapshot) (models.JSON, error) {
	raw, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}
	var m models.JSON
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
