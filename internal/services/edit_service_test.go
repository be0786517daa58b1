package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fschubi/shutterpilot/internal/models"
)

func newTestEdit(t *testing.T) (*EditService, *SyncService, *fakeBackend, *manualScheduler) {
	t.Helper()
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	scheduler := &manualScheduler{}
	syncService := loadedSync(backend, scheduler)
	return NewEditService(syncService, NewStatusDeriver()), syncService, backend, scheduler
}

func TestOpenExistingProfile(t *testing.T) {
	edit, _, _, _ := newTestEdit(t)

	session, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: "Living"})
	require.NoError(t, err)
	assert.Equal(t, models.TabBasic, session.ActiveFormTab)
	assert.Equal(t, "Living", session.Draft["name"])
	assert.Equal(t, "cover.living", session.Draft["cover_entity_id"])
	// Derived fields never enter a draft
	assert.NotContains(t, session.Draft, "enabled")
	assert.NotContains(t, session.Draft, "status")
}

func TestOpenNewProfileUsesDefaults(t *testing.T) {
	edit, _, _, _ := newTestEdit(t)

	session, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: models.TargetNew})
	require.NoError(t, err)
	assert.True(t, session.IsNew())
	assert.Equal(t, float64(40), session.Draft["day_position"])
	assert.Equal(t, float64(20000), session.Draft["lux_threshold"])
	assert.Equal(t, float64(-360), session.Draft["azimuth_min"])
	assert.Equal(t, float64(30), session.Draft["vent_position"])   // global default vpos
	assert.Equal(t, float64(120), session.Draft["cooldown_sec"])   // global default cooldown
	assert.Equal(t, true, session.Draft["light_on_shade"])
	assert.Equal(t, models.AreaNone, session.Draft["area"])
}

func TestOpenUnknownProfile(t *testing.T) {
	edit, _, _, _ := newTestEdit(t)
	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: "Ghost"})
	assert.ErrorContains(t, err, "not found")
}

func TestOpenReplacesExistingSession(t *testing.T) {
	edit, _, _, _ := newTestEdit(t)

	first, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: "Living"})
	require.NoError(t, err)

	_, err = edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabSensors, Fields: models.FormValues{"name": "Renamed"}})
	require.NoError(t, err)

	second, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetArea, TargetKey: "living"})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// The first draft is gone, including its edits
	current := edit.Session()
	assert.Equal(t, second.ID, current.ID)
	assert.Equal(t, models.TargetArea, current.TargetKind)
}

func TestTabSwitchIdempotent(t *testing.T) {
	edit, _, _, _ := newTestEdit(t)

	session, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: "Living"})
	require.NoError(t, err)
	before := session.Draft

	// Switch away and back, resubmitting the unchanged visible values
	basicFields := models.FormValues{}
	for _, f := range profileTabSchemas[models.TabBasic].Fields {
		if v, ok := before[f]; ok {
			basicFields[f] = v
		}
	}
	_, err = edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabSun, Fields: basicFields})
	require.NoError(t, err)

	sunFields := models.FormValues{}
	for _, f := range profileTabSchemas[models.TabSun].Fields {
		if v, ok := before[f]; ok {
			sunFields[f] = v
		}
	}
	after, err := edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabBasic, Fields: sunFields})
	require.NoError(t, err)

	assert.Equal(t, before, after.Draft)
}

func TestUncheckedBooleanBecomesExplicitFalse(t *testing.T) {
	edit, _, _, _ := newTestEdit(t)

	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: models.TargetNew})
	require.NoError(t, err)

	// Move to the sun tab, check heat protection there
	_, err = edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabSun, Fields: models.FormValues{}})
	require.NoError(t, err)
	session, err := edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabAdvanced, Fields: models.FormValues{
		"heat_protection_enabled": true,
	}})
	require.NoError(t, err)
	assert.Equal(t, true, session.Draft["heat_protection_enabled"])

	// Back on the sun tab the user unchecks the box; the browser omits it
	// from the submitted values entirely.
	_, err = edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabSun, Fields: models.FormValues{}})
	require.NoError(t, err)
	session, err = edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabBasic, Fields: models.FormValues{
		"azimuth_min": 90,
	}})
	require.NoError(t, err)

	assert.Equal(t, false, session.Draft["heat_protection_enabled"])
	assert.Equal(t, 90, session.Draft["azimuth_min"])
}

func TestCommitValidation(t *testing.T) {
	edit, _, backend, _ := newTestEdit(t)

	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: models.TargetNew})
	require.NoError(t, err)

	calls := backend.callCount()
	_, err = edit.Commit(context.Background(), &models.CommitSessionRequest{Fields: models.FormValues{}})

	var validation *models.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.ElementsMatch(t, []string{"name", "cover_entity_id"}, validation.Fields)

	// No side effects, session still open with the draft intact
	assert.Equal(t, calls, backend.callCount())
	require.NotNil(t, edit.Session())
}

func TestCommitNewProfileAppends(t *testing.T) {
	edit, syncService, backend, _ := newTestEdit(t)

	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: models.TargetNew})
	require.NoError(t, err)

	snap, err := edit.Commit(context.Background(), &models.CommitSessionRequest{Fields: models.FormValues{
		"name":            "Attic",
		"cover_entity_id": "cover.attic",
	}})
	require.NoError(t, err)

	assert.Equal(t, []string{"Living", "Attic"}, profileNames(snap))
	assert.Equal(t, []string{"Living", "Attic"}, profileNames(syncService.Snapshot()))
	assert.Nil(t, edit.Session())

	call := backend.lastCall()
	profiles := call.data["profiles"].([]map[string]interface{})
	require.Len(t, profiles, 2)
	assert.Equal(t, "Attic", profiles[1]["name"])
	assert.NotContains(t, profiles[1], "enabled")
}

func TestCommitEditReplacesByKey(t *testing.T) {
	edit, syncService, _, _ := newTestEdit(t)

	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: "Living"})
	require.NoError(t, err)

	snap, err := edit.Commit(context.Background(), &models.CommitSessionRequest{Fields: models.FormValues{
		"name":            "Living",
		"cover_entity_id": "cover.living",
		"day_position":    65,
	}})
	require.NoError(t, err)

	require.Len(t, snap.Profiles, 1)
	assert.Equal(t, 65, snap.Profiles[0].DayPosition)
	assert.Equal(t, 65, syncService.Snapshot().Profiles[0].DayPosition)
}

func TestCommitSaveFailureKeepsSessionOpen(t *testing.T) {
	edit, syncService, backend, _ := newTestEdit(t)
	before := syncService.Snapshot()

	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: "Living"})
	require.NoError(t, err)

	backend.callErr = errors.New("backend rejected the write")
	_, err = edit.Commit(context.Background(), &models.CommitSessionRequest{Fields: models.FormValues{
		"day_position": 80,
	}})

	var saveFailed *models.SaveFailedError
	require.ErrorAs(t, err, &saveFailed)

	// Snapshot and draft both unchanged from their pre-call values
	assert.Equal(t, before, syncService.Snapshot())
	session := edit.Session()
	require.NotNil(t, session)
	assert.Equal(t, 80, session.Draft["day_position"])
}

func TestCommitNewAreaUsesSanitizedKey(t *testing.T) {
	edit, syncService, _, _ := newTestEdit(t)

	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetArea, TargetKey: models.TargetNew})
	require.NoError(t, err)

	snap, err := edit.Commit(context.Background(), &models.CommitSessionRequest{Fields: models.FormValues{
		"area_name": "Guest Rooms",
		"area_mode": models.ModeTimeOnly,
	}})
	require.NoError(t, err)

	area, ok := snap.Areas["guest_rooms"]
	require.True(t, ok)
	assert.Equal(t, "Guest Rooms", area.Name)
	assert.Equal(t, models.ModeTimeOnly, area.Mode)
	assert.Contains(t, syncService.Snapshot().Areas, "guest_rooms")
}

func TestCancelDiscardsDraft(t *testing.T) {
	edit, _, backend, _ := newTestEdit(t)

	_, err := edit.Open(&models.OpenSessionRequest{TargetKind: models.TargetProfile, TargetKey: "Living"})
	require.NoError(t, err)

	calls := backend.callCount()
	edit.Cancel()
	assert.Nil(t, edit.Session())
	assert.Equal(t, calls, backend.callCount())

	_, err = edit.SetActiveTab(&models.SetTabRequest{Tab: models.TabSun})
	assert.ErrorIs(t, err, models.ErrNoActiveSession)
}
