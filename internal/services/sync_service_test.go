package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fschubi/shutterpilot/internal/hass"
	"github.com/fschubi/shutterpilot/internal/models"
)

func TestLoadSuccess(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	s := newTestSync(backend, &manualScheduler{})

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Profiles, 1)
	assert.Equal(t, "entry-1", snap.EntryID)
	assert.Equal(t, "Living", snap.Profiles[0].Name)
	assert.True(t, snap.Profiles[0].Enabled)
	assert.Equal(t, "day", snap.Profiles[0].Status)
	assert.NotEmpty(t, snap.SourceVersion)
	assert.Equal(t, SyncIdle, s.State())
}

func TestLoadBackendUnavailableKeepsSnapshot(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	scheduler := &manualScheduler{}
	s := loadedSync(backend, scheduler)
	before := s.Snapshot()

	backend.configErr = &models.BackendUnavailableError{Entity: ConfigEntity}
	snap, err := s.Load(context.Background())

	var unavailable *models.BackendUnavailableError
	require.ErrorAs(t, err, &unavailable)
	// Failed load is a no-op on canonical state
	assert.Equal(t, before, snap)
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, SyncIdle, s.State())
}

func TestLoadMissingProfilesIsMalformed(t *testing.T) {
	backend := &fakeBackend{configAttrs: map[string]interface{}{"entry_id": "entry-1"}}
	s := newTestSync(backend, &manualScheduler{})

	_, err := s.Load(context.Background())
	var malformed *models.MalformedConfigError
	require.ErrorAs(t, err, &malformed)
}

func TestLoadMissingAreasFallsBackToDefaults(t *testing.T) {
	attrs := testConfigAttrs()
	delete(attrs, "areas")
	delete(attrs, "global_settings")
	backend := &fakeBackend{configAttrs: attrs, states: testLiveStates()}
	s := newTestSync(backend, &manualScheduler{})

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAreas(), snap.Areas)
	assert.Equal(t, models.DefaultGlobalSettings(), snap.GlobalSettings)
}

func TestLoadFailureReachesNotificationSink(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	hub := NewEventHub()
	s := newTestSyncWithHub(backend, &manualScheduler{}, hub)
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	ch := hub.RegisterClient()
	defer hub.UnregisterClient(ch)

	backend.configErr = &models.BackendUnavailableError{Entity: ConfigEntity}
	_, err = s.Load(context.Background())
	require.Error(t, err)

	events := drainEvents(ch)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], "event: notification")
	assert.Contains(t, events[0], `"severity":"warning"`)
	assert.Contains(t, events[0], "Configuration load failed")
}

func TestMalformedLoadNotifiesError(t *testing.T) {
	backend := &fakeBackend{configAttrs: map[string]interface{}{"entry_id": "entry-1"}}
	hub := NewEventHub()
	s := newTestSyncWithHub(backend, &manualScheduler{}, hub)
	ch := hub.RegisterClient()
	defer hub.UnregisterClient(ch)

	_, err := s.Load(context.Background())
	require.Error(t, err)

	events := drainEvents(ch)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], `"severity":"error"`)
}

func TestDefaultedSectionsWarnThroughSink(t *testing.T) {
	attrs := testConfigAttrs()
	delete(attrs, "areas")
	delete(attrs, "global_settings")
	backend := &fakeBackend{configAttrs: attrs, states: testLiveStates()}
	hub := NewEventHub()
	s := newTestSyncWithHub(backend, &manualScheduler{}, hub)
	ch := hub.RegisterClient()
	defer hub.UnregisterClient(ch)

	_, err := s.Load(context.Background())
	require.NoError(t, err)

	var notifications []string
	for _, ev := range drainEvents(ch) {
		if strings.Contains(ev, "event: notification") {
			notifications = append(notifications, ev)
		}
	}
	require.Len(t, notifications, 2)
	assert.Contains(t, notifications[0], "areas")
	assert.Contains(t, notifications[0], `"severity":"warning"`)
	assert.Contains(t, notifications[1], "global_settings")
}

func TestReconcileFailureIsSurfaced(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	scheduler := &manualScheduler{}
	hub := NewEventHub()
	s := newTestSyncWithHub(backend, scheduler, hub)
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	snap := s.Snapshot()
	_, err = s.Save(context.Background(), snap.Profiles, snap.Areas)
	require.NoError(t, err)

	ch := hub.RegisterClient()
	defer hub.UnregisterClient(ch)

	// The reconcile load has no HTTP caller; its failure must still reach
	// the notification sink.
	backend.configErr = &models.BackendUnavailableError{Entity: ConfigEntity}
	scheduler.Fire()

	events := drainEvents(ch)
	require.Len(t, events, 1)
	assert.Contains(t, events[0], "event: notification")
	assert.Contains(t, events[0], `"severity":"warning"`)
}

func TestSeededEntryIDUsedBeforeFirstLoad(t *testing.T) {
	backend := &fakeBackend{}
	s := NewSyncService(backend, NewStatusDeriver(), &manualScheduler{}, nil, nil, "entry-seed", 0)
	assert.Equal(t, "entry-seed", s.EntryID())

	_, err := s.Save(context.Background(), nil, map[string]models.Area{})
	require.NoError(t, err)
	assert.Equal(t, "entry-seed", backend.lastCall().data["entry_id"])
}

func TestSaveOptimisticThenOneReconcile(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	scheduler := &manualScheduler{}
	s := loadedSync(backend, scheduler)

	snap := s.Snapshot()
	snap.Profiles[0].DayPosition = 55
	snap.Profiles = append(snap.Profiles, models.Profile{Name: "Attic", Cover: "cover.attic"})

	result, err := s.Save(context.Background(), snap.Profiles, snap.Areas)
	require.NoError(t, err)

	// Snapshot reflects the payload immediately
	assert.Equal(t, []string{"Living", "Attic"}, profileNames(result))
	assert.Equal(t, 55, s.Snapshot().Profiles[0].DayPosition)
	// Derived fields carried over for existing profiles, defaulted for new
	assert.True(t, result.Profiles[0].Enabled)
	assert.Equal(t, models.ProfileStatusUnknown, result.Profiles[1].Status)

	// Exactly one reconcile load scheduled, none run yet
	assert.Equal(t, SyncReconcilePending, s.State())
	assert.Equal(t, 1, scheduler.pendingCount())
	getStatesBefore := backend.getStateCalls

	scheduler.Fire()
	assert.Equal(t, getStatesBefore+1, backend.getStateCalls)
	assert.Equal(t, SyncIdle, s.State())
	assert.Equal(t, 0, scheduler.pendingCount())
}

func TestSavePayloadStripsDerivedFields(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	s := loadedSync(backend, &manualScheduler{})

	snap := s.Snapshot()
	require.True(t, snap.Profiles[0].Enabled)

	_, err := s.Save(context.Background(), snap.Profiles, snap.Areas)
	require.NoError(t, err)

	call := backend.lastCall()
	assert.Equal(t, "shutterpilot", call.domain)
	assert.Equal(t, "update_config", call.service)
	assert.Equal(t, "entry-1", call.data["entry_id"])

	profiles, ok := call.data["profiles"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, profiles, 1)
	assert.NotContains(t, profiles[0], "enabled")
	assert.NotContains(t, profiles[0], "status")
	assert.Equal(t, "Living", profiles[0]["name"])
}

func TestSaveFailureIsNoOp(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	scheduler := &manualScheduler{}
	s := loadedSync(backend, scheduler)
	before := s.Snapshot()

	backend.callErr = errors.New("service rejected")
	snap := before.Clone()
	snap.Profiles[0].DayPosition = 99

	_, err := s.Save(context.Background(), snap.Profiles, snap.Areas)
	var saveFailed *models.SaveFailedError
	require.ErrorAs(t, err, &saveFailed)

	// Optimistic update and reconcile both skipped
	assert.Equal(t, before, s.Snapshot())
	assert.Equal(t, 0, scheduler.pendingCount())
	assert.Equal(t, SyncIdle, s.State())
}

func TestSaveWhileReconcilePendingIsCoalesced(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	scheduler := &manualScheduler{}
	s := loadedSync(backend, scheduler)

	snap := s.Snapshot()
	_, err := s.Save(context.Background(), snap.Profiles, snap.Areas)
	require.NoError(t, err)

	_, err = s.Save(context.Background(), snap.Profiles, snap.Areas)
	assert.ErrorIs(t, err, models.ErrSaveInFlight)
	// Still only one pending reconcile
	assert.Equal(t, 1, scheduler.pendingCount())
}

func TestExplicitLoadCancelsPendingReconcile(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	scheduler := &manualScheduler{}
	s := loadedSync(backend, scheduler)

	snap := s.Snapshot()
	_, err := s.Save(context.Background(), snap.Profiles, snap.Areas)
	require.NoError(t, err)

	_, err = s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, scheduler.cancelled)
	assert.Equal(t, SyncIdle, s.State())

	// The cancelled reconcile must not load again
	calls := backend.getStateCalls
	scheduler.Fire()
	assert.Equal(t, calls, backend.getStateCalls)
}

func TestNeedsRefresh(t *testing.T) {
	s := newTestSync(&fakeBackend{}, &manualScheduler{})

	base := map[string]hass.EntityState{
		GlobalSwitchEntity:                  {EntityID: GlobalSwitchEntity, State: "on"},
		"switch.shutterpilot_living":        {EntityID: "switch.shutterpilot_living", State: "on"},
		"sensor.shutterpilot_living_status": {EntityID: "sensor.shutterpilot_living_status", State: "day"},
	}

	// Status-only change: no refresh
	statusOnly := map[string]hass.EntityState{
		GlobalSwitchEntity:                  {EntityID: GlobalSwitchEntity, State: "on"},
		"switch.shutterpilot_living":        {EntityID: "switch.shutterpilot_living", State: "on"},
		"sensor.shutterpilot_living_status": {EntityID: "sensor.shutterpilot_living_status", State: "night"},
	}
	assert.False(t, s.NeedsRefresh(base, statusOnly))

	// Global switch flip: refresh
	flipped := map[string]hass.EntityState{
		GlobalSwitchEntity:                  {EntityID: GlobalSwitchEntity, State: "off"},
		"switch.shutterpilot_living":        {EntityID: "switch.shutterpilot_living", State: "on"},
		"sensor.shutterpilot_living_status": {EntityID: "sensor.shutterpilot_living_status", State: "day"},
	}
	assert.True(t, s.NeedsRefresh(base, flipped))

	// Managed entity count change: refresh
	grown := map[string]hass.EntityState{}
	for k, v := range base {
		grown[k] = v
	}
	grown["switch.shutterpilot_attic"] = hass.EntityState{EntityID: "switch.shutterpilot_attic", State: "on"}
	assert.True(t, s.NeedsRefresh(base, grown))

	// Unmanaged entity: no refresh
	unrelated := map[string]hass.EntityState{}
	for k, v := range base {
		unrelated[k] = v
	}
	unrelated["light.kitchen"] = hass.EntityState{EntityID: "light.kitchen", State: "on"}
	assert.False(t, s.NeedsRefresh(base, unrelated))
}

func TestApplyLiveStateWithoutReload(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	s := loadedSync(backend, &manualScheduler{})
	require.True(t, s.Snapshot().Profiles[0].Enabled)
	loads := backend.getStateCalls

	upd, ok := s.ApplyLiveState(hass.EntityState{EntityID: "switch.shutterpilot_living", State: "off"})
	require.True(t, ok)
	assert.Equal(t, "Living", upd.Profile)
	assert.False(t, upd.Enabled)
	assert.False(t, s.Snapshot().Profiles[0].Enabled)
	// No snapshot reload happened
	assert.Equal(t, loads, backend.getStateCalls)

	_, ok = s.ApplyLiveState(hass.EntityState{EntityID: "light.kitchen", State: "on"})
	assert.False(t, ok)
}

func TestLoadDuringLoadIsCoalesced(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	s := loadedSync(backend, &manualScheduler{})

	// Force the Loading state and observe the coalesced call
	s.mu.Lock()
	s.state = SyncLoading
	s.mu.Unlock()

	calls := backend.getStateCalls
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, calls, backend.getStateCalls)
	assert.Equal(t, "Living", snap.Profiles[0].Name)

	s.mu.Lock()
	s.state = SyncIdle
	s.mu.Unlock()
}

func TestSnapshotIsACopy(t *testing.T) {
	backend := &fakeBackend{configAttrs: testConfigAttrs(), states: testLiveStates()}
	s := loadedSync(backend, &manualScheduler{})

	snap := s.Snapshot()
	snap.Profiles[0].Name = "Mutated"
	snap.Areas["living"] = models.Area{Name: "Mutated"}

	fresh := s.Snapshot()
	assert.Equal(t, "Living", fresh.Profiles[0].Name)
	assert.Equal(t, "Living", fresh.Areas["living"].Name)
}

func TestDefaultSettleDelay(t *testing.T) {
	s := NewSyncService(&fakeBackend{}, NewStatusDeriver(), &manualScheduler{}, nil, nil, "", 0)
	assert.Equal(t, 2*time.Second, s.settleDelay)
}
