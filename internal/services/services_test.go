package services

import (
	"context"
	"sync"
	"time"

	"github.com/fschubi/shutterpilot/internal/hass"
	"github.com/fschubi/shutterpilot/internal/models"
)

// fakeBackend is an in-memory Backend for tests
type fakeBackend struct {
	mu sync.Mutex

	configAttrs map[string]interface{}
	configErr   error
	states      []hass.EntityState
	statesErr   error
	callErr     error

	getStateCalls int
	calls         []serviceCall
}

type serviceCall struct {
	domain  string
	service string
	data    map[string]interface{}
}

func (b *fakeBackend) GetState(ctx context.Context, entityID string) (*hass.EntityState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getStateCalls++
	if b.configErr != nil {
		return nil, b.configErr
	}
	return &hass.EntityState{EntityID: entityID, State: "ok", Attributes: b.configAttrs}, nil
}

func (b *fakeBackend) GetStates(ctx context.Context) ([]hass.EntityState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.statesErr != nil {
		return nil, b.statesErr
	}
	return b.states, nil
}

func (b *fakeBackend) CallService(ctx context.Context, domain, service string, data map[string]interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.callErr != nil {
		return b.callErr
	}
	b.calls = append(b.calls, serviceCall{domain: domain, service: service, data: data})
	return nil
}

func (b *fakeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *fakeBackend) lastCall() serviceCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[len(b.calls)-1]
}

// manualScheduler collects scheduled functions and fires them on demand
type manualScheduler struct {
	mu        sync.Mutex
	pending   []func()
	cancelled int
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, f)
	fired := false
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !fired {
			fired = true
			s.cancelled++
		}
	}
}

// Fire runs all pending functions and clears the queue
func (s *manualScheduler) Fire() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, f := range pending {
		f()
	}
}

func (s *manualScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// testConfigAttrs builds the configuration sensor attributes for one
// Living profile
func testConfigAttrs() map[string]interface{} {
	return map[string]interface{}{
		"entry_id": "entry-1",
		"profiles": []interface{}{
			map[string]interface{}{
				"name":            "Living",
				"cover_entity_id": "cover.living",
				"area":            "living",
				"day_position":    40,
			},
		},
		"areas": map[string]interface{}{
			"living": map[string]interface{}{
				"area_name": "Living",
				"area_mode": "sun",
			},
		},
		"global_settings": map[string]interface{}{
			"default_vpos":     30,
			"default_cooldown": 120,
		},
	}
}

func testLiveStates() []hass.EntityState {
	return []hass.EntityState{
		{EntityID: GlobalSwitchEntity, State: "on"},
		{EntityID: "switch.shutterpilot_living", State: "on"},
		{EntityID: "sensor.shutterpilot_living_status", State: "day"},
	}
}

func newTestSync(backend *fakeBackend, scheduler Scheduler) *SyncService {
	return NewSyncService(backend, NewStatusDeriver(), scheduler, NewEventHub(), nil, "", 2*time.Second)
}

func newTestSyncWithHub(backend *fakeBackend, scheduler Scheduler, hub *EventHub) *SyncService {
	return NewSyncService(backend, NewStatusDeriver(), scheduler, hub, nil, "", 2*time.Second)
}

func loadedSync(backend *fakeBackend, scheduler Scheduler) *SyncService {
	s := newTestSync(backend, scheduler)
	if _, err := s.Load(context.Background()); err != nil {
		panic(err)
	}
	return s
}

// drainEvents collects everything currently buffered on an SSE client channel
func drainEvents(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func profileNames(snap *models.ConfigSnapshot) []string {
	names := make([]string, 0, len(snap.Profiles))
	for _, p := range snap.Profiles {
		names = append(names, p.Name)
	}
	return names
}
