package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fschubi/shutterpilot/internal/models"
)

// Global actions exposed by the backend integration.
const (
	ActionAllUp          = "all_up"
	ActionAllDown        = "all_down"
	ActionStop           = "stop"
	ActionRecalculateNow = "recalculate_now"
)

var globalActions = map[string]string{
	ActionAllUp:          "All covers moving up",
	ActionAllDown:        "All covers moving down",
	ActionStop:           "All covers stopped",
	ActionRecalculateNow: "Recalculation triggered",
}

// DispatcherService fires backend actions and reports the outcome through
// the notification sink. Actions are never retried automatically; a manual
// retry by the user is acceptable for all of them.
type DispatcherService struct {
	backend     Backend
	sync        *SyncService
	deriver     *StatusDeriver
	hub         *EventHub
	scheduler   Scheduler
	toggleDelay time.Duration
}

// NewDispatcherService creates a new action dispatcher. toggleDelay is the
// short wait between a switch toggle and the follow-up configuration load.
func NewDispatcherService(backend Backend, syncService *SyncService, deriver *StatusDeriver, hub *EventHub, scheduler Scheduler, toggleDelay time.Duration) *DispatcherService {
	if toggleDelay <= 0 {
		toggleDelay = time.Second
	}
	return &DispatcherService{
		backend:     backend,
		sync:        syncService,
		deriver:     deriver,
		hub:         hub,
		scheduler:   scheduler,
		toggleDelay: toggleDelay,
	}
}

// Invoke performs one named global action
func (s *DispatcherService) Invoke(ctx context.Context, action string) error {
	confirmation, ok := globalActions[action]
	if !ok {
		return s.fail(action, fmt.Sprintf("unknown action %s", action))
	}

	if err := s.backend.CallService(ctx, "shutterpilot", action, map[string]interface{}{}); err != nil {
		return s.fail(action, err.Error())
	}

	s.hub.Notify(models.SeverityInfo, confirmation)
	return nil
}

// SetGlobalAutomation switches the integration-wide automation on or off
// and schedules a follow-up load once the backend has settled.
func (s *DispatcherService) SetGlobalAutomation(ctx context.Context, on bool) error {
	return s.toggleSwitch(ctx, GlobalSwitchEntity, "global automation", on)
}

// SetProfileEnabled toggles one profile's enable switch and schedules a
// follow-up load once the backend has settled.
func (s *DispatcherService) SetProfileEnabled(ctx context.Context, profileName string, on bool) error {
	snap := s.sync.Snapshot()
	if snap.ProfileByName(profileName) == nil {
		return s.fail("toggle", fmt.Sprintf("profile %s not found", profileName))
	}
	return s.toggleSwitch(ctx, s.deriver.SwitchEntityID(profileName), fmt.Sprintf("profile %s", profileName), on)
}

func (s *DispatcherService) toggleSwitch(ctx context.Context, entityID, label string, on bool) error {
	service := "turn_off"
	verb := "disabled"
	if on {
		service = "turn_on"
		verb = "enabled"
	}

	data := map[string]interface{}{"entity_id": entityID}
	if err := s.backend.CallService(ctx, "switch", service, data); err != nil {
		return s.fail(service, err.Error())
	}

	s.hub.Notify(models.SeverityInfo, fmt.Sprintf("%s %s", label, verb))

	// Derived state is not trustworthy until the backend settles.
	s.scheduler.AfterFunc(s.toggleDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.sync.Load(ctx); err != nil {
			logrus.Warnf("Post-toggle load failed: %v", err)
		}
	})
	return nil
}

func (s *DispatcherService) fail(action, message string) error {
	err := &models.ActionFailedError{Action: action, Message: message}
	s.hub.Notify(models.SeverityError, err.Error())
	return err
}
