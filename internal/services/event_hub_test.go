package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fschubi/shutterpilot/internal/models"
)

func TestEventHubBroadcastStatus(t *testing.T) {
	hub := NewEventHub()
	ch := hub.RegisterClient()
	defer hub.UnregisterClient(ch)

	hub.BroadcastStatus(models.StatusUpdate{Profile: "Living", Enabled: false, Status: "night"})

	select {
	case msg := <-ch:
		assert.Contains(t, string(msg), "event: status")
		assert.Contains(t, string(msg), `"profile":"Living"`)
		assert.Contains(t, string(msg), `"status":"night"`)
	default:
		t.Fatal("expected a status event")
	}
}

func TestEventHubNotify(t *testing.T) {
	hub := NewEventHub()
	ch := hub.RegisterClient()
	defer hub.UnregisterClient(ch)

	hub.Notify(models.SeverityWarning, "backend unavailable")

	select {
	case msg := <-ch:
		assert.Contains(t, string(msg), "event: notification")
		assert.Contains(t, string(msg), `"severity":"warning"`)
		assert.Contains(t, string(msg), "backend unavailable")
	default:
		t.Fatal("expected a notification event")
	}
}

func TestEventHubUnregisterClosesChannel(t *testing.T) {
	hub := NewEventHub()
	ch := hub.RegisterClient()
	require.Equal(t, 1, hub.ClientCount())

	hub.UnregisterClient(ch)
	assert.Equal(t, 0, hub.ClientCount())

	_, open := <-ch
	assert.False(t, open)
}

func TestHeartbeatGoesToOneClient(t *testing.T) {
	hub := NewEventHub()
	ch1 := hub.RegisterClient()
	ch2 := hub.RegisterClient()
	defer hub.UnregisterClient(ch1)
	defer hub.UnregisterClient(ch2)

	hub.SendHeartbeat(ch1)

	select {
	case msg := <-ch1:
		assert.Contains(t, string(msg), ": heartbeat")
	default:
		t.Fatal("expected a heartbeat on the owning connection")
	}
	select {
	case <-ch2:
		t.Fatal("heartbeat leaked to another client")
	default:
	}
}

func TestEventHubFullChannelDoesNotBlock(t *testing.T) {
	hub := NewEventHub()
	ch := hub.RegisterClient()
	defer hub.UnregisterClient(ch)

	// Fill the buffer well past its size; broadcasts must not block
	for i := 0; i < 25; i++ {
		hub.BroadcastSnapshot("v1")
	}
	assert.Equal(t, 1, hub.ClientCount())
}
