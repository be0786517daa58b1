package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/fschubi/shutterpilot/internal/services"
)

type EventsHandler struct {
	hub *services.EventHub
}

func NewEventsHandler(hub *services.EventHub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
	}
}

// StreamEvents godoc
// @Summary Stream status updates and notifications
// @Description Server-Sent Events stream carrying status, snapshot and notification events
// @Tags events
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 "SSE stream"
// @Router /api/v1/events [get]
func (h *EventsHandler) StreamEvents(c *gin.Context) {
	// Set headers for SSE
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // Disable buffering for nginx

	// Register client
	clientChan := h.hub.RegisterClient()
	defer h.hub.UnregisterClient(clientChan)

	// Send initial connection message
	c.SSEvent("connected", gin.H{"message": "Connected to event stream"})
	c.Writer.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			logrus.Info("SSE client disconnected")
			return
		case <-heartbeat.C:
			h.hub.SendHeartbeat(clientChan)
		case message, ok := <-clientChan:
			if !ok {
				return
			}
			if _, err := c.Writer.Write(message); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}
