package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/fschubi/shutterpilot/internal/hass"
)

// LiveFeedService consumes backend state-change documents from RabbitMQ and
// folds them into the snapshot. A change that flips the global automation
// switch or alters the set of managed entities triggers a full reload;
// everything else is a cheap derived-fields update.
type LiveFeedService struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string

	sync *SyncService
	hub  *EventHub

	mu     sync.Mutex
	states map[string]hass.EntityState
}

// NewLiveFeedService connects to RabbitMQ and declares the state queue
func NewLiveFeedService(syncService *SyncService, hub *EventHub) (*LiveFeedService, error) {
	host := getEnv("RABBITMQ_HOST", "localhost")
	port := getEnv("RABBITMQ_PORT", "5672")
	user := getEnv("RABBITMQ_USER", "guest")
	pass := getEnv("RABBITMQ_PASS", "guest")

	url := fmt.Sprintf("amqp://%s:%s@%s:%s/", user, pass, host, port)

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	queueName := getEnv("RABBITMQ_STATE_QUEUE", "shutterpilot_states")
	_, err = channel.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	service := &LiveFeedService{
		conn:    conn,
		channel: channel,
		queue:   queueName,
		sync:    syncService,
		hub:     hub,
		states:  make(map[string]hass.EntityState),
	}

	logrus.Infof("Live feed connected, consuming queue %s", queueName)
	return service, nil
}

// Start begins consuming state documents until the context is cancelled
func (s *LiveFeedService) Start(ctx context.Context) error {
	msgs, err := s.channel.Consume(
		s.queue, // queue
		"",      // consumer
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					logrus.Warn("Live feed channel closed")
					return
				}
				s.handleMessage(msg)
			}
		}
	}()
	return nil
}

// handleMessage folds one state-change document into the live state
func (s *LiveFeedService) handleMessage(msg amqp.Delivery) {
	var state hass.EntityState
	if err := json.Unmarshal(msg.Body, &state); err != nil {
		logrus.Errorf("Failed to decode state document: %v", err)
		msg.Nack(false, false)
		return
	}
	if state.EntityID == "" {
		msg.Nack(false, false)
		return
	}

	s.Apply(state)
	msg.Ack(false)
}

// Apply processes one entity state document. Exposed for tests and for the
// polling fallback.
func (s *LiveFeedService) Apply(state hass.EntityState) {
	s.mu.Lock()
	prev := make(map[string]hass.EntityState, len(s.states))
	for k, v := range s.states {
		prev[k] = v
	}
	s.states[state.EntityID] = state
	next := s.states
	refresh := s.sync.NeedsRefresh(prev, next)
	s.mu.Unlock()

	if refresh {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := s.sync.Load(ctx); err != nil {
			logrus.Warnf("Live-feed triggered load failed: %v", err)
		}
		return
	}

	if upd, ok := s.sync.ApplyLiveState(state); ok {
		s.hub.BroadcastStatus(upd)
	}
}

// Close closes the RabbitMQ connection
func (s *LiveFeedService) Close() error {
	if s.channel != nil {
		if err := s.channel.Close(); err != nil {
			logrus.Warnf("Error closing channel: %v", err)
		}
	}
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			logrus.Warnf("Error closing connection: %v", err)
		}
	}
	return nil
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
