// Package bus implements the optional cross-instance room fan-out used when
// more than one server process serves the same set of rooms. A room's
// authoritative state always lives in exactly one process; the bus only
// mirrors already-computed outbound messages to subscribers in other
// processes so their locally-connected sessions stay in sync. Nothing here
// is durable: a message not picked up by a live subscriber is simply lost.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/listenroom/backend/internal/v1/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
)

// PubSubPayload is the envelope moved between processes over Redis.
type PubSubPayload struct {
	RoomId   string          `json:"roomId"`
	Event    string          `json:"event"`
	Payload  json.RawMessage `json:"payload"`
	SenderId string          `json:"senderId"` // used by subscribers to avoid re-broadcasting to the sender's own process
}

// Service handles all interaction with the Redis pub/sub cluster.
type Service struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// Client returns the underlying Redis client.
func (s *Service) Client() *redis.Client {
	if s == nil {
		return nil
	}
	return s.client
}

// NewService creates a Redis connection and verifies it with a ping.
func NewService(addr, password string) (*Service, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	st := gobreaker.Settings{
		Name:        "room-bus",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			var stateVal float64
			switch to {
			case gobreaker.StateClosed:
				stateVal = 0
			case gobreaker.StateOpen:
				stateVal = 1
			case gobreaker.StateHalfOpen:
				stateVal = 2
			}
			metrics.CircuitBreakerState.WithLabelValues("room-bus").Set(stateVal)
		},
	}

	slog.Info("connected to room bus", "addr", addr)
	return &Service{
		client: rdb,
		cb:     gobreaker.NewCircuitBreaker(st),
	}, nil
}

// Publish mirrors one already-computed outbound message to every other
// process subscribed to this room. senderId lets a subscriber recognize
// and ignore echoes of its own process's publishes.
func (s *Service) Publish(ctx context.Context, roomId, event string, payload any, senderId string) error {
	if s == nil || s.client == nil {
		return nil // single-instance mode, no bus configured
	}

	timer := prometheus.NewTimer(metrics.BusOperationDuration.WithLabelValues("publish"))
	defer timer.ObserveDuration()

	_, err := s.cb.Execute(func() (interface{}, error) {
		innerBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal inner payload: %w", err)
		}

		msg := PubSubPayload{
			RoomId:   roomId,
			Event:    event,
			Payload:  innerBytes,
			SenderId: senderId,
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pubsub envelope: %w", err)
		}

		channel := fmt.Sprintf("room:%s", roomId)
		return nil, s.client.Publish(ctx, channel, data).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("room-bus").Inc()
			metrics.BusOperationsTotal.WithLabelValues("publish", "breaker_open").Inc()
			slog.Warn("room bus circuit open, dropping publish", "roomId", roomId)
			return nil // graceful degradation: drop message, don't fail the caller
		}
		metrics.BusOperationsTotal.WithLabelValues("publish", "error").Inc()
		slog.Error("room bus publish failed", "roomId", roomId, "error", err)
		return err
	}

	metrics.BusOperationsTotal.WithLabelValues("publish", "success").Inc()
	return nil
}

// Subscribe starts a background goroutine that listens for messages
// published by other processes for this room, until ctx is cancelled.
func (s *Service) Subscribe(ctx context.Context, roomId string, wg *sync.WaitGroup, handler func(PubSubPayload)) {
	if s == nil || s.client == nil {
		return
	}

	channel := fmt.Sprintf("room:%s", roomId)
	pubsub := s.client.Subscribe(ctx, channel)

	if wg != nil {
		wg.Add(1)
	}
	go func() {
		defer pubsub.Close()
		if wg != nil {
			defer wg.Done()
		}

		slog.Info("subscribed to room bus channel", "channel", channel)
		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					slog.Warn("room bus subscription channel closed", "channel", channel)
					return
				}

				var payload PubSubPayload
				if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
					slog.Error("failed to unmarshal room bus message", "error", err, "raw", msg.Payload)
					continue
				}

				handler(payload)
			}
		}
	}()
}

// Ping checks bus connectivity. Used by readiness checks.
func (s *Service) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.client.Ping(ctx).Err()
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			metrics.CircuitBreakerFailures.WithLabelValues("room-bus").Inc()
		}
		return err
	}
	return nil
}

// Close gracefully shuts down the Redis connection.
func (s *Service) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
