// Package session implements the per-participant full-duplex message
// channel: one Session per WebSocket connection, with a non-blocking
// Deliver and an idempotent Close, exactly the contract the coordinator
// and room packages depend on via types.Session.
package session

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/listenroom/backend/internal/v1/metrics"
	"github.com/listenroom/backend/internal/v1/types"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBufferSize = 64
)

// wsConnection is the subset of *websocket.Conn that Session depends on,
// so tests can substitute a fake.
type wsConnection interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
}

// Dispatcher receives decoded inbound messages and disconnect notifications.
// The coordinator implements this.
type Dispatcher interface {
	HandleMessage(s *Session, msg types.InboundMessage)
	Disconnect(s *Session)
}

// Session represents one connected participant's message channel.
type Session struct {
	conn       wsConnection
	dispatcher Dispatcher

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once

	send chan []byte
}

// New wraps a connection and dispatcher into a Session. The caller must
// start ReadPump and WritePump, each in its own goroutine.
func New(conn wsConnection, dispatcher Dispatcher) *Session {
	return &Session{
		conn:       conn,
		dispatcher: dispatcher,
		send:       make(chan []byte, sendBufferSize),
	}
}

// ReadPump decodes inbound JSON frames and hands them to the dispatcher.
// Malformed JSON and non-text frames are silently dropped, per the
// engine's error-handling contract. Returns when the connection dies,
// at which point the session is reported to the dispatcher as
// disconnected.
func (s *Session) ReadPump() {
	defer func() {
		s.dispatcher.Disconnect(s)
		s.Close()
		metrics.DecConnection()
	}()

	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg types.InboundMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Debug("dropping malformed inbound frame", "error", err)
			continue
		}

		s.dispatcher.HandleMessage(s, msg)
	}
}

// WritePump drains the send channel to the socket and keeps the
// connection alive with periodic pings.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Deliver serializes payload and enqueues it for send. It never blocks:
// a full buffer or a closed session both count as delivery failure and
// return false, at which point the caller must treat the session as
// permanently closed.
func (s *Session) Deliver(payload any) (ok bool) {
	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return false
	}
	s.mu.RUnlock()

	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("failed to marshal outbound message", "error", err)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("recovered from panic in Deliver", "panic", r)
			ok = false
		}
	}()

	select {
	case s.send <- data:
		return true
	default:
		slog.Warn("session send buffer full, closing session")
		s.Close()
		return false
	}
}

// Close idempotently tears down the session's send channel.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.send)
	})
}
