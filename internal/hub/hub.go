// Package hub owns the set of connected telemetry observers. The broadcast
// service decides cadence and content; the hub only counts connections and
// fans a serialized record out to them.
package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"water_heater"
	"water_heater/internal/logger"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 1 << 12 // 4 KB
	sendBuffer = 8
)

type observer struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub is the observer registry.
type Hub struct {
	log *logger.Logger

	mu        sync.RWMutex
	observers map[string]*observer
}

func New(log *logger.Logger) *Hub {
	return &Hub{
		log:       log,
		observers: make(map[string]*observer),
	}
}

// Count returns the number of connected observers.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.observers)
}

// Broadcast serializes the record once and queues it to every observer.
// An observer whose send buffer is full misses this record rather than
// stalling the rest.
func (h *Hub) Broadcast(rec water_heater.Telemetry) {
	payload, err := json.Marshal(rec)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("telemetry marshal failed", "err", err)
		}
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, o := range h.observers {
		select {
		case o.send <- payload:
		default:
			if h.log != nil {
				h.log.Debugw("observer send buffer full, record dropped", "observer", o.id)
			}
		}
	}
}

func (h *Hub) add(o *observer) {
	h.mu.Lock()
	h.observers[o.id] = o
	h.mu.Unlock()
	if h.log != nil {
		h.log.Infow("observer connected", "observer", o.id, "observers", h.Count())
	}
}

func (h *Hub) remove(o *observer) {
	h.mu.Lock()
	delete(h.observers, o.id)
	h.mu.Unlock()
	if h.log != nil {
		h.log.Infow("observer disconnected", "observer", o.id, "observers", h.Count())
	}
}

// Serve registers an upgraded connection, writes the initial record, and
// blocks pumping broadcasts and pings until the peer goes away.
func (h *Hub) Serve(conn *websocket.Conn, initial water_heater.Telemetry) {
	o := &observer{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}
	h.add(o)
	defer h.remove(o)
	defer func() { _ = conn.Close() }()

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// Reader goroutine handles control frames and detects disconnects.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if payload, err := json.Marshal(initial); err == nil {
		if werr := o.write(payload); werr != nil {
			return
		}
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case payload := <-o.send:
			if err := o.write(payload); err != nil {
				if h.log != nil {
					h.log.Infow("observer write failed", "observer", o.id, "err", err)
				}
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (o *observer) write(payload []byte) error {
	_ = o.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return o.conn.WriteMessage(websocket.TextMessage, payload)
}
