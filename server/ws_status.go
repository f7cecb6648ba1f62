package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lissants/berkaraoke/core/pipeline"
	"github.com/lissants/berkaraoke/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// eventHub consumes the pipeline event stream once and broadcasts each
// event to every connected websocket client.
type eventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newEventHub(events <-chan pipeline.Event) *eventHub {
	hub := &eventHub{clients: make(map[*websocket.Conn]struct{})}
	go hub.run(events)
	return hub
}

func (h *eventHub) run(events <-chan pipeline.Event) {
	for ev := range events {
		h.broadcast(ev)
	}
}

func (h *eventHub) broadcast(ev pipeline.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(ev); err != nil {
			logger.Warn("Websocket write failed, dropping client", logger.ErrorField(err))
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

func (h *eventHub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *eventHub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

var (
	hubOnce sync.Once
	hub     *eventHub
)

// RecorderEventsHandler streams recorder ticks, stop notifications and
// preview completion events over a websocket.
func (h *APIHandler) RecorderEventsHandler(w http.ResponseWriter, r *http.Request) {
	hubOnce.Do(func() {
		hub = newEventHub(h.pipeline.Events())
	})

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Websocket upgrade failed", logger.ErrorField(err))
		return
	}

	logger.Info("Recorder event client connected", logger.String("remote", conn.RemoteAddr().String()))
	hub.add(conn)

	// Drain reads so close frames and pings are processed; the stream is
	// one-way from server to client.
	go func() {
		defer hub.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
