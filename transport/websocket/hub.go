package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gridgames/tictactoe-backend/internal/entity"
)

const (
	EventSnapshot = "snapshot"
	EventUpdate   = "update"
)

// Message represents an event pushed to a game's watchers: the full
// state on subscribe, then the state after every applied move.
type Message struct {
	Event string       `json:"event"`
	Game  *entity.Game `json:"game"`
}

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	sendBufferSize = 16
)

// Hub fans applied moves out to the read-only watchers of each game.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader

	watchers   map[int64]map[*client]bool
	register   chan *client
	unregister chan *client
	updates    chan *entity.Game
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger.With("component", "websocket_hub"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The service has no origin-bound auth, any page may watch.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		watchers:   make(map[int64]map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		updates:    make(chan *entity.Game, sendBufferSize),
	}
}

// Run - owns the watcher registry until the context is canceled.
// All registry access happens on this goroutine.
func (that *Hub) Run(ctx context.Context) {
	for {
		select {
		case watcher := <-that.register:
			clients, ok := that.watchers[watcher.gameID]
			if !ok {
				clients = make(map[*client]bool)
				that.watchers[watcher.gameID] = clients
			}
			clients[watcher] = true

		case watcher := <-that.unregister:
			if clients, ok := that.watchers[watcher.gameID]; ok {
				if _, ok = clients[watcher]; ok {
					delete(clients, watcher)
					close(watcher.send)

					if len(clients) == 0 {
						delete(that.watchers, watcher.gameID)
					}
				}
			}

		case updated := <-that.updates:
			that.broadcast(updated)

		case <-ctx.Done():
			return
		}
	}
}

// PublishGameUpdate - queues an applied move for fan-out.
func (that *Hub) PublishGameUpdate(updated *entity.Game) {
	select {
	case that.updates <- updated:
	default:
		// The hub stopped draining its queue, shed the update instead of stalling the caller.
		that.logger.Warn("game update dropped", "gameID", updated.ID)
	}
}

func (that *Hub) broadcast(updated *entity.Game) {
	clients := that.watchers[updated.ID]
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(Message{Event: EventUpdate, Game: updated})
	if err != nil {
		that.logger.Error("could not marshal game update", "gameID", updated.ID, "error", err)
		return
	}

	for watcher := range clients {
		select {
		case watcher.send <- payload:
		default:
			// The watcher stopped draining its queue, cut it loose.
			delete(clients, watcher)
			close(watcher.send)
		}
	}

	if len(clients) == 0 {
		delete(that.watchers, updated.ID)
	}
}

// ServeWatch - upgrades the request and subscribes it to one game.
// The snapshot is queued before registration, so it is always the
// first frame a watcher sees.
func (that *Hub) ServeWatch(w http.ResponseWriter, r *http.Request, existing *entity.Game) {
	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.logger.Error("could not upgrade connection", "gameID", existing.ID, "error", err)
		return
	}

	snapshot, err := json.Marshal(Message{Event: EventSnapshot, Game: existing})
	if err != nil {
		that.logger.Error("could not marshal game snapshot", "gameID", existing.ID, "error", err)
		_ = conn.Close()
		return
	}

	watcher := &client{
		hub:    that,
		conn:   conn,
		gameID: existing.ID,
		send:   make(chan []byte, sendBufferSize),
	}
	watcher.send <- snapshot

	that.register <- watcher

	go watcher.writePump()
	go watcher.readPump()
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	gameID int64
	send   chan []byte
}

// readPump - keeps the read side alive for control frames. Watchers
// send no application data; anything they write is discarded.
func (that *client) readPump() {
	defer func() {
		that.hub.unregister <- that
		_ = that.conn.Close()
	}()

	that.conn.SetReadLimit(maxMessageSize)
	_ = that.conn.SetReadDeadline(time.Now().Add(pongWait))
	that.conn.SetPongHandler(func(string) error {
		return that.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := that.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump - drains the send queue and keeps the connection alive with pings.
func (that *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = that.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-that.send:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = that.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := that.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := that.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
