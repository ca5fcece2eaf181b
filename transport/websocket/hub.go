package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/tiles/game/engine"
	"github.com/wricardo/tiles/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be below pongWait
	maxMessageSize = 512
	sendBuffer     = 64
	eventQueueSize = 256
)

// Events sent to viewers
const (
	EventSnapshot    = "snapshot"
	EventStateUpdate = "state_update"
	EventNoMovesLeft = "no_moves_left"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Message is one JSON frame sent to a viewer
type Message struct {
	SessionID string            `json:"session_id"`
	Event     string            `json:"event"`
	GameState *engine.GameState `json:"game_state,omitempty"`
	Data      interface{}       `json:"data,omitempty"`
}

// viewer is one websocket connection watching a session
type viewer struct {
	conn    *websocket.Conn
	session string
	send    chan []byte
}

// room is the set of viewers of one session
type room map[*viewer]struct{}

// Hub fans session updates out to the viewers of that session. State updates
// are delivered synchronously so they arrive in move order; other events go
// through a queue drained by Run.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]room
	events chan *Message
}

// NewHub creates an empty hub. Call Run to deliver queued events.
func NewHub() *Hub {
	return &Hub{
		rooms:  make(map[string]room),
		events: make(chan *Message, eventQueueSize),
	}
}

// Run delivers events queued by BroadcastEvent. It never returns.
func (h *Hub) Run() {
	for msg := range h.events {
		h.deliver(msg)
	}
}

func roomKey(sessionID string) string {
	return strings.ToLower(sessionID)
}

// ServeWS upgrades the request and hands watch a join func. join attaches
// the connection to sessionID and queues the snapshot it is given as the
// first frame. watch must call join while no update for the session can be
// published, so the snapshot and the updates that follow arrive in order.
// If watch fails the connection is closed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string, watch func(join func(*engine.GameState)) error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	v := &viewer{conn: conn, session: roomKey(sessionID), send: make(chan []byte, sendBuffer)}
	err = watch(func(snapshot *engine.GameState) {
		if snapshot != nil {
			if data, err := encode(&Message{SessionID: sessionID, Event: EventSnapshot, GameState: snapshot}); err == nil {
				v.send <- data
			}
		}
		h.attach(v)
	})
	if err != nil {
		log.Printf("WebSocket watch of session %s failed: %v", sessionID, err)
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go v.writeLoop()
	go h.readLoop(v)
}

// Publish sends a session's new state to its viewers, followed by a
// no_moves_left event once the board is stuck. It matches the game
// service's state listener.
func (h *Hub) Publish(sessionID string, state *engine.GameState) {
	h.BroadcastToSession(sessionID, state)
	if state != nil && state.NoMovesLeft {
		h.BroadcastEvent(sessionID, EventNoMovesLeft, map[string]int{
			"max_tile":    state.MaxTile,
			"total_moves": state.TotalMoves,
		})
	}
}

// BroadcastToSession sends state to every viewer of the session on the
// caller's goroutine.
func (h *Hub) BroadcastToSession(sessionID string, state *engine.GameState) {
	h.deliver(&Message{SessionID: sessionID, Event: EventStateUpdate, GameState: state})
}

// BroadcastEvent queues an event for the viewers of a session. Events are
// dropped when the queue is full.
func (h *Hub) BroadcastEvent(sessionID, event string, data interface{}) {
	select {
	case h.events <- &Message{SessionID: sessionID, Event: event, Data: data}:
	default:
		log.Printf("WebSocket event queue full, dropping %s for session %s", event, sessionID)
	}
}

// ClientCount returns how many viewers watch a session
func (h *Hub) ClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomKey(sessionID)])
}

func (h *Hub) attach(v *viewer) {
	h.mu.Lock()
	r := h.rooms[v.session]
	if r == nil {
		r = make(room)
		h.rooms[v.session] = r
	}
	r[v] = struct{}{}
	n := len(r)
	h.mu.Unlock()

	observability.WebSocketViewers.Inc()
	log.Printf("Viewer joined session %s (%d watching)", v.session, n)
}

func (h *Hub) detach(v *viewer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(v)
}

// detachLocked closes v's send channel once; h.mu must be held.
func (h *Hub) detachLocked(v *viewer) {
	r := h.rooms[v.session]
	if _, ok := r[v]; !ok {
		return
	}
	delete(r, v)
	if len(r) == 0 {
		delete(h.rooms, v.session)
	}
	close(v.send)

	observability.WebSocketViewers.Dec()
	log.Printf("Viewer left session %s (%d watching)", v.session, len(r))
}

func encode(msg *Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Failed to encode %s message: %v", msg.Event, err)
	}
	return data, err
}

// deliver writes msg to each viewer's buffer. A viewer whose buffer is full
// is disconnected.
func (h *Hub) deliver(msg *Message) {
	data, err := encode(msg)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.rooms[roomKey(msg.SessionID)] {
		select {
		case v.send <- data:
		default:
			h.detachLocked(v)
		}
	}
}

// readLoop discards incoming frames; it exists to process pongs and notice
// the peer going away.
func (h *Hub) readLoop(v *viewer) {
	defer func() {
		h.detach(v)
		v.conn.Close()
	}()

	v.conn.SetReadLimit(maxMessageSize)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
	}
}

// writeLoop sends one frame per message and pings the peer while idle.
func (v *viewer) writeLoop() {
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ping.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case data, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ping.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
