// Package monitor streams live interview signals to browsers over
// WebSocket. A [Hub] is an interview.Observer: attach it to a Controller
// and serve it on an HTTP route.
package monitor

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/twinoai/twino/pkg/interview"
)

// Message types.
const (
	TypeTranscript     = "transcript"
	TypeProfile        = "profile"
	TypeCompletion     = "completion"
	TypeSilenceWarning = "silence_warning"
	TypeSilenceTimeout = "silence_timeout"
	TypeConnection     = "connection"
	TypeError          = "error"
)

// Message is the JSON frame sent to clients.
type Message struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
	Data any       `json:"data,omitempty"`
}

type transcriptData struct {
	Entries []displayEntry  `json:"entries"`
	Phase   interview.Phase `json:"phase"`
	// Question is the current question number out of Max.
	Question int `json:"question"`
	Max      int `json:"max"`
}

type displayEntry struct {
	Role interview.Role `json:"role"`
	Text string         `json:"text"`
}

// Encode converts a signal to its wire message. Assistant text is shown
// without the profile block.
func Encode(s interview.Signal, at time.Time) Message {
	m := Message{At: at}
	switch s := s.(type) {
	case interview.TranscriptUpdated:
		m.Type = TypeTranscript
		d := transcriptData{
			Entries:  make([]displayEntry, 0, len(s.Snapshot.Entries)),
			Phase:    s.Snapshot.Phase,
			Question: s.Snapshot.Question,
			Max:      s.Snapshot.Budget.Max,
		}
		for _, e := range s.Snapshot.Entries {
			text := e.Text
			if e.Role == interview.RoleAssistant {
				text = interview.DisplayText(text)
			}
			if text == "" {
				continue
			}
			d.Entries = append(d.Entries, displayEntry{Role: e.Role, Text: text})
		}
		m.Data = d
	case interview.ProfileDetected:
		m.Type = TypeProfile
		m.Data = s.Profile
	case interview.CompletionDetected:
		m.Type = TypeCompletion
	case interview.SilenceWarning:
		m.Type = TypeSilenceWarning
		m.Data = map[string]int{"remaining_seconds": int(s.Remaining / time.Second)}
	case interview.SilenceTimeout:
		m.Type = TypeSilenceTimeout
	case interview.ConnectionChanged:
		m.Type = TypeConnection
		m.Data = map[string]bool{"connected": s.Connected}
	case interview.Failed:
		m.Type = TypeError
		m.Data = map[string]string{"message": s.Err.Error()}
	}
	return m
}

const (
	sendBuffer   = 32
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

type client struct {
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub fans signals out to connected WebSocket clients. Slow clients whose
// buffer is full are disconnected rather than slowing the session.
type Hub struct {
	upgrader websocket.Upgrader
	now      func() time.Time

	mu      sync.Mutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
}

var _ interview.Observer = (*Hub)(nil)

// NewHub creates a Hub. checkOrigin may be nil to accept any origin.
func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: checkOrigin},
		now:      time.Now,
		clients:  make(map[*client]struct{}),
	}
}

// Observe broadcasts s. It never blocks.
func (h *Hub) Observe(s interview.Signal) {
	data, err := json.Marshal(Encode(s, h.now()))
	if err != nil {
		slog.Warn("monitor: encode signal", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if _, ok := s.(interview.TranscriptUpdated); ok {
		h.last = data
	}
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slog.Warn("monitor: dropping slow client")
			delete(h.clients, c)
			c.close()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams messages until the client
// goes away. A new client first receives the latest transcript.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{send: make(chan []byte, sendBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeTimeout))
		ws.Close()
		return
	}
	if h.last != nil {
		c.send <- h.last
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.readLoop(ws, c)
	h.writeLoop(ws, c)
}

// readLoop discards client frames and unregisters on close.
func (h *Hub) readLoop(ws *websocket.Conn, c *client) {
	defer h.remove(c)
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(ws *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		ws.Close()
	}()
	for {
		select {
		case data, ok := <-c.send:
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.close()
	}
}

// Close disconnects every client and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		c.close()
	}
}
