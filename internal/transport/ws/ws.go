package ws

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arcadelab/relay/internal/relay"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

// Handler upgrades HTTP requests to WebSocket sessions and runs the read
// and write loops that connect the socket to the relay engine.
type Handler struct {
	engine   *relay.Engine
	log      *slog.Logger
	upgrader websocket.Upgrader
}

func NewHandler(engine *relay.Engine, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}

	return &Handler{
		engine: engine,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Upgrades are accepted unconditionally: no origin check, no
			// subprotocol negotiation.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Serve upgrades the request and starts a session.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("ws: upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	s := relay.NewSession()
	h.engine.Connect(s)

	p := &peer{
		conn:    conn,
		session: s,
		engine:  h.engine,
		log:     h.log,
	}

	go p.writePump()
	go p.readPump()
}

type peer struct {
	conn    *websocket.Conn
	session *relay.Session
	engine  *relay.Engine
	log     *slog.Logger
}

// readPump forwards inbound text messages to the engine until the
// transport closes, then reports the disconnect.
func (p *peer) readPump() {
	defer func() {
		p.engine.Disconnect(p.session)
		p.conn.Close()
	}()

	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := p.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				p.log.Debug("ws: read failed", "session_id", p.session.ID(), "error", err)
			}
			return
		}

		if mt == websocket.TextMessage {
			p.engine.Receive(p.session, data)
		}
	}
}

// writePump drains the session's outbound stream and keeps the connection
// alive with pings.
func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.session.Outbound():
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The engine ended the session.
				_ = p.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
