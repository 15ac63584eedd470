package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/arcadelab/relay/internal/domain"
	"github.com/arcadelab/relay/internal/event"
)

// Engine interprets the session protocol: a session must open with a join
// handshake, after which every frame it sends is relayed verbatim (save
// for playerId stamping) to its roommates.
//
// All protocol state lives on one goroutine. Connect, Disconnect and
// Receive hand work to the loop over channels, so the registry and
// session state are never mutated concurrently and no locks are needed.
type Engine struct {
	registry *Registry
	eb       *event.Bus
	log      *slog.Logger

	sessions map[*Session]struct{}

	connect    chan *Session
	disconnect chan *Session
	frames     chan inbound

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

type inbound struct {
	session *Session
	data    []byte
}

type Config struct {
	EventBus *event.Bus
	Logger   *slog.Logger
}

func NewEngine(c Config) *Engine {
	log := c.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Engine{
		registry:   NewRegistry(),
		eb:         c.EventBus,
		log:        log,
		sessions:   make(map[*Session]struct{}),
		connect:    make(chan *Session),
		disconnect: make(chan *Session),
		frames:     make(chan inbound, 64),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Run executes the engine loop until Stop is called. It always returns
// nil; the signature fits errgroup.
func (e *Engine) Run() error {
	defer close(e.done)

	for {
		select {
		case s := <-e.connect:
			e.handleConnect(s)
		case s := <-e.disconnect:
			e.handleDisconnect(s)
		case in := <-e.frames:
			e.handleFrame(in.session, in.data)
		case <-e.stop:
			for s := range e.sessions {
				s.close()
			}
			return nil
		}
	}
}

// Stop terminates the loop and closes every session's outbound stream.
// It is safe to call more than once.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	<-e.done
}

// Connect registers a freshly upgraded session with the engine.
func (e *Engine) Connect(s *Session) {
	select {
	case e.connect <- s:
	case <-e.done:
	}
}

// Disconnect removes a session after its transport closed.
func (e *Engine) Disconnect(s *Session) {
	select {
	case e.disconnect <- s:
	case <-e.done:
	}
}

// Receive hands one inbound frame to the engine.
func (e *Engine) Receive(s *Session, data []byte) {
	select {
	case e.frames <- inbound{session: s, data: data}:
	case <-e.done:
	}
}

func (e *Engine) handleConnect(s *Session) {
	e.sessions[s] = struct{}{}
	e.log.Debug("relay: session connected", "session_id", s.id)
}

// handleFrame applies the per-session state machine to one frame.
func (e *Engine) handleFrame(s *Session, data []byte) {
	if _, ok := e.sessions[s]; !ok {
		// A disconnect can be handled ahead of frames the session queued
		// before it; the send channel is closed by then, so those frames
		// are dropped rather than answered.
		return
	}

	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		// Malformed frames are discarded; the connection stays open.
		e.log.Debug("relay: dropping malformed frame", "session_id", s.id, "error", err)
		return
	}

	// A join is only a join when its room is a string; anything else runs
	// through the application-payload path and, while unjoined, draws the
	// rejection below.
	if t, _ := msg["type"].(string); t == frameTypeJoin {
		if room, ok := msg["room"].(string); ok {
			e.handleJoin(s, room, msg)
			return
		}
	}

	if !s.joined {
		s.trySend(errorBytes(errNotJoined))
		return
	}

	e.relay(s, msg)
}

func (e *Engine) handleJoin(s *Session, room string, msg map[string]any) {
	if s.joined {
		// The protocol has no room-switch semantics; a second join is
		// rejected and the session stays in its original room.
		s.trySend(errorBytes(errAlreadyJoined))
		return
	}

	s.joined = true
	s.room = room
	if pid, ok := msg["playerId"].(string); ok {
		s.playerID = pid
	}

	e.registry.Join(room, s)
	e.registry.BroadcastExcept(room, s, memberBytes(frameTypePlayerJoined, s.playerID))

	e.log.Info("relay: session joined room",
		"session_id", s.id,
		"room", room,
		"player_id", s.playerID,
	)
	e.publish(domain.EventSessionJoined{Room: room, SessionID: s.id, PlayerID: s.playerID})
}

// relay stamps the sender's playerId onto a payload that omits one and
// forwards it to the sender's roommates. Payload fields are otherwise
// neither validated nor transformed.
func (e *Engine) relay(s *Session, msg map[string]any) {
	if t, ok := msg["type"].(string); !ok || t == "" {
		// Payloads without a type are dropped, like the rest of the
		// protocol's malformed input.
		return
	}

	if _, ok := msg["playerId"]; !ok && s.playerID != "" {
		msg["playerId"] = s.playerID
	}

	out, err := json.Marshal(msg)
	if err != nil {
		e.log.Debug("relay: dropping unmarshalable payload", "session_id", s.id, "error", err)
		return
	}

	e.registry.BroadcastExcept(s.room, s, out)
	e.publish(domain.EventMessageRelayed{Room: s.room, SessionID: s.id})
}

func (e *Engine) handleDisconnect(s *Session) {
	if _, ok := e.sessions[s]; !ok {
		return
	}
	delete(e.sessions, s)

	if s.joined {
		e.registry.Leave(s.room, s)
		// No-op when the departing session was the last member.
		e.registry.BroadcastExcept(s.room, s, memberBytes(frameTypePlayerLeft, s.playerID))

		e.log.Info("relay: session left room",
			"session_id", s.id,
			"room", s.room,
			"player_id", s.playerID,
		)
		e.publish(domain.EventSessionLeft{Room: s.room, SessionID: s.id, PlayerID: s.playerID})
	}

	s.close()
}

func (e *Engine) publish(ev event.Event) {
	if e.eb == nil {
		return
	}
	e.eb.Publish(context.Background(), ev)
}
