package relay

import (
	"sync"

	"github.com/google/uuid"
)

const sendBuffer = 256

// Session is the server-side state of one connected client. The transport
// owns the network connection; the session is the bridge between it and
// the engine: inbound frames are handed to the engine, outbound frames are
// queued on the send channel for the transport's write loop to drain.
//
// The protocol fields (joined, room, playerID) are owned by the engine
// loop and must not be touched elsewhere.
type Session struct {
	id        string
	send      chan []byte
	closeOnce sync.Once

	joined   bool
	room     string
	playerID string
}

func NewSession() *Session {
	return &Session{
		id:   uuid.Must(uuid.NewV7()).String(),
		send: make(chan []byte, sendBuffer),
	}
}

// ID is a server-generated identifier used for logging. It is unrelated to
// the client-supplied playerId.
func (s *Session) ID() string {
	return s.id
}

// Outbound is the stream of frames to write to the client. It is closed by
// the engine when the session ends.
func (s *Session) Outbound() <-chan []byte {
	return s.send
}

// trySend queues a frame without blocking. A session whose buffer is full
// is not writable and the frame is dropped for it.
func (s *Session) trySend(p []byte) bool {
	select {
	case s.send <- p:
		return true
	default:
		return false
	}
}

func (s *Session) close() {
	s.closeOnce.Do(func() {
		close(s.send)
	})
}
