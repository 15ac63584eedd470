package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// drive the engine handlers directly so protocol behavior is tested
// synchronously, without the Run loop in between.

func joined(t *testing.T, e *Engine, room, playerID string) *Session {
	t.Helper()

	s := NewSession()
	e.handleConnect(s)

	frame := `{"type":"join","room":"` + room + `"}`
	if playerID != "" {
		frame = `{"type":"join","room":"` + room + `","playerId":"` + playerID + `"}`
	}
	e.handleFrame(s, []byte(frame))
	require.True(t, s.joined)

	drain(s)
	return s
}

func drain(s *Session) []string {
	var out []string
	for {
		select {
		case m, ok := <-s.send:
			if !ok {
				return out
			}
			out = append(out, string(m))
		default:
			return out
		}
	}
}

func TestEngine_JoinCreatesRoomLazily(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})

	s := NewSession()
	e.handleConnect(s)
	require.Equal(t, 0, e.registry.Rooms())

	e.handleFrame(s, []byte(`{"type":"join","room":"r1","playerId":"p1"}`))

	require.Equal(t, 1, e.registry.Rooms())
	require.Equal(t, 1, e.registry.Members("r1"))
	require.Empty(t, drain(s), "joining session gets no notification itself")
}

func TestEngine_JoinNotifiesExistingMembers(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")

	b := NewSession()
	e.handleConnect(b)
	e.handleFrame(b, []byte(`{"type":"join","room":"r1","playerId":"pb"}`))

	got := drain(a)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type":"player_joined","playerId":"pb"}`, got[0])
	require.Empty(t, drain(b))
}

func TestEngine_JoinWithoutPlayerIDAnnouncesNull(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")

	b := NewSession()
	e.handleConnect(b)
	e.handleFrame(b, []byte(`{"type":"join","room":"r1"}`))

	got := drain(a)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type":"player_joined","playerId":null}`, got[0])
}

func TestEngine_BroadcastExcludesSender(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")
	b := joined(t, e, "r1", "pb")
	c := joined(t, e, "r1", "pc")
	drain(a)
	drain(b)

	e.handleFrame(a, []byte(`{"type":"chat","text":"hi","playerId":"pa"}`))

	wantFrame := `{"type":"chat","text":"hi","playerId":"pa"}`
	for _, member := range []*Session{b, c} {
		got := drain(member)
		require.Len(t, got, 1)
		require.JSONEq(t, wantFrame, got[0])
	}
	require.Empty(t, drain(a), "sender must not receive its own payload")
}

func TestEngine_PlayerIDStamping(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "p1")
	b := joined(t, e, "r1", "p2")
	drain(a)

	e.handleFrame(a, []byte(`{"type":"move","x":5}`))

	got := drain(b)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type":"move","x":5,"playerId":"p1"}`, got[0])
}

func TestEngine_ExistingPlayerIDNotOverwritten(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "p1")
	b := joined(t, e, "r1", "p2")
	drain(a)

	e.handleFrame(a, []byte(`{"type":"move","playerId":"spoofed"}`))

	got := drain(b)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type":"move","playerId":"spoofed"}`, got[0])
}

func TestEngine_NoStampWithoutOwnPlayerID(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "")
	b := joined(t, e, "r1", "pb")
	drain(a)

	e.handleFrame(a, []byte(`{"type":"move","x":1}`))

	got := drain(b)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type":"move","x":1}`, got[0])
}

func TestEngine_UnjoinedRejection(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"application payload":       `{"type":"chat","text":"hi"}`,
		"join with non-string room": `{"type":"join","room":5}`,
		"join with missing room":    `{"type":"join"}`,
		"payload without a type":    `{"x":1}`,
	}

	for name, frame := range tests {
		frame := frame
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			e := NewEngine(Config{})
			s := NewSession()
			e.handleConnect(s)

			e.handleFrame(s, []byte(frame))

			got := drain(s)
			require.Len(t, got, 1, "exactly one error reply")
			require.JSONEq(t, `{"type":"error","message":"not joined"}`, got[0])
			require.False(t, s.joined)
			require.Equal(t, 0, e.registry.Rooms(), "session must not land in any room")
		})
	}
}

func TestEngine_MalformedFrameDiscarded(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	s := NewSession()
	e.handleConnect(s)

	e.handleFrame(s, []byte(`{not json`))

	require.Empty(t, drain(s), "no reply for unparseable frames")
	require.Equal(t, 0, e.registry.Rooms())
}

func TestEngine_PayloadWithoutTypeDropped(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")
	b := joined(t, e, "r1", "pb")
	drain(a)

	e.handleFrame(a, []byte(`{"x":1}`))

	require.Empty(t, drain(b))
	require.Empty(t, drain(a))
}

func TestEngine_SecondJoinRejected(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")

	e.handleFrame(a, []byte(`{"type":"join","room":"r2"}`))

	got := drain(a)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type":"error","message":"already joined"}`, got[0])
	require.Equal(t, 1, e.registry.Members("r1"), "session stays in its original room")
	require.Equal(t, 0, e.registry.Members("r2"))
	require.Equal(t, "r1", a.room)
}

func TestEngine_DisconnectNotifiesRoommates(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")
	b := joined(t, e, "r1", "pb")
	drain(a)

	e.handleDisconnect(a)

	got := drain(b)
	require.Len(t, got, 1)
	require.JSONEq(t, `{"type":"player_left","playerId":"pa"}`, got[0])
	require.Equal(t, 1, e.registry.Members("r1"))
}

func TestEngine_LastDisconnectRemovesRoom(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")

	e.handleDisconnect(a)
	require.Equal(t, 0, e.registry.Rooms())

	// A later join to the same identifier gets a fresh room; prior
	// membership does not leak.
	b := joined(t, e, "r1", "pb")
	require.Equal(t, 1, e.registry.Members("r1"))
	require.Empty(t, drain(b), "no player_joined from a stale member")
}

func TestEngine_UnjoinedDisconnectIsSilent(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	a := joined(t, e, "r1", "pa")

	s := NewSession()
	e.handleConnect(s)
	e.handleDisconnect(s)

	require.Empty(t, drain(a), "nothing to notify for a session that never joined")
}

func TestEngine_FrameAfterDisconnectDropped(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	s := NewSession()
	e.handleConnect(s)
	e.handleDisconnect(s)

	// Frames the session queued before disconnecting can reach the loop
	// after its close; they must not be answered on the closed stream.
	require.NotPanics(t, func() {
		e.handleFrame(s, []byte(`{"type":"chat","text":"hi"}`))
	})

	// A leftover join must not register the dead session either, or later
	// broadcasts to the room would hit its closed stream.
	require.NotPanics(t, func() {
		e.handleFrame(s, []byte(`{"type":"join","room":"r1","playerId":"px"}`))
	})
	require.False(t, s.joined)
	require.Equal(t, 0, e.registry.Rooms())
}

func TestEngine_ConcurrentFramesAndDisconnects(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	go e.Run() //nolint:errcheck // always returns nil
	defer e.Stop()

	// Receive and Disconnect land on separate channels, so the loop may
	// pick up a disconnect ahead of frames queued before it. Churn enough
	// sessions to hit that inversion; a send on a closed stream would
	// panic the loop and fail the run.
	for i := 0; i < 500; i++ {
		s := NewSession()
		e.Connect(s)
		e.Receive(s, []byte(`{"type":"join","room":"r1","playerId":"p"}`))
		e.Receive(s, []byte(`{"type":"move","x":1}`))
		e.Disconnect(s)
	}
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	go e.Run() //nolint:errcheck // always returns nil

	e.Stop()
	require.NotPanics(t, e.Stop)
}

func TestEngine_RunLifecycle(t *testing.T) {
	t.Parallel()

	e := NewEngine(Config{})
	go e.Run() //nolint:errcheck // always returns nil

	s := NewSession()
	e.Connect(s)
	e.Receive(s, []byte(`{"type":"join","room":"r1","playerId":"p1"}`))

	e.Stop()

	// The engine closed every session's outbound stream on stop.
	for range s.Outbound() {
	}

	// Calls after Stop must not block.
	e.Connect(NewSession())
	e.Receive(s, []byte(`{"type":"chat"}`))
	e.Disconnect(s)
}
