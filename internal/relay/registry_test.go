package relay

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_JoinAndLeave(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	a, b := NewSession(), NewSession()

	r.Join("r1", a)
	require.Equal(t, 1, r.Members("r1"))
	require.Equal(t, 1, r.Rooms())

	// Membership is a set; a double join is idempotent.
	r.Join("r1", a)
	require.Equal(t, 1, r.Members("r1"))

	r.Join("r1", b)
	require.Equal(t, 2, r.Members("r1"))

	r.Leave("r1", a)
	require.Equal(t, 1, r.Members("r1"))
	require.Equal(t, 1, r.Rooms())

	r.Leave("r1", b)
	require.Equal(t, 0, r.Rooms(), "empty rooms are deleted")
}

func TestRegistry_LeaveAbsentIsNoop(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	s := NewSession()

	r.Leave("missing", s)
	require.Equal(t, 0, r.Rooms())

	r.Join("r1", NewSession())
	r.Leave("r1", s)
	require.Equal(t, 1, r.Members("r1"))
}

func TestRegistry_BroadcastExceptSkipsUnwritable(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	sender, healthy, stuck := NewSession(), NewSession(), NewSession()

	r.Join("r1", sender)
	r.Join("r1", healthy)
	r.Join("r1", stuck)

	// Fill the stuck peer's buffer so it is not writable.
	for stuck.trySend([]byte("x")) {
	}

	r.BroadcastExcept("r1", sender, []byte("payload"))

	got := drain(healthy)
	require.Equal(t, []string{"payload"}, got)
	require.Empty(t, drain(sender))

	// The stuck peer stays a member; its payload was dropped, nothing more.
	require.Equal(t, 3, r.Members("r1"))
}

func TestRegistry_BroadcastToMissingRoom(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.BroadcastExcept("missing", NewSession(), []byte("payload"))
	require.Equal(t, 0, r.Rooms())
}
