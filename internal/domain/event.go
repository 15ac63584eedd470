package domain

const (
	EventNameSessionJoined  = "session.joined"
	EventNameSessionLeft    = "session.left"
	EventNameMessageRelayed = "message.relayed"
	EventNameScoreSubmitted = "score.submitted"
)

// EventSessionJoined is published when a session completes the join
// handshake and becomes a room member.
type EventSessionJoined struct {
	Room      string
	SessionID string
	PlayerID  string
}

func (EventSessionJoined) Name() string { return EventNameSessionJoined }

// EventSessionLeft is published when a joined session disconnects.
type EventSessionLeft struct {
	Room      string
	SessionID string
	PlayerID  string
}

func (EventSessionLeft) Name() string { return EventNameSessionLeft }

// EventMessageRelayed is published for every application payload forwarded
// to a room.
type EventMessageRelayed struct {
	Room      string
	SessionID string
}

func (EventMessageRelayed) Name() string { return EventNameMessageRelayed }

// EventScoreSubmitted is published after a leaderboard submission is
// accepted.
type EventScoreSubmitted struct {
	Entry LeaderboardEntry
}

func (EventScoreSubmitted) Name() string { return EventNameScoreSubmitted }
