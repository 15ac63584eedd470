package relay

import "encoding/json"

// Known frame types. Anything else on an inbound frame is an application
// payload and is relayed without interpretation.
const (
	frameTypeJoin         = "join"
	frameTypePlayerJoined = "player_joined"
	frameTypePlayerLeft   = "player_left"
	frameTypeError        = "error"
)

const (
	errNotJoined     = "not joined"
	errAlreadyJoined = "already joined"
)

// memberFrame announces a roommate joining or leaving. PlayerID is a
// pointer so a session that never supplied one serializes as null.
type memberFrame struct {
	Type     string  `json:"type"`
	PlayerID *string `json:"playerId"`
}

type errorFrame struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func errorBytes(message string) []byte {
	return marshalFrame(errorFrame{Type: frameTypeError, Message: message})
}

func memberBytes(frameType, playerID string) []byte {
	f := memberFrame{Type: frameType}
	if playerID != "" {
		f.PlayerID = &playerID
	}
	return marshalFrame(f)
}

func marshalFrame(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Outbound frames are marshal-safe by construction.
		panic(err)
	}
	return b
}
