package relay

// Registry maps room identifiers to their member sessions. It is the only
// component that mutates room membership. It is not safe for concurrent
// use: all calls must come from the engine loop (or a single test
// goroutine).
//
// Room identifiers are arbitrary client-chosen strings with no validation
// and no capacity limit, so a hostile client can grow the map without
// bound.
type Registry struct {
	rooms map[string]map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]map[*Session]struct{}),
	}
}

// Join adds the session to the room, creating the room on first
// reference. It never fails.
func (r *Registry) Join(roomID string, s *Session) {
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[*Session]struct{})
		r.rooms[roomID] = members
	}
	members[s] = struct{}{}
}

// Leave removes the session from the room and deletes the room once its
// member set is empty. Absent rooms or sessions are a no-op.
func (r *Registry) Leave(roomID string, s *Session) {
	members, ok := r.rooms[roomID]
	if !ok {
		return
	}

	delete(members, s)
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
}

// BroadcastExcept delivers payload to every member of the room other than
// sender. Members that are not writable are skipped silently: no error, no
// retry, no dead-letter. Their cleanup happens on their own close event.
func (r *Registry) BroadcastExcept(roomID string, sender *Session, payload []byte) {
	for member := range r.rooms[roomID] {
		if member == sender {
			continue
		}
		member.trySend(payload)
	}
}

// Members returns the current member count of a room; zero if the room
// does not exist.
func (r *Registry) Members(roomID string) int {
	return len(r.rooms[roomID])
}

// Rooms returns the number of live rooms.
func (r *Registry) Rooms() int {
	return len(r.rooms)
}
