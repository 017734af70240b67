package auction

import (
    "sync"

    "code.cloudfoundry.org/clock"
)

// clockState is the per-room timer state machine. A session's clock
// moves Idle -> Armed -> Fired and never backwards; Fired is terminal.
type clockState int

const (
    clockIdle clockState = iota
    clockArmed
    clockFired
)

// Participant is one connected client in a room. The hub only ever
// sends frames through this interface; the socket handler wraps a
// websocket connection in it, and tests substitute fakes.
type Participant interface {
    ID() string
    Send(env Envelope) error
}

// session is the ephemeral per-room runtime state: the connected
// participants and the closure timer. It owns no durable data; after
// a restart, rejoining a room rebuilds an equivalent session from the
// room directory and the bid ledger.
//
// The mutex serializes everything that touches the room: membership
// changes, timer state transitions, and the admission policy's
// read-compare-append sequence. Sessions for different rooms share no
// locks, so a slow room cannot delay another.
type session struct {
    code string

    mu           sync.Mutex
    participants map[string]Participant
    state        clockState
    timer        clock.Timer
    cancel       chan struct{}
}

func newSession(code string) *session {
    return &session{
        code:         code,
        participants: make(map[string]Participant),
        cancel:       make(chan struct{}),
    }
}

// add registers a participant and returns the new member count.
func (s *session) add(p Participant) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.participants[p.ID()] = p
    return len(s.participants)
}

// remove deregisters a participant. It reports the remaining member
// count and whether the session is finished (fired with nobody left),
// at which point the hub may evict it. Removing never touches the
// timer: the room must still close and determine a winner with nobody
// watching.
func (s *session) remove(p Participant) (remaining int, finished bool) {
    s.mu.Lock()
    defer s.mu.Unlock()
    delete(s.participants, p.ID())
    return len(s.participants), len(s.participants) == 0 && s.state == clockFired
}

// snapshot copies the current participant set so sends can happen
// outside the lock. A participant blocked mid-send must not stall
// admission or the clock.
func (s *session) snapshot() []Participant {
    s.mu.Lock()
    defer s.mu.Unlock()
    ps := make([]Participant, 0, len(s.participants))
    for _, p := range s.participants {
        ps = append(ps, p)
    }
    return ps
}

func (s *session) count() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return len(s.participants)
}

// fired reports whether the room's clock has reached its terminal
// state.
func (s *session) fired() bool {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.state == clockFired
}
