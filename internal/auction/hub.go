// Package auction implements the real-time bidding engine: per-room
// sessions with a closure timer, serialized bid admission against the
// durable ledger, and fan-out of bid and closure events to exactly the
// participants of the affected room.
package auction

import (
    "context"
    "errors"
    "sync"
    "time"

    "code.cloudfoundry.org/clock"
    "github.com/sirupsen/logrus"

    "github.com/harvestlink/stubble-market/internal/model"
    "github.com/harvestlink/stubble-market/internal/repository"
)

// RoomDirectory resolves auction rooms by code. Backed by the rooms
// collection in production; the engine never writes through it.
type RoomDirectory interface {
    ByCode(ctx context.Context, code string) (*model.Room, error)
}

// BidLedger is the durable, append-only record of admitted bids.
// Record must be immediately visible to subsequent reads; Highest
// returns repository.ErrNotFound for a room with no rows.
type BidLedger interface {
    Record(ctx context.Context, bid *model.Bid) error
    Highest(ctx context.Context, roomCode string) (*model.Bid, error)
    Recent(ctx context.Context, roomCode string, limit int) ([]model.Bid, error)
}

// WinnerNotice is handed to the Notifier when a room closes with a
// winning bid.
type WinnerNotice struct {
    RoomCode   string
    RoomName   string
    BidderID   string
    BidderName string
    Amount     float64
    EndedAt    time.Time
}

// Notifier is the external winner-notification collaborator. Delivery
// (email, queue, whatever) is its problem; the engine just hands over
// the notice once per closed room with a winner.
type Notifier interface {
    NotifyWinner(ctx context.Context, n WinnerNotice) error
}

const defaultHistoryLimit = 10

// closureTimeout bounds the winner-determination query when a room
// closes. The closure event fires even if the query fails.
const closureTimeout = 10 * time.Second

// Config carries the hub's collaborators. Rooms and Ledger are
// required; Clock defaults to the wall clock, Log to a default logrus
// logger, HistoryLimit to 10, and a nil Notifier means winners are
// only broadcast, not forwarded.
type Config struct {
    Rooms        RoomDirectory
    Ledger       BidLedger
    Notifier     Notifier
    Clock        clock.Clock
    Log          *logrus.Logger
    HistoryLimit int
}

// Hub owns every live auction session. It is the only component that
// touches participant sets, and all bid admission funnels through it
// so that per-room serialization holds process-wide.
type Hub struct {
    rooms        RoomDirectory
    ledger       BidLedger
    notifier     Notifier
    clk          clock.Clock
    log          *logrus.Logger
    historyLimit int

    mu       sync.Mutex
    sessions map[string]*session
}

// NewHub builds a Hub from the given config.
func NewHub(cfg Config) *Hub {
    if cfg.Clock == nil {
        cfg.Clock = clock.NewClock()
    }
    if cfg.Log == nil {
        cfg.Log = logrus.New()
    }
    if cfg.HistoryLimit <= 0 {
        cfg.HistoryLimit = defaultHistoryLimit
    }
    return &Hub{
        rooms:        cfg.Rooms,
        ledger:       cfg.Ledger,
        notifier:     cfg.Notifier,
        clk:          cfg.Clock,
        log:          cfg.Log,
        historyLimit: cfg.HistoryLimit,
        sessions:     make(map[string]*session),
    }
}

// Join registers the participant in the room and sends it a private
// snapshot: room details, starting bid, current highest bid, recent
// history and remaining time. Joining arms the room's closure timer if
// it is not armed yet. Failures are reported privately and leave the
// participant unregistered.
func (h *Hub) Join(ctx context.Context, p Participant, req JoinRequest) {
    code := model.NormalizeRoomCode(req.Code)
    if code == "" {
        h.send(p, NewEnvelope(TypeRoomError, RoomError{Message: "missing room code"}))
        return
    }

    room, err := h.rooms.ByCode(ctx, code)
    if errors.Is(err, repository.ErrNotFound) {
        h.send(p, NewEnvelope(TypeRoomError, RoomError{Code: code, Message: "room not found"}))
        return
    }
    if err != nil {
        h.log.WithError(err).WithField("room", code).Error("room lookup failed during join")
        h.send(p, NewEnvelope(TypeRoomError, RoomError{Code: code, Message: "server error"}))
        return
    }

    s := h.session(code)
    count := s.add(p)
    h.arm(s, room)

    now := h.clk.Now()
    h.send(p, NewEnvelope(TypeRoomDetails, RoomDetails{
        Code:         room.Code,
        Name:         room.Name,
        Description:  room.Description,
        StartBid:     room.StartBid,
        StartDate:    room.StartDate,
        EndDate:      room.EndDate,
        Participants: count,
    }))
    h.send(p, NewEnvelope(TypeStartingBid, StartingBid{Amount: room.StartBid}))

    if highest, err := h.ledger.Highest(ctx, code); err == nil {
        h.send(p, NewEnvelope(TypeCurrentBid, CurrentBid{Bid: *highest}))
    } else if !errors.Is(err, repository.ErrNotFound) {
        h.log.WithError(err).WithField("room", code).Error("highest bid lookup failed during join")
    }

    if bids, err := h.ledger.Recent(ctx, code, h.historyLimit); err == nil {
        h.send(p, NewEnvelope(TypeBidHistory, BidHistory{Bids: bids}))
    } else {
        h.log.WithError(err).WithField("room", code).Error("bid history lookup failed during join")
    }

    if room.OpenAt(now) {
        h.send(p, NewEnvelope(TypeTimeRemaining, TimeRemaining{
            Milliseconds: room.Remaining(now).Milliseconds(),
        }))
    } else {
        h.send(p, NewEnvelope(TypeTimeRemaining, TimeRemaining{Ended: true}))
        h.send(p, NewEnvelope(TypeAuctionEnded, AuctionEnded{Code: code}))
    }

    h.broadcast(s, NewEnvelope(TypeParticipantCount, ParticipantCount{Count: s.count()}))
    h.log.WithFields(logrus.Fields{"room": code, "participant": p.ID()}).Info("participant joined room")
}

// Leave deregisters the participant from the room. The closure timer
// is room-scoped, not connection-scoped: the last participant leaving
// does not cancel it, and the room still closes and resolves a winner
// with nobody connected.
func (h *Hub) Leave(p Participant, code string) {
    code = model.NormalizeRoomCode(code)

    h.mu.Lock()
    s, ok := h.sessions[code]
    h.mu.Unlock()
    if !ok {
        return
    }

    remaining, finished := s.remove(p)
    if finished {
        h.evict(code)
        return
    }
    h.broadcast(s, NewEnvelope(TypeParticipantCount, ParticipantCount{Count: remaining}))
}

// session returns the live session for the code, creating it lazily.
func (h *Hub) session(code string) *session {
    h.mu.Lock()
    defer h.mu.Unlock()
    s, ok := h.sessions[code]
    if !ok {
        s = newSession(code)
        h.sessions[code] = s
    }
    return s
}

// arm transitions the session's clock from Idle to Armed, scheduling
// closure at the room's end date. Arming is idempotent: a session that
// is already Armed or Fired is left untouched, so repeated joins can
// never produce a second timer or a second closure event. A room whose
// end date has already passed goes straight to Fired with no closure
// broadcast; callers report "ended" privately instead.
func (h *Hub) arm(s *session, room *model.Room) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.state != clockIdle {
        return
    }
    now := h.clk.Now()
    if !room.OpenAt(now) {
        s.state = clockFired
        return
    }
    s.state = clockArmed
    s.timer = h.clk.NewTimer(room.EndDate.Sub(now))
    go h.watch(s, room, s.timer)
}

// watch waits for the armed timer to elapse and runs closure. The
// cancel channel only closes on hub shutdown.
func (h *Hub) watch(s *session, room *model.Room, t clock.Timer) {
    select {
    case <-t.C():
        h.closeRoom(s, room)
    case <-s.cancel:
        t.Stop()
    }
}

// closeRoom performs the Armed -> Fired transition exactly once,
// resolves the winner from the ledger and fans out the closure events.
// A storage failure during winner determination still closes the room:
// participants get an auction_error instead of a winner, and the room
// never hangs open.
func (h *Hub) closeRoom(s *session, room *model.Room) {
    s.mu.Lock()
    if s.state == clockFired {
        s.mu.Unlock()
        return
    }
    s.state = clockFired
    s.timer = nil
    s.mu.Unlock()

    h.log.WithField("room", s.code).Info("auction closed")
    h.broadcast(s, NewEnvelope(TypeAuctionEnded, AuctionEnded{Code: s.code}))

    ctx, cancel := context.WithTimeout(context.Background(), closureTimeout)
    defer cancel()

    highest, err := h.ledger.Highest(ctx, s.code)
    switch {
    case errors.Is(err, repository.ErrNotFound):
        h.broadcast(s, NewEnvelope(TypeAuctionEnded, AuctionEnded{Code: s.code, Message: "auction ended with no bids"}))
    case err != nil:
        h.log.WithError(err).WithField("room", s.code).Error("winner determination failed")
        h.broadcast(s, NewEnvelope(TypeAuctionError, AuctionError{Code: s.code, Message: "could not determine auction winner"}))
    case highest.Bidder.IsSystem():
        // Only the seed bid was recorded; nobody actually bid.
        h.broadcast(s, NewEnvelope(TypeAuctionEnded, AuctionEnded{Code: s.code, Message: "auction ended with no bids"}))
    default:
        h.broadcast(s, NewEnvelope(TypeAuctionWinner, AuctionWinner{
            Code:       s.code,
            BidderID:   highest.Bidder.ID,
            BidderName: highest.Bidder.DisplayName,
            Amount:     highest.Amount,
        }))
        h.log.WithFields(logrus.Fields{
            "room":   s.code,
            "bidder": highest.Bidder.ID,
            "amount": highest.Amount,
        }).Info("auction winner resolved")
        if h.notifier != nil {
            notice := WinnerNotice{
                RoomCode:   s.code,
                RoomName:   room.Name,
                BidderID:   highest.Bidder.ID,
                BidderName: highest.Bidder.DisplayName,
                Amount:     highest.Amount,
                EndedAt:    room.EndDate,
            }
            if err := h.notifier.NotifyWinner(ctx, notice); err != nil {
                h.log.WithError(err).WithField("room", s.code).Error("winner notification failed")
            }
        }
    }

    if s.count() == 0 {
        h.evict(s.code)
    }
}

// evict drops a finished session. Durable state is untouched; a later
// join rebuilds an equivalent session from the directory and ledger.
func (h *Hub) evict(code string) {
    h.mu.Lock()
    delete(h.sessions, code)
    h.mu.Unlock()
}

// broadcast fans an envelope out to every participant of the room.
// Sends happen outside the session lock; one dead connection only
// loses its own frame.
func (h *Hub) broadcast(s *session, env Envelope) {
    for _, p := range s.snapshot() {
        h.send(p, env)
    }
}

// send delivers one frame to one participant, logging failures.
func (h *Hub) send(p Participant, env Envelope) {
    if err := p.Send(env); err != nil {
        h.log.WithError(err).WithFields(logrus.Fields{
            "participant": p.ID(),
            "type":        env.Type,
        }).Warn("failed to send frame")
    }
}

// Shutdown stops all timer watchers. Pending closures that have not
// fired are abandoned; durable state is unaffected and a restarted
// process re-arms rooms as participants rejoin.
func (h *Hub) Shutdown() {
    h.mu.Lock()
    defer h.mu.Unlock()
    for _, s := range h.sessions {
        s.mu.Lock()
        if s.state == clockArmed {
            close(s.cancel)
        }
        s.mu.Unlock()
    }
    h.sessions = make(map[string]*session)
}
