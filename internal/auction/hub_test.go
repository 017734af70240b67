package auction

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "sync"
    "testing"
    "time"

    "code.cloudfoundry.org/clock"
    "code.cloudfoundry.org/clock/fakeclock"
    "github.com/google/uuid"
    "github.com/sirupsen/logrus"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/harvestlink/stubble-market/internal/model"
    "github.com/harvestlink/stubble-market/internal/repository"
)

// ---- in-memory fakes -------------------------------------------------

type memDirectory struct {
    mu    sync.Mutex
    rooms map[string]*model.Room
    err   error
}

func newMemDirectory(rooms ...*model.Room) *memDirectory {
    d := &memDirectory{rooms: make(map[string]*model.Room)}
    for _, r := range rooms {
        d.rooms[r.Code] = r
    }
    return d
}

func (d *memDirectory) ByCode(_ context.Context, code string) (*model.Room, error) {
    d.mu.Lock()
    defer d.mu.Unlock()
    if d.err != nil {
        return nil, d.err
    }
    r, ok := d.rooms[model.NormalizeRoomCode(code)]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *r
    return &cp, nil
}

type memLedger struct {
    mu         sync.Mutex
    bids       map[string][]model.Bid
    seq        int
    base       time.Time
    recordErr  error
    highestErr error
}

func newMemLedger() *memLedger {
    return &memLedger{
        bids: make(map[string][]model.Bid),
        base: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
    }
}

func (l *memLedger) Record(_ context.Context, bid *model.Bid) error {
    l.mu.Lock()
    defer l.mu.Unlock()
    if l.recordErr != nil {
        return l.recordErr
    }
    l.seq++
    bid.ID = uuid.NewString()
    bid.CreatedAt = l.base.Add(time.Duration(l.seq) * time.Millisecond)
    l.bids[bid.Room] = append(l.bids[bid.Room], *bid)
    return nil
}

func (l *memLedger) Highest(_ context.Context, roomCode string) (*model.Bid, error) {
    l.mu.Lock()
    defer l.mu.Unlock()
    if l.highestErr != nil {
        return nil, l.highestErr
    }
    var best *model.Bid
    for i := range l.bids[roomCode] {
        b := l.bids[roomCode][i]
        if best == nil || b.Amount > best.Amount {
            cp := b
            best = &cp
        }
    }
    if best == nil {
        return nil, repository.ErrNotFound
    }
    return best, nil
}

func (l *memLedger) Recent(_ context.Context, roomCode string, limit int) ([]model.Bid, error) {
    l.mu.Lock()
    defer l.mu.Unlock()
    all := l.bids[roomCode]
    var out []model.Bid
    for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
        out = append(out, all[i])
    }
    return out, nil
}

// amounts returns the recorded amounts in ledger insertion order.
func (l *memLedger) amounts(roomCode string) []float64 {
    l.mu.Lock()
    defer l.mu.Unlock()
    var out []float64
    for _, b := range l.bids[roomCode] {
        out = append(out, b.Amount)
    }
    return out
}

type fakeNotifier struct {
    mu      sync.Mutex
    notices []WinnerNotice
}

func (n *fakeNotifier) NotifyWinner(_ context.Context, notice WinnerNotice) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    n.notices = append(n.notices, notice)
    return nil
}

func (n *fakeNotifier) count() int {
    n.mu.Lock()
    defer n.mu.Unlock()
    return len(n.notices)
}

type fakeParticipant struct {
    id string

    mu     sync.Mutex
    frames []Envelope
    ch     chan Envelope
}

func newFakeParticipant() *fakeParticipant {
    return &fakeParticipant{id: uuid.NewString(), ch: make(chan Envelope, 64)}
}

func (p *fakeParticipant) ID() string { return p.id }

func (p *fakeParticipant) Send(env Envelope) error {
    p.mu.Lock()
    p.frames = append(p.frames, env)
    p.mu.Unlock()
    select {
    case p.ch <- env:
    default:
    }
    return nil
}

// next blocks until a frame of the given type arrives, discarding
// others along the way.
func (p *fakeParticipant) next(t *testing.T, typ string) Envelope {
    t.Helper()
    deadline := time.After(2 * time.Second)
    for {
        select {
        case env := <-p.ch:
            if env.Type == typ {
                return env
            }
        case <-deadline:
            t.Fatalf("timed out waiting for %q frame", typ)
            return Envelope{}
        }
    }
}

// countType counts received frames of the given type so far.
func (p *fakeParticipant) countType(typ string) int {
    p.mu.Lock()
    defer p.mu.Unlock()
    n := 0
    for _, env := range p.frames {
        if env.Type == typ {
            n++
        }
    }
    return n
}

func decodeFrame[T any](t *testing.T, env Envelope) T {
    t.Helper()
    var v T
    require.NoError(t, json.Unmarshal(env.Data, &v))
    return v
}

func testRoom(code string, startBid float64, now time.Time, open time.Duration) *model.Room {
    return &model.Room{
        Code:      model.NormalizeRoomCode(code),
        Name:      "Room " + code,
        StartBid:  startBid,
        StartDate: now.Add(-time.Hour),
        EndDate:   now.Add(open),
        CreatedAt: now.Add(-time.Hour),
    }
}

func quietLogger() *logrus.Logger {
    log := logrus.New()
    log.SetOutput(io.Discard)
    return log
}

func newTestHub(clk clock.Clock, dir RoomDirectory, ledger BidLedger, n Notifier) *Hub {
    return NewHub(Config{Rooms: dir, Ledger: ledger, Notifier: n, Clock: clk, Log: quietLogger()})
}

// seedLedger records the room-creation seed bid the admin flow writes.
func seedLedger(t *testing.T, l *memLedger, room *model.Room) {
    t.Helper()
    require.NoError(t, l.Record(context.Background(), &model.Bid{
        Room:   room.Code,
        Bidder: model.SystemBidder(),
        Amount: room.StartBid,
    }))
}

// ---- join and snapshot ----------------------------------------------

func TestJoinSendsSnapshot(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, 2*time.Minute)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    hub := newTestHub(fc, newMemDirectory(room), ledger, nil)
    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "field1"})

    details := decodeFrame[RoomDetails](t, p.next(t, TypeRoomDetails))
    assert.Equal(t, "FIELD1", details.Code)
    assert.Equal(t, 100.0, details.StartBid)
    assert.Equal(t, 1, details.Participants)

    starting := decodeFrame[StartingBid](t, p.next(t, TypeStartingBid))
    assert.Equal(t, 100.0, starting.Amount)

    current := decodeFrame[CurrentBid](t, p.next(t, TypeCurrentBid))
    assert.Equal(t, 100.0, current.Bid.Amount)
    assert.True(t, current.Bid.Bidder.IsSystem())

    history := decodeFrame[BidHistory](t, p.next(t, TypeBidHistory))
    require.Len(t, history.Bids, 1)

    remaining := decodeFrame[TimeRemaining](t, p.next(t, TypeTimeRemaining))
    assert.False(t, remaining.Ended)
    assert.Equal(t, (2 * time.Minute).Milliseconds(), remaining.Milliseconds)
}

func TestJoinSnapshotIdempotent(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, time.Hour)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    hub := newTestHub(fc, newMemDirectory(room), ledger, nil)
    p1 := newFakeParticipant()
    p2 := newFakeParticipant()
    hub.Join(context.Background(), p1, JoinRequest{Code: "FIELD1"})
    hub.Join(context.Background(), p2, JoinRequest{Code: "FIELD1"})

    s1 := decodeFrame[StartingBid](t, p1.next(t, TypeStartingBid))
    s2 := decodeFrame[StartingBid](t, p2.next(t, TypeStartingBid))
    assert.Equal(t, s1.Amount, s2.Amount)

    c1 := decodeFrame[CurrentBid](t, p1.next(t, TypeCurrentBid))
    c2 := decodeFrame[CurrentBid](t, p2.next(t, TypeCurrentBid))
    assert.Equal(t, c1.Bid.Amount, c2.Bid.Amount)
}

func TestJoinMissingCode(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    hub := newTestHub(fc, newMemDirectory(), newMemLedger(), nil)

    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "   "})

    p.next(t, TypeRoomError)
    assert.Zero(t, fc.WatcherCount())
}

func TestJoinUnknownRoom(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    hub := newTestHub(fc, newMemDirectory(), newMemLedger(), nil)

    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "NOPE"})

    roomErr := decodeFrame[RoomError](t, p.next(t, TypeRoomError))
    assert.Equal(t, "NOPE", roomErr.Code)

    // No session, no timer.
    hub.mu.Lock()
    assert.Empty(t, hub.sessions)
    hub.mu.Unlock()
    assert.Zero(t, fc.WatcherCount())
}

func TestJoinEndedRoom(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("OLD", 100, now, -time.Minute)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    hub := newTestHub(fc, newMemDirectory(room), ledger, nil)
    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "OLD"})

    // Historical data is still served.
    history := decodeFrame[BidHistory](t, p.next(t, TypeBidHistory))
    require.Len(t, history.Bids, 1)

    remaining := decodeFrame[TimeRemaining](t, p.next(t, TypeTimeRemaining))
    assert.True(t, remaining.Ended)
    p.next(t, TypeAuctionEnded)

    // Straight to Fired: no timer was armed for the dead room.
    assert.Zero(t, fc.WatcherCount())
}

// ---- broadcast scoping ----------------------------------------------

func TestBroadcastStaysInRoom(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    roomA := testRoom("AAA", 100, now, time.Hour)
    roomB := testRoom("BBB", 100, now, time.Hour)
    ledger := newMemLedger()
    seedLedger(t, ledger, roomA)
    seedLedger(t, ledger, roomB)

    hub := newTestHub(fc, newMemDirectory(roomA, roomB), ledger, nil)
    pa := newFakeParticipant()
    pb := newFakeParticipant()
    hub.Join(context.Background(), pa, JoinRequest{Code: "AAA"})
    hub.Join(context.Background(), pb, JoinRequest{Code: "BBB"})

    hub.SubmitBid(context.Background(), pa, BidRequest{
        Code: "AAA", BidderID: "u1", BidderName: "Farmer Singh", Amount: 150,
    })

    accepted := decodeFrame[BidAccepted](t, pa.next(t, TypeBidAccepted))
    assert.Equal(t, 150.0, accepted.CurrentBid)
    assert.Zero(t, pb.countType(TypeBidAccepted), "bid leaked into another room")
}

func TestBidBroadcastReachesSubmitterAndPeers(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, time.Hour)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    hub := newTestHub(fc, newMemDirectory(room), ledger, nil)
    p1 := newFakeParticipant()
    p2 := newFakeParticipant()
    hub.Join(context.Background(), p1, JoinRequest{Code: "FIELD1"})
    hub.Join(context.Background(), p2, JoinRequest{Code: "FIELD1"})

    hub.SubmitBid(context.Background(), p1, BidRequest{
        Code: "FIELD1", BidderID: "u1", BidderName: "AgriCorp", Amount: 120,
    })

    for _, p := range []*fakeParticipant{p1, p2} {
        accepted := decodeFrame[BidAccepted](t, p.next(t, TypeBidAccepted))
        assert.Equal(t, 120.0, accepted.Bid.Amount)
        assert.Equal(t, "u1", accepted.Bid.Bidder.ID)
        current := decodeFrame[CurrentBid](t, p.next(t, TypeCurrentBid))
        assert.Equal(t, 120.0, current.Bid.Amount)
    }
}

// ---- closure ---------------------------------------------------------

func TestSingleClosurePerRoom(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, 2*time.Minute)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    notifier := &fakeNotifier{}
    hub := newTestHub(fc, newMemDirectory(room), ledger, notifier)

    p1 := newFakeParticipant()
    p2 := newFakeParticipant()
    hub.Join(context.Background(), p1, JoinRequest{Code: "FIELD1"})
    hub.Join(context.Background(), p2, JoinRequest{Code: "FIELD1"})

    // Repeated joins arm exactly one timer.
    require.Equal(t, 1, fc.WatcherCount())

    hub.SubmitBid(context.Background(), p1, BidRequest{
        Code: "FIELD1", BidderID: "u9", BidderName: "BioFuel Ltd", Amount: 300,
    })

    fc.WaitForWatcherAndIncrement(2 * time.Minute)

    for _, p := range []*fakeParticipant{p1, p2} {
        winner := decodeFrame[AuctionWinner](t, p.next(t, TypeAuctionWinner))
        assert.Equal(t, "u9", winner.BidderID)
        assert.Equal(t, 300.0, winner.Amount)
    }

    // Give any duplicate closure a chance to surface, then check there
    // was exactly one winner broadcast per participant.
    time.Sleep(50 * time.Millisecond)
    assert.Equal(t, 1, p1.countType(TypeAuctionWinner))
    assert.Equal(t, 1, p2.countType(TypeAuctionWinner))
    assert.Equal(t, 1, notifier.count())

    // Joining the closed room reports ended privately, with no new
    // timer and no second winner broadcast.
    p3 := newFakeParticipant()
    hub.Join(context.Background(), p3, JoinRequest{Code: "FIELD1"})
    p3.next(t, TypeAuctionEnded)
    assert.Zero(t, fc.WatcherCount())
    assert.Zero(t, p3.countType(TypeAuctionWinner))
}

func TestClosureNoBids(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, time.Minute)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    notifier := &fakeNotifier{}
    hub := newTestHub(fc, newMemDirectory(room), ledger, notifier)
    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "FIELD1"})

    fc.WaitForWatcherAndIncrement(time.Minute)

    // Closure marker, then the no-bids variant; the seed row does not
    // count as a winner.
    p.next(t, TypeAuctionEnded)
    ended := decodeFrame[AuctionEnded](t, p.next(t, TypeAuctionEnded))
    assert.Contains(t, ended.Message, "no bids")
    assert.Zero(t, p.countType(TypeAuctionWinner))
    assert.Zero(t, notifier.count())
}

func TestClosureSurvivesStorageFailure(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, time.Minute)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    hub := newTestHub(fc, newMemDirectory(room), ledger, nil)
    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "FIELD1"})

    ledger.mu.Lock()
    ledger.highestErr = fmt.Errorf("primary stepped down")
    ledger.mu.Unlock()

    fc.WaitForWatcherAndIncrement(time.Minute)

    // The room still closes; participants learn determination failed.
    p.next(t, TypeAuctionEnded)
    aerr := decodeFrame[AuctionError](t, p.next(t, TypeAuctionError))
    assert.Equal(t, "FIELD1", aerr.Code)

    // And no bids are admitted afterwards.
    _, rej := hub.admit(context.Background(), BidRequest{Code: "FIELD1", BidderID: "u1", Amount: 500})
    require.NotNil(t, rej)
    assert.Equal(t, ReasonAuctionEnded, rej.Reason)
}

func TestLeaveDoesNotCancelTimer(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, time.Minute)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    notifier := &fakeNotifier{}
    hub := newTestHub(fc, newMemDirectory(room), ledger, notifier)
    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "FIELD1"})

    hub.SubmitBid(context.Background(), p, BidRequest{
        Code: "FIELD1", BidderID: "u2", BidderName: "GreenMills", Amount: 250,
    })
    hub.Leave(p, "FIELD1")

    // The room closes and resolves its winner with nobody watching.
    fc.WaitForWatcherAndIncrement(time.Minute)
    require.Eventually(t, func() bool { return notifier.count() == 1 }, 2*time.Second, 10*time.Millisecond)
    notifier.mu.Lock()
    assert.Equal(t, "u2", notifier.notices[0].BidderID)
    notifier.mu.Unlock()
}

func TestFinishedSessionIsEvicted(t *testing.T) {
    now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
    fc := fakeclock.NewFakeClock(now)
    room := testRoom("FIELD1", 100, now, time.Minute)
    ledger := newMemLedger()
    seedLedger(t, ledger, room)

    hub := newTestHub(fc, newMemDirectory(room), ledger, nil)
    p := newFakeParticipant()
    hub.Join(context.Background(), p, JoinRequest{Code: "FIELD1"})

    fc.WaitForWatcherAndIncrement(time.Minute)
    p.next(t, TypeAuctionEnded)

    hub.Leave(p, "FIELD1")
    hub.mu.Lock()
    _, ok := hub.sessions["FIELD1"]
    hub.mu.Unlock()
    assert.False(t, ok, "fired empty session should be evicted")
}
