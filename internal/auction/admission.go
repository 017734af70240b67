package auction

import (
    "context"
    "errors"
    "math"
    "strings"

    "github.com/sirupsen/logrus"

    "github.com/harvestlink/stubble-market/internal/model"
    "github.com/harvestlink/stubble-market/internal/repository"
)

// SubmitBid runs the admission policy for one proposed bid and reports
// the outcome. An admitted bid is broadcast to every participant of
// the room, submitter included; a refused bid produces a single
// private bid_error frame for the submitter and nothing else.
func (h *Hub) SubmitBid(ctx context.Context, p Participant, req BidRequest) {
    bid, rej := h.admit(ctx, req)
    if rej != nil {
        h.log.WithFields(logrus.Fields{
            "room":   model.NormalizeRoomCode(req.Code),
            "bidder": req.BidderID,
            "amount": req.Amount,
            "reason": rej.Reason,
        }).Info("bid rejected")
        h.send(p, NewEnvelope(TypeBidError, bidError(rej)))
        return
    }

    s := h.session(bid.Room)
    h.broadcast(s, NewEnvelope(TypeBidAccepted, BidAccepted{Bid: *bid, CurrentBid: bid.Amount}))
    h.broadcast(s, NewEnvelope(TypeCurrentBid, CurrentBid{Bid: *bid}))
    h.log.WithFields(logrus.Fields{
        "room":   bid.Room,
        "bidder": bid.Bidder.ID,
        "amount": bid.Amount,
    }).Info("bid accepted")
}

// admit applies the admission gates in order; the first failing gate
// short-circuits with its rejection reason. The final
// read-compare-append runs under the room session's lock, so
// concurrent submissions serialize per room and the loser of a race is
// rejected against the bid that actually won, never against stale
// state.
func (h *Hub) admit(ctx context.Context, req BidRequest) (*model.Bid, *Rejection) {
    // Gate 1: a bidder identity must be claimed.
    if strings.TrimSpace(req.BidderID) == "" {
        return nil, reject(ReasonUnauthenticated, "you must be logged in to place a bid")
    }

    // Gate 2: the room must exist.
    code := model.NormalizeRoomCode(req.Code)
    room, err := h.rooms.ByCode(ctx, code)
    if errors.Is(err, repository.ErrNotFound) {
        return nil, reject(ReasonRoomNotFound, "auction room not found")
    }
    if err != nil {
        h.log.WithError(err).WithField("room", code).Error("room lookup failed during bid")
        return nil, reject(ReasonServerError, "server error occurred while placing bid")
    }

    // Gate 3: the room must still be open.
    if !room.OpenAt(h.clk.Now()) {
        return nil, reject(ReasonAuctionEnded, "this auction has ended")
    }

    // Gate 4: the amount must be a positive finite number.
    if math.IsNaN(req.Amount) || math.IsInf(req.Amount, 0) || req.Amount <= 0 {
        return nil, reject(ReasonInvalidAmount, "invalid bid amount")
    }

    // Gate 5 and 6 run serialized per room. The session lock covers the
    // highest-bid read, the comparison and the ledger append, so two
    // simultaneous submissions cannot both pass against the same
    // observed high.
    s := h.session(code)
    h.arm(s, room)

    s.mu.Lock()
    defer s.mu.Unlock()

    // Re-check closure under the lock. The clock may have fired between
    // gate 3 and here; nothing is admitted at or after the end date.
    if s.state == clockFired || !room.OpenAt(h.clk.Now()) {
        return nil, reject(ReasonAuctionEnded, "this auction has ended")
    }

    current := room.StartBid
    if highest, err := h.ledger.Highest(ctx, code); err == nil {
        current = highest.Amount
    } else if !errors.Is(err, repository.ErrNotFound) {
        h.log.WithError(err).WithField("room", code).Error("highest bid lookup failed during bid")
        return nil, reject(ReasonServerError, "server error occurred while placing bid")
    }
    if req.Amount <= current {
        return nil, rejectTooLow(current)
    }

    bid := &model.Bid{
        Room:   code,
        Bidder: model.UserBidder(req.BidderID, req.BidderName),
        Amount: req.Amount,
    }
    if err := h.ledger.Record(ctx, bid); err != nil {
        h.log.WithError(err).WithField("room", code).Error("ledger append failed")
        return nil, reject(ReasonServerError, "server error occurred while placing bid")
    }
    return bid, nil
}
