package auction

import (
    "encoding/json"
    "time"

    "github.com/harvestlink/stubble-market/internal/model"
)

// Message types exchanged over the auction socket. Client to server:
// join_room, send_bid, leave_room. Everything else flows server to
// client, either privately (snapshot and error frames) or as a room
// broadcast.
const (
    TypeJoinRoom  = "join_room"
    TypeSendBid   = "send_bid"
    TypeLeaveRoom = "leave_room"

    TypeRoomDetails      = "room_details"
    TypeStartingBid      = "starting_bid"
    TypeCurrentBid       = "current_bid"
    TypeBidHistory       = "bid_history"
    TypeTimeRemaining    = "time_remaining"
    TypeParticipantCount = "participant_count"

    TypeBidAccepted = "bid_accepted"
    TypeBidError    = "bid_error"
    TypeRoomError   = "room_error"

    TypeAuctionEnded  = "auction_ended"
    TypeAuctionWinner = "auction_winner"
    TypeAuctionError  = "auction_error"
)

// Envelope is the wire frame: a type tag plus a type-specific payload.
type Envelope struct {
    Type string          `json:"type"`
    Data json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload in an Envelope. Payloads are our own
// plain structs, so marshalling cannot fail in practice; a marshal
// error yields an envelope with an empty payload rather than a panic.
func NewEnvelope(typ string, v any) Envelope {
    data, err := json.Marshal(v)
    if err != nil {
        return Envelope{Type: typ}
    }
    return Envelope{Type: typ, Data: data}
}

// JoinRequest asks to enter a room.
type JoinRequest struct {
    Code string `json:"code"`
}

// BidRequest submits an offer. BidderID is the opaque identity claimed
// by the client; the admission policy only requires it to be present.
type BidRequest struct {
    Code       string  `json:"code"`
    BidderID   string  `json:"bidder_id"`
    BidderName string  `json:"bidder_name"`
    Amount     float64 `json:"amount"`
}

// RoomDetails is the private room snapshot sent on join.
type RoomDetails struct {
    Code         string    `json:"code"`
    Name         string    `json:"name"`
    Description  string    `json:"description"`
    StartBid     float64   `json:"start_bid"`
    StartDate    time.Time `json:"start_date"`
    EndDate      time.Time `json:"end_date"`
    Participants int       `json:"participants"`
}

// StartingBid carries the room's floor amount.
type StartingBid struct {
    Amount float64 `json:"amount"`
}

// CurrentBid carries the highest recorded bid for the room.
type CurrentBid struct {
    Bid model.Bid `json:"bid"`
}

// BidHistory replays recent bids, newest first, bounded by the hub's
// history limit.
type BidHistory struct {
    Bids []model.Bid `json:"bids"`
}

// TimeRemaining reports milliseconds until closure, or Ended for rooms
// past their end date.
type TimeRemaining struct {
    Milliseconds int64 `json:"milliseconds"`
    Ended        bool  `json:"ended"`
}

// ParticipantCount is broadcast whenever the room's membership changes.
type ParticipantCount struct {
    Count int `json:"count"`
}

// BidAccepted is broadcast to the whole room, submitter included, for
// every admitted bid.
type BidAccepted struct {
    Bid        model.Bid `json:"bid"`
    CurrentBid float64   `json:"current_bid"`
}

// BidError is sent privately to a submitter whose bid was refused.
type BidError struct {
    Reason     Reason   `json:"reason"`
    Message    string   `json:"message"`
    CurrentBid *float64 `json:"current_bid,omitempty"`
}

// bidError converts a Rejection to its wire form.
func bidError(rej *Rejection) BidError {
    e := BidError{Reason: rej.Reason, Message: rej.Message}
    if rej.HasCurrent {
        cur := rej.Current
        e.CurrentBid = &cur
    }
    return e
}

// RoomError is sent privately when a join cannot be honored.
type RoomError struct {
    Code    string `json:"code"`
    Message string `json:"message"`
}

// AuctionEnded marks closure. Broadcast once when the clock fires, and
// sent privately to anyone joining a room that has already ended.
type AuctionEnded struct {
    Code    string `json:"code"`
    Message string `json:"message,omitempty"`
}

// AuctionWinner announces the winning bid at closure.
type AuctionWinner struct {
    Code       string  `json:"code"`
    BidderID   string  `json:"bidder_id"`
    BidderName string  `json:"bidder_name"`
    Amount     float64 `json:"amount"`
}

// AuctionError reports a failed winner determination. The room is
// closed regardless; it never hangs open on a storage fault.
type AuctionError struct {
    Code    string `json:"code"`
    Message string `json:"message"`
}
