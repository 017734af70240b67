package model

import (
    "strings"
    "time"

    "go.mongodb.org/mongo-driver/bson/primitive"
)

// Room represents one scheduled auction instance as stored in the
// `rooms` collection. A room is identified to users by its Code, a
// short human-shareable string, rather than by its Mongo ObjectID,
// and bids reference the room by code for the same reason.
//
// Fields:
//  ID          – Mongo document id.
//  Code        – unique, upper-cased join code for the room.
//  Name        – display name shown to participants.
//  Description – free-form description of the stubble lot on offer.
//  StartBid    – floor amount; the first accepted bid must exceed it.
//  StartDate   – when the auction opens.
//  EndDate     – when the auction closes; fixed at creation and must
//                be after StartDate. A room is open iff now < EndDate.
//  CreatedAt   – creation timestamp.
type Room struct {
    ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
    Code        string             `bson:"code" json:"code"`
    Name        string             `bson:"name" json:"name"`
    Description string             `bson:"description" json:"description"`
    StartBid    float64            `bson:"start_bid" json:"start_bid"`
    StartDate   time.Time          `bson:"start_date" json:"start_date"`
    EndDate     time.Time          `bson:"end_date" json:"end_date"`
    CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
}

// OpenAt reports whether the room still admits bids at the given
// instant. The end instant itself is closed: a bid arriving exactly at
// EndDate is too late.
func (r *Room) OpenAt(now time.Time) bool {
    return now.Before(r.EndDate)
}

// Remaining returns the time left until the room closes, clamped at
// zero for rooms that have already ended.
func (r *Room) Remaining(now time.Time) time.Duration {
    d := r.EndDate.Sub(now)
    if d < 0 {
        return 0
    }
    return d
}

// NormalizeRoomCode canonicalizes a user-supplied room code. Codes are
// compared case-insensitively everywhere, so they are stored and looked
// up in upper case with surrounding whitespace removed.
func NormalizeRoomCode(code string) string {
    return strings.ToUpper(strings.TrimSpace(code))
}
