package model

import (
    "strings"
    "time"
)

// BidderKind distinguishes the system identity used for seed bids from
// real user identities. Bidder ids arrive over the wire as opaque
// strings; tagging them with a kind keeps equality checks well-defined
// instead of relying on magic string values.
type BidderKind string

const (
    BidderSystem BidderKind = "system" // seed bid written at room creation
    BidderUser   BidderKind = "user"   // authenticated user or company
)

// Bidder is the normalized identity attached to every bid.
type Bidder struct {
    Kind        BidderKind `bson:"kind" json:"kind"`
    ID          string     `bson:"id" json:"id"`
    DisplayName string     `bson:"display_name" json:"display_name"`
}

// SystemBidder returns the identity that authors seed bids.
func SystemBidder() Bidder {
    return Bidder{Kind: BidderSystem, ID: "admin", DisplayName: "Admin (System)"}
}

// UserBidder builds a user identity from wire values. An empty display
// name falls back to "Anonymous" so broadcast payloads always carry a
// printable name.
func UserBidder(id, displayName string) Bidder {
    name := strings.TrimSpace(displayName)
    if name == "" {
        name = "Anonymous"
    }
    return Bidder{Kind: BidderUser, ID: strings.TrimSpace(id), DisplayName: name}
}

// Equal reports whether two bidders are the same identity. Display
// names are cosmetic and excluded from the comparison.
func (b Bidder) Equal(o Bidder) bool {
    return b.Kind == o.Kind && b.ID == o.ID
}

// IsSystem reports whether the bidder is the seed identity.
func (b Bidder) IsSystem() bool { return b.Kind == BidderSystem }

// Bid is one admitted offer in a room, stored in the `bids`
// collection. Bids are immutable once recorded and are never deleted;
// together they form the per-room audit ledger.
//
// Fields:
//  ID        – uuid assigned by the ledger.
//  Room      – code of the room the bid belongs to.
//  Bidder    – normalized identity of the submitter.
//  Amount    – offered amount; strictly greater than every amount
//              previously recorded for the room.
//  CreatedAt – server-assigned timestamp; never client-supplied.
type Bid struct {
    ID        string    `bson:"_id" json:"id"`
    Room      string    `bson:"room" json:"room"`
    Bidder    Bidder    `bson:"bidder" json:"bidder"`
    Amount    float64   `bson:"amount" json:"amount"`
    CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
