package queue

// AuctionWinnerEvent is published when a room closes with a winning
// bid. It carries enough information for downstream consumers (the
// email notifier, analytics) without querying the primary database.
type AuctionWinnerEvent struct {
    RoomCode   string  `json:"room_code"`
    RoomName   string  `json:"room_name"`
    BidderID   string  `json:"bidder_id"`
    BidderName string  `json:"bidder_name"`
    Amount     float64 `json:"amount"`
    EndedAt    string  `json:"ended_at"`
}
