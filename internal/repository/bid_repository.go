package repository

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/google/uuid"
    "go.mongodb.org/mongo-driver/bson"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"

    "github.com/harvestlink/stubble-market/internal/model"
)

// BidRepo is the durable bid ledger over the `bids` collection. Bids
// are append-only: Record is the only mutator, and nothing here
// updates or deletes. Ordering invariants (strictly increasing amounts
// per room) are enforced by the admission policy before Record is
// called, under the per-room serialization of the auction hub.
type BidRepo struct {
    col *mongo.Collection
    now func() time.Time
}

// NewBidRepo returns a BidRepo bound to the provided database.
func NewBidRepo(db *mongo.Database) *BidRepo {
    return &BidRepo{col: db.Collection("bids"), now: time.Now}
}

// EnsureIndexes creates the compound index backing per-room queries.
func (r *BidRepo) EnsureIndexes(ctx context.Context) error {
    _, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
        Keys: bson.D{{Key: "room", Value: 1}, {Key: "amount", Value: -1}, {Key: "created_at", Value: 1}},
    })
    if err != nil {
        return fmt.Errorf("bids: ensure indexes: %w", err)
    }
    return nil
}

// Record appends a bid to the ledger. The id and creation timestamp
// are assigned here, never taken from the caller, so ledger order is
// server-controlled. The inserted bid is returned with those fields
// populated.
func (r *BidRepo) Record(ctx context.Context, bid *model.Bid) error {
    bid.ID = uuid.NewString()
    bid.CreatedAt = r.now().UTC()
    if _, err := r.col.InsertOne(ctx, bid); err != nil {
        return fmt.Errorf("bids: insert for room %s: %w", bid.Room, err)
    }
    return nil
}

// Highest returns the bid with the maximum amount for the room, ties
// broken by earliest creation time. Returns ErrNotFound when the room
// has no recorded bids at all.
func (r *BidRepo) Highest(ctx context.Context, roomCode string) (*model.Bid, error) {
    var bid model.Bid
    err := r.col.FindOne(ctx,
        bson.M{"room": roomCode},
        options.FindOne().SetSort(bson.D{{Key: "amount", Value: -1}, {Key: "created_at", Value: 1}}),
    ).Decode(&bid)
    if errors.Is(err, mongo.ErrNoDocuments) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("bids: highest for room %s: %w", roomCode, err)
    }
    return &bid, nil
}

// Recent returns up to limit bids for the room, newest first. Used for
// history replay when a participant joins.
func (r *BidRepo) Recent(ctx context.Context, roomCode string, limit int) ([]model.Bid, error) {
    cur, err := r.col.Find(ctx,
        bson.M{"room": roomCode},
        options.Find().
            SetSort(bson.D{{Key: "created_at", Value: -1}}).
            SetLimit(int64(limit)),
    )
    if err != nil {
        return nil, fmt.Errorf("bids: recent for room %s: %w", roomCode, err)
    }
    defer cur.Close(ctx)

    var bids []model.Bid
    if err := cur.All(ctx, &bids); err != nil {
        return nil, fmt.Errorf("bids: decode recent for room %s: %w", roomCode, err)
    }
    return bids, nil
}
