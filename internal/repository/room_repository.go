package repository

import (
    "context"
    "errors"
    "fmt"
    "time"

    "go.mongodb.org/mongo-driver/bson"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"

    "github.com/harvestlink/stubble-market/internal/model"
)

// RoomRepo provides access to the `rooms` collection. The auction
// engine only ever reads rooms; writes happen through the admin REST
// surface. Room codes are stored upper-cased and are unique.
type RoomRepo struct {
    col *mongo.Collection
}

// NewRoomRepo returns a RoomRepo bound to the provided database.
func NewRoomRepo(db *mongo.Database) *RoomRepo {
    return &RoomRepo{col: db.Collection("rooms")}
}

// EnsureIndexes creates the unique index on the room code. Safe to call
// on every startup; index creation is idempotent.
func (r *RoomRepo) EnsureIndexes(ctx context.Context) error {
    _, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
        Keys:    bson.D{{Key: "code", Value: 1}},
        Options: options.Index().SetUnique(true),
    })
    if err != nil {
        return fmt.Errorf("rooms: ensure indexes: %w", err)
    }
    return nil
}

// Create inserts a new room. The caller is expected to have normalized
// the code already; a duplicate code maps to ErrDuplicate.
func (r *RoomRepo) Create(ctx context.Context, room *model.Room) error {
    room.Code = model.NormalizeRoomCode(room.Code)
    _, err := r.col.InsertOne(ctx, room)
    if mongo.IsDuplicateKeyError(err) {
        return ErrDuplicate
    }
    if err != nil {
        return fmt.Errorf("rooms: insert %s: %w", room.Code, err)
    }
    return nil
}

// ByCode looks up a room by its join code. Returns ErrNotFound when no
// room exists with that code.
func (r *RoomRepo) ByCode(ctx context.Context, code string) (*model.Room, error) {
    var room model.Room
    err := r.col.FindOne(ctx, bson.M{"code": model.NormalizeRoomCode(code)}).Decode(&room)
    if errors.Is(err, mongo.ErrNoDocuments) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("rooms: find %s: %w", code, err)
    }
    return &room, nil
}

// ListActive returns all rooms whose end date is still in the future,
// soonest-closing first.
func (r *RoomRepo) ListActive(ctx context.Context, now time.Time) ([]model.Room, error) {
    cur, err := r.col.Find(ctx,
        bson.M{"end_date": bson.M{"$gt": now}},
        options.Find().SetSort(bson.D{{Key: "end_date", Value: 1}}),
    )
    if err != nil {
        return nil, fmt.Errorf("rooms: list active: %w", err)
    }
    defer cur.Close(ctx)

    var rooms []model.Room
    if err := cur.All(ctx, &rooms); err != nil {
        return nil, fmt.Errorf("rooms: decode active: %w", err)
    }
    return rooms, nil
}

// CountActive returns the number of rooms still open at the given time.
func (r *RoomRepo) CountActive(ctx context.Context, now time.Time) (int64, error) {
    n, err := r.col.CountDocuments(ctx, bson.M{"end_date": bson.M{"$gt": now}})
    if err != nil {
        return 0, fmt.Errorf("rooms: count active: %w", err)
    }
    return n, nil
}
