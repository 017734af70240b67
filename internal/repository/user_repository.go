package repository

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "go.mongodb.org/mongo-driver/bson"
    "go.mongodb.org/mongo-driver/bson/primitive"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"

    "github.com/harvestlink/stubble-market/internal/model"
)

// UserRepo provides access to the `users` collection. Account
// management beyond the admin bootstrap lives in an external service;
// this repo exists for the seedadmin command and identity lookups.
type UserRepo struct {
    col *mongo.Collection
}

// NewUserRepo returns a UserRepo bound to the provided database.
func NewUserRepo(db *mongo.Database) *UserRepo {
    return &UserRepo{col: db.Collection("users")}
}

// EnsureIndexes creates the unique index on email.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
    _, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
        Keys:    bson.D{{Key: "email", Value: 1}},
        Options: options.Index().SetUnique(true),
    })
    if err != nil {
        return fmt.Errorf("users: ensure indexes: %w", err)
    }
    return nil
}

// Create inserts a new user. Duplicate emails map to ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
    if u.ID.IsZero() {
        u.ID = primitive.NewObjectID()
    }
    u.Email = strings.ToLower(strings.TrimSpace(u.Email))
    u.CreatedAt = time.Now().UTC()
    _, err := r.col.InsertOne(ctx, u)
    if mongo.IsDuplicateKeyError(err) {
        return ErrDuplicate
    }
    if err != nil {
        return fmt.Errorf("users: insert %s: %w", u.Email, err)
    }
    return nil
}

// ByEmail looks up a user by email. Returns ErrNotFound when absent.
func (r *UserRepo) ByEmail(ctx context.Context, email string) (*model.User, error) {
    var u model.User
    err := r.col.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))}).Decode(&u)
    if errors.Is(err, mongo.ErrNoDocuments) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("users: find %s: %w", email, err)
    }
    return &u, nil
}

// DeleteByEmail removes a user record. Used by seedadmin to recreate
// the admin account with fresh credentials. Deleting a missing user is
// not an error.
func (r *UserRepo) DeleteByEmail(ctx context.Context, email string) error {
    _, err := r.col.DeleteOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
    if err != nil {
        return fmt.Errorf("users: delete %s: %w", email, err)
    }
    return nil
}
