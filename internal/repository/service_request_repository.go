package repository

import (
    "context"
    "errors"
    "fmt"
    "strings"
    "time"

    "go.mongodb.org/mongo-driver/bson"
    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"

    "github.com/harvestlink/stubble-market/internal/model"
)

// ServiceRequestRepo manages the `service_requests` and `cleared_list`
// collections. Open requests are keyed by farmer email; clearing a
// request copies it into the cleared list and removes the original, so
// the farmer can file again later while the audit record remains.
type ServiceRequestRepo struct {
    requests *mongo.Collection
    cleared  *mongo.Collection
}

// NewServiceRequestRepo returns a repo bound to the provided database.
func NewServiceRequestRepo(db *mongo.Database) *ServiceRequestRepo {
    return &ServiceRequestRepo{
        requests: db.Collection("service_requests"),
        cleared:  db.Collection("cleared_list"),
    }
}

// Create files a new service request. A farmer may only have one open
// request at a time; a second one maps to ErrDuplicate.
func (r *ServiceRequestRepo) Create(ctx context.Context, req *model.ServiceRequest) error {
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.CreatedAt = time.Now().UTC()

    err := r.requests.FindOne(ctx, bson.M{"email": req.Email}).Err()
    if err == nil {
        return ErrDuplicate
    }
    if !errors.Is(err, mongo.ErrNoDocuments) {
        return fmt.Errorf("service requests: check existing %s: %w", req.Email, err)
    }
    if _, err := r.requests.InsertOne(ctx, req); err != nil {
        return fmt.Errorf("service requests: insert %s: %w", req.Email, err)
    }
    return nil
}

// List returns all open service requests, newest first.
func (r *ServiceRequestRepo) List(ctx context.Context) ([]model.ServiceRequest, error) {
    cur, err := r.requests.Find(ctx, bson.M{},
        options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
    if err != nil {
        return nil, fmt.Errorf("service requests: list: %w", err)
    }
    defer cur.Close(ctx)

    var reqs []model.ServiceRequest
    if err := cur.All(ctx, &reqs); err != nil {
        return nil, fmt.Errorf("service requests: decode list: %w", err)
    }
    return reqs, nil
}

// MoveToCleared removes the open request for the given email and
// records it in the cleared list. Returns ErrNotFound when there is no
// open request for that email.
func (r *ServiceRequestRepo) MoveToCleared(ctx context.Context, email string) (*model.ClearedRequest, error) {
    email = strings.ToLower(strings.TrimSpace(email))

    var req model.ServiceRequest
    err := r.requests.FindOne(ctx, bson.M{"email": email}).Decode(&req)
    if errors.Is(err, mongo.ErrNoDocuments) {
        return nil, ErrNotFound
    }
    if err != nil {
        return nil, fmt.Errorf("service requests: find %s: %w", email, err)
    }

    cleared := &model.ClearedRequest{
        Name:        req.Name,
        Email:       req.Email,
        MobileNo:    req.MobileNo,
        Address:     req.Address,
        Acreage:     req.Acreage,
        StubbleType: req.StubbleType,
        RequestedAt: req.CreatedAt,
        ClearedAt:   time.Now().UTC(),
    }
    if _, err := r.cleared.InsertOne(ctx, cleared); err != nil {
        return nil, fmt.Errorf("service requests: record cleared %s: %w", email, err)
    }
    if _, err := r.requests.DeleteOne(ctx, bson.M{"_id": req.ID}); err != nil {
        return nil, fmt.Errorf("service requests: delete %s: %w", email, err)
    }
    return cleared, nil
}

// ListCleared returns the cleared list, most recently cleared first.
func (r *ServiceRequestRepo) ListCleared(ctx context.Context) ([]model.ClearedRequest, error) {
    cur, err := r.cleared.Find(ctx, bson.M{},
        options.Find().SetSort(bson.D{{Key: "cleared_at", Value: -1}}))
    if err != nil {
        return nil, fmt.Errorf("cleared list: list: %w", err)
    }
    defer cur.Close(ctx)

    var cleared []model.ClearedRequest
    if err := cur.All(ctx, &cleared); err != nil {
        return nil, fmt.Errorf("cleared list: decode: %w", err)
    }
    return cleared, nil
}

// CountOpen returns the number of open service requests.
func (r *ServiceRequestRepo) CountOpen(ctx context.Context) (int64, error) {
    n, err := r.requests.CountDocuments(ctx, bson.M{})
    if err != nil {
        return 0, fmt.Errorf("service requests: count: %w", err)
    }
    return n, nil
}
