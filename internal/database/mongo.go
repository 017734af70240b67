package database

import (
    "context"
    "fmt"
    "time"

    "go.mongodb.org/mongo-driver/mongo"
    "go.mongodb.org/mongo-driver/mongo/options"
    "go.mongodb.org/mongo-driver/mongo/readpref"
)

// Open connects to MongoDB and verifies the connection with a ping.
// The returned database handle is safe for concurrent use by all
// repositories.
func Open(uri, name string) (*mongo.Database, error) {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
    if err != nil {
        return nil, fmt.Errorf("mongo connect: %w", err)
    }
    if err := client.Ping(ctx, readpref.Primary()); err != nil {
        return nil, fmt.Errorf("mongo ping: %w", err)
    }
    return client.Database(name), nil
}

// Close disconnects the client owning the given database handle.
func Close(db *mongo.Database) error {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    return db.Client().Disconnect(ctx)
}
