// Command seedadmin bootstraps the admin account. An existing admin
// with the same email is removed first so the credentials are always
// the ones configured, matching how fresh deployments are provisioned.
package main

import (
    "context"
    "fmt"
    "os"
    "time"

    "github.com/joho/godotenv"

    "github.com/harvestlink/stubble-market/internal/config"
    "github.com/harvestlink/stubble-market/internal/database"
    "github.com/harvestlink/stubble-market/internal/model"
    "github.com/harvestlink/stubble-market/internal/repository"
    "github.com/harvestlink/stubble-market/internal/utils"
)

func main() {
    _ = godotenv.Load()

    cfg := config.Load()
    log := utils.NewLogger()

    email := os.Getenv("ADMIN_EMAIL")
    if email == "" {
        email = "admin@example.com"
    }
    password := os.Getenv("ADMIN_PASSWORD")
    if password == "" {
        password = "admin123"
    }

    db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
    if err != nil {
        log.WithError(err).Fatal("could not connect to mongodb")
    }
    defer func() { _ = database.Close(db) }()

    users := repository.NewUserRepo(db)
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()

    if err := users.EnsureIndexes(ctx); err != nil {
        log.WithError(err).Fatal("could not ensure indexes")
    }
    if existing, err := users.ByEmail(ctx, email); err == nil {
        log.WithField("email", existing.Email).Info("admin exists; recreating")
        if err := users.DeleteByEmail(ctx, email); err != nil {
            log.WithError(err).Fatal("could not remove existing admin")
        }
    }

    hash, err := utils.HashPassword(password, cfg.BcryptCost)
    if err != nil {
        log.WithError(err).Fatal("could not hash password")
    }
    admin := &model.User{
        Name:         "Admin User",
        Email:        email,
        MobileNo:     "1234567890",
        PasswordHash: hash,
        Role:         model.RoleAdmin,
    }
    if err := users.Create(ctx, admin); err != nil {
        log.WithError(err).Fatal("could not create admin")
    }

    tok, err := utils.NewAccessToken(cfg.JWTSecret, admin.ID.Hex(), model.RoleAdmin, admin.Name, cfg.AccessTTLMin)
    if err != nil {
        log.WithError(err).Fatal("could not mint admin token")
    }

    log.WithField("email", email).Info("admin user created")
    fmt.Printf("admin token (expires %s):\n%s\n", tok.Exp.Format(time.RFC3339), tok.Token)
}
