package main // Entry point for the stubble market backend

import (
    "context"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/harvestlink/stubble-market/internal/auction"
    "github.com/harvestlink/stubble-market/internal/config"
    "github.com/harvestlink/stubble-market/internal/database"
    "github.com/harvestlink/stubble-market/internal/handler"
    "github.com/harvestlink/stubble-market/internal/queue"
    "github.com/harvestlink/stubble-market/internal/repository"
    "github.com/harvestlink/stubble-market/internal/router"
    queue_publisher "github.com/harvestlink/stubble-market/internal/service"
    "github.com/harvestlink/stubble-market/internal/utils"
)

func main() {
    _ = godotenv.Load() // optional .env for local development

    cfg := config.Load()
    log := utils.NewLogger()

    db, err := database.Open(cfg.MongoURI, cfg.MongoDB)
    if err != nil {
        log.WithError(err).Fatal("could not connect to mongodb")
    }
    defer func() { _ = database.Close(db) }()

    rooms := repository.NewRoomRepo(db)
    bids := repository.NewBidRepo(db)
    users := repository.NewUserRepo(db)
    services := repository.NewServiceRequestRepo(db)

    ctx := context.Background()
    for _, ensure := range []func(context.Context) error{
        rooms.EnsureIndexes, bids.EnsureIndexes, users.EnsureIndexes,
    } {
        if err := ensure(ctx); err != nil {
            log.WithError(err).Fatal("could not ensure indexes")
        }
    }

    hub := auction.NewHub(auction.Config{
        Rooms:        rooms,
        Ledger:       bids,
        Notifier:     queue_publisher.NewWinnerPublisher(log),
        Log:          log,
        HistoryLimit: cfg.HistoryLimit,
    })
    defer hub.Shutdown()

    // Records every auction winner to logs/winners.log; reconnects on
    // broker failures and never takes the server down.
    go func() {
        if err := queue.StartWinnerConsumer(log); err != nil {
            log.WithError(err).Warn("winner consumer stopped")
        }
    }()

    e := echo.New()
    e.HideBanner = true
    router.Register(e, router.Deps{
        Rooms:     handler.NewRoomHandler(rooms, bids, log),
        Services:  handler.NewServiceRequestHandler(services, log),
        Dashboard: handler.NewDashboardHandler(rooms, services, log),
        Socket:    handler.NewSocketHandler(hub, log),
        JWTSecret: cfg.JWTSecret,
        RateCfg:   config.LoadRateLimitConfig(),
        Redis:     config.NewRedisClient(),
    })

    addr := ":" + cfg.Port
    log.WithField("env", cfg.Env).Infof("listening on %s", addr)
    if err := e.Start(addr); err != nil {
        log.WithError(err).Fatal("server stopped")
    }
}
