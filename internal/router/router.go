package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/harvestlink/stubble-market/internal/config"
    "github.com/harvestlink/stubble-market/internal/handler"
    "github.com/harvestlink/stubble-market/internal/middleware"
    "github.com/harvestlink/stubble-market/internal/model"
)

// Deps bundles everything the routes need. The socket endpoint is
// registered unauthenticated (bidder identity travels inside the bid
// frames and is validated by the admission policy) while the REST
// surface sits behind JWT and role middleware.
type Deps struct {
    Rooms     *handler.RoomHandler
    Services  *handler.ServiceRequestHandler
    Dashboard *handler.DashboardHandler
    Socket    *handler.SocketHandler
    JWTSecret string
    RateCfg   config.RateLimitConfig
    Redis     *redis.Client
}

// Register wires all routes onto the Echo instance.
func Register(e *echo.Echo, d Deps) {
    // Health check for load balancers and monitoring.
    e.GET("/healthz", handler.Health)

    // Real-time auction channel.
    e.GET("/ws", d.Socket.Serve)

    limiter := middleware.NewTokenBucket(d.RateCfg, d.Redis)

    // Authenticated REST surface. All three roles may browse rooms and
    // bid history; mutations are narrowed further below.
    v1 := e.Group("/v1")
    v1.Use(middleware.JWTAuth(d.JWTSecret))
    v1.Use(middleware.RequireRole(model.RoleFarmer, model.RoleCompany, model.RoleAdmin))
    v1.Use(limiter)

    v1.GET("/rooms", d.Rooms.ListRooms)
    v1.GET("/rooms/join", d.Rooms.JoinInfo)
    v1.GET("/rooms/:code/bids", d.Rooms.RoomBids)
    v1.GET("/dashboard", d.Dashboard.Summary)

    // Admin-only room creation and request clearing.
    admin := v1.Group("")
    admin.Use(middleware.RequireRole(model.RoleAdmin))
    admin.POST("/rooms", d.Rooms.CreateRoom)
    admin.DELETE("/services/:email", d.Services.ClearRequest)
    admin.GET("/services/cleared", d.Services.ListCleared)

    // Farmers file service requests; admins may file on their behalf.
    farm := v1.Group("")
    farm.Use(middleware.RequireRole(model.RoleFarmer, model.RoleAdmin))
    farm.POST("/services", d.Services.CreateRequest)

    v1.GET("/services", d.Services.ListRequests)
}
