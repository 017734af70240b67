package handler

import (
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/harvestlink/stubble-market/internal/repository"
)

// DashboardHandler aggregates counts for the admin dashboard.
type DashboardHandler struct {
    Rooms    *repository.RoomRepo
    Requests *repository.ServiceRequestRepo
    Log      *logrus.Logger
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(rooms *repository.RoomRepo, requests *repository.ServiceRequestRepo, log *logrus.Logger) *DashboardHandler {
    if rooms == nil || requests == nil {
        panic("nil repository passed to NewDashboardHandler")
    }
    return &DashboardHandler{Rooms: rooms, Requests: requests, Log: log}
}

// Summary handles GET /v1/dashboard and returns the number of open
// auction rooms and pending service requests.
func (h *DashboardHandler) Summary(c echo.Context) error {
    ctx := c.Request().Context()

    activeRooms, err := h.Rooms.CountActive(ctx, time.Now().UTC())
    if err != nil {
        h.Log.WithError(err).Error("count active rooms failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load dashboard"})
    }
    openRequests, err := h.Requests.CountOpen(ctx)
    if err != nil {
        h.Log.WithError(err).Error("count service requests failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load dashboard"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "active_rooms":  activeRooms,
        "open_requests": openRequests,
    })
}
