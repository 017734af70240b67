package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/harvestlink/stubble-market/internal/model"
    "github.com/harvestlink/stubble-market/internal/repository"
)

// RoomHandler exposes the admin-facing room CRUD and the read-only
// room/bid endpoints. Creating a room also seeds the starting bid as a
// system-authored ledger row; the auction engine reads rooms and bids
// but never writes rooms.
type RoomHandler struct {
    Rooms *repository.RoomRepo
    Bids  *repository.BidRepo
    Log   *logrus.Logger
}

// NewRoomHandler constructs a RoomHandler with the provided
// repositories. Both must be non-nil.
func NewRoomHandler(rooms *repository.RoomRepo, bids *repository.BidRepo, log *logrus.Logger) *RoomHandler {
    if rooms == nil || bids == nil {
        panic("nil repository passed to NewRoomHandler")
    }
    return &RoomHandler{Rooms: rooms, Bids: bids, Log: log}
}

// CreateRoom handles POST /v1/rooms. Admin only. The room's end date
// is fixed here; nothing mutates the room afterwards. A seed bid equal
// to the starting bid is recorded under the system identity so the
// ledger always carries the floor the admission policy compares
// against.
func (h *RoomHandler) CreateRoom(c echo.Context) error {
    var body struct {
        Code        string    `json:"code"`
        Name        string    `json:"name"`
        Description string    `json:"description"`
        StartBid    float64   `json:"start_bid"`
        StartDate   time.Time `json:"start_date"`
        EndDate     time.Time `json:"end_date"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }

    code := model.NormalizeRoomCode(body.Code)
    name := strings.TrimSpace(body.Name)
    switch {
    case code == "":
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code is required"})
    case name == "":
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    case body.StartBid <= 0:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_bid must be positive"})
    case body.StartDate.IsZero() || body.EndDate.IsZero():
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_date and end_date are required"})
    case !body.EndDate.After(body.StartDate):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
    }

    room := &model.Room{
        Code:        code,
        Name:        name,
        Description: strings.TrimSpace(body.Description),
        StartBid:    body.StartBid,
        StartDate:   body.StartDate,
        EndDate:     body.EndDate,
        CreatedAt:   time.Now().UTC(),
    }
    ctx := c.Request().Context()
    if err := h.Rooms.Create(ctx, room); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "room code already exists"})
        }
        h.Log.WithError(err).Error("create room failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create room"})
    }

    seed := &model.Bid{
        Room:   room.Code,
        Bidder: model.SystemBidder(),
        Amount: room.StartBid,
    }
    if err := h.Bids.Record(ctx, seed); err != nil {
        // The room exists; the engine falls back to the room's start_bid
        // when the seed row is missing.
        h.Log.WithError(err).WithField("room", room.Code).Error("seed bid failed")
    }

    return c.JSON(http.StatusCreated, room)
}

// ListRooms handles GET /v1/rooms and returns all rooms still open,
// soonest-closing first.
func (h *RoomHandler) ListRooms(c echo.Context) error {
    rooms, err := h.Rooms.ListActive(c.Request().Context(), time.Now().UTC())
    if err != nil {
        h.Log.WithError(err).Error("list rooms failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list rooms"})
    }
    if rooms == nil {
        rooms = []model.Room{}
    }
    return c.JSON(http.StatusOK, echo.Map{"count": len(rooms), "rooms": rooms})
}

// JoinInfo handles GET /v1/rooms/join?code=X. It lets the client
// validate a room code over REST before opening the socket.
func (h *RoomHandler) JoinInfo(c echo.Context) error {
    code := c.QueryParam("code")
    if strings.TrimSpace(code) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "room code is required"})
    }
    room, err := h.Rooms.ByCode(c.Request().Context(), code)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        h.Log.WithError(err).Error("room lookup failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
    }
    return c.JSON(http.StatusOK, echo.Map{"room": room})
}

// RoomBids handles GET /v1/rooms/:code/bids and returns the room's
// recent bid history, newest first. Closed rooms keep serving their
// history.
func (h *RoomHandler) RoomBids(c echo.Context) error {
    code := model.NormalizeRoomCode(c.Param("code"))
    ctx := c.Request().Context()

    if _, err := h.Rooms.ByCode(ctx, code); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        h.Log.WithError(err).Error("room lookup failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
    }

    bids, err := h.Bids.Recent(ctx, code, 50)
    if err != nil {
        h.Log.WithError(err).WithField("room", code).Error("list bids failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list bids"})
    }
    if bids == nil {
        bids = []model.Bid{}
    }
    return c.JSON(http.StatusOK, echo.Map{"count": len(bids), "bids": bids})
}
