package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/harvestlink/stubble-market/internal/model"
    "github.com/harvestlink/stubble-market/internal/repository"
)

// ServiceRequestHandler exposes the farmer-facing service request CRUD
// and the admin-facing cleared list. Clearing a request moves it to
// the cleared list rather than deleting it outright.
type ServiceRequestHandler struct {
    Requests *repository.ServiceRequestRepo
    Log      *logrus.Logger
}

// NewServiceRequestHandler constructs a ServiceRequestHandler.
func NewServiceRequestHandler(requests *repository.ServiceRequestRepo, log *logrus.Logger) *ServiceRequestHandler {
    if requests == nil {
        panic("nil repository passed to NewServiceRequestHandler")
    }
    return &ServiceRequestHandler{Requests: requests, Log: log}
}

// CreateRequest handles POST /v1/services. Farmers file one open
// request at a time; a second one for the same email is a conflict.
func (h *ServiceRequestHandler) CreateRequest(c echo.Context) error {
    var body struct {
        Name        string  `json:"name"`
        Email       string  `json:"email"`
        MobileNo    string  `json:"mobile_no"`
        Address     string  `json:"address"`
        Acreage     float64 `json:"acreage"`
        StubbleType string  `json:"stubble_type"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    switch {
    case strings.TrimSpace(body.Name) == "":
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
    case strings.TrimSpace(body.Email) == "":
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email is required"})
    case strings.TrimSpace(body.Address) == "":
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "address is required"})
    case body.Acreage <= 0:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "acreage must be positive"})
    }

    req := &model.ServiceRequest{
        Name:        strings.TrimSpace(body.Name),
        Email:       body.Email,
        MobileNo:    strings.TrimSpace(body.MobileNo),
        Address:     strings.TrimSpace(body.Address),
        Acreage:     body.Acreage,
        StubbleType: strings.TrimSpace(body.StubbleType),
    }
    if err := h.Requests.Create(c.Request().Context(), req); err != nil {
        if errors.Is(err, repository.ErrDuplicate) {
            return c.JSON(http.StatusConflict, echo.Map{"error": "an open request already exists for this email"})
        }
        h.Log.WithError(err).Error("create service request failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create service request"})
    }
    return c.JSON(http.StatusCreated, req)
}

// ListRequests handles GET /v1/services and returns all open requests.
func (h *ServiceRequestHandler) ListRequests(c echo.Context) error {
    reqs, err := h.Requests.List(c.Request().Context())
    if err != nil {
        h.Log.WithError(err).Error("list service requests failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list service requests"})
    }
    if reqs == nil {
        reqs = []model.ServiceRequest{}
    }
    return c.JSON(http.StatusOK, echo.Map{"count": len(reqs), "requests": reqs})
}

// ClearRequest handles DELETE /v1/services/:email. Admin only. The
// open request is moved to the cleared list, preserving the audit
// trail of serviced farms.
func (h *ServiceRequestHandler) ClearRequest(c echo.Context) error {
    email := c.Param("email")
    cleared, err := h.Requests.MoveToCleared(c.Request().Context(), email)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no open request for this email"})
    }
    if err != nil {
        h.Log.WithError(err).Error("clear service request failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not clear service request"})
    }
    return c.JSON(http.StatusOK, echo.Map{"cleared": cleared})
}

// ListCleared handles GET /v1/services/cleared. Admin only.
func (h *ServiceRequestHandler) ListCleared(c echo.Context) error {
    cleared, err := h.Requests.ListCleared(c.Request().Context())
    if err != nil {
        h.Log.WithError(err).Error("list cleared requests failed")
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list cleared requests"})
    }
    if cleared == nil {
        cleared = []model.ClearedRequest{}
    }
    return c.JSON(http.StatusOK, echo.Map{"count": len(cleared), "cleared": cleared})
}
