package handler

import (
    "encoding/json"
    "net/http"
    "sync"
    "time"

    "github.com/google/uuid"
    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/harvestlink/stubble-market/internal/auction"
    "github.com/harvestlink/stubble-market/internal/model"
)

// writeTimeout bounds a single frame write. A participant that cannot
// drain its socket gets dropped rather than stalling broadcasts.
const writeTimeout = 10 * time.Second

// SocketHandler upgrades GET /ws to a websocket and speaks the auction
// wire protocol: join_room, send_bid and leave_room frames in,
// snapshot/broadcast/error frames out. All room logic lives in the
// hub; this handler only translates frames.
type SocketHandler struct {
    Hub *auction.Hub
    Log *logrus.Logger

    upgrader websocket.Upgrader
}

// NewSocketHandler constructs a SocketHandler around the hub.
func NewSocketHandler(hub *auction.Hub, log *logrus.Logger) *SocketHandler {
    return &SocketHandler{
        Hub: hub,
        Log: log,
        upgrader: websocket.Upgrader{
            ReadBufferSize:  1024,
            WriteBufferSize: 1024,
            // Origin policy is enforced by the fronting proxy.
            CheckOrigin: func(*http.Request) bool { return true },
        },
    }
}

// Serve handles GET /ws.
func (h *SocketHandler) Serve(c echo.Context) error {
    ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        return err
    }
    conn := newSocketConn(ws)
    h.Log.WithField("conn", conn.ID()).Info("socket connected")

    defer func() {
        for _, code := range conn.joined() {
            h.Hub.Leave(conn, code)
        }
        _ = ws.Close()
        h.Log.WithField("conn", conn.ID()).Info("socket disconnected")
    }()

    ctx := c.Request().Context()
    for {
        _, data, err := ws.ReadMessage()
        if err != nil {
            return nil
        }
        var env auction.Envelope
        if err := json.Unmarshal(data, &env); err != nil {
            h.sendError(conn, "malformed frame")
            continue
        }
        switch env.Type {
        case auction.TypeJoinRoom:
            var req auction.JoinRequest
            if err := json.Unmarshal(env.Data, &req); err != nil {
                h.sendError(conn, "malformed join request")
                continue
            }
            h.Hub.Join(ctx, conn, req)
            if code := model.NormalizeRoomCode(req.Code); code != "" {
                conn.track(code)
            }
        case auction.TypeSendBid:
            var req auction.BidRequest
            if err := json.Unmarshal(env.Data, &req); err != nil {
                h.sendError(conn, "malformed bid request")
                continue
            }
            h.Hub.SubmitBid(ctx, conn, req)
        case auction.TypeLeaveRoom:
            var req auction.JoinRequest
            if err := json.Unmarshal(env.Data, &req); err != nil {
                h.sendError(conn, "malformed leave request")
                continue
            }
            code := model.NormalizeRoomCode(req.Code)
            h.Hub.Leave(conn, code)
            conn.untrack(code)
        default:
            h.Log.WithFields(logrus.Fields{"conn": conn.ID(), "type": env.Type}).Debug("ignoring unknown frame type")
        }
    }
}

func (h *SocketHandler) sendError(conn *socketConn, msg string) {
    if err := conn.Send(auction.NewEnvelope(auction.TypeRoomError, auction.RoomError{Message: msg})); err != nil {
        h.Log.WithError(err).WithField("conn", conn.ID()).Warn("failed to send error frame")
    }
}

// socketConn adapts a gorilla websocket connection to the hub's
// Participant interface. Gorilla permits one concurrent writer, so
// Send serializes writes; it also remembers which rooms the connection
// joined so the handler can deregister them on disconnect.
type socketConn struct {
    id string
    ws *websocket.Conn

    writeMu sync.Mutex

    roomsMu sync.Mutex
    rooms   map[string]struct{}
}

func newSocketConn(ws *websocket.Conn) *socketConn {
    return &socketConn{
        id:    uuid.NewString(),
        ws:    ws,
        rooms: make(map[string]struct{}),
    }
}

// ID returns the connection's unique id.
func (c *socketConn) ID() string { return c.id }

// Send writes one envelope as a JSON frame.
func (c *socketConn) Send(env auction.Envelope) error {
    c.writeMu.Lock()
    defer c.writeMu.Unlock()
    _ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
    return c.ws.WriteJSON(env)
}

func (c *socketConn) track(code string) {
    c.roomsMu.Lock()
    defer c.roomsMu.Unlock()
    c.rooms[code] = struct{}{}
}

func (c *socketConn) untrack(code string) {
    c.roomsMu.Lock()
    defer c.roomsMu.Unlock()
    delete(c.rooms, code)
}

func (c *socketConn) joined() []string {
    c.roomsMu.Lock()
    defer c.roomsMu.Unlock()
    codes := make([]string, 0, len(c.rooms))
    for code := range c.rooms {
        codes = append(codes, code)
    }
    return codes
}
