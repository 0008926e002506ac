package game

import (
	"context"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"poisonparty/shared/logger"
)

// The request context dies with the upgrade, so registry round trips get
// their own deadline.
const joinTimeout = 2 * time.Second

type GameHandler struct {
	registry *registry
	upgrader websocket.Upgrader
}

func NewGameHandler(reg *registry, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		registry: reg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("ws upgrade failed: %v", err)
		return
	}
	socketConn := NewWebsocketConnection(conn)
	p := NewPlayer(uuid.NewString(), &socketConn, h.registry)

	createCtx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	room, err := h.registry.CreateRoom(createCtx)
	if err != nil {
		socketConn.Close("unknown-error")
		return
	}

	jreq := NewRoomJoinRequest(room.Id(), p, true)
	room.RequestJoin(jreq)
	if err := h.awaitJoin(jreq); err != nil {
		socketConn.Close(err.Error())
		return
	}

	go p.ReadPump()
	go p.WritePump()
}

func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	roomId := ctx.Param("roomid")

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		logger.Warningf("ws upgrade failed: %v", err)
		return
	}
	socketConn := NewWebsocketConnection(conn)
	p := NewPlayer(uuid.NewString(), &socketConn, h.registry)

	joinCtx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()

	jreq := NewRoomJoinRequest(roomId, p, false)
	h.registry.ForwardPlayerJoinRequestToRoom(joinCtx, jreq)
	if err := h.awaitJoin(jreq); err != nil {
		socketConn.Close(err.Error())
		return
	}

	go p.ReadPump()
	go p.WritePump()
}

func (h *GameHandler) awaitJoin(jreq RoomJoinRequest) error {
	select {
	case err := <-jreq.errChan:
		return err
	case <-time.After(joinTimeout):
		return ErrRoomNotFound
	}
}
