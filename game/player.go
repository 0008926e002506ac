package game

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// player bridges one websocket to one room. The connection id is the opaque
// handle the rest of the system addresses it by.
type player struct {
	connId   string
	socket   NetworkSession
	resolver DisconnectResolver
	limiter  *rate.Limiter

	inbox    chan []byte
	pingChan chan struct{}

	roomMu sync.RWMutex
	room   *Room

	ctx       context.Context
	cancelCtx context.CancelFunc
	closeOnce sync.Once
}

func NewPlayer(connId string, socket NetworkSession, resolver DisconnectResolver) *player {
	ctx, cancel := context.WithCancel(context.Background())
	return &player{
		connId:    connId,
		socket:    socket,
		resolver:  resolver,
		limiter:   rate.NewLimiter(5, 10),
		inbox:     make(chan []byte, 256),
		pingChan:  make(chan struct{}, 1),
		ctx:       ctx,
		cancelCtx: cancel,
	}
}

func (p *player) ConnectionId() string {
	return p.connId
}

func (p *player) Send(data []byte) error {
	select {
	case p.inbox <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (p *player) Ping() error {
	select {
	case p.pingChan <- struct{}{}:
		return nil
	default:
		return nil
	}
}

func (p *player) SetRoom(r *Room) {
	p.roomMu.Lock()
	p.room = r
	p.roomMu.Unlock()
}

func (p *player) currentRoom() *Room {
	p.roomMu.RLock()
	defer p.roomMu.RUnlock()
	return p.room
}

// CancelAndRelease tears the connection down. Safe to call from the room,
// the pumps, or the handler, whichever gets there first.
func (p *player) CancelAndRelease() {
	p.closeOnce.Do(func() {
		p.cancelCtx()
		p.socket.Close("")
	})
}
