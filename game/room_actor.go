package game

import (
	"context"
	"time"
)

func NewRoom(id string, itemCountGen RandomItemCountGenerator) *Room {
	return &Room{
		id:              id,
		phase:           PHASE_WAITING,
		seats:           make([]*seat, 0, maxPlayers),
		secretPositions: make(map[int]int),
		consumedItems:   make(map[int]bool),
		consumedCounts:  make(map[int]int),
		itemCountGen:    itemCountGen,
		clock:           time.Now,
		inbox:           make(chan ClientPacketEnvelope, 64),
		joinRequests:    make(chan RoomJoinRequest),
		removeRequests:  make(chan string, 8),
		pingPlayers:     make(chan struct{}, 1),
	}
}

type Room struct {
	// Identity
	id    string
	phase RoomPhase

	// Match state, reset on rematch
	seats           []*seat
	itemCount       int
	secretPositions map[int]int
	consumedItems   map[int]bool
	consumedCounts  map[int]int
	turnOwner       int
	startedAt       time.Time

	// Collaborators
	itemCountGen   RandomItemCountGenerator
	parentRegistry Registry
	clock          func() time.Time

	// Communication
	inbox          chan ClientPacketEnvelope
	joinRequests   chan RoomJoinRequest
	removeRequests chan string
	pingPlayers    chan struct{}

	// Outbound sends accumulated by the handlers, flushed after each event
	// so the broadcast order matches the accept order.
	sendTasks []dataSendTask
}

func (r *Room) Id() string {
	return r.id
}

func (r *Room) SetParentRegistry(reg Registry) {
	r.parentRegistry = reg
}

// GameLoop is the single goroutine allowed to touch room state. Everything
// else talks to it over channels.
func (r *Room) GameLoop() {
	for {
		select {
		case envelope, ok := <-r.inbox:
			if !ok {
				return
			}
			r.dispatch(envelope)
			r.flushSendTasks()

		case jreq, ok := <-r.joinRequests:
			if !ok {
				return
			}
			r.handleJoinRequest(jreq)
			r.flushSendTasks()

		case connId, ok := <-r.removeRequests:
			if !ok {
				return
			}
			r.handleRemoveByConn(connId)
			r.flushSendTasks()

		case _, ok := <-r.pingPlayers:
			if !ok {
				return
			}
			for _, st := range r.seats {
				st.player.Ping()
			}
		}
	}
}

func (r *Room) Send(ctx context.Context, envelope ClientPacketEnvelope) {
	select {
	case r.inbox <- envelope:
	case <-ctx.Done():
	}
}

func (r *Room) RequestJoin(jreq RoomJoinRequest) {
	r.joinRequests <- jreq
}

func (r *Room) RequestRemoveByConn(connId string) {
	r.removeRequests <- connId
}

func (r *Room) PingPlayers() {
	select {
	case r.pingPlayers <- struct{}{}:
	default:
	}
}

// CloseAndRelease terminates the game loop. Only the registry calls this,
// after the room has left the map.
func (r *Room) CloseAndRelease() {
	for _, st := range r.seats {
		st.player.CancelAndRelease()
	}
	close(r.inbox)
	close(r.joinRequests)
	close(r.removeRequests)
	close(r.pingPlayers)
}

func (r *Room) flushSendTasks() {
	for _, task := range r.sendTasks {
		// Failed sends surface as read-pump errors and become leaves, the
		// room does not care here.
		task.to.Send(task.packet.Encode())
	}
	r.sendTasks = nil
}

func (r *Room) takeSendTasks() []dataSendTask {
	tasks := r.sendTasks
	r.sendTasks = nil
	return tasks
}
