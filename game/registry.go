package game

import (
	"context"
	"slices"
	"time"

	"poisonparty/shared/logger"
)

const (
	sweepInterval = 5 * time.Minute
	pingInterval  = 30 * time.Second

	// A room created but not yet joined sits empty for a moment, the sweep
	// only reaps rooms that stayed empty past this.
	sweepGrace = time.Minute
)

type membershipRecord struct {
	connIds []string
	emptyAt time.Time
}

type createRoomRequest struct {
	respChan chan *Room
}

type connEventKind int

const (
	connEventMembership connEventKind = iota
	connEventDisconnect
)

// connEvent carries both membership reports and disconnect resolutions on a
// single channel, so a disconnect can never be processed ahead of the join
// that seated the connection.
type connEvent struct {
	kind    connEventKind
	roomId  string
	connIds []string
	connId  string
}

func NewRegistry(idgen UniqueIdGenerator, tickerCreator PeriodicTickerChannelCreator, itemCountGen RandomItemCountGenerator) *registry {
	return &registry{
		rooms:          map[string]*Room{},
		membership:     map[string]membershipRecord{},
		idGenerator:    idgen,
		tickerCreator:  tickerCreator,
		itemCountGen:   itemCountGen,
		clock:          time.Now,
		createReqs:     make(chan createRoomRequest, 32),
		joinRoomReqs:   make(chan RoomJoinRequest, 256),
		removeRoomChan: make(chan string, 32),
		connEvents:     make(chan connEvent, 256),
	}
}

// registry owns the process-wide room map. One goroutine (RegistryActor)
// serializes every mutation, rooms run their own loops.
type registry struct {
	rooms      map[string]*Room
	membership map[string]membershipRecord

	idGenerator   UniqueIdGenerator
	tickerCreator PeriodicTickerChannelCreator
	itemCountGen  RandomItemCountGenerator
	clock         func() time.Time

	createReqs     chan createRoomRequest
	joinRoomReqs   chan RoomJoinRequest
	removeRoomChan chan string
	connEvents     chan connEvent
}

// CreateRoom makes a fresh empty room in the Waiting phase and returns it.
// The caller forwards the creator's join request itself.
func (reg *registry) CreateRoom(ctx context.Context) (*Room, error) {
	req := createRoomRequest{respChan: make(chan *Room, 1)}
	select {
	case reg.createReqs <- req:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case room := <-req.respChan:
		return room, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (reg *registry) ForwardPlayerJoinRequestToRoom(ctx context.Context, jreq RoomJoinRequest) {
	select {
	case reg.joinRoomReqs <- jreq:
	case <-ctx.Done():
	}
}

// RemoveRoom is idempotent, rooms call it when their last seat empties.
func (reg *registry) RemoveRoom(roomId string) {
	reg.removeRoomChan <- roomId
}

// UpdateMembership is best effort, the periodic sweep covers dropped updates.
func (reg *registry) UpdateMembership(roomId string, connIds []string) {
	select {
	case reg.connEvents <- connEvent{kind: connEventMembership, roomId: roomId, connIds: connIds}:
	default:
	}
}

// ResolveDisconnect routes a dead connection to whichever room held it.
func (reg *registry) ResolveDisconnect(connId string) {
	reg.connEvents <- connEvent{kind: connEventDisconnect, connId: connId}
}

func (reg *registry) RegistryActor(started chan struct{}) {
	sweepTicker := reg.tickerCreator.Create(sweepInterval)
	pingTicker := reg.tickerCreator.Create(pingInterval)

	close(started)

	for {
		select {
		case req := <-reg.createReqs:
			reg.handleCreateRoom(req)

		case jreq := <-reg.joinRoomReqs:
			reg.handleJoinRequest(jreq)

		case roomId := <-reg.removeRoomChan:
			reg.handleRemoveRoom(roomId)

		case event := <-reg.connEvents:
			switch event.kind {
			case connEventMembership:
				reg.handleMembershipUpdate(event)
			case connEventDisconnect:
				reg.handleDisconnect(event.connId)
			}

		case now := <-sweepTicker:
			reg.handleSweep(now)

		case <-pingTicker:
			for _, room := range reg.rooms {
				room.PingPlayers()
			}
		}
	}
}

func (reg *registry) handleCreateRoom(req createRoomRequest) {
	var id string
	for {
		id = reg.idGenerator.Generate()
		// The generator tracks live ids itself, this check is against the
		// authoritative map rather than an assumption of uniqueness.
		if _, taken := reg.rooms[id]; !taken {
			break
		}
	}

	room := NewRoom(id, reg.itemCountGen)
	room.SetParentRegistry(reg)
	reg.rooms[id] = room
	reg.membership[id] = membershipRecord{emptyAt: reg.clock()}
	go room.GameLoop()

	logger.Infof("room %s created", id)
	req.respChan <- room
}

func (reg *registry) handleJoinRequest(jreq RoomJoinRequest) {
	room, ok := reg.rooms[NormalizeRoomId(jreq.roomId)]
	if !ok {
		jreq.errChan <- ErrRoomNotFound
		return
	}
	room.RequestJoin(jreq)
}

func (reg *registry) handleRemoveRoom(roomId string) {
	room, ok := reg.rooms[roomId]
	if !ok {
		return
	}
	delete(reg.rooms, roomId)
	delete(reg.membership, roomId)
	reg.idGenerator.Dispose(roomId)
	room.CloseAndRelease()
	logger.Infof("room %s removed", roomId)
}

func (reg *registry) handleMembershipUpdate(update connEvent) {
	record, ok := reg.membership[update.roomId]
	if !ok {
		return
	}
	record.connIds = update.connIds
	if len(update.connIds) == 0 {
		record.emptyAt = reg.clock()
	}
	reg.membership[update.roomId] = record
}

func (reg *registry) handleDisconnect(connId string) {
	room, ok := reg.findRoomByConnection(connId)
	if !ok {
		return
	}
	room.RequestRemoveByConn(connId)
}

func (reg *registry) findRoomByConnection(connId string) (*Room, bool) {
	for roomId, record := range reg.membership {
		if slices.Contains(record.connIds, connId) {
			room, ok := reg.rooms[roomId]
			return room, ok
		}
	}
	return nil, false
}

// handleSweep reaps rooms that missed their explicit removal, so room ids
// do not leak.
func (reg *registry) handleSweep(now time.Time) {
	for roomId, record := range reg.membership {
		if len(record.connIds) == 0 && now.Sub(record.emptyAt) >= sweepGrace {
			reg.handleRemoveRoom(roomId)
		}
	}
}
