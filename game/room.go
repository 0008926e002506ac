package game

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"poisonparty/shared/logger"
)

const (
	maxNameLength = 24
	maxChatLength = 500
)

// dispatch validates and applies one socket intent. Accepted intents get a
// unicast ack ahead of whatever the handler broadcast, rejections get a
// unicast error and leave the room untouched.
func (r *Room) dispatch(envelope ClientPacketEnvelope) {
	st := r.seatOf(envelope.from)
	if st == nil {
		// Packet raced with a removal, nothing to do.
		return
	}

	if envelope.clientPacket.Type == PacketLeaveRoom {
		r.handleRemovePlayer(envelope.from)
		return
	}

	mark := len(r.sendTasks)
	var err error

	switch envelope.clientPacket.Type {
	case PacketStartGame:
		err = r.handleStartGame(st)
	case PacketToggleReady:
		err = r.handleToggleReady(st)
	case PacketSetName:
		err = r.handleSetName(st, envelope.clientPacket.Name)
	case PacketSelectSecret:
		err = r.handleSelectSecret(st, envelope.clientPacket.ItemIndex)
	case PacketSelectItem:
		err = r.handleSelectItem(st, envelope.clientPacket.ItemIndex)
	case PacketSendChat:
		err = r.handleSendChat(st, envelope.clientPacket.Message)
	case PacketRematch:
		err = r.handleRematch(st)
	default:
		err = ErrInvalidPayload
	}

	if err != nil {
		r.unicast(st.player, MakePacketError(err))
		return
	}
	r.sendTasks = slices.Insert(r.sendTasks, mark, dataSendTask{
		to:     st.player,
		packet: MakePacketAck(envelope.clientPacket.Type),
	})
}

func (r *Room) handleJoinRequest(jreq RoomJoinRequest) {
	if len(r.seats) >= maxPlayers {
		jreq.errChan <- ErrRoomFull
		return
	}

	slot := hostSlot
	if len(r.seats) > 0 && r.seats[0].slot == hostSlot {
		slot = otherSlot(hostSlot)
	}
	st := &seat{
		slot:        slot,
		displayName: fmt.Sprintf("Player %d", slot),
		player:      jreq.player,
	}
	r.seats = append(r.seats, st)
	slices.SortFunc(r.seats, func(a, b *seat) int { return a.slot - b.slot })

	jreq.player.SetRoom(r)

	// Report membership before releasing the joiner, so a disconnect that
	// fires the moment the pumps start can never outrun the seat record.
	r.reportMembership()
	jreq.errChan <- nil

	logger.Debugf("room %s: slot %d joined", r.id, slot)

	if jreq.asCreator {
		r.unicast(st.player, MakePacketRoomCreated(r.id, r.snapshotFor(st)))
	} else {
		r.broadcastSnapshots(MakePacketRoomUpdate)
	}
}

func (r *Room) handleStartGame(st *seat) error {
	if r.phase != PHASE_WAITING {
		return ErrWrongPhase
	}
	if st.slot != hostSlot {
		return ErrNotHost
	}
	if len(r.seats) < maxPlayers {
		return ErrInsufficientPlayers
	}

	r.itemCount = r.itemCountGen.Generate()
	r.phase = PHASE_SELECTING_SECRET
	r.turnOwner = hostSlot
	r.startedAt = r.clock()

	logger.Debugf("room %s: match started with %d sweets", r.id, r.itemCount)

	r.broadcastSnapshots(MakePacketGameStarted)
	return nil
}

func (r *Room) handleToggleReady(st *seat) error {
	if r.phase != PHASE_WAITING {
		return ErrWrongPhase
	}
	st.ready = !st.ready
	r.broadcastSnapshots(MakePacketRoomUpdate)
	return nil
}

func (r *Room) handleSetName(st *seat, name string) error {
	if r.phase != PHASE_WAITING {
		return ErrWrongPhase
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return ErrInvalidPayload
	}
	st.displayName = name
	r.broadcastSnapshots(MakePacketRoomUpdate)
	return nil
}

func (r *Room) handleSelectSecret(st *seat, itemIndex *int) error {
	if itemIndex == nil {
		return ErrInvalidPayload
	}
	if r.phase != PHASE_SELECTING_SECRET {
		return ErrWrongPhase
	}
	if st.slot != r.turnOwner {
		return ErrNotYourTurn
	}
	if *itemIndex < 0 || *itemIndex >= r.itemCount {
		return ErrInvalidIndex
	}

	r.secretPositions[st.slot] = *itemIndex
	st.secretChosen = true

	if st.slot == hostSlot {
		r.turnOwner = otherSlot(hostSlot)
		r.broadcastSnapshots(MakePacketSelectionAdvanced)
		return nil
	}

	// Both secrets are in, slot 1 always eats first.
	r.phase = PHASE_PLAYING
	r.turnOwner = hostSlot
	r.broadcastSnapshots(MakePacketTurnAdvanced)
	return nil
}

func (r *Room) handleSelectItem(st *seat, itemIndex *int) error {
	if itemIndex == nil {
		return ErrInvalidPayload
	}
	if r.phase != PHASE_PLAYING {
		return ErrWrongPhase
	}
	if st.slot != r.turnOwner {
		return ErrNotYourTurn
	}
	if *itemIndex < 0 || *itemIndex >= r.itemCount {
		return ErrInvalidIndex
	}
	if r.consumedItems[*itemIndex] {
		return ErrAlreadyConsumed
	}

	r.consumedItems[*itemIndex] = true
	r.consumedCounts[st.slot]++

	if !r.isPoisoned(*itemIndex) {
		r.turnOwner = otherSlot(st.slot)
		r.broadcastSnapshots(MakePacketTurnAdvanced)
		return nil
	}

	// Eating your own trap is equally fatal, the consumer always loses.
	loser := st
	winnerSlot := otherSlot(loser.slot)
	r.phase = PHASE_FINISHED
	r.turnOwner = 0

	logger.Debugf("room %s: slot %d ate the poison at %d", r.id, loser.slot, *itemIndex)

	secrets := maps.Clone(r.secretPositions)
	summary := fmt.Sprintf("%s ate poisoned sweet #%d", loser.displayName, *itemIndex+1)
	poisonIndex := *itemIndex
	for _, viewer := range r.seats {
		r.unicast(viewer.player, MakePacketGameOver(
			winnerSlot, loser.slot, poisonIndex, secrets, summary, r.snapshotFor(viewer),
		))
	}
	return nil
}

func (r *Room) handleSendChat(st *seat, message string) error {
	message = strings.TrimSpace(message)
	if message == "" || len(message) > maxChatLength {
		return ErrInvalidPayload
	}
	for _, viewer := range r.seats {
		r.unicast(viewer.player, MakePacketChatMessage(st.slot, st.displayName, message))
	}
	return nil
}

func (r *Room) handleRematch(st *seat) error {
	if r.phase != PHASE_FINISHED {
		return ErrWrongPhase
	}
	if st.slot != hostSlot {
		return ErrNotHost
	}
	r.resetMatch()
	r.broadcastSnapshots(MakePacketRoomUpdate)
	return nil
}

func (r *Room) handleRemoveByConn(connId string) {
	for _, st := range r.seats {
		if st.player.ConnectionId() == connId {
			r.handleRemovePlayer(st.player)
			return
		}
	}
}

func (r *Room) handleRemovePlayer(p Player) {
	idx := slices.IndexFunc(r.seats, func(st *seat) bool {
		return st.player.ConnectionId() == p.ConnectionId()
	})
	if idx == -1 {
		p.CancelAndRelease()
		return
	}
	left := r.seats[idx]
	r.seats = slices.Delete(r.seats, idx, idx+1)
	p.CancelAndRelease()

	logger.Debugf("room %s: slot %d left", r.id, left.slot)

	if len(r.seats) == 0 {
		r.parentRegistry.RemoveRoom(r.id)
		return
	}

	// An abandoned match is not a loss for anyone, the room just goes back
	// to waiting for a fresh opponent.
	if r.phase != PHASE_WAITING {
		r.resetMatch()
	}
	for _, viewer := range r.seats {
		r.unicast(viewer.player, MakePacketOpponentLeft(left.slot, r.snapshotFor(viewer)))
	}
	r.reportMembership()
}

// resetMatch clears everything match-scoped. Seats and slot numbers survive.
func (r *Room) resetMatch() {
	r.phase = PHASE_WAITING
	r.itemCount = 0
	r.turnOwner = 0
	r.startedAt = time.Time{}
	clear(r.secretPositions)
	clear(r.consumedItems)
	clear(r.consumedCounts)
	for _, st := range r.seats {
		st.ready = false
		st.secretChosen = false
	}
}

func (r *Room) isPoisoned(itemIndex int) bool {
	for _, secret := range r.secretPositions {
		if secret == itemIndex {
			return true
		}
	}
	return false
}

func (r *Room) seatOf(p Player) *seat {
	for _, st := range r.seats {
		if st.player.ConnectionId() == p.ConnectionId() {
			return st
		}
	}
	return nil
}

func (r *Room) snapshotFor(viewer *seat) RoomSnapshot {
	players := make([]PlayerSnapshot, 0, len(r.seats))
	for _, st := range r.seats {
		players = append(players, PlayerSnapshot{
			Slot:         st.slot,
			DisplayName:  st.displayName,
			Ready:        st.ready,
			SecretChosen: st.secretChosen,
		})
	}

	mySecret := -1
	if secret, chosen := r.secretPositions[viewer.slot]; chosen {
		mySecret = secret
	}

	var elapsedMs int64
	if !r.startedAt.IsZero() {
		elapsedMs = r.clock().Sub(r.startedAt).Milliseconds()
	}

	consumed := slices.Sorted(maps.Keys(r.consumedItems))
	if consumed == nil {
		consumed = []int{}
	}

	return RoomSnapshot{
		RoomId:        r.id,
		Phase:         r.phase.String(),
		ViewerSlot:    viewer.slot,
		TurnOwner:     r.turnOwner,
		ItemCount:     r.itemCount,
		ConsumedItems: consumed,
		Players:       players,
		MySecret:      mySecret,
		ElapsedMs:     elapsedMs,
	}
}

func (r *Room) unicast(to Player, packet ServerPacket) {
	r.sendTasks = append(r.sendTasks, dataSendTask{to: to, packet: packet})
}

func (r *Room) broadcastSnapshots(make func(RoomSnapshot) ServerPacket) {
	for _, viewer := range r.seats {
		r.unicast(viewer.player, make(r.snapshotFor(viewer)))
	}
}

func (r *Room) reportMembership() {
	connIds := make([]string, 0, len(r.seats))
	for _, st := range r.seats {
		connIds = append(connIds, st.player.ConnectionId())
	}
	r.parentRegistry.UpdateMembership(r.id, connIds)
}
