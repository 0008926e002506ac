package game

type RoomPhase int

const (
	PHASE_WAITING RoomPhase = iota
	PHASE_SELECTING_SECRET
	PHASE_PLAYING
	PHASE_FINISHED
)

func (p RoomPhase) String() string {
	switch p {
	case PHASE_WAITING:
		return "waiting"
	case PHASE_SELECTING_SECRET:
		return "selecting-secret"
	case PHASE_PLAYING:
		return "playing"
	case PHASE_FINISHED:
		return "finished"
	}
	return "unknown"
}

const (
	hostSlot   = 1
	maxPlayers = 2

	minItemCount = 5
	maxItemCount = 12
)

func otherSlot(slot int) int {
	return 3 - slot
}

type ClientPacketEnvelope struct {
	clientPacket ClientPacket
	from         Player
}

type RoomJoinRequest struct {
	roomId    string
	player    Player
	asCreator bool
	errChan   chan error
}

func NewRoomJoinRequest(roomId string, player Player, asCreator bool) RoomJoinRequest {
	return RoomJoinRequest{
		roomId:    roomId,
		player:    player,
		asCreator: asCreator,
		errChan:   make(chan error, 1),
	}
}

// seat is the durable per-slot state. The Player behind it comes and goes
// with the connection, the slot number never moves once assigned.
type seat struct {
	slot         int
	displayName  string
	ready        bool
	secretChosen bool
	player       Player
}

type dataSendTask struct {
	to     Player
	packet ServerPacket
}
