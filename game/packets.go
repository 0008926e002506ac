package game

import "encoding/json"

// Client intent names. create-room and join-room are HTTP upgrade routes,
// everything else arrives over the socket.
const (
	PacketStartGame    = "start-game"
	PacketToggleReady  = "toggle-ready"
	PacketSetName      = "set-name"
	PacketSelectSecret = "select-secret"
	PacketSelectItem   = "select-item"
	PacketSendChat     = "send-chat"
	PacketRematch      = "rematch"
	PacketLeaveRoom    = "leave-room"
)

// Server event names.
const (
	PacketRoomCreated       = "room-created"
	PacketAck               = "ack"
	PacketRoomUpdate        = "room-update"
	PacketGameStarted       = "game-started"
	PacketSelectionAdvanced = "selection-advanced"
	PacketTurnAdvanced      = "turn-advanced"
	PacketGameOver          = "game-over"
	PacketOpponentLeft      = "opponent-left"
	PacketChatMessage       = "chat-message"
	PacketError             = "error"
)

// ClientPacket is the closed set of socket intents. Unknown types and
// missing fields are rejected centrally in the room dispatch.
type ClientPacket struct {
	Type      string `json:"type"`
	ItemIndex *int   `json:"itemIndex,omitempty"`
	Name      string `json:"name,omitempty"`
	Message   string `json:"message,omitempty"`
}

func DecodeClientPacket(data []byte) (ClientPacket, error) {
	var packet ClientPacket
	if err := json.Unmarshal(data, &packet); err != nil {
		return ClientPacket{}, ErrInvalidPayload
	}
	if packet.Type == "" {
		return ClientPacket{}, ErrInvalidPayload
	}
	return packet, nil
}

type PlayerSnapshot struct {
	Slot         int    `json:"slot"`
	DisplayName  string `json:"displayName"`
	Ready        bool   `json:"ready"`
	SecretChosen bool   `json:"secretChosen"`
}

// RoomSnapshot is the per-recipient projection of room state. ViewerSlot
// lets the client answer "is it my turn" locally, MySecret only ever holds
// the viewer's own pick.
type RoomSnapshot struct {
	RoomId        string           `json:"roomId"`
	Phase         string           `json:"phase"`
	ViewerSlot    int              `json:"viewerSlot"`
	TurnOwner     int              `json:"turnOwner"`
	ItemCount     int              `json:"itemCount"`
	ConsumedItems []int            `json:"consumedItems"`
	Players       []PlayerSnapshot `json:"players"`
	MySecret      int              `json:"mySecret"`
	ElapsedMs     int64            `json:"elapsedMs"`
}

type ServerPacket struct {
	Type            string        `json:"type"`
	Event           string        `json:"event,omitempty"`
	RoomId          string        `json:"roomId,omitempty"`
	Snapshot        *RoomSnapshot `json:"snapshot,omitempty"`
	WinnerSlot      int           `json:"winnerSlot,omitempty"`
	LoserSlot       int           `json:"loserSlot,omitempty"`
	PoisonIndex     *int          `json:"poisonIndex,omitempty"`
	SecretPositions map[int]int   `json:"secretPositions,omitempty"`
	Summary         string        `json:"summary,omitempty"`
	Slot            int           `json:"slot,omitempty"`
	DisplayName     string        `json:"displayName,omitempty"`
	Message         string        `json:"message,omitempty"`
	Code            string        `json:"code,omitempty"`
}

func (p ServerPacket) Encode() []byte {
	data, err := json.Marshal(p)
	if err != nil {
		// Every field is a plain value, marshaling cannot fail.
		panic(err)
	}
	return data
}

func MakePacketRoomCreated(roomId string, snapshot RoomSnapshot) ServerPacket {
	return ServerPacket{Type: PacketRoomCreated, RoomId: roomId, Snapshot: &snapshot}
}

func MakePacketAck(event string) ServerPacket {
	return ServerPacket{Type: PacketAck, Event: event}
}

func MakePacketRoomUpdate(snapshot RoomSnapshot) ServerPacket {
	return ServerPacket{Type: PacketRoomUpdate, Snapshot: &snapshot}
}

func MakePacketGameStarted(snapshot RoomSnapshot) ServerPacket {
	return ServerPacket{Type: PacketGameStarted, Snapshot: &snapshot}
}

func MakePacketSelectionAdvanced(snapshot RoomSnapshot) ServerPacket {
	return ServerPacket{Type: PacketSelectionAdvanced, Snapshot: &snapshot}
}

func MakePacketTurnAdvanced(snapshot RoomSnapshot) ServerPacket {
	return ServerPacket{Type: PacketTurnAdvanced, Snapshot: &snapshot}
}

func MakePacketGameOver(winnerSlot, loserSlot, poisonIndex int, secretPositions map[int]int, summary string, snapshot RoomSnapshot) ServerPacket {
	idx := poisonIndex
	return ServerPacket{
		Type:            PacketGameOver,
		WinnerSlot:      winnerSlot,
		LoserSlot:       loserSlot,
		PoisonIndex:     &idx,
		SecretPositions: secretPositions,
		Summary:         summary,
		Snapshot:        &snapshot,
	}
}

func MakePacketOpponentLeft(slot int, snapshot RoomSnapshot) ServerPacket {
	return ServerPacket{Type: PacketOpponentLeft, Slot: slot, Snapshot: &snapshot}
}

func MakePacketChatMessage(slot int, displayName, message string) ServerPacket {
	return ServerPacket{Type: PacketChatMessage, Slot: slot, DisplayName: displayName, Message: message}
}

func MakePacketError(err error) ServerPacket {
	return ServerPacket{Type: PacketError, Code: err.Error(), Message: errorMessage(err)}
}
