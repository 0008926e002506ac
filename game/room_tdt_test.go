package game

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func MakeDataSendTasks(args ...any) []dataSendTask {
	if len(args)%2 != 0 {
		panic("must provide arguments in pairs!")
	}
	res := make([]dataSendTask, 0, len(args)/2)

	for i := 0; i < len(args); i += 2 {
		to, ok1 := args[i].(Player)
		packet, ok2 := args[i+1].(ServerPacket)

		if !ok1 || !ok2 {
			panic(fmt.Sprintf("Bad types at index %d, expected (Player, ServerPacket)", i))
		}

		res = append(res, dataSendTask{to: to, packet: packet})
	}
	return res
}

func AssertEqualDataSendTasks(t *testing.T, expected []dataSendTask, actual []dataSendTask) {
	t.Helper()
	require.Len(t, actual, len(expected))
	for i := range expected {
		assert.Same(t, expected[i].to, actual[i].to, "recipient mismatch at index %d", i)
		diff := cmp.Diff(expected[i].packet, actual[i].packet)
		if diff != "" {
			assert.Fail(t, fmt.Sprintf("Packet mismatch at index %d (-want +got):\n%s", i, diff))
		}
	}
}

func intPtr(i int) *int {
	return &i
}

func envelopeFrom(p Player, packet ClientPacket) ClientPacketEnvelope {
	return ClientPacketEnvelope{clientPacket: packet, from: p}
}

func TestRoom_FullMatchScenario(t *testing.T) {
	t.Parallel()

	naruto := &MockPlayer{}
	naruto.On("ConnectionId").Return("conn-1")
	naruto.On("SetRoom", mock.Anything).Return().Once()

	sasuke := &MockPlayer{}
	sasuke.On("ConnectionId").Return("conn-2")
	sasuke.On("SetRoom", mock.Anything).Return()

	sakura := &MockPlayer{}

	reg := &MockRegistry{}
	reg.On("UpdateMembership", "KQ7P2X", mock.Anything).Return()

	itemGen := &MockRandomItemCountGenerator{}

	r := NewRoom("KQ7P2X", itemGen)
	r.SetParentRegistry(reg)
	base := time.Unix(1700000000, 0)
	r.clock = func() time.Time { return base }

	ps := func(slot int, name string, ready, secretChosen bool) PlayerSnapshot {
		return PlayerSnapshot{Slot: slot, DisplayName: name, Ready: ready, SecretChosen: secretChosen}
	}
	snap := func(viewer, turnOwner int, phase RoomPhase, itemCount int, consumed []int, mySecret int, players ...PlayerSnapshot) RoomSnapshot {
		return RoomSnapshot{
			RoomId:        "KQ7P2X",
			Phase:         phase.String(),
			ViewerSlot:    viewer,
			TurnOwner:     turnOwner,
			ItemCount:     itemCount,
			ConsumedItems: consumed,
			Players:       players,
			MySecret:      mySecret,
		}
	}

	testCases := []struct {
		desc                  string
		setupExpectations     func()
		action                func()
		expectedDataSendTasks []dataSendTask
	}{
		{
			desc: "naruto creates the room and takes slot 1",
			action: func() {
				r.handleJoinRequest(NewRoomJoinRequest("KQ7P2X", naruto, true))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketRoomCreated("KQ7P2X", snap(1, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Player 1", false, false))),
			),
		},
		{
			desc: "sasuke joins and takes slot 2",
			action: func() {
				r.handleJoinRequest(NewRoomJoinRequest("KQ7P2X", sasuke, false))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketRoomUpdate(snap(1, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Player 1", false, false), ps(2, "Player 2", false, false))),
				sasuke, MakePacketRoomUpdate(snap(2, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Player 1", false, false), ps(2, "Player 2", false, false))),
			),
		},
		{
			desc: "sakura cannot join, the room is full",
			action: func() {
				jreq := NewRoomJoinRequest("KQ7P2X", sakura, false)
				r.handleJoinRequest(jreq)
				assert.Equal(t, ErrRoomFull, <-jreq.errChan)
			},
			expectedDataSendTasks: nil,
		},
		{
			desc: "sasuke cannot start the game, he is not the host",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketStartGame}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketError(ErrNotHost),
			),
		},
		{
			desc: "naruto renames himself",
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketSetName, Name: "Naruto"}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketAck(PacketSetName),
				naruto, MakePacketRoomUpdate(snap(1, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", false, false))),
				sasuke, MakePacketRoomUpdate(snap(2, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", false, false))),
			),
		},
		{
			desc: "sasuke toggles ready",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketToggleReady}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketAck(PacketToggleReady),
				naruto, MakePacketRoomUpdate(snap(1, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", true, false))),
				sasuke, MakePacketRoomUpdate(snap(2, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", true, false))),
			),
		},
		{
			desc: "naruto starts the game",
			setupExpectations: func() {
				itemGen.On("Generate").Return(6).Once()
			},
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketStartGame}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketAck(PacketStartGame),
				naruto, MakePacketGameStarted(snap(1, 1, PHASE_SELECTING_SECRET, 6, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", true, false))),
				sasuke, MakePacketGameStarted(snap(2, 1, PHASE_SELECTING_SECRET, 6, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", true, false))),
			),
		},
		{
			desc: "sasuke cannot pick a secret before naruto",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketSelectSecret, ItemIndex: intPtr(5)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketError(ErrNotYourTurn),
			),
		},
		{
			desc: "naruto cannot pick a secret out of range",
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketSelectSecret, ItemIndex: intPtr(9)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketError(ErrInvalidIndex),
			),
		},
		{
			desc: "naruto picks sweet 2 as his secret",
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketSelectSecret, ItemIndex: intPtr(2)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketAck(PacketSelectSecret),
				naruto, MakePacketSelectionAdvanced(snap(1, 2, PHASE_SELECTING_SECRET, 6, []int{}, 2,
					ps(1, "Naruto", false, true), ps(2, "Player 2", true, false))),
				sasuke, MakePacketSelectionAdvanced(snap(2, 2, PHASE_SELECTING_SECRET, 6, []int{}, -1,
					ps(1, "Naruto", false, true), ps(2, "Player 2", true, false))),
			),
		},
		{
			desc: "naruto cannot pick a second secret",
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketSelectSecret, ItemIndex: intPtr(3)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketError(ErrNotYourTurn),
			),
		},
		{
			desc: "sasuke picks sweet 5, the match begins with naruto to act",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketSelectSecret, ItemIndex: intPtr(5)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketAck(PacketSelectSecret),
				naruto, MakePacketTurnAdvanced(snap(1, 1, PHASE_PLAYING, 6, []int{}, 2,
					ps(1, "Naruto", false, true), ps(2, "Player 2", true, true))),
				sasuke, MakePacketTurnAdvanced(snap(2, 1, PHASE_PLAYING, 6, []int{}, 5,
					ps(1, "Naruto", false, true), ps(2, "Player 2", true, true))),
			),
		},
		{
			desc: "sasuke cannot eat out of turn",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketSelectItem, ItemIndex: intPtr(0)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketError(ErrNotYourTurn),
			),
		},
		{
			desc: "naruto eats a safe sweet, the turn passes",
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketSelectItem, ItemIndex: intPtr(0)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketAck(PacketSelectItem),
				naruto, MakePacketTurnAdvanced(snap(1, 2, PHASE_PLAYING, 6, []int{0}, 2,
					ps(1, "Naruto", false, true), ps(2, "Player 2", true, true))),
				sasuke, MakePacketTurnAdvanced(snap(2, 2, PHASE_PLAYING, 6, []int{0}, 5,
					ps(1, "Naruto", false, true), ps(2, "Player 2", true, true))),
			),
		},
		{
			desc: "sasuke cannot eat a sweet twice",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketSelectItem, ItemIndex: intPtr(0)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketError(ErrAlreadyConsumed),
			),
		},
		{
			desc: "sasuke eats naruto's poison and loses",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketSelectItem, ItemIndex: intPtr(2)}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketAck(PacketSelectItem),
				naruto, MakePacketGameOver(1, 2, 2, map[int]int{1: 2, 2: 5},
					"Player 2 ate poisoned sweet #3",
					snap(1, 0, PHASE_FINISHED, 6, []int{0, 2}, 2,
						ps(1, "Naruto", false, true), ps(2, "Player 2", true, true))),
				sasuke, MakePacketGameOver(1, 2, 2, map[int]int{1: 2, 2: 5},
					"Player 2 ate poisoned sweet #3",
					snap(2, 0, PHASE_FINISHED, 6, []int{0, 2}, 5,
						ps(1, "Naruto", false, true), ps(2, "Player 2", true, true))),
			),
		},
		{
			desc: "sasuke chats after losing",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketSendChat, Message: "gg"}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketAck(PacketSendChat),
				naruto, MakePacketChatMessage(2, "Player 2", "gg"),
				sasuke, MakePacketChatMessage(2, "Player 2", "gg"),
			),
		},
		{
			desc: "sasuke cannot trigger a rematch",
			action: func() {
				r.dispatch(envelopeFrom(sasuke, ClientPacket{Type: PacketRematch}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				sasuke, MakePacketError(ErrNotHost),
			),
		},
		{
			desc: "naruto restarts, the room returns to waiting with seats intact",
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketRematch}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketAck(PacketRematch),
				naruto, MakePacketRoomUpdate(snap(1, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", false, false))),
				sasuke, MakePacketRoomUpdate(snap(2, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", false, false))),
			),
		},
		{
			desc: "naruto starts a second match",
			setupExpectations: func() {
				itemGen.On("Generate").Return(6).Once()
			},
			action: func() {
				r.dispatch(envelopeFrom(naruto, ClientPacket{Type: PacketStartGame}))
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketAck(PacketStartGame),
				naruto, MakePacketGameStarted(snap(1, 1, PHASE_SELECTING_SECRET, 6, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", false, false))),
				sasuke, MakePacketGameStarted(snap(2, 1, PHASE_SELECTING_SECRET, 6, []int{}, -1,
					ps(1, "Naruto", false, false), ps(2, "Player 2", false, false))),
			),
		},
		{
			desc: "sasuke disconnects mid-match, naruto is told and the match is abandoned",
			setupExpectations: func() {
				sasuke.On("CancelAndRelease").Return().Once()
			},
			action: func() {
				r.handleRemoveByConn("conn-2")
			},
			expectedDataSendTasks: MakeDataSendTasks(
				naruto, MakePacketOpponentLeft(2, snap(1, 0, PHASE_WAITING, 0, []int{}, -1,
					ps(1, "Naruto", false, false))),
			),
		},
		{
			desc: "naruto leaves too, the room asks to be removed",
			setupExpectations: func() {
				naruto.On("CancelAndRelease").Return().Once()
				reg.On("RemoveRoom", "KQ7P2X").Return().Once()
			},
			action: func() {
				r.handleRemovePlayer(naruto)
			},
			expectedDataSendTasks: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if tc.setupExpectations != nil {
				tc.setupExpectations()
			}
			tc.action()
			AssertEqualDataSendTasks(t, tc.expectedDataSendTasks, r.takeSendTasks())
		})
	}

	naruto.AssertExpectations(t)
	sasuke.AssertExpectations(t)
	reg.AssertExpectations(t)
	itemGen.AssertExpectations(t)
}
