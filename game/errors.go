package game

import "errors"

var (
	ErrRoomNotFound        = errors.New("room-not-found")
	ErrRoomFull            = errors.New("room-full")
	ErrNotHost             = errors.New("not-host")
	ErrInsufficientPlayers = errors.New("insufficient-players")
	ErrWrongPhase          = errors.New("wrong-phase")
	ErrNotYourTurn         = errors.New("not-your-turn")
	ErrInvalidIndex        = errors.New("invalid-index")
	ErrAlreadyConsumed     = errors.New("already-consumed")
	ErrInvalidPayload      = errors.New("invalid-payload")
)

var ErrSendBufferFull = errors.New("send-buffer-full")

// errorText maps an error code to the human-readable text shown by the
// client, mirroring the notification strings of the web frontend.
var errorText = map[string]string{
	"room-not-found":       "Room not found",
	"room-full":            "Room is already full",
	"not-host":             "Only the host can do that",
	"insufficient-players": "Waiting for a second player",
	"wrong-phase":          "That action is not allowed right now",
	"not-your-turn":        "It is not your turn",
	"invalid-index":        "That sweet does not exist",
	"already-consumed":     "That sweet was already eaten",
	"invalid-payload":      "Malformed request",
}

func errorMessage(err error) string {
	if msg, ok := errorText[err.Error()]; ok {
		return msg
	}
	return "Unknown error"
}
