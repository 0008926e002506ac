package game

import "time"

// NetworkSession is the transport-owned connection the room layer writes to.
// The game code never touches gorilla directly outside websocket.go.
type NetworkSession interface {
	Close(errCode string)
	Write(data []byte) error
	Read() ([]byte, error)
	Ping() error
}

// Player is a room's view of a connected participant. The connection id is
// an opaque transport handle, never a seat number.
type Player interface {
	ConnectionId() string
	Send(data []byte) error
	Ping() error
	SetRoom(r *Room)
	CancelAndRelease()
}

type UniqueIdGenerator interface {
	Generate() string
	Dispose(id string)
}

type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) <-chan time.Time
}

// RandomItemCountGenerator draws the sweet count for a fresh match.
type RandomItemCountGenerator interface {
	Generate() int
}

// Registry is the room's handle back to whatever owns the room map.
type Registry interface {
	RemoveRoom(roomId string)
	UpdateMembership(roomId string, connIds []string)
}

// DisconnectResolver turns a dead connection into a leave event for
// whichever room the connection was in, if any.
type DisconnectResolver interface {
	ResolveDisconnect(connId string)
}
