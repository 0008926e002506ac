package game

import (
	"math/rand/v2"
	"strings"
	"sync"
)

const roomIdLength = 6

// Codes are uppercase alphanumerics. Lookups go through NormalizeRoomId, so
// a lowercase paste still finds the room.
const roomIdAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Idgen hands out room codes unique among the ids currently alive. The
// registry double-checks against its own map anyway, this is the first line.
type Idgen struct {
	ids    map[string]struct{}
	locker sync.Mutex
}

func NewIdGen() Idgen {
	return Idgen{ids: make(map[string]struct{})}
}

func (idgen *Idgen) Generate() string {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()

	for {
		id := randomRoomId()
		if _, taken := idgen.ids[id]; taken {
			continue
		}
		idgen.ids[id] = struct{}{}
		return id
	}
}

func (idgen *Idgen) Dispose(id string) {
	idgen.locker.Lock()
	defer idgen.locker.Unlock()
	delete(idgen.ids, id)
}

func randomRoomId() string {
	var b strings.Builder
	b.Grow(roomIdLength)
	for range roomIdLength {
		b.WriteByte(roomIdAlphabet[rand.IntN(len(roomIdAlphabet))])
	}
	return b.String()
}

// NormalizeRoomId uppercases a client-typed room code so lookups are
// case-insensitive.
func NormalizeRoomId(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
