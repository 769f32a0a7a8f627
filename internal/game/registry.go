package game

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

const (
	// roomIDBound caps the 4-digit decimal id space. With only 10,000
	// possible ids, collisions get likely as occupancy grows, so the random
	// probe is bounded and falls back to an exhaustive scan.
	roomIDBound = 10000

	maxIDAttempts = 100
)

// ErrNoFreeRooms is returned when every 4-digit room id is occupied.
var ErrNoFreeRooms = errors.New("ROOMS_EXHAUSTED: all room ids are in use")

// Registry is the process-wide room table. It only ever inserts, looks up and
// deletes whole rooms; all per-room state is guarded by the room's own lock.
type Registry struct {
	rooms map[string]*Room
	mu    sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom reserves a unique 4-digit decimal id and inserts a new room
// under it. The id is sampled randomly with a bounded retry count; once the
// id space is dense the remaining free ids are enumerated and one is picked
// uniformly, so creation only fails when all 10,000 ids are in use.
func (reg *Registry) CreateRoom() (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	id, err := reg.freeIDLocked()
	if err != nil {
		return nil, err
	}

	room := NewRoom(id)
	reg.rooms[id] = room
	return room, nil
}

func (reg *Registry) freeIDLocked() (string, error) {
	for attempts := 0; attempts < maxIDAttempts; attempts++ {
		id := fmt.Sprintf("%04d", rand.Intn(roomIDBound))
		if _, taken := reg.rooms[id]; !taken {
			return id, nil
		}
	}

	free := make([]string, 0)
	for n := 0; n < roomIDBound; n++ {
		id := fmt.Sprintf("%04d", n)
		if _, taken := reg.rooms[id]; !taken {
			free = append(free, id)
		}
	}
	if len(free) == 0 {
		return "", ErrNoFreeRooms
	}
	return free[rand.Intn(len(free))], nil
}

func (reg *Registry) GetRoom(id string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[id]
	return room, ok
}

// Rooms returns a snapshot of all live rooms.
func (reg *Registry) Rooms() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	rooms := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Count is the number of live rooms; used by the health endpoint.
func (reg *Registry) Count() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.rooms)
}

// RemoveRoom deletes a room, freeing its id for reuse.
func (reg *Registry) RemoveRoom(id string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.rooms, id)
}
