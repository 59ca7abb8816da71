package app

import (
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
)

const DefaultShards = 32

type shard struct {
	mu    sync.RWMutex
	rooms map[domain.RoomCode]*domain.Room
}

// RoomStore is a sharded in-memory core.RoomStore. Each code maps to one
// shard, so operations on unrelated rooms rarely contend and a sweep only ever
// holds one shard's read lock at a time.
type RoomStore struct {
	shards []*shard
}

var _ core.RoomStore = (*RoomStore)(nil)

func NewRoomStore(shards int) *RoomStore {
	if shards <= 0 {
		shards = DefaultShards
	}
	s := &RoomStore{shards: make([]*shard, shards)}
	for i := range s.shards {
		s.shards[i] = &shard{rooms: make(map[domain.RoomCode]*domain.Room)}
	}
	return s
}

func (s *RoomStore) shardFor(code domain.RoomCode) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(code))
	return s.shards[h.Sum32()%uint32(len(s.shards))]
}

func (s *RoomStore) Create(room *domain.Room) error {
	if room == nil || room.Empty() {
		return fmt.Errorf("%w: room has no occupants", domain.ErrInvalidInput)
	}
	sh := s.shardFor(room.Code)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.rooms[room.Code]; ok {
		return fmt.Errorf("%w: %s", domain.ErrRoomExists, room.Code)
	}
	sh.rooms[room.Code] = room
	return nil
}

func (s *RoomStore) Get(code domain.RoomCode) (domain.Snapshot, error) {
	sh := s.shardFor(code)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	r, ok := sh.rooms[code]
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, code)
	}
	return r.Snapshot(), nil
}

func (s *RoomStore) Update(code domain.RoomCode, fn func(r *domain.Room) error) (domain.Snapshot, bool, error) {
	sh := s.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.rooms[code]
	if !ok {
		return domain.Snapshot{}, false, fmt.Errorf("%w: %s", domain.ErrRoomNotFound, code)
	}
	if err := fn(r); err != nil {
		return r.Snapshot(), false, err
	}
	snap := r.Snapshot()
	if r.Empty() {
		delete(sh.rooms, code)
		return snap, true, nil
	}
	return snap, false, nil
}

func (s *RoomStore) Delete(code domain.RoomCode) bool {
	sh := s.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	if _, ok := sh.rooms[code]; !ok {
		return false
	}
	delete(sh.rooms, code)
	return true
}

func (s *RoomStore) DeleteIf(code domain.RoomCode, pred func(r *domain.Room) bool) (domain.Snapshot, bool) {
	sh := s.shardFor(code)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	r, ok := sh.rooms[code]
	if !ok || !pred(r) {
		return domain.Snapshot{}, false
	}
	delete(sh.rooms, code)
	return r.Snapshot(), true
}

func (s *RoomStore) Range(fn func(s domain.Snapshot) bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		batch := make([]domain.Snapshot, 0, len(sh.rooms))
		for _, r := range sh.rooms {
			batch = append(batch, r.Snapshot())
		}
		sh.mu.RUnlock()

		for _, snap := range batch {
			if !fn(snap) {
				return
			}
		}
	}
}

func (s *RoomStore) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.rooms)
		sh.mu.RUnlock()
	}
	return n
}
