package app_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/BaghChal/internal/app"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoom(code, host string, conn domain.ConnID) *domain.Room {
	return domain.NewRoom(domain.RoomCode(code), &domain.Participant{Name: host, Conn: conn}, time.Unix(1000, 0))
}

func TestStoreCreateConflict(t *testing.T) {
	s := app.NewRoomStore(4)
	require.NoError(t, s.Create(newRoom("R1", "alice", "")))

	err := s.Create(newRoom("R1", "bob", ""))
	assert.ErrorIs(t, err, domain.ErrRoomExists)

	snap, err := s.Get("R1")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, snap.Names())
}

func TestStoreCreateRejectsEmptyRoom(t *testing.T) {
	s := app.NewRoomStore(0)
	assert.ErrorIs(t, s.Create(nil), domain.ErrInvalidInput)

	r := newRoom("R1", "alice", "")
	r.Vacate(domain.SlotHost, time.Now())
	assert.ErrorIs(t, s.Create(r), domain.ErrInvalidInput)
}

func TestStoreConcurrentCreateSingleWinner(t *testing.T) {
	s := app.NewRoomStore(0)
	const n = 64
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Create(newRoom("SAME", fmt.Sprintf("p%d", i), ""))
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrRoomExists)
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, s.Len())
}

func TestStoreGetMissing(t *testing.T) {
	s := app.NewRoomStore(0)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestStoreUpdateDeletesEmptiedRoom(t *testing.T) {
	s := app.NewRoomStore(0)
	require.NoError(t, s.Create(newRoom("R1", "alice", "")))

	_, deleted, err := s.Update("R1", func(r *domain.Room) error {
		r.Vacate(domain.SlotHost, time.Now())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = s.Get("R1")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStoreUpdateErrorLeavesRoom(t *testing.T) {
	s := app.NewRoomStore(0)
	require.NoError(t, s.Create(newRoom("R1", "alice", "")))

	_, deleted, err := s.Update("R1", func(r *domain.Room) error {
		return domain.ErrRoomFull
	})
	assert.ErrorIs(t, err, domain.ErrRoomFull)
	assert.False(t, deleted)
	assert.Equal(t, 1, s.Len())

	_, _, err = s.Update("missing", func(r *domain.Room) error { return nil })
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestStoreDeleteIf(t *testing.T) {
	s := app.NewRoomStore(0)
	require.NoError(t, s.Create(newRoom("R1", "alice", "")))

	_, ok := s.DeleteIf("R1", func(*domain.Room) bool { return false })
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())

	snap, ok := s.DeleteIf("R1", func(*domain.Room) bool { return true })
	assert.True(t, ok)
	assert.Equal(t, domain.RoomCode("R1"), snap.Code)
	assert.Equal(t, 0, s.Len())

	assert.False(t, s.Delete("R1"))
}

func TestStoreRange(t *testing.T) {
	s := app.NewRoomStore(8)
	for i := 0; i < 20; i++ {
		require.NoError(t, s.Create(newRoom(fmt.Sprintf("R%d", i), "p", "")))
	}

	seen := map[domain.RoomCode]bool{}
	s.Range(func(snap domain.Snapshot) bool {
		seen[snap.Code] = true
		return true
	})
	assert.Len(t, seen, 20)

	n := 0
	s.Range(func(domain.Snapshot) bool {
		n++
		return false
	})
	assert.Equal(t, 1, n)
}

func TestStoreRangeCallbackMayMutate(t *testing.T) {
	s := app.NewRoomStore(1)
	require.NoError(t, s.Create(newRoom("R1", "alice", "")))
	require.NoError(t, s.Create(newRoom("R2", "bob", "")))

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Range(func(snap domain.Snapshot) bool {
			s.Delete(snap.Code)
			return true
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Range held a lock while running the callback")
	}
	assert.Equal(t, 0, s.Len())
}
