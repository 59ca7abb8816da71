package app_test

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/dkeye/BaghChal/internal/app"
	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*app.RoomManager, *recorder, *fakeClock) {
	t.Helper()
	store := app.NewRoomStore(0)
	rec := newRecorder()
	clock := newFakeClock()
	relay := app.NewRelay(store, rec, clock.Now)
	return app.NewRoomManager(store, relay, clock.Now), rec, clock
}

func TestCreateRoomValidation(t *testing.T) {
	m, _, _ := newManager(t)
	long := strings.Repeat("a", 37)

	cases := map[string]struct {
		code domain.RoomCode
		name string
	}{
		"empty code": {"", "alice"},
		"long code":  {domain.RoomCode(long), "alice"},
		"empty name": {"R1", ""},
		"long name":  {"R1", long},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := m.CreateRoom(tc.code, tc.name, "")
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, 0, m.Count())
}

func TestCreateThenJoin(t *testing.T) {
	m, rec, _ := newManager(t)

	code, err := m.CreateRoom("R1", "alice", "c-alice")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomCode("R1"), code)
	assert.True(t, m.RoomExists("R1"))

	_, err = m.CreateRoom("R1", "eve", "")
	assert.ErrorIs(t, err, domain.ErrRoomExists)

	res, err := m.JoinRoom("R1", "bob", "c-bob")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotGuest, res.Slot)
	assert.True(t, res.Ready)
	assert.Equal(t, domain.StatusActive, res.Room.Status)
	assert.Equal(t, []string{"alice", "bob"}, res.Room.Names())
	assert.Equal(t, 2, res.Publish.SentTo)

	for _, conn := range []domain.ConnID{"c-alice", "c-bob"} {
		evs := rec.For(conn)
		require.Len(t, evs, 1)
		assert.Equal(t, core.EventPlayersReady, evs[0].Type)
		assert.Len(t, evs[0].Slots, 2)
	}

	_, err = m.JoinRoom("R1", "carol", "")
	assert.ErrorIs(t, err, domain.ErrRoomFull)

	_, err = m.JoinRoom("R2", "carol", "")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestConcurrentJoinSingleGuest(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.CreateRoom("R1", "alice", "")
	require.NoError(t, err)

	var joined atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := m.JoinRoom("R1", fmt.Sprintf("g%d", i), ""); err == nil {
				joined.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.EqualValues(t, 1, joined.Load())
}

func TestLeaveKeepsRoomForRemainingPlayer(t *testing.T) {
	m, rec, _ := newManager(t)
	_, err := m.CreateRoom("R1", "alice", "c-alice")
	require.NoError(t, err)
	_, err = m.JoinRoom("R1", "bob", "c-bob")
	require.NoError(t, err)

	res, err := m.Leave("R1", domain.SlotHost, "c-alice")
	require.NoError(t, err)
	assert.False(t, res.Deleted)
	assert.Equal(t, domain.SlotHost, res.Slot)
	assert.Equal(t, domain.ConnID("c-alice"), res.Conn)
	assert.Equal(t, domain.StatusClosing, res.Room.Status)

	evs := rec.For("c-bob")
	require.Len(t, evs, 2)
	assert.Equal(t, core.EventOpponentLeft, evs[1].Type)

	// the freed host slot is the first free one
	j, err := m.JoinRoom("R1", "carol", "")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotHost, j.Slot)
	assert.Equal(t, []string{"carol", "bob"}, j.Room.Names())
}

func TestLastLeaveDeletesRoom(t *testing.T) {
	m, rec, _ := newManager(t)
	_, err := m.CreateRoom("R1", "alice", "c-alice")
	require.NoError(t, err)

	res, err := m.Leave("R1", domain.SlotHost, "c-alice")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
	assert.False(t, m.RoomExists("R1"))
	assert.Equal(t, 0, rec.Len())

	_, err = m.Leave("R1", domain.SlotHost, "c-alice")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestLeaveRejectsStaleConnection(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.CreateRoom("R1", "alice", "c-alice")
	require.NoError(t, err)

	_, err = m.Leave("R1", domain.SlotHost, "c-other")
	assert.ErrorIs(t, err, domain.ErrNotSeated)
	_, err = m.Leave("R1", domain.SlotGuest, "")
	assert.ErrorIs(t, err, domain.ErrNotSeated)
	_, err = m.Leave("R1", domain.Slot(5), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.True(t, m.RoomExists("R1"))
}

func TestLeaveByName(t *testing.T) {
	m, _, _ := newManager(t)
	_, err := m.CreateRoom("R1", "alice", "")
	require.NoError(t, err)
	_, err = m.JoinRoom("R1", "bob", "")
	require.NoError(t, err)

	_, err = m.LeaveByName("R1", "nobody")
	assert.ErrorIs(t, err, domain.ErrNotSeated)
	_, err = m.LeaveByName("R1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, err := m.LeaveByName("R1", "bob")
	require.NoError(t, err)
	assert.Equal(t, domain.SlotGuest, res.Slot)
	assert.False(t, res.Deleted)

	res, err = m.LeaveByName("R1", "alice")
	require.NoError(t, err)
	assert.True(t, res.Deleted)
}

func TestListSortedByCode(t *testing.T) {
	m, _, _ := newManager(t)
	for _, c := range []domain.RoomCode{"C", "A", "B"} {
		_, err := m.CreateRoom(c, "host", "")
		require.NoError(t, err)
	}
	_, err := m.JoinRoom("B", "guest", "")
	require.NoError(t, err)

	list := m.List()
	require.Len(t, list, 3)
	assert.Equal(t, domain.RoomCode("A"), list[0].Code)
	assert.Equal(t, domain.RoomCode("B"), list[1].Code)
	assert.Equal(t, 2, list[1].PlayerCount)
	assert.Equal(t, domain.StatusActive, list[1].Status)
	assert.Equal(t, domain.StatusWaiting, list[2].Status)
}

func TestOverlongCodeIsInvalidNotMissing(t *testing.T) {
	m, _, _ := newManager(t)
	code := domain.RoomCode(strings.Repeat("z", domain.MaxCodeLen+1))

	_, err := m.JoinRoom(code, "bob", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.NotErrorIs(t, err, domain.ErrRoomNotFound)

	_, err = m.LeaveByName(code, "bob")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, m.RoomExists(code))
}
