package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dkeye/BaghChal/internal/app"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepEvictsOnlyIdleRooms(t *testing.T) {
	clock := newFakeClock()
	store := app.NewRoomStore(0)
	relay := app.NewRelay(store, nil, clock.Now)
	m := app.NewRoomManager(store, relay, clock.Now)
	sw := app.NewSweeper(store, time.Minute, 2*time.Hour, clock.Now)

	var evicted []domain.RoomCode
	sw.OnEvict = func(s domain.Snapshot) { evicted = append(evicted, s.Code) }

	t0 := clock.Now()
	_, err := m.CreateRoom("idle", "alice", "")
	require.NoError(t, err)
	_, err = m.CreateRoom("busy", "bob", "")
	require.NoError(t, err)

	clock.Advance(90 * time.Minute)
	_, err = relay.UpdateState("busy", json.RawMessage(`{}`), domain.SlotNone)
	require.NoError(t, err)

	assert.Equal(t, 0, sw.Sweep(t0.Add(time.Hour)))
	assert.Equal(t, 0, sw.Sweep(t0.Add(2*time.Hour)))

	assert.Equal(t, 1, sw.Sweep(t0.Add(2*time.Hour+time.Second)))
	assert.Equal(t, []domain.RoomCode{"idle"}, evicted)
	assert.False(t, m.RoomExists("idle"))
	assert.True(t, m.RoomExists("busy"))
}

func TestSweeperDefaults(t *testing.T) {
	store := app.NewRoomStore(0)
	require.NoError(t, store.Create(newRoom("R1", "alice", "")))

	sw := app.NewSweeper(store, 0, 0, nil)
	created := time.Unix(1000, 0)
	assert.Equal(t, 0, sw.Sweep(created.Add(app.DefaultRoomTTL)))
	assert.Equal(t, 1, sw.Sweep(created.Add(app.DefaultRoomTTL+time.Millisecond)))
}

func TestSweeperRunUntilCanceled(t *testing.T) {
	clock := newFakeClock()
	store := app.NewRoomStore(0)
	require.NoError(t, store.Create(domain.NewRoom("R1", &domain.Participant{Name: "alice"}, clock.Now())))
	clock.Advance(3 * time.Hour)

	sw := app.NewSweeper(store, 5*time.Millisecond, time.Hour, clock.Now)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
