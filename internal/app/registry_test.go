package app_test

import (
	"context"
	"testing"

	"github.com/dkeye/BaghChal/internal/app"
	"github.com/dkeye/BaghChal/internal/core"
	"github.com/dkeye/BaghChal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBindOnce(t *testing.T) {
	r := app.NewRegistry()
	r.Attach("c1", &fakeSignal{}, nil)

	require.NoError(t, r.Bind("c1", "R1", domain.SlotHost))
	assert.ErrorIs(t, r.Bind("c1", "R2", domain.SlotGuest), domain.ErrAlreadySeated)

	code, slot, ok := r.Binding("c1")
	require.True(t, ok)
	assert.Equal(t, domain.RoomCode("R1"), code)
	assert.Equal(t, domain.SlotHost, slot)
}

func TestRegistryUnbindTakesBindingOnce(t *testing.T) {
	r := app.NewRegistry()
	r.Attach("c1", &fakeSignal{}, nil)
	require.NoError(t, r.Bind("c1", "R1", domain.SlotGuest))

	code, slot, ok := r.Unbind("c1")
	assert.True(t, ok)
	assert.Equal(t, domain.RoomCode("R1"), code)
	assert.Equal(t, domain.SlotGuest, slot)

	_, _, ok = r.Unbind("c1")
	assert.False(t, ok)
	assert.False(t, r.Seated("c1"))
	assert.Equal(t, 1, r.Count())

	require.NoError(t, r.Bind("c1", "R2", domain.SlotHost))
}

func TestRegistryUnbindIf(t *testing.T) {
	r := app.NewRegistry()
	require.NoError(t, r.Bind("c1", "R1", domain.SlotHost))

	assert.False(t, r.UnbindIf("c1", "R2", domain.SlotHost))
	assert.False(t, r.UnbindIf("c1", "R1", domain.SlotGuest))
	assert.False(t, r.UnbindIf("", "R1", domain.SlotHost))
	assert.True(t, r.Seated("c1"))

	assert.True(t, r.UnbindIf("c1", "R1", domain.SlotHost))
	assert.False(t, r.Seated("c1"))
}

func TestRegistryDeliver(t *testing.T) {
	r := app.NewRegistry()
	sig := &fakeSignal{}
	r.Attach("c1", sig, nil)

	require.NoError(t, r.Deliver("c1", core.OpponentLeft("R1")))
	evs := sig.events(t)
	require.Len(t, evs, 1)
	assert.Equal(t, core.EventOpponentLeft, evs[0].Type)
	assert.Equal(t, domain.RoomCode("R1"), evs[0].Room)

	sig.err = core.ErrBackpressure
	assert.ErrorIs(t, r.Deliver("c1", core.OpponentLeft("R1")), core.ErrBackpressure)

	assert.ErrorIs(t, r.Deliver("ghost", core.OpponentLeft("R1")), core.ErrConnClosed)

	r.Detach("c1")
	assert.ErrorIs(t, r.Deliver("c1", core.OpponentLeft("R1")), core.ErrConnClosed)
	assert.Equal(t, 0, r.Count())
}

func TestRegistryCancel(t *testing.T) {
	r := app.NewRegistry()
	ctx, cancel := context.WithCancel(context.Background())
	r.Attach("c1", &fakeSignal{}, cancel)

	assert.True(t, r.Cancel("c1"))
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, r.Cancel("ghost"))
}
