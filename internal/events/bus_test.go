package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"lacestore/internal/events"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestPublishRunsHandlersInOrder(t *testing.T) {
	bus := events.NewBus(nil)
	var got []string
	bus.Subscribe(events.NameOrderPlaced, func(context.Context, events.Event) error {
		got = append(got, "first")
		return nil
	})
	bus.Subscribe(events.NameOrderPlaced, func(context.Context, events.Event) error {
		got = append(got, "second")
		return nil
	})

	require.NoError(t, bus.Publish(t.Context(), events.OrderPlaced{OrderID: 1}))
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestPublishJoinsErrorsAndRecoversPanics(t *testing.T) {
	bus := events.NewBus(nil)
	boom := errors.New("boom")
	ran := false
	bus.Subscribe(events.NameOrderPaid, func(context.Context, events.Event) error { return boom })
	bus.Subscribe(events.NameOrderPaid, func(context.Context, events.Event) error { panic("bad handler") })
	bus.Subscribe(events.NameOrderPaid, func(context.Context, events.Event) error {
		ran = true
		return nil
	})

	err := bus.Publish(t.Context(), events.OrderPaid{OrderID: 1})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "bad handler")
	assert.True(t, ran)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	bus := events.NewBus(nil)
	assert.NoError(t, bus.Publish(t.Context(), events.OrderItemDeleted{ItemID: 3}))
	assert.NoError(t, bus.Publish(t.Context(), nil))
}

func TestOnIsTyped(t *testing.T) {
	bus := events.NewBus(nil)
	var seen events.OrderItemDeleted
	events.On(bus, events.NameOrderItemDeleted, func(_ context.Context, e events.OrderItemDeleted) error {
		seen = e
		return nil
	})

	e := events.OrderItemDeleted{Meta: events.NewMeta(time.Now()), ItemID: 9, Quantity: 2}
	require.NoError(t, bus.Publish(t.Context(), e))
	assert.Equal(t, int64(9), seen.ItemID)
	assert.NotEmpty(t, seen.ID)

	// wrong payload under a subscribed name
	bus.Subscribe("misrouted", func(context.Context, events.Event) error { return nil })
	events.On(bus, "misrouted", func(context.Context, events.OrderPaid) error { return nil })
	assert.Error(t, bus.Publish(t.Context(), misrouted{}))
}

type misrouted struct{}

func (misrouted) EventName() string { return "misrouted" }
