package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBusFanOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.Subscribe()
	b := bus.Subscribe()

	assert.Equal(t, 2, bus.Publish(BuildingCreated(1)))

	ev := <-a
	assert.Equal(t, Event{Resource: ResourceBuildings, Action: ActionCreated, ID: "1"}, ev)
	assert.Equal(t, "1", (<-b).ID)

	bus.Unsubscribe(a)
	bus.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)

	assert.Equal(t, 1, bus.Publish(BuildingCreated(2)))
	assert.Equal(t, "2", (<-b).ID)
	bus.Unsubscribe(b)

	assert.Zero(t, bus.Publish(BuildingCreated(3)))
}

func TestEventBusDropsForSlowSubscriber(t *testing.T) {
	bus := NewEventBus()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	for i := 0; i < subscriberBuffer+5; i++ {
		bus.Publish(BuildingCreated(int64(i)))
	}
	assert.Len(t, ch, subscriberBuffer)
	assert.EqualValues(t, 5, bus.Dropped())
}
