package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestBus_DeliversToProjectSubscribers(t *testing.T) {
	b := NewBus()
	ch1, cancel1 := b.Subscribe(1)
	defer cancel1()
	ch2, cancel2 := b.Subscribe(2)
	defer cancel2()

	b.Publish(Event{Type: CardMoved, ProjectID: 1, CardID: 7})

	ev := receive(t, ch1)
	assert.Equal(t, CardMoved, ev.Type)
	assert.Equal(t, int64(7), ev.CardID)

	select {
	case ev := <-ch2:
		t.Fatalf("project 2 received %+v", ev)
	default:
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	// Publishing after the last subscriber left must not panic.
	b.Publish(Event{Type: CardCreated, ProjectID: 1})
}

func TestBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(Event{Type: CardUpdated, ProjectID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
	require.Len(t, ch, cap(ch))
}
