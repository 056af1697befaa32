package syncer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerInitialState(t *testing.T) {
	assert.True(t, NewTracker(true).Online())
	assert.False(t, NewTracker(false).Online())
}

func TestTrackerNotifiesOnFlip(t *testing.T) {
	tr := NewTracker(false)
	ch := tr.Subscribe()

	tr.SetOnline(true)
	select {
	case v := <-ch:
		assert.True(t, v)
	default:
		t.Fatal("expected a notification after flip to online")
	}

	tr.SetOnline(false)
	select {
	case v := <-ch:
		assert.False(t, v)
	default:
		t.Fatal("expected a notification after flip to offline")
	}
}

func TestTrackerIgnoresRedundantSet(t *testing.T) {
	tr := NewTracker(true)
	ch := tr.Subscribe()

	tr.SetOnline(true)
	select {
	case <-ch:
		t.Fatal("no notification expected when state does not change")
	default:
	}
}

func TestTrackerSlowSubscriberDoesNotBlock(t *testing.T) {
	tr := NewTracker(false)
	ch := tr.Subscribe()

	// Two flips with nobody reading: the buffered channel holds one
	// notification and the second send is dropped instead of blocking.
	tr.SetOnline(true)
	tr.SetOnline(false)

	assert.False(t, tr.Online())
	v := <-ch
	assert.True(t, v)
}

func TestTrackerUnsubscribe(t *testing.T) {
	tr := NewTracker(false)
	ch := tr.Subscribe()
	tr.Unsubscribe(ch)

	tr.SetOnline(true)
	select {
	case <-ch:
		t.Fatal("unsubscribed channel must not receive")
	default:
	}
}

func TestTrackerClose(t *testing.T) {
	tr := NewTracker(false)
	ch := tr.Subscribe()
	tr.Close()

	tr.SetOnline(true)
	select {
	case <-ch:
		t.Fatal("closed tracker must not notify")
	default:
	}
	assert.False(t, tr.Online())
}
