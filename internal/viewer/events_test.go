package viewer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventQueueDrain(t *testing.T) {
	q := NewEventQueue(4)
	var got []int
	for i := 0; i < 3; i++ {
		i := i
		require.True(t, q.Post(func() { got = append(got, i) }, false))
	}
	assert.Equal(t, 3, q.Drain())
	assert.Equal(t, []int{0, 1, 2}, got)
	assert.Equal(t, 0, q.Drain())
}

func TestEventQueueDropIfFull(t *testing.T) {
	q := NewEventQueue(1)
	require.True(t, q.Post(func() {}, true))
	assert.False(t, q.Post(func() {}, true))
}

func TestEventQueueCloseReleasesBlockedPost(t *testing.T) {
	q := NewEventQueue(1)
	require.True(t, q.Post(func() {}, false))

	done := make(chan bool, 1)
	go func() {
		done <- q.Post(func() {}, false)
	}()
	select {
	case <-done:
		t.Fatal("post into a full queue did not block")
	case <-time.After(20 * time.Millisecond):
	}

	q.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("post stayed blocked after close")
	}
	assert.False(t, q.Post(func() {}, false))
	q.Close()
}
