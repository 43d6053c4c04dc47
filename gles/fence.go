package gles

import (
	"slices"
	"time"
)

type waitStatus int

const (
	waitDone waitStatus = iota
	waitTimeout
	waitFailed
)

// fence marks the completion of the GL commands issued before it.
type fence interface {
	Signaled() bool
	Wait(timeout time.Duration) waitStatus
	Delete()
}

type frame struct {
	fence    fence
	handlers []func()
}

func (f frame) complete() {
	f.fence.Delete()
	for _, h := range f.handlers {
		h()
	}
}

// fenceQueue runs completion handlers of committed frames in commit
// order, once their fences are signaled. At most maxPending frames
// stay outstanding after push returns.
type fenceQueue struct {
	maxPending  int
	waitTimeout time.Duration
	pending     []frame
}

func (q *fenceQueue) push(f fence, handlers []func()) {
	q.pending = append(q.pending, frame{fence: f, handlers: handlers})
	q.retire()
	for len(q.pending) > q.maxPending {
		q.waitOldest()
	}
}

// retire completes every leading frame whose fence has been signaled.
func (q *fenceQueue) retire() {
	for len(q.pending) > 0 && q.pending[0].fence.Signaled() {
		f := q.pending[0]
		q.pending = slices.Delete(q.pending, 0, 1)
		f.complete()
	}
}

// waitOldest blocks until the oldest pending frame is done.
func (q *fenceQueue) waitOldest() {
	f := q.pending[0]
	q.pending = slices.Delete(q.pending, 0, 1)
	for {
		status := f.fence.Wait(q.waitTimeout)
		if status == waitTimeout {
			logger.Warn("GL fence wait timed out, still waiting")
			continue
		}
		if status == waitFailed {
			logger.Error("GL fence wait failed")
		}
		break
	}
	f.complete()
}

// finish waits for every pending frame.
func (q *fenceQueue) finish() {
	for len(q.pending) > 0 {
		q.waitOldest()
	}
}

func (q *fenceQueue) Pending() int {
	return len(q.pending)
}
