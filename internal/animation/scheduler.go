package animation

import (
	"sort"
	"sync"
	"time"
)

// Token identifies a scheduled callback so it can be cancelled.
type Token uint64

// FrameFunc receives the timestamp of the frame being drawn.
type FrameFunc func(now time.Time)

// Scheduler is the frame-scheduling primitive animations run on. Callbacks are
// invoked serially; a cancelled token never fires. Frames requested while a
// frame is being processed fire on the following frame.
type Scheduler interface {
	Now() time.Time
	RequestFrame(fn FrameFunc) Token
	AfterFunc(d time.Duration, fn func()) Token
	Cancel(tok Token)
}

type timerTask struct {
	token Token
	due   time.Time
	fn    func()
}

type frameTask struct {
	token Token
	fn    FrameFunc
}

// taskQueue holds pending timers and frame callbacks for a scheduler.
type taskQueue struct {
	mu     sync.Mutex
	seq    Token
	live   map[Token]struct{}
	timers []timerTask
	frames []frameTask
}

func newTaskQueue() *taskQueue {
	return &taskQueue{live: make(map[Token]struct{})}
}

func (q *taskQueue) nextToken() Token {
	q.seq++
	q.live[q.seq] = struct{}{}
	return q.seq
}

func (q *taskQueue) addFrame(fn FrameFunc) Token {
	q.mu.Lock()
	defer q.mu.Unlock()
	tok := q.nextToken()
	q.frames = append(q.frames, frameTask{token: tok, fn: fn})
	return tok
}

func (q *taskQueue) addTimer(due time.Time, fn func()) Token {
	q.mu.Lock()
	defer q.mu.Unlock()
	tok := q.nextToken()
	q.timers = append(q.timers, timerTask{token: tok, due: due, fn: fn})
	return tok
}

func (q *taskQueue) cancel(tok Token) {
	q.mu.Lock()
	delete(q.live, tok)
	q.mu.Unlock()
}

// claim consumes a live token. It returns false when the token was cancelled.
func (q *taskQueue) claim(tok Token) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.live[tok]; !ok {
		return false
	}
	delete(q.live, tok)
	return true
}

// dueTimers removes and returns timers due at or before now, ordered by due
// time then registration order.
func (q *taskQueue) dueTimers(now time.Time) []timerTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	var due []timerTask
	kept := q.timers[:0]
	for _, t := range q.timers {
		if _, ok := q.live[t.token]; !ok {
			continue
		}
		if t.due.After(now) {
			kept = append(kept, t)
			continue
		}
		due = append(due, t)
	}
	q.timers = kept
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].due.Equal(due[j].due) {
			return due[i].token < due[j].token
		}
		return due[i].due.Before(due[j].due)
	})
	return due
}

func (q *taskQueue) takeFrames() []frameTask {
	q.mu.Lock()
	defer q.mu.Unlock()
	frames := q.frames
	q.frames = nil
	return frames
}

// nextDue reports the earliest live timer deadline.
func (q *taskQueue) nextDue() (time.Time, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	var next time.Time
	found := false
	for _, t := range q.timers {
		if _, ok := q.live[t.token]; !ok {
			continue
		}
		if !found || t.due.Before(next) {
			next = t.due
			found = true
		}
	}
	return next, found
}

// pending counts live callbacks that have not fired yet.
func (q *taskQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.live)
}

func (q *taskQueue) fireTimers(now time.Time) {
	for _, t := range q.dueTimers(now) {
		if q.claim(t.token) {
			t.fn()
		}
	}
}

func (q *taskQueue) tick(now time.Time) {
	q.fireTimers(now)
	for _, f := range q.takeFrames() {
		if q.claim(f.token) {
			f.fn(now)
		}
	}
}
