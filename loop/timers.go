package loop

import (
	"sort"
	"sync"
	"time"
)

// timer is a scheduled one-shot callback.
type timer struct {
	id       int
	callback func()
	dueTime  time.Time
}

// timerManager tracks pending timers.
type timerManager struct {
	timers map[int]*timer
	nextID int
	clock  Clock
	mu     sync.Mutex
}

func newTimerManager(clock Clock) *timerManager {
	return &timerManager{
		timers: make(map[int]*timer),
		nextID: 1,
		clock:  clock,
	}
}

func (tm *timerManager) setTimeout(callback func(), delay time.Duration) int {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	id := tm.nextID
	tm.nextID++
	tm.timers[id] = &timer{
		id:       id,
		callback: callback,
		dueTime:  tm.clock.Now().Add(delay),
	}
	return id
}

func (tm *timerManager) clearTimer(id int) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	delete(tm.timers, id)
}

// takeDue removes and returns the callbacks of every due timer, earliest
// first. Timers with the same due time run in the order they were set.
func (tm *timerManager) takeDue() []func() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := tm.clock.Now()
	var due []*timer
	for _, t := range tm.timers {
		if !now.Before(t.dueTime) {
			due = append(due, t)
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].dueTime.Equal(due[j].dueTime) {
			return due[i].id < due[j].id
		}
		return due[i].dueTime.Before(due[j].dueTime)
	})

	callbacks := make([]func(), 0, len(due))
	for _, t := range due {
		delete(tm.timers, t.id)
		callbacks = append(callbacks, t.callback)
	}
	return callbacks
}

func (tm *timerManager) hasPending() bool {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	return len(tm.timers) > 0
}

// nextDue returns the time until the earliest timer is due, or 0 if one
// already is or none are pending.
func (tm *timerManager) nextDue() time.Duration {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := tm.clock.Now()
	var minDuration time.Duration = -1
	for _, t := range tm.timers {
		d := t.dueTime.Sub(now)
		if d <= 0 {
			return 0
		}
		if minDuration < 0 || d < minDuration {
			minDuration = d
		}
	}
	if minDuration < 0 {
		return 0
	}
	return minDuration
}
