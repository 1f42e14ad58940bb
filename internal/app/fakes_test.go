package app_test

import (
	"fmt"
	"sync"
	"time"

	"escape-room-service/internal/app"
	"escape-room-service/internal/domain"
)

// fakeClock fires periodic tasks on Tick and delayed tasks on Advance,
// synchronously on the calling goroutine.
type fakeClock struct {
	mu       sync.Mutex
	periodic []*fakeTask
	delayed  []*fakeTask
}

type fakeTask struct {
	clock     *fakeClock
	fn        func()
	remaining time.Duration
	stopped   bool
	fired     bool
}

func (t *fakeTask) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *fakeClock) Every(_ time.Duration, fn func()) app.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	task := &fakeTask{clock: c, fn: fn}
	c.periodic = append(c.periodic, task)
	return task
}

func (c *fakeClock) AfterFunc(d time.Duration, fn func()) app.Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	task := &fakeTask{clock: c, fn: fn, remaining: d}
	c.delayed = append(c.delayed, task)
	return task
}

// Tick delivers one second to every running periodic task.
func (c *fakeClock) Tick() {
	for _, fn := range c.periodicFns(false) {
		fn()
	}
}

// TickStale delivers a tick to stopped periodic tasks, as if it was already in flight.
func (c *fakeClock) TickStale() {
	for _, fn := range c.periodicFns(true) {
		fn()
	}
}

func (c *fakeClock) periodicFns(stopped bool) []func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	var fns []func()
	for _, t := range c.periodic {
		if t.stopped == stopped {
			fns = append(fns, t.fn)
		}
	}
	return fns
}

// Running counts periodic tasks that have not been stopped.
func (c *fakeClock) Running() int {
	return len(c.periodicFns(false))
}

// Advance moves delayed tasks forward and fires those that became due.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	var due []func()
	for _, t := range c.delayed {
		if t.stopped || t.fired {
			continue
		}
		t.remaining -= d
		if t.remaining <= 0 {
			t.fired = true
			due = append(due, t.fn)
		}
	}
	c.mu.Unlock()
	for _, fn := range due {
		fn()
	}
}

// scriptedRandom returns picks in order, wrapped into range.
type scriptedRandom struct {
	mu    sync.Mutex
	picks []int
	next  int
}

func (r *scriptedRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.picks) == 0 {
		return 0
	}
	v := r.picks[r.next%len(r.picks)]
	r.next++
	return v % n
}

const correctOption = 1

func testRules() domain.Rules {
	rules := domain.DefaultRules()
	rules.TotalRooms = 2
	return rules
}

func testCatalog(rules domain.Rules) domain.Catalog {
	catalog := domain.Catalog{ID: "test"}
	for r := 1; r <= rules.TotalRooms; r++ {
		room := domain.Room{ID: r, Name: fmt.Sprintf("Room %d", r)}
		for q := 1; q <= rules.QuestionsPerRoom; q++ {
			room.Questions = append(room.Questions, domain.Question{
				ID:           fmt.Sprintf("r%dq%d", r, q),
				Text:         fmt.Sprintf("Question %d.%d", r, q),
				Options:      []string{"A", "B", "C", "D"},
				CorrectIndex: correctOption,
			})
		}
		catalog.Rooms = append(catalog.Rooms, room)
	}
	return catalog
}
