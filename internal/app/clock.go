package app

import (
	"math/rand"
	"sync"
	"time"
)

// Stopper cancels a scheduled callback. Stop is safe to call more than once.
type Stopper interface {
	Stop() bool
}

// Clock schedules the session's timer ticks and delayed UI clears.
type Clock interface {
	// Every calls fn once per interval until stopped.
	Every(interval time.Duration, fn func()) Stopper
	// AfterFunc calls fn once after d unless stopped first.
	AfterFunc(d time.Duration, fn func()) Stopper
}

// RandomSource picks hint eliminations; *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

func (SystemClock) Every(interval time.Duration, fn func()) Stopper {
	t := &ticker{ticker: time.NewTicker(interval), done: make(chan struct{})}
	go t.run(fn)
	return t
}

func (SystemClock) AfterFunc(d time.Duration, fn func()) Stopper {
	return time.AfterFunc(d, fn)
}

type ticker struct {
	ticker *time.Ticker
	once   sync.Once
	done   chan struct{}
}

func (t *ticker) run(fn func()) {
	for {
		select {
		case <-t.ticker.C:
			fn()
		case <-t.done:
			return
		}
	}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}

func newRandom() RandomSource {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
