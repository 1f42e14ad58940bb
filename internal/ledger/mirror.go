package ledger

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

type call struct {
	name string
	fn   func(ctx context.Context, l Ledger) error
}

// Mirror forwards game actions to a Ledger on a single background worker so
// calls reach the ledger in the order the game performed them. Enqueueing
// never blocks: when the queue is full the call is dropped and logged.
//
// A nil *Mirror is valid and discards everything.
type Mirror struct {
	ledger  Ledger
	timeout time.Duration
	logger  *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan call
	done   chan struct{}
}

// NewMirror starts the worker. Close must be called to stop it.
func NewMirror(l Ledger, timeout time.Duration, logger *zap.Logger) *Mirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	m := &Mirror{
		ledger:  l,
		timeout: timeout,
		logger:  logger,
		queue:   make(chan call, 64),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

func (m *Mirror) run() {
	defer close(m.done)
	for c := range m.queue {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		if err := c.fn(ctx, m.ledger); err != nil {
			m.logger.Warn("ledger call failed", zap.String("call", c.name), zap.Error(err))
		}
		cancel()
	}
}

func (m *Mirror) enqueue(name string, fn func(ctx context.Context, l Ledger) error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	select {
	case m.queue <- call{name: name, fn: fn}:
	default:
		m.logger.Warn("ledger queue full, dropping call", zap.String("call", name))
	}
}

// Close stops accepting calls and waits for queued ones to finish.
func (m *Mirror) Close() {
	if m == nil {
		return
	}
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	close(m.queue)
	m.mu.Unlock()
	<-m.done
}

func (m *Mirror) RegisterPlayer(player string) {
	m.enqueue("registerPlayer", func(ctx context.Context, l Ledger) error {
		return l.RegisterPlayer(ctx, player)
	})
}

func (m *Mirror) StartGame(player string) {
	m.enqueue("startGame", func(ctx context.Context, l Ledger) error {
		return l.StartGame(ctx, player)
	})
}

func (m *Mirror) SubmitAnswer(player string, quizID int, answer string) {
	m.enqueue("submitAnswer", func(ctx context.Context, l Ledger) error {
		_, err := l.SubmitAnswer(ctx, player, quizID, answer)
		return err
	})
}

func (m *Mirror) RetryRoom(player string) {
	m.enqueue("retryRoom", func(ctx context.Context, l Ledger) error {
		return l.RetryRoom(ctx, player)
	})
}

// RequestHint forwards a hint purchase. The local game has no signature
// authority, so signature may be nil.
func (m *Mirror) RequestHint(player string, roomID, level int, signature []byte) {
	m.enqueue("requestHint", func(ctx context.Context, l Ledger) error {
		_, err := l.RequestHint(ctx, player, roomID, level, signature)
		return err
	})
}

func (m *Mirror) CheckTimeExpiry(player string) {
	m.enqueue("checkTimeExpiry", func(ctx context.Context, l Ledger) error {
		return l.CheckTimeExpiry(ctx, player)
	})
}
