package app

import (
	"context"
	"fmt"
	"time"

	"escape-room-service/internal/domain"
	"escape-room-service/internal/ledger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionRepository abstracts where live sessions are registered (in-memory, Redis, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// CatalogRepository loads room content (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context, catalogID string) (domain.Catalog, error)
}

// Leaderboard collects finished games.
type Leaderboard interface {
	Record(entry domain.LeaderboardEntry)
	Top(n int) []domain.LeaderboardEntry
}

// ServiceOptions configures a GameService.
type ServiceOptions struct {
	Rules         domain.Rules
	CatalogID     string
	Ledger        ledger.Ledger
	LedgerTimeout time.Duration
	Clock         Clock
	Logger        *zap.Logger
}

// GameService hosts independent single-player sessions.
type GameService struct {
	sessions SessionRepository
	catalogs CatalogRepository
	board    Leaderboard
	opts     ServiceOptions
	logger   *zap.Logger
}

func NewGameService(store SessionRepository, catalogs CatalogRepository, board Leaderboard, opts ServiceOptions) *GameService {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GameService{
		sessions: store,
		catalogs: catalogs,
		board:    board,
		opts:     opts,
		logger:   logger,
	}
}

// Open creates a session on its initial screen and registers it.
func (g *GameService) Open(ctx context.Context) (*Session, error) {
	catalog, err := g.catalogs.GetCatalog(ctx, g.opts.CatalogID)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}

	id := uuid.NewString()
	var mirror *ledger.Mirror
	if g.opts.Ledger != nil {
		mirror = ledger.NewMirror(g.opts.Ledger, g.opts.LedgerTimeout, g.logger)
	}
	session, err := NewSession(id, catalog, g.opts.Rules, SessionDeps{
		Clock:  g.opts.Clock,
		Ledger: mirror,
		Logger: g.logger,
	})
	if err != nil {
		mirror.Close()
		return nil, fmt.Errorf("open session: %w", err)
	}
	session.Subscribe(g.recordFinished())
	g.sessions.Put(session)
	g.logger.Debug("session opened", zap.String("session", id), zap.String("catalog", catalog.ID))
	return session, nil
}

// Get returns a live session.
func (g *GameService) Get(id string) (*Session, error) {
	session, ok := g.sessions.Get(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Close stops a session and forgets it.
func (g *GameService) Close(id string) {
	session, ok := g.sessions.Get(id)
	if !ok {
		return
	}
	session.Close()
	g.sessions.Delete(id)
	g.logger.Debug("session closed", zap.String("session", id))
}

// Leaderboard returns the top n entries.
func (g *GameService) Leaderboard(n int) []domain.LeaderboardEntry {
	return g.board.Top(n)
}

// recordFinished posts a session's result once each time it reaches game over.
func (g *GameService) recordFinished() Listener {
	last := domain.Screen("")
	return func(state domain.GameState) {
		prev := last
		last = state.Screen
		if state.Screen != domain.ScreenGameOver || prev == domain.ScreenGameOver {
			return
		}
		name := state.PlayerName
		if name == "" {
			name = "You"
		}
		cleared := 0
		for _, rs := range state.RoomStates {
			if rs.Passed {
				cleared++
			}
		}
		g.board.Record(domain.LeaderboardEntry{Name: name, Score: state.Score, RoomsCleared: cleared})
	}
}
