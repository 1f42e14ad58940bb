package app

import (
	"sync"

	"escape-room-service/internal/domain"
	"escape-room-service/internal/ledger"
	"go.uber.org/zap"
)

// Listener observes every published state. It runs synchronously on the
// mutating goroutine and must not call actions on the same session.
type Listener func(state domain.GameState)

// SessionDeps are the collaborators a Session is built with. Zero values
// select the wall clock, a time-seeded random source, no ledger and no logging.
type SessionDeps struct {
	Clock  Clock
	Random RandomSource
	Ledger *ledger.Mirror
	Logger *zap.Logger
}

// Session owns the state of one single-player game. Every action and timer
// tick goes through update, so mutations are serialized and each one is
// published to listeners before the next begins.
type Session struct {
	id      string
	rules   domain.Rules
	catalog domain.Catalog
	policy  ScoringPolicy
	clock   Clock
	rnd     RandomSource
	mirror  *ledger.Mirror
	logger  *zap.Logger

	// notifyMu orders publication; mu guards state and scheduling fields.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    domain.GameState
	closed   bool

	listeners      map[uint64]Listener
	nextListenerID uint64

	timer    Stopper
	timerGen uint64

	penaltyTimer Stopper
	penaltySeq   uint64
}

// NewSession validates rules and catalog and returns a session on its initial screen.
func NewSession(id string, catalog domain.Catalog, rules domain.Rules, deps SessionDeps) (*Session, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if err := catalog.Validate(rules); err != nil {
		return nil, err
	}
	policy, err := PolicyFor(rules.Scoring)
	if err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = SystemClock{}
	}
	if deps.Random == nil {
		deps.Random = newRandom()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	s := &Session{
		id:        id,
		rules:     rules,
		catalog:   catalog,
		policy:    policy,
		clock:     deps.Clock,
		rnd:       deps.Random,
		mirror:    deps.Ledger,
		logger:    deps.Logger.With(zap.String("session", id)),
		listeners: make(map[uint64]Listener),
	}
	s.state = s.initialState()
	return s, nil
}

func (s *Session) ID() string { return s.id }

func (s *Session) Rules() domain.Rules { return s.rules }

func (s *Session) Catalog() domain.Catalog { return s.catalog }

// GetState returns a copy of the current state.
func (s *Session) GetState() domain.GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Summary reports the game-over breakdown for the current state.
func (s *Session) Summary() domain.Summary {
	return domain.Summarize(s.GetState(), s.catalog, s.rules)
}

// Subscribe registers listener and returns a function that removes it.
func (s *Session) Subscribe(listener Listener) func() {
	s.mu.Lock()
	id := s.nextListenerID
	s.nextListenerID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// Mutate applies fn to a copy of the state and publishes the result.
// fn must not call back into the session.
func (s *Session) Mutate(fn func(state *domain.GameState)) {
	s.update(func(st *domain.GameState) bool {
		fn(st)
		return true
	})
}

// Close stops the timer, cancels pending clears and drains the ledger mirror.
// Later actions are ignored.
func (s *Session) Close() {
	s.update(func(st *domain.GameState) bool {
		s.closed = true
		s.cancelPenaltyLocked()
		return s.stopTimerLocked(st)
	})
	s.mirror.Close()
}

// update is the single mutation path. fn edits a private copy and reports
// whether anything changed; only changed states are stored and published.
func (s *Session) update(fn func(st *domain.GameState) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	next := s.state.Clone()
	if !fn(&next) {
		s.mu.Unlock()
		return
	}
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(next.Clone())
	}
}

func (s *Session) initialState() domain.GameState {
	rooms := make([]domain.RoomState, len(s.catalog.Rooms))
	for i, room := range s.catalog.Rooms {
		rooms[i] = domain.NewRoomState(room.ID)
	}
	return domain.GameState{
		Screen:        s.rules.InitialScreen(),
		Score:         s.policy.InitialScore(s.rules),
		RoomStates:    rooms,
		TimeRemaining: s.rules.TotalTimeSeconds,
	}
}

// current resolves the room being played and its question under the cursor.
func (s *Session) current(st *domain.GameState) (*domain.RoomState, domain.Room, *domain.Question) {
	rs := st.CurrentRoom()
	if rs == nil {
		return nil, domain.Room{}, nil
	}
	room := s.catalog.Rooms[st.CurrentRoomIndex]
	if rs.CurrentQuestionIndex < 0 || rs.CurrentQuestionIndex >= len(room.Questions) {
		return rs, room, nil
	}
	return rs, room, &room.Questions[rs.CurrentQuestionIndex]
}

// playerKey identifies the player toward the ledger.
func playerKey(st *domain.GameState) string {
	if st.PlayerAddress != "" {
		return st.PlayerAddress
	}
	return st.PlayerName
}
