package app

import (
	"time"

	"escape-room-service/internal/domain"
	"go.uber.org/zap"
)

// StartTimer begins the one-second countdown. It is a no-op while running.
func (s *Session) StartTimer() {
	s.update(s.startTimerLocked)
}

// StopTimer cancels the countdown. No tick is applied after it returns.
func (s *Session) StopTimer() {
	s.update(s.stopTimerLocked)
}

func (s *Session) startTimerLocked(st *domain.GameState) bool {
	if s.timer != nil {
		return false
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = s.clock.Every(time.Second, func() { s.tick(gen) })
	st.IsTimerRunning = true
	return true
}

func (s *Session) stopTimerLocked(st *domain.GameState) bool {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		// Ticks already in flight carry the old generation and are dropped.
		s.timerGen++
	}
	if !st.IsTimerRunning {
		return false
	}
	st.IsTimerRunning = false
	return true
}

func (s *Session) tick(gen uint64) {
	s.update(func(st *domain.GameState) bool {
		if s.timer == nil || gen != s.timerGen {
			return false
		}
		next := st.TimeRemaining - 1
		if next > 0 {
			st.TimeRemaining = next
			return true
		}
		st.TimeRemaining = 0
		st.Screen = domain.ScreenGameOver
		s.stopTimerLocked(st)
		s.logger.Info("time expired", zap.String("player", st.PlayerName), zap.Int("score", st.Score))
		s.mirror.CheckTimeExpiry(playerKey(st))
		return true
	})
}
