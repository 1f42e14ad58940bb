package app

import (
	"strings"

	"escape-room-service/internal/domain"
	"go.uber.org/zap"
)

// Hint levels as reported to the ledger.
const (
	hintLevelEliminate = 1
	hintLevelReveal    = 2
)

// SignIn attaches an external identity and leaves the login screen.
func (s *Session) SignIn(identity domain.Identity) {
	s.update(func(st *domain.GameState) bool {
		if st.Screen != domain.ScreenLogin || !identity.Connected || identity.Address == "" {
			return false
		}
		st.PlayerAddress = identity.Address
		st.Screen = domain.ScreenWelcome
		s.mirror.RegisterPlayer(identity.Address)
		return true
	})
}

// StartGame replaces the state with a fresh game for playerName and starts the
// countdown. Name validation is the caller's job. A signed-in identity survives
// the restart; when login is required and nobody signed in, nothing happens.
func (s *Session) StartGame(playerName string) {
	s.update(func(st *domain.GameState) bool {
		address := st.PlayerAddress
		if s.rules.RequireLogin && address == "" {
			return false
		}
		s.stopTimerLocked(st)
		s.cancelPenaltyLocked()

		*st = s.initialState()
		st.PlayerAddress = address
		st.PlayerName = strings.TrimSpace(playerName)
		st.Screen = domain.ScreenPlaying
		s.startTimerLocked(st)

		s.logger.Info("game started", zap.String("player", st.PlayerName))
		s.mirror.StartGame(playerKey(st))
		return true
	})
}

// SelectAnswer marks a pending choice for the current question.
func (s *Session) SelectAnswer(option int) {
	s.update(func(st *domain.GameState) bool {
		if st.Screen != domain.ScreenPlaying || st.AnswerConfirmed {
			return false
		}
		rs, _, q := s.current(st)
		if q == nil || !validOption(*q, *rs, option) {
			return false
		}
		st.SelectedAnswer = &option
		return true
	})
}

// ConfirmAnswer locks in the pending selection, if any.
func (s *Session) ConfirmAnswer() {
	s.update(func(st *domain.GameState) bool {
		if st.SelectedAnswer == nil {
			return false
		}
		return s.confirmLocked(st, *st.SelectedAnswer)
	})
}

// ConfirmAnswerImmediate records option as the answer to the current question.
// Confirming again overwrites the earlier answer. Scoring waits for room submission.
func (s *Session) ConfirmAnswerImmediate(option int) {
	s.update(func(st *domain.GameState) bool {
		return s.confirmLocked(st, option)
	})
}

func (s *Session) confirmLocked(st *domain.GameState, option int) bool {
	if st.Screen != domain.ScreenPlaying {
		return false
	}
	rs, _, q := s.current(st)
	if q == nil || !validOption(*q, *rs, option) {
		return false
	}
	rs.Answers[q.ID] = option
	rs.CorrectAnswers[q.ID] = q.IsCorrect(option)
	st.SelectedAnswer = &option
	st.AnswerConfirmed = true
	s.mirror.SubmitAnswer(playerKey(st), rs.CurrentQuestionIndex+1, q.Options[option])
	return true
}

// NextQuestion advances within the room, or submits the room after its last
// question. The current question must have been answered.
func (s *Session) NextQuestion() {
	s.update(func(st *domain.GameState) bool {
		if st.Screen != domain.ScreenPlaying {
			return false
		}
		rs, room, q := s.current(st)
		if q == nil || !rs.Answered(q.ID) {
			return false
		}
		st.SelectedAnswer = nil
		st.AnswerConfirmed = false

		if rs.CurrentQuestionIndex < len(room.Questions)-1 {
			rs.CurrentQuestionIndex++
			return true
		}

		correct, passed := roomOutcome(*rs, s.rules)
		rs.Completed = true
		rs.Passed = passed
		st.Score = s.rules.ClampScore(st.Score + s.policy.RoomAward(s.rules, correct))
		st.Screen = domain.ScreenRoomResult
		s.logger.Debug("room submitted",
			zap.Int("room", room.ID), zap.Int("correct", correct), zap.Bool("passed", passed), zap.Int("score", st.Score))
		return true
	})
}

// ProceedToNextRoom leaves a passed room. After the last room the game ends.
func (s *Session) ProceedToNextRoom() {
	s.update(func(st *domain.GameState) bool {
		rs := st.CurrentRoom()
		if st.Screen != domain.ScreenRoomResult || rs == nil || !rs.Passed {
			return false
		}
		st.SelectedAnswer = nil
		st.AnswerConfirmed = false
		if st.CurrentRoomIndex >= len(st.RoomStates)-1 {
			s.stopTimerLocked(st)
			st.Screen = domain.ScreenGameOver
			s.logger.Info("game finished", zap.String("player", st.PlayerName), zap.Int("score", st.Score))
			return true
		}
		st.CurrentRoomIndex++
		st.Screen = domain.ScreenPlaying
		return true
	})
}

// UseQuestionHint removes one random wrong option from the unanswered current question.
func (s *Session) UseQuestionHint() {
	s.update(func(st *domain.GameState) bool {
		if st.Screen != domain.ScreenPlaying {
			return false
		}
		rs, room, q := s.current(st)
		if q == nil || rs.HintsUsedInRoom >= s.rules.MaxHintsPerRoom || rs.Answered(q.ID) {
			return false
		}
		candidates := eliminationCandidates(*q, *rs)
		if len(candidates) == 0 {
			return false
		}
		removed := candidates[s.rnd.Intn(len(candidates))]
		rs.Eliminate(q.ID, removed)
		rs.HintsUsedInRoom++
		if st.SelectedAnswer != nil && *st.SelectedAnswer == removed {
			st.SelectedAnswer = nil
		}
		st.Score = deduct(s.rules, st.Score, s.rules.HintPenaltyPerQuestion)
		s.flashPenaltyLocked(st, s.rules.HintPenaltyPerQuestion, domain.PenaltyHint)
		s.mirror.RequestHint(playerKey(st), room.ID, hintLevelEliminate, nil)
		return true
	})
}

// UseEndOfRoomHint discloses how many answers of a failed room were correct.
// It can be bought once per attempt.
func (s *Session) UseEndOfRoomHint() {
	s.update(func(st *domain.GameState) bool {
		rs := st.CurrentRoom()
		if st.Screen != domain.ScreenRoomResult || rs == nil {
			return false
		}
		if !rs.Completed || rs.Passed || rs.EndOfRoomHintUsed() {
			return false
		}
		rs.EndOfRoomHint = &domain.HintResult{Correct: rs.CorrectCount(), Total: s.rules.QuestionsPerRoom}
		st.Score = deduct(s.rules, st.Score, s.rules.HintPenaltyEndRoom)
		s.flashPenaltyLocked(st, s.rules.HintPenaltyEndRoom, domain.PenaltyHint)
		s.mirror.RequestHint(playerKey(st), rs.RoomID, hintLevelReveal, nil)
		return true
	})
}

// RetryRoom restarts a failed room with a penalty. Only the retry count carries over.
func (s *Session) RetryRoom() {
	s.update(func(st *domain.GameState) bool {
		rs := st.CurrentRoom()
		if st.Screen != domain.ScreenRoomResult || rs == nil || !rs.Completed || rs.Passed {
			return false
		}
		fresh := domain.NewRoomState(rs.RoomID)
		fresh.RetryCount = rs.RetryCount + 1
		*rs = fresh

		st.Score = deduct(s.rules, st.Score, s.rules.RetryPenalty)
		st.Screen = domain.ScreenPlaying
		st.SelectedAnswer = nil
		st.AnswerConfirmed = false
		s.flashPenaltyLocked(st, s.rules.RetryPenalty, domain.PenaltyRetry)
		s.mirror.RetryRoom(playerKey(st))
		return true
	})
}

// ResetGame stops everything and returns to a fresh initial state.
func (s *Session) ResetGame() {
	s.update(func(st *domain.GameState) bool {
		s.stopTimerLocked(st)
		s.cancelPenaltyLocked()
		*st = s.initialState()
		return true
	})
}

func (s *Session) flashPenaltyLocked(st *domain.GameState, amount int, kind domain.PenaltyKind) {
	s.cancelPenaltyLocked()
	s.penaltySeq++
	seq := s.penaltySeq
	st.PenaltyAnimation = &domain.PenaltyAnimation{Amount: amount, Kind: kind, Seq: seq}
	s.penaltyTimer = s.clock.AfterFunc(s.rules.PenaltyDisplayOrDefault(), func() { s.clearPenalty(seq) })
}

func (s *Session) cancelPenaltyLocked() {
	if s.penaltyTimer != nil {
		s.penaltyTimer.Stop()
		s.penaltyTimer = nil
	}
}

// clearPenalty removes the signal only if it is still the one that scheduled it.
func (s *Session) clearPenalty(seq uint64) {
	s.update(func(st *domain.GameState) bool {
		if st.PenaltyAnimation == nil || st.PenaltyAnimation.Seq != seq {
			return false
		}
		st.PenaltyAnimation = nil
		return true
	})
}

func validOption(q domain.Question, rs domain.RoomState, option int) bool {
	return option >= 0 && option < len(q.Options) && !rs.IsEliminated(q.ID, option)
}
