package domain

import (
	"fmt"
	"sort"
)

// Screen identifies which view the presentation layer should show.
type Screen string

const (
	ScreenLogin      Screen = "login"
	ScreenWelcome    Screen = "welcome"
	ScreenPlaying    Screen = "playing"
	ScreenRoomResult Screen = "room-result"
	ScreenGameOver   Screen = "game-over"
)

// HintResult is the outcome disclosed by an end-of-room reveal hint.
type HintResult struct {
	Correct int
	Total   int
}

func (h HintResult) String() string {
	return fmt.Sprintf("%d/%d", h.Correct, h.Total)
}

// MarshalText renders the result as "correct/total".
func (h HintResult) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

func (h *HintResult) UnmarshalText(text []byte) error {
	if _, err := fmt.Sscanf(string(text), "%d/%d", &h.Correct, &h.Total); err != nil {
		return fmt.Errorf("parse hint result %q: %w", text, err)
	}
	return nil
}

// PenaltyKind tells the presentation layer which deduction happened.
type PenaltyKind string

const (
	PenaltyRetry PenaltyKind = "retry"
	PenaltyHint  PenaltyKind = "hint"
)

// PenaltyAnimation is a transient signal shown next to the score after a deduction.
type PenaltyAnimation struct {
	Amount int         `json:"amount"`
	Kind   PenaltyKind `json:"type"`
	// Seq distinguishes successive signals so a delayed clear only removes its own.
	Seq uint64 `json:"-"`
}

// RoomState is the per-room progress of one attempt.
type RoomState struct {
	RoomID               int              `json:"roomId"`
	Answers              map[string]int   `json:"answers"`
	CorrectAnswers       map[string]bool  `json:"correctAnswers"`
	CurrentQuestionIndex int              `json:"currentQuestionIndex"`
	HintsUsedInRoom      int              `json:"hintsUsedInRoom"`
	EliminatedOptions    map[string][]int `json:"eliminatedOptions"`
	// EndOfRoomHint is nil until the reveal hint has been bought.
	EndOfRoomHint *HintResult `json:"endOfRoomHintResult,omitempty"`
	RetryCount    int         `json:"retryCount"`
	Completed     bool        `json:"completed"`
	Passed        bool        `json:"passed"`
}

// NewRoomState returns an untouched room.
func NewRoomState(roomID int) RoomState {
	return RoomState{
		RoomID:            roomID,
		Answers:           make(map[string]int),
		CorrectAnswers:    make(map[string]bool),
		EliminatedOptions: make(map[string][]int),
	}
}

// EndOfRoomHintUsed reports whether the reveal hint has been bought for this attempt.
func (r RoomState) EndOfRoomHintUsed() bool {
	return r.EndOfRoomHint != nil
}

// CorrectCount counts correctly answered questions.
func (r RoomState) CorrectCount() int {
	n := 0
	for _, ok := range r.CorrectAnswers {
		if ok {
			n++
		}
	}
	return n
}

// Answered reports whether questionID has a recorded answer.
func (r RoomState) Answered(questionID string) bool {
	_, ok := r.Answers[questionID]
	return ok
}

// IsEliminated reports whether option was removed from questionID by a hint.
func (r RoomState) IsEliminated(questionID string, option int) bool {
	for _, o := range r.EliminatedOptions[questionID] {
		if o == option {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r RoomState) Clone() RoomState {
	out := r
	out.Answers = make(map[string]int, len(r.Answers))
	for k, v := range r.Answers {
		out.Answers[k] = v
	}
	out.CorrectAnswers = make(map[string]bool, len(r.CorrectAnswers))
	for k, v := range r.CorrectAnswers {
		out.CorrectAnswers[k] = v
	}
	out.EliminatedOptions = make(map[string][]int, len(r.EliminatedOptions))
	for k, v := range r.EliminatedOptions {
		out.EliminatedOptions[k] = append([]int(nil), v...)
	}
	if r.EndOfRoomHint != nil {
		hint := *r.EndOfRoomHint
		out.EndOfRoomHint = &hint
	}
	return out
}

// Eliminate records option as removed from questionID.
func (r *RoomState) Eliminate(questionID string, option int) {
	if r.IsEliminated(questionID, option) {
		return
	}
	if r.EliminatedOptions == nil {
		r.EliminatedOptions = make(map[string][]int)
	}
	opts := append(append([]int(nil), r.EliminatedOptions[questionID]...), option)
	sort.Ints(opts)
	r.EliminatedOptions[questionID] = opts
}

// GameState is the full snapshot of one game session.
type GameState struct {
	Screen           Screen            `json:"screen"`
	PlayerName       string            `json:"playerName"`
	PlayerAddress    string            `json:"playerAddress,omitempty"`
	Score            int               `json:"score"`
	CurrentRoomIndex int               `json:"currentRoomIndex"`
	RoomStates       []RoomState       `json:"roomStates"`
	TimeRemaining    int               `json:"timeRemaining"`
	IsTimerRunning   bool              `json:"isTimerRunning"`
	SelectedAnswer   *int              `json:"selectedAnswer"`
	AnswerConfirmed  bool              `json:"answerConfirmed"`
	PenaltyAnimation *PenaltyAnimation `json:"penaltyAnimation"`
}

// Clone returns a deep copy so snapshots never share mutable state.
func (g GameState) Clone() GameState {
	out := g
	out.RoomStates = make([]RoomState, len(g.RoomStates))
	for i, rs := range g.RoomStates {
		out.RoomStates[i] = rs.Clone()
	}
	if g.SelectedAnswer != nil {
		v := *g.SelectedAnswer
		out.SelectedAnswer = &v
	}
	if g.PenaltyAnimation != nil {
		p := *g.PenaltyAnimation
		out.PenaltyAnimation = &p
	}
	return out
}

// CurrentRoom returns the room state being played.
func (g *GameState) CurrentRoom() *RoomState {
	if g.CurrentRoomIndex < 0 || g.CurrentRoomIndex >= len(g.RoomStates) {
		return nil
	}
	return &g.RoomStates[g.CurrentRoomIndex]
}
