// Package ledger is the boundary toward an external authoritative scoreboard
// (an on-chain contract in the original deployment). The game core only ever
// mirrors its actions into a Ledger; it never waits for or depends on one.
package ledger

import "context"

// PlayerStats mirrors the contract's per-player view.
type PlayerStats struct {
	GameStarted          bool
	CurrentRoom          int
	Score                int
	GameFinished         bool
	TimeExpired          bool
	TotalHintsUsed       int
	StartTime            int64
	TimeRemainingSeconds int
	Rank                 int
}

// RoomStatus is the ledger-side lifecycle of a room.
type RoomStatus int

const (
	RoomLocked RoomStatus = iota
	RoomActive
	RoomPassed
)

// RoomSnapshot mirrors the contract's per-room view.
type RoomSnapshot struct {
	Status          RoomStatus
	CorrectCount    int
	RetryCount      int
	HintsUsedInRoom int
	HintOneUsed     bool
	HintTwoUsed     bool
}

// RankEntry is one row of the ledger rankings.
type RankEntry struct {
	Player       string
	Score        int
	TotalHints   int
	Rank         int
	GameFinished bool
}

// AnswerReceipt is what the ledger reports after an answer submission.
type AnswerReceipt struct {
	Correct  bool
	NewScore int
}

// HintReceipt is what the ledger reports after granting a hint.
type HintReceipt struct {
	RevealedQuizID int
	ChoiceRemoved  bool
}

// Ledger is implemented by anything that can act as the authoritative record
// of a player's game. A nil result with a nil error means "nothing to report".
type Ledger interface {
	RegisterPlayer(ctx context.Context, player string) error
	StartGame(ctx context.Context, player string) error
	// SubmitAnswer takes the 1-based question number within the current room.
	SubmitAnswer(ctx context.Context, player string, quizID int, answer string) (*AnswerReceipt, error)
	RetryRoom(ctx context.Context, player string) error
	// RequestHint carries a signature issued by an external hint authority.
	RequestHint(ctx context.Context, player string, roomID, level int, signature []byte) (*HintReceipt, error)
	CheckTimeExpiry(ctx context.Context, player string) error
	PlayerStats(ctx context.Context, player string) (*PlayerStats, error)
	RoomState(ctx context.Context, player string, roomID int) (*RoomSnapshot, error)
	Rankings(ctx context.Context) ([]RankEntry, error)
	IsRegistered(ctx context.Context, player string) (bool, error)
}
