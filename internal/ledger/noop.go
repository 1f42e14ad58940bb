package ledger

import (
	"context"

	"go.uber.org/zap"
)

// Noop is the inert ledger used while the game runs purely locally.
type Noop struct {
	logger *zap.Logger
}

func NewNoop(logger *zap.Logger) *Noop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Noop{logger: logger}
}

func (n *Noop) RegisterPlayer(_ context.Context, player string) error {
	n.logger.Debug("ledger register player: local mode, no-op", zap.String("player", player))
	return nil
}

func (n *Noop) StartGame(_ context.Context, player string) error {
	n.logger.Debug("ledger start game: local mode, no-op", zap.String("player", player))
	return nil
}

func (n *Noop) SubmitAnswer(_ context.Context, player string, quizID int, answer string) (*AnswerReceipt, error) {
	n.logger.Debug("ledger submit answer: local mode",
		zap.String("player", player), zap.Int("quizId", quizID), zap.String("answer", answer))
	return nil, nil
}

func (n *Noop) RetryRoom(_ context.Context, player string) error {
	n.logger.Debug("ledger retry room: local mode, no-op", zap.String("player", player))
	return nil
}

func (n *Noop) RequestHint(_ context.Context, player string, roomID, level int, _ []byte) (*HintReceipt, error) {
	n.logger.Debug("ledger request hint: local mode",
		zap.String("player", player), zap.Int("roomId", roomID), zap.Int("level", level))
	return nil, nil
}

func (n *Noop) CheckTimeExpiry(_ context.Context, player string) error {
	n.logger.Debug("ledger check time expiry: local mode, no-op", zap.String("player", player))
	return nil
}

func (n *Noop) PlayerStats(_ context.Context, _ string) (*PlayerStats, error) {
	return nil, nil
}

func (n *Noop) RoomState(_ context.Context, _ string, _ int) (*RoomSnapshot, error) {
	return nil, nil
}

func (n *Noop) Rankings(_ context.Context) ([]RankEntry, error) {
	return []RankEntry{}, nil
}

func (n *Noop) IsRegistered(_ context.Context, _ string) (bool, error) {
	return false, nil
}
