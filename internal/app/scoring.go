package app

import (
	"fmt"

	"escape-room-service/internal/domain"
)

// ScoringPolicy decides how a session's score starts and what a submitted room earns.
// Penalties are applied the same way under every policy.
type ScoringPolicy interface {
	Name() string
	InitialScore(rules domain.Rules) int
	RoomAward(rules domain.Rules, correctCount int) int
}

// AdditivePolicy starts at zero and awards points per correct answer when a room is submitted.
type AdditivePolicy struct{}

func (AdditivePolicy) Name() string { return domain.ScoringAdditive }

func (AdditivePolicy) InitialScore(domain.Rules) int { return 0 }

func (AdditivePolicy) RoomAward(rules domain.Rules, correctCount int) int {
	return correctCount * rules.PointsPerCorrect
}

// PoolPolicy starts at the configured starting score and only ever loses points.
type PoolPolicy struct{}

func (PoolPolicy) Name() string { return domain.ScoringPool }

func (PoolPolicy) InitialScore(rules domain.Rules) int { return rules.StartingScore }

func (PoolPolicy) RoomAward(domain.Rules, int) int { return 0 }

// PolicyFor resolves a configured policy name.
func PolicyFor(name string) (ScoringPolicy, error) {
	switch name {
	case domain.ScoringAdditive, "":
		return AdditivePolicy{}, nil
	case domain.ScoringPool:
		return PoolPolicy{}, nil
	}
	return nil, fmt.Errorf("%w: unknown scoring policy %q", domain.ErrInvalidRules, name)
}

// roomOutcome computes pass/fail for a submitted room.
func roomOutcome(rs domain.RoomState, rules domain.Rules) (correct int, passed bool) {
	correct = rs.CorrectCount()
	return correct, correct >= rules.PassingThreshold
}

// deduct applies a penalty with the score floor.
func deduct(rules domain.Rules, score, penalty int) int {
	return rules.ClampScore(score - penalty)
}

// eliminationCandidates lists options a hint may still remove: never the
// correct one and never one already gone.
func eliminationCandidates(q domain.Question, rs domain.RoomState) []int {
	out := make([]int, 0, len(q.Options))
	for i := range q.Options {
		if i == q.CorrectIndex || rs.IsEliminated(q.ID, i) {
			continue
		}
		out = append(out, i)
	}
	return out
}
