package domain

import (
	"fmt"
	"time"
)

// Scoring policy names accepted in configuration.
const (
	ScoringAdditive = "additive"
	ScoringPool     = "pool"
)

// Rules parameterizes every rule of the game. Values come from configuration.
type Rules struct {
	TotalRooms             int    `yaml:"total_rooms" json:"totalRooms"`
	QuestionsPerRoom       int    `yaml:"questions_per_room" json:"questionsPerRoom"`
	PointsPerCorrect       int    `yaml:"points_per_correct" json:"pointsPerCorrect"`
	MaxScore               int    `yaml:"max_score" json:"maxScore"`
	StartingScore          int    `yaml:"starting_score" json:"startingScore"`
	PassingThreshold       int    `yaml:"passing_threshold" json:"passingThreshold"`
	TotalTimeSeconds       int    `yaml:"total_time_seconds" json:"totalTimeSeconds"`
	RetryPenalty           int    `yaml:"retry_penalty" json:"retryPenalty"`
	HintPenaltyPerQuestion int    `yaml:"hint_penalty_per_question" json:"hintPenaltyPerQuestion"`
	HintPenaltyEndRoom     int    `yaml:"hint_penalty_end_room" json:"hintPenaltyEndRoom"`
	MaxHintsPerRoom        int    `yaml:"max_hints_per_room" json:"maxHintsPerRoom"`
	WarningTimeSeconds     int    `yaml:"warning_time_seconds" json:"warningTimeSeconds"`
	PenaltyDisplay         string `yaml:"penalty_display" json:"-"`
	Scoring                string `yaml:"scoring" json:"scoring"`
	RequireLogin           bool   `yaml:"require_login" json:"requireLogin"`
}

// DefaultRules returns the stock four-room, fifteen-minute game.
func DefaultRules() Rules {
	return Rules{
		TotalRooms:             4,
		QuestionsPerRoom:       5,
		PointsPerCorrect:       5,
		MaxScore:               100,
		StartingScore:          100,
		PassingThreshold:       4,
		TotalTimeSeconds:       15 * 60,
		RetryPenalty:           5,
		HintPenaltyPerQuestion: 5,
		HintPenaltyEndRoom:     10,
		MaxHintsPerRoom:        2,
		WarningTimeSeconds:     2 * 60,
		PenaltyDisplay:         "1.5s",
		Scoring:                ScoringAdditive,
	}
}

// Validate rejects configurations that cannot produce a playable game.
func (r Rules) Validate() error {
	switch {
	case r.TotalRooms <= 0:
		return fmt.Errorf("%w: total_rooms must be positive", ErrInvalidRules)
	case r.QuestionsPerRoom <= 0:
		return fmt.Errorf("%w: questions_per_room must be positive", ErrInvalidRules)
	case r.PassingThreshold <= 0 || r.PassingThreshold > r.QuestionsPerRoom:
		return fmt.Errorf("%w: passing_threshold must be in [1, %d]", ErrInvalidRules, r.QuestionsPerRoom)
	case r.TotalTimeSeconds <= 0:
		return fmt.Errorf("%w: total_time_seconds must be positive", ErrInvalidRules)
	case r.PointsPerCorrect < 0 || r.MaxScore < 0 || r.StartingScore < 0:
		return fmt.Errorf("%w: scores must not be negative", ErrInvalidRules)
	case r.MaxScore > 0 && r.StartingScore > r.MaxScore:
		return fmt.Errorf("%w: starting_score %d exceeds max_score %d", ErrInvalidRules, r.StartingScore, r.MaxScore)
	case r.RetryPenalty < 0 || r.HintPenaltyPerQuestion < 0 || r.HintPenaltyEndRoom < 0:
		return fmt.Errorf("%w: penalties must not be negative", ErrInvalidRules)
	case r.MaxHintsPerRoom < 0 || r.MaxHintsPerRoom >= OptionsPerQuestion:
		return fmt.Errorf("%w: max_hints_per_room must be in [0, %d]", ErrInvalidRules, OptionsPerQuestion-1)
	}
	if r.Scoring != ScoringAdditive && r.Scoring != ScoringPool {
		return fmt.Errorf("%w: unknown scoring policy %q", ErrInvalidRules, r.Scoring)
	}
	if r.PenaltyDisplay != "" {
		if _, err := time.ParseDuration(r.PenaltyDisplay); err != nil {
			return fmt.Errorf("%w: penalty_display: %v", ErrInvalidRules, err)
		}
	}
	return nil
}

// PenaltyDisplayOrDefault parses PenaltyDisplay, falling back to 1.5s.
func (r Rules) PenaltyDisplayOrDefault() time.Duration {
	if d, err := time.ParseDuration(r.PenaltyDisplay); err == nil && d > 0 {
		return d
	}
	return 1500 * time.Millisecond
}

// ClampScore keeps a score inside [0, MaxScore]. A zero MaxScore leaves the top open.
func (r Rules) ClampScore(score int) int {
	if score < 0 {
		return 0
	}
	if r.MaxScore > 0 && score > r.MaxScore {
		return r.MaxScore
	}
	return score
}

// IsWarning reports whether the countdown has entered the warning window.
func (r Rules) IsWarning(timeRemaining int) bool {
	return timeRemaining <= r.WarningTimeSeconds
}

// InitialScreen is where a fresh or reset game starts.
func (r Rules) InitialScreen() Screen {
	if r.RequireLogin {
		return ScreenLogin
	}
	return ScreenWelcome
}
