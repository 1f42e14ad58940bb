package domain

import (
	"fmt"
	"strings"
	"time"
)

// Question is a four-option multiple choice question with exactly one correct option.
type Question struct {
	ID           string   `json:"id" yaml:"id"`
	Text         string   `json:"text" yaml:"text"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correct_index"`
}

// IsCorrect reports whether option is the correct answer.
func (q Question) IsCorrect(option int) bool {
	return option == q.CorrectIndex
}

// Room is a themed group of questions. Rooms are played in ID order.
type Room struct {
	ID          int        `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Slug        string     `json:"slug" yaml:"slug"`
	Description string     `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Catalog is the read-only content bank a session is played against.
type Catalog struct {
	ID    string `json:"id" yaml:"id"`
	Rooms []Room `json:"rooms" yaml:"rooms"`
}

// Validate checks the catalog against the rules it will be played with.
func (c Catalog) Validate(rules Rules) error {
	if len(c.Rooms) != rules.TotalRooms {
		return fmt.Errorf("%w: %d rooms, want %d", ErrInvalidCatalog, len(c.Rooms), rules.TotalRooms)
	}
	seen := make(map[string]struct{})
	for i, room := range c.Rooms {
		if room.ID != i+1 {
			return fmt.Errorf("%w: room at position %d has id %d", ErrInvalidCatalog, i, room.ID)
		}
		if len(room.Questions) != rules.QuestionsPerRoom {
			return fmt.Errorf("%w: room %d has %d questions, want %d", ErrInvalidCatalog, room.ID, len(room.Questions), rules.QuestionsPerRoom)
		}
		for _, q := range room.Questions {
			if q.ID == "" {
				return fmt.Errorf("%w: room %d has a question without id", ErrInvalidCatalog, room.ID)
			}
			if _, dup := seen[q.ID]; dup {
				return fmt.Errorf("%w: duplicate question id %q", ErrInvalidCatalog, q.ID)
			}
			seen[q.ID] = struct{}{}
			if len(q.Options) != OptionsPerQuestion {
				return fmt.Errorf("%w: question %q has %d options", ErrInvalidCatalog, q.ID, len(q.Options))
			}
			if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
				return fmt.Errorf("%w: question %q correct index %d out of range", ErrInvalidCatalog, q.ID, q.CorrectIndex)
			}
		}
	}
	return nil
}

// OptionsPerQuestion is fixed by the question format.
const OptionsPerQuestion = 4

// ValidatePlayerName trims the name and rejects anything shorter than two characters.
func ValidatePlayerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if len([]rune(trimmed)) < 2 {
		return "", ErrInvalidPlayerName
	}
	return trimmed, nil
}

// Identity is the opaque account handed over by an external wallet/auth provider.
type Identity struct {
	Address   string `json:"address"`
	Connected bool   `json:"connected"`
}

// LeaderboardEntry is one finished (or mock) game on the leaderboard.
type LeaderboardEntry struct {
	Rank         int       `json:"rank"`
	Name         string    `json:"name"`
	Score        int       `json:"score"`
	RoomsCleared int       `json:"roomsCleared"`
	FinishedAt   time.Time `json:"finishedAt"`
}
