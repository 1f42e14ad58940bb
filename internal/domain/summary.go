package domain

import (
	"fmt"
	"math"
)

// RoomSummary is one line of the game-over breakdown.
type RoomSummary struct {
	RoomID    int    `json:"roomId"`
	Name      string `json:"name"`
	Correct   int    `json:"correct"`
	Total     int    `json:"total"`
	Passed    bool   `json:"passed"`
	Retries   int    `json:"retries"`
	HintsUsed int    `json:"hintsUsed"`
}

// Summary is the end-of-game report shown on the game-over screen.
type Summary struct {
	PlayerName      string        `json:"playerName"`
	Score           int           `json:"score"`
	MaxScore        int           `json:"maxScore"`
	ScorePercentage int           `json:"scorePercentage"`
	RoomsCleared    int           `json:"roomsCleared"`
	TotalRooms      int           `json:"totalRooms"`
	TotalHintsUsed  int           `json:"totalHintsUsed"`
	TimeRemaining   int           `json:"timeRemaining"`
	ShareText       string        `json:"shareText"`
	Rooms           []RoomSummary `json:"rooms"`
}

// Summarize builds the game-over report. Room names come from catalog when available.
func Summarize(state GameState, catalog Catalog, rules Rules) Summary {
	sum := Summary{
		PlayerName:    state.PlayerName,
		Score:         state.Score,
		MaxScore:      rules.MaxScore,
		TotalRooms:    rules.TotalRooms,
		TimeRemaining: state.TimeRemaining,
		Rooms:         make([]RoomSummary, 0, len(state.RoomStates)),
	}
	for i, rs := range state.RoomStates {
		hints := rs.HintsUsedInRoom
		if rs.EndOfRoomHintUsed() {
			hints++
		}
		sum.TotalHintsUsed += hints
		if rs.Passed {
			sum.RoomsCleared++
		}
		name := ""
		if i < len(catalog.Rooms) {
			name = catalog.Rooms[i].Name
		}
		sum.Rooms = append(sum.Rooms, RoomSummary{
			RoomID:    rs.RoomID,
			Name:      name,
			Correct:   rs.CorrectCount(),
			Total:     rules.QuestionsPerRoom,
			Passed:    rs.Passed,
			Retries:   rs.RetryCount,
			HintsUsed: hints,
		})
	}
	if rules.MaxScore > 0 {
		sum.ScorePercentage = int(math.Round(float64(state.Score) / float64(rules.MaxScore) * 100))
	}
	sum.ShareText = fmt.Sprintf("I scored %d/%d on the AI Escape Room! Cleared %d/%d rooms. Can you beat me?",
		sum.Score, sum.MaxScore, sum.RoomsCleared, sum.TotalRooms)
	return sum
}
