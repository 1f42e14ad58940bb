package memory

import (
	"sort"
	"sync"
	"time"

	"escape-room-service/internal/domain"
)

// MockEntries seed the board so a first player is not alone on it.
var MockEntries = []domain.LeaderboardEntry{
	{Name: "Satoshi", Score: 95},
	{Name: "Vitalik", Score: 90},
	{Name: "Ada", Score: 85},
	{Name: "Alan", Score: 80},
	{Name: "Grace", Score: 75},
}

// DefaultLeaderboardSize is how many ranked entries a board retains.
const DefaultLeaderboardSize = 100

// Leaderboard is a process-local board of finished games. Nothing is persisted.
// Only the best entries are retained, kept in rank order.
type Leaderboard struct {
	mu      sync.RWMutex
	now     func() time.Time
	limit   int
	entries []domain.LeaderboardEntry
}

func NewLeaderboard(seed ...domain.LeaderboardEntry) *Leaderboard {
	return newLeaderboardWithClock(time.Now, seed...)
}

func newLeaderboardWithClock(now func() time.Time, seed ...domain.LeaderboardEntry) *Leaderboard {
	l := &Leaderboard{
		now:     now,
		limit:   DefaultLeaderboardSize,
		entries: append([]domain.LeaderboardEntry(nil), seed...),
	}
	l.rankLocked()
	return l
}

func (l *Leaderboard) Record(entry domain.LeaderboardEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = l.now()
	}
	l.entries = append(l.entries, entry)
	l.rankLocked()
}

// rankLocked sorts entries and drops those past the retention limit.
func (l *Leaderboard) rankLocked() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		a, b := l.entries[i], l.entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.FinishedAt.Equal(b.FinishedAt) {
			return a.FinishedAt.Before(b.FinishedAt)
		}
		return a.Name < b.Name
	})
	if l.limit > 0 && len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit:l.limit]
	}
}

// Top returns up to n entries ranked by score, earlier finish, then name. n <= 0 returns all.
func (l *Leaderboard) Top(n int) []domain.LeaderboardEntry {
	l.mu.RLock()
	entries := append([]domain.LeaderboardEntry(nil), l.entries...)
	l.mu.RUnlock()

	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
