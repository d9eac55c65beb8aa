package ledger

import (
	"fmt"
	"time"

	"github.com/tmore/finance-agent-go/internal/domain"
)

// WeekKey derives the reporting bucket for a date: "{year}-W{n}" where n is
// the within-month week index (day 1–7 → W1, 8–14 → W2, ...). This resets
// every month and is NOT an ISO calendar week.
func WeekKey(t time.Time) string {
	return fmt.Sprintf("%d-W%d", t.Year(), (t.Day()+6)/7)
}

// WeeklyExpenses groups all expenses into week buckets, preserving
// insertion order inside each bucket. The grouping is recomputed fully from
// the expense list on every call.
func (s *Store) WeeklyExpenses() map[string][]domain.Expense {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grouped := make(map[string][]domain.Expense)
	for _, e := range s.expenses {
		key := WeekKey(e.Date)
		grouped[key] = append(grouped[key], e)
	}
	return grouped
}
