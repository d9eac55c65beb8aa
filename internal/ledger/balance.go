package ledger

// Derived figures. Both are pure functions of the current store snapshot,
// recomputed on every call — there is no cached sum to drift.

// Balance returns budget + Σincome − Σexpense. May go negative when
// expenses exceed budget plus income.
func (s *Store) Balance() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budget + s.totalIncomeLocked() - s.totalExpenseLocked()
}

// AvailableBudget returns max(budget − Σexpense, 0). Unlike Balance it
// never reports negative headroom and ignores income.
func (s *Store) AvailableBudget() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	available := s.budget - s.totalExpenseLocked()
	if available < 0 {
		return 0
	}
	return available
}

func (s *Store) totalExpenseLocked() float64 {
	var sum float64
	for _, e := range s.expenses {
		sum += e.Amount
	}
	return sum
}

func (s *Store) totalIncomeLocked() float64 {
	var sum float64
	for _, in := range s.incomes {
		sum += in.Amount
	}
	return sum
}
