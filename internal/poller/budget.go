package poller

// Budget is an attempt allowance shared by the phases of a multi-phase search.
// A nil *Budget is unlimited.
type Budget struct {
	total int
	used  int
}

// NewBudget creates a budget of n attempts
func NewBudget(n int) *Budget {
	return &Budget{total: n}
}

// Take consumes one attempt and reports whether one was available
func (b *Budget) Take() bool {
	if b == nil {
		return true
	}
	if b.used >= b.total {
		return false
	}
	b.used++
	return true
}

// Used returns the attempts consumed so far
func (b *Budget) Used() int {
	if b == nil {
		return 0
	}
	return b.used
}

// Remaining returns the attempts still available
func (b *Budget) Remaining() int {
	if b == nil {
		return 0
	}
	return b.total - b.used
}

// Exhausted reports whether no attempts remain
func (b *Budget) Exhausted() bool {
	return b != nil && b.used >= b.total
}
