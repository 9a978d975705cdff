package models

import "time"

// Bet represents a single stake on one side of a match. Bets are
// immutable once the cancellation window elapses or the match closes.
type Bet struct {
	ID       int64     `db:"bet_id"`
	UserID   int64     `db:"user_id"`
	MatchID  int64     `db:"match_id"`
	Side     string    `db:"side"`
	Amount   int64     `db:"amount"`
	PlacedAt time.Time `db:"placed_at"`
}

// CancellableUntil returns the instant after which the bet can no
// longer be cancelled.
func (b *Bet) CancellableUntil(window time.Duration) time.Time {
	return b.PlacedAt.Add(window)
}

// SettlementResult represents the outcome of settling a match.
type SettlementResult struct {
	Match           *Match
	WinningSide     string
	WinningDividend float64
	TotalPool       int64
	// Payouts maps user ID to the aggregated amount credited to them.
	Payouts     map[int64]int64
	WinningBets []*Bet
}

// TotalPaidOut returns the sum of all payouts credited at settlement.
func (r *SettlementResult) TotalPaidOut() int64 {
	var total int64
	for _, p := range r.Payouts {
		total += p
	}
	return total
}
