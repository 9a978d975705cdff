package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Match represents a two-sided betting market for a scheduled game.
// Pools hold the total stake per side; dividends are the pari-mutuel
// payout multipliers derived from the pools.
type Match struct {
	ID        int64      `db:"match_id"`
	Name      string     `db:"name"`
	SideA     string     `db:"side_a"`
	SideB     string     `db:"side_b"`
	StartsAt  time.Time  `db:"starts_at"`
	Result    *string    `db:"result"`
	DividendA float64    `db:"dividend_a"`
	DividendB float64    `db:"dividend_b"`
	PoolA     int64      `db:"pool_a"`
	PoolB     int64      `db:"pool_b"`
	Closed    bool       `db:"closed"`
	CreatedAt time.Time  `db:"created_at"`
	SettledAt *time.Time `db:"settled_at"`
}

// HasSide reports whether side is one of the match's two declared sides.
func (m *Match) HasSide(side string) bool {
	return side == m.SideA || side == m.SideB
}

// IsSettled reports whether a result has been recorded for the match.
func (m *Match) IsSettled() bool {
	return m.Result != nil
}

// AddToPool adds amount (which may be negative for cancellations) to the
// pool of the given side. Side must be valid for the match.
func (m *Match) AddToPool(side string, amount int64) {
	if side == m.SideA {
		m.PoolA += amount
	} else if side == m.SideB {
		m.PoolB += amount
	}
}

// Dividend returns the stored dividend for the given side.
func (m *Match) Dividend(side string) float64 {
	if side == m.SideA {
		return m.DividendA
	}
	return m.DividendB
}

// RecomputeDividends derives both dividends from the current pools:
// total/sidePool rounded to 2 decimal places, 1.0 for an empty side.
// An empty total pool resets both dividends to 1.0, so a fully
// cancelled market returns to its initial state.
func (m *Match) RecomputeDividends() {
	total := m.PoolA + m.PoolB
	if total == 0 {
		m.DividendA = 1.0
		m.DividendB = 1.0
		return
	}
	m.DividendA = sideDividend(total, m.PoolA)
	m.DividendB = sideDividend(total, m.PoolB)
}

func sideDividend(total, sidePool int64) float64 {
	if sidePool == 0 {
		return 1.0
	}
	d := decimal.NewFromInt(total).Div(decimal.NewFromInt(sidePool))
	return d.Round(2).InexactFloat64()
}

// WinningPayout computes the settlement payout for a single winning bet:
// amount * dividend, less the house cut, rounded half away from zero.
func WinningPayout(amount int64, dividend float64, houseCutPercent int64) int64 {
	keep := decimal.NewFromInt(100 - houseCutPercent).Div(decimal.NewFromInt(100))
	payout := decimal.NewFromInt(amount).
		Mul(decimal.NewFromFloat(dividend)).
		Mul(keep)
	return payout.Round(0).IntPart()
}
