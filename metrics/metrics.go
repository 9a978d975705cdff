package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsPlaced counts accepted bets by side.
	BetsPlaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "matchbook_bets_placed_total",
		Help: "Bets accepted into the book",
	}, []string{"side"})

	// BetsCancelled counts bets refunded inside the cancellation window.
	BetsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchbook_bets_cancelled_total",
		Help: "Bets cancelled and refunded",
	})

	// MatchesSettled counts terminal settlements.
	MatchesSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchbook_matches_settled_total",
		Help: "Matches settled with a declared winner",
	})

	// PointsPaidOut accumulates total winnings credited at settlement.
	PointsPaidOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchbook_points_paid_out_total",
		Help: "Points credited to winners after the house cut",
	})

	// ScrimsRecorded counts scrim results applied to ratings.
	ScrimsRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchbook_scrims_recorded_total",
		Help: "Scrim results applied to player ratings",
	})

	// UsersCreated counts lazily created ledger accounts.
	UsersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchbook_users_created_total",
		Help: "Ledger accounts created on first contact",
	})
)
