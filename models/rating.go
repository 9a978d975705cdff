package models

import "time"

// RatingRecord tracks a player's competitive standing. Streak encodes
// the current run length: positive for consecutive wins, negative for
// consecutive losses.
type RatingRecord struct {
	UserID    int64     `db:"user_id"`
	Wins      int64     `db:"wins"`
	Losses    int64     `db:"losses"`
	MMR       int64     `db:"mmr"`
	Streak    int64     `db:"streak"`
	UpdatedAt time.Time `db:"updated_at"`
}

// NewRatingRecord returns a default record for a player's first match.
func NewRatingRecord(userID, baseMMR int64) *RatingRecord {
	return &RatingRecord{
		UserID: userID,
		MMR:    baseMMR,
		Streak: 0,
	}
}

// MMRChange computes the base rating delta for a player against the
// match-average rating. The step shrinks by one point per full 100 MMR
// of distance from the average, truncated toward zero, and the result
// never drops below 1.
func MMRChange(mmr int64, avgMMR float64, step int64) int64 {
	diff := float64(mmr) - avgMMR
	var change int64
	if diff > 0 {
		change = step - int64(diff/100)
	} else {
		change = step + int64(diff/100)
	}
	if change < 1 {
		change = 1
	}
	return change
}

// AmplifyForStreak scales a rating delta once a win or loss run reaches
// length 3: change * ((|streak|-2)/10 + 1), truncated toward zero.
func AmplifyForStreak(change, streak int64) int64 {
	run := streak
	if run < 0 {
		run = -run
	}
	if run < 3 {
		return change
	}
	multiplier := float64(run-2)/10 + 1
	return int64(float64(change) * multiplier)
}

// ApplyWin advances the record by one won match with the given base
// delta, extending the win streak and amplifying the delta when the
// streak reaches 3.
func (r *RatingRecord) ApplyWin(change int64) int64 {
	if r.Streak > 0 {
		r.Streak++
	} else {
		r.Streak = 1
	}
	change = AmplifyForStreak(change, r.Streak)
	r.MMR += change
	r.Wins++
	return change
}

// ApplyLoss advances the record by one lost match, mirroring ApplyWin
// with a negative streak.
func (r *RatingRecord) ApplyLoss(change int64) int64 {
	if r.Streak < 0 {
		r.Streak--
	} else {
		r.Streak = -1
	}
	change = AmplifyForStreak(change, r.Streak)
	r.MMR -= change
	r.Losses++
	return change
}

// Tiers is the fixed ladder of display tiers, lowest first. Each tier
// spans 100 MMR starting at 500; everything below maps to the first
// entry and everything at or above 3400 to the last.
var Tiers = [31]string{
	"Iron IV", "Iron III", "Iron II", "Iron I",
	"Bronze IV", "Bronze III", "Bronze II", "Bronze I",
	"Silver IV", "Silver III", "Silver II", "Silver I",
	"Gold IV", "Gold III", "Gold II", "Gold I",
	"Platinum IV", "Platinum III", "Platinum II", "Platinum I",
	"Emerald IV", "Emerald III", "Emerald II", "Emerald I",
	"Diamond IV", "Diamond III", "Diamond II", "Diamond I",
	"Master", "Grandmaster", "Challenger",
}

// TierIndex maps an MMR value to its position in Tiers. Total and
// monotonic: every integer MMR maps to exactly one index.
func TierIndex(mmr int64) int {
	if mmr < 500 {
		return 0
	}
	if mmr >= 3400 {
		return len(Tiers) - 1
	}
	return int((mmr-500)/100) + 1
}

// TierFor returns the display tier for an MMR value.
func TierFor(mmr int64) string {
	return Tiers[TierIndex(mmr)]
}
