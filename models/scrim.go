package models

import "time"

// TeamNumber identifies one of the two sides of a scrim.
type TeamNumber int16

const (
	Team1 TeamNumber = 1
	Team2 TeamNumber = 2
)

// Valid reports whether the team number is one of the two sides.
func (t TeamNumber) Valid() bool {
	return t == Team1 || t == Team2
}

// Scrim represents an in-house match whose roster feeds the rating
// engine. TeamsClosed freezes signups; the flag lives on the scrim row
// so it shares the scrim's transactional scope.
type Scrim struct {
	ID          int64     `db:"scrim_id"`
	Name        string    `db:"name"`
	TeamsClosed bool      `db:"teams_closed"`
	CreatedAt   time.Time `db:"created_at"`
}

// ScrimMember represents one player's spot on a scrim team.
type ScrimMember struct {
	ScrimID  int64      `db:"scrim_id"`
	UserID   int64      `db:"user_id"`
	Team     TeamNumber `db:"team"`
	JoinedAt time.Time  `db:"joined_at"`
}

// RosterSlot is the (player, side) pair the rating engine consumes.
type RosterSlot struct {
	UserID int64
	Team   TeamNumber
}

// Roster is a full two-team lineup.
type Roster []RosterSlot

// TeamAverageMMR computes the mean rating of one team given each
// player's current record; players without a record count at baseMMR.
func TeamAverageMMR(members []*ScrimMember, records map[int64]*RatingRecord, baseMMR int64) float64 {
	if len(members) == 0 {
		return float64(baseMMR)
	}
	var sum int64
	for _, m := range members {
		if rec, ok := records[m.UserID]; ok {
			sum += rec.MMR
		} else {
			sum += baseMMR
		}
	}
	return float64(sum) / float64(len(members))
}

// MatchResultUpdate captures one player's rating movement from a match.
type MatchResultUpdate struct {
	UserID int64
	Won    bool
	Change int64
	Record *RatingRecord
}
