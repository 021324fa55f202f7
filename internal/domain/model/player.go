// Package model contains domain models passed between layers.
package model

import "time"

// RatingRecord is a player's standing in one matchmaking queue.
// Only Rating is guaranteed to be set.
type RatingRecord struct {
	Rating      int       `json:"rating"`
	MaxRating   int       `json:"max_rating,omitempty"`
	Rank        int       `json:"rank,omitempty"`
	RankLevel   string    `json:"rank_level,omitempty"`
	GamesCount  int       `json:"games_count,omitempty"`
	WinsCount   int       `json:"wins_count,omitempty"`
	LossesCount int       `json:"losses_count,omitempty"`
	WinRate     float64   `json:"win_rate,omitempty"`
	LastGameAt  time.Time `json:"last_game_at,omitzero"`
}

// Leaderboards holds one optional record per competitive category.
// A nil field means the player has no history in that queue.
type Leaderboards struct {
	RMSolo   *RatingRecord `json:"rm_solo,omitempty"`
	RMTeam   *RatingRecord `json:"rm_team,omitempty"`
	RM2v2Elo *RatingRecord `json:"rm_2v2_elo,omitempty"`
	RM3v3Elo *RatingRecord `json:"rm_3v3_elo,omitempty"`
	RM4v4Elo *RatingRecord `json:"rm_4v4_elo,omitempty"`
	QM1v1    *RatingRecord `json:"qm_1v1,omitempty"`
	QM2v2    *RatingRecord `json:"qm_2v2,omitempty"`
	QM3v3    *RatingRecord `json:"qm_3v3,omitempty"`
	QM4v4    *RatingRecord `json:"qm_4v4,omitempty"`
}

// Player is an immutable search result.
type Player struct {
	ProfileID    int64        `json:"profile_id"`
	Name         string       `json:"name"`
	Country      string       `json:"country,omitempty"`
	Leaderboards Leaderboards `json:"leaderboards"`
}

// Clone returns a deep copy so callers cannot mutate records shared with a store.
func (p Player) Clone() Player {
	lb := p.Leaderboards
	for _, f := range []**RatingRecord{
		&lb.RMSolo, &lb.RMTeam, &lb.RM2v2Elo, &lb.RM3v3Elo, &lb.RM4v4Elo,
		&lb.QM1v1, &lb.QM2v2, &lb.QM3v3, &lb.QM4v4,
	} {
		if *f != nil {
			r := **f
			*f = &r
		}
	}
	p.Leaderboards = lb
	return p
}
