// Package matchdata turns a player's leaderboards into the ordered list of
// rating records shown on the player detail view.
package matchdata

import "github.com/okian/aoelookup/internal/domain/model"

// Category identifies one competitive queue.
type Category string

// Categories in display order.
const (
	RankedSolo     Category = "rm_solo"
	RankedTeam     Category = "rm_team"
	RankedTeam2v2  Category = "rm_2v2_elo"
	RankedTeam3v3  Category = "rm_3v3_elo"
	RankedTeam4v4  Category = "rm_4v4_elo"
	QuickMatchSolo Category = "qm_1v1"
	QuickMatch2v2  Category = "qm_2v2"
	QuickMatch3v3  Category = "qm_3v3"
	QuickMatch4v4  Category = "qm_4v4"
)

type slot struct {
	category Category
	label    string
	pick     func(*model.Leaderboards) *model.RatingRecord
}

// order is the fixed display order. It is neither alphabetical nor the
// field order of model.Leaderboards.
var order = [...]slot{
	{RankedSolo, "Ranked Solo", func(l *model.Leaderboards) *model.RatingRecord { return l.RMSolo }},
	{RankedTeam, "Ranked Team", func(l *model.Leaderboards) *model.RatingRecord { return l.RMTeam }},
	{RankedTeam2v2, "Ranked Team 2v2", func(l *model.Leaderboards) *model.RatingRecord { return l.RM2v2Elo }},
	{RankedTeam3v3, "Ranked Team 3v3", func(l *model.Leaderboards) *model.RatingRecord { return l.RM3v3Elo }},
	{RankedTeam4v4, "Ranked Team 4v4", func(l *model.Leaderboards) *model.RatingRecord { return l.RM4v4Elo }},
	{QuickMatchSolo, "Quick Match Solo", func(l *model.Leaderboards) *model.RatingRecord { return l.QM1v1 }},
	{QuickMatch2v2, "Quick Match 2v2", func(l *model.Leaderboards) *model.RatingRecord { return l.QM2v2 }},
	{QuickMatch3v3, "Quick Match 3v3", func(l *model.Leaderboards) *model.RatingRecord { return l.QM3v3 }},
	{QuickMatch4v4, "Quick Match 4v4", func(l *model.Leaderboards) *model.RatingRecord { return l.QM4v4 }},
}

// Entry is one present rating record with its display label.
type Entry struct {
	Category Category           `json:"category"`
	Label    string             `json:"label"`
	Record   model.RatingRecord `json:"record"`
}

// Entries returns the present records in display order. hasData is false
// when all nine categories are absent; callers render an empty-state
// message in that case rather than an empty list.
func Entries(lb model.Leaderboards) (entries []Entry, hasData bool) {
	for _, s := range order {
		r := s.pick(&lb)
		if r == nil {
			continue
		}
		entries = append(entries, Entry{Category: s.category, Label: s.label, Record: *r})
	}
	return entries, len(entries) > 0
}

// Categories returns every category in display order.
func Categories() []Category {
	out := make([]Category, len(order))
	for i, s := range order {
		out[i] = s.category
	}
	return out
}

// Label returns the display label for c, or "" for an unknown category.
func Label(c Category) string {
	for _, s := range order {
		if s.category == c {
			return s.label
		}
	}
	return ""
}
