package model

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestPlayerClone(t *testing.T) {
	Convey("Given a player with some rating records", t, func() {
		orig := Player{
			ProfileID: 1,
			Name:      "Beasty",
			Leaderboards: Leaderboards{
				RMSolo: &RatingRecord{Rating: 2100},
				QM2v2:  &RatingRecord{Rating: 1300},
			},
		}

		Convey("When cloning it", func() {
			c := orig.Clone()
			c.Leaderboards.RMSolo.Rating = 1

			Convey("Then records are copied, not shared", func() {
				So(orig.Leaderboards.RMSolo.Rating, ShouldEqual, 2100)
				So(c.Leaderboards.QM2v2, ShouldNotPointTo, orig.Leaderboards.QM2v2)
				So(c.Leaderboards.RMTeam, ShouldBeNil)
				So(c.Name, ShouldEqual, "Beasty")
			})
		})
	})
}
