package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadFile(t *testing.T) {
	Convey("Given a player seed file", t, func() {
		dir := t.TempDir()
		path := filepath.Join(dir, "players.json")
		content := `{"players": [
			{"profile_id": 1, "name": "Beasty", "country": "de",
			 "leaderboards": {"rm_solo": {"rating": 2100, "rank": 4}, "qm_2v2": {"rating": 1400}}},
			{"profile_id": 2, "name": "Vortix", "leaderboards": {}}
		]}`
		So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)

		Convey("When loading and seeding it", func() {
			players, err := LoadFile(context.Background(), path)
			So(err, ShouldBeNil)
			store := NewMemoryStore()
			So(Seed(context.Background(), store, players), ShouldBeNil)

			Convey("Then records are decoded with their leaderboards", func() {
				So(store.Count(context.Background()), ShouldEqual, 2)
				p, err := store.Get(context.Background(), 1)
				So(err, ShouldBeNil)
				So(p.Country, ShouldEqual, "de")
				So(p.Leaderboards.RMSolo.Rating, ShouldEqual, 2100)
				So(p.Leaderboards.RMSolo.Rank, ShouldEqual, 4)
				So(p.Leaderboards.QM2v2.Rating, ShouldEqual, 1400)
				So(p.Leaderboards.RMTeam, ShouldBeNil)
			})
		})
	})

	Convey("Given a malformed seed file", t, func() {
		path := filepath.Join(t.TempDir(), "bad.json")
		So(os.WriteFile(path, []byte(`{"players": [`), 0o600), ShouldBeNil)

		_, err := LoadFile(context.Background(), path)

		Convey("Then ErrSeedFormat is returned", func() {
			So(errors.Is(err, ErrSeedFormat), ShouldBeTrue)
		})
	})

	Convey("Given a seed with an invalid player", t, func() {
		path := filepath.Join(t.TempDir(), "invalid.json")
		So(os.WriteFile(path, []byte(`{"players": [{"profile_id": 0, "name": "ghost"}]}`), 0o600), ShouldBeNil)

		players, err := LoadFile(context.Background(), path)
		So(err, ShouldBeNil)
		err = Seed(context.Background(), NewMemoryStore(), players)

		Convey("Then seeding fails with ErrInvalidPlayer", func() {
			So(errors.Is(err, ErrInvalidPlayer), ShouldBeTrue)
		})
	})
}
