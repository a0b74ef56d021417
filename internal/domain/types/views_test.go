package types_test

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cesarion161/clawgic/internal/domain/engine"
	"github.com/cesarion161/clawgic/internal/domain/model"
	types "github.com/cesarion161/clawgic/internal/domain/types"
)

func TestPairView(t *testing.T) {
	Convey("Given a golden pair with a left majority", t, func() {
		p := model.NewPair("pair-1", model.NewPost("a", ""), model.NewPost("b", ""))
		p.IsGoldenSet = true
		p.GoldenAnswer = model.VoteLeft
		So(p.AddVote("c1", model.VoteLeft), ShouldBeNil)
		So(p.AddVote("c2", model.VoteLeft), ShouldBeNil)
		So(p.AddVote("c3", model.VoteNoReveal), ShouldBeNil)

		v := types.NewPairView(p)

		Convey("Then the view carries kind, answer and majority", func() {
			So(v.Kind, ShouldEqual, types.PairGolden)
			So(*v.GoldenAnswer, ShouldEqual, model.VoteLeft)
			So(*v.Majority, ShouldEqual, model.VoteLeft)
			So(v.Votes, ShouldHaveLength, 3)
		})

		Convey("Then votes encode as lower-case choices", func() {
			b, err := json.Marshal(v)
			So(err, ShouldBeNil)
			So(string(b), ShouldContainSubstring, `"c3":"no_reveal"`)
			So(string(b), ShouldContainSubstring, `"golden_answer":"left"`)
		})
	})

	Convey("Given a tied audit pair", t, func() {
		p := model.NewPair("pair-2", model.NewPost("a", ""), model.NewPost("b", ""))
		p.IsAuditPair = true
		p.AuditOf = "pair-0"
		So(p.AddVote("c1", model.VoteLeft), ShouldBeNil)
		So(p.AddVote("c2", model.VoteRight), ShouldBeNil)

		v := types.NewPairView(p)

		Convey("Then it has no majority and omits it when encoded", func() {
			So(v.Kind, ShouldEqual, types.PairAudit)
			So(v.Majority, ShouldBeNil)
			b, _ := json.Marshal(v)
			So(string(b), ShouldNotContainSubstring, "majority")
			So(string(b), ShouldContainSubstring, `"audit_of":"pair-0"`)
		})
	})
}

func TestRoundAndCuratorViews(t *testing.T) {
	Convey("Given a finished round", t, func() {
		c := model.NewCurator("c1", 100)
		r := &model.Round{
			ID:       3,
			Pairs:    []*model.Pair{model.NewPair("x", model.NewPost("a", ""), model.NewPost("b", ""))},
			Curators: []*model.Curator{c},
		}
		v := types.NewRoundView(r, []engine.Result{{CuratorID: "c1", Rewards: 5}})

		Convey("Then the view lists pairs, participants and results", func() {
			So(v.ID, ShouldEqual, 3)
			So(v.Counts.Regular, ShouldEqual, 1)
			So(v.Curators, ShouldResemble, []string{"c1"})
			So(v.Pairs[0].Kind, ShouldEqual, types.PairRegular)
			So(v.Results[0].Rewards, ShouldEqual, 5)
		})

		Convey("When a curator view is taken and the curator changes later", func() {
			c.Score.CalibrationRate = 1
			view := types.NewCuratorView(c, 2)
			c.Score.CalibrationRate = 0
			c.Stake = 0

			Convey("Then the view keeps the values it was taken with", func() {
				So(view.Rank, ShouldEqual, 2)
				So(view.Stake, ShouldEqual, 100)
				So(view.Score.CalibrationRate, ShouldEqual, 1)
				So(view.CurrentScore, ShouldAlmostEqual, 0.40, 1e-9)
			})
		})
	})
}
