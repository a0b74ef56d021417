package engine_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/cesarion161/clawgic/internal/domain/engine"
	"github.com/cesarion161/clawgic/internal/domain/model"
)

// byID always prefers the post with the smaller id, so its choices are
// consistent across swapped sides.
func byID(_ *model.Curator, p *model.Pair, _ *rand.Rand) model.Vote {
	if p.Left.ID < p.Right.ID {
		return model.VoteLeft
	}
	return model.VoteRight
}

func newTestEngine(cfg engine.Config, curators, posts int, opts ...engine.Option) *engine.Engine {
	e, err := engine.New(cfg, opts...)
	So(err, ShouldBeNil)
	for i := 1; i <= curators; i++ {
		So(e.AddCurator(model.NewCurator(fmt.Sprintf("c%02d", i), 1000)), ShouldBeNil)
	}
	for i := 1; i <= posts; i++ {
		So(e.AddPost(model.NewPost(fmt.Sprintf("p%02d", i), "content")), ShouldBeNil)
	}
	return e
}

func TestNew(t *testing.T) {
	Convey("Given engine configurations", t, func() {
		Convey("When the defaults are used", func() {
			e, err := engine.New(engine.DefaultConfig())

			Convey("Then the engine starts empty", func() {
				So(err, ShouldBeNil)
				So(e.Pool().Balance(), ShouldEqual, 0)
				So(e.Pool().Alpha(), ShouldAlmostEqual, model.DefaultAlpha, 1e-12)
				So(e.Rounds(), ShouldBeEmpty)
				So(e.Config(), ShouldResemble, engine.DefaultConfig())
			})
		})

		Convey("When a field is out of range", func() {
			bad := []func(*engine.Config){
				func(c *engine.Config) { c.BaseK = 0 },
				func(c *engine.Config) { c.GoldenSetPercentage = 1.5 },
				func(c *engine.Config) { c.AuditPairPercentage = -0.1 },
				func(c *engine.Config) { c.Alpha = 1.2 },
				func(c *engine.Config) { c.DemandGateK = -1 },
				func(c *engine.Config) { c.PairsPerCurator = 0 },
				func(c *engine.Config) { c.SuspensionRounds = -1 },
			}

			Convey("Then construction fails with a configuration error", func() {
				for _, mutate := range bad {
					cfg := engine.DefaultConfig()
					mutate(&cfg)
					_, err := engine.New(cfg)
					So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
				}
			})
		})
	})
}

func TestRegistries(t *testing.T) {
	Convey("Given an engine with two curators and four posts", t, func() {
		e := newTestEngine(engine.DefaultConfig(), 2, 4)

		Convey("When ids are registered twice", func() {
			Convey("Then duplicates are rejected", func() {
				So(errors.Is(e.AddCurator(model.NewCurator("c01", 5)), model.ErrDuplicateID), ShouldBeTrue)
				So(errors.Is(e.AddPost(model.NewPost("p01", "again")), model.ErrDuplicateID), ShouldBeTrue)
				So(e.Curators(), ShouldHaveLength, 2)
				So(e.Posts(), ShouldHaveLength, 4)
			})
		})

		Convey("When malformed entities are registered", func() {
			Convey("Then they are rejected as configuration errors", func() {
				So(errors.Is(e.AddCurator(model.NewCurator("", 5)), model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(e.AddCurator(model.NewCurator("neg", -1)), model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(e.AddPost(nil), model.ErrConfiguration), ShouldBeTrue)
			})
		})

		Convey("When golden pairs are registered", func() {
			So(e.AddGoldenPair("p01", "p02", model.VoteLeft), ShouldBeNil)

			Convey("Then invalid items are rejected", func() {
				So(errors.Is(e.AddGoldenPair("p01", "nope", model.VoteLeft), model.ErrUnknownPost), ShouldBeTrue)
				So(errors.Is(e.AddGoldenPair("p01", "p02", model.VoteNoReveal), model.ErrInvalidVote), ShouldBeTrue)
				So(errors.Is(e.AddGoldenPair("p01", "p01", model.VoteLeft), model.ErrConfiguration), ShouldBeTrue)
				So(e.GoldenPairs(), ShouldHaveLength, 1)
			})
		})

		Convey("When looking up unknown ids", func() {
			_, errC := e.Curator("ghost")
			_, errP := e.Post("ghost")
			_, errR := e.Round(1)

			Convey("Then lookups fail with the matching kind", func() {
				So(errors.Is(errC, model.ErrUnknownCurator), ShouldBeTrue)
				So(errors.Is(errP, model.ErrUnknownPost), ShouldBeTrue)
				So(errors.Is(errR, model.ErrUnknownRound), ShouldBeTrue)
				So(errors.Is(e.Reinstate("ghost"), model.ErrUnknownCurator), ShouldBeTrue)
			})
		})

		Convey("When a registered curator is looked up", func() {
			c, err := e.Curator("c02")

			Convey("Then the ledger shares its score record", func() {
				So(err, ShouldBeNil)
				So(e.Ledger().ScoreFor("c02"), ShouldPointTo, c.Score)
			})
		})
	})
}

func TestRunRound_Pairing(t *testing.T) {
	Convey("Given five curators and twenty posts", t, func() {
		e := newTestEngine(engine.DefaultConfig(), 5, 20, engine.WithVoter(engine.VoterFunc(byID)))
		ctx := context.Background()

		Convey("When demand is plentiful", func() {
			round, _, err := e.RunRound(ctx, 100, nil)
			So(err, ShouldBeNil)

			Convey("Then the post supply bounds the regular pairs", func() {
				So(round.ID, ShouldEqual, 1)
				So(round.Counts(), ShouldResemble, model.PairCounts{Regular: 10, Audit: 1})
			})

			Convey("And each regular pair uses distinct posts", func() {
				seen := map[string]bool{}
				for _, p := range round.Pairs {
					if p.IsAuditPair {
						continue
					}
					So(seen[p.Left.ID], ShouldBeFalse)
					So(seen[p.Right.ID], ShouldBeFalse)
					seen[p.Left.ID], seen[p.Right.ID] = true, true
				}
				So(seen, ShouldHaveLength, 20)
			})

			Convey("And audit pairs repeat a regular pair with sides swapped, after it", func() {
				audit := round.Pairs[len(round.Pairs)-1]
				So(audit.IsAuditPair, ShouldBeTrue)
				var src *model.Pair
				for _, p := range round.Pairs[:len(round.Pairs)-1] {
					if p.ID == audit.AuditOf {
						src = p
					}
				}
				So(src, ShouldNotBeNil)
				So(audit.Left, ShouldPointTo, src.Right)
				So(audit.Right, ShouldPointTo, src.Left)
			})

			Convey("And every active curator voted on every pair", func() {
				for _, p := range round.Pairs {
					So(p.VoteCount(), ShouldEqual, 5)
				}
				So(round.CuratorIDs(), ShouldResemble, []string{"c01", "c02", "c03", "c04", "c05"})
			})
		})

		Convey("When demand is low", func() {
			round, _, err := e.RunRound(ctx, 3, nil)

			Convey("Then subscribers times K caps the pair count", func() {
				So(err, ShouldBeNil)
				So(round.Counts(), ShouldResemble, model.PairCounts{Regular: 4, Audit: 1})
			})
		})

		Convey("When a Golden Set is registered", func() {
			So(e.AddGoldenPair("p01", "p02", model.VoteLeft), ShouldBeNil)
			So(e.AddGoldenPair("p03", "p04", model.VoteLeft), ShouldBeNil)
			So(e.AddGoldenPair("p05", "p06", model.VoteLeft), ShouldBeNil)
			round, _, err := e.RunRound(ctx, 100, nil)

			Convey("Then golden pairs are sampled by percentage and lead the round", func() {
				So(err, ShouldBeNil)
				So(round.Counts(), ShouldResemble, model.PairCounts{Golden: 1, Regular: 9, Audit: 1})
				So(round.Pairs[0].HasGoldenAnswer(), ShouldBeTrue)
			})
		})

		Convey("When the caller supplies golden pairs", func() {
			golden := []engine.GoldenPair{
				{LeftID: "p01", RightID: "p02", Answer: model.VoteLeft},
				{LeftID: "p04", RightID: "p03", Answer: model.VoteRight},
			}
			round, _, err := e.RunRound(ctx, 100, golden)

			Convey("Then all of them are used and the rest are regular", func() {
				So(err, ShouldBeNil)
				So(round.Counts(), ShouldResemble, model.PairCounts{Golden: 2, Regular: 8, Audit: 1})
				So(round.Pairs[1].GoldenAnswer, ShouldEqual, model.VoteRight)
			})
		})

		Convey("When a supplied golden pair is invalid", func() {
			_, _, err := e.RunRound(ctx, 100, []engine.GoldenPair{{LeftID: "p01", RightID: "zz", Answer: model.VoteLeft}})

			Convey("Then the round is rejected", func() {
				So(errors.Is(err, model.ErrUnknownPost), ShouldBeTrue)
				So(e.Rounds(), ShouldBeEmpty)
			})
		})

		Convey("When there are no subscribers", func() {
			round, results, err := e.RunRound(ctx, 0, nil)

			Convey("Then an empty round is recorded and nobody is scored", func() {
				So(err, ShouldBeNil)
				So(round.Pairs, ShouldBeEmpty)
				So(results, ShouldHaveLength, 5)
				So(results["c01"].Suspended, ShouldBeFalse)
				So(e.Statistics().SuspendedCurators, ShouldEqual, 0)
			})
		})

		Convey("When the input is invalid", func() {
			_, _, errNeg := e.RunRound(ctx, -1, nil)
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, _, errCtx := e.RunRound(cancelled, 10, nil)

			Convey("Then nothing runs", func() {
				So(errors.Is(errNeg, model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(errCtx, context.Canceled), ShouldBeTrue)
				So(e.Rounds(), ShouldBeEmpty)
			})
		})
	})
}

func TestRunRound_Determinism(t *testing.T) {
	Convey("Given two engines built from the same seed", t, func() {
		build := func() *engine.Engine {
			e := newTestEngine(engine.DefaultConfig(), 6, 30)
			So(e.Pool().AddSubscription(5000), ShouldBeNil)
			return e
		}
		a, b := build(), build()

		Convey("When both run the same rounds", func() {
			Convey("Then every round is identical", func() {
				for range 3 {
					ra, resA, errA := a.RunRound(context.Background(), 40, nil)
					rb, resB, errB := b.RunRound(context.Background(), 40, nil)
					So(errA, ShouldBeNil)
					So(errB, ShouldBeNil)
					So(len(ra.Pairs), ShouldEqual, len(rb.Pairs))
					for i := range ra.Pairs {
						So(ra.Pairs[i].ID, ShouldEqual, rb.Pairs[i].ID)
						So(ra.Pairs[i].Votes(), ShouldResemble, rb.Pairs[i].Votes())
					}
					So(resA, ShouldResemble, resB)
					So(ra.Pool, ShouldResemble, rb.Pool)
				}
				So(a.Statistics(), ShouldResemble, b.Statistics())
			})
		})
	})
}

func TestRunRound_InvalidVote(t *testing.T) {
	Convey("Given a voter that returns an unknown vote for one curator", t, func() {
		voter := engine.VoterFunc(func(c *model.Curator, p *model.Pair, rng *rand.Rand) model.Vote {
			if c.ID == "c03" {
				return model.VoteUnknown
			}
			return byID(c, p, rng)
		})
		e := newTestEngine(engine.DefaultConfig(), 4, 10, engine.WithVoter(voter))
		So(e.Pool().AddSubscription(1000), ShouldBeNil)
		before := e.Statistics()

		Convey("When a round runs", func() {
			_, _, err := e.RunRound(context.Background(), 50, nil)

			Convey("Then it fails before any state changes", func() {
				So(errors.Is(err, model.ErrInvalidVote), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "c03")
				So(e.Statistics(), ShouldResemble, before)
				for _, p := range e.Posts() {
					So(p.EloRating, ShouldEqual, model.DefaultRating)
					So(p.TotalComparisons, ShouldEqual, 0)
				}
				for _, c := range e.Curators() {
					So(c.TotalVotes, ShouldEqual, 0)
				}
			})
		})
	})
}

func TestRunRound_NonFiniteValues(t *testing.T) {
	Convey("Given an engine with five funded curators and twenty posts", t, func() {
		e := newTestEngine(engine.DefaultConfig(), 5, 20, engine.WithVoter(engine.VoterFunc(byID)))
		So(e.Pool().AddSubscription(1000), ShouldBeNil)

		Convey("When curators or posts with non-finite numbers are registered", func() {
			nanRating := model.NewPost("nan", "")
			nanRating.EloRating = math.NaN()
			infCurator := model.NewCurator("inf-rating", 10)
			infCurator.EloRating = math.Inf(-1)

			Convey("Then they are rejected as configuration errors", func() {
				So(errors.Is(e.AddCurator(model.NewCurator("nan", math.NaN())), model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(e.AddCurator(model.NewCurator("inf", math.Inf(1))), model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(e.AddCurator(infCurator), model.ErrConfiguration), ShouldBeTrue)
				So(errors.Is(e.AddPost(nanRating), model.ErrConfiguration), ShouldBeTrue)
				So(e.Curators(), ShouldHaveLength, 5)
				So(e.Posts(), ShouldHaveLength, 20)
			})
		})

		Convey("When a registered curator's stake turns NaN before a round", func() {
			c, err := e.Curator("c01")
			So(err, ShouldBeNil)
			c.Stake = math.NaN()
			before := e.Statistics()

			_, _, err = e.RunRound(context.Background(), 100, nil)

			Convey("Then the round is rejected before anything moves", func() {
				So(errors.Is(err, model.ErrConfiguration), ShouldBeTrue)
				So(e.Rounds(), ShouldBeEmpty)
				So(e.Pool().Snapshot(), ShouldResemble, before.Pool)
				for _, p := range e.Posts() {
					So(p.EloRating, ShouldEqual, model.DefaultRating)
					So(p.TotalComparisons, ShouldEqual, 0)
				}
				for _, c := range e.Curators() {
					So(c.TotalVotes, ShouldEqual, 0)
					So(c.Score.FraudFlags, ShouldEqual, 0)
				}
			})
		})
	})
}

func TestRunRound_SaturatedDemand(t *testing.T) {
	Convey("Given two identical engines with five curators and twenty posts", t, func() {
		a := newTestEngine(engine.DefaultConfig(), 5, 20)
		b := newTestEngine(engine.DefaultConfig(), 5, 20)

		Convey("When one round has the largest possible subscriber count", func() {
			huge, _, errHuge := a.RunRound(context.Background(), math.MaxInt, nil)
			plenty, _, errPlenty := b.RunRound(context.Background(), 1000, nil)

			Convey("Then demand is capped by posts and curators rather than wrapping to zero", func() {
				So(errHuge, ShouldBeNil)
				So(errPlenty, ShouldBeNil)
				So(huge.Pairs, ShouldNotBeEmpty)
				So(len(huge.Pairs), ShouldEqual, len(plenty.Pairs))
			})
		})
	})
}

func TestRunRound_RecordedRoundIsStable(t *testing.T) {
	Convey("Given an engine that has played one round", t, func() {
		e := newTestEngine(engine.DefaultConfig(), 5, 20, engine.WithVoter(engine.VoterFunc(byID)))
		So(e.Pool().AddSubscription(5000), ShouldBeNil)
		first, _, err := e.RunRound(context.Background(), 100, nil)
		So(err, ShouldBeNil)

		stakes := make(map[string]float64, len(first.Curators))
		curatorRatings := make(map[string]float64, len(first.Curators))
		for _, c := range first.Curators {
			stakes[c.ID] = c.Stake
			curatorRatings[c.ID] = c.EloRating
		}
		ratings := make(map[string]float64)
		for _, p := range first.Pairs {
			ratings[p.Left.ID] = p.Left.EloRating
			ratings[p.Right.ID] = p.Right.EloRating
		}

		Convey("When more rounds run", func() {
			for range 3 {
				_, _, err := e.RunRound(context.Background(), 100, nil)
				So(err, ShouldBeNil)
			}
			recorded, err := e.Round(1)
			So(err, ShouldBeNil)

			Convey("Then the first round still shows the values it settled with", func() {
				for _, c := range recorded.Curators {
					So(c.Stake, ShouldEqual, stakes[c.ID])
					So(c.EloRating, ShouldEqual, curatorRatings[c.ID])
					live, _ := e.Curator(c.ID)
					So(live.EloRating, ShouldNotEqual, c.EloRating)
					So(c, ShouldNotPointTo, live)
				}
				for _, p := range recorded.Pairs {
					So(p.Left.EloRating, ShouldEqual, ratings[p.Left.ID])
					So(p.Right.EloRating, ShouldEqual, ratings[p.Right.ID])
				}
			})
		})
	})
}
