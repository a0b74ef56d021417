package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	app "github.com/cesarion161/clawgic/internal/app"
	"github.com/cesarion161/clawgic/internal/config"
	"github.com/cesarion161/clawgic/internal/domain/types"
	"github.com/cesarion161/clawgic/pkg/logger"
)

func TestNewHTTPServer(t *testing.T) {
	convey.Convey("Given a seeded service behind the HTTP server", t, func() {
		ctx := context.Background()
		cfg := config.New()
		svc, err := app.New(cfg)
		convey.So(err, convey.ShouldBeNil)
		convey.So(svc.Seed(ctx, 3, 6, 100, 1), convey.ShouldBeNil)
		srv := newHTTPServer(cfg, svc, logger.NewNop())

		convey.Convey("Then it carries the configured address and timeouts", func() {
			convey.So(srv.Addr, convey.ShouldEqual, cfg.Addr)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)
		})

		convey.Convey("Then the stats route reports the seeded registries", func() {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)

			var stats types.Stats
			convey.So(json.NewDecoder(w.Body).Decode(&stats), convey.ShouldBeNil)
			convey.So(stats.Curators, convey.ShouldEqual, 3)
			convey.So(stats.Posts, convey.ShouldEqual, 6)
			convey.So(stats.GoldenPairs, convey.ShouldEqual, 1)
		})

		convey.Convey("Then the leaderboard limit is capped by config", func() {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=101", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusBadRequest)
		})

		convey.Convey("Then the OpenAPI document is served", func() {
			w := httptest.NewRecorder()
			srv.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
			convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(w.Body.String(), convey.ShouldContainSubstring, "/rounds/{id}")
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given the process configured on an ephemeral port", t, func() {
		_ = os.Setenv("CURATION_ADDR", "127.0.0.1:0")
		_ = os.Setenv("CURATION_LOG_FORMAT", "json")
		defer func() {
			_ = os.Unsetenv("CURATION_ADDR")
			_ = os.Unsetenv("CURATION_LOG_FORMAT")
		}()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		var logs bytes.Buffer
		ready := make(chan string, 1)
		done := make(chan error, 1)
		go func() { done <- run(ctx, &logs, ready) }()

		convey.Convey("When it is serving and then cancelled", func() {
			var addr string
			select {
			case addr = <-ready:
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
			}
			convey.So(addr, convey.ShouldNotBeEmpty)

			resp, err := http.Post("http://"+addr+"/rounds", "application/json", strings.NewReader(`{"request_id":"boot","subscribers":20}`))
			convey.So(err, convey.ShouldBeNil)
			_ = resp.Body.Close()
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusAccepted)

			cancel()
			var runErr error
			select {
			case runErr = <-done:
			case <-time.After(10 * time.Second):
				runErr = context.DeadlineExceeded
			}

			convey.Convey("Then it shuts down cleanly after draining the round", func() {
				convey.So(runErr, convey.ShouldBeNil)
				convey.So(logs.String(), convey.ShouldContainSubstring, `"msg":"server stopped"`)
			})
		})
	})
}
