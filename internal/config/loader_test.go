package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/cesarion161/clawgic/internal/config"
)

func clearConfigEnvVars() {
	for _, key := range []string{
		"CURATION_CONFIG",
		"CURATION_ADDR",
		"CURATION_QUEUE_SIZE",
		"CURATION_ALPHA",
		"CURATION_RANDOM_SEED",
		"CURATION_SUSPENSION_ROUNDS",
		"CURATION_LOG_LEVEL",
	} {
		_ = os.Unsetenv(key)
	}
}

func writeConfigFile(content string) string {
	dir, err := os.MkdirTemp("", "curation-config")
	if err != nil {
		panic(err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		panic(err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New())
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CURATION_ADDR", ":8080")
			_ = os.Setenv("CURATION_QUEUE_SIZE", "8")
			_ = os.Setenv("CURATION_ALPHA", "0.5")
			_ = os.Setenv("CURATION_RANDOM_SEED", "7")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 8)
				convey.So(cfg.Alpha, convey.ShouldEqual, 0.5)
				convey.So(cfg.EngineConfig().RandomSeed, convey.ShouldEqual, 7)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeConfigFile("addr: \":7070\"\nsuspension_rounds: 0\nvoter_accuracy: 0.9\n")
			defer os.RemoveAll(filepath.Dir(path))
			_ = os.Setenv("CURATION_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file and keep other defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.SuspensionRounds, convey.ShouldEqual, 0)
				convey.So(cfg.VoterAccuracy, convey.ShouldEqual, 0.9)
				convey.So(cfg.BaseK, convey.ShouldEqual, 32)
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeConfigFile("addr: \":7070\"\nsuspension_rounds: 5\n")
			defer os.RemoveAll(filepath.Dir(path))
			_ = os.Setenv("CURATION_CONFIG", path)
			_ = os.Setenv("CURATION_SUSPENSION_ROUNDS", "2")

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
				convey.So(cfg.SuspensionRounds, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			path := writeConfigFile("addr: [unterminated\n")
			defer os.RemoveAll(filepath.Dir(path))
			_ = os.Setenv("CURATION_CONFIG", path)

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("CURATION_CONFIG", "/nonexistent/config.yaml")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an environment value is out of range", func() {
			_ = os.Setenv("CURATION_ALPHA", "1.5")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When an environment value is not numeric", func() {
			_ = os.Setenv("CURATION_QUEUE_SIZE", "lots")

			_, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the log level is set with an unknown value", func() {
			_ = os.Setenv("CURATION_LOG_LEVEL", "chatty")

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
