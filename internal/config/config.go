// Package config defines process configuration and how it is loaded.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/cesarion161/clawgic/internal/domain/engine"
)

var validate = validator.New()

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// QueueSize bounds the pending round requests.
	QueueSize int `koanf:"queue_size" validate:"gte=1"`
	// DedupeSize bounds the remembered request ids; 0 keeps every id.
	DedupeSize int `koanf:"dedupe_size" validate:"gte=0"`
	// MaxLeaderboardLimit caps the limit query parameter.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit" validate:"gte=1"`

	// RoundsPerSecond and RoundsBurst rate-limit POST /rounds.
	RoundsPerSecond float64 `koanf:"rounds_per_second" validate:"gt=0"`
	RoundsBurst     int     `koanf:"rounds_burst" validate:"gte=1"`

	RandomSeed            int64   `koanf:"random_seed"`
	DemandGateK           float64 `koanf:"demand_gate_k" validate:"gte=0"`
	GoldenSetPercentage   float64 `koanf:"golden_set_percentage" validate:"gte=0,lte=1"`
	AuditPairPercentage   float64 `koanf:"audit_pair_percentage" validate:"gte=0,lte=1"`
	BaseK                 float64 `koanf:"base_k" validate:"gt=0"`
	Alpha                 float64 `koanf:"alpha" validate:"gte=0,lte=1"`
	PairsPerCurator       int     `koanf:"pairs_per_curator" validate:"gte=1"`
	MinorityLossRate      float64 `koanf:"minority_loss_rate" validate:"gte=0,lte=1"`
	SuspensionRounds      int     `koanf:"suspension_rounds" validate:"gte=0"`
	NoRevealFlagThreshold float64 `koanf:"no_reveal_flag_threshold" validate:"gte=0,lte=1"`

	// InitialPoolBalance is deposited as subscription revenue at startup.
	InitialPoolBalance float64 `koanf:"initial_pool_balance" validate:"gte=0"`

	// VoterAccuracy and VoterNoRevealRate drive the simulated curators.
	VoterAccuracy     float64 `koanf:"voter_accuracy" validate:"gte=0,lte=1"`
	VoterNoRevealRate float64 `koanf:"voter_no_reveal_rate" validate:"gte=0,lte=1"`

	// Seed* populate the registries at startup.
	SeedCurators    int     `koanf:"seed_curators" validate:"gte=0"`
	SeedPosts       int     `koanf:"seed_posts" validate:"gte=0"`
	SeedStake       float64 `koanf:"seed_stake" validate:"gte=0"`
	SeedGoldenPairs int     `koanf:"seed_golden_pairs" validate:"gte=0"`
}

// New creates a Config populated with defaults.
func New() *Config {
	ec := engine.DefaultConfig()
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           64,
		DedupeSize:          10_000,
		MaxLeaderboardLimit: 100,
		RoundsPerSecond:     5,
		RoundsBurst:         10,

		RandomSeed:            ec.RandomSeed,
		DemandGateK:           ec.DemandGateK,
		GoldenSetPercentage:   ec.GoldenSetPercentage,
		AuditPairPercentage:   ec.AuditPairPercentage,
		BaseK:                 ec.BaseK,
		Alpha:                 ec.Alpha,
		PairsPerCurator:       ec.PairsPerCurator,
		MinorityLossRate:      ec.MinorityLossRate,
		SuspensionRounds:      ec.SuspensionRounds,
		NoRevealFlagThreshold: ec.NoRevealFlagThreshold,

		InitialPoolBalance: 10_000,
		VoterAccuracy:      0.80,
		VoterNoRevealRate:  0.05,

		SeedCurators:    20,
		SeedPosts:       40,
		SeedStake:       1000,
		SeedGoldenPairs: 4,
	}
}

// EngineConfig projects the simulation settings.
func (c *Config) EngineConfig() engine.Config {
	return engine.Config{
		RandomSeed:            c.RandomSeed,
		DemandGateK:           c.DemandGateK,
		GoldenSetPercentage:   c.GoldenSetPercentage,
		AuditPairPercentage:   c.AuditPairPercentage,
		BaseK:                 c.BaseK,
		Alpha:                 c.Alpha,
		PairsPerCurator:       c.PairsPerCurator,
		MinorityLossRate:      c.MinorityLossRate,
		SuspensionRounds:      c.SuspensionRounds,
		NoRevealFlagThreshold: c.NoRevealFlagThreshold,
	}
}

// Validate checks every field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
