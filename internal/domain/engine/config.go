package engine

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/cesarion161/clawgic/internal/domain/model"
)

var validate = validator.New()

// Config tunes one simulation.
type Config struct {
	// RandomSeed seeds the single generator used for pairing and votes.
	RandomSeed int64
	// DemandGateK caps the pair count at floor(subscribers * DemandGateK).
	DemandGateK         float64 `validate:"gte=0"`
	GoldenSetPercentage float64 `validate:"gte=0,lte=1"`
	AuditPairPercentage float64 `validate:"gte=0,lte=1"`
	BaseK               float64 `validate:"gt=0"`
	Alpha               float64 `validate:"gte=0,lte=1"`
	// PairsPerCurator caps the pair count at activeCurators * PairsPerCurator.
	PairsPerCurator  int     `validate:"gte=1"`
	MinorityLossRate float64 `validate:"gte=0,lte=1"`
	// SuspensionRounds is how many rounds a suspension lasts; 0 means until Reinstate.
	SuspensionRounds      int     `validate:"gte=0"`
	NoRevealFlagThreshold float64 `validate:"gte=0,lte=1"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		RandomSeed:            42,
		DemandGateK:           1.5,
		GoldenSetPercentage:   0.10,
		AuditPairPercentage:   0.05,
		BaseK:                 32,
		Alpha:                 model.DefaultAlpha,
		PairsPerCurator:       5,
		MinorityLossRate:      0.01,
		SuspensionRounds:      3,
		NoRevealFlagThreshold: 0.5,
	}
}

// Validate checks every field range.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", model.ErrConfiguration, err)
	}
	return nil
}
