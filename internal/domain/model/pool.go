package model

import (
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultAlpha is the share of the pool paid out as flat per-pair base rewards.
const DefaultAlpha = 0.30

// PoolSnapshot is a point-in-time copy of the pool ledger.
type PoolSnapshot struct {
	Balance        float64 `json:"balance"`
	Alpha          float64 `json:"alpha"`
	Subscriptions  float64 `json:"subscriptions"`
	Slashing       float64 `json:"slashing"`
	MinorityLosses float64 `json:"minority_losses"`
	Withdrawals    float64 `json:"withdrawals"`
}

// GlobalPool is the shared reward pool. Every deposit raises the balance and
// its source counter; withdrawals are checked before the balance moves, so
// balance == subscriptions + slashing + minority losses - withdrawals >= 0.
//
// Amounts are kept as decimals internally so the ledger identity holds exactly.
type GlobalPool struct {
	mu sync.Mutex

	alpha          decimal.Decimal
	balance        decimal.Decimal
	subscriptions  decimal.Decimal
	slashing       decimal.Decimal
	minorityLosses decimal.Decimal
	withdrawals    decimal.Decimal
}

// NewGlobalPool returns an empty pool. Alpha must lie in [0, 1].
func NewGlobalPool(alpha float64) (*GlobalPool, error) {
	p := &GlobalPool{}
	if err := p.SetAlpha(alpha); err != nil {
		return nil, err
	}
	return p, nil
}

// SetAlpha changes the base/premium split.
func (p *GlobalPool) SetAlpha(alpha float64) error {
	if math.IsNaN(alpha) || alpha < 0 || alpha > 1 {
		return fmt.Errorf("%w: alpha %v outside [0,1]", ErrConfiguration, alpha)
	}
	p.mu.Lock()
	p.alpha = decimal.NewFromFloat(alpha)
	p.mu.Unlock()
	return nil
}

// AddSubscription deposits subscription revenue.
func (p *GlobalPool) AddSubscription(amount float64) error {
	return p.deposit(amount, &p.subscriptions)
}

// AddSlashing deposits stake forfeited by slashed curators.
func (p *GlobalPool) AddSlashing(amount float64) error {
	return p.deposit(amount, &p.slashing)
}

// AddMinorityLoss deposits stake lost by minority voters.
func (p *GlobalPool) AddMinorityLoss(amount float64) error {
	return p.deposit(amount, &p.minorityLosses)
}

func (p *GlobalPool) deposit(amount float64, counter *decimal.Decimal) error {
	d, err := toAmount(amount)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balance = p.balance.Add(d)
	*counter = counter.Add(d)
	return nil
}

// Withdraw removes amount from the balance. It fails with ErrInsufficientBalance,
// leaving the pool untouched, when amount exceeds the balance.
func (p *GlobalPool) Withdraw(amount float64) error {
	d, err := toAmount(amount)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if d.GreaterThan(p.balance) {
		return fmt.Errorf("%w: balance %s < %s", ErrInsufficientBalance, p.balance.String(), d.String())
	}
	p.balance = p.balance.Sub(d)
	p.withdrawals = p.withdrawals.Add(d)
	return nil
}

// CalculateBaseReward returns balance * alpha / totalPairs, or 0 without pairs.
func (p *GlobalPool) CalculateBaseReward(totalPairs int) float64 {
	if totalPairs <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance.Mul(p.alpha).Div(decimal.NewFromInt(int64(totalPairs))).InexactFloat64()
}

// CalculatePremiumReward returns balance * (1 - alpha) * marketShare.
func (p *GlobalPool) CalculatePremiumReward(marketShare float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance.Mul(decimal.NewFromInt(1).Sub(p.alpha)).Mul(decimal.NewFromFloat(marketShare)).InexactFloat64()
}

// Balance returns the current balance.
func (p *GlobalPool) Balance() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.balance.InexactFloat64()
}

// Alpha returns the base/premium split.
func (p *GlobalPool) Alpha() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alpha.InexactFloat64()
}

// Snapshot copies the ledger.
func (p *GlobalPool) Snapshot() PoolSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolSnapshot{
		Balance:        p.balance.InexactFloat64(),
		Alpha:          p.alpha.InexactFloat64(),
		Subscriptions:  p.subscriptions.InexactFloat64(),
		Slashing:       p.slashing.InexactFloat64(),
		MinorityLosses: p.minorityLosses.InexactFloat64(),
		Withdrawals:    p.withdrawals.InexactFloat64(),
	}
}

// Reconciled reports whether the balance equals deposits minus withdrawals exactly.
func (p *GlobalPool) Reconciled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	expected := p.subscriptions.Add(p.slashing).Add(p.minorityLosses).Sub(p.withdrawals)
	return expected.Equal(p.balance) && !p.balance.IsNegative()
}

func toAmount(amount float64) (decimal.Decimal, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return decimal.Zero, fmt.Errorf("%w: amount %v must be a finite non-negative number", ErrConfiguration, amount)
	}
	return decimal.NewFromFloat(amount), nil
}
