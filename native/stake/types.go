package stake

import (
	"math/big"
)

// SecondsPerDay is the fixed reward accrual granularity. Rewards are credited
// per whole elapsed day regardless of the staking period tier.
const SecondsPerDay uint64 = 24 * 60 * 60

// ForfeitPolicy selects how unclaimed rewards are treated on early withdrawal.
type ForfeitPolicy string

const (
	// ForfeitPartial pays out all completed accrual periods and forfeits only
	// the current incomplete one.
	ForfeitPartial ForfeitPolicy = "forfeit-partial"
	// ForfeitAll forfeits every unclaimed reward on early withdrawal.
	ForfeitAll ForfeitPolicy = "forfeit-all"
)

// Position captures a single account's staking record. Timestamps are unix
// seconds. A zero ActiveUntil means the account holds no stake.
type Position struct {
	// Amount is the staked quantity of the staking token in base units.
	Amount *big.Int
	// StartedAt records when the current staking window began.
	StartedAt uint64
	// PeriodDays is the chosen staking duration tier.
	PeriodDays uint64
	// ActiveUntil is derived as StartedAt + PeriodDays in seconds and is
	// recomputed on every write.
	ActiveUntil uint64
	// LastRewardClaimAt is the timestamp of the last reward settlement. Zero
	// means no claim has happened since the position opened.
	LastRewardClaimAt uint64
}

// Copy returns a deep copy to avoid callers mutating shared pointers.
func (p *Position) Copy() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	}
	return &clone
}

// Active reports whether the staking window is still open at the provided time.
func (p *Position) Active(now uint64) bool {
	return p != nil && p.ActiveUntil != 0 && now < p.ActiveUntil
}

// normalize fills nil amounts and re-derives ActiveUntil from the window
// fields so stored records always satisfy the derivation invariant.
func (p *Position) normalize() {
	if p.Amount == nil {
		p.Amount = big.NewInt(0)
	}
	p.ActiveUntil = p.StartedAt + p.PeriodDays*SecondsPerDay
}

// Params groups the governance-style knobs for the staking module.
type Params struct {
	// PeriodDays is the allow-listed set of staking duration tiers.
	PeriodDays []uint64
	// RewardRateBps is the per-accrual-period reward rate applied to the
	// staked amount, expressed in basis points.
	RewardRateBps uint64
	// AccrualSeconds is the reward accrual granularity. Defaults to one day.
	AccrualSeconds uint64
	// Forfeit selects the early withdrawal reward policy.
	Forfeit ForfeitPolicy
}

// DefaultParams returns the standard 30/60/90 day tiers with a one-day accrual
// granularity.
func DefaultParams() Params {
	return Params{
		PeriodDays:     []uint64{30, 60, 90},
		RewardRateBps:  10,
		AccrualSeconds: SecondsPerDay,
		Forfeit:        ForfeitPartial,
	}
}

// PeriodAllowed reports whether the provided tier is in the allow-list.
func (p Params) PeriodAllowed(days uint64) bool {
	for _, allowed := range p.PeriodDays {
		if allowed == days {
			return true
		}
	}
	return false
}

func (p Params) accrualSeconds() uint64 {
	if p.AccrualSeconds == 0 {
		return SecondsPerDay
	}
	return p.AccrualSeconds
}
