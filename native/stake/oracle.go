package stake

import (
	"math/big"
	"strings"
	"time"
)

// Quote is a priced conversion result together with the moment the feed
// observed the underlying rate.
type Quote struct {
	AmountOut *big.Int
	Timestamp time.Time
}

// PriceOracle resolves the output amount received when converting amountIn of
// the base token into the quote token. Implementations are treated as
// untrusted input: callers validate every returned magnitude and timestamp.
type PriceOracle interface {
	QuoteAmountOut(base, quote string, amountIn *big.Int) (Quote, error)
}

// StaticOracle quotes a fixed rational rate. It backs deployments without an
// external feed and deterministic tests. Its quotes are always stamped with
// the current time.
type StaticOracle struct {
	num *big.Int
	den *big.Int
}

// NewStaticOracle constructs a fixed-rate oracle. A non-positive denominator
// falls back to identity pricing.
func NewStaticOracle(num, den int64) *StaticOracle {
	if den <= 0 {
		num, den = 1, 1
	}
	return &StaticOracle{num: big.NewInt(num), den: big.NewInt(den)}
}

// QuoteAmountOut converts the input amount at the configured rate.
func (o *StaticOracle) QuoteAmountOut(base, quote string, amountIn *big.Int) (Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Quote{AmountOut: big.NewInt(0), Timestamp: time.Now()}, nil
	}
	out := new(big.Int).Mul(amountIn, o.num)
	out.Quo(out, o.den)
	return Quote{AmountOut: out, Timestamp: time.Now()}, nil
}

// PoolOracle prices accrued rewards against the reward token and tracks the
// reward pool funding balance. Quotes are fetched at most once per settlement
// and never cached across calls.
//
// Payouts that would exceed the pool fail explicitly with
// ErrInsufficientRewardPool. The pool is never silently capped: a short pool
// is an operator problem that must surface, not be absorbed into payouts.
type PoolOracle struct {
	store        Store
	quotes       PriceOracle
	stakingDenom string
	rewardDenom  string
	maxQuoteAge  time.Duration
	nowFunc      func() time.Time
}

// NewPoolOracle constructs the oracle over the provided store and quote
// source. Denominations identify the pair passed to the quote source.
func NewPoolOracle(store Store, quotes PriceOracle, stakingDenom, rewardDenom string) *PoolOracle {
	return &PoolOracle{
		store:        store,
		quotes:       quotes,
		stakingDenom: strings.TrimSpace(stakingDenom),
		rewardDenom:  strings.TrimSpace(rewardDenom),
		nowFunc:      time.Now,
	}
}

// SetMaxQuoteAge bounds how old a feed quote may be before pricing rejects it
// with ErrStaleQuote. Zero disables the freshness check.
func (o *PoolOracle) SetMaxQuoteAge(maxAge time.Duration) {
	if maxAge >= 0 {
		o.maxQuoteAge = maxAge
	}
}

// SetNowFunc overrides the oracle clock. Intended for tests.
func (o *PoolOracle) SetNowFunc(now func() time.Time) {
	if now != nil {
		o.nowFunc = now
	}
}

// Price converts a staking-token notional reward into the reward-token payout
// and verifies the pool can cover it.
func (o *PoolOracle) Price(notional *big.Int) (*big.Int, error) {
	if notional == nil || notional.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	quote, err := o.quotes.QuoteAmountOut(o.stakingDenom, o.rewardDenom, notional)
	if err != nil {
		return nil, err
	}
	if quote.AmountOut == nil || quote.AmountOut.Sign() <= 0 {
		return nil, ErrInvalidQuote
	}
	if o.maxQuoteAge > 0 {
		if quote.Timestamp.IsZero() || o.nowFunc().Sub(quote.Timestamp) > o.maxQuoteAge {
			return nil, ErrStaleQuote
		}
	}
	balance, err := o.Balance()
	if err != nil {
		return nil, err
	}
	if balance.Cmp(quote.AmountOut) < 0 {
		return nil, ErrInsufficientRewardPool
	}
	return quote.AmountOut, nil
}

// Balance returns the current reward pool balance.
func (o *PoolOracle) Balance() (*big.Int, error) {
	balance, err := o.store.GetRewardPool()
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// Fund increases the reward pool by the provided amount.
func (o *PoolOracle) Fund(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	balance, err := o.Balance()
	if err != nil {
		return err
	}
	return o.store.PutRewardPool(new(big.Int).Add(balance, amount))
}

// Debit reduces the reward pool by a settled payout. The pool must never go
// negative; Price is expected to have verified coverage.
func (o *PoolOracle) Debit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return nil
	}
	balance, err := o.Balance()
	if err != nil {
		return err
	}
	next := new(big.Int).Sub(balance, amount)
	if next.Sign() < 0 {
		return ErrInsufficientRewardPool
	}
	return o.store.PutRewardPool(next)
}
