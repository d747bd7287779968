package stake_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"stakevault/native/stake"
)

type scriptedOracle struct {
	out      *big.Int
	quotedAt time.Time
	err      error
	calls    int
}

func (o *scriptedOracle) QuoteAmountOut(base, quote string, amountIn *big.Int) (stake.Quote, error) {
	o.calls++
	return stake.Quote{AmountOut: o.out, Timestamp: o.quotedAt}, o.err
}

func TestPoolOracleFundAndDebit(t *testing.T) {
	mgr := newTestStore(t)
	oracle := stake.NewPoolOracle(mgr, stake.NewStaticOracle(1, 1), "VLT", "RWD")

	require.ErrorIs(t, oracle.Fund(big.NewInt(0)), stake.ErrZeroAmount)
	require.ErrorIs(t, oracle.Fund(nil), stake.ErrZeroAmount)

	require.NoError(t, oracle.Fund(big.NewInt(5000)))
	balance, err := oracle.Balance()
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(5000)))

	require.NoError(t, oracle.Debit(big.NewInt(1500)))
	balance, err = oracle.Balance()
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(3500)))

	require.ErrorIs(t, oracle.Debit(big.NewInt(4000)), stake.ErrInsufficientRewardPool)
}

func TestPoolOraclePriceRejectsZeroQuote(t *testing.T) {
	mgr := newTestStore(t)
	quotes := &scriptedOracle{out: big.NewInt(0)}
	oracle := stake.NewPoolOracle(mgr, quotes, "VLT", "RWD")
	require.NoError(t, oracle.Fund(big.NewInt(1000)))

	_, err := oracle.Price(big.NewInt(100))
	require.ErrorIs(t, err, stake.ErrInvalidQuote)
	require.Equal(t, 1, quotes.calls)
}

func TestPoolOraclePricePropagatesQuoteError(t *testing.T) {
	mgr := newTestStore(t)
	boom := errors.New("feed down")
	oracle := stake.NewPoolOracle(mgr, &scriptedOracle{err: boom}, "VLT", "RWD")

	_, err := oracle.Price(big.NewInt(100))
	require.ErrorIs(t, err, boom)
}

func TestPoolOraclePriceFailsOverPool(t *testing.T) {
	mgr := newTestStore(t)
	oracle := stake.NewPoolOracle(mgr, stake.NewStaticOracle(2, 1), "VLT", "RWD")
	require.NoError(t, oracle.Fund(big.NewInt(100)))

	// 100 notional at 2x is 200, over the 100 pool: explicit failure, no cap.
	_, err := oracle.Price(big.NewInt(100))
	require.ErrorIs(t, err, stake.ErrInsufficientRewardPool)

	// Within the pool the full quote is returned.
	payout, err := oracle.Price(big.NewInt(50))
	require.NoError(t, err)
	require.Zero(t, payout.Cmp(big.NewInt(100)))
}

func TestPoolOraclePriceQuoteFreshness(t *testing.T) {
	mgr := newTestStore(t)
	quotes := &scriptedOracle{out: big.NewInt(100)}
	oracle := stake.NewPoolOracle(mgr, quotes, "VLT", "RWD")
	require.NoError(t, oracle.Fund(big.NewInt(1000)))
	oracle.SetMaxQuoteAge(time.Minute)

	// Zero-timestamped quotes are rejected once a freshness window is set.
	_, err := oracle.Price(big.NewInt(50))
	require.ErrorIs(t, err, stake.ErrStaleQuote)

	quotes.quotedAt = time.Now().Add(-2 * time.Minute)
	_, err = oracle.Price(big.NewInt(50))
	require.ErrorIs(t, err, stake.ErrStaleQuote)

	quotes.quotedAt = time.Now()
	payout, err := oracle.Price(big.NewInt(50))
	require.NoError(t, err)
	require.Zero(t, payout.Cmp(big.NewInt(100)))

	// Disabling the window accepts old quotes again.
	oracle.SetMaxQuoteAge(0)
	quotes.quotedAt = time.Time{}
	_, err = oracle.Price(big.NewInt(50))
	require.NoError(t, err)
}

func TestPoolOraclePriceZeroNotional(t *testing.T) {
	mgr := newTestStore(t)
	quotes := &scriptedOracle{out: big.NewInt(1)}
	oracle := stake.NewPoolOracle(mgr, quotes, "VLT", "RWD")

	payout, err := oracle.Price(big.NewInt(0))
	require.NoError(t, err)
	require.Zero(t, payout.Sign())
	require.Zero(t, quotes.calls, "zero notional must not consult the feed")
}
