package stake_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/crypto"
	"stakevault/native/stake"
	"stakevault/state"
	"stakevault/storage"
)

func testAddr(t *testing.T, last byte) crypto.Address {
	t.Helper()
	raw := make([]byte, crypto.AddressLength)
	raw[crypto.AddressLength-1] = last
	return crypto.MustNewAddress(crypto.StakePrefix, raw)
}

func newTestStore(t *testing.T) *state.Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return state.NewManager(db)
}

func TestLedgerUpsertTracksTotal(t *testing.T) {
	mgr := newTestStore(t)
	ledger := stake.NewLedger(mgr)
	alice := testAddr(t, 0x01)
	bob := testAddr(t, 0x02)

	require.NoError(t, ledger.Upsert(alice, &stake.Position{Amount: big.NewInt(1000), StartedAt: 100, PeriodDays: 30}))
	require.NoError(t, ledger.Upsert(bob, &stake.Position{Amount: big.NewInt(250), StartedAt: 100, PeriodDays: 60}))

	total, err := ledger.TotalStaked()
	require.NoError(t, err)
	require.Zero(t, total.Cmp(big.NewInt(1250)))

	// Updating in place adjusts by the delta, not the full amount.
	require.NoError(t, ledger.Upsert(alice, &stake.Position{Amount: big.NewInt(1600), StartedAt: 100, PeriodDays: 30}))
	total, err = ledger.TotalStaked()
	require.NoError(t, err)
	require.Zero(t, total.Cmp(big.NewInt(1850)))
}

func TestLedgerDerivesActiveUntil(t *testing.T) {
	mgr := newTestStore(t)
	ledger := stake.NewLedger(mgr)
	alice := testAddr(t, 0x01)

	// A bogus ActiveUntil is overwritten on every write.
	require.NoError(t, ledger.Upsert(alice, &stake.Position{
		Amount:      big.NewInt(10),
		StartedAt:   1_000,
		PeriodDays:  30,
		ActiveUntil: 5,
	}))

	pos, ok, err := ledger.Get(alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(1_000+30*stake.SecondsPerDay), pos.ActiveUntil)
}

func TestLedgerClear(t *testing.T) {
	mgr := newTestStore(t)
	ledger := stake.NewLedger(mgr)
	alice := testAddr(t, 0x01)

	require.NoError(t, ledger.Upsert(alice, &stake.Position{Amount: big.NewInt(1000), StartedAt: 0, PeriodDays: 30}))
	require.NoError(t, ledger.Clear(alice))

	_, ok, err := ledger.Get(alice)
	require.NoError(t, err)
	require.False(t, ok)

	total, err := ledger.TotalStaked()
	require.NoError(t, err)
	require.Zero(t, total.Sign())

	// Clearing again is a no-op.
	require.NoError(t, ledger.Clear(alice))
}

func TestLedgerDetectsCorruptedTotal(t *testing.T) {
	mgr := newTestStore(t)
	ledger := stake.NewLedger(mgr)
	alice := testAddr(t, 0x01)

	require.NoError(t, ledger.Upsert(alice, &stake.Position{Amount: big.NewInt(1000), StartedAt: 0, PeriodDays: 30}))

	// Corrupt the aggregate behind the ledger's back.
	require.NoError(t, mgr.PutTotalStaked(big.NewInt(999)))

	err := ledger.Upsert(alice, &stake.Position{Amount: big.NewInt(1000), StartedAt: 0, PeriodDays: 30})
	require.ErrorIs(t, err, stake.ErrInvariantViolation)
}
