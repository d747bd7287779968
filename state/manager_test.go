package state_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/crypto"
	"stakevault/native/stake"
	"stakevault/state"
	"stakevault/storage"
)

func addr(last byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[crypto.AddressLength-1] = last
	return crypto.MustNewAddress(crypto.StakePrefix, raw)
}

func newManager(t *testing.T) *state.Manager {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return state.NewManager(db)
}

func TestPositionRoundTrip(t *testing.T) {
	mgr := newManager(t)
	alice := addr(0x01)

	_, ok, err := mgr.GetPosition(alice)
	require.NoError(t, err)
	require.False(t, ok)

	pos := &stake.Position{
		Amount:            big.NewInt(1234),
		StartedAt:         1_700_000_000,
		PeriodDays:        60,
		ActiveUntil:       1_700_000_000 + 60*stake.SecondsPerDay,
		LastRewardClaimAt: 1_700_100_000,
	}
	require.NoError(t, mgr.PutPosition(alice, pos))

	loaded, ok, err := mgr.GetPosition(alice)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, loaded.Amount.Cmp(pos.Amount))
	require.Equal(t, pos.StartedAt, loaded.StartedAt)
	require.Equal(t, pos.PeriodDays, loaded.PeriodDays)
	require.Equal(t, pos.ActiveUntil, loaded.ActiveUntil)
	require.Equal(t, pos.LastRewardClaimAt, loaded.LastRewardClaimAt)

	// The stored record is a copy, not an alias.
	pos.Amount.SetInt64(9)
	loaded, _, err = mgr.GetPosition(alice)
	require.NoError(t, err)
	require.Zero(t, loaded.Amount.Cmp(big.NewInt(1234)))
}

func TestListPositionsTracksIndex(t *testing.T) {
	mgr := newManager(t)
	alice, bob := addr(0x01), addr(0x02)

	require.NoError(t, mgr.PutPosition(alice, &stake.Position{Amount: big.NewInt(1)}))
	require.NoError(t, mgr.PutPosition(bob, &stake.Position{Amount: big.NewInt(2)}))
	// Re-writing must not duplicate the index entry.
	require.NoError(t, mgr.PutPosition(alice, &stake.Position{Amount: big.NewInt(3)}))

	positions, err := mgr.ListPositions()
	require.NoError(t, err)
	require.Len(t, positions, 2)

	require.NoError(t, mgr.DeletePosition(alice))
	positions, err = mgr.ListPositions()
	require.NoError(t, err)
	require.Len(t, positions, 1)
	require.Zero(t, positions[0].Amount.Cmp(big.NewInt(2)))
}

func TestAggregatesDefaultToZero(t *testing.T) {
	mgr := newManager(t)

	total, err := mgr.GetTotalStaked()
	require.NoError(t, err)
	require.Zero(t, total.Sign())

	pool, err := mgr.GetRewardPool()
	require.NoError(t, err)
	require.Zero(t, pool.Sign())

	require.NoError(t, mgr.PutTotalStaked(big.NewInt(42)))
	total, err = mgr.GetTotalStaked()
	require.NoError(t, err)
	require.Zero(t, total.Cmp(big.NewInt(42)))
}

func TestTokenBalances(t *testing.T) {
	mgr := newManager(t)
	alice := addr(0x01)

	balance, err := mgr.TokenBalance("VLT", alice)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	require.NoError(t, mgr.SetTokenBalance("VLT", alice, big.NewInt(777)))
	require.NoError(t, mgr.SetTokenSupply("VLT", big.NewInt(777)))

	balance, err = mgr.TokenBalance("VLT", alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(777)))

	// A different denomination is isolated.
	other, err := mgr.TokenBalance("RWD", alice)
	require.NoError(t, err)
	require.Zero(t, other.Sign())

	supply, err := mgr.TokenSupply("VLT")
	require.NoError(t, err)
	require.Zero(t, supply.Cmp(big.NewInt(777)))
}
