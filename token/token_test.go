package token_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"stakevault/crypto"
	"stakevault/state"
	"stakevault/storage"
	"stakevault/token"
)

func addr(last byte) crypto.Address {
	raw := make([]byte, crypto.AddressLength)
	raw[crypto.AddressLength-1] = last
	return crypto.MustNewAddress(crypto.StakePrefix, raw)
}

func newToken(t *testing.T) *token.LedgerToken {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	tok, err := token.NewLedgerToken(state.NewManager(db), "VLT")
	require.NoError(t, err)
	return tok
}

func TestNewLedgerTokenRequiresSymbol(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	_, err := token.NewLedgerToken(state.NewManager(db), "  ")
	require.Error(t, err)
}

func TestMintAndTransfer(t *testing.T) {
	tok := newToken(t)
	alice, bob := addr(0x01), addr(0x02)

	require.NoError(t, tok.Mint(alice, big.NewInt(1000)))

	ok, err := tok.Transfer(alice, bob, big.NewInt(400))
	require.NoError(t, err)
	require.True(t, ok)

	aliceBalance, err := tok.BalanceOf(alice)
	require.NoError(t, err)
	require.Zero(t, aliceBalance.Cmp(big.NewInt(600)))
	bobBalance, err := tok.BalanceOf(bob)
	require.NoError(t, err)
	require.Zero(t, bobBalance.Cmp(big.NewInt(400)))
}

func TestTransferInsufficientBalanceReturnsFalse(t *testing.T) {
	tok := newToken(t)
	alice, bob := addr(0x01), addr(0x02)
	require.NoError(t, tok.Mint(alice, big.NewInt(100)))

	ok, err := tok.Transfer(alice, bob, big.NewInt(101))
	require.NoError(t, err)
	require.False(t, ok)

	// Balances untouched on a refused transfer.
	aliceBalance, err := tok.BalanceOf(alice)
	require.NoError(t, err)
	require.Zero(t, aliceBalance.Cmp(big.NewInt(100)))
}

func TestTransferRejectsNonPositiveAmount(t *testing.T) {
	tok := newToken(t)
	_, err := tok.Transfer(addr(0x01), addr(0x02), big.NewInt(0))
	require.Error(t, err)
	_, err = tok.Transfer(addr(0x01), addr(0x02), nil)
	require.Error(t, err)
}

func TestBurn(t *testing.T) {
	tok := newToken(t)
	alice := addr(0x01)
	require.NoError(t, tok.Mint(alice, big.NewInt(500)))
	require.NoError(t, tok.Burn(alice, big.NewInt(200)))

	balance, err := tok.BalanceOf(alice)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(300)))

	require.Error(t, tok.Burn(alice, big.NewInt(301)))
}
