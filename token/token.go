// Package token defines the fungible token surface consumed by the staking
// engine and a book-entry implementation backed by the state manager.
package token

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"stakevault/crypto"
)

var (
	errInvalidAmount = errors.New("token: amount must be positive")
	errEmptySymbol   = errors.New("token: symbol required")
)

// Token is the fungible token transfer interface. Transfer reports success
// through its boolean result; a false return must be treated identically to an
// error by callers.
type Token interface {
	Transfer(from, to crypto.Address, amount *big.Int) (bool, error)
	Mint(to crypto.Address, amount *big.Int) error
	Burn(from crypto.Address, amount *big.Int) error
	BalanceOf(addr crypto.Address) (*big.Int, error)
}

// Backend abstracts the balance persistence required by the ledger token.
type Backend interface {
	TokenBalance(symbol string, addr crypto.Address) (*big.Int, error)
	SetTokenBalance(symbol string, addr crypto.Address, balance *big.Int) error
	TokenSupply(symbol string) (*big.Int, error)
	SetTokenSupply(symbol string, supply *big.Int) error
}

// LedgerToken is an in-process book-entry token. Balances live in the state
// store under the token's symbol.
type LedgerToken struct {
	backend Backend
	symbol  string
}

// NewLedgerToken constructs a token over the provided backend.
func NewLedgerToken(backend Backend, symbol string) (*LedgerToken, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, errEmptySymbol
	}
	return &LedgerToken{backend: backend, symbol: symbol}, nil
}

// Symbol returns the token denomination.
func (t *LedgerToken) Symbol() string { return t.symbol }

// BalanceOf returns the holder's current balance.
func (t *LedgerToken) BalanceOf(addr crypto.Address) (*big.Int, error) {
	balance, err := t.backend.TokenBalance(t.symbol, addr)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		return big.NewInt(0), nil
	}
	return balance, nil
}

// Transfer moves amount from one holder to another. An insufficient balance
// yields (false, nil) so callers can treat it like a failed external transfer.
func (t *LedgerToken) Transfer(from, to crypto.Address, amount *big.Int) (bool, error) {
	if amount == nil || amount.Sign() <= 0 {
		return false, errInvalidAmount
	}
	fromBalance, err := t.BalanceOf(from)
	if err != nil {
		return false, err
	}
	if fromBalance.Cmp(amount) < 0 {
		return false, nil
	}
	toBalance, err := t.BalanceOf(to)
	if err != nil {
		return false, err
	}
	if err := t.backend.SetTokenBalance(t.symbol, from, new(big.Int).Sub(fromBalance, amount)); err != nil {
		return false, err
	}
	if err := t.backend.SetTokenBalance(t.symbol, to, new(big.Int).Add(toBalance, amount)); err != nil {
		return false, err
	}
	return true, nil
}

// Mint credits newly issued tokens to the recipient.
func (t *LedgerToken) Mint(to crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance, err := t.BalanceOf(to)
	if err != nil {
		return err
	}
	supply, err := t.supply()
	if err != nil {
		return err
	}
	if err := t.backend.SetTokenBalance(t.symbol, to, new(big.Int).Add(balance, amount)); err != nil {
		return err
	}
	return t.backend.SetTokenSupply(t.symbol, new(big.Int).Add(supply, amount))
}

// Burn destroys tokens held by the provided account.
func (t *LedgerToken) Burn(from crypto.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errInvalidAmount
	}
	balance, err := t.BalanceOf(from)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return fmt.Errorf("token: burn exceeds balance of %s", t.symbol)
	}
	supply, err := t.supply()
	if err != nil {
		return err
	}
	if err := t.backend.SetTokenBalance(t.symbol, from, new(big.Int).Sub(balance, amount)); err != nil {
		return err
	}
	next := new(big.Int).Sub(supply, amount)
	if next.Sign() < 0 {
		next = big.NewInt(0)
	}
	return t.backend.SetTokenSupply(t.symbol, next)
}

func (t *LedgerToken) supply() (*big.Int, error) {
	supply, err := t.backend.TokenSupply(t.symbol)
	if err != nil {
		return nil, err
	}
	if supply == nil {
		return big.NewInt(0), nil
	}
	return supply, nil
}
