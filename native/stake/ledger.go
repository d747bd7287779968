package stake

import (
	"math/big"

	"stakevault/crypto"
)

// Store abstracts the subset of state manager functionality required by the
// staking ledger and engine.
type Store interface {
	GetPosition(addr crypto.Address) (*Position, bool, error)
	PutPosition(addr crypto.Address, pos *Position) error
	DeletePosition(addr crypto.Address) error
	ListPositions() ([]*Position, error)
	GetTotalStaked() (*big.Int, error)
	PutTotalStaked(total *big.Int) error
	GetRewardPool() (*big.Int, error)
	PutRewardPool(balance *big.Int) error
}

// Ledger is the canonical owner of all stake positions and the totalStaked
// aggregate. Every mutating call keeps the aggregate in sync with the position
// it writes and re-asserts the conservation invariant before returning, so a
// violation can only mean corrupted state.
type Ledger struct {
	store Store
}

// NewLedger constructs a ledger bound to the provided store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Get returns a copy of the account's position. The boolean reports whether a
// position exists.
func (l *Ledger) Get(addr crypto.Address) (*Position, bool, error) {
	pos, ok, err := l.store.GetPosition(addr)
	if err != nil || !ok {
		return nil, false, err
	}
	pos.normalize()
	return pos, true, nil
}

// Upsert writes the account's position and adjusts totalStaked by the amount
// delta against the previously stored record. ActiveUntil is re-derived before
// the write.
func (l *Ledger) Upsert(addr crypto.Address, pos *Position) error {
	if pos == nil {
		return ErrInvariantViolation
	}
	stored := pos.Copy()
	stored.normalize()

	prev, ok, err := l.store.GetPosition(addr)
	if err != nil {
		return err
	}
	delta := new(big.Int).Set(stored.Amount)
	if ok && prev.Amount != nil {
		delta.Sub(delta, prev.Amount)
	}

	if err := l.store.PutPosition(addr, stored); err != nil {
		return err
	}
	if err := l.adjustTotal(delta); err != nil {
		return err
	}
	return l.checkConservation()
}

// Clear removes the account's position and reduces totalStaked by its amount.
// Clearing an absent position is a no-op.
func (l *Ledger) Clear(addr crypto.Address) error {
	prev, ok, err := l.store.GetPosition(addr)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	if err := l.store.DeletePosition(addr); err != nil {
		return err
	}
	delta := big.NewInt(0)
	if prev.Amount != nil {
		delta.Neg(prev.Amount)
	}
	if err := l.adjustTotal(delta); err != nil {
		return err
	}
	return l.checkConservation()
}

// TotalStaked returns the aggregate staked amount across all positions.
func (l *Ledger) TotalStaked() (*big.Int, error) {
	total, err := l.store.GetTotalStaked()
	if err != nil {
		return nil, err
	}
	if total == nil {
		return big.NewInt(0), nil
	}
	return total, nil
}

func (l *Ledger) adjustTotal(delta *big.Int) error {
	if delta == nil || delta.Sign() == 0 {
		return nil
	}
	total, err := l.TotalStaked()
	if err != nil {
		return err
	}
	next := new(big.Int).Add(total, delta)
	if next.Sign() < 0 {
		return ErrInvariantViolation
	}
	return l.store.PutTotalStaked(next)
}

// checkConservation asserts totalStaked equals the sum over all positions.
func (l *Ledger) checkConservation() error {
	positions, err := l.store.ListPositions()
	if err != nil {
		return err
	}
	sum := big.NewInt(0)
	for _, pos := range positions {
		if pos == nil || pos.Amount == nil {
			continue
		}
		sum.Add(sum, pos.Amount)
	}
	total, err := l.TotalStaked()
	if err != nil {
		return err
	}
	if sum.Cmp(total) != 0 {
		return ErrInvariantViolation
	}
	return nil
}
