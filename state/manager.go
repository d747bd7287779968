// Package state persists staking records and token balances in a key-value
// store using RLP as the canonical codec.
package state

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"stakevault/crypto"
	"stakevault/native/stake"
	"stakevault/storage"
)

// Manager wraps a storage backend and exposes typed accessors for every
// record the staking module owns.
type Manager struct {
	db storage.Database
}

// NewManager constructs a manager over the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func (m *Manager) get(key []byte, out interface{}) (bool, error) {
	raw, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) put(key []byte, value interface{}) error {
	raw, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.db.Put(key, raw)
}

func (m *Manager) getBig(key []byte) (*big.Int, error) {
	value := new(big.Int)
	ok, err := m.get(key, value)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	return value, nil
}

// --- stake.Store ---

// GetPosition loads the stored position for the account.
func (m *Manager) GetPosition(addr crypto.Address) (*stake.Position, bool, error) {
	pos := new(stake.Position)
	ok, err := m.get(positionKey(addr.Bytes()), pos)
	if err != nil || !ok {
		return nil, false, err
	}
	if pos.Amount == nil {
		pos.Amount = big.NewInt(0)
	}
	return pos, true, nil
}

// PutPosition stores the account's position and registers it in the index.
func (m *Manager) PutPosition(addr crypto.Address, pos *stake.Position) error {
	if pos == nil {
		return errors.New("state: nil position")
	}
	stored := pos.Copy()
	if stored.Amount == nil {
		stored.Amount = big.NewInt(0)
	}
	if err := m.put(positionKey(addr.Bytes()), stored); err != nil {
		return err
	}
	return m.indexAdd(addr.Bytes())
}

// DeletePosition removes the account's position and index entry.
func (m *Manager) DeletePosition(addr crypto.Address) error {
	if err := m.db.Delete(positionKey(addr.Bytes())); err != nil {
		return err
	}
	return m.indexRemove(addr.Bytes())
}

// ListPositions returns every stored position.
func (m *Manager) ListPositions() ([]*stake.Position, error) {
	index, err := m.index()
	if err != nil {
		return nil, err
	}
	positions := make([]*stake.Position, 0, len(index))
	for _, addr := range index {
		pos := new(stake.Position)
		ok, err := m.get(positionKey(addr), pos)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if pos.Amount == nil {
			pos.Amount = big.NewInt(0)
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

// GetTotalStaked returns the staked aggregate.
func (m *Manager) GetTotalStaked() (*big.Int, error) {
	return m.getBig(totalStakedKey)
}

// PutTotalStaked stores the staked aggregate.
func (m *Manager) PutTotalStaked(total *big.Int) error {
	if total == nil {
		total = big.NewInt(0)
	}
	return m.put(totalStakedKey, total)
}

// GetRewardPool returns the reward pool balance.
func (m *Manager) GetRewardPool() (*big.Int, error) {
	return m.getBig(rewardPoolKey)
}

// PutRewardPool stores the reward pool balance.
func (m *Manager) PutRewardPool(balance *big.Int) error {
	if balance == nil {
		balance = big.NewInt(0)
	}
	return m.put(rewardPoolKey, balance)
}

func (m *Manager) index() ([][]byte, error) {
	var index [][]byte
	if _, err := m.get(positionIndexKey, &index); err != nil {
		return nil, err
	}
	return index, nil
}

func (m *Manager) indexAdd(addr []byte) error {
	index, err := m.index()
	if err != nil {
		return err
	}
	for _, entry := range index {
		if bytes.Equal(entry, addr) {
			return nil
		}
	}
	index = append(index, append([]byte(nil), addr...))
	return m.put(positionIndexKey, index)
}

func (m *Manager) indexRemove(addr []byte) error {
	index, err := m.index()
	if err != nil {
		return err
	}
	filtered := index[:0]
	for _, entry := range index {
		if !bytes.Equal(entry, addr) {
			filtered = append(filtered, entry)
		}
	}
	return m.put(positionIndexKey, filtered)
}

// --- token.Backend ---

// TokenBalance returns the holder's balance for the denomination.
func (m *Manager) TokenBalance(symbol string, addr crypto.Address) (*big.Int, error) {
	return m.getBig(tokenBalanceKey(symbol, addr.Bytes()))
}

// SetTokenBalance stores the holder's balance for the denomination.
func (m *Manager) SetTokenBalance(symbol string, addr crypto.Address, balance *big.Int) error {
	if balance == nil {
		balance = big.NewInt(0)
	}
	return m.put(tokenBalanceKey(symbol, addr.Bytes()), balance)
}

// TokenSupply returns the total issued supply for the denomination.
func (m *Manager) TokenSupply(symbol string) (*big.Int, error) {
	return m.getBig(tokenSupplyKey(symbol))
}

// SetTokenSupply stores the total issued supply for the denomination.
func (m *Manager) SetTokenSupply(symbol string, supply *big.Int) error {
	if supply == nil {
		supply = big.NewInt(0)
	}
	return m.put(tokenSupplyKey(symbol), supply)
}
