package stake

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"stakevault/crypto"
	"stakevault/token"
)

// Engine orchestrates the staking state transitions. Every mutating entry
// point runs under the exclusive call guard, mutates the ledger and appends
// its events before any external token transfer, and rolls back all of its
// effects when a trailing transfer fails.
type Engine struct {
	store        Store
	ledger       *Ledger
	oracle       *PoolOracle
	stakingToken token.Token
	rewardToken  token.Token
	moduleAddr   crypto.Address
	params       Params
	guard        callGuard
	authority    authorityGuard
	nowFunc      func() time.Time
	events       []*Event
	eventLimit   int
}

// defaultEventLimit bounds the retained event buffer. Oldest events are
// dropped once the limit is exceeded.
const defaultEventLimit = 4096

// NewEngine constructs an engine over the provided store, tokens, and oracle.
// moduleAddr is the vault account holding staked funds and the reward pool;
// authority is the only principal allowed to fund the reward pool.
func NewEngine(store Store, oracle *PoolOracle, stakingToken, rewardToken token.Token, moduleAddr, authority crypto.Address, params Params) *Engine {
	return &Engine{
		store:        store,
		ledger:       NewLedger(store),
		oracle:       oracle,
		stakingToken: stakingToken,
		rewardToken:  rewardToken,
		moduleAddr:   moduleAddr,
		params:       params,
		authority:    authorityGuard{authority: authority},
		nowFunc:      time.Now,
		eventLimit:   defaultEventLimit,
	}
}

// SetNowFunc overrides the engine clock. Intended for tests.
func (e *Engine) SetNowFunc(now func() time.Time) {
	if now != nil {
		e.nowFunc = now
	}
}

// Params returns the configured staking parameters.
func (e *Engine) Params() Params { return e.params }

// SetEventLimit overrides the retained event cap. Intended for tests.
func (e *Engine) SetEventLimit(limit int) {
	if limit > 0 {
		e.eventLimit = limit
	}
}

// Events returns the buffered events, oldest first. The buffer holds at most
// eventLimit entries plus those of the call currently in flight; older events
// are dropped at the start of the next mutating call.
func (e *Engine) Events() []*Event {
	return append([]*Event(nil), e.events...)
}

// begin acquires the exclusive call guard and trims the event buffer. Trimming
// happens here rather than at emit time so rollback can truncate the buffer by
// the index captured in the snapshot.
func (e *Engine) begin() error {
	if err := e.guard.acquire(); err != nil {
		return err
	}
	if excess := len(e.events) - e.eventLimit; excess > 0 {
		e.events = append([]*Event(nil), e.events[excess:]...)
	}
	return nil
}

func (e *Engine) now() uint64 {
	return uint64(e.nowFunc().Unix())
}

func (e *Engine) emit(ev interface{ Event() *Event }) {
	if converted := ev.Event(); converted != nil {
		e.events = append(e.events, converted)
	}
}

// Stake opens a new staking window for the caller. Callers holding an active
// position must use IncreaseStake or Prolong instead. A caller whose window
// has expired may stake again: rewards owed for the elapsed window are settled
// first, then a wholly new window opens over the combined amount with
// LastRewardClaimAt reset to zero.
func (e *Engine) Stake(caller crypto.Address, amount *big.Int, periodDays uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.guard.release()

	if !e.params.PeriodAllowed(periodDays) {
		return ErrInvalidPeriod
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	now := e.now()
	prev, had, err := e.ledger.Get(caller)
	if err != nil {
		return err
	}
	if had && prev.Active(now) {
		return ErrExistingStake
	}

	snap, err := e.snapshot(caller)
	if err != nil {
		return err
	}

	staked := new(big.Int).Set(amount)
	payout := big.NewInt(0)
	if had {
		payout, err = e.settleReward(caller, prev, now)
		if err != nil {
			return e.rollback(snap, err)
		}
		staked.Add(staked, prev.Amount)
	}

	pos := &Position{
		Amount:     staked,
		StartedAt:  now,
		PeriodDays: periodDays,
	}
	if err := e.ledger.Upsert(caller, pos); err != nil {
		return e.rollback(snap, err)
	}
	e.emit(Staked{Account: caller, Amount: amount, PeriodDays: periodDays})

	if err := e.deposit(e.stakingToken, caller, amount); err != nil {
		// Reverse the already-settled reward payout before restoring state.
		if payout.Sign() > 0 {
			if reversed, revErr := e.rewardToken.Transfer(caller, e.moduleAddr, payout); revErr != nil || !reversed {
				return ErrInvariantViolation
			}
		}
		return e.rollback(snap, err)
	}
	return nil
}

// IncreaseStake adds to the caller's active position without touching its
// timing. Rewards are not settled implicitly.
func (e *Engine) IncreaseStake(caller crypto.Address, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.guard.release()

	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}
	pos, ok, err := e.ledger.Get(caller)
	if err != nil {
		return err
	}
	if !ok || !pos.Active(e.now()) {
		return ErrStakeNotFound
	}

	snap, err := e.snapshot(caller)
	if err != nil {
		return err
	}

	pos.Amount = new(big.Int).Add(pos.Amount, amount)
	if err := e.ledger.Upsert(caller, pos); err != nil {
		return err
	}
	e.emit(Staked{Account: caller, Amount: amount, PeriodDays: pos.PeriodDays, Increase: true})

	if err := e.deposit(e.stakingToken, caller, amount); err != nil {
		return e.rollback(snap, err)
	}
	return nil
}

// Prolong extends the caller's staking window. The resulting ActiveUntil must
// be strictly later than the current one; no token movement occurs.
func (e *Engine) Prolong(caller crypto.Address, newPeriodDays uint64) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.guard.release()

	pos, ok, err := e.ledger.Get(caller)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStakeNotFound
	}
	if !e.params.PeriodAllowed(newPeriodDays) {
		return ErrInvalidPeriod
	}
	if pos.StartedAt+newPeriodDays*SecondsPerDay <= pos.ActiveUntil {
		return ErrInvalidPeriod
	}

	pos.PeriodDays = newPeriodDays
	if err := e.ledger.Upsert(caller, pos); err != nil {
		return err
	}
	e.emit(Prolonged{Account: caller, NewPeriodDays: newPeriodDays, ActiveUntil: pos.StartedAt + newPeriodDays*SecondsPerDay})
	return nil
}

// Harvest settles the caller's accrued rewards on demand. Nothing owed is a
// valid no-op with no transfer and no event.
func (e *Engine) Harvest(caller crypto.Address) (*big.Int, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.guard.release()

	pos, ok, err := e.ledger.Get(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStakeNotFound
	}

	snap, err := e.snapshot(caller)
	if err != nil {
		return nil, err
	}
	payout, err := e.settleReward(caller, pos, e.now())
	if err != nil {
		return nil, e.rollback(snap, err)
	}
	return payout, nil
}

// Withdraw closes the caller's position after the staking window has elapsed,
// settling rewards exactly as Harvest would before returning the stake.
func (e *Engine) Withdraw(caller crypto.Address) (*big.Int, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.guard.release()
	return e.close(caller, false)
}

// EmergencyWithdraw closes the caller's position at any time. Rewards for the
// current incomplete accrual period are forfeited; under the forfeit-all
// policy every unclaimed reward is forfeited.
func (e *Engine) EmergencyWithdraw(caller crypto.Address) (*big.Int, error) {
	if err := e.begin(); err != nil {
		return nil, err
	}
	defer e.guard.release()
	return e.close(caller, true)
}

func (e *Engine) close(caller crypto.Address, early bool) (*big.Int, error) {
	pos, ok, err := e.ledger.Get(caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStakeNotFound
	}
	now := e.now()
	if !early && now < pos.ActiveUntil {
		return nil, ErrStakeStillActive
	}

	snap, err := e.snapshot(caller)
	if err != nil {
		return nil, err
	}

	payout := big.NewInt(0)
	if !early || e.params.Forfeit != ForfeitAll {
		payout, err = e.settleReward(caller, pos, now)
		if err != nil {
			return nil, e.rollback(snap, err)
		}
	}

	amount := new(big.Int).Set(pos.Amount)
	if err := e.ledger.Clear(caller); err != nil {
		return nil, e.rollback(snap, err)
	}
	e.emit(Withdrawn{Account: caller, Amount: amount, IsEarly: early, Receipt: uuid.NewString()})

	ok, err = e.stakingToken.Transfer(e.moduleAddr, caller, amount)
	if err != nil || !ok {
		// Reverse the already-settled reward payout before restoring state.
		if payout.Sign() > 0 {
			if reversed, revErr := e.rewardToken.Transfer(caller, e.moduleAddr, payout); revErr != nil || !reversed {
				return nil, ErrInvariantViolation
			}
		}
		return nil, e.rollback(snap, ErrTransferFailed)
	}
	return amount, nil
}

// FundRewardPool tops up the reward pool. Only the configured authority may
// call it.
func (e *Engine) FundRewardPool(caller crypto.Address, amount *big.Int) error {
	if err := e.begin(); err != nil {
		return err
	}
	defer e.guard.release()

	if err := e.authority.check(caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	snap, err := e.snapshot(caller)
	if err != nil {
		return err
	}
	if err := e.oracle.Fund(amount); err != nil {
		return err
	}
	e.emit(RewardPoolFunded{Contributor: caller, Amount: amount})

	if err := e.deposit(e.rewardToken, caller, amount); err != nil {
		return e.rollback(snap, err)
	}
	return nil
}

// settleReward is the single settlement routine shared by Harvest and the
// withdrawal paths: accrue, price through the oracle, record the claim, debit
// the pool, emit, then pay. The quote precedes the ledger write so the settled
// claim records exactly what was paid; the exclusive call guard is held across
// the quote, so a reentrant callback cannot run against pre-settlement state.
func (e *Engine) settleReward(caller crypto.Address, pos *Position, now uint64) (*big.Int, error) {
	periods, notional := Accrue(pos, now, e.params)
	if periods == 0 || notional.Sign() == 0 {
		return big.NewInt(0), nil
	}
	payout, err := e.oracle.Price(notional)
	if err != nil {
		return nil, err
	}

	pos.LastRewardClaimAt = now
	if err := e.ledger.Upsert(caller, pos); err != nil {
		return nil, err
	}
	if err := e.oracle.Debit(payout); err != nil {
		return nil, err
	}
	e.emit(RewardHarvested{Account: caller, Amount: payout, Periods: periods, Receipt: uuid.NewString()})

	ok, err := e.rewardToken.Transfer(e.moduleAddr, caller, payout)
	if err != nil || !ok {
		return nil, ErrTransferFailed
	}
	return payout, nil
}

// --- read-only queries ---

// GetPosition returns a copy of the caller's position, if any.
func (e *Engine) GetPosition(addr crypto.Address) (*Position, bool, error) {
	return e.ledger.Get(addr)
}

// PendingReward projects the reward currently owed to the account without
// mutating state or consulting the oracle.
func (e *Engine) PendingReward(addr crypto.Address) (*big.Int, error) {
	pos, ok, err := e.ledger.Get(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	_, reward := Accrue(pos, e.now(), e.params)
	return reward, nil
}

// PreviewClaim projects the reward-token payout a Harvest would produce right
// now, priced through the oracle and checked against the pool, without
// mutating any state. ErrStakeNotFound when the account holds no position.
func (e *Engine) PreviewClaim(addr crypto.Address) (*big.Int, error) {
	pos, ok, err := e.ledger.Get(addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStakeNotFound
	}
	_, notional := Accrue(pos, e.now(), e.params)
	if notional.Sign() == 0 {
		return big.NewInt(0), nil
	}
	return e.oracle.Price(notional)
}

// TotalStaked returns the aggregate staked amount.
func (e *Engine) TotalStaked() (*big.Int, error) {
	return e.ledger.TotalStaked()
}

// RewardPoolBalance returns the current reward pool funding balance.
func (e *Engine) RewardPoolBalance() (*big.Int, error) {
	return e.oracle.Balance()
}

// --- rollback machinery ---

type snapshot struct {
	addr      crypto.Address
	pos       *Position
	had       bool
	total     *big.Int
	pool      *big.Int
	eventsLen int
}

func (e *Engine) snapshot(addr crypto.Address) (snapshot, error) {
	pos, had, err := e.store.GetPosition(addr)
	if err != nil {
		return snapshot{}, err
	}
	total, err := e.store.GetTotalStaked()
	if err != nil {
		return snapshot{}, err
	}
	pool, err := e.store.GetRewardPool()
	if err != nil {
		return snapshot{}, err
	}
	return snapshot{
		addr:      addr,
		pos:       pos.Copy(),
		had:       had,
		total:     new(big.Int).Set(total),
		pool:      new(big.Int).Set(pool),
		eventsLen: len(e.events),
	}, nil
}

// rollback restores the staged records captured at entry and drops events
// appended since, then returns the original failure.
func (e *Engine) rollback(snap snapshot, cause error) error {
	if snap.had {
		if err := e.store.PutPosition(snap.addr, snap.pos); err != nil {
			return ErrInvariantViolation
		}
	} else {
		if err := e.store.DeletePosition(snap.addr); err != nil {
			return ErrInvariantViolation
		}
	}
	if err := e.store.PutTotalStaked(snap.total); err != nil {
		return ErrInvariantViolation
	}
	if err := e.store.PutRewardPool(snap.pool); err != nil {
		return ErrInvariantViolation
	}
	e.events = e.events[:snap.eventsLen]
	return cause
}

// deposit pulls amount from the caller into the module vault.
func (e *Engine) deposit(tok token.Token, from crypto.Address, amount *big.Int) error {
	ok, err := tok.Transfer(from, e.moduleAddr, amount)
	if err != nil || !ok {
		return ErrTransferFailed
	}
	return nil
}
