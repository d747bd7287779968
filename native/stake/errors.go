package stake

import "errors"

var (
	// ErrInvalidPeriod rejects staking periods outside the allow-listed tiers
	// or prolongations that would not extend the active window.
	ErrInvalidPeriod = errors.New("stake: invalid staking period")
	// ErrZeroAmount rejects zero-valued stake or funding amounts.
	ErrZeroAmount = errors.New("stake: amount must be positive")
	// ErrStakeNotFound is returned when the caller holds no position.
	ErrStakeNotFound = errors.New("stake: no active stake for account")
	// ErrExistingStake rejects Stake calls while an active position exists;
	// callers must use IncreaseStake or Prolong explicitly.
	ErrExistingStake = errors.New("stake: account already holds an active stake")
	// ErrStakeStillActive rejects full-term withdrawal before the staking
	// window has elapsed.
	ErrStakeStillActive = errors.New("stake: staking period still active")
	// ErrInsufficientRewardPool signals the reward pool cannot cover a payout.
	ErrInsufficientRewardPool = errors.New("stake: reward pool balance insufficient")
	// ErrInvalidQuote rejects zero or malformed oracle quotes.
	ErrInvalidQuote = errors.New("stake: oracle returned invalid quote")
	// ErrStaleQuote rejects quotes older than the configured freshness window.
	ErrStaleQuote = errors.New("stake: oracle quote too old")
	// ErrTransferFailed signals a token transfer returned false or errored.
	ErrTransferFailed = errors.New("stake: token transfer failed")
	// ErrUnauthorized rejects funding calls from anyone but the configured
	// authority.
	ErrUnauthorized = errors.New("stake: caller not authorized")
	// ErrReentrancy rejects calls made while another mutating entry point is
	// still executing.
	ErrReentrancy = errors.New("stake: reentrant call detected")
	// ErrInvariantViolation reports a conservation check failure. It marks
	// internal state corruption and is never expected in correct operation.
	ErrInvariantViolation = errors.New("stake: ledger conservation invariant violated")
)
