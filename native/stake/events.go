package stake

import (
	"math/big"
	"strconv"

	"stakevault/crypto"
)

const (
	// TypeStaked is emitted when a new position opens or grows.
	TypeStaked = "stake.staked"
	// TypeProlonged is emitted when a position's window is extended.
	TypeProlonged = "stake.prolonged"
	// TypeRewardHarvested is emitted when accrued rewards are paid out.
	TypeRewardHarvested = "stake.rewardHarvested"
	// TypeWithdrawn is emitted when a position is closed and returned.
	TypeWithdrawn = "stake.withdrawn"
	// TypeRewardPoolFunded is emitted when the reward pool is topped up.
	TypeRewardPoolFunded = "stake.rewardPoolFunded"
)

// Event represents a typed event emitted during state transitions.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// Staked captures a stake being opened or increased.
type Staked struct {
	Account    crypto.Address
	Amount     *big.Int
	PeriodDays uint64
	Increase   bool
}

// Event converts the structured payload into a broadcastable event.
func (e Staked) Event() *Event {
	attrs := map[string]string{
		"addr":   e.Account.String(),
		"amount": formatAmount(e.Amount),
		"period": strconv.FormatUint(e.PeriodDays, 10),
	}
	if e.Increase {
		attrs["increase"] = "true"
	}
	return &Event{Type: TypeStaked, Attributes: attrs}
}

// Prolonged captures a staking window extension.
type Prolonged struct {
	Account       crypto.Address
	NewPeriodDays uint64
	ActiveUntil   uint64
}

// Event converts the structured payload into a broadcastable event.
func (e Prolonged) Event() *Event {
	return &Event{Type: TypeProlonged, Attributes: map[string]string{
		"addr":        e.Account.String(),
		"newPeriod":   strconv.FormatUint(e.NewPeriodDays, 10),
		"activeUntil": strconv.FormatUint(e.ActiveUntil, 10),
	}}
}

// RewardHarvested captures a reward settlement payout.
type RewardHarvested struct {
	Account crypto.Address
	Amount  *big.Int
	Periods uint64
	Receipt string
}

// Event converts the structured payload into a broadcastable event.
func (e RewardHarvested) Event() *Event {
	attrs := map[string]string{
		"addr":   e.Account.String(),
		"amount": formatAmount(e.Amount),
	}
	if e.Periods > 0 {
		attrs["periods"] = strconv.FormatUint(e.Periods, 10)
	}
	if e.Receipt != "" {
		attrs["receipt"] = e.Receipt
	}
	return &Event{Type: TypeRewardHarvested, Attributes: attrs}
}

// Withdrawn captures a position being closed. IsEarly reflects which entry
// point triggered the withdrawal.
type Withdrawn struct {
	Account crypto.Address
	Amount  *big.Int
	IsEarly bool
	Receipt string
}

// Event converts the structured payload into a broadcastable event.
func (e Withdrawn) Event() *Event {
	attrs := map[string]string{
		"addr":   e.Account.String(),
		"amount": formatAmount(e.Amount),
		"early":  strconv.FormatBool(e.IsEarly),
	}
	if e.Receipt != "" {
		attrs["receipt"] = e.Receipt
	}
	return &Event{Type: TypeWithdrawn, Attributes: attrs}
}

// RewardPoolFunded captures an authorized reward pool top-up.
type RewardPoolFunded struct {
	Contributor crypto.Address
	Amount      *big.Int
}

// Event converts the structured payload into a broadcastable event.
func (e RewardPoolFunded) Event() *Event {
	return &Event{Type: TypeRewardPoolFunded, Attributes: map[string]string{
		"contributor": e.Contributor.String(),
		"amount":      formatAmount(e.Amount),
	}}
}
