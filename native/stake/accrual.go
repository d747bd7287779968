package stake

import "math/big"

var basisPoints = big.NewInt(10_000)

// Accrue computes the number of whole accrual periods elapsed for the position
// and the reward owed for them, denominated in staking-token notional.
//
// The anchor is the later of the window start and the last settlement; accrual
// stops at ActiveUntil. A settlement exactly at ActiveUntil still credits the
// final complete period. Nothing owed is (0, 0), never an error.
func Accrue(pos *Position, now uint64, params Params) (uint64, *big.Int) {
	if pos == nil || pos.ActiveUntil == 0 || pos.Amount == nil || pos.Amount.Sign() <= 0 {
		return 0, big.NewInt(0)
	}
	anchor := pos.StartedAt
	if pos.LastRewardClaimAt > anchor {
		anchor = pos.LastRewardClaimAt
	}
	effectiveNow := now
	if pos.ActiveUntil < effectiveNow {
		effectiveNow = pos.ActiveUntil
	}
	if effectiveNow <= anchor {
		return 0, big.NewInt(0)
	}
	periods := (effectiveNow - anchor) / params.accrualSeconds()
	if periods == 0 {
		return 0, big.NewInt(0)
	}
	reward := new(big.Int).SetUint64(periods)
	reward.Mul(reward, pos.Amount)
	reward.Mul(reward, new(big.Int).SetUint64(params.RewardRateBps))
	reward.Quo(reward, basisPoints)
	return periods, reward
}
