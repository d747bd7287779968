package stake

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func accrualParams() Params {
	return Params{
		PeriodDays:     []uint64{30, 60, 90},
		RewardRateBps:  10_000,
		AccrualSeconds: SecondsPerDay,
		Forfeit:        ForfeitPartial,
	}
}

func TestAccrueNoPosition(t *testing.T) {
	periods, reward := Accrue(nil, 1_000, accrualParams())
	require.Zero(t, periods)
	require.Zero(t, reward.Sign())

	empty := &Position{Amount: big.NewInt(0)}
	periods, reward = Accrue(empty, 1_000, accrualParams())
	require.Zero(t, periods)
	require.Zero(t, reward.Sign())
}

func TestAccrueWholePeriodsOnly(t *testing.T) {
	pos := &Position{
		Amount:     big.NewInt(1000),
		StartedAt:  0,
		PeriodDays: 30,
	}
	pos.normalize()

	// Half a day in: nothing owed yet.
	periods, reward := Accrue(pos, SecondsPerDay/2, accrualParams())
	require.Zero(t, periods)
	require.Zero(t, reward.Sign())

	// One day in: exactly one period at the full rate.
	periods, reward = Accrue(pos, SecondsPerDay, accrualParams())
	require.Equal(t, uint64(1), periods)
	require.Zero(t, reward.Cmp(big.NewInt(1000)))

	// A day and a half: still one period.
	periods, _ = Accrue(pos, SecondsPerDay+SecondsPerDay/2, accrualParams())
	require.Equal(t, uint64(1), periods)
}

func TestAccrueStopsAtActiveUntil(t *testing.T) {
	pos := &Position{
		Amount:     big.NewInt(1000),
		StartedAt:  0,
		PeriodDays: 30,
	}
	pos.normalize()

	// Exactly at the window boundary: 30 periods, not 31.
	periods, reward := Accrue(pos, pos.ActiveUntil, accrualParams())
	require.Equal(t, uint64(30), periods)
	require.Zero(t, reward.Cmp(big.NewInt(30_000)))

	// Long after the window closed the owed amount is unchanged.
	periods, reward = Accrue(pos, pos.ActiveUntil+90*SecondsPerDay, accrualParams())
	require.Equal(t, uint64(30), periods)
	require.Zero(t, reward.Cmp(big.NewInt(30_000)))
}

func TestAccrueAnchorsOnLastClaim(t *testing.T) {
	pos := &Position{
		Amount:            big.NewInt(500),
		StartedAt:         0,
		PeriodDays:        60,
		LastRewardClaimAt: 10 * SecondsPerDay,
	}
	pos.normalize()

	periods, reward := Accrue(pos, 13*SecondsPerDay, accrualParams())
	require.Equal(t, uint64(3), periods)
	require.Zero(t, reward.Cmp(big.NewInt(1500)))
}

func TestAccrueMonotonicInTime(t *testing.T) {
	pos := &Position{
		Amount:     big.NewInt(777),
		StartedAt:  0,
		PeriodDays: 30,
	}
	pos.normalize()

	prev := big.NewInt(0)
	for now := uint64(0); now <= pos.ActiveUntil+5*SecondsPerDay; now += SecondsPerDay / 3 {
		_, reward := Accrue(pos, now, accrualParams())
		require.GreaterOrEqual(t, reward.Cmp(prev), 0, "reward decreased at t=%d", now)
		prev = reward
	}
}

func TestAccrueRateScaling(t *testing.T) {
	params := accrualParams()
	params.RewardRateBps = 250 // 2.5% per day

	pos := &Position{
		Amount:     big.NewInt(10_000),
		StartedAt:  0,
		PeriodDays: 30,
	}
	pos.normalize()

	periods, reward := Accrue(pos, 4*SecondsPerDay, params)
	require.Equal(t, uint64(4), periods)
	// 4 * 10000 * 250 / 10000
	require.Zero(t, reward.Cmp(big.NewInt(1000)))
}
