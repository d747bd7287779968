package stake

import (
	"sync/atomic"

	"stakevault/crypto"
)

// callGuard is the exclusive execution flag held for the duration of every
// mutating entry point. A call attempted while the flag is held fails
// immediately instead of blocking, so a reentrant call observed from within an
// external token or oracle interaction can never interleave with the
// bookkeeping of the outer call.
type callGuard struct {
	busy atomic.Bool
}

func (g *callGuard) acquire() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrReentrancy
	}
	return nil
}

func (g *callGuard) release() {
	g.busy.Store(false)
}

// authorityGuard restricts the reward pool funding path to a single principal
// fixed at construction.
type authorityGuard struct {
	authority crypto.Address
}

func (g authorityGuard) check(caller crypto.Address) error {
	if g.authority.IsZero() || !g.authority.Equal(caller) {
		return ErrUnauthorized
	}
	return nil
}
