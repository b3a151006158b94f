package ledger

import "sync"

// BettingPool is a shared accumulator distinct from per-user balances. Bets
// add to it, payouts take from it. It never goes negative: Take refuses any
// amount outside (0, value].
type BettingPool struct {
	mu    sync.Mutex
	value int64
}

// NewBettingPool creates a pool holding the given starting value.
func NewBettingPool(value int64) *BettingPool {
	if value < 0 {
		value = 0
	}
	return &BettingPool{value: value}
}

// Add grows the pool. Non-positive amounts are rejected.
func (p *BettingPool) Add(amount int64) bool {
	if amount <= 0 {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value += amount
	return true
}

// Take removes amount from the pool, failing unless 0 < amount <= value.
func (p *BettingPool) Take(amount int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if amount <= 0 || amount > p.value {
		return false
	}
	p.value -= amount
	return true
}

// Value returns the current pool total.
func (p *BettingPool) Value() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}
