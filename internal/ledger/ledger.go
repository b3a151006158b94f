// Package ledger is the account-balance subsystem. It is the one shared
// mutable store plugins touch from concurrent dispatches, so every mutation
// of a single account is serialized behind that account's own lock;
// operations on different accounts proceed independently.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/parleybot/parley/internal/log"
)

type account struct {
	mu      sync.Mutex
	balance int64
}

// Ledger maps owner identity strings to balances. Accounts are created
// lazily on first touch and never deleted. Balances never go negative: Charge
// is the only gate and it refuses to overdraw.
//
// When opened with a database, every committed mutation is written through to
// the accounts table while the account lock is held, so the persisted value
// can never interleave out of order for one account.
type Ledger struct {
	mu       sync.Mutex // guards the accounts map, not balances
	accounts map[string]*account

	db     *sql.DB
	logger *slog.Logger
}

// New creates an in-memory ledger with no persistence.
func New() *Ledger {
	return &Ledger{
		accounts: make(map[string]*account),
		logger:   log.WithComponent("ledger"),
	}
}

// Open creates a ledger backed by db, loading all persisted accounts eagerly.
func Open(ctx context.Context, db *sql.DB) (*Ledger, error) {
	l := New()
	l.db = db

	rows, err := db.QueryContext(ctx, `SELECT owner, balance FROM accounts;`)
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var owner string
		var balance int64
		if err := rows.Scan(&owner, &balance); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		l.accounts[owner] = &account{balance: balance}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}

	l.logger.Info("ledger loaded", "accounts", len(l.accounts))
	return l, nil
}

// get returns the account for owner, creating it at balance 0 on first touch.
func (l *Ledger) get(owner string) *account {
	l.mu.Lock()
	defer l.mu.Unlock()

	a, ok := l.accounts[owner]
	if !ok {
		a = &account{}
		l.accounts[owner] = a
	}
	return a
}

// Exists reports whether an account has been created for owner. Unlike the
// other operations it does not create one.
func (l *Ledger) Exists(owner string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.accounts[owner]
	return ok
}

// Balance returns owner's balance, creating the account on first touch.
func (l *Ledger) Balance(ctx context.Context, owner string) int64 {
	a := l.get(owner)
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance
}

// Charge debits amount from owner. It returns false, leaving the balance
// unchanged, when amount <= 0 or the balance cannot cover it.
func (l *Ledger) Charge(ctx context.Context, owner string, amount int64) bool {
	if amount <= 0 {
		return false
	}

	a := l.get(owner)
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.balance < amount {
		return false
	}
	a.balance -= amount
	l.persist(ctx, owner, a.balance)
	return true
}

// Pay credits amount to owner, auto-creating the account. It returns false
// when amount <= 0.
func (l *Ledger) Pay(ctx context.Context, owner string, amount int64) bool {
	if amount <= 0 {
		return false
	}

	a := l.get(owner)
	a.mu.Lock()
	defer a.mu.Unlock()

	a.balance += amount
	l.persist(ctx, owner, a.balance)
	return true
}

// Transfer moves amount from one owner to another, composed as Charge then
// Pay. Only the Charge gates the amount, so a true Charge is always followed
// by a successful Pay and the total across accounts is conserved.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount int64) bool {
	if !l.Charge(ctx, from, amount) {
		return false
	}
	l.Pay(ctx, to, amount)
	return true
}

// Mint credits amount to owner from outside the ledger. This is the only
// operation besides Pay that grows an account, and the only one meant to
// change the total supply; callers gate it to authorized operators.
func (l *Ledger) Mint(ctx context.Context, owner string, amount int64) bool {
	if amount <= 0 {
		return false
	}
	l.logger.Info("minting", "owner", owner, "amount", amount)
	return l.Pay(ctx, owner, amount)
}

// persist writes one balance through to the accounts table. Callers hold the
// account lock. The in-memory balance stays authoritative when the write
// fails; the failure is logged and the next mutation retries the row.
func (l *Ledger) persist(ctx context.Context, owner string, balance int64) {
	if l.db == nil {
		return
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := l.db.ExecContext(ctx, `
INSERT INTO accounts(owner, balance, created_at, updated_at) VALUES(?, ?, ?, ?)
ON CONFLICT(owner) DO UPDATE SET balance = excluded.balance, updated_at = excluded.updated_at;
`, owner, balance, now, now)
	if err != nil {
		l.logger.Error("failed to persist account", "owner", owner, "error", err)
	}
}
