// Package currency implements the CCMP commands: per-user balances backed by
// the ledger, peer payments, and a communal betting pool paid out by
// operators.
package currency

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/parleybot/parley/internal/command"
	"github.com/parleybot/parley/internal/ledger"
	"github.com/parleybot/parley/internal/log"
	"github.com/parleybot/parley/internal/plugin"
	"github.com/parleybot/parley/internal/storage"
	"github.com/parleybot/parley/internal/telegram"
)

const (
	// DefaultName is used until an admin renames the currency.
	DefaultName = "doubloons"

	settingName = "currency_name"

	msgNoPermission  = "CCMP: You do not have permission to use this command."
	msgNoFunds       = "CCMP: You do not possess enough funds."
	msgBadAmount     = "CCMP: Invalid amount. Please enter a positive value."
	msgNoSuchAccount = "CCMP: That account does not exist. Ask them to run /ccbalance."
	msgNoSuchPayee   = "CCMP: That user does not yet have an account. Ask them to check their balance."
	msgBadPoolAmount = "CCMP: Invalid amount specified. Must be greater than 0, and less than betting pool."
)

// Config carries the operator gates and the starting balance.
type Config struct {
	// Operators may run ccpayout.
	Operators []string
	// Admin alone may run ccsetname.
	Admin string
	// Grubstake is minted into an account the first time its owner checks
	// their balance.
	Grubstake int64
	// Name overrides DefaultName when no persisted name exists.
	Name string
}

// Currency is the CCMP plugin instance.
type Currency struct {
	ledger *ledger.Ledger
	pool   *ledger.BettingPool
	db     *sql.DB
	cfg    Config
	logger *slog.Logger

	mu   sync.RWMutex
	name string
}

// Factory builds CCMP instances sharing the given ledger and pool. The
// currency name is read from the settings table so renames survive both
// reloads and restarts; db may be nil for a memory-only instance.
func Factory(l *ledger.Ledger, pool *ledger.BettingPool, db *sql.DB, cfg Config) plugin.Factory {
	return func() (plugin.Plugin, error) {
		c := &Currency{
			ledger: l,
			pool:   pool,
			db:     db,
			cfg:    cfg,
			logger: log.WithPlugin("currency"),
			name:   cfg.Name,
		}
		if c.name == "" {
			c.name = DefaultName
		}
		if db != nil {
			stored, ok, err := storage.GetSetting(context.Background(), db, settingName)
			if err != nil {
				return nil, fmt.Errorf("currency: load name: %w", err)
			}
			if ok {
				c.name = stored
			}
		}
		return c, nil
	}
}

func (c *Currency) Name() string { return "currency" }

func (c *Currency) Help() string {
	return "Custom Currency Management Plugin:\n" +
		"'/ccbalance' to see account balance\n" +
		"'/ccpay [user] [amount]' to pay a user\n" +
		"'/ccbet [amount]' to put currency in the betting pool\n" +
		"'/ccsetname [name]' to change the name of the currency\n" +
		"'/ccpayout [user] [amount]' to payout from betting pool\n" +
		"'/ccpool' to see the amount in the betting pool"
}

func (c *Currency) Commands() []string {
	return []string{"ccbalance", "ccpay", "ccbet", "ccsetname", "ccpayout", "ccpool"}
}

func (c *Currency) HasListener() bool { return false }
func (c *Currency) Enable()           {}
func (c *Currency) Disable()          {}

func (c *Currency) OnMessage(context.Context, *telegram.Message) (*plugin.Response, error) {
	return nil, nil
}

func (c *Currency) OnCommand(ctx context.Context, cmd *command.Command) (*plugin.Response, error) {
	user := accountName(cmd)
	if user == "" {
		return nil, nil
	}

	switch cmd.Name {
	case "ccbalance":
		return plugin.Text(c.balance(ctx, user)), nil
	case "ccpay":
		return plugin.Text(c.pay(ctx, user, cmd.Args)), nil
	case "ccbet":
		return plugin.Text(c.bet(ctx, user, cmd.Args)), nil
	case "ccpayout":
		return plugin.Text(c.payout(ctx, user, cmd.Args)), nil
	case "ccsetname":
		return plugin.Text(c.setName(ctx, user, cmd.Args)), nil
	case "ccpool":
		return plugin.Text(fmt.Sprintf("CCMP: There are currently %d %s in the betting pool", c.pool.Value(), c.currencyName())), nil
	}
	return nil, nil
}

// balance reports the caller's balance, minting the grubstake the first time
// an account is seen.
func (c *Currency) balance(ctx context.Context, user string) string {
	if !c.ledger.Exists(user) && c.cfg.Grubstake > 0 {
		c.ledger.Mint(ctx, user, c.cfg.Grubstake)
		c.logger.Info("grubstake minted", "owner", user, "amount", c.cfg.Grubstake)
	}
	return fmt.Sprintf("CCMP: Hello %s, you have %d %s.", user, c.ledger.Balance(ctx, user), c.currencyName())
}

func (c *Currency) pay(ctx context.Context, from, args string) string {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "CCMP: Invalid command format! Please enter /ccpay [user] [amount]."
	}
	to := strings.TrimPrefix(parts[0], "@")
	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "CCMP: Invalid command format! Please enter /ccpay [user] [amount]."
	}
	if amount <= 0 {
		return msgBadAmount
	}
	// The recipient must already hold an account; the sender's is created
	// on demand.
	if !c.ledger.Exists(to) {
		return msgNoSuchAccount
	}
	if !c.ledger.Transfer(ctx, from, to, amount) {
		return msgNoFunds
	}
	return fmt.Sprintf("CCMP: %s has paid %d %s to %s!", from, amount, c.currencyName(), to)
}

func (c *Currency) bet(ctx context.Context, user, args string) string {
	amount, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return "CCMP: Invalid command format! Please enter /ccbet [amount]."
	}
	if amount <= 0 {
		return msgBadAmount
	}
	if !c.ledger.Charge(ctx, user, amount) {
		return msgNoFunds
	}
	c.pool.Add(amount)
	return fmt.Sprintf("CCMP: %s has added %d %s to the betting pool", user, amount, c.currencyName())
}

func (c *Currency) payout(ctx context.Context, user, args string) string {
	if !c.isOperator(user) {
		return msgNoPermission
	}
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return "CCMP: Invalid command format! Please enter /ccpayout [user] [amount]."
	}
	to := strings.TrimPrefix(parts[0], "@")
	amount, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "CCMP: Invalid command format! Please enter /ccpayout [user] [amount]."
	}
	if !c.ledger.Exists(to) {
		return msgNoSuchPayee
	}
	if !c.pool.Take(amount) {
		return msgBadPoolAmount
	}
	c.ledger.Pay(ctx, to, amount)
	c.logger.Info("pool payout", "operator", user, "to", to, "amount", amount)
	return fmt.Sprintf("CCMP: Paid %s %d %s from the betting pool.", to, amount, c.currencyName())
}

func (c *Currency) setName(ctx context.Context, user, args string) string {
	if user != c.cfg.Admin || c.cfg.Admin == "" {
		return msgNoPermission
	}
	name := strings.TrimSpace(args)
	if name == "" {
		return "CCMP: Invalid command format! Please enter /ccsetname [name]."
	}
	c.mu.Lock()
	c.name = name
	c.mu.Unlock()
	if c.db != nil {
		if err := storage.PutSetting(ctx, c.db, settingName, name); err != nil {
			c.logger.Error("persist currency name", "error", err)
		}
	}
	return "CCMP: Currency name changed!"
}

func (c *Currency) currencyName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Currency) isOperator(user string) bool {
	for _, op := range c.cfg.Operators {
		if op == user {
			return true
		}
	}
	return false
}

// accountName keys ledger accounts by username, falling back to the display
// name for users without one.
func accountName(cmd *command.Command) string {
	if cmd.From == nil {
		return ""
	}
	if cmd.From.Username != "" {
		return cmd.From.Username
	}
	return cmd.From.DisplayName()
}
