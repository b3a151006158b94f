package currency

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parleybot/parley/internal/command"
	"github.com/parleybot/parley/internal/ledger"
	"github.com/parleybot/parley/internal/log"
	"github.com/parleybot/parley/internal/plugin"
	"github.com/parleybot/parley/internal/storage"
	"github.com/parleybot/parley/internal/telegram"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR", "json")
	os.Exit(m.Run())
}

func testConfig() Config {
	return Config{
		Operators: []string{"tanner", "klawk"},
		Admin:     "klawk",
		Grubstake: 100,
	}
}

func newPlugin(t *testing.T, cfg Config) (*Currency, *ledger.BettingPool) {
	t.Helper()
	pool := ledger.NewBettingPool(0)
	p, err := Factory(ledger.New(), pool, nil, cfg)()
	require.NoError(t, err)
	return p.(*Currency), pool
}

func run(t *testing.T, c *Currency, user, name, args string) string {
	t.Helper()
	resp, err := c.OnCommand(context.Background(), &command.Command{
		Name: name,
		Args: args,
		From: &telegram.User{ID: 1, Username: user},
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	require.Equal(t, plugin.KindText, resp.Kind)
	return resp.Text
}

func TestBalanceMintsGrubstakeOnce(t *testing.T) {
	c, _ := newPlugin(t, testConfig())

	assert.Equal(t, "CCMP: Hello ann, you have 100 doubloons.", run(t, c, "ann", "ccbalance", ""))
	// Second check must not mint again.
	assert.Equal(t, "CCMP: Hello ann, you have 100 doubloons.", run(t, c, "ann", "ccbalance", ""))
}

func TestPayRequiresExistingRecipient(t *testing.T) {
	c, _ := newPlugin(t, testConfig())
	run(t, c, "ann", "ccbalance", "")

	assert.Equal(t, "CCMP: That account does not exist. Ask them to run /ccbalance.",
		run(t, c, "ann", "ccpay", "bob 10"))

	run(t, c, "bob", "ccbalance", "")
	assert.Equal(t, "CCMP: ann has paid 10 doubloons to bob!",
		run(t, c, "ann", "ccpay", "@bob 10"))
	assert.Equal(t, "CCMP: Hello ann, you have 90 doubloons.", run(t, c, "ann", "ccbalance", ""))
	assert.Equal(t, "CCMP: Hello bob, you have 110 doubloons.", run(t, c, "bob", "ccbalance", ""))
}

func TestPayRejections(t *testing.T) {
	c, _ := newPlugin(t, testConfig())
	run(t, c, "ann", "ccbalance", "")
	run(t, c, "bob", "ccbalance", "")

	syntax := "CCMP: Invalid command format! Please enter /ccpay [user] [amount]."
	assert.Equal(t, syntax, run(t, c, "ann", "ccpay", ""))
	assert.Equal(t, syntax, run(t, c, "ann", "ccpay", "bob"))
	assert.Equal(t, syntax, run(t, c, "ann", "ccpay", "bob ten"))
	assert.Equal(t, "CCMP: Invalid amount. Please enter a positive value.",
		run(t, c, "ann", "ccpay", "bob -5"))
	assert.Equal(t, "CCMP: You do not possess enough funds.",
		run(t, c, "ann", "ccpay", "bob 1000"))
	// Failed transfer left both balances alone.
	assert.Equal(t, "CCMP: Hello ann, you have 100 doubloons.", run(t, c, "ann", "ccbalance", ""))
	assert.Equal(t, "CCMP: Hello bob, you have 100 doubloons.", run(t, c, "bob", "ccbalance", ""))
}

func TestBettingRound(t *testing.T) {
	c, pool := newPlugin(t, testConfig())
	run(t, c, "ann", "ccbalance", "")

	assert.Equal(t, "CCMP: ann has added 50 doubloons to the betting pool",
		run(t, c, "ann", "ccbet", "50"))
	assert.Equal(t, int64(50), pool.Value())
	assert.Equal(t, "CCMP: Hello ann, you have 50 doubloons.", run(t, c, "ann", "ccbalance", ""))
	assert.Equal(t, "CCMP: There are currently 50 doubloons in the betting pool",
		run(t, c, "ann", "ccpool", ""))

	// A non-operator cannot pay out.
	assert.Equal(t, "CCMP: You do not have permission to use this command.",
		run(t, c, "ann", "ccpayout", "ann 50"))
	assert.Equal(t, int64(50), pool.Value())

	run(t, c, "bob", "ccbalance", "")
	assert.Equal(t, "CCMP: Paid bob 50 doubloons from the betting pool.",
		run(t, c, "tanner", "ccpayout", "bob 50"))
	assert.Equal(t, int64(0), pool.Value())
	assert.Equal(t, "CCMP: Hello bob, you have 150 doubloons.", run(t, c, "bob", "ccbalance", ""))
}

func TestBetRejections(t *testing.T) {
	c, pool := newPlugin(t, testConfig())
	run(t, c, "ann", "ccbalance", "")

	assert.Equal(t, "CCMP: Invalid command format! Please enter /ccbet [amount].",
		run(t, c, "ann", "ccbet", "lots"))
	assert.Equal(t, "CCMP: Invalid amount. Please enter a positive value.",
		run(t, c, "ann", "ccbet", "0"))
	assert.Equal(t, "CCMP: You do not possess enough funds.",
		run(t, c, "ann", "ccbet", "101"))
	assert.Equal(t, int64(0), pool.Value())
}

func TestPayoutBounds(t *testing.T) {
	c, pool := newPlugin(t, testConfig())
	run(t, c, "ann", "ccbalance", "")
	run(t, c, "ann", "ccbet", "40")
	run(t, c, "bob", "ccbalance", "")

	bad := "CCMP: Invalid amount specified. Must be greater than 0, and less than betting pool."
	assert.Equal(t, bad, run(t, c, "tanner", "ccpayout", "bob 0"))
	assert.Equal(t, bad, run(t, c, "tanner", "ccpayout", "bob 41"))
	assert.Equal(t, "CCMP: That user does not yet have an account. Ask them to check their balance.",
		run(t, c, "tanner", "ccpayout", "carol 10"))
	assert.Equal(t, int64(40), pool.Value())
}

func TestSetNameAdminOnly(t *testing.T) {
	c, _ := newPlugin(t, testConfig())

	assert.Equal(t, "CCMP: You do not have permission to use this command.",
		run(t, c, "tanner", "ccsetname", "bucks"))
	assert.Equal(t, "CCMP: Currency name changed!",
		run(t, c, "klawk", "ccsetname", "bucks"))
	run(t, c, "ann", "ccbalance", "")
	assert.Equal(t, "CCMP: Hello ann, you have 100 bucks.", run(t, c, "ann", "ccbalance", ""))
}

func TestNameSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "parley.db")

	db, err := storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	pool := ledger.NewBettingPool(0)
	led, err := ledger.Open(ctx, db)
	require.NoError(t, err)

	p, err := Factory(led, pool, db, testConfig())()
	require.NoError(t, err)
	assert.Equal(t, "CCMP: Currency name changed!", run(t, p.(*Currency), "klawk", "ccsetname", "shells"))
	require.NoError(t, db.Close())

	db, err = storage.OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()
	led, err = ledger.Open(ctx, db)
	require.NoError(t, err)

	p, err = Factory(led, pool, db, testConfig())()
	require.NoError(t, err)
	c := p.(*Currency)
	run(t, c, "ann", "ccbalance", "")
	assert.Equal(t, "CCMP: Hello ann, you have 100 shells.", run(t, c, "ann", "ccbalance", ""))
}
