package command

import (
	"testing"

	"github.com/parleybot/parley/internal/telegram"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := []struct {
		name    string
		text    string
		ok      bool
		cmdName string
		args    string
		mention string
	}{
		{"plain command", "/pasta", true, "pasta", "", ""},
		{"command with args", "/cmd arg1 arg2", true, "cmd", "arg1 arg2", ""},
		{"mention captured", "/cmd @bob hi", true, "cmd", "@bob hi", "bob"},
		{"first mention wins", "/pay @alice @bob 5", true, "pay", "@alice @bob 5", "alice"},
		{"bare prefix", "/", true, "", "", ""},
		{"not a command", "hello there", false, "", "", ""},
		{"empty text", "", false, "", "", ""},
		{"args trimmed", "/cmd   spaced out  ", true, "cmd", "spaced out", ""},
		{"newline separated args", "/newpasta Title\nBody text", true, "newpasta", "Title\nBody text", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, ok := Parse(tc.text, DefaultPrefix)
			assert.Equal(t, tc.ok, ok)
			if !ok {
				return
			}
			assert.Equal(t, tc.cmdName, cmd.Name)
			assert.Equal(t, tc.args, cmd.Args)
			assert.Equal(t, tc.mention, cmd.Mention)
		})
	}
}

func TestParseCustomPrefix(t *testing.T) {
	cmd, ok := Parse("!roll 2d6", '!')
	assert.True(t, ok)
	assert.Equal(t, "roll", cmd.Name)
	assert.Equal(t, "2d6", cmd.Args)

	_, ok = Parse("/roll 2d6", '!')
	assert.False(t, ok)
}

func TestFromMessage(t *testing.T) {
	msg := &telegram.Message{
		Text: " /ccpay @bob 10 ",
		Chat: &telegram.Chat{ID: 42},
		From: &telegram.User{ID: 9, Username: "alice"},
	}

	cmd, ok := FromMessage(msg, DefaultPrefix)
	assert.True(t, ok)
	assert.Equal(t, "ccpay", cmd.Name)
	assert.Equal(t, "@bob 10", cmd.Args)
	assert.Equal(t, "bob", cmd.Mention)
	assert.Equal(t, int64(42), cmd.Chat.ID)
	assert.Equal(t, "alice", cmd.From.Username)
}
