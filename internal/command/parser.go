// Package command turns raw inbound text into routable commands.
package command

import (
	"regexp"
	"strings"

	"github.com/parleybot/parley/internal/telegram"
)

// DefaultPrefix is the trigger character commands must start with.
const DefaultPrefix byte = '/'

var mentionPattern = regexp.MustCompile(`@(\w+)`)

// Command is a parsed instruction extracted from a message.
//
// Name is the first whitespace-delimited token with the prefix stripped and is
// never empty for a routable command. Args is the remainder, trimmed; it may
// be empty. Mention holds the word portion of the first "@word" token in Args,
// if any; the token itself stays in Args.
type Command struct {
	Name    string
	Args    string
	Mention string
	Chat    *telegram.Chat
	From    *telegram.User
}

// Parse splits raw text into a Command. ok is false when the text does not
// start with the prefix. Text equal to just the prefix parses with an empty
// Name; callers must drop such commands instead of routing them.
func Parse(text string, prefix byte) (Command, bool) {
	if len(text) == 0 || text[0] != prefix {
		return Command{}, false
	}

	body := text[1:]
	name := body
	rest := ""
	if i := strings.IndexFunc(body, isSpace); i >= 0 {
		name = body[:i]
		rest = body[i+1:]
	}

	cmd := Command{
		Name: name,
		Args: strings.TrimSpace(rest),
	}
	if m := mentionPattern.FindStringSubmatch(cmd.Args); m != nil {
		cmd.Mention = m[1]
	}
	return cmd, true
}

// FromMessage parses a message's text and attaches its chat and sender.
func FromMessage(msg *telegram.Message, prefix byte) (Command, bool) {
	cmd, ok := Parse(strings.TrimSpace(msg.Text), prefix)
	if !ok {
		return Command{}, false
	}
	cmd.Chat = msg.Chat
	cmd.From = msg.From
	return cmd, true
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
