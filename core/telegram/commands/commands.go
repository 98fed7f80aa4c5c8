// Package commands describes slash commands before they are bound to a bot.
package commands

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command with its handler and menu metadata.
// Aliases may be written with or without the leading slash.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}

// Listed reports whether the command belongs in the public command menu.
func (c Command) Listed() bool {
	return !c.Hidden && !c.AdminOnly
}

// Matches reports whether word, already lowercased and slash-prefixed,
// names one of the aliases.
func (c Command) Matches(word string) bool {
	for _, alias := range c.Aliases {
		if "/"+strings.TrimLeft(strings.ToLower(alias), "/") == word {
			return true
		}
	}
	return false
}

// Endpoints returns the canonical name followed by every alias in slash form.
func (c Command) Endpoints(name string) []string {
	out := make([]string, 0, 1+len(c.Aliases))
	out = append(out, name)
	for _, alias := range c.Aliases {
		out = append(out, "/"+strings.TrimLeft(alias, "/"))
	}
	return out
}
