// Package state provides keyed per-conversation storage for Telegram bots.
// It is domain-agnostic: a Store holds any value type under a chat or user id,
// with in-memory, YAML snapshot file and redis backends.
package state
