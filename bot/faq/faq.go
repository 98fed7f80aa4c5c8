// Package faq supplies the text behind the /faq command.
package faq

import (
	"fmt"
	"os"
	"strings"
)

// Default is used when no FAQ file is configured.
const Default = `How does it work?
Open the menus, pick one (or let the dice pick), then choose a dish from what is being served right now. You'll get a challenge for that dish.

Why do the dishes change during the day?
Each dish belongs to a service window. The list shows the window that closes next.

How do I submit my challenge?
Follow the link sent after your pick and quote your submission code.

Where can I see my past picks?
Use /history.`

// Source returns FAQ text.
type Source interface {
	Text() string
}

// Static is a fixed FAQ text.
type Static string

func (s Static) Text() string { return string(s) }

// Load reads the FAQ from path. An empty path yields the built-in text.
func Load(path string) (Source, error) {
	if strings.TrimSpace(path) == "" {
		return Static(Default), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faq: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return Static(Default), nil
	}
	return Static(text), nil
}
