// Package render turns catalog entities into message text and button layouts.
//
// Everything here is a pure function of its inputs. Text is Telegram HTML with all
// catalog strings escaped; buttons carry decoded action.Commands, not raw tokens.
package render

import (
	"github.com/m3rciful/menubot/bot/action"
)

// Button is one inline keyboard button.
type Button struct {
	Text   string
	Action action.Command
}

// View is a complete message: text plus an optional inline keyboard.
type View struct {
	Text           string
	HTML           bool
	Keyboard       [][]Button
	DisablePreview bool
}

// Buttons returns every button in row order.
func (v View) Buttons() []Button {
	var out []Button
	for _, row := range v.Keyboard {
		out = append(out, row...)
	}
	return out
}

// HasAction reports whether any button carries a command of kind k.
func (v View) HasAction(k action.Kind) bool {
	for _, b := range v.Buttons() {
		if b.Action.Kind == k {
			return true
		}
	}
	return false
}

func row(buttons ...Button) []Button { return buttons }

// chunk lays buttons out with up to n per row.
func chunk(buttons []Button, n int) [][]Button {
	if n <= 1 {
		n = 1
	}
	var rows [][]Button
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return rows
}
