package render

import (
	"fmt"
	"strings"

	"github.com/m3rciful/menubot/bot/catalog"
	"github.com/m3rciful/menubot/bot/journal"
	"github.com/m3rciful/menubot/core/telegram/format"
)

// FAQ wraps plain FAQ text.
func FAQ(text string) View {
	return View{Text: format.EscapeHTML(text), HTML: true, DisablePreview: true}
}

// History lists a user's past picks, newest first.
func History(items []journal.Selection) View {
	if len(items) == 0 {
		return View{Text: "You haven't picked any dishes yet."}
	}
	var b strings.Builder
	b.WriteString(format.Bold("Your recent picks"))
	for _, s := range items {
		fmt.Fprintf(&b, "\n%s · %s (%s)", s.Date, format.EscapeHTML(s.Dish), format.EscapeHTML(s.Menu))
		if s.ChallengeID != "" {
			b.WriteString(" " + format.Code(s.ChallengeID))
		}
	}
	return View{Text: b.String(), HTML: true}
}

// TimezoneSaved confirms a recorded offset.
func TimezoneSaved(offset string) View {
	return View{Text: fmt.Sprintf("Saved your time zone as UTC%s.", offset)}
}

// TimezoneUsage explains the /timezone argument.
func TimezoneUsage() View {
	return View{Text: "Usage: /timezone +HH:MM (for example /timezone +08:00)"}
}

// SlotRow is one line of the operator slot report.
type SlotRow struct {
	Menu   catalog.Menu
	Cutoff catalog.Clock
	Dishes int
}

// SlotReport shows the active bucket of every menu.
func SlotReport(now catalog.Clock, offset string, rows []SlotRow) View {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (UTC%s)", format.Bold("Now"), now, offset)
	for _, r := range rows {
		fmt.Fprintf(&b, "\n%s: %s, %d dishes", format.EscapeHTML(r.Menu.Name), r.Cutoff, r.Dishes)
	}
	return View{Text: b.String(), HTML: true}
}
