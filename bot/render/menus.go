package render

import (
	"strings"

	"github.com/m3rciful/menubot/bot/action"
	"github.com/m3rciful/menubot/bot/catalog"
	"github.com/m3rciful/menubot/core/telegram/format"
)

// Welcome is the entry prompt sent by /start.
func Welcome() View {
	return View{
		Text:     "What’s on the Menu today?",
		Keyboard: [][]Button{row(Button{Text: LabelSeeMenus, Action: action.List()})},
	}
}

// UseButtons answers free text.
func UseButtons() View {
	return View{
		Text:     "Please use the buttons below 😊",
		Keyboard: [][]Button{row(Button{Text: LabelSeeMenus, Action: action.List()})},
	}
}

// MenuList offers a random pick followed by one button per menu.
func MenuList(menus []catalog.Menu) View {
	var b strings.Builder
	b.WriteString("Choose a Menu:")
	for _, m := range menus {
		if m.AudienceNote == "" {
			continue
		}
		b.WriteString("\n• ")
		b.WriteString(format.Bold(m.Name))
		b.WriteString(": ")
		b.WriteString(format.EscapeHTML(m.AudienceNote))
	}
	kb := [][]Button{row(Button{Text: LabelRandom, Action: action.Random()})}
	for _, m := range menus {
		kb = append(kb, row(Button{Text: m.Name, Action: action.Menu(m.ID)}))
	}
	return View{Text: b.String(), HTML: true, Keyboard: kb}
}

// MenuChosen collapses the menu list message to the picked menu's name.
func MenuChosen(m catalog.Menu) View {
	return View{Text: "🍽️ " + format.Bold(m.Name), HTML: true}
}

// Unavailable is shown for a menu id that is not in the catalog.
func Unavailable() View {
	return View{
		Text:     "Sorry, that menu is unavailable.",
		Keyboard: [][]Button{row(Button{Text: LabelSeeMenus, Action: action.List()})},
	}
}

// Failure is the generic reply for unexpected errors.
func Failure() View {
	return View{Text: "Something went wrong, please try again."}
}
