package render

import (
	"fmt"
	"strings"

	"github.com/m3rciful/menubot/bot/action"
	"github.com/m3rciful/menubot/bot/catalog"
	"github.com/m3rciful/menubot/bot/schedule"
	"github.com/m3rciful/menubot/core/telegram/format"
)

// NoDishesText is shown when the active slot is empty.
const NoDishesText = "No dishes available right now."

const selectPerRow = 4

// SlotList renders the dishes of the active slot with numbered select buttons.
// An empty slot renders the no-dishes notice with only the back button.
func SlotList(m catalog.Menu, slot schedule.Slot) View {
	back := row(Button{Text: LabelBackToMenus, Action: action.BackToMenus()})
	if slot.Empty() {
		return View{
			Text:     format.Bold(m.Name) + "\n" + NoDishesText,
			HTML:     true,
			Keyboard: [][]Button{back},
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s: until %s\n", format.Bold(m.Name), slot.Cutoff)
	selects := make([]Button, 0, len(slot.Dishes))
	for i, d := range slot.Dishes {
		fmt.Fprintf(&b, "\n%d. %s", i+1, format.EscapeHTML(dishLabel(d.Name, d.Price)))
		if d.Tagline != "" {
			b.WriteString("\n   " + format.Italic(d.Tagline))
		}
		selects = append(selects, Button{Text: fmt.Sprint(i + 1), Action: action.Dish(i)})
	}
	b.WriteString("\n\nPick a dish below to see its challenge:")

	kb := chunk(selects, selectPerRow)
	kb = append(kb, back)
	return View{Text: b.String(), HTML: true, Keyboard: kb, DisablePreview: true}
}

// PageBounds returns the [start, end) range of page and the page count.
// page is clamped into range.
func PageBounds(total, page, size int) (start, end, pages, clamped int) {
	if size <= 0 {
		size = 1
	}
	pages = (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	clamped = min(max(page, 0), pages-1)
	start = clamped * size
	end = min(start+size, total)
	return start, end, pages, clamped
}

// PagedList renders one page of a menu's full dish list. Select tokens carry the
// index within the page and the page itself.
func PagedList(m catalog.Menu, dishes []catalog.Dish, page, size int) View {
	back := row(Button{Text: LabelBackToMenus, Action: action.BackToMenus()})
	if len(dishes) == 0 {
		return View{Text: format.Bold(m.Name) + "\n" + NoDishesText, HTML: true, Keyboard: [][]Button{back}}
	}
	start, end, pages, page := PageBounds(len(dishes), page, size)

	text := fmt.Sprintf("%s — %d dishes\nPage %d/%d\nPick a dish below to see its challenge:",
		format.Bold(m.Name), len(dishes), page+1, pages)

	var kb [][]Button
	for i := start; i < end; i++ {
		kb = append(kb, row(Button{Text: dishLabel(dishes[i].Name, dishes[i].Price), Action: action.DishOnPage(i-start, page)}))
	}
	var nav []Button
	if page > 0 {
		nav = append(nav, Button{Text: LabelPrev, Action: action.ToPage(page - 1)})
	}
	if end < len(dishes) {
		nav = append(nav, Button{Text: LabelNext, Action: action.ToPage(page + 1)})
	}
	if len(nav) > 0 {
		kb = append(kb, nav)
	}
	kb = append(kb, back)
	return View{Text: text, HTML: true, Keyboard: kb, DisablePreview: true}
}

// DishDetail shows one dish. backPage >= 0 adds a button back to that page of the list.
func DishDetail(d catalog.Dish, backPage int) View {
	var b strings.Builder
	b.WriteString(format.Bold(d.Name))
	if p := Price(d.Price); p != "" {
		b.WriteString(" — " + p)
	}
	if d.MenuName != "" {
		b.WriteString("\n" + format.EscapeHTML(d.MenuName))
	}
	if d.Tagline != "" {
		b.WriteString("\n\n" + format.Italic(d.Tagline))
	}
	if d.NutritionNote != "" {
		b.WriteString("\n🥗 " + format.EscapeHTML(d.NutritionNote))
	}
	if d.BestTiming != "" {
		b.WriteString("\n⏰ Best timing: " + format.EscapeHTML(d.BestTiming))
	}

	var kb [][]Button
	if backPage >= 0 {
		kb = append(kb, row(Button{Text: LabelBackToDishes, Action: action.ToPage(backPage)}))
	}
	kb = append(kb, row(Button{Text: LabelBackToMenus, Action: action.BackToMenus()}))
	return View{Text: b.String(), HTML: true, Keyboard: kb, DisablePreview: true}
}

// Challenge is the first follow-up after a dish is picked.
func Challenge(d catalog.Dish) View {
	text := "🥇 Challenge for " + format.Bold(d.Name)
	if d.Challenge != "" {
		text += "\n\n" + format.EscapeHTML(d.Challenge)
	}
	return View{Text: text, HTML: true}
}

// Submission tells the user where and by when to submit, and the code to quote.
func Submission(url string, windowHours int, code string) View {
	var b strings.Builder
	b.WriteString("🍽️ Enjoy your meal!\n")
	fmt.Fprintf(&b, "You have %d hours to complete the challenge and submit your result here to get a Persona Card, a snapshot of your mindset in action:\n", windowHours)
	b.WriteString(format.Link(url, ""))
	if code != "" {
		b.WriteString("\n\nYour submission code: " + format.Code(code))
	}
	return View{Text: b.String(), HTML: true, DisablePreview: true}
}
