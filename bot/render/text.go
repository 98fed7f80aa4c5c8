package render

import (
	"fmt"
	"strconv"
	"strings"
)

// Labels shared across views.
const (
	LabelSeeMenus     = "🍽️ See menus"
	LabelRandom       = "🎲 Random pick"
	LabelBackToMenus  = "↩️ Back to menus"
	LabelBackToDishes = "⬅️ Back to dishes"
	LabelPrev         = "« Prev"
	LabelNext         = "Next »"
)

// Price formats a non-negative amount as "$1,234.50". Zero renders as "".
func Price(p float64) string {
	if p <= 0 {
		return ""
	}
	cents := int64(p*100 + 0.5)
	whole := strconv.FormatInt(cents/100, 10)
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("$%s.%02d", b.String(), cents%100)
}

// dishLabel is the dish name with its price, if any.
func dishLabel(name string, price float64) string {
	if p := Price(price); p != "" {
		return name + " — " + p
	}
	return name
}
