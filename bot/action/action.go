// Package action defines the navigation commands carried by inline buttons.
//
// A command travels as a callback key plus an optional payload, the same split
// telebot uses for data buttons ("\f<key>|<payload>"). It is decoded once at the
// transport boundary so the dialogue never splits strings itself.
package action

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind enumerates the supported navigation commands.
type Kind int

const (
	Unknown Kind = iota
	ShowMenuList
	RandomMenu
	SelectMenu
	Back
	SelectDish
	Page
)

// Callback keys, one per Kind.
const (
	KeyList = "list"
	KeyRand = "rand"
	KeyMenu = "menu"
	KeyBack = "back"
	KeyDish = "dish"
	KeyPage = "page"
)

// Keys lists every callback key in registration order.
var Keys = []string{KeyList, KeyRand, KeyMenu, KeyBack, KeyDish, KeyPage}

// ErrUnknown is returned for keys or payloads that do not form a command.
var ErrUnknown = errors.New("unknown action")

// Command is one decoded button press.
// Page is only meaningful in paged listings; it is -1 when the token carried none.
type Command struct {
	Kind   Kind
	MenuID string
	Index  int
	Page   int
}

func List() Command           { return Command{Kind: ShowMenuList} }
func Random() Command         { return Command{Kind: RandomMenu} }
func Menu(id string) Command  { return Command{Kind: SelectMenu, MenuID: id} }
func BackToMenus() Command    { return Command{Kind: Back} }
func Dish(index int) Command  { return Command{Kind: SelectDish, Index: index, Page: -1} }
func ToPage(page int) Command { return Command{Kind: Page, Page: page} }

// DishOnPage selects a dish from a paged listing and remembers the page for back navigation.
func DishOnPage(index, page int) Command {
	return Command{Kind: SelectDish, Index: index, Page: page}
}

// Key returns the callback key for c.
func (c Command) Key() string {
	switch c.Kind {
	case ShowMenuList:
		return KeyList
	case RandomMenu:
		return KeyRand
	case SelectMenu:
		return KeyMenu
	case Back:
		return KeyBack
	case SelectDish:
		return KeyDish
	case Page:
		return KeyPage
	}
	return ""
}

// Payload returns the data carried after the key.
func (c Command) Payload() string {
	switch c.Kind {
	case SelectMenu:
		return c.MenuID
	case SelectDish:
		if c.Page >= 0 {
			return strconv.Itoa(c.Index) + "|" + strconv.Itoa(c.Page)
		}
		return strconv.Itoa(c.Index)
	case Page:
		return strconv.Itoa(c.Page)
	}
	return ""
}

// String renders the command as "key" or "key|payload".
func (c Command) String() string {
	if p := c.Payload(); p != "" {
		return c.Key() + "|" + p
	}
	return c.Key()
}

// Decode turns a callback key and payload back into a Command.
func Decode(key, payload string) (Command, error) {
	key = strings.TrimSpace(key)
	switch key {
	case KeyList:
		return List(), nil
	case KeyRand:
		return Random(), nil
	case KeyBack:
		return BackToMenus(), nil
	case KeyMenu:
		id := strings.TrimSpace(payload)
		if id == "" {
			return Command{}, fmt.Errorf("%w: empty menu id", ErrUnknown)
		}
		return Menu(id), nil
	case KeyDish:
		idx, page, hasPage := strings.Cut(payload, "|")
		i, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return Command{}, fmt.Errorf("%w: dish index %q", ErrUnknown, idx)
		}
		if !hasPage {
			return Dish(i), nil
		}
		p, err := strconv.Atoi(strings.TrimSpace(page))
		if err != nil || p < 0 {
			return Command{}, fmt.Errorf("%w: page %q", ErrUnknown, page)
		}
		return DishOnPage(i, p), nil
	case KeyPage:
		p, err := strconv.Atoi(strings.TrimSpace(payload))
		if err != nil || p < 0 {
			return Command{}, fmt.Errorf("%w: page %q", ErrUnknown, payload)
		}
		return ToPage(p), nil
	}
	return Command{}, fmt.Errorf("%w: key %q", ErrUnknown, key)
}

// Parse decodes the "key|payload" form produced by String.
func Parse(token string) (Command, error) {
	key, payload, _ := strings.Cut(token, "|")
	return Decode(key, payload)
}
