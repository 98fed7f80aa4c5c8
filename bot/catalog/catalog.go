// Package catalog holds the menus and dishes the bot offers. A Catalog is built once at startup
// and never changes afterwards.
package catalog

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
)

// ErrEmptyCatalog is returned when no menu survives loading.
var ErrEmptyCatalog = errors.New("catalog: no menus with dishes")

// Menu is a named grouping of dishes.
type Menu struct {
	ID           string
	Name         string
	AudienceNote string
}

// Dish is an orderable item with its challenge and daily cutoff time.
type Dish struct {
	// ID is "<menu id>/<position in the menu>", stable for the process lifetime.
	ID            string
	MenuID        string
	MenuName      string
	Name          string
	Price         float64
	Tagline       string
	NutritionNote string
	Challenge     string
	ChallengeID   string
	BestTiming    string
	Cutoff        Clock
}

// Catalog is an immutable set of menus and their dishes.
type Catalog struct {
	menus  []Menu
	byID   map[string]int
	dishes map[string][]Dish
	dishBy map[string]Dish
}

// New builds a Catalog. Dishes referencing unknown menus are ignored and menus without
// dishes are dropped. Dish IDs are assigned here; any incoming ID is overwritten.
func New(menus []Menu, dishes []Dish) (*Catalog, error) {
	c := &Catalog{
		byID:   make(map[string]int),
		dishes: make(map[string][]Dish),
		dishBy: make(map[string]Dish),
	}

	known := make(map[string]Menu, len(menus))
	for _, m := range menus {
		if m.ID == "" || m.Name == "" {
			continue
		}
		if _, dup := known[m.ID]; dup {
			continue
		}
		known[m.ID] = m
	}

	for _, d := range dishes {
		menu, ok := known[d.MenuID]
		if !ok || d.Name == "" {
			continue
		}
		if d.MenuName == "" {
			d.MenuName = menu.Name
		}
		d.ID = dishID(d.MenuID, len(c.dishes[d.MenuID]))
		c.dishes[d.MenuID] = append(c.dishes[d.MenuID], d)
		c.dishBy[d.ID] = d
	}

	for id, m := range known {
		if len(c.dishes[id]) > 0 {
			c.menus = append(c.menus, m)
		}
	}
	if len(c.menus) == 0 {
		return nil, ErrEmptyCatalog
	}
	sort.Slice(c.menus, func(i, j int) bool {
		a, b := strings.ToLower(c.menus[i].Name), strings.ToLower(c.menus[j].Name)
		if a != b {
			return a < b
		}
		return c.menus[i].ID < c.menus[j].ID
	})
	for i, m := range c.menus {
		c.byID[m.ID] = i
	}
	return c, nil
}

func dishID(menuID string, pos int) string {
	return menuID + "/" + strconv.Itoa(pos)
}

// Menus returns every menu sorted by name. The slice is a copy.
func (c *Catalog) Menus() []Menu {
	return append([]Menu(nil), c.menus...)
}

// MenuIDs returns the ids of all menus in display order.
func (c *Catalog) MenuIDs() []string {
	ids := make([]string, len(c.menus))
	for i, m := range c.menus {
		ids[i] = m.ID
	}
	return ids
}

// Len reports the number of menus.
func (c *Catalog) Len() int { return len(c.menus) }

// Menu looks up a menu by id.
func (c *Catalog) Menu(id string) (Menu, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Menu{}, false
	}
	return c.menus[i], true
}

// Dishes returns the dishes of a menu in catalog order. The slice is a copy.
func (c *Catalog) Dishes(menuID string) []Dish {
	return append([]Dish(nil), c.dishes[menuID]...)
}

// Dish looks up a dish by id.
func (c *Catalog) Dish(id string) (Dish, bool) {
	d, ok := c.dishBy[id]
	return d, ok
}

// DishCount reports the total number of dishes.
func (c *Catalog) DishCount() int { return len(c.dishBy) }

// Random picks one menu id from the whole catalog.
func (c *Catalog) Random(rng *rand.Rand) string {
	return c.menus[rng.IntN(len(c.menus))].ID
}

// Sample returns up to n distinct menu ids chosen at random, in display order.
func (c *Catalog) Sample(rng *rand.Rand, n int) []string {
	if n <= 0 {
		return nil
	}
	idx := rng.Perm(len(c.menus))
	if n < len(idx) {
		idx = idx[:n]
	}
	sort.Ints(idx)
	ids := make([]string, len(idx))
	for i, k := range idx {
		ids[i] = c.menus[k].ID
	}
	return ids
}
