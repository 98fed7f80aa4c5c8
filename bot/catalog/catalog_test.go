package catalog

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const menusJSON = `[
  {"Menu unique ID": "M1", "Menu": "Breakfast Club", "Audience": "early risers"},
  {"Menu unique ID": 2, "Menu": "aperitivo"},
  {"Menu unique ID": "M3", "Menu": "Empty Menu"},
  {"Menu unique ID": "", "Menu": "No id"}
]`

const dishesJSON = `[
  {"Menu unique ID": "M1", "Dish": "Pancakes", "Price": 4.5, "Cutoff time": "11:00 AM", "Challenge": "Wake up", "Challenge Unique ID": "C1"},
  {"Menu unique ID": "M1", "Dish": "Omelette", "Price": "abc", "Cutoff time": "14:00"},
  {"Menu unique ID": "M1", "Dish": "Ghost", "Price": 1, "Cutoff time": "whenever"},
  {"Menu unique ID": "2", "Dish": "Spritz", "Price": "7", "Cutoff time": "8:00:00 pm"},
  {"Menu unique ID": "2", "Dish": "", "Price": 3, "Cutoff time": "20:00"},
  {"Menu unique ID": "M9", "Dish": "Orphan", "Price": 3, "Cutoff time": "20:00"}
]`

func loadFixture(t *testing.T) (*Catalog, LoadStats) {
	t.Helper()
	cat, stats, err := Load(strings.NewReader(menusJSON), strings.NewReader(dishesJSON))
	require.NoError(t, err)
	return cat, stats
}

func TestLoadJoinsAndFilters(t *testing.T) {
	cat, stats := loadFixture(t)

	require.Equal(t, 2, cat.Len())
	assert.Equal(t, []string{"2", "M1"}, cat.MenuIDs(), "menus are sorted by name case-insensitively")
	assert.Equal(t, 3, stats.Dishes)
	assert.Equal(t, 1, stats.BadCutoffs)
	assert.Equal(t, 3, stats.SkippedDishes)
	assert.Equal(t, 1, stats.DroppedMenus)

	_, ok := cat.Menu("M3")
	assert.False(t, ok, "menus without dishes are removed")

	m1, ok := cat.Menu("M1")
	require.True(t, ok)
	assert.Equal(t, "early risers", m1.AudienceNote)
}

func TestLoadUnparseableCutoffNeverAppears(t *testing.T) {
	cat, _ := loadFixture(t)
	for _, id := range cat.MenuIDs() {
		for _, d := range cat.Dishes(id) {
			assert.NotEqual(t, "Ghost", d.Name)
		}
	}
}

func TestLoadTolerantPrice(t *testing.T) {
	cat, _ := loadFixture(t)
	dishes := cat.Dishes("M1")
	require.Len(t, dishes, 2)
	assert.Equal(t, 4.5, dishes[0].Price)
	assert.Equal(t, "Omelette", dishes[1].Name)
	assert.Zero(t, dishes[1].Price)

	spritz := cat.Dishes("2")
	require.Len(t, spritz, 1)
	assert.Equal(t, 7.0, spritz[0].Price)
	assert.Equal(t, NewClock(20, 0, 0), spritz[0].Cutoff)
	assert.Equal(t, "aperitivo", spritz[0].MenuName, "menu name falls back to the menu list")
}

func TestDishIDsAreStable(t *testing.T) {
	cat, _ := loadFixture(t)
	d, ok := cat.Dish("M1/1")
	require.True(t, ok)
	assert.Equal(t, "Omelette", d.Name)
	_, ok = cat.Dish("M1/7")
	assert.False(t, ok)
}

func TestNewEmptyCatalog(t *testing.T) {
	_, err := New([]Menu{{ID: "a", Name: "A"}}, nil)
	assert.ErrorIs(t, err, ErrEmptyCatalog)

	_, _, err = Load(strings.NewReader(`[]`), strings.NewReader(`[]`))
	assert.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestSampleIsBoundedAndDistinct(t *testing.T) {
	menus := []Menu{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}, {ID: "c", Name: "C"}, {ID: "d", Name: "D"}, {ID: "e", Name: "E"}}
	var dishes []Dish
	for _, m := range menus {
		dishes = append(dishes, Dish{MenuID: m.ID, Name: "x"})
	}
	cat, err := New(menus, dishes)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 50; i++ {
		ids := cat.Sample(rng, 3)
		require.Len(t, ids, 3)
		seen := map[string]bool{}
		for _, id := range ids {
			_, ok := cat.Menu(id)
			require.True(t, ok)
			require.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
	assert.Len(t, cat.Sample(rng, 10), 5)
	assert.Empty(t, cat.Sample(rng, 0))
}

func TestLoadFilesMissing(t *testing.T) {
	dir := t.TempDir()
	menus := filepath.Join(dir, "Menulist.json")
	require.NoError(t, os.WriteFile(menus, []byte(menusJSON), 0o644))

	_, _, err := LoadFiles(t.Context(), menus, filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{"11:00 AM", NewClock(11, 0, 0)},
		{"2:30:15 pm", NewClock(14, 30, 15)},
		{"12:05 AM", NewClock(0, 5, 0)},
		{"20:00:00", NewClock(20, 0, 0)},
		{" 7:45 ", NewClock(7, 45, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "noon", "25:00", "11:00 XM"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
	assert.Equal(t, "14:30", NewClock(14, 30, 0).String())
	assert.Equal(t, "14:30:15", NewClock(14, 30, 15).String())
}
