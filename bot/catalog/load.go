package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/m3rciful/menubot/core/logger"
)

// text accepts a JSON string, number, bool or null and keeps it as trimmed text.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*t = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(strings.TrimSpace(s))
	case b[0] == '{' || b[0] == '[':
		*t = ""
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err == nil {
			*t = text(n.String())
			return nil
		}
		*t = text(b)
	}
	return nil
}

// price is tolerant: anything that is not a non-negative number becomes 0.
type price float64

func (p *price) UnmarshalJSON(b []byte) error {
	var raw text
	if err := raw.UnmarshalJSON(b); err != nil {
		*p = 0
		return nil
	}
	s := strings.TrimPrefix(strings.ReplaceAll(string(raw), ",", ""), "$")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		*p = 0
		return nil
	}
	*p = price(v)
	return nil
}

type menuRecord struct {
	ID       text `json:"Menu unique ID"`
	Name     text `json:"Menu"`
	Audience text `json:"Audience"`
}

type dishRecord struct {
	MenuID      text  `json:"Menu unique ID"`
	MenuName    text  `json:"Menu"`
	Dish        text  `json:"Dish"`
	Price       price `json:"Price"`
	Tagline     text  `json:"Tag line"`
	Nutrition   text  `json:"Nutrition fact"`
	Challenge   text  `json:"Challenge"`
	ChallengeID text  `json:"Challenge Unique ID"`
	BestTiming  text  `json:"Best timing"`
	Cutoff      text  `json:"Cutoff time"`
}

// LoadStats summarises what happened while reading the record sets.
type LoadStats struct {
	Menus         int
	Dishes        int
	SkippedDishes int
	BadCutoffs    int
	DroppedMenus  int
}

// LoadFiles reads the menu list and the dish list from disk. A missing file is an error.
func LoadFiles(ctx context.Context, menusPath, dishesPath string) (*Catalog, LoadStats, error) {
	mf, err := os.Open(menusPath)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("catalog: open menus: %w", err)
	}
	defer mf.Close()
	df, err := os.Open(dishesPath)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("catalog: open dishes: %w", err)
	}
	defer df.Close()

	cat, stats, err := Load(mf, df)
	level := slog.LevelInfo
	if err != nil {
		level = slog.LevelError
	}
	logger.LogEvent(ctx, logger.Catalog, level, "catalog.loaded",
		slog.String("status", logger.Status(err)),
		slog.Int("menus", stats.Menus),
		slog.Int("dishes", stats.Dishes),
		slog.Int("skipped_dishes", stats.SkippedDishes),
		slog.Int("bad_cutoffs", stats.BadCutoffs),
		slog.Int("dropped_menus", stats.DroppedMenus),
	)
	return cat, stats, err
}

// Load decodes the two record sets and joins them on the menu id.
func Load(menus, dishes io.Reader) (*Catalog, LoadStats, error) {
	var stats LoadStats

	var menuRows []menuRecord
	if err := json.NewDecoder(menus).Decode(&menuRows); err != nil {
		return nil, stats, fmt.Errorf("catalog: decode menus: %w", err)
	}
	var dishRows []dishRecord
	if err := json.NewDecoder(dishes).Decode(&dishRows); err != nil {
		return nil, stats, fmt.Errorf("catalog: decode dishes: %w", err)
	}

	ms := make([]Menu, 0, len(menuRows))
	for _, r := range menuRows {
		if r.ID == "" || r.Name == "" {
			continue
		}
		ms = append(ms, Menu{ID: string(r.ID), Name: string(r.Name), AudienceNote: string(r.Audience)})
	}

	ds := make([]Dish, 0, len(dishRows))
	for _, r := range dishRows {
		if r.MenuID == "" || r.Dish == "" {
			stats.SkippedDishes++
			continue
		}
		cutoff, err := ParseClock(string(r.Cutoff))
		if err != nil {
			stats.BadCutoffs++
			stats.SkippedDishes++
			continue
		}
		ds = append(ds, Dish{
			MenuID:        string(r.MenuID),
			MenuName:      string(r.MenuName),
			Name:          string(r.Dish),
			Price:         float64(r.Price),
			Tagline:       string(r.Tagline),
			NutritionNote: string(r.Nutrition),
			Challenge:     string(r.Challenge),
			ChallengeID:   string(r.ChallengeID),
			BestTiming:    string(r.BestTiming),
			Cutoff:        cutoff,
		})
	}

	cat, err := New(ms, ds)
	if err != nil {
		stats.DroppedMenus = len(ms)
		return nil, stats, err
	}
	stats.Menus = cat.Len()
	stats.Dishes = cat.DishCount()
	stats.DroppedMenus = len(ms) - cat.Len()
	stats.SkippedDishes += len(ds) - cat.DishCount()
	return cat, stats, nil
}
