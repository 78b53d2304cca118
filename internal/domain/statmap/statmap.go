// Package statmap resolves a league's opaque numeric stat identifiers into
// the fixed categories the draft board renders. Matching is always on the
// human-readable label, never on the numeric id.
package statmap

import (
	"sort"
	"strconv"
	"strings"

	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
)

// Category is one of the fixed stat columns.
type Category string

const (
	CategoryGames    Category = "GP"
	CategoryMinutes  Category = "MIN"
	CategoryPoints   Category = "PTS"
	CategoryRebounds Category = "REB"
	CategoryAssists  Category = "AST"
	CategorySteals   Category = "STL"
	CategoryBlocks   Category = "BLK"
	CategoryFantasy  Category = "FPTS"
)

// Categories lists every resolvable category in render order.
var Categories = []Category{
	CategoryGames,
	CategoryMinutes,
	CategoryFantasy,
	CategoryPoints,
	CategoryRebounds,
	CategoryAssists,
	CategorySteals,
	CategoryBlocks,
}

// Labels maps resolved categories to the league's stat id. A category absent
// from the map is unavailable in this league and contributes 0 downstream.
type Labels map[Category]string

// Weights maps stat ids to linear fantasy-point weights. Only consulted when
// the league exposes no direct fantasy-points stat.
type Weights map[string]float64

type labelEntry struct {
	statID string
	label  string
}

// Build scans a league settings payload for {stat_id, label} definitions and
// {stat_id, value} modifiers. Labels may sit under name, display_name, or
// abbr. Per category the first matching entry wins; entries are ordered by
// stat id before resolution so a payload where several ids satisfy one rule
// resolves the same way on every run.
func Build(settings any) (Labels, Weights) {
	var entries []labelEntry
	weights := make(Weights)

	deepscan.Walk(settings, func(n deepscan.Node) {
		id := deepscan.ID(n["stat_id"])
		if id == "" {
			return
		}
		if label := deepscan.String(n, "display_name", "name", "abbr"); label != "" {
			entries = append(entries, labelEntry{statID: id, label: strings.ToUpper(label)})
		}
		if value, ok := deepscan.NumberField(n, "value"); ok {
			if _, isString := n["value"].(string); !isString {
				weights[id] = value
			}
		}
	})

	sort.SliceStable(entries, func(i, j int) bool {
		return statIDLess(entries[i].statID, entries[j].statID)
	})

	labels := make(Labels, len(Categories))
	for _, category := range Categories {
		for _, entry := range entries {
			if matches(category, entry.label) {
				labels[category] = entry.statID
				break
			}
		}
	}

	return labels, weights
}

// statIDLess orders stat ids numerically when both parse, lexically otherwise.
func statIDLess(a, b string) bool {
	na, errA := strconv.ParseFloat(a, 64)
	nb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		if na != nb {
			return na < nb
		}
		return a < b
	}
	return a < b
}

func matches(category Category, label string) bool {
	switch category {
	case CategoryGames:
		return label == "GP" || strings.Contains(label, "GAMES PLAYED")
	case CategoryMinutes:
		return label == "MIN" || strings.Contains(label, "MINUTES")
	case CategoryPoints:
		// "Fantasy Points" style labels belong to CategoryFantasy only.
		if strings.Contains(label, "FANTASY") {
			return false
		}
		return strings.Contains(label, "PTS") || strings.Contains(label, "POINTS")
	case CategoryRebounds:
		return label == "REB" || strings.Contains(label, "REBOUNDS")
	case CategoryAssists:
		return label == "AST" || strings.Contains(label, "ASSISTS")
	case CategorySteals:
		return label == "STL" || strings.Contains(label, "STEALS")
	case CategoryBlocks:
		return label == "BLK" || strings.Contains(label, "BLOCKS")
	case CategoryFantasy:
		return strings.Contains(label, "FANTASY") && strings.Contains(label, "POINT")
	default:
		return false
	}
}
