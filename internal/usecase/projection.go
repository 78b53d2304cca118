package usecase

import (
	"strings"

	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
	"github.com/thatssomoneybaby/nba-site/internal/domain/statmap"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
)

// ExtractPlayerRecords pulls every raw player object out of a league players
// or roster payload. A record qualifies when it carries a player_id or a
// full-name object.
func ExtractPlayerRecords(payload any) []deepscan.Node {
	wrappers := deepscan.Collect(payload, func(n deepscan.Node) bool {
		p, ok := n["player"].(map[string]any)
		if !ok {
			return false
		}
		if deepscan.ID(p["player_id"]) != "" {
			return true
		}
		return fullName(p) != ""
	})

	records := make([]deepscan.Node, 0, len(wrappers))
	for _, wrapper := range wrappers {
		records = append(records, wrapper["player"].(map[string]any))
	}
	return records
}

// ProjectRow normalizes one raw player record into a board row. Every
// missing or malformed field degrades to zero or empty, never to an error:
// the provider's schema is not contractually stable and a half-usable record
// still earns a row.
func ProjectRow(record deepscan.Node, labels statmap.Labels, weights statmap.Weights) player.Row {
	name := fullName(record)

	id := deepscan.ID(record["player_id"])
	if id == "" {
		id = deepscan.ID(record["editorial_player_id"])
	}
	if id == "" {
		// Synthetic fallback. Two differently spelled records sharing a
		// normalized name will collide here; the source leaves that
		// undefined, so the collision is accepted.
		id = player.NormalizeName(name)
	}

	row := player.Row{
		ID:       id,
		Name:     name,
		Team:     deepscan.String(record, "editorial_team_abbr", "editorial_team_full_name"),
		Position: position(record),
	}

	stats := FlattenStats(record)
	row.Games = statValue(stats, labels, statmap.CategoryGames)
	row.Minutes = statValue(stats, labels, statmap.CategoryMinutes)
	row.Points = statValue(stats, labels, statmap.CategoryPoints)
	row.Rebounds = statValue(stats, labels, statmap.CategoryRebounds)
	row.Assists = statValue(stats, labels, statmap.CategoryAssists)
	row.Steals = statValue(stats, labels, statmap.CategorySteals)
	row.Blocks = statValue(stats, labels, statmap.CategoryBlocks)
	row.Fantasy = fantasyPoints(stats, labels, weights)

	return row
}

// FlattenStats gathers every (stat_id, value) pair found in any "stats" bin
// of the record into one lookup table. The provider nests bins two ways;
// when the same stat id shows up in more than one bin the last value wins.
func FlattenStats(record deepscan.Node) map[string]float64 {
	out := make(map[string]float64)
	deepscan.Walk(record, func(n deepscan.Node) {
		bin, ok := n["stats"].([]any)
		if !ok {
			return
		}
		for _, item := range bin {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if inner, ok := entry["stat"].(map[string]any); ok {
				entry = inner
			}
			id := deepscan.ID(entry["stat_id"])
			if id == "" {
				continue
			}
			value, _ := deepscan.NumberField(entry, "value")
			out[id] = value
		}
	})
	return out
}

func fantasyPoints(stats map[string]float64, labels statmap.Labels, weights statmap.Weights) float64 {
	if id, ok := labels[statmap.CategoryFantasy]; ok {
		if direct, present := stats[id]; present {
			return direct
		}
	}
	if len(weights) == 0 {
		return 0
	}
	var total float64
	for id, value := range stats {
		if weight, ok := weights[id]; ok {
			total += weight * value
		}
	}
	return total
}

func statValue(stats map[string]float64, labels statmap.Labels, category statmap.Category) float64 {
	id, ok := labels[category]
	if !ok {
		return 0
	}
	return stats[id]
}

func fullName(record deepscan.Node) string {
	switch name := record["name"].(type) {
	case map[string]any:
		return deepscan.String(name, "full")
	case string:
		return name
	default:
		return ""
	}
}

func position(record deepscan.Node) string {
	if pos := deepscan.String(record, "display_position", "primary_position"); pos != "" {
		return pos
	}
	eligible, ok := record["eligible_positions"].([]any)
	if !ok {
		return ""
	}
	parts := make([]string, 0, len(eligible))
	for _, item := range eligible {
		switch v := item.(type) {
		case string:
			parts = append(parts, v)
		case map[string]any:
			if pos := deepscan.String(v, "position"); pos != "" {
				parts = append(parts, pos)
			}
		}
	}
	return strings.Join(parts, ",")
}
