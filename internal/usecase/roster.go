package usecase

import (
	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
)

// MatchRoster reconciles a raw team-roster payload against the currently
// loaded rows and returns the local ids of "my roster".
//
// Tier one trusts ids: every numeric player_id found anywhere in the payload
// is taken verbatim (an id with no local row simply never highlights). Only
// when the payload carries no numeric ids at all does tier two fall back to
// normalized full-name matching, because some provider payload shapes return
// bare display names. Names with no local match are dropped silently.
func MatchRoster(payload any, rows []player.Row) []string {
	ids := collectNumericIDs(payload)
	if len(ids) > 0 {
		return ids
	}

	index := player.NameIndex(rows)
	seen := make(map[string]struct{})
	var matched []string
	for _, name := range collectFullNames(payload) {
		key := player.NormalizeName(name)
		if key == "" {
			continue
		}
		row, ok := index[key]
		if !ok {
			continue
		}
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		matched = append(matched, row.ID)
	}
	return matched
}

func collectNumericIDs(payload any) []string {
	seen := make(map[string]struct{})
	var ids []string
	deepscan.Walk(payload, func(n deepscan.Node) {
		value, ok := n["player_id"]
		if !ok {
			return
		}
		if _, numeric := deepscan.Number(value); !numeric {
			return
		}
		id := deepscan.ID(value)
		if id == "" {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	})
	return ids
}

func collectFullNames(payload any) []string {
	var names []string
	deepscan.Walk(payload, func(n deepscan.Node) {
		// Shape A: a player object whose name is {full: "..."}.
		if name, ok := n["name"].(map[string]any); ok {
			if full := deepscan.String(name, "full"); full != "" {
				names = append(names, full)
				return
			}
		}
		// Shape B: a player object with a bare string name.
		if p, ok := n["player"].(map[string]any); ok {
			if name, ok := p["name"].(string); ok && name != "" {
				names = append(names, name)
			}
		}
	})
	return names
}
