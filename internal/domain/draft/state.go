package draft

import (
	"fmt"
	"strings"
)

// SortDirection orders visible rows by the active sort key.
type SortDirection string

const (
	SortAscending  SortDirection = "asc"
	SortDescending SortDirection = "desc"
)

// Sortable filter keys map onto player.Row fields. Name/team/position compare
// as strings, everything else numerically.
const (
	SortKeyName     = "player"
	SortKeyTeam     = "team"
	SortKeyPosition = "pos"
	SortKeyGames    = "gp"
	SortKeyMinutes  = "min"
	SortKeyFantasy  = "fpts"
	SortKeyPoints   = "pts"
	SortKeyRebounds = "reb"
	SortKeyAssists  = "ast"
	SortKeySteals   = "stl"
	SortKeyBlocks   = "blk"
)

var sortKeys = map[string]struct{}{
	SortKeyName:     {},
	SortKeyTeam:     {},
	SortKeyPosition: {},
	SortKeyGames:    {},
	SortKeyMinutes:  {},
	SortKeyFantasy:  {},
	SortKeyPoints:   {},
	SortKeyRebounds: {},
	SortKeyAssists:  {},
	SortKeySteals:   {},
	SortKeyBlocks:   {},
}

// FilterState is the persisted view configuration of one draft board.
type FilterState struct {
	Query           string        `json:"query"`
	Position        string        `json:"pos"`
	HideDrafted     bool          `json:"hide_drafted"`
	SortKey         string        `json:"sort_key"`
	SortDirection   SortDirection `json:"sort_dir"`
	HighlightRoster bool          `json:"highlight_roster"`
	OnlyRoster      bool          `json:"only_roster"`
}

func DefaultFilters() FilterState {
	return FilterState{
		SortKey:         SortKeyFantasy,
		SortDirection:   SortDescending,
		HighlightRoster: true,
	}
}

func (f FilterState) Validate() error {
	if _, ok := sortKeys[f.SortKey]; !ok {
		return fmt.Errorf("invalid sort key: %s", f.SortKey)
	}
	switch f.SortDirection {
	case SortAscending, SortDescending:
		return nil
	default:
		return fmt.Errorf("invalid sort direction: %s", f.SortDirection)
	}
}

// Normalize repairs a loaded filter state in place, falling back to defaults
// for fields a stale or corrupt persisted record left unusable.
func (f *FilterState) Normalize() {
	defaults := DefaultFilters()
	if _, ok := sortKeys[strings.TrimSpace(f.SortKey)]; !ok {
		f.SortKey = defaults.SortKey
	}
	switch f.SortDirection {
	case SortAscending, SortDescending:
	default:
		f.SortDirection = defaults.SortDirection
	}
}

// NumericSortKey reports whether key compares numerically.
func NumericSortKey(key string) bool {
	switch key {
	case SortKeyName, SortKeyTeam, SortKeyPosition:
		return false
	default:
		_, ok := sortKeys[key]
		return ok
	}
}
