package usecase

import (
	"testing"

	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
)

func TestMatchRosterPrefersNumericIDs(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"team": map[string]any{
			"roster": map[string]any{
				"players": []any{
					map[string]any{"player": map[string]any{"player_id": "1001", "name": map[string]any{"full": "Someone Else"}}},
					map[string]any{"player": map[string]any{"player_id": float64(1002)}},
					map[string]any{"player": map[string]any{"player_id": "1001"}},
				},
			},
		},
	}

	rows := []player.Row{{ID: "1", Name: "Someone Else"}}
	got := MatchRoster(payload, rows)

	if len(got) != 2 {
		t.Fatalf("matched %d ids, want 2 (deduped): %v", len(got), got)
	}
	want := map[string]struct{}{"1001": {}, "1002": {}}
	for _, id := range got {
		if _, ok := want[id]; !ok {
			t.Fatalf("unexpected id %q", id)
		}
	}
}

func TestMatchRosterNameFallback(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"roster": []any{
			map[string]any{"name": map[string]any{"full": "Jayson Tatum"}},
			map[string]any{"name": map[string]any{"full": "Unknown Guy"}},
		},
	}
	rows := []player.Row{
		{ID: "628969", Name: "Jayson Tatum"},
		{ID: "201939", Name: "Stephen Curry"},
	}

	got := MatchRoster(payload, rows)
	if len(got) != 1 || got[0] != "628969" {
		t.Fatalf("matched %v, want [628969]", got)
	}
}

func TestMatchRosterNonNumericIDsIgnored(t *testing.T) {
	t.Parallel()

	// A provider key like "nba.p.6030" is not a numeric id; with no numeric
	// ids anywhere the matcher must drop to name matching.
	payload := map[string]any{
		"players": []any{
			map[string]any{"player_id": "nba.p.6030", "name": map[string]any{"full": "Jayson Tatum"}},
		},
	}
	rows := []player.Row{{ID: "77", Name: "Jayson Tatum"}}

	got := MatchRoster(payload, rows)
	if len(got) != 1 || got[0] != "77" {
		t.Fatalf("matched %v, want [77]", got)
	}
}

func TestMatchRosterEmptyPayload(t *testing.T) {
	t.Parallel()

	if got := MatchRoster(nil, []player.Row{{ID: "1", Name: "A B"}}); len(got) != 0 {
		t.Fatalf("matched %v on nil payload", got)
	}
	if got := MatchRoster(map[string]any{}, nil); len(got) != 0 {
		t.Fatalf("matched %v on empty payload", got)
	}
}
