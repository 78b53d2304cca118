package usecase

import (
	"testing"

	"github.com/thatssomoneybaby/nba-site/internal/domain/statmap"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
)

func testLabels() statmap.Labels {
	return statmap.Labels{
		statmap.CategoryPoints:   "5",
		statmap.CategoryRebounds: "12",
	}
}

func TestProjectRowWeightedFantasyPoints(t *testing.T) {
	t.Parallel()

	record := deepscan.Node{
		"player_id": "6030",
		"name":      map[string]any{"full": "Jayson Tatum"},
		"editorial_team_abbr": "BOS",
		"display_position":    "SF",
		"player_stats": map[string]any{
			"stats": []any{
				map[string]any{"stat": map[string]any{"stat_id": "5", "value": "20"}},
				map[string]any{"stat": map[string]any{"stat_id": "12", "value": float64(10)}},
			},
		},
	}
	weights := statmap.Weights{"5": 1.0, "12": 1.2}

	row := ProjectRow(record, testLabels(), weights)

	if row.ID != "6030" || row.Name != "Jayson Tatum" || row.Team != "BOS" || row.Position != "SF" {
		t.Fatalf("unexpected identity fields: %+v", row)
	}
	if row.Points != 20 || row.Rebounds != 10 {
		t.Fatalf("pts=%v reb=%v, want 20/10", row.Points, row.Rebounds)
	}
	// No direct FPTS stat resolved: weighted sum 20*1.0 + 10*1.2.
	if row.Fantasy != 32.0 {
		t.Fatalf("fpts = %v, want 32.0", row.Fantasy)
	}
}

func TestProjectRowDirectFantasyStatWins(t *testing.T) {
	t.Parallel()

	labels := testLabels()
	labels[statmap.CategoryFantasy] = "99"

	record := deepscan.Node{
		"player_id": float64(41),
		"name":      map[string]any{"full": "Nikola Jokic"},
		"player_stats": map[string]any{
			"stats": []any{
				map[string]any{"stat": map[string]any{"stat_id": "5", "value": "26"}},
				map[string]any{"stat": map[string]any{"stat_id": "99", "value": "61.4"}},
			},
		},
	}

	row := ProjectRow(record, labels, statmap.Weights{"5": 2.0})
	if row.ID != "41" {
		t.Fatalf("numeric id rendered as %q", row.ID)
	}
	if row.Fantasy != 61.4 {
		t.Fatalf("fpts = %v, want direct 61.4", row.Fantasy)
	}
}

func TestProjectRowIdentityFallbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		record deepscan.Node
		wantID string
	}{
		{
			name:   "editorial id",
			record: deepscan.Node{"editorial_player_id": "nba.p.5583", "name": map[string]any{"full": "Stephen Curry"}},
			wantID: "nba.p.5583",
		},
		{
			name:   "synthetic from name",
			record: deepscan.Node{"name": map[string]any{"full": "De'Aaron Fox"}},
			wantID: "deaaron fox",
		},
		{
			name:   "bare string name",
			record: deepscan.Node{"name": "Jamal Murray"},
			wantID: "jamal murray",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			row := ProjectRow(tc.record, statmap.Labels{}, statmap.Weights{})
			if row.ID != tc.wantID {
				t.Fatalf("id = %q, want %q", row.ID, tc.wantID)
			}
		})
	}
}

func TestProjectRowMalformedRecordDegradesToZero(t *testing.T) {
	t.Parallel()

	record := deepscan.Node{
		"player_id": "7",
		"name":      map[string]any{"full": "Ghost Player"},
		"player_stats": map[string]any{
			"stats": []any{
				map[string]any{"stat": map[string]any{"stat_id": "5", "value": "-"}},
				"not an object",
				map[string]any{"stat": map[string]any{"value": "10"}},
			},
		},
	}

	row := ProjectRow(record, testLabels(), statmap.Weights{})
	if row.Points != 0 || row.Fantasy != 0 || row.Team != "" || row.Position != "" {
		t.Fatalf("malformed record should degrade to zeros, got %+v", row)
	}
}

func TestProjectRowEligiblePositionsJoin(t *testing.T) {
	t.Parallel()

	record := deepscan.Node{
		"player_id": "8",
		"name":      map[string]any{"full": "Combo Guard"},
		"eligible_positions": []any{
			map[string]any{"position": "PG"},
			map[string]any{"position": "SG"},
		},
	}

	row := ProjectRow(record, statmap.Labels{}, statmap.Weights{})
	if row.Position != "PG,SG" {
		t.Fatalf("position = %q, want PG,SG", row.Position)
	}
}

func TestFlattenStatsLastWriteWins(t *testing.T) {
	t.Parallel()

	record := deepscan.Node{
		"outer": map[string]any{
			"stats": []any{
				map[string]any{"stat": map[string]any{"stat_id": "5", "value": "11"}},
			},
		},
	}

	stats := FlattenStats(record)
	if stats["5"] != 11 {
		t.Fatalf("stats[5] = %v, want 11", stats["5"])
	}
}

func TestExtractPlayerRecords(t *testing.T) {
	t.Parallel()

	payload := map[string]any{
		"fantasy_content": map[string]any{
			"players": map[string]any{
				"0":     map[string]any{"player": map[string]any{"player_id": "1"}},
				"1":     map[string]any{"player": map[string]any{"name": map[string]any{"full": "No Id"}}},
				"2":     map[string]any{"player": map[string]any{"headshot": "url-only"}},
				"count": float64(3),
			},
		},
	}

	records := ExtractPlayerRecords(payload)
	if len(records) != 2 {
		t.Fatalf("extracted %d records, want 2", len(records))
	}
}
