// Package dataset loads the bundled season-average player sheet that seeds
// the draft board before any live league sync.
package dataset

import (
	_ "embed"
	"fmt"
	"os"

	sonic "github.com/bytedance/sonic"
	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
	"github.com/thatssomoneybaby/nba-site/internal/platform/deepscan"
)

//go:embed fantasy_averages.json
var bundled []byte

// Load reads rows from path, or from the bundled sheet when path is empty.
func Load(path string) ([]player.Row, error) {
	if path == "" {
		return decode(bundled)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	rows, err := decode(raw)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return rows, nil
}

// decode tolerates numeric and string ids and ignores columns the board does
// not render (shooting splits, turnovers).
func decode(raw []byte) ([]player.Row, error) {
	var records []map[string]any
	if err := sonic.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	rows := make([]player.Row, 0, len(records))
	for _, record := range records {
		row := player.Row{
			ID:       deepscan.ID(record["player_id"]),
			Name:     deepscan.String(record, "player"),
			Team:     deepscan.String(record, "team"),
			Position: deepscan.String(record, "pos"),
		}
		if row.ID == "" && row.Name == "" {
			continue
		}
		row.Games, _ = deepscan.NumberField(record, "gp")
		row.Minutes, _ = deepscan.NumberField(record, "min")
		row.Fantasy, _ = deepscan.NumberField(record, "fpts")
		row.Points, _ = deepscan.NumberField(record, "pts")
		row.Rebounds, _ = deepscan.NumberField(record, "reb")
		row.Assists, _ = deepscan.NumberField(record, "ast")
		row.Steals, _ = deepscan.NumberField(record, "stl")
		row.Blocks, _ = deepscan.NumberField(record, "blk")
		rows = append(rows, row)
	}

	return rows, nil
}
