package player

import "strings"

// Row is one player's normalized season-average line for the current data
// source. IDs are stable within a single loaded dataset only.
type Row struct {
	ID       string  `json:"player_id"`
	Name     string  `json:"player"`
	Team     string  `json:"team"`
	Position string  `json:"pos"`
	Games    float64 `json:"gp"`
	Minutes  float64 `json:"min"`
	Fantasy  float64 `json:"fpts"`
	Points   float64 `json:"pts"`
	Rebounds float64 `json:"reb"`
	Assists  float64 `json:"ast"`
	Steals   float64 `json:"stl"`
	Blocks   float64 `json:"blk"`
}

// Totals is a category-wise sum over a subset of rows.
type Totals struct {
	Count    int     `json:"count"`
	Minutes  float64 `json:"min"`
	Fantasy  float64 `json:"fpts"`
	Points   float64 `json:"pts"`
	Rebounds float64 `json:"reb"`
	Assists  float64 `json:"ast"`
	Steals   float64 `json:"stl"`
	Blocks   float64 `json:"blk"`
}

func (t *Totals) Add(r Row) {
	t.Count++
	t.Minutes += r.Minutes
	t.Fantasy += r.Fantasy
	t.Points += r.Points
	t.Rebounds += r.Rebounds
	t.Assists += r.Assists
	t.Steals += r.Steals
	t.Blocks += r.Blocks
}

// NormalizeName reduces a display name to a comparable form: lowercase,
// letters and spaces only, single spaces, trimmed. Used both for identity
// matching and for synthetic ids when a record carries no numeric id.
func NormalizeName(name string) string {
	lowered := strings.ToLower(name)
	var b strings.Builder
	b.Grow(len(lowered))
	lastSpace := true
	for _, r := range lowered {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
			lastSpace = false
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// NameIndex builds a normalized-name lookup over rows. When two rows share a
// normalized name the later one wins; the source does not disambiguate them.
func NameIndex(rows []Row) map[string]Row {
	idx := make(map[string]Row, len(rows))
	for _, row := range rows {
		key := NormalizeName(row.Name)
		if key == "" {
			continue
		}
		idx[key] = row
	}
	return idx
}
