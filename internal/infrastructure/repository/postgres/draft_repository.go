package postgres

import (
	"context"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/thatssomoneybaby/nba-site/internal/domain/draft"
)

// Record kinds are versioned independently so a future format change to one
// record never invalidates the other.
const (
	recordKindDrafted = "drafted:v1"
	recordKindFilters = "filters:v1"
)

// DraftRepository persists drafted-player sets and filter settings as JSON
// records keyed by profile and record kind.
type DraftRepository struct {
	db *sqlx.DB
}

func NewDraftRepository(db *sqlx.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) LoadDrafted(ctx context.Context, profileID string) ([]string, bool, error) {
	payload, found, err := r.load(ctx, profileID, recordKindDrafted)
	if err != nil || !found {
		return nil, false, err
	}

	var ids []string
	if err := sonic.Unmarshal(payload, &ids); err != nil {
		return nil, false, fmt.Errorf("decode drafted record: %w", err)
	}
	return ids, true, nil
}

func (r *DraftRepository) SaveDrafted(ctx context.Context, profileID string, playerIDs []string) error {
	if playerIDs == nil {
		playerIDs = []string{}
	}
	payload, err := sonic.Marshal(playerIDs)
	if err != nil {
		return fmt.Errorf("encode drafted record: %w", err)
	}
	return r.save(ctx, profileID, recordKindDrafted, payload)
}

func (r *DraftRepository) LoadFilters(ctx context.Context, profileID string) (draft.FilterState, bool, error) {
	payload, found, err := r.load(ctx, profileID, recordKindFilters)
	if err != nil || !found {
		return draft.FilterState{}, false, err
	}

	var filters draft.FilterState
	if err := sonic.Unmarshal(payload, &filters); err != nil {
		return draft.FilterState{}, false, fmt.Errorf("decode filters record: %w", err)
	}
	return filters, true, nil
}

func (r *DraftRepository) SaveFilters(ctx context.Context, profileID string, filters draft.FilterState) error {
	payload, err := sonic.Marshal(filters)
	if err != nil {
		return fmt.Errorf("encode filters record: %w", err)
	}
	return r.save(ctx, profileID, recordKindFilters, payload)
}

func (r *DraftRepository) load(ctx context.Context, profileID, kind string) ([]byte, bool, error) {
	const query = `SELECT payload FROM board_records WHERE profile_id = $1 AND record_kind = $2`

	var payload []byte
	if err := r.db.GetContext(ctx, &payload, query, strings.TrimSpace(profileID), kind); err != nil {
		if isNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get board record kind=%s: %w", kind, err)
	}
	return payload, true, nil
}

func (r *DraftRepository) save(ctx context.Context, profileID, kind string, payload []byte) error {
	const query = `INSERT INTO board_records (profile_id, record_kind, payload, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (profile_id, record_kind)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, strings.TrimSpace(profileID), kind, payload); err != nil {
		return fmt.Errorf("upsert board record kind=%s: %w", kind, err)
	}
	return nil
}
