package memory

import (
	"context"
	"sync"

	"github.com/thatssomoneybaby/nba-site/internal/domain/draft"
)

// DraftRepository keeps drafted ids and filter settings in process memory.
// It is the default store when no database URL is configured.
type DraftRepository struct {
	mu      sync.RWMutex
	drafted map[string][]string
	filters map[string]draft.FilterState
}

func NewDraftRepository() *DraftRepository {
	return &DraftRepository{
		drafted: make(map[string][]string),
		filters: make(map[string]draft.FilterState),
	}
}

func (r *DraftRepository) LoadDrafted(_ context.Context, profileID string) ([]string, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.drafted[profileID]
	if !ok {
		return nil, false, nil
	}

	out := make([]string, len(ids))
	copy(out, ids)
	return out, true, nil
}

func (r *DraftRepository) SaveDrafted(_ context.Context, profileID string, playerIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, len(playerIDs))
	copy(ids, playerIDs)
	r.drafted[profileID] = ids

	return nil
}

func (r *DraftRepository) LoadFilters(_ context.Context, profileID string) (draft.FilterState, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	filters, ok := r.filters[profileID]
	if !ok {
		return draft.FilterState{}, false, nil
	}

	return filters, true, nil
}

func (r *DraftRepository) SaveFilters(_ context.Context, profileID string, filters draft.FilterState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.filters[profileID] = filters

	return nil
}
