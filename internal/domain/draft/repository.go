package draft

import "context"

// Repository persists the drafted-id set and the filter configuration for a
// profile. The two records are versioned independently so one schema change
// cannot corrupt the other. Implementations treat unreadable state as absent.
type Repository interface {
	LoadDrafted(ctx context.Context, profileID string) ([]string, bool, error)
	SaveDrafted(ctx context.Context, profileID string, playerIDs []string) error
	LoadFilters(ctx context.Context, profileID string) (FilterState, bool, error)
	SaveFilters(ctx context.Context, profileID string, filters FilterState) error
}
