package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/thatssomoneybaby/nba-site/internal/domain/draft"
	"github.com/thatssomoneybaby/nba-site/internal/domain/player"
	"github.com/thatssomoneybaby/nba-site/internal/infrastructure/repository/memory"
)

const testProfile = "default"

func testRows() []player.Row {
	return []player.Row{
		{ID: "1", Name: "Jayson Tatum", Team: "BOS", Position: "SF", Fantasy: 52.1, Points: 26.9, Games: 74},
		{ID: "2", Name: "Stephen Curry", Team: "GSW", Position: "PG", Fantasy: 48.3, Points: 26.4, Games: 70},
		{ID: "3", Name: "Nikola Jokic", Team: "DEN", Position: "C", Fantasy: 66.0, Points: 26.4, Games: 79},
		{ID: "4", Name: "Derrick White", Team: "BOS", Position: "PG,SG", Fantasy: 33.2, Points: 15.2, Games: 73},
	}
}

func newTestBoard(t *testing.T) *BoardService {
	t.Helper()
	svc := NewBoardService(memory.NewDraftRepository(), nil)
	svc.LoadPlayers(context.Background(), testProfile, testRows())
	return svc
}

func TestSnapshotAppliesEveryActivePredicate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)

	_, err := svc.ToggleDrafted(ctx, testProfile, "2")
	require.NoError(t, err)
	svc.SetRoster(ctx, testProfile, []string{"1", "2", "4"})

	query := "bos"
	hide := true
	only := true
	_, err = svc.SetFilters(ctx, testProfile, FilterUpdate{Query: &query, HideDrafted: &hide, OnlyRoster: &only})
	require.NoError(t, err)

	view := svc.Snapshot(ctx, testProfile)
	require.Len(t, view.Rows, 2)
	for _, row := range view.Rows {
		require.Equal(t, "BOS", row.Team)
		require.False(t, row.Drafted)
		require.True(t, row.OnRoster)
	}
	require.Equal(t, 4, view.Counts.Total)
	require.Equal(t, 1, view.Counts.Drafted)
	require.Equal(t, 3, view.Counts.Remaining)
}

func TestSnapshotSortStableAndReversible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)

	key := draft.SortKeyPoints
	dirAsc := string(draft.SortAscending)
	_, err := svc.SetFilters(ctx, testProfile, FilterUpdate{SortKey: &key, SortDirection: &dirAsc})
	require.NoError(t, err)

	asc := svc.Snapshot(ctx, testProfile)
	ascIDs := rowIDs(asc.Rows)
	// Curry (2) and Jokic (3) tie on points; original dataset order holds.
	require.Equal(t, []string{"4", "2", "3", "1"}, ascIDs)

	// Identical state recomputes identically.
	again := svc.Snapshot(ctx, testProfile)
	require.Equal(t, ascIDs, rowIDs(again.Rows))

	dirDesc := string(draft.SortDescending)
	_, err = svc.SetFilters(ctx, testProfile, FilterUpdate{SortDirection: &dirDesc})
	require.NoError(t, err)

	desc := svc.Snapshot(ctx, testProfile)
	// Unequal keys reverse; the tied pair keeps original relative order.
	require.Equal(t, []string{"1", "2", "3", "4"}, rowIDs(desc.Rows))
}

func TestToggleDraftedIsIdempotentRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewDraftRepository()
	svc := NewBoardService(repo, nil)
	svc.LoadPlayers(ctx, testProfile, testRows())

	before, _, err := repo.LoadDrafted(ctx, testProfile)
	require.NoError(t, err)
	require.Empty(t, before)

	on, err := svc.ToggleDrafted(ctx, testProfile, "3")
	require.NoError(t, err)
	require.True(t, on)

	off, err := svc.ToggleDrafted(ctx, testProfile, "3")
	require.NoError(t, err)
	require.False(t, off)

	after, _, err := repo.LoadDrafted(ctx, testProfile)
	require.NoError(t, err)
	require.Empty(t, after)
	require.Equal(t, 0, svc.Snapshot(ctx, testProfile).Counts.Drafted)
}

func TestClearDraftedRequiresConfirmation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)
	_, err := svc.ToggleDrafted(ctx, testProfile, "1")
	require.NoError(t, err)

	err = svc.ClearDrafted(ctx, testProfile, false)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Equal(t, 1, svc.Snapshot(ctx, testProfile).Counts.Drafted)

	require.NoError(t, svc.ClearDrafted(ctx, testProfile, true))
	require.Equal(t, 0, svc.Snapshot(ctx, testProfile).Counts.Drafted)
}

func TestFiltersPersistAcrossRestart(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewDraftRepository()
	svc := NewBoardService(repo, nil)
	svc.LoadPlayers(ctx, testProfile, testRows())

	query := "cur"
	pos := "PG"
	hide := true
	key := draft.SortKeyAssists
	dir := string(draft.SortAscending)
	only := true
	saved, err := svc.SetFilters(ctx, testProfile, FilterUpdate{
		Query:         &query,
		Position:      &pos,
		HideDrafted:   &hide,
		SortKey:       &key,
		SortDirection: &dir,
		OnlyRoster:    &only,
	})
	require.NoError(t, err)

	_, err = svc.ToggleDrafted(ctx, testProfile, "2")
	require.NoError(t, err)

	// A fresh service over the same repository simulates a reload.
	reloaded := NewBoardService(repo, nil)
	reloaded.LoadPlayers(ctx, testProfile, testRows())
	view := reloaded.Snapshot(ctx, testProfile)

	require.Equal(t, saved, view.Filters)
	require.Equal(t, 1, view.Counts.Drafted)
}

func TestSetFiltersRejectsInvalidSort(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)

	bad := "fga"
	_, err := svc.SetFilters(ctx, testProfile, FilterUpdate{SortKey: &bad})
	require.ErrorIs(t, err, ErrInvalidInput)

	// The stored state is untouched by a rejected update.
	require.Equal(t, draft.SortKeyFantasy, svc.Snapshot(ctx, testProfile).Filters.SortKey)
}

func TestRosterWithUnknownIDsYieldsEmptyVisibleSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)

	svc.SetRoster(ctx, testProfile, []string{"1001", "1002"})
	only := true
	_, err := svc.SetFilters(ctx, testProfile, FilterUpdate{OnlyRoster: &only})
	require.NoError(t, err)

	view := svc.Snapshot(ctx, testProfile)
	require.Empty(t, view.Rows)
}

func TestTotalsIgnoresUnknownIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)

	totals := svc.Totals(ctx, testProfile, []string{"1", "3", "missing"})
	require.Equal(t, 2, totals.Count)
	require.InDelta(t, 118.1, totals.Fantasy, 1e-9)

	empty := svc.Totals(ctx, testProfile, nil)
	require.Zero(t, empty)
}

func TestStaleSyncGenerationDiscarded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)

	older := svc.BeginSync(ctx, testProfile)
	newer := svc.BeginSync(ctx, testProfile)

	require.True(t, svc.ApplyPlayers(ctx, testProfile, newer, testRows()[:2]))
	require.False(t, svc.ApplyPlayers(ctx, testProfile, older, testRows()))

	require.Equal(t, 2, svc.Snapshot(ctx, testProfile).Counts.Total)
}

func TestLoadPlayersKeepsDraftedByValue(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestBoard(t)

	_, err := svc.ToggleDrafted(ctx, testProfile, "1")
	require.NoError(t, err)

	// Replacement dataset with a disjoint id scheme: the mark survives by
	// value but matches nothing.
	svc.LoadPlayers(ctx, testProfile, []player.Row{{ID: "x9", Name: "New Scheme"}})
	view := svc.Snapshot(ctx, testProfile)
	require.Equal(t, 1, view.Counts.Drafted)
	for _, row := range view.Rows {
		require.False(t, row.Drafted)
	}
}

func TestSeedRowsHydratesNewProfiles(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := NewBoardService(memory.NewDraftRepository(), nil)
	svc.SeedRows(testRows())

	view := svc.Snapshot(ctx, "fresh-profile")
	require.Len(t, view.Rows, len(testRows()))

	// A live sync replaces the seed for that profile only.
	svc.LoadPlayers(ctx, "fresh-profile", []player.Row{{ID: "9", Name: "Synced Player"}})
	require.Len(t, svc.Snapshot(ctx, "fresh-profile").Rows, 1)
	require.Len(t, svc.Snapshot(ctx, "another-profile").Rows, len(testRows()))
}

func rowIDs(rows []BoardRow) []string {
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out
}
