package memory

import (
	"context"
	"testing"

	"github.com/thatssomoneybaby/nba-site/internal/domain/draft"
)

func TestDraftRepositoryDraftedRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewDraftRepository()

	if _, found, err := repo.LoadDrafted(ctx, "p1"); err != nil || found {
		t.Fatalf("LoadDrafted on empty repo = found %v, err %v", found, err)
	}

	ids := []string{"100", "200"}
	if err := repo.SaveDrafted(ctx, "p1", ids); err != nil {
		t.Fatalf("SaveDrafted: %v", err)
	}

	// Mutating the caller's slice must not leak into the stored copy.
	ids[0] = "mutated"

	got, found, err := repo.LoadDrafted(ctx, "p1")
	if err != nil || !found {
		t.Fatalf("LoadDrafted = found %v, err %v", found, err)
	}
	if len(got) != 2 || got[0] != "100" || got[1] != "200" {
		t.Fatalf("LoadDrafted = %v, want [100 200]", got)
	}

	if _, found, _ := repo.LoadDrafted(ctx, "p2"); found {
		t.Fatal("profiles must not share drafted state")
	}
}

func TestDraftRepositoryFiltersRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewDraftRepository()

	if _, found, err := repo.LoadFilters(ctx, "p1"); err != nil || found {
		t.Fatalf("LoadFilters on empty repo = found %v, err %v", found, err)
	}

	want := draft.FilterState{
		Query:         "tatum",
		SortKey:       draft.SortKeyPoints,
		SortDirection: draft.SortAscending,
		HideDrafted:   true,
	}
	if err := repo.SaveFilters(ctx, "p1", want); err != nil {
		t.Fatalf("SaveFilters: %v", err)
	}

	got, found, err := repo.LoadFilters(ctx, "p1")
	if err != nil || !found {
		t.Fatalf("LoadFilters = found %v, err %v", found, err)
	}
	if got != want {
		t.Fatalf("LoadFilters = %+v, want %+v", got, want)
	}
}
