package directory

import (
	"context"
	"errors"
	"testing"
)

func TestFilter(t *testing.T) {
	entries := []string{"Blood Test", "Urine Test", "RTPCR Test", "HIV Test", "DNA Test"}

	t.Run("EmptyTermKeepsAll", func(t *testing.T) {
		got := Filter(entries, "")
		if len(got) != len(entries) {
			t.Fatalf("got %d entries, want %d", len(got), len(entries))
		}
	})

	t.Run("CaseInsensitiveSubstring", func(t *testing.T) {
		got := Filter(entries, "blood")
		if len(got) != 1 || got[0] != "Blood Test" {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("WhitespaceTrimmed", func(t *testing.T) {
		got := Filter(entries, "  rtpcr  ")
		if len(got) != 1 || got[0] != "RTPCR Test" {
			t.Fatalf("got %v", got)
		}
	})

	t.Run("NoMatch", func(t *testing.T) {
		if got := Filter(entries, "x-ray"); len(got) != 0 {
			t.Fatalf("got %v, want empty", got)
		}
	})

	t.Run("DoesNotMutateInput", func(t *testing.T) {
		got := Filter(entries, "")
		got[0] = "changed"
		if entries[0] != "Blood Test" {
			t.Fatal("catalog slice was mutated")
		}
	})
}

type stubLocations struct {
	locations []string
	err       error
}

func (s stubLocations) DistinctLocations(ctx context.Context) ([]string, error) {
	return s.locations, s.err
}

func TestProviderLocations(t *testing.T) {
	t.Run("Filtered", func(t *testing.T) {
		svc := NewService(stubLocations{locations: []string{"Latur", "Beed", "Solapur"}})
		got, err := svc.ProviderLocations(context.Background(), "la")
		if err != nil {
			t.Fatalf("provider locations: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %v, want Latur and Solapur", got)
		}
	})

	t.Run("SourceError", func(t *testing.T) {
		wantErr := errors.New("db down")
		svc := NewService(stubLocations{err: wantErr})
		if _, err := svc.ProviderLocations(context.Background(), ""); !errors.Is(err, wantErr) {
			t.Fatalf("got %v, want source error", err)
		}
	})
}

func TestCatalogSearches(t *testing.T) {
	svc := NewService(stubLocations{})

	if got := svc.SearchDiseases("fever"); len(got) != 1 || got[0] != "Fever" {
		t.Fatalf("disease search gave %v", got)
	}
	if got := svc.SearchLabTestTypes(""); len(got) != len(LabTestTypes) {
		t.Fatalf("lab test search gave %d entries", len(got))
	}
	if got := svc.SearchLabLocations("OSMAN"); len(got) != 1 || got[0] != "Osmanabad" {
		t.Fatalf("lab location search gave %v", got)
	}
}

func TestKnownLabTestType(t *testing.T) {
	if !KnownLabTestType("Blood Test") {
		t.Fatal("Blood Test should be known")
	}
	if !KnownLabTestType("blood test") {
		t.Fatal("match should ignore case")
	}
	if KnownLabTestType("Stress Test") {
		t.Fatal("Stress Test should be unknown")
	}
}
