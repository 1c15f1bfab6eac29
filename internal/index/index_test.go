package index

import (
	"errors"
	"testing"

	"github.com/osool-guide/codifier/internal/domain"
)

func testVectors() [][]float32 {
	return [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}
}

func TestSearch_OrderedByScore(t *testing.T) {
	idx, err := New(3, testVectors())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 3 {
		t.Fatalf("expected 3 hits, got %d", len(hits))
	}
	if hits[0].Position != 0 {
		t.Errorf("expected position 0 first, got %d", hits[0].Position)
	}
	if hits[1].Position != 2 {
		t.Errorf("expected position 2 second, got %d", hits[1].Position)
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Errorf("hits not sorted by descending score: %v", hits)
		}
	}
}

func TestSearch_TieBrokenByPosition(t *testing.T) {
	// Positions 1 and 2 hold identical vectors.
	idx, err := New(2, [][]float32{
		{1, 0},
		{0, 1},
		{0, 1},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hits, err := idx.Search([]float32{0, 1}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if hits[0].Position != 1 || hits[1].Position != 2 {
		t.Errorf("tie not broken by ascending position: %v", hits)
	}
}

func TestSearch_Deterministic(t *testing.T) {
	idx, err := New(3, testVectors())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	q := []float32{0.5, 0.5, 0}
	first, err := idx.Search(q, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	second, err := idx.Search(q, 4)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("hit %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestSearch_DimensionMismatch(t *testing.T) {
	idx, err := New(3, testVectors())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = idx.Search([]float32{1, 0}, 3)
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_ZeroK(t *testing.T) {
	idx, err := New(3, testVectors())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0, 0}, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for k=0, got %d", len(hits))
	}
}

func TestSearch_KLargerThanIndex(t *testing.T) {
	idx, err := New(3, testVectors())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hits, err := idx.Search([]float32{1, 0, 0}, 100)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 4 {
		t.Errorf("expected 4 hits, got %d", len(hits))
	}
}

func TestNew_RejectsMismatchedRow(t *testing.T) {
	_, err := New(3, [][]float32{{1, 0, 0}, {1, 0}})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Errorf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestNew_RejectsNonPositiveDimension(t *testing.T) {
	if _, err := New(0, nil); err == nil {
		t.Error("expected error for dimension 0")
	}
}

func TestSearch_ScoreIsCosine(t *testing.T) {
	// Unnormalized row and query must still produce cosine similarity.
	idx, err := New(2, [][]float32{{3, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	hits, err := idx.Search([]float32{7, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := hits[0].Score; got < 0.9999 || got > 1.0001 {
		t.Errorf("expected cosine 1.0, got %f", got)
	}
}
