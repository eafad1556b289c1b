package gormrepository

import (
	"context"
	"testing"

	"superyield/internal/models"
	"superyield/internal/repository"
)

func TestNormalizePaging(t *testing.T) {
	cases := []struct{ in, want int }{{0, 50}, {-3, 50}, {20, 20}, {5000, 500}}
	for _, tc := range cases {
		if got := normalizeLimit(tc.in, 50); got != tc.want {
			t.Fatalf("limit(%d)=%d want=%d", tc.in, got, tc.want)
		}
	}
	if got := normalizeOffset(-1); got != 0 {
		t.Fatalf("offset=%d want=0", got)
	}
}

func TestNilStoreIsNoop(t *testing.T) {
	var s *Store
	ctx := context.Background()
	if err := s.InsertDecisionRecord(ctx, &models.DecisionRecord{}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if item, err := s.GetDecisionRecord(ctx, "x"); item != nil || err != nil {
		t.Fatalf("get=%v err=%v", item, err)
	}
	if n, err := s.CountDecisionRecords(ctx, repository.ListDecisionRecordsParams{}); n != 0 || err != nil {
		t.Fatalf("count=%d err=%v", n, err)
	}
}
