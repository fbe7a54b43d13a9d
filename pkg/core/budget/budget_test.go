package budget

import (
	"context"
	"math"
	"testing"

	"pmo_suite/pkg/core/rowstore"
)

func newTestService() *Service {
	return NewService(rowstore.NewMemory())
}

func TestCreateStartsDraft(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	b, err := svc.Create(ctx, "PRG-001", 100000)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if b.ID != "BUD-001" {
		t.Errorf("Expected BUD-001, got %s", b.ID)
	}
	if b.Status != StatusDraft {
		t.Errorf("Expected draft, got %s", b.Status)
	}
	if b.Remaining != 100000 {
		t.Errorf("Expected remaining 100000, got %f", b.Remaining)
	}
	if len(b.Notes) != 1 {
		t.Errorf("Expected one audit note on create, got %d", len(b.Notes))
	}
}

func TestRemainingInvariantHolds(t *testing.T) {
	// For any sequence of allocations and expenses:
	// remaining == allocated - spent after every call.
	ctx := context.Background()
	svc := newTestService()
	b, _ := svc.Create(ctx, "PRG-001", 50000)

	steps := []struct {
		allocate float64
		expense  float64
	}{
		{allocate: 25000},
		{expense: 10000},
		{expense: 4999.99},
		{allocate: 100},
		{expense: 60000},
	}
	for i, step := range steps {
		var err error
		if step.allocate > 0 {
			b, err = svc.Allocate(ctx, b.ID, step.allocate)
		} else {
			b, err = svc.RecordExpense(ctx, b.ID, step.expense, "")
		}
		if err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
		if math.Abs(b.Remaining-(b.Allocated-b.Spent)) > 1e-9 {
			t.Fatalf("Step %d: remaining %f != allocated %f - spent %f", i, b.Remaining, b.Allocated, b.Spent)
		}
	}
}

func TestCommitCannotExceedAllocation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	b, _ := svc.Create(ctx, "PRG-001", 10000)

	if _, err := svc.Commit(ctx, b.ID, 8000); err != nil {
		t.Fatalf("First commit failed: %v", err)
	}
	if _, err := svc.Commit(ctx, b.ID, 3000); err == nil {
		t.Fatal("Expected commit beyond allocation to fail")
	}
	// Failed commit must not have written anything.
	got, _ := svc.Get(ctx, b.ID)
	if got.Committed != 8000 {
		t.Errorf("Expected committed 8000 after rejected commit, got %f", got.Committed)
	}
}

func TestNegativeAmountsRejected(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	b, _ := svc.Create(ctx, "PRG-001", 10000)

	if _, err := svc.RecordExpense(ctx, b.ID, -50, ""); err == nil {
		t.Error("Expected negative expense to fail")
	}
	if _, err := svc.Allocate(ctx, b.ID, 0); err == nil {
		t.Error("Expected zero allocation to fail")
	}
	if _, err := svc.Create(ctx, "PRG-001", -1); err == nil {
		t.Error("Expected negative initial allocation to fail")
	}
}

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	b, _ := svc.Create(ctx, "PRG-001", 10000)

	b, err := svc.Activate(ctx, b.ID)
	if err != nil {
		t.Fatalf("Activate failed: %v", err)
	}
	if b.Status != StatusActive {
		t.Errorf("Expected active, got %s", b.Status)
	}
	// Activating twice is invalid.
	if _, err := svc.Activate(ctx, b.ID); err == nil {
		t.Error("Expected re-activation to fail")
	}

	b, err = svc.Close(ctx, b.ID)
	if err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if b.Status != StatusClosed {
		t.Errorf("Expected closed, got %s", b.Status)
	}
	if _, err := svc.Close(ctx, b.ID); err == nil {
		t.Error("Expected double close to fail")
	}
}

func TestAuditNotesAccumulate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	b, _ := svc.Create(ctx, "PRG-001", 10000)
	svc.Allocate(ctx, b.ID, 500)
	svc.Commit(ctx, b.ID, 200)
	b, _ = svc.RecordExpense(ctx, b.ID, 100, "vendor invoice")

	// create + allocate + commit + expense = 4 notes, surviving the
	// encode/decode round trip through the sheet cell.
	if len(b.Notes) != 4 {
		t.Fatalf("Expected 4 audit notes, got %d: %v", len(b.Notes), b.Notes)
	}
}

func TestListFiltersByProgram(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	svc.Create(ctx, "PRG-001", 100)
	svc.Create(ctx, "PRG-002", 200)
	svc.Create(ctx, "PRG-001", 300)

	all, err := svc.List(ctx, "")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Expected 3 budgets, got %d", len(all))
	}
	one, _ := svc.List(ctx, "PRG-001")
	if len(one) != 2 {
		t.Errorf("Expected 2 budgets for PRG-001, got %d", len(one))
	}
}
