package transaction

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pmo_suite/pkg/core/rowstore"
)

type stubCategorizer struct {
	category   string
	confidence float64
	err        error
}

func (s stubCategorizer) Categorize(ctx context.Context, description string, amount float64) (string, float64, error) {
	return s.category, s.confidence, s.err
}

func newTestService() *Service {
	return NewService(rowstore.NewMemory(), stubCategorizer{category: "travel", confidence: 0.92})
}

func create(t *testing.T, svc *Service, amount float64) Transaction {
	t.Helper()
	txn, err := svc.Create(context.Background(), Transaction{
		ProgramID:   "PRG-001",
		Amount:      amount,
		Flow:        FlowOutflow,
		Description: "taxi to client site",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return txn
}

func TestCreateDefaults(t *testing.T) {
	svc := newTestService()
	txn := create(t, svc, 125.50)
	if txn.ID != "TXN-001" {
		t.Errorf("Expected TXN-001, got %s", txn.ID)
	}
	if txn.Reconciled {
		t.Error("New transaction must not be reconciled")
	}
	if txn.CategoryStatus != CategoryUnclassified {
		t.Errorf("Expected UNCLASSIFIED, got %s", txn.CategoryStatus)
	}
}

func TestReconciledTransactionIsFrozen(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	txn := create(t, svc, 100)

	if _, err := svc.Reconcile(ctx, txn.ID); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	// Every subsequent mutation must fail with ErrReconciled.
	if _, err := svc.Update(ctx, txn.ID, 200, "", ""); !errors.Is(err, ErrReconciled) {
		t.Errorf("Update: expected ErrReconciled, got %v", err)
	}
	if err := svc.Delete(ctx, txn.ID); !errors.Is(err, ErrReconciled) {
		t.Errorf("Delete: expected ErrReconciled, got %v", err)
	}
	if _, err := svc.Categorize(ctx, txn.ID); !errors.Is(err, ErrReconciled) {
		t.Errorf("Categorize: expected ErrReconciled, got %v", err)
	}

	// The row itself is untouched.
	got, _ := svc.Get(ctx, txn.ID)
	if got.Amount != 100 || got.Deleted {
		t.Errorf("Frozen transaction mutated: %+v", got)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	txn := create(t, svc, 100)
	svc.Reconcile(ctx, txn.ID)
	if _, err := svc.Reconcile(ctx, txn.ID); err != nil {
		t.Errorf("Second reconcile should be a no-op, got %v", err)
	}
}

func TestBatchReconcileIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	a := create(t, svc, 10)
	b := create(t, svc, 20)

	results := svc.BatchReconcile(ctx, []string{a.ID, "TXN-404", b.ID})
	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Errorf("Expected [ok, fail, ok], got %+v", results)
	}
	// The failure in the middle never rolled back the first success.
	got, _ := svc.Get(ctx, a.ID)
	if !got.Reconciled {
		t.Error("First transaction should stay reconciled")
	}
}

func TestDeleteIsSoft(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	txn := create(t, svc, 100)
	if err := svc.Delete(ctx, txn.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	listed, _ := svc.List(ctx, "PRG-001")
	if len(listed) != 0 {
		t.Errorf("Deleted transaction still listed: %+v", listed)
	}
	// The row still exists for audit.
	got, err := svc.Get(ctx, txn.ID)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if !got.Deleted {
		t.Error("Expected deleted flag set")
	}
}

func TestCategorizeRecordsAIResult(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	txn := create(t, svc, 100)
	got, err := svc.Categorize(ctx, txn.ID)
	if err != nil {
		t.Fatalf("Categorize failed: %v", err)
	}
	if got.Category != "travel" {
		t.Errorf("Expected travel, got %s", got.Category)
	}
	if got.CategoryStatus != CategoryClassifiedByAI {
		t.Errorf("Expected CLASSIFIED_BY_AI, got %s", got.CategoryStatus)
	}
}

func TestUserEditOverridesAICategory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	txn := create(t, svc, 100)
	svc.Categorize(ctx, txn.ID)
	got, err := svc.Update(ctx, txn.ID, 100, "equipment", "")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.CategoryStatus != CategoryUserModified {
		t.Errorf("Expected USER_MODIFIED, got %s", got.CategoryStatus)
	}
}

func TestCashFlowHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	add := func(month time.Month, flow string, amount float64) {
		_, err := svc.Create(ctx, Transaction{
			ProgramID:   "PRG-001",
			Date:        time.Date(2026, month, 5, 0, 0, 0, 0, time.UTC),
			Amount:      amount,
			Flow:        flow,
			Description: fmt.Sprintf("%s %f", flow, amount),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	add(time.June, FlowOutflow, 300)
	add(time.June, FlowInflow, 100)
	add(time.July, FlowOutflow, 500)
	add(time.August, FlowOutflow, 50)

	periods, err := svc.CashFlowHistory(ctx, "PRG-001", now)
	if err != nil {
		t.Fatalf("CashFlowHistory failed: %v", err)
	}
	if len(periods) != 3 {
		t.Fatalf("Expected 3 periods, got %d", len(periods))
	}
	if periods[0].Outflow != 300 || periods[0].Inflow != 100 {
		t.Errorf("June aggregation wrong: %+v", periods[0])
	}
	if periods[0].Status != "completed" || periods[1].Status != "completed" {
		t.Error("Past months should be completed")
	}
	if periods[2].Status != "projected" {
		t.Error("Current month should be projected")
	}
}
