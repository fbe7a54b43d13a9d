package quality

import (
	"context"
	"math"
	"testing"

	"pmo_suite/pkg/core/rowstore"
)

func sampleCriteria() []Criterion {
	return []Criterion{
		{ID: "docs", Description: "Deliverable documented", Weight: 2, Required: true},
		{ID: "review", Description: "Peer reviewed", Weight: 1, Required: true},
		{ID: "style", Description: "Style guide followed", Weight: 1, Required: false},
	}
}

func TestScoreWeighted(t *testing.T) {
	// Met: docs (w2) and style (w1), missed: review (w1).
	// Score = (2*100 + 0 + 1*100) / 4 = 75.
	// review is required and missed => failed, despite the 75.
	score, passed := Score(sampleCriteria(), map[string]bool{"docs": true, "style": true})
	if math.Abs(score-75) > 1e-9 {
		t.Errorf("Expected score 75, got %f", score)
	}
	if passed {
		t.Error("Expected failure: required criterion missed")
	}
}

func TestScoreIndependentOfPass(t *testing.T) {
	// Only the required criteria met: docs (w2) + review (w1) = 300/4 = 75.
	// Optional style missed => same score as above, but now it passes.
	score, passed := Score(sampleCriteria(), map[string]bool{"docs": true, "review": true})
	if math.Abs(score-75) > 1e-9 {
		t.Errorf("Expected score 75, got %f", score)
	}
	if !passed {
		t.Error("Expected pass: every required criterion met")
	}
}

func TestScoreAllMet(t *testing.T) {
	score, passed := Score(sampleCriteria(), map[string]bool{"docs": true, "review": true, "style": true})
	if score != 100 || !passed {
		t.Errorf("Expected 100/pass, got %f/%v", score, passed)
	}
}

func TestScoreEmptyChecklist(t *testing.T) {
	score, passed := Score(nil, nil)
	if score != 0 || !passed {
		t.Errorf("Expected 0/vacuous pass, got %f/%v", score, passed)
	}
}

func TestEvaluatePersistsResult(t *testing.T) {
	ctx := context.Background()
	svc := NewService(rowstore.NewMemory())

	cl, err := svc.CreateChecklist(ctx, "PRG-001", "Phase gate", sampleCriteria())
	if err != nil {
		t.Fatalf("CreateChecklist failed: %v", err)
	}
	if cl.ID != "CHK-001" {
		t.Errorf("Expected CHK-001, got %s", cl.ID)
	}

	res, err := svc.Evaluate(ctx, cl.ID, map[string]bool{"docs": true, "review": true})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.ID != "QCR-001" {
		t.Errorf("Expected QCR-001, got %s", res.ID)
	}
	if !res.Passed {
		t.Error("Expected pass")
	}

	// Round trip through the sheet, including the JSON met-map cell.
	results, err := svc.Results(ctx, cl.ID)
	if err != nil {
		t.Fatalf("Results failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Expected 1 result, got %d", len(results))
	}
	if math.Abs(results[0].OverallScore-75) > 1e-9 {
		t.Errorf("Expected stored score 75, got %f", results[0].OverallScore)
	}
	if !results[0].Met["docs"] {
		t.Error("Expected met map to survive round trip")
	}
}

func TestCreateChecklistValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(rowstore.NewMemory())
	if _, err := svc.CreateChecklist(ctx, "PRG-001", "", sampleCriteria()); err == nil {
		t.Error("Expected missing name to fail")
	}
	if _, err := svc.CreateChecklist(ctx, "PRG-001", "x", nil); err == nil {
		t.Error("Expected empty criteria to fail")
	}
	bad := []Criterion{{ID: "a", Weight: 0}}
	if _, err := svc.CreateChecklist(ctx, "PRG-001", "x", bad); err == nil {
		t.Error("Expected zero weight to fail")
	}
}
