// Package quality manages weighted quality checklists and their scored
// results. A result's score and its pass/fail verdict are independent:
// the score weighs every criterion, passing requires only the required
// ones.
package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pmo_suite/pkg/core/rowstore"
)

// Criterion is one weighted line of a checklist.
type Criterion struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Weight      float64 `json:"weight"`
	Required    bool    `json:"required"`
}

// Checklist owns an ordered list of criteria.
type Checklist struct {
	ID        string      `json:"id"`
	ProgramID string      `json:"programId"`
	Name      string      `json:"name"`
	Criteria  []Criterion `json:"criteria"`
	CreatedAt time.Time   `json:"createdAt"`
}

// Result is one evaluation of a checklist: which criteria were met, the
// weighted score, and whether every required criterion passed.
type Result struct {
	ID           string          `json:"id"`
	ChecklistID  string          `json:"checklistId"`
	EvaluatedAt  time.Time       `json:"evaluatedAt"`
	Met          map[string]bool `json:"met"`
	OverallScore float64         `json:"overallScore"`
	Passed       bool            `json:"passed"`
}

// ChecklistSchema stores criteria as one JSON cell; the sheet is not the
// place to normalize a nested list.
var ChecklistSchema = rowstore.Schema{
	Sheet:    "Checklists",
	IDPrefix: "CHK",
	Fields: []rowstore.Field{
		{Name: "id", Col: 0, Kind: rowstore.KindString},
		{Name: "programId", Col: 1, Kind: rowstore.KindString},
		{Name: "name", Col: 2, Kind: rowstore.KindString},
		{Name: "criteria", Col: 3, Kind: rowstore.KindString},
		{Name: "createdAt", Col: 4, Kind: rowstore.KindTime},
	},
}

// ResultSchema stores the met-map as one JSON cell.
var ResultSchema = rowstore.Schema{
	Sheet:    "ChecklistResults",
	IDPrefix: "QCR",
	Fields: []rowstore.Field{
		{Name: "id", Col: 0, Kind: rowstore.KindString},
		{Name: "checklistId", Col: 1, Kind: rowstore.KindString},
		{Name: "evaluatedAt", Col: 2, Kind: rowstore.KindTime},
		{Name: "met", Col: 3, Kind: rowstore.KindString},
		{Name: "overallScore", Col: 4, Kind: rowstore.KindFloat},
		{Name: "passed", Col: 5, Kind: rowstore.KindBool},
	},
}

// Score computes the weighted score and verdict for one evaluation.
//
// FORMULA: overallScore = Σ(weight × 100 if met else 0) / Σweight
//
// passed iff every required criterion is met; the score plays no part in
// the verdict. An empty checklist scores 0 and passes vacuously.
func Score(criteria []Criterion, met map[string]bool) (float64, bool) {
	var totalWeight, earned float64
	passed := true
	for _, c := range criteria {
		totalWeight += c.Weight
		if met[c.ID] {
			earned += c.Weight * 100
		} else if c.Required {
			passed = false
		}
	}
	if totalWeight == 0 {
		return 0, passed
	}
	return earned / totalWeight, passed
}

// Service exposes checklist CRUD and evaluation.
type Service struct {
	store rowstore.Store
}

// NewService creates a quality service over the given row store.
func NewService(store rowstore.Store) *Service {
	return &Service{store: store}
}

// CreateChecklist appends a new checklist.
func (s *Service) CreateChecklist(ctx context.Context, programID, name string, criteria []Criterion) (Checklist, error) {
	if name == "" {
		return Checklist{}, fmt.Errorf("checklist name is required")
	}
	if len(criteria) == 0 {
		return Checklist{}, fmt.Errorf("checklist needs at least one criterion")
	}
	for _, c := range criteria {
		if c.Weight <= 0 {
			return Checklist{}, fmt.Errorf("criterion %s: weight must be positive", c.ID)
		}
	}
	id, err := s.store.GenerateNextID(ctx, ChecklistSchema)
	if err != nil {
		return Checklist{}, fmt.Errorf("failed to create checklist: %w", err)
	}
	cl := Checklist{ID: id, ProgramID: programID, Name: name, Criteria: criteria, CreatedAt: time.Now().UTC()}
	criteriaJSON, err := json.Marshal(criteria)
	if err != nil {
		return Checklist{}, fmt.Errorf("failed to create checklist: %w", err)
	}
	rec := rowstore.Record{
		"id":        cl.ID,
		"programId": cl.ProgramID,
		"name":      cl.Name,
		"criteria":  string(criteriaJSON),
		"createdAt": cl.CreatedAt,
	}
	if err := s.store.Append(ctx, ChecklistSchema, rec); err != nil {
		return Checklist{}, fmt.Errorf("failed to create checklist: %w", err)
	}
	return cl, nil
}

// GetChecklist loads one checklist by id.
func (s *Service) GetChecklist(ctx context.Context, id string) (Checklist, error) {
	row, err := s.store.FindByID(ctx, ChecklistSchema, id)
	if err != nil {
		return Checklist{}, err
	}
	rec, err := rowstore.Decode(row.Values, ChecklistSchema)
	if err != nil {
		return Checklist{}, fmt.Errorf("failed to load checklist %s: %w", id, err)
	}
	var criteria []Criterion
	if err := json.Unmarshal([]byte(rec.String("criteria")), &criteria); err != nil {
		return Checklist{}, fmt.Errorf("failed to load checklist %s: %w", id, err)
	}
	return Checklist{
		ID:        rec.String("id"),
		ProgramID: rec.String("programId"),
		Name:      rec.String("name"),
		Criteria:  criteria,
		CreatedAt: rec.Time("createdAt"),
	}, nil
}

// Evaluate scores a checklist against the met-map and appends the result.
func (s *Service) Evaluate(ctx context.Context, checklistID string, met map[string]bool) (Result, error) {
	cl, err := s.GetChecklist(ctx, checklistID)
	if err != nil {
		return Result{}, err
	}
	score, passed := Score(cl.Criteria, met)
	id, err := s.store.GenerateNextID(ctx, ResultSchema)
	if err != nil {
		return Result{}, fmt.Errorf("failed to evaluate checklist: %w", err)
	}
	res := Result{
		ID:           id,
		ChecklistID:  checklistID,
		EvaluatedAt:  time.Now().UTC(),
		Met:          met,
		OverallScore: score,
		Passed:       passed,
	}
	metJSON, err := json.Marshal(met)
	if err != nil {
		return Result{}, fmt.Errorf("failed to evaluate checklist: %w", err)
	}
	rec := rowstore.Record{
		"id":           res.ID,
		"checklistId":  res.ChecklistID,
		"evaluatedAt":  res.EvaluatedAt,
		"met":          string(metJSON),
		"overallScore": res.OverallScore,
		"passed":       res.Passed,
	}
	if err := s.store.Append(ctx, ResultSchema, rec); err != nil {
		return Result{}, fmt.Errorf("failed to evaluate checklist: %w", err)
	}
	return res, nil
}

// Results lists every stored result for one checklist in append order.
func (s *Service) Results(ctx context.Context, checklistID string) ([]Result, error) {
	rows, err := s.store.ReadRows(ctx, ResultSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	out := []Result{}
	for _, row := range rows {
		rec, err := rowstore.Decode(row.Values, ResultSchema)
		if err != nil {
			return nil, fmt.Errorf("failed to list results: %w", err)
		}
		if rec.String("checklistId") != checklistID {
			continue
		}
		var met map[string]bool
		if err := json.Unmarshal([]byte(rec.String("met")), &met); err != nil {
			return nil, fmt.Errorf("failed to list results: %w", err)
		}
		out = append(out, Result{
			ID:           rec.String("id"),
			ChecklistID:  rec.String("checklistId"),
			EvaluatedAt:  rec.Time("evaluatedAt"),
			Met:          met,
			OverallScore: rec.Float("overallScore"),
			Passed:       rec.Bool("passed"),
		})
	}
	return out, nil
}
