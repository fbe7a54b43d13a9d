// Package budget manages program budgets over the row store: allocation,
// commitments, expenses, variance, and burn rate. Money fields mutate
// only through the three mutation ops, each of which appends an audit
// note to the row.
package budget

import (
	"context"
	"fmt"
	"strings"
	"time"

	"pmo_suite/pkg/core/rowstore"
)

// Budget lifecycle statuses. Closing is the soft delete.
const (
	StatusDraft  = "draft"
	StatusActive = "active"
	StatusClosed = "closed"
)

// Budget is one program budget row. Remaining and Variance are derived
// (allocated - spent) and recomputed on every write, never stored
// authoritatively anywhere else.
type Budget struct {
	ID              string    `json:"id"`
	ProgramID       string    `json:"programId"`
	Allocated       float64   `json:"allocated"`
	Committed       float64   `json:"committed"`
	Spent           float64   `json:"spent"`
	Remaining       float64   `json:"remaining"`
	Variance        float64   `json:"variance"`
	VariancePercent float64   `json:"variancePercent"`
	Status          string    `json:"status"`
	Notes           []string  `json:"notes"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// noteSeparator joins audit notes into one sheet cell.
const noteSeparator = " | "

// Schema is the single descriptor for the Budgets sheet, shared by the
// decode and encode paths.
var Schema = rowstore.Schema{
	Sheet:    "Budgets",
	IDPrefix: "BUD",
	Fields: []rowstore.Field{
		{Name: "id", Col: 0, Kind: rowstore.KindString},
		{Name: "programId", Col: 1, Kind: rowstore.KindString},
		{Name: "allocated", Col: 2, Kind: rowstore.KindFloat},
		{Name: "committed", Col: 3, Kind: rowstore.KindFloat},
		{Name: "spent", Col: 4, Kind: rowstore.KindFloat},
		{Name: "remaining", Col: 5, Kind: rowstore.KindFloat},
		{Name: "status", Col: 6, Kind: rowstore.KindString},
		{Name: "notes", Col: 7, Kind: rowstore.KindString},
		{Name: "createdAt", Col: 8, Kind: rowstore.KindTime},
		{Name: "updatedAt", Col: 9, Kind: rowstore.KindTime},
	},
}

// Service exposes the budget operations. All state lives in the injected
// row store.
type Service struct {
	store rowstore.Store
}

// NewService creates a budget service over the given row store.
func NewService(store rowstore.Store) *Service {
	return &Service{store: store}
}

func fromRecord(rec rowstore.Record) Budget {
	b := Budget{
		ID:        rec.String("id"),
		ProgramID: rec.String("programId"),
		Allocated: rec.Float("allocated"),
		Committed: rec.Float("committed"),
		Spent:     rec.Float("spent"),
		Status:    rec.String("status"),
		CreatedAt: rec.Time("createdAt"),
		UpdatedAt: rec.Time("updatedAt"),
	}
	if notes := rec.String("notes"); notes != "" {
		b.Notes = strings.Split(notes, noteSeparator)
	}
	b.recompute()
	return b
}

func (b *Budget) toRecord() rowstore.Record {
	return rowstore.Record{
		"id":        b.ID,
		"programId": b.ProgramID,
		"allocated": b.Allocated,
		"committed": b.Committed,
		"spent":     b.Spent,
		"remaining": b.Remaining,
		"status":    b.Status,
		"notes":     strings.Join(b.Notes, noteSeparator),
		"createdAt": b.CreatedAt,
		"updatedAt": b.UpdatedAt,
	}
}

// recompute refreshes the derived money fields. Invariant: remaining ==
// allocated - spent after every operation.
func (b *Budget) recompute() {
	b.Remaining = b.Allocated - b.Spent
	b.Variance = b.Allocated - b.Spent
	if b.Allocated > 0 {
		b.VariancePercent = b.Variance / b.Allocated * 100
	} else {
		b.VariancePercent = 0
	}
}

func (b *Budget) audit(note string, at time.Time) {
	b.Notes = append(b.Notes, fmt.Sprintf("%s: %s", at.Format("2006-01-02"), note))
	b.UpdatedAt = at
}

// Create appends a new draft budget for a program.
func (s *Service) Create(ctx context.Context, programID string, allocated float64) (Budget, error) {
	if programID == "" {
		return Budget{}, fmt.Errorf("program id is required")
	}
	if allocated < 0 {
		return Budget{}, fmt.Errorf("allocated amount cannot be negative")
	}
	id, err := s.store.GenerateNextID(ctx, Schema)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to create budget: %w", err)
	}
	now := time.Now().UTC()
	b := Budget{
		ID:        id,
		ProgramID: programID,
		Allocated: allocated,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.recompute()
	b.audit(fmt.Sprintf("created with allocation %.2f", allocated), now)
	if err := s.store.Append(ctx, Schema, b.toRecord()); err != nil {
		return Budget{}, fmt.Errorf("failed to create budget: %w", err)
	}
	return b, nil
}

// Get loads one budget by id.
func (s *Service) Get(ctx context.Context, id string) (Budget, error) {
	row, err := s.store.FindByID(ctx, Schema, id)
	if err != nil {
		return Budget{}, err
	}
	rec, err := rowstore.Decode(row.Values, Schema)
	if err != nil {
		return Budget{}, fmt.Errorf("failed to load budget %s: %w", id, err)
	}
	return fromRecord(rec), nil
}

// List returns every budget, optionally filtered by program.
func (s *Service) List(ctx context.Context, programID string) ([]Budget, error) {
	rows, err := s.store.ReadRows(ctx, Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	budgets := []Budget{}
	for _, row := range rows {
		rec, err := rowstore.Decode(row.Values, Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to list budgets: %w", err)
		}
		b := fromRecord(rec)
		if programID == "" || b.ProgramID == programID {
			budgets = append(budgets, b)
		}
	}
	return budgets, nil
}

// Activate moves a draft budget to active.
func (s *Service) Activate(ctx context.Context, id string) (Budget, error) {
	return s.mutate(ctx, id, func(b *Budget, now time.Time) error {
		if b.Status != StatusDraft {
			return fmt.Errorf("cannot activate budget in status %q", b.Status)
		}
		b.Status = StatusActive
		b.audit("activated", now)
		return nil
	})
}

// Close soft-deletes a budget by moving it to closed.
func (s *Service) Close(ctx context.Context, id string) (Budget, error) {
	return s.mutate(ctx, id, func(b *Budget, now time.Time) error {
		if b.Status == StatusClosed {
			return fmt.Errorf("budget %s is already closed", b.ID)
		}
		b.Status = StatusClosed
		b.audit("closed", now)
		return nil
	})
}

// Allocate raises (or with a negative delta lowers) the allocation.
// Allocation can never drop below what is already spent or committed.
func (s *Service) Allocate(ctx context.Context, id string, amount float64) (Budget, error) {
	return s.mutate(ctx, id, func(b *Budget, now time.Time) error {
		if amount <= 0 {
			return fmt.Errorf("allocation amount must be positive")
		}
		b.Allocated += amount
		b.audit(fmt.Sprintf("allocated %.2f (total %.2f)", amount, b.Allocated), now)
		return nil
	})
}

// Commit reserves part of the uncommitted allocation.
func (s *Service) Commit(ctx context.Context, id string, amount float64) (Budget, error) {
	return s.mutate(ctx, id, func(b *Budget, now time.Time) error {
		if amount <= 0 {
			return fmt.Errorf("commit amount must be positive")
		}
		if b.Committed+amount > b.Allocated {
			return fmt.Errorf("commit %.2f exceeds uncommitted allocation %.2f", amount, b.Allocated-b.Committed)
		}
		b.Committed += amount
		b.audit(fmt.Sprintf("committed %.2f (total %.2f)", amount, b.Committed), now)
		return nil
	})
}

// RecordExpense books actual spend against the budget.
func (s *Service) RecordExpense(ctx context.Context, id string, amount float64, memo string) (Budget, error) {
	return s.mutate(ctx, id, func(b *Budget, now time.Time) error {
		if amount <= 0 {
			return fmt.Errorf("expense amount must be positive")
		}
		b.Spent += amount
		note := fmt.Sprintf("expense %.2f (total spent %.2f)", amount, b.Spent)
		if memo != "" {
			note += ": " + memo
		}
		b.audit(note, now)
		return nil
	})
}

// mutate loads, validates, recomputes derived fields, and writes back.
// Validation errors happen before any write I/O.
func (s *Service) mutate(ctx context.Context, id string, fn func(*Budget, time.Time) error) (Budget, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return Budget{}, err
	}
	now := time.Now().UTC()
	if err := fn(&b, now); err != nil {
		return Budget{}, err
	}
	b.recompute()
	if err := s.store.UpdateByID(ctx, Schema, id, b.toRecord()); err != nil {
		return Budget{}, fmt.Errorf("failed to update budget %s: %w", id, err)
	}
	return b, nil
}

// BurnRate averages spend per elapsed 30-day period since creation.
// A budget younger than one period reports its full spend as the rate.
func (s *Service) BurnRate(ctx context.Context, id string, now time.Time) (float64, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	periods := now.Sub(b.CreatedAt).Hours() / 24 / 30
	if periods < 1 {
		periods = 1
	}
	return b.Spent / periods, nil
}
