// Package transaction manages financial transaction rows. A reconciled
// transaction is frozen: this is the one record-level invariant the
// system truly enforces, checked before any write I/O.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pmo_suite/pkg/core/rowstore"
)

// Flow directions.
const (
	FlowInflow  = "inflow"
	FlowOutflow = "outflow"
)

// Categorization statuses.
const (
	CategoryUnclassified   = "UNCLASSIFIED"
	CategoryClassifiedByAI = "CLASSIFIED_BY_AI"
	CategoryUserModified   = "USER_MODIFIED"
)

// ErrReconciled rejects any mutation of a reconciled transaction.
var ErrReconciled = errors.New("transaction is reconciled and frozen")

// Transaction is one financial record row.
type Transaction struct {
	ID             string    `json:"id"`
	ProgramID      string    `json:"programId"`
	Date           time.Time `json:"date"`
	Amount         float64   `json:"amount"`
	Flow           string    `json:"flow"`
	Category       string    `json:"category"`
	CategoryStatus string    `json:"categoryStatus"`
	Description    string    `json:"description"`
	Reconciled     bool      `json:"reconciled"`
	Deleted        bool      `json:"deleted"`
}

// Schema is the single descriptor for the Transactions sheet.
var Schema = rowstore.Schema{
	Sheet:    "Transactions",
	IDPrefix: "TXN",
	Fields: []rowstore.Field{
		{Name: "id", Col: 0, Kind: rowstore.KindString},
		{Name: "programId", Col: 1, Kind: rowstore.KindString},
		{Name: "date", Col: 2, Kind: rowstore.KindTime},
		{Name: "amount", Col: 3, Kind: rowstore.KindFloat},
		{Name: "flow", Col: 4, Kind: rowstore.KindString},
		{Name: "category", Col: 5, Kind: rowstore.KindString},
		{Name: "categoryStatus", Col: 6, Kind: rowstore.KindString},
		{Name: "description", Col: 7, Kind: rowstore.KindString},
		{Name: "reconciled", Col: 8, Kind: rowstore.KindBool},
		{Name: "deleted", Col: 9, Kind: rowstore.KindBool},
	},
}

// Categorizer assigns a spend category to a transaction description.
// The production implementation calls the LLM; tests inject a stub.
type Categorizer interface {
	Categorize(ctx context.Context, description string, amount float64) (category string, confidence float64, err error)
}

// Service exposes the transaction operations.
type Service struct {
	store       rowstore.Store
	categorizer Categorizer
}

// NewService creates a transaction service. categorizer may be nil when
// LLM categorization is disabled.
func NewService(store rowstore.Store, categorizer Categorizer) *Service {
	return &Service{store: store, categorizer: categorizer}
}

func fromRecord(rec rowstore.Record) Transaction {
	return Transaction{
		ID:             rec.String("id"),
		ProgramID:      rec.String("programId"),
		Date:           rec.Time("date"),
		Amount:         rec.Float("amount"),
		Flow:           rec.String("flow"),
		Category:       rec.String("category"),
		CategoryStatus: rec.String("categoryStatus"),
		Description:    rec.String("description"),
		Reconciled:     rec.Bool("reconciled"),
		Deleted:        rec.Bool("deleted"),
	}
}

func (t Transaction) toRecord() rowstore.Record {
	return rowstore.Record{
		"id":             t.ID,
		"programId":      t.ProgramID,
		"date":           t.Date,
		"amount":         t.Amount,
		"flow":           t.Flow,
		"category":       t.Category,
		"categoryStatus": t.CategoryStatus,
		"description":    t.Description,
		"reconciled":     t.Reconciled,
		"deleted":        t.Deleted,
	}
}

// Create appends a new unreconciled transaction.
func (s *Service) Create(ctx context.Context, t Transaction) (Transaction, error) {
	if t.ProgramID == "" {
		return Transaction{}, fmt.Errorf("program id is required")
	}
	if t.Amount < 0 {
		return Transaction{}, fmt.Errorf("amount cannot be negative")
	}
	if t.Flow != FlowInflow && t.Flow != FlowOutflow {
		return Transaction{}, fmt.Errorf("flow must be %q or %q", FlowInflow, FlowOutflow)
	}
	id, err := s.store.GenerateNextID(ctx, Schema)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	t.ID = id
	t.Reconciled = false
	t.Deleted = false
	if t.CategoryStatus == "" {
		t.CategoryStatus = CategoryUnclassified
	}
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	if err := s.store.Append(ctx, Schema, t.toRecord()); err != nil {
		return Transaction{}, fmt.Errorf("failed to create transaction: %w", err)
	}
	return t, nil
}

// Get loads one transaction by id.
func (s *Service) Get(ctx context.Context, id string) (Transaction, error) {
	row, err := s.store.FindByID(ctx, Schema, id)
	if err != nil {
		return Transaction{}, err
	}
	rec, err := rowstore.Decode(row.Values, Schema)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to load transaction %s: %w", id, err)
	}
	return fromRecord(rec), nil
}

// List returns transactions for a program (all when programID is empty),
// excluding soft-deleted rows.
func (s *Service) List(ctx context.Context, programID string) ([]Transaction, error) {
	rows, err := s.store.ReadRows(ctx, Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	out := []Transaction{}
	for _, row := range rows {
		rec, err := rowstore.Decode(row.Values, Schema)
		if err != nil {
			return nil, fmt.Errorf("failed to list transactions: %w", err)
		}
		t := fromRecord(rec)
		if t.Deleted {
			continue
		}
		if programID == "" || t.ProgramID == programID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Update overwrites the mutable fields of an unreconciled transaction.
// A reconciled transaction rejects the update before any I/O.
func (s *Service) Update(ctx context.Context, id string, amount float64, category, description string) (Transaction, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.Reconciled {
		return Transaction{}, fmt.Errorf("cannot update %s: %w", id, ErrReconciled)
	}
	if amount < 0 {
		return Transaction{}, fmt.Errorf("amount cannot be negative")
	}
	t.Amount = amount
	if category != "" {
		t.Category = category
		t.CategoryStatus = CategoryUserModified
	}
	if description != "" {
		t.Description = description
	}
	if err := s.store.UpdateByID(ctx, Schema, id, t.toRecord()); err != nil {
		return Transaction{}, fmt.Errorf("failed to update transaction %s: %w", id, err)
	}
	return t, nil
}

// Delete soft-deletes an unreconciled transaction.
func (s *Service) Delete(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t.Reconciled {
		return fmt.Errorf("cannot delete %s: %w", id, ErrReconciled)
	}
	t.Deleted = true
	if err := s.store.UpdateByID(ctx, Schema, id, t.toRecord()); err != nil {
		return fmt.Errorf("failed to delete transaction %s: %w", id, err)
	}
	return nil
}

// Reconcile freezes a transaction. Reconciling twice is a no-op.
func (s *Service) Reconcile(ctx context.Context, id string) (Transaction, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.Reconciled {
		return t, nil
	}
	t.Reconciled = true
	if err := s.store.UpdateByID(ctx, Schema, id, t.toRecord()); err != nil {
		return Transaction{}, fmt.Errorf("failed to reconcile transaction %s: %w", id, err)
	}
	return t, nil
}

// BatchResult is one item's outcome in a batch operation.
type BatchResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BatchReconcile reconciles ids serially, collecting per-item outcomes.
// One failure never aborts the loop or rolls back earlier successes.
func (s *Service) BatchReconcile(ctx context.Context, ids []string) []BatchResult {
	results := make([]BatchResult, 0, len(ids))
	for _, id := range ids {
		if _, err := s.Reconcile(ctx, id); err != nil {
			results = append(results, BatchResult{ID: id, Success: false, Error: err.Error()})
			continue
		}
		results = append(results, BatchResult{ID: id, Success: true})
	}
	return results
}

// Categorize asks the LLM for a spend category and records it. The
// transaction must still be mutable.
func (s *Service) Categorize(ctx context.Context, id string) (Transaction, error) {
	if s.categorizer == nil {
		return Transaction{}, fmt.Errorf("categorizer not configured")
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return Transaction{}, err
	}
	if t.Reconciled {
		return Transaction{}, fmt.Errorf("cannot categorize %s: %w", id, ErrReconciled)
	}
	category, confidence, err := s.categorizer.Categorize(ctx, t.Description, t.Amount)
	if err != nil {
		return Transaction{}, fmt.Errorf("failed to categorize transaction %s: %w", id, err)
	}
	fmt.Printf("[TXN] Categorized %s as %q (confidence %.2f)\n", id, category, confidence)
	t.Category = category
	t.CategoryStatus = CategoryClassifiedByAI
	if err := s.store.UpdateByID(ctx, Schema, id, t.toRecord()); err != nil {
		return Transaction{}, fmt.Errorf("failed to categorize transaction %s: %w", id, err)
	}
	return t, nil
}

// CashFlowHistory folds transactions into per-month inflow/outflow
// periods for the forecasting layer. Months with any transaction dated
// before now are "completed"; the current month is "projected".
func (s *Service) CashFlowHistory(ctx context.Context, programID string, now time.Time) ([]Period, error) {
	txns, err := s.List(ctx, programID)
	if err != nil {
		return nil, err
	}
	byMonth := map[string]*Period{}
	order := []string{}
	for _, t := range txns {
		key := t.Date.Format("2006-01")
		p, ok := byMonth[key]
		if !ok {
			p = &Period{Month: key}
			byMonth[key] = p
			order = append(order, key)
		}
		if t.Flow == FlowInflow {
			p.Inflow += t.Amount
		} else {
			p.Outflow += t.Amount
		}
	}
	current := now.Format("2006-01")
	out := make([]Period, 0, len(order))
	for _, key := range order {
		p := byMonth[key]
		if key < current {
			p.Status = "completed"
		} else {
			p.Status = "projected"
		}
		out = append(out, *p)
	}
	return out, nil
}

// Period is one month of aggregated cash movement.
type Period struct {
	Month   string  `json:"month"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
	Status  string  `json:"status"`
}
