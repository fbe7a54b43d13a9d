package rowstore

import (
	"context"
	"errors"
	"testing"
	"time"
)

var testSchema = Schema{
	Sheet:    "Budgets",
	IDPrefix: "BUD",
	Fields: []Field{
		{Name: "id", Col: 0, Kind: KindString},
		{Name: "programId", Col: 1, Kind: KindString},
		{Name: "allocated", Col: 2, Kind: KindFloat},
		{Name: "reconciled", Col: 3, Kind: KindBool},
		{Name: "createdAt", Col: 4, Kind: KindTime},
	},
}

func TestSchemaRange(t *testing.T) {
	if got := testSchema.Range(); got != "Budgets!A2:E" {
		t.Errorf("Expected Budgets!A2:E, got %s", got)
	}
}

func TestColLetter(t *testing.T) {
	cases := map[int]string{0: "A", 1: "B", 25: "Z", 26: "AA", 27: "AB"}
	for col, want := range cases {
		if got := colLetter(col); got != want {
			t.Errorf("Column %d: expected %s, got %s", col, want, got)
		}
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	row := []string{"BUD-007", "PRG-001", "150000.5", "true", "2026-01-15"}
	rec, err := Decode(row, testSchema)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.String("id") != "BUD-007" {
		t.Errorf("Expected BUD-007, got %s", rec.String("id"))
	}
	if rec.Float("allocated") != 150000.5 {
		t.Errorf("Expected 150000.5, got %f", rec.Float("allocated"))
	}
	if !rec.Bool("reconciled") {
		t.Error("Expected reconciled true")
	}
	if want := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC); !rec.Time("createdAt").Equal(want) {
		t.Errorf("Expected %s, got %s", want, rec.Time("createdAt"))
	}

	encoded := Encode(rec, testSchema)
	if encoded[0] != "BUD-007" || encoded[2] != "150000.5" || encoded[4] != "2026-01-15" {
		t.Errorf("Encode mismatch: %v", encoded)
	}
}

func TestDecodeMalformedCellIsExplicitError(t *testing.T) {
	// A present but unparseable money cell must fail loudly, not silently
	// coalesce to zero.
	row := []string{"BUD-001", "PRG-001", "not-a-number", "false", ""}
	if _, err := Decode(row, testSchema); err == nil {
		t.Fatal("Expected decode error for malformed number")
	}
}

func TestDecodeShortRowUsesZeroValues(t *testing.T) {
	// Sheets trims trailing empty cells; absent cells are zero values.
	rec, err := Decode([]string{"BUD-002"}, testSchema)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.Float("allocated") != 0 || rec.Bool("reconciled") {
		t.Errorf("Expected zero values for absent cells, got %v", rec)
	}
}

func TestGenerateNextID(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.Seed("Budgets", [][]string{
		{"BUD-001"}, {"BUD-009"}, {"BUD-004"},
		{"TXN-099"}, // foreign prefix in the same column is ignored
		{"garbage"},
	})
	id, err := m.GenerateNextID(ctx, testSchema)
	if err != nil {
		t.Fatalf("GenerateNextID failed: %v", err)
	}
	if id != "BUD-010" {
		t.Errorf("Expected BUD-010, got %s", id)
	}

	// Empty sheet starts at 001.
	empty := NewMemory()
	id, _ = empty.GenerateNextID(ctx, testSchema)
	if id != "BUD-001" {
		t.Errorf("Expected BUD-001, got %s", id)
	}
}

func TestMemoryFindAndUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := Record{"id": "BUD-001", "programId": "PRG-001", "allocated": 1000.0, "reconciled": false}
	if err := m.Append(ctx, testSchema, rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	row, err := m.FindByID(ctx, testSchema, "BUD-001")
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if row.Index != 0 {
		t.Errorf("Expected row index 0, got %d", row.Index)
	}

	rec["allocated"] = 2000.0
	if err := m.UpdateByID(ctx, testSchema, "BUD-001", rec); err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}
	row, _ = m.FindByID(ctx, testSchema, "BUD-001")
	decoded, _ := Decode(row.Values, testSchema)
	if decoded.Float("allocated") != 2000 {
		t.Errorf("Expected allocated 2000, got %f", decoded.Float("allocated"))
	}

	_, err = m.FindByID(ctx, testSchema, "BUD-404")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
