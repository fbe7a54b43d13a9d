// This file defines the row-store contract and the id conventions.
package rowstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrNotFound reports a lookup for an id that has no row. API handlers
// map it to HTTP 404.
var ErrNotFound = errors.New("row not found")

// Row is one raw sheet row plus its position (zero-based data row index,
// excluding the header).
type Row struct {
	Index  int
	Values []string
}

// Store is the row-store contract every service depends on. The Sheets
// client is the production implementation; tests inject Memory.
//
// There is no locking and no transaction: two concurrent writers to the
// same row race at the cell level, last write wins.
type Store interface {
	// ReadRows returns every data row of the schema's sheet in append order.
	ReadRows(ctx context.Context, s Schema) ([]Row, error)
	// Append adds one row at the bottom of the sheet.
	Append(ctx context.Context, s Schema, rec Record) error
	// UpdateByID overwrites the row holding id with the full encoded record.
	UpdateByID(ctx context.Context, s Schema, id string, rec Record) error
	// FindByID returns the row holding id, or ErrNotFound.
	FindByID(ctx context.Context, s Schema, id string) (Row, error)
	// GenerateNextID scans the id column and returns PREFIX-NNN with the
	// max suffix incremented. Ids are unique per (spreadsheet, sheet)
	// pair only.
	GenerateNextID(ctx context.Context, s Schema) (string, error)
}

var idPattern = regexp.MustCompile(`^([A-Z]+)-(\d+)$`)

// nextID computes PREFIX-NNN from the existing id cells: scan for the
// current max numeric suffix, increment, zero-pad to three digits.
func nextID(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		m := idPattern.FindStringSubmatch(id)
		if m == nil || m[1] != prefix {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err == nil && n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s-%03d", prefix, max+1)
}
