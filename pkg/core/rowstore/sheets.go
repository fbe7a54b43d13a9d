// This file implements Store against the Google Sheets v4 API.
package rowstore

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsStore is the production Store backed by one spreadsheet.
type SheetsStore struct {
	svc           *sheets.Service
	spreadsheetID string
}

// NewSheetsStore builds a client for one spreadsheet. Credentials come
// from GOOGLE_APPLICATION_CREDENTIALS or an explicit service-account
// file path.
func NewSheetsStore(ctx context.Context, spreadsheetID string) (*SheetsStore, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id not set")
	}
	var opts []option.ClientOption
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsStore{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// ReadRows fetches every data row of the schema's sheet in append order.
func (s *SheetsStore) ReadRows(ctx context.Context, sc Schema) ([]Row, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, sc.Range()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sc.Range(), err)
	}
	rows := make([]Row, 0, len(resp.Values))
	for i, raw := range resp.Values {
		values := make([]string, len(raw))
		for j, cell := range raw {
			values[j] = fmt.Sprint(cell)
		}
		rows = append(rows, Row{Index: i, Values: values})
	}
	return rows, nil
}

// Append adds one encoded row at the bottom of the sheet.
func (s *SheetsStore) Append(ctx context.Context, sc Schema, rec Record) error {
	body := &sheets.ValueRange{Values: [][]interface{}{Encode(rec, sc)}}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, sc.Range(), body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", sc.Sheet, err)
	}
	return nil
}

// UpdateByID overwrites the row holding id with the full encoded record.
// Last write wins; there is no optimistic concurrency control.
func (s *SheetsStore) UpdateByID(ctx context.Context, sc Schema, id string, rec Record) error {
	row, err := s.FindByID(ctx, sc, id)
	if err != nil {
		return err
	}
	// Data rows start at sheet row 2 (row 1 is the header).
	sheetRow := row.Index + 2
	lastCol := 0
	for _, f := range sc.Fields {
		if f.Col > lastCol {
			lastCol = f.Col
		}
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", sc.Sheet, sheetRow, colLetter(lastCol), sheetRow)
	body := &sheets.ValueRange{Values: [][]interface{}{Encode(rec, sc)}}
	_, err = s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, rng, body).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update %s row %s: %w", sc.Sheet, id, err)
	}
	return nil
}

// FindByID scans the id column for id.
func (s *SheetsStore) FindByID(ctx context.Context, sc Schema, id string) (Row, error) {
	rows, err := s.ReadRows(ctx, sc)
	if err != nil {
		return Row{}, err
	}
	idCol := sc.IDColumn()
	for _, row := range rows {
		if idCol < len(row.Values) && row.Values[idCol] == id {
			return row, nil
		}
	}
	return Row{}, fmt.Errorf("%s %q: %w", sc.Sheet, id, ErrNotFound)
}

// GenerateNextID scans the id column and increments the max suffix.
func (s *SheetsStore) GenerateNextID(ctx context.Context, sc Schema) (string, error) {
	rows, err := s.ReadRows(ctx, sc)
	if err != nil {
		return "", fmt.Errorf("failed to generate id for %s: %w", sc.Sheet, err)
	}
	idCol := sc.IDColumn()
	existing := make([]string, 0, len(rows))
	for _, row := range rows {
		if idCol < len(row.Values) {
			existing = append(existing, row.Values[idCol])
		}
	}
	return nextID(sc.IDPrefix, existing), nil
}
