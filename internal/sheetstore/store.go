// Package sheetstore adapts the Google Sheets collaborator as the tabular
// sink for published job offers.
package sheetstore

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/docwalter/shutscan/internal/types"
)

// Header is the sheet's first row, written once when the sheet is empty.
var Header = []interface{}{
	"Received", "Workplace", "Start Date", "End Date",
	"Day Shift Rate", "Night Shift Rate", "Position", "Clean Shaven",
	"Client", "Contact Number", "Contact Email", "Sender",
	"Email Subject", "Email Thread Link",
}

// Store wraps the Sheets API service bound to one spreadsheet and sheet.
type Store struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// New builds a Sheets-backed store. Credential problems are fatal.
func New(ctx context.Context, spreadsheetID, sheetName string, opts ...option.ClientOption) (*Store, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// IsEmpty reports whether the sheet has no header row yet.
func (s *Store) IsEmpty(ctx context.Context) (bool, error) {
	res, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, s.sheetName+"!A1:A1").
		Context(ctx).
		Do()
	if err != nil {
		return false, fmt.Errorf("sheet read failed: %w", err)
	}
	return len(res.Values) == 0, nil
}

// EnsureHeader writes the header row if the sheet is empty. Idempotent.
func (s *Store) EnsureHeader(ctx context.Context) error {
	empty, err := s.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		return nil
	}
	return s.append(ctx, [][]interface{}{Header})
}

// AppendOffers appends one row per offer.
func (s *Store) AppendOffers(ctx context.Context, offers []types.JobOffer) error {
	if len(offers) == 0 {
		return nil
	}
	rows := make([][]interface{}, 0, len(offers))
	for _, offer := range offers {
		rows = append(rows, Row(offer))
	}
	return s.append(ctx, rows)
}

func (s *Store) append(ctx context.Context, rows [][]interface{}) error {
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.sheetName+"!A1", &sheets.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheet append failed: %w", err)
	}
	return nil
}

// Row flattens one offer into sheet cells, in Header order.
func Row(offer types.JobOffer) []interface{} {
	return []interface{}{
		offer.Received.Display(),
		offer.Workplace,
		offer.StartDate,
		offer.EndDate,
		offer.DayShiftRate,
		offer.NightShiftRate,
		offer.Position,
		offer.CleanShaven,
		offer.ClientName,
		offer.ContactNumber,
		offer.EmailAddress,
		offer.Sender,
		offer.EmailSubject,
		offer.EmailThreadLink,
	}
}
