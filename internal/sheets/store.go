// Package sheets implements the row store for persisted records on top
// of the Google Sheets API. Rows are addressed by their 1-based sheet
// position, header row included; deleting a row shifts every later
// position down by one, so callers must re-read before acting on a
// previously fetched position.
package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// Table names one of the three record tabs.
type Table string

const (
	TableSales       Table = "Sales"
	TableExpenses    Table = "Expenses"
	TableDailyCloses Table = "DailyCloses"
)

// Row is one data row with its current sheet position.
type Row struct {
	Pos    int // 1-based, header included; data starts at 2
	Values []string
}

// RowStore is the persistence boundary the dialogue engine talks to.
type RowStore interface {
	AppendRow(ctx context.Context, table Table, values []string) error
	ReadAll(ctx context.Context, table Table) ([]Row, error)
	UpdateRow(ctx context.Context, table Table, pos int, values []string) error
	DeleteRow(ctx context.Context, table Table, pos int) error
}

// FindByColumn scans a table for the first row whose column col (0-based)
// equals value. Returns ok=false when nothing matches.
func FindByColumn(ctx context.Context, s RowStore, table Table, col int, value string) (Row, bool, error) {
	rows, err := s.ReadAll(ctx, table)
	if err != nil {
		return Row{}, false, fmt.Errorf("FindByColumn: %w", err)
	}
	for _, row := range rows {
		if col < len(row.Values) && row.Values[col] == value {
			return row, true, nil
		}
	}
	return Row{}, false, nil
}

// Store is the Google Sheets implementation of RowStore. All three
// tables are tabs of one spreadsheet.
type Store struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	sheetIDs      map[Table]int64 // tab title -> numeric sheet id, for deletes
}

// NewStore connects to the spreadsheet using a service-account
// credentials file and resolves the numeric ids of the three tabs.
func NewStore(ctx context.Context, credentialsFile, spreadsheetID string) (*Store, error) {
	svc, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("NewStore: sheets service: %w", err)
	}

	meta, err := svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("NewStore: fetching spreadsheet %s: %w", spreadsheetID, err)
	}

	ids := make(map[Table]int64)
	for _, sh := range meta.Sheets {
		if sh.Properties == nil {
			continue
		}
		ids[Table(sh.Properties.Title)] = sh.Properties.SheetId
	}
	for _, table := range []Table{TableSales, TableExpenses, TableDailyCloses} {
		if _, ok := ids[table]; !ok {
			return nil, fmt.Errorf("NewStore: spreadsheet has no %q tab", table)
		}
	}

	return &Store{svc: svc, spreadsheetID: spreadsheetID, sheetIDs: ids}, nil
}

// AppendRow appends values after the last non-empty row of the table.
func (s *Store) AppendRow(ctx context.Context, table Table, values []string) error {
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{toCells(values)}}
	_, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, string(table), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("AppendRow: %s: %w", table, err)
	}
	return nil
}

// ReadAll returns every data row of the table, skipping the header.
func (s *Store) ReadAll(ctx context.Context, table Table) ([]Row, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, string(table)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %s: %w", table, err)
	}

	var rows []Row
	for i, cells := range resp.Values {
		if i == 0 {
			continue // header
		}
		values := make([]string, len(cells))
		for j, c := range cells {
			values[j] = fmt.Sprint(c)
		}
		rows = append(rows, Row{Pos: i + 1, Values: values})
	}
	return rows, nil
}

// UpdateRow overwrites the row at pos with values.
func (s *Store) UpdateRow(ctx context.Context, table Table, pos int, values []string) error {
	if pos < 2 {
		return fmt.Errorf("UpdateRow: %s: position %d is not a data row", table, pos)
	}
	vr := &sheetsapi.ValueRange{Values: [][]interface{}{toCells(values)}}
	_, err := s.svc.Spreadsheets.Values.
		Update(s.spreadsheetID, fmt.Sprintf("%s!A%d", table, pos), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("UpdateRow: %s row %d: %w", table, pos, err)
	}
	return nil
}

// DeleteRow removes the row at pos. Later rows shift up by one.
func (s *Store) DeleteRow(ctx context.Context, table Table, pos int) error {
	if pos < 2 {
		return fmt.Errorf("DeleteRow: %s: position %d is not a data row", table, pos)
	}
	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    s.sheetIDs[table],
					Dimension:  "ROWS",
					StartIndex: int64(pos - 1), // API range is 0-based
					EndIndex:   int64(pos),
				},
			},
		}},
	}
	_, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("DeleteRow: %s row %d: %w", table, pos, err)
	}
	return nil
}

// ReadSheet exposes raw positional cells of an arbitrary tab. It lets
// the analytics engine use the live spreadsheet as its source.
func (s *Store) ReadSheet(ctx context.Context, sheet string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Get(s.spreadsheetID, sheet).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ReadSheet: %s: %w", sheet, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, cells := range resp.Values {
		values := make([]string, len(cells))
		for j, c := range cells {
			values[j] = fmt.Sprint(c)
		}
		rows = append(rows, values)
	}
	return rows, nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

var _ RowStore = (*Store)(nil)
