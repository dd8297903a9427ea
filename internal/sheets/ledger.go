package sheets

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmorales/ledgerbot/internal/domain"
)

// ErrNotFound signals that a lookup matched nothing. It terminates a
// flow with an informative message, not a failure.
var ErrNotFound = errors.New("record not found")

const timestampLayout = "2006-01-02 15:04:05"

// Column orders are positional and fixed; the store never reads headers
// back.
var (
	salesHeader      = []string{"Date", "Invoice", "Customer", "Amount", "Payment method", "Notes", "Timestamp"}
	expensesHeader   = []string{"Date", "Category", "Supplier", "Amount", "Payment method", "Notes", "Timestamp"}
	dailyCloseHeader = []string{"Date", "Cash", "Transfer", "Debit card", "Credit card", "Other", "Total", "Notes", "Timestamp"}
)

// Ledger maps domain records onto the row store's positional columns
// and stamps timestamps on append.
type Ledger struct {
	store RowStore
	loc   *time.Location
	now   func() time.Time
}

// NewLedger wraps a row store. loc governs date comparisons for period
// totals.
func NewLedger(store RowStore, loc *time.Location) *Ledger {
	return &Ledger{store: store, loc: loc, now: time.Now}
}

// rawReader is implemented by stores that can expose the header row.
// ReadAll skips row 1, so distinguishing "empty tab" from "header only"
// needs the raw view.
type rawReader interface {
	ReadSheet(ctx context.Context, sheet string) ([][]string, error)
}

// EnsureHeaders writes the header row of any empty table. Called once
// at startup.
func (l *Ledger) EnsureHeaders(ctx context.Context) error {
	raw, ok := l.store.(rawReader)
	if !ok {
		return nil
	}
	for table, header := range map[Table][]string{
		TableSales:       salesHeader,
		TableExpenses:    expensesHeader,
		TableDailyCloses: dailyCloseHeader,
	} {
		rows, err := raw.ReadSheet(ctx, string(table))
		if err != nil {
			return fmt.Errorf("EnsureHeaders: %s: %w", table, err)
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			continue
		}
		if err := l.store.AppendRow(ctx, table, header); err != nil {
			return fmt.Errorf("EnsureHeaders: %s: %w", table, err)
		}
	}
	return nil
}

// AppendSale persists a sale and stamps its timestamp.
func (l *Ledger) AppendSale(ctx context.Context, s domain.Sale) error {
	row := []string{
		s.Date,
		s.Invoice,
		s.Customer,
		formatAmount(s.Amount),
		s.PaymentMethod,
		s.Notes,
		l.now().Format(timestampLayout),
	}
	if err := l.store.AppendRow(ctx, TableSales, row); err != nil {
		return fmt.Errorf("AppendSale: %w", err)
	}
	return nil
}

// AppendExpense persists an expense and stamps its timestamp.
func (l *Ledger) AppendExpense(ctx context.Context, e domain.Expense) error {
	row := []string{
		e.Date,
		e.Category,
		e.Supplier,
		formatAmount(e.Amount),
		e.PaymentMethod,
		e.Notes,
		l.now().Format(timestampLayout),
	}
	if err := l.store.AppendRow(ctx, TableExpenses, row); err != nil {
		return fmt.Errorf("AppendExpense: %w", err)
	}
	return nil
}

// AppendDailyClose persists a daily close with its computed total.
func (l *Ledger) AppendDailyClose(ctx context.Context, c domain.DailyClose) error {
	row := []string{c.Date}
	for _, m := range domain.PaymentMethods {
		row = append(row, formatAmount(c.Buckets[m]))
	}
	row = append(row, formatAmount(c.Total()), c.Notes, l.now().Format(timestampLayout))
	if err := l.store.AppendRow(ctx, TableDailyCloses, row); err != nil {
		return fmt.Errorf("AppendDailyClose: %w", err)
	}
	return nil
}

// FindSaleByInvoice returns the first sale whose invoice column matches.
func (l *Ledger) FindSaleByInvoice(ctx context.Context, invoice string) (domain.Sale, error) {
	row, ok, err := FindByColumn(ctx, l.store, TableSales, 1, invoice)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("FindSaleByInvoice: %w", err)
	}
	if !ok {
		return domain.Sale{}, ErrNotFound
	}
	return saleFromRow(row), nil
}

// LastSale returns the most recently appended sale.
func (l *Ledger) LastSale(ctx context.Context) (domain.Sale, error) {
	rows, err := l.store.ReadAll(ctx, TableSales)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("LastSale: %w", err)
	}
	if len(rows) == 0 {
		return domain.Sale{}, ErrNotFound
	}
	return saleFromRow(rows[len(rows)-1]), nil
}

// LastExpense returns the most recently appended expense.
func (l *Ledger) LastExpense(ctx context.Context) (domain.Expense, error) {
	rows, err := l.store.ReadAll(ctx, TableExpenses)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("LastExpense: %w", err)
	}
	if len(rows) == 0 {
		return domain.Expense{}, ErrNotFound
	}
	return expenseFromRow(rows[len(rows)-1]), nil
}

// UpdateSale rewrites the sale's row in place. The timestamp column
// keeps the original value carried on the record.
func (l *Ledger) UpdateSale(ctx context.Context, s domain.Sale) error {
	row := []string{
		s.Date,
		s.Invoice,
		s.Customer,
		formatAmount(s.Amount),
		s.PaymentMethod,
		s.Notes,
		s.Timestamp.Format(timestampLayout),
	}
	if err := l.store.UpdateRow(ctx, TableSales, s.Row, row); err != nil {
		return fmt.Errorf("UpdateSale: %w", err)
	}
	return nil
}

// DeleteRecord removes one row from the given table.
func (l *Ledger) DeleteRecord(ctx context.Context, table Table, pos int) error {
	if err := l.store.DeleteRow(ctx, table, pos); err != nil {
		return fmt.Errorf("DeleteRecord: %w", err)
	}
	return nil
}

// Totals aggregates sales and expenses over an inclusive DD/MM/YYYY
// range. Empty bounds mean all-time.
type Totals struct {
	TotalSales    float64
	TotalExpenses float64
	Profit        float64
	Margin        float64 // percent of sales; zero when there are no sales
	NumSales      int
	NumExpenses   int
}

// Totals computes period totals from both entry tables.
func (l *Ledger) Totals(ctx context.Context, start, end string) (Totals, error) {
	var t Totals

	sales, err := l.store.ReadAll(ctx, TableSales)
	if err != nil {
		return t, fmt.Errorf("Totals: %w", err)
	}
	for _, row := range sales {
		if !l.inRange(cell(row, 0), start, end) {
			continue
		}
		t.TotalSales += parseAmount(cell(row, 3))
		t.NumSales++
	}

	expenses, err := l.store.ReadAll(ctx, TableExpenses)
	if err != nil {
		return t, fmt.Errorf("Totals: %w", err)
	}
	for _, row := range expenses {
		if !l.inRange(cell(row, 0), start, end) {
			continue
		}
		t.TotalExpenses += parseAmount(cell(row, 3))
		t.NumExpenses++
	}

	t.Profit = t.TotalSales - t.TotalExpenses
	if t.TotalSales > 0 {
		t.Margin = t.Profit / t.TotalSales * 100
	}
	return t, nil
}

func (l *Ledger) inRange(date, start, end string) bool {
	if start == "" && end == "" {
		return true
	}
	d, err := time.ParseInLocation(domain.DateLayout, date, l.loc)
	if err != nil {
		return false
	}
	if start != "" {
		s, err := time.ParseInLocation(domain.DateLayout, start, l.loc)
		if err != nil || d.Before(s) {
			return false
		}
	}
	if end != "" {
		e, err := time.ParseInLocation(domain.DateLayout, end, l.loc)
		if err != nil || d.After(e) {
			return false
		}
	}
	return true
}

func saleFromRow(row Row) domain.Sale {
	return domain.Sale{
		Date:          cell(row, 0),
		Invoice:       cell(row, 1),
		Customer:      cell(row, 2),
		Amount:        parseAmount(cell(row, 3)),
		PaymentMethod: cell(row, 4),
		Notes:         cell(row, 5),
		Timestamp:     parseTimestamp(cell(row, 6)),
		Row:           row.Pos,
	}
}

func expenseFromRow(row Row) domain.Expense {
	return domain.Expense{
		Date:          cell(row, 0),
		Category:      cell(row, 1),
		Supplier:      cell(row, 2),
		Amount:        parseAmount(cell(row, 3)),
		PaymentMethod: cell(row, 4),
		Notes:         cell(row, 5),
		Timestamp:     parseTimestamp(cell(row, 6)),
		Row:           row.Pos,
	}
}

func cell(row Row, i int) string {
	if i < len(row.Values) {
		return row.Values[i]
	}
	return ""
}

// Amounts are stored in machine format: "." decimal separator, no
// grouping. User-facing formatting lives in the format package.
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
