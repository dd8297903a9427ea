package dialog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmorales/ledgerbot/internal/domain"
	"github.com/dmorales/ledgerbot/internal/sheets"
)

// fakeRecorder keeps records in memory and can be told to fail writes.
type fakeRecorder struct {
	sales   []domain.Sale
	expense []domain.Expense
	closes  []domain.DailyClose
	updated []domain.Sale
	deleted []string
	failAll bool
}

var errStore = errors.New("store unavailable")

func (r *fakeRecorder) AppendSale(_ context.Context, s domain.Sale) error {
	if r.failAll {
		return errStore
	}
	s.Row = len(r.sales) + 2
	r.sales = append(r.sales, s)
	return nil
}

func (r *fakeRecorder) AppendExpense(_ context.Context, e domain.Expense) error {
	if r.failAll {
		return errStore
	}
	e.Row = len(r.expense) + 2
	r.expense = append(r.expense, e)
	return nil
}

func (r *fakeRecorder) AppendDailyClose(_ context.Context, c domain.DailyClose) error {
	if r.failAll {
		return errStore
	}
	r.closes = append(r.closes, c)
	return nil
}

func (r *fakeRecorder) FindSaleByInvoice(_ context.Context, invoice string) (domain.Sale, error) {
	for _, s := range r.sales {
		if s.Invoice == invoice {
			return s, nil
		}
	}
	return domain.Sale{}, sheets.ErrNotFound
}

func (r *fakeRecorder) LastSale(context.Context) (domain.Sale, error) {
	if len(r.sales) == 0 {
		return domain.Sale{}, sheets.ErrNotFound
	}
	return r.sales[len(r.sales)-1], nil
}

func (r *fakeRecorder) LastExpense(context.Context) (domain.Expense, error) {
	if len(r.expense) == 0 {
		return domain.Expense{}, sheets.ErrNotFound
	}
	return r.expense[len(r.expense)-1], nil
}

func (r *fakeRecorder) UpdateSale(_ context.Context, s domain.Sale) error {
	if r.failAll {
		return errStore
	}
	r.updated = append(r.updated, s)
	return nil
}

func (r *fakeRecorder) DeleteRecord(_ context.Context, table sheets.Table, pos int) error {
	if r.failAll {
		return errStore
	}
	r.deleted = append(r.deleted, string(table))
	return nil
}

func (r *fakeRecorder) Totals(context.Context, string, string) (sheets.Totals, error) {
	if r.failAll {
		return sheets.Totals{}, errStore
	}
	return sheets.Totals{TotalSales: 150000, TotalExpenses: 50000, Profit: 100000, Margin: 66.7, NumSales: 3, NumExpenses: 2}, nil
}

// walk feeds inputs to a flow and returns the last reply and outcome.
func walk(t *testing.T, f Flow, inputs ...string) (Reply, Outcome) {
	t.Helper()
	ctx := context.Background()
	f.Start(ctx)
	var (
		reply   Reply
		outcome Outcome
	)
	for _, in := range inputs {
		reply, outcome = f.Handle(ctx, in)
	}
	return reply, outcome
}

func TestSaleFlowCompletes(t *testing.T) {
	rec := &fakeRecorder{}
	flow := NewSaleFlow(rec, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow,
		"today", "A100", "-", "50000", "Cash", "-", "Yes")

	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "Sale saved")
	require.Len(t, rec.sales, 1)
	s := rec.sales[0]
	assert.Equal(t, time.Now().UTC().Format(domain.DateLayout), s.Date)
	assert.Equal(t, "A100", s.Invoice)
	assert.Equal(t, domain.NoText, s.Customer)
	assert.Equal(t, 50000.0, s.Amount)
	assert.Equal(t, "Cash", s.PaymentMethod)
	assert.Equal(t, domain.NoText, s.Notes)
}

func TestSaleFlowInvoiceSkipTokens(t *testing.T) {
	for _, token := range []string{"-", "n/a", "NA", "s/n", "none"} {
		rec := &fakeRecorder{}
		flow := NewSaleFlow(rec, time.UTC, zerolog.Nop())

		_, outcome := walk(t, flow,
			"15/01/2025", token, "Maria", "12.500", "Transfer", "weekly order", "yes")

		require.Equal(t, Completed, outcome, "token %q", token)
		assert.Equal(t, domain.NoInvoice, rec.sales[0].Invoice, "token %q", token)
	}
}

func TestSaleFlowRepromptsOnInvalidInput(t *testing.T) {
	flow := NewSaleFlow(&fakeRecorder{}, time.UTC, zerolog.Nop())
	ctx := context.Background()
	flow.Start(ctx)

	reply, outcome := flow.Handle(ctx, "31/02/2025")
	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "Invalid date")

	// Still on the date step.
	reply, outcome = flow.Handle(ctx, "15/01/2025")
	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "Invoice")
}

func TestSaleFlowRejectedConfirmationDiscards(t *testing.T) {
	rec := &fakeRecorder{}
	flow := NewSaleFlow(rec, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow,
		"today", "A1", "-", "1000", "Cash", "-", "No")

	assert.Equal(t, Cancelled, outcome)
	assert.Contains(t, reply.Text, "discarded")
	assert.Empty(t, rec.sales)
}

func TestSaleFlowPersistFailureEndsFlow(t *testing.T) {
	rec := &fakeRecorder{failAll: true}
	flow := NewSaleFlow(rec, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow,
		"today", "A1", "-", "1000", "Cash", "-", "Yes")

	assert.Equal(t, Cancelled, outcome)
	assert.Equal(t, saveFailedReply, reply)
}

func TestExpenseFlowCompletes(t *testing.T) {
	rec := &fakeRecorder{}
	categories := []string{"Utilities", "Payroll", "Other"}
	flow := NewExpenseFlow(rec, time.UTC, categories, zerolog.Nop())

	reply, outcome := walk(t, flow,
		"15/01/2025", "Payroll", "ACME Ltd", "1.234,56", "Transfer", "-", "yes")

	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "Expense saved")
	require.Len(t, rec.expense, 1)
	e := rec.expense[0]
	assert.Equal(t, "Payroll", e.Category)
	assert.Equal(t, "ACME Ltd", e.Supplier)
	assert.InDelta(t, 1234.56, e.Amount, 1e-9)
}

func TestExpenseFlowRejectsUnknownCategory(t *testing.T) {
	flow := NewExpenseFlow(&fakeRecorder{}, time.UTC, []string{"Utilities"}, zerolog.Nop())
	ctx := context.Background()
	flow.Start(ctx)
	flow.Handle(ctx, "today")

	reply, outcome := flow.Handle(ctx, "Groceries")

	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "listed categories")
	assert.Equal(t, [][]string{{"Utilities"}}, reply.Keyboard)
}

func TestDailyCloseFlowCompletes(t *testing.T) {
	rec := &fakeRecorder{}
	flow := NewDailyCloseFlow(rec, time.UTC, zerolog.Nop())

	// Cash only; every other bucket explicitly zero.
	reply, outcome := walk(t, flow,
		"15/01/2025", "100.000", "0", "0", "0", "0", "-", "yes")

	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "Daily close saved")
	require.Len(t, rec.closes, 1)
	c := rec.closes[0]
	assert.Equal(t, 100000.0, c.Buckets[domain.PayCash])
	assert.Equal(t, 0.0, c.Buckets[domain.PayTransfer])
	assert.Equal(t, 100000.0, c.Total())
	assert.Len(t, c.Buckets, len(domain.PaymentMethods))
}

func TestDailyCloseFlowRejectsBadBucket(t *testing.T) {
	flow := NewDailyCloseFlow(&fakeRecorder{}, time.UTC, zerolog.Nop())
	ctx := context.Background()
	flow.Start(ctx)
	flow.Handle(ctx, "today")

	reply, outcome := flow.Handle(ctx, "lots")

	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "Invalid amount")
}

func TestReportFlow(t *testing.T) {
	flow := NewReportFlow(&fakeRecorder{}, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow, "This month")

	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "Total sales: $150.000 (3 records)")
	assert.Contains(t, reply.Text, "Profit: $100.000")
}

func TestReportFlowRepromptsOnUnknownPeriod(t *testing.T) {
	flow := NewReportFlow(&fakeRecorder{}, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow, "yesterday")

	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "listed periods")
}

func TestSearchFlowNotFoundEndsImmediately(t *testing.T) {
	flow := NewSearchFlow(&fakeRecorder{}, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow, "B404")

	assert.Equal(t, Cancelled, outcome)
	assert.Contains(t, reply.Text, "No sale found")
}

func TestSearchFlowEditAmount(t *testing.T) {
	rec := &fakeRecorder{sales: []domain.Sale{{
		Date: "15/01/2025", Invoice: "A100", Customer: "Maria",
		Amount: 50000, PaymentMethod: "Cash", Notes: "-", Row: 2,
	}}}
	flow := NewSearchFlow(rec, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow, "A100", "Edit", "Amount", "75.000", "Yes")

	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "Record updated")
	require.Len(t, rec.updated, 1)
	assert.Equal(t, 75000.0, rec.updated[0].Amount)
	assert.Equal(t, 2, rec.updated[0].Row)
	assert.Equal(t, "A100", rec.updated[0].Invoice)
}

func TestSearchFlowEditShowsBeforeAndAfter(t *testing.T) {
	rec := &fakeRecorder{sales: []domain.Sale{{
		Date: "15/01/2025", Invoice: "A100", Customer: "Maria",
		Amount: 50000, PaymentMethod: "Cash", Notes: "-", Row: 2,
	}}}
	flow := NewSearchFlow(rec, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow, "A100", "Edit", "Customer", "Pedro")

	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "Maria")
	assert.Contains(t, reply.Text, "Pedro")
}

func TestSearchFlowDelete(t *testing.T) {
	rec := &fakeRecorder{sales: []domain.Sale{{Invoice: "A100", Amount: 50000, Row: 2}}}
	flow := NewSearchFlow(rec, time.UTC, zerolog.Nop())

	reply, outcome := walk(t, flow, "A100", "Delete", "yes")

	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "Record deleted")
	assert.Equal(t, []string{"Sales"}, rec.deleted)
}

func TestSearchFlowDeleteRejected(t *testing.T) {
	rec := &fakeRecorder{sales: []domain.Sale{{Invoice: "A100", Row: 2}}}
	flow := NewSearchFlow(rec, time.UTC, zerolog.Nop())

	_, outcome := walk(t, flow, "A100", "Delete", "no")

	assert.Equal(t, Cancelled, outcome)
	assert.Empty(t, rec.deleted)
}

func TestDeleteLastFlowSale(t *testing.T) {
	rec := &fakeRecorder{sales: []domain.Sale{{Invoice: "A1", Row: 2}, {Invoice: "A2", Row: 3}}}
	flow := NewDeleteLastFlow(rec, zerolog.Nop())

	reply, outcome := walk(t, flow, "Last sale", "yes")

	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "deleted")
	assert.Equal(t, []string{"Sales"}, rec.deleted)
}

func TestDeleteLastFlowNothingToDelete(t *testing.T) {
	flow := NewDeleteLastFlow(&fakeRecorder{}, zerolog.Nop())

	reply, outcome := walk(t, flow, "Last expense")

	assert.Equal(t, Cancelled, outcome)
	assert.Contains(t, reply.Text, "no expenses")
}

type fakeAnalyst struct {
	answer string
	err    error
}

func (a *fakeAnalyst) AnswerQuestion(string) (string, error) { return a.answer, a.err }

func TestAnalysisFlowLoops(t *testing.T) {
	flow := NewAnalysisFlow(&fakeAnalyst{answer: "summary text"}, zerolog.Nop())
	ctx := context.Background()
	flow.Start(ctx)

	reply, outcome := flow.Handle(ctx, "summary of the data")
	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "summary text")

	reply, outcome = flow.Handle(ctx, "exit")
	assert.Equal(t, Completed, outcome)
	assert.Contains(t, reply.Text, "closed")
}

func TestAnalysisFlowStaysOpenOnError(t *testing.T) {
	flow := NewAnalysisFlow(&fakeAnalyst{err: errors.New("model not trained")}, zerolog.Nop())
	ctx := context.Background()
	flow.Start(ctx)

	reply, outcome := flow.Handle(ctx, "forecast next month")

	assert.Equal(t, Continue, outcome)
	assert.Contains(t, reply.Text, "Could not answer")
}
