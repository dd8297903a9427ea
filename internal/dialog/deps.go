package dialog

import (
	"context"
	"strings"

	"github.com/dmorales/ledgerbot/internal/domain"
	"github.com/dmorales/ledgerbot/internal/sheets"
)

// Recorder is the slice of the ledger the flows need. *sheets.Ledger
// satisfies it; tests substitute an in-memory fake.
type Recorder interface {
	AppendSale(ctx context.Context, s domain.Sale) error
	AppendExpense(ctx context.Context, e domain.Expense) error
	AppendDailyClose(ctx context.Context, c domain.DailyClose) error
	FindSaleByInvoice(ctx context.Context, invoice string) (domain.Sale, error)
	LastSale(ctx context.Context) (domain.Sale, error)
	LastExpense(ctx context.Context) (domain.Expense, error)
	UpdateSale(ctx context.Context, s domain.Sale) error
	DeleteRecord(ctx context.Context, table sheets.Table, pos int) error
	Totals(ctx context.Context, start, end string) (sheets.Totals, error)
}

var _ Recorder = (*sheets.Ledger)(nil)

// isYes reports whether a confirmation answer counts as assent.
// Anything else is treated as a rejection.
func isYes(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "yes", "y":
		return true
	}
	return false
}

var (
	yesNoKeyboard   = [][]string{{"Yes", "No"}}
	paymentKeyboard = [][]string{
		{string(domain.PayCash), string(domain.PayTransfer)},
		{string(domain.PayDebit), string(domain.PayCredit)},
		{string(domain.PayOther)},
	}
)

// saveFailedReply is the terminal message for any persistence failure.
// The flow always ends; the user re-enters it from scratch.
var saveFailedReply = Reply{Text: "Could not save the record. Please try again with the same command."}
