package dialog

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmorales/ledgerbot/internal/domain"
	"github.com/dmorales/ledgerbot/internal/format"
	"github.com/dmorales/ledgerbot/internal/validate"
)

type expenseState int

const (
	expenseDate expenseState = iota
	expenseCategory
	expenseSupplier
	expenseAmount
	expensePayment
	expenseNotes
	expenseConfirm
)

// ExpenseFlow registers one expense, symmetric to SaleFlow with a
// category choice instead of an invoice number.
type ExpenseFlow struct {
	rec        Recorder
	loc        *time.Location
	log        zerolog.Logger
	categories []string
	state      expenseState
	draft      domain.Expense
}

func NewExpenseFlow(rec Recorder, loc *time.Location, categories []string, log zerolog.Logger) *ExpenseFlow {
	return &ExpenseFlow{rec: rec, loc: loc, categories: categories, log: log}
}

func (f *ExpenseFlow) Name() string { return "expense" }

func (f *ExpenseFlow) Start(context.Context) Reply {
	f.state = expenseDate
	return Reply{Text: "EXPENSE ENTRY\n\n" +
		"Enter the expense date:\n" +
		"• type 'today' for the current date\n" +
		"• or DD/MM/YYYY"}
}

func (f *ExpenseFlow) categoryKeyboard() [][]string {
	rows := make([][]string, 0, len(f.categories))
	for _, c := range f.categories {
		rows = append(rows, []string{c})
	}
	return rows
}

func (f *ExpenseFlow) validCategory(input string) (string, bool) {
	for _, c := range f.categories {
		if c == input {
			return c, true
		}
	}
	return "", false
}

func (f *ExpenseFlow) Handle(ctx context.Context, input string) (Reply, Outcome) {
	switch f.state {
	case expenseDate:
		date, ok := validate.Date(input, f.loc)
		if !ok {
			return Reply{Text: "Invalid date. Use DD/MM/YYYY or type 'today'."}, Continue
		}
		f.draft.Date = date
		f.state = expenseCategory
		return Reply{
			Text:     "Date: " + date + "\n\nSelect the expense category:",
			Keyboard: f.categoryKeyboard(),
		}, Continue

	case expenseCategory:
		category, ok := f.validCategory(strings.TrimSpace(input))
		if !ok {
			return Reply{Text: "Pick one of the listed categories.", Keyboard: f.categoryKeyboard()}, Continue
		}
		f.draft.Category = category
		f.state = expenseSupplier
		return Reply{Text: "Category: " + category + "\n\n" +
			"Supplier name (optional):\n• enter the name, or '-' to skip"}, Continue

	case expenseSupplier:
		f.draft.Supplier = validate.Text(input)
		f.state = expenseAmount
		return Reply{Text: "Supplier: " + f.draft.Supplier + "\n\nEnter the expense amount:"}, Continue

	case expenseAmount:
		amount, ok := validate.Amount(input)
		if !ok {
			return Reply{Text: "Invalid amount. Enter a positive number."}, Continue
		}
		f.draft.Amount = amount
		f.state = expensePayment
		return Reply{
			Text:     "Amount: " + format.Money(amount) + "\n\nSelect the payment method:",
			Keyboard: paymentKeyboard,
		}, Continue

	case expensePayment:
		method, ok := domain.ValidPaymentMethod(strings.TrimSpace(input))
		if !ok {
			return Reply{Text: "Pick one of the listed payment methods.", Keyboard: paymentKeyboard}, Continue
		}
		f.draft.PaymentMethod = string(method)
		f.state = expenseNotes
		return Reply{Text: "Payment: " + string(method) + "\n\n" +
			"Notes (optional):\n• enter a comment, or '-' to skip"}, Continue

	case expenseNotes:
		f.draft.Notes = validate.Text(input)
		f.state = expenseConfirm
		return Reply{Text: format.ConfirmExpense(f.draft), Keyboard: yesNoKeyboard}, Continue

	case expenseConfirm:
		if !isYes(input) {
			return Reply{Text: "Expense discarded."}, Cancelled
		}
		if err := f.rec.AppendExpense(ctx, f.draft); err != nil {
			f.log.Error().Err(err).Str("category", f.draft.Category).Msg("Saving expense failed")
			return saveFailedReply, Cancelled
		}
		return Reply{Text: "Expense saved.\n\n" +
			"Category: " + f.draft.Category + "\n" +
			"Amount: " + format.Money(f.draft.Amount) + "\n\n" +
			"Use /report for the financial summary."}, Completed
	}

	return Reply{Text: "Something went wrong; operation cancelled."}, Cancelled
}
