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

type saleState int

const (
	saleDate saleState = iota
	saleInvoice
	saleCustomer
	saleAmount
	salePayment
	saleNotes
	saleConfirm
)

// SaleFlow registers one sale: date, optional invoice, optional
// customer, amount, payment method, optional notes, confirmation.
type SaleFlow struct {
	rec   Recorder
	loc   *time.Location
	log   zerolog.Logger
	state saleState
	draft domain.Sale
}

func NewSaleFlow(rec Recorder, loc *time.Location, log zerolog.Logger) *SaleFlow {
	return &SaleFlow{rec: rec, loc: loc, log: log}
}

func (f *SaleFlow) Name() string { return "sale" }

func (f *SaleFlow) Start(context.Context) Reply {
	f.state = saleDate
	return Reply{Text: "SALE ENTRY\n\n" +
		"Enter the sale date:\n" +
		"• type 'today' for the current date\n" +
		"• or DD/MM/YYYY (e.g. 15/01/2025)\n\n" +
		"For the full day close use /dailyclose"}
}

func (f *SaleFlow) Handle(ctx context.Context, input string) (Reply, Outcome) {
	switch f.state {
	case saleDate:
		date, ok := validate.Date(input, f.loc)
		if !ok {
			return Reply{Text: "Invalid date. Use DD/MM/YYYY or type 'today'."}, Continue
		}
		f.draft.Date = date
		f.state = saleInvoice
		return Reply{Text: "Date: " + date + "\n\n" +
			"Invoice number (optional):\n• enter the number, or '-' to skip"}, Continue

	case saleInvoice:
		number := strings.TrimSpace(input)
		switch strings.ToLower(number) {
		case domain.NoText, "n/a", "na", "s/n", "none":
			number = domain.NoInvoice
		default:
			if !validate.InvoiceNumber(number) {
				return Reply{Text: "Invalid invoice number (1 to 20 characters).\nEnter the number or '-' to skip."}, Continue
			}
		}
		f.draft.Invoice = number
		f.state = saleCustomer
		return Reply{Text: "Invoice: " + number + "\n\n" +
			"Customer name (optional):\n• enter the name, or '-' to skip"}, Continue

	case saleCustomer:
		f.draft.Customer = validate.Text(input)
		f.state = saleAmount
		return Reply{Text: "Customer: " + f.draft.Customer + "\n\nEnter the sale amount:"}, Continue

	case saleAmount:
		amount, ok := validate.Amount(input)
		if !ok {
			return Reply{Text: "Invalid amount. Enter a positive number."}, Continue
		}
		f.draft.Amount = amount
		f.state = salePayment
		return Reply{
			Text:     "Amount: " + format.Money(amount) + "\n\nSelect the payment method:",
			Keyboard: paymentKeyboard,
		}, Continue

	case salePayment:
		method, ok := domain.ValidPaymentMethod(strings.TrimSpace(input))
		if !ok {
			return Reply{Text: "Pick one of the listed payment methods.", Keyboard: paymentKeyboard}, Continue
		}
		f.draft.PaymentMethod = string(method)
		f.state = saleNotes
		return Reply{Text: "Payment: " + string(method) + "\n\n" +
			"Notes (optional):\n• enter a comment, or '-' to skip"}, Continue

	case saleNotes:
		f.draft.Notes = validate.Text(input)
		f.state = saleConfirm
		return Reply{Text: format.ConfirmSale(f.draft), Keyboard: yesNoKeyboard}, Continue

	case saleConfirm:
		if !isYes(input) {
			return Reply{Text: "Sale discarded."}, Cancelled
		}
		if err := f.rec.AppendSale(ctx, f.draft); err != nil {
			f.log.Error().Err(err).Str("invoice", f.draft.Invoice).Msg("Saving sale failed")
			return saveFailedReply, Cancelled
		}
		return Reply{Text: "Sale saved.\n\n" +
			"Invoice: " + f.draft.Invoice + "\n" +
			"Amount: " + format.Money(f.draft.Amount) + "\n\n" +
			"Use /report for the financial summary."}, Completed
	}

	return Reply{Text: "Something went wrong; operation cancelled."}, Cancelled
}
