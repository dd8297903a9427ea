package dialog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmorales/ledgerbot/internal/domain"
	"github.com/dmorales/ledgerbot/internal/format"
	"github.com/dmorales/ledgerbot/internal/sheets"
	"github.com/dmorales/ledgerbot/internal/validate"
)

type searchState int

const (
	searchInvoice searchState = iota
	searchAction
	searchEditField
	searchEditValue
	searchEditConfirm
	searchDeleteConfirm
)

// SearchFlow finds a sale by invoice number and lets the user edit one
// field or delete the whole record. A miss ends the flow immediately;
// the action menu is only reachable with a record in hand.
type SearchFlow struct {
	rec   Recorder
	loc   *time.Location
	log   zerolog.Logger
	state searchState
	found domain.Sale
	edit  domain.Sale
	field string
}

func NewSearchFlow(rec Recorder, loc *time.Location, log zerolog.Logger) *SearchFlow {
	return &SearchFlow{rec: rec, loc: loc, log: log}
}

func (f *SearchFlow) Name() string { return "search" }

var (
	actionKeyboard = [][]string{{"Edit", "Delete"}, {"Cancel"}}
	fieldKeyboard  = [][]string{
		{"Date", "Customer"},
		{"Amount", "Payment method"},
		{"Notes"},
	}
)

func (f *SearchFlow) Start(context.Context) Reply {
	f.state = searchInvoice
	return Reply{Text: "SEARCH SALE\n\nEnter the invoice number to look up:"}
}

func (f *SearchFlow) Handle(ctx context.Context, input string) (Reply, Outcome) {
	switch f.state {
	case searchInvoice:
		invoice := strings.TrimSpace(input)
		if !validate.InvoiceNumber(invoice) {
			return Reply{Text: "Invalid invoice number (1 to 20 characters). Try again:"}, Continue
		}
		sale, err := f.rec.FindSaleByInvoice(ctx, invoice)
		if errors.Is(err, sheets.ErrNotFound) {
			return Reply{Text: "No sale found with invoice '" + invoice + "'."}, Cancelled
		}
		if err != nil {
			f.log.Error().Err(err).Str("invoice", invoice).Msg("Invoice lookup failed")
			return Reply{Text: "Could not read the ledger. Please try /search again."}, Cancelled
		}
		f.found = sale
		f.state = searchAction
		return Reply{
			Text:     format.SaleCard(sale) + "\n\nWhat do you want to do with this record?",
			Keyboard: actionKeyboard,
		}, Continue

	case searchAction:
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "edit":
			f.state = searchEditField
			return Reply{Text: "Which field do you want to change?", Keyboard: fieldKeyboard}, Continue
		case "delete":
			f.state = searchDeleteConfirm
			return Reply{
				Text:     "DELETE SALE\n\n" + format.SaleBody(f.found) + "\n\nDelete this record permanently? (Yes/No)",
				Keyboard: yesNoKeyboard,
			}, Continue
		case "cancel":
			return Reply{Text: "Search closed; the record was not changed."}, Cancelled
		}
		return Reply{Text: "Pick Edit, Delete or Cancel.", Keyboard: actionKeyboard}, Continue

	case searchEditField:
		field := strings.ToLower(strings.TrimSpace(input))
		switch field {
		case "date":
			f.field = field
			f.state = searchEditValue
			return Reply{Text: "Current date: " + f.found.Date + "\n\nEnter the new date (DD/MM/YYYY or 'today'):"}, Continue
		case "customer":
			f.field = field
			f.state = searchEditValue
			return Reply{Text: "Current customer: " + f.found.Customer + "\n\nEnter the new name, or '-' to clear:"}, Continue
		case "amount":
			f.field = field
			f.state = searchEditValue
			return Reply{Text: "Current amount: " + format.Money(f.found.Amount) + "\n\nEnter the new amount:"}, Continue
		case "payment method", "payment":
			f.field = "payment method"
			f.state = searchEditValue
			return Reply{Text: "Current payment: " + f.found.PaymentMethod + "\n\nSelect the new payment method:", Keyboard: paymentKeyboard}, Continue
		case "notes":
			f.field = field
			f.state = searchEditValue
			return Reply{Text: "Current notes: " + f.found.Notes + "\n\nEnter the new notes, or '-' to clear:"}, Continue
		}
		return Reply{Text: "Pick one of the listed fields.", Keyboard: fieldKeyboard}, Continue

	case searchEditValue:
		edited := f.found
		switch f.field {
		case "date":
			date, ok := validate.Date(input, f.loc)
			if !ok {
				return Reply{Text: "Invalid date. Use DD/MM/YYYY or type 'today'."}, Continue
			}
			edited.Date = date
		case "customer":
			edited.Customer = validate.Text(input)
		case "amount":
			amount, ok := validate.Amount(input)
			if !ok {
				return Reply{Text: "Invalid amount. Enter a positive number."}, Continue
			}
			edited.Amount = amount
		case "payment method":
			method, ok := domain.ValidPaymentMethod(strings.TrimSpace(input))
			if !ok {
				return Reply{Text: "Pick one of the listed payment methods.", Keyboard: paymentKeyboard}, Continue
			}
			edited.PaymentMethod = string(method)
		case "notes":
			edited.Notes = validate.Text(input)
		}
		f.edit = edited
		f.state = searchEditConfirm
		return Reply{
			Text: "CONFIRM EDIT\n\nBefore:\n" + format.SaleBody(f.found) +
				"\n\nAfter:\n" + format.SaleBody(f.edit) +
				"\n\nApply this change? (Yes/No)",
			Keyboard: yesNoKeyboard,
		}, Continue

	case searchEditConfirm:
		if !isYes(input) {
			return Reply{Text: "Edit discarded; the record was not changed."}, Cancelled
		}
		if err := f.rec.UpdateSale(ctx, f.edit); err != nil {
			f.log.Error().Err(err).Str("invoice", f.edit.Invoice).Int("row", f.edit.Row).Msg("Updating sale failed")
			return saveFailedReply, Cancelled
		}
		return Reply{Text: "Record updated.\n\n" + format.SaleBody(f.edit)}, Completed

	case searchDeleteConfirm:
		if !isYes(input) {
			return Reply{Text: "Deletion discarded; the record was not changed."}, Cancelled
		}
		if err := f.rec.DeleteRecord(ctx, sheets.TableSales, f.found.Row); err != nil {
			f.log.Error().Err(err).Str("invoice", f.found.Invoice).Int("row", f.found.Row).Msg("Deleting sale failed")
			return saveFailedReply, Cancelled
		}
		return Reply{Text: "Record deleted.\n\nInvoice: " + f.found.Invoice + "\nAmount: " + format.Money(f.found.Amount)}, Completed
	}

	return Reply{Text: "Something went wrong; operation cancelled."}, Cancelled
}
