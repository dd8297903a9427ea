// Package format turns structured results into display text. Everything
// here is pure; no I/O, no state.
package format

import (
	"fmt"
	"strings"

	"github.com/dmorales/ledgerbot/internal/domain"
	"github.com/dmorales/ledgerbot/internal/sheets"
)

const divider = "────────────────────"

// Money renders an amount with dot-grouped thousands and no decimals,
// e.g. 1250000 -> "$1.250.000".
func Money(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
		if len(whole) > lead {
			b.WriteByte('.')
		}
	}
	for i := lead; i < len(whole); i += 3 {
		b.WriteString(whole[i : i+3])
		if i+3 < len(whole) {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// SaleCard renders one sale record for display.
func SaleCard(s domain.Sale) string {
	var b strings.Builder
	b.WriteString("SALE\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Date: %s\n", s.Date)
	fmt.Fprintf(&b, "Invoice: %s\n", s.Invoice)
	fmt.Fprintf(&b, "Customer: %s\n", s.Customer)
	fmt.Fprintf(&b, "Amount: %s\n", Money(s.Amount))
	fmt.Fprintf(&b, "Payment: %s\n", s.PaymentMethod)
	fmt.Fprintf(&b, "Notes: %s", s.Notes)
	return b.String()
}

// ExpenseCard renders one expense record for display.
func ExpenseCard(e domain.Expense) string {
	var b strings.Builder
	b.WriteString("EXPENSE\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Date: %s\n", e.Date)
	fmt.Fprintf(&b, "Category: %s\n", e.Category)
	fmt.Fprintf(&b, "Supplier: %s\n", e.Supplier)
	fmt.Fprintf(&b, "Amount: %s\n", Money(e.Amount))
	fmt.Fprintf(&b, "Payment: %s\n", e.PaymentMethod)
	fmt.Fprintf(&b, "Notes: %s", e.Notes)
	return b.String()
}

// ConfirmSale builds the pre-save confirmation prompt for a sale.
func ConfirmSale(s domain.Sale) string {
	return "CONFIRM SALE\n" + divider + "\n" +
		SaleBody(s) + "\n" + divider + "\n" +
		"Save this record? (Yes/No)"
}

// SaleBody lists the sale fields without the card banner.
func SaleBody(s domain.Sale) string {
	return fmt.Sprintf("Date: %s\nInvoice: %s\nCustomer: %s\nAmount: %s\nPayment: %s\nNotes: %s",
		s.Date, s.Invoice, s.Customer, Money(s.Amount), s.PaymentMethod, s.Notes)
}

// ConfirmExpense builds the pre-save confirmation prompt for an expense.
func ConfirmExpense(e domain.Expense) string {
	return "CONFIRM EXPENSE\n" + divider + "\n" +
		fmt.Sprintf("Date: %s\nCategory: %s\nSupplier: %s\nAmount: %s\nPayment: %s\nNotes: %s",
			e.Date, e.Category, e.Supplier, Money(e.Amount), e.PaymentMethod, e.Notes) +
		"\n" + divider + "\n" +
		"Save this record? (Yes/No)"
}

// ConfirmDailyClose builds the pre-save confirmation for a daily close.
// Zero buckets are omitted from the breakdown; the computed total always
// shows.
func ConfirmDailyClose(c domain.DailyClose) string {
	var b strings.Builder
	b.WriteString("CONFIRM DAILY CLOSE\n")
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Date: %s\n\n", c.Date)
	b.WriteString("Breakdown by payment method:\n")
	for _, m := range domain.PaymentMethods {
		if v := c.Buckets[m]; v > 0 {
			fmt.Fprintf(&b, "  %s: %s\n", m, Money(v))
		}
	}
	fmt.Fprintf(&b, "\nDAY TOTAL: %s\n", Money(c.Total()))
	fmt.Fprintf(&b, "Notes: %s\n", c.Notes)
	b.WriteString(divider + "\n")
	b.WriteString("Save this close? (Yes/No)")
	return b.String()
}

// Report renders period totals.
func Report(title string, t sheets.Totals) string {
	var b strings.Builder
	fmt.Fprintf(&b, "REPORT: %s\n", strings.ToUpper(title))
	b.WriteString(divider + "\n\n")
	fmt.Fprintf(&b, "Total sales: %s (%d records)\n", Money(t.TotalSales), t.NumSales)
	fmt.Fprintf(&b, "Total expenses: %s (%d records)\n\n", Money(t.TotalExpenses), t.NumExpenses)
	if t.Profit >= 0 {
		fmt.Fprintf(&b, "Profit: %s\n", Money(t.Profit))
	} else {
		fmt.Fprintf(&b, "Loss: %s\n", Money(-t.Profit))
	}
	fmt.Fprintf(&b, "Margin: %.1f%%", t.Margin)
	return b.String()
}
