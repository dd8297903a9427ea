package domain

import "time"

// Sentinel values for intentionally omitted optional fields.
const (
	NoInvoice = "N/A"
	NoText    = "-"
)

// DateLayout is the display/storage format for record dates.
const DateLayout = "02/01/2006"

// PaymentMethod is one of the fixed payment options accepted on entry
// and used as the daily-close buckets.
type PaymentMethod string

const (
	PayCash     PaymentMethod = "Cash"
	PayTransfer PaymentMethod = "Transfer"
	PayDebit    PaymentMethod = "Debit card"
	PayCredit   PaymentMethod = "Credit card"
	PayOther    PaymentMethod = "Other"
)

// PaymentMethods lists the accepted methods in prompt order. The daily
// close records one bucket per entry, in this order.
var PaymentMethods = []PaymentMethod{PayCash, PayTransfer, PayDebit, PayCredit, PayOther}

// ValidPaymentMethod reports whether s matches one of the fixed methods.
func ValidPaymentMethod(s string) (PaymentMethod, bool) {
	for _, m := range PaymentMethods {
		if string(m) == s {
			return m, true
		}
	}
	return "", false
}

// Sale is one persisted sale record. Row is the 1-based sheet position
// (header included) assigned by the store; it is only meaningful on
// records read back for edit/delete and shifts when earlier rows are
// deleted.
type Sale struct {
	Date          string
	Invoice       string
	Customer      string
	Amount        float64
	PaymentMethod string
	Notes         string
	Timestamp     time.Time
	Row           int
}

// Expense mirrors Sale with a category instead of an invoice number and
// a supplier instead of a customer.
type Expense struct {
	Date          string
	Category      string
	Supplier      string
	Amount        float64
	PaymentMethod string
	Notes         string
	Timestamp     time.Time
	Row           int
}

// DailyClose is the end-of-day total broken down per payment method.
// A zero bucket means "no sales through that method", which is distinct
// from a bucket never asked for; the dialogue always collects all five.
type DailyClose struct {
	Date      string
	Buckets   map[PaymentMethod]float64
	Notes     string
	Timestamp time.Time
	Row       int
}

// Total sums the five buckets.
func (c DailyClose) Total() float64 {
	var t float64
	for _, v := range c.Buckets {
		t += v
	}
	return t
}

// TxType classifies a transaction by the sign of its amount.
type TxType string

const (
	TxIncome  TxType = "income"
	TxExpense TxType = "expense"
)

// Transaction is one row of the analytics table: a signed amount
// (positive income, negative expense) with calendar features derived at
// load time.
type Transaction struct {
	Date        time.Time
	Category    string
	Description string
	Amount      float64

	Year    int
	Month   int
	Day     int
	Weekday int // 0 = Monday, matching the trained feature encoding
	Quarter int

	Type TxType
}

// ClassifyAmount maps an amount sign to a transaction type. Zero counts
// as expense.
func ClassifyAmount(amount float64) TxType {
	if amount > 0 {
		return TxIncome
	}
	return TxExpense
}

// DeriveCalendar fills the calendar feature fields from Date and the
// type from the amount sign.
func (t *Transaction) DeriveCalendar() {
	t.Year = t.Date.Year()
	t.Month = int(t.Date.Month())
	t.Day = t.Date.Day()
	t.Weekday = MondayIndex(t.Date.Weekday())
	t.Quarter = (t.Month-1)/3 + 1
	t.Type = ClassifyAmount(t.Amount)
}

// MondayIndex converts Go's Sunday-based weekday to a Monday-based
// index in [0,6].
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}
