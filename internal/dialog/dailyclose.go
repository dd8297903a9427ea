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

type dailyCloseState int

const (
	closeDate dailyCloseState = iota
	closeBuckets
	closeNotes
	closeConfirm
)

// DailyCloseFlow records the day's total sales broken down per payment
// method: one amount prompt per bucket, in the fixed method order, each
// accepting a literal "0" for "none".
type DailyCloseFlow struct {
	rec    Recorder
	loc    *time.Location
	log    zerolog.Logger
	state  dailyCloseState
	bucket int
	draft  domain.DailyClose
}

func NewDailyCloseFlow(rec Recorder, loc *time.Location, log zerolog.Logger) *DailyCloseFlow {
	return &DailyCloseFlow{rec: rec, loc: loc, log: log}
}

func (f *DailyCloseFlow) Name() string { return "daily-close" }

func (f *DailyCloseFlow) Start(context.Context) Reply {
	f.state = closeDate
	f.draft.Buckets = make(map[domain.PaymentMethod]float64, len(domain.PaymentMethods))
	return Reply{Text: "DAILY CLOSE\n\n" +
		"Record the day's total sales per payment method.\n\n" +
		"Enter the close date:\n" +
		"• type 'today' for the current date\n" +
		"• or DD/MM/YYYY"}
}

func (f *DailyCloseFlow) bucketPrompt() Reply {
	method := domain.PaymentMethods[f.bucket]
	return Reply{Text: strings.ToUpper(string(method)) + " sales:\n• enter the amount, or '0' if none"}
}

func (f *DailyCloseFlow) Handle(ctx context.Context, input string) (Reply, Outcome) {
	switch f.state {
	case closeDate:
		date, ok := validate.Date(input, f.loc)
		if !ok {
			return Reply{Text: "Invalid date. Use DD/MM/YYYY or type 'today'."}, Continue
		}
		f.draft.Date = date
		f.state = closeBuckets
		f.bucket = 0
		prompt := f.bucketPrompt()
		prompt.Text = "Date: " + date + "\n\n" + prompt.Text
		return prompt, Continue

	case closeBuckets:
		var amount float64
		if strings.TrimSpace(input) != "0" {
			var ok bool
			amount, ok = validate.Amount(input)
			if !ok {
				return Reply{Text: "Invalid amount. Enter a number, or '0' if none."}, Continue
			}
		}
		method := domain.PaymentMethods[f.bucket]
		f.draft.Buckets[method] = amount

		f.bucket++
		if f.bucket < len(domain.PaymentMethods) {
			prompt := f.bucketPrompt()
			prompt.Text = string(method) + ": " + format.Money(amount) + "\n\n" + prompt.Text
			return prompt, Continue
		}
		f.state = closeNotes
		return Reply{Text: string(method) + ": " + format.Money(amount) + "\n\n" +
			"Notes for the day (optional):\n• enter a comment, or '-' to skip"}, Continue

	case closeNotes:
		f.draft.Notes = validate.Text(input)
		f.state = closeConfirm
		return Reply{Text: format.ConfirmDailyClose(f.draft), Keyboard: yesNoKeyboard}, Continue

	case closeConfirm:
		if !isYes(input) {
			return Reply{Text: "Daily close discarded."}, Cancelled
		}
		if err := f.rec.AppendDailyClose(ctx, f.draft); err != nil {
			f.log.Error().Err(err).Str("date", f.draft.Date).Msg("Saving daily close failed")
			return saveFailedReply, Cancelled
		}
		return Reply{Text: "Daily close saved.\n\n" +
			"Date: " + f.draft.Date + "\n" +
			"Total: " + format.Money(f.draft.Total()) + "\n\n" +
			"Use /report for the financial summary."}, Completed
	}

	return Reply{Text: "Something went wrong; operation cancelled."}, Cancelled
}
