package dialog

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmorales/ledgerbot/internal/format"
	"github.com/dmorales/ledgerbot/internal/validate"
)

// ReportFlow is a single-step flow: pick a period, get the totals.
type ReportFlow struct {
	rec Recorder
	loc *time.Location
	log zerolog.Logger
}

func NewReportFlow(rec Recorder, loc *time.Location, log zerolog.Logger) *ReportFlow {
	return &ReportFlow{rec: rec, loc: loc, log: log}
}

func (f *ReportFlow) Name() string { return "report" }

var periodKeyboard = [][]string{
	{"Today", "This week"},
	{"This month", "All-time"},
}

func (f *ReportFlow) Start(context.Context) Reply {
	return Reply{
		Text:     "FINANCIAL REPORT\n\nSelect the period:",
		Keyboard: periodKeyboard,
	}
}

func (f *ReportFlow) Handle(ctx context.Context, input string) (Reply, Outcome) {
	var period validate.Period
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "today":
		period = validate.PeriodToday
	case "this week", "week":
		period = validate.PeriodWeek
	case "this month", "month":
		period = validate.PeriodMonth
	case "all-time", "all time", "all":
		period = validate.PeriodAllTime
	default:
		return Reply{Text: "Pick one of the listed periods.", Keyboard: periodKeyboard}, Continue
	}

	start, end := validate.PeriodRange(period, f.loc)
	totals, err := f.rec.Totals(ctx, start, end)
	if err != nil {
		f.log.Error().Err(err).Str("period", string(period)).Msg("Computing totals failed")
		return Reply{Text: "Could not read the ledger. Please try /report again."}, Cancelled
	}
	return Reply{Text: format.Report(string(period), totals)}, Completed
}
