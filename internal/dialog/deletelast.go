package dialog

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/dmorales/ledgerbot/internal/format"
	"github.com/dmorales/ledgerbot/internal/sheets"
)

type deleteLastState int

const (
	deleteLastPick deleteLastState = iota
	deleteLastConfirm
)

// DeleteLastFlow removes the most recent sale or expense after showing
// it and asking for confirmation.
type DeleteLastFlow struct {
	rec   Recorder
	log   zerolog.Logger
	state deleteLastState
	table sheets.Table
	pos   int
	card  string
}

func NewDeleteLastFlow(rec Recorder, log zerolog.Logger) *DeleteLastFlow {
	return &DeleteLastFlow{rec: rec, log: log}
}

func (f *DeleteLastFlow) Name() string { return "delete-last" }

var deleteLastKeyboard = [][]string{
	{"Last sale", "Last expense"},
	{"Cancel"},
}

func (f *DeleteLastFlow) Start(context.Context) Reply {
	f.state = deleteLastPick
	return Reply{
		Text:     "DELETE LAST RECORD\n\nWhich record do you want to delete?",
		Keyboard: deleteLastKeyboard,
	}
}

func (f *DeleteLastFlow) Handle(ctx context.Context, input string) (Reply, Outcome) {
	switch f.state {
	case deleteLastPick:
		switch strings.ToLower(strings.TrimSpace(input)) {
		case "last sale", "sale":
			sale, err := f.rec.LastSale(ctx)
			if errors.Is(err, sheets.ErrNotFound) {
				return Reply{Text: "There are no sales to delete."}, Cancelled
			}
			if err != nil {
				f.log.Error().Err(err).Msg("Reading last sale failed")
				return Reply{Text: "Could not read the ledger. Please try /deletelast again."}, Cancelled
			}
			f.table = sheets.TableSales
			f.pos = sale.Row
			f.card = format.SaleCard(sale)
		case "last expense", "expense":
			expense, err := f.rec.LastExpense(ctx)
			if errors.Is(err, sheets.ErrNotFound) {
				return Reply{Text: "There are no expenses to delete."}, Cancelled
			}
			if err != nil {
				f.log.Error().Err(err).Msg("Reading last expense failed")
				return Reply{Text: "Could not read the ledger. Please try /deletelast again."}, Cancelled
			}
			f.table = sheets.TableExpenses
			f.pos = expense.Row
			f.card = format.ExpenseCard(expense)
		case "cancel":
			return Reply{Text: "Nothing was deleted."}, Cancelled
		default:
			return Reply{Text: "Pick one of the listed options.", Keyboard: deleteLastKeyboard}, Continue
		}
		f.state = deleteLastConfirm
		return Reply{
			Text:     f.card + "\n\nDelete this record permanently? (Yes/No)",
			Keyboard: yesNoKeyboard,
		}, Continue

	case deleteLastConfirm:
		if !isYes(input) {
			return Reply{Text: "Deletion discarded; the record was not changed."}, Cancelled
		}
		if err := f.rec.DeleteRecord(ctx, f.table, f.pos); err != nil {
			f.log.Error().Err(err).Str("table", string(f.table)).Int("row", f.pos).Msg("Deleting record failed")
			return saveFailedReply, Cancelled
		}
		return Reply{Text: "Record deleted."}, Completed
	}

	return Reply{Text: "Something went wrong; operation cancelled."}, Cancelled
}
