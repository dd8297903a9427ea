// Package analytics serves read-only analytical queries over a
// historical transaction table loaded once at construction: descriptive
// stats, anomaly detection, a trained monthly sales forecast and a
// keyword question router.
package analytics

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/dmorales/ledgerbot/internal/domain"
)

// Sheet names of the two logical inputs. Column order is positional.
const (
	TransactionsSheet = "Transactions"
	CategoriesSheet   = "Categories"

	// Rows skipped before data starts in each sheet.
	transactionsSkip = 5
	categoriesSkip   = 4
)

// Source yields the raw positional rows of one sheet. Implemented by
// the Google Sheets store and by the excelize workbook reader.
type Source interface {
	ReadSheet(ctx context.Context, sheet string) ([][]string, error)
}

// Analyzer holds the loaded transaction table and the lazily trained
// forecasting model. Construction fails if the transactions sheet
// cannot be read; everything after that returns structured results.
type Analyzer struct {
	log        zerolog.Logger
	txs        []domain.Transaction
	categories map[string]string

	trainMu sync.Mutex
	model   atomic.Pointer[salesModel]
}

// New loads both sheets from src. An unreadable transactions sheet is
// fatal; a missing categories sheet is logged and tolerated.
func New(ctx context.Context, src Source, log zerolog.Logger) (*Analyzer, error) {
	a := &Analyzer{log: log, categories: make(map[string]string)}

	rows, err := src.ReadSheet(ctx, TransactionsSheet)
	if err != nil {
		return nil, fmt.Errorf("analytics.New: reading transactions sheet: %w", err)
	}
	a.txs = parseTransactions(rows, log)
	log.Info().Int("transactions", len(a.txs)).Msg("Analytics data loaded")

	catRows, err := src.ReadSheet(ctx, CategoriesSheet)
	if err != nil {
		log.Warn().Err(err).Msg("Categories sheet unavailable; continuing without it")
		return a, nil
	}
	for i, row := range catRows {
		if i < categoriesSkip || len(row) < 2 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name != "" {
			a.categories[name] = strings.TrimSpace(row[1])
		}
	}
	return a, nil
}

// Transactions returns the loaded table. Callers must not mutate it.
func (a *Analyzer) Transactions() []domain.Transaction { return a.txs }

// parseTransactions converts raw rows into the typed table. Rows with an
// unparseable date or amount, or an empty category, are dropped.
func parseTransactions(rows [][]string, log zerolog.Logger) []domain.Transaction {
	var txs []domain.Transaction
	dropped := 0
	for i, row := range rows {
		if i < transactionsSkip || len(row) < 4 {
			continue
		}
		category := strings.TrimSpace(row[0])
		date, dateOK := parseSheetDate(row[1])
		amount, amountOK := parseSheetAmount(row[3])
		if category == "" || !dateOK || !amountOK {
			dropped++
			continue
		}
		tx := domain.Transaction{
			Date:        date,
			Category:    category,
			Description: strings.TrimSpace(row[2]),
			Amount:      amount,
		}
		tx.DeriveCalendar()
		txs = append(txs, tx)
	}
	if dropped > 0 {
		log.Warn().Int("dropped", dropped).Msg("Skipped unparseable transaction rows")
	}
	return txs
}

var sheetDateLayouts = []string{
	domain.DateLayout,
	"2006-01-02",
	"02-01-2006",
	"2006-01-02 15:04:05",
}

func parseSheetDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range sheetDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseSheetAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, " ", "")
	v, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return v, true
	}
	// Comma-decimal cells: strip dot grouping, swap the comma.
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
