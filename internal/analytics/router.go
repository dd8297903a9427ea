package analytics

import (
	"errors"
	"strings"
	"time"

	"github.com/dmorales/ledgerbot/internal/domain"
)

// topic keyword sets, checked in priority order. The first matching
// topic wins even when several match.
var topics = []struct {
	name     string
	keywords []string
}{
	{"summary", []string{"summary", "overview", "total", "profit", "margin"}},
	{"category", []string{"category", "categories", "spending by", "where"}},
	{"trend", []string{"trend", "monthly", "evolution", "month by month", "over time"}},
	{"anomaly", []string{"anomaly", "anomalies", "anomalous", "unusual", "outlier", "strange"}},
	{"forecast", []string{"forecast", "predict", "prediction", "next month", "expect"}},
}

// AnswerQuestion routes a free-text question to the matching analysis
// and returns its rendered text. Unmatched input gets the help message.
func (a *Analyzer) AnswerQuestion(question string) (string, error) {
	q := strings.ToLower(question)

	for _, topic := range topics {
		if !matchesAny(q, topic.keywords) {
			continue
		}
		switch topic.name {
		case "summary":
			return renderSummary(a.Summary()), nil
		case "category":
			return renderCategories(a.ByCategory(domain.TxType(""))), nil
		case "trend":
			return renderTrend(a.MonthlyTrend()), nil
		case "anomaly":
			return renderAnomalies(a.DetectAnomalies(AnomalyThreshold)), nil
		case "forecast":
			return a.forecastAnswer(), nil
		}
	}
	return helpText, nil
}

func matchesAny(q string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(q, k) {
			return true
		}
	}
	return false
}

// forecastAnswer trains on first use and predicts the month after the
// newest transaction. Insufficient data degrades to the fallback
// estimator instead of failing the question.
func (a *Analyzer) forecastAnswer() string {
	var trained string
	if !a.Trained() {
		result, err := a.TrainSalesModel()
		switch {
		case errors.Is(err, ErrInsufficientData):
			// Fallback estimator takes over below.
		case err != nil:
			a.log.Error().Err(err).Msg("Training for forecast failed")
		default:
			trained = renderTraining(result) + "\n\n"
		}
	}

	year, month := a.nextForecastMonth()
	return trained + renderPrediction(a.PredictMonth(year, month))
}

// Entry points for the direct analytics commands.

func (a *Analyzer) ForecastText() string { return a.forecastAnswer() }

func (a *Analyzer) AnomaliesText() string {
	return renderAnomalies(a.DetectAnomalies(AnomalyThreshold))
}

func (a *Analyzer) TrendText() string { return renderTrend(a.MonthlyTrend()) }

// nextForecastMonth is the month after the newer of today and the last
// loaded transaction.
func (a *Analyzer) nextForecastMonth() (int, int) {
	last := time.Now()
	for _, tx := range a.txs {
		if tx.Date.After(last) {
			last = tx.Date
		}
	}
	next := last.AddDate(0, 1, 0)
	return next.Year(), int(next.Month())
}
