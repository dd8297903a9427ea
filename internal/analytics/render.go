package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmorales/ledgerbot/internal/domain"
	"github.com/dmorales/ledgerbot/internal/format"
)

// Text renderers for the analysis results. These back both the Q&A
// router and the direct analytics commands.

const renderDateLayout = "02/01/2006"

func renderSummary(s Summary) string {
	var b strings.Builder
	b.WriteString("DATA SUMMARY\n\n")
	if s.NumIncome+s.NumExpense == 0 {
		b.WriteString("The transaction table is empty.")
		return b.String()
	}
	fmt.Fprintf(&b, "Period: %s to %s\n\n",
		s.FirstDate.Format(renderDateLayout), s.LastDate.Format(renderDateLayout))
	fmt.Fprintf(&b, "Income: %s (%d transactions)\n", format.Money(s.TotalIncome), s.NumIncome)
	fmt.Fprintf(&b, "Expenses: %s (%d transactions)\n", format.Money(s.TotalExpense), s.NumExpense)
	fmt.Fprintf(&b, "Net profit: %s\n", format.Money(s.NetProfit))
	fmt.Fprintf(&b, "Margin: %.1f%%\n\n", s.Margin)
	fmt.Fprintf(&b, "Average sale: %s\n", format.Money(s.AvgSale))
	fmt.Fprintf(&b, "Average expense: %s", format.Money(s.AvgExpense))
	return b.String()
}

func renderCategories(stats []CategoryStat) string {
	if len(stats) == 0 {
		return "CATEGORY ANALYSIS\n\nNo categorized transactions found."
	}
	var b strings.Builder
	b.WriteString("CATEGORY ANALYSIS\n\n")
	for i, g := range stats {
		if i >= 10 {
			fmt.Fprintf(&b, "\n(and %d more categories)", len(stats)-i)
			break
		}
		fmt.Fprintf(&b, "%d. %s: %s (%d records, avg %s)\n",
			i+1, g.Category, format.Money(g.Sum), g.Count, format.Money(g.Mean))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTrend(points []MonthPoint) string {
	if len(points) == 0 {
		return "MONTHLY TREND\n\nNo transactions to chart."
	}
	var b strings.Builder
	b.WriteString("MONTHLY TREND\n\n")
	for _, p := range points {
		fmt.Fprintf(&b, "%04d-%02d  income %s, expenses %s, net %s\n",
			p.Year, p.Month, format.Money(p.Income), format.Money(p.Expense), format.Money(p.Net))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderAnomalies(anomalies []Anomaly) string {
	if len(anomalies) == 0 {
		return "ANOMALY DETECTION\n\nNo unusual transactions found. Everything looks normal."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "ANOMALY DETECTION\n\nFound %d unusual transactions:\n\n", len(anomalies))
	for i, an := range anomalies {
		if i >= 10 {
			fmt.Fprintf(&b, "\n(and %d more)", len(anomalies)-i)
			break
		}
		fmt.Fprintf(&b, "%d. %s %s: %s (%.1f std devs from the %s mean)\n",
			i+1, an.Tx.Date.Format(renderDateLayout), an.Tx.Category,
			format.Money(an.Tx.Amount), an.Deviation, an.Tx.Type)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderTraining(r TrainResult) string {
	var b strings.Builder
	b.WriteString("MODEL TRAINED\n\n")
	fmt.Fprintf(&b, "Training rows: %d, test rows: %d\n", r.TrainRows, r.TestRows)
	fmt.Fprintf(&b, "Mean absolute error: %s\n", format.Money(r.MAE))
	fmt.Fprintf(&b, "Precision: %.1f%%\n\n", r.Precision)
	b.WriteString("Feature importance:\n")

	names := make([]string, 0, len(r.Importances))
	for name := range r.Importances {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.Importances[names[i]] > r.Importances[names[j]]
	})
	for _, name := range names {
		fmt.Fprintf(&b, "  %s: %.1f%%\n", name, r.Importances[name]*100)
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderPrediction(p Prediction) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SALES FORECAST %04d-%02d\n\n", p.Year, p.Month)
	fmt.Fprintf(&b, "Predicted income: %s\n", format.Money(p.Predicted))
	if p.Method == MethodHistorical {
		b.WriteString("\nBased on the historical monthly average; train a model with more data for a day-level forecast.")
		return b.String()
	}
	fmt.Fprintf(&b, "Historical for this month: %s\n", format.Money(p.Historical))
	fmt.Fprintf(&b, "Variation: %+.1f%%", p.Variation)
	return b.String()
}

const helpText = "I can answer questions about:\n\n" +
	"• summary: totals, profit and margin\n" +
	"• categories: where the money goes\n" +
	"• trend: month by month evolution\n" +
	"• anomalies: unusual transactions\n" +
	"• forecast: next month's expected sales\n\n" +
	"Ask in plain words, for example 'show me the monthly trend'."

// Insights builds plain-language observations from the summary and the
// expense breakdown: margin health, average ticket, activity frequency
// and the dominant expense category.
func (a *Analyzer) Insights() string {
	s := a.Summary()
	if s.NumIncome+s.NumExpense == 0 {
		return "INSIGHTS\n\nNo data to analyze yet."
	}

	var lines []string
	switch {
	case s.Margin < 0:
		lines = append(lines, fmt.Sprintf("Expenses exceed income: margin is %.1f%%. Review the largest expense categories.", s.Margin))
	case s.Margin < 10:
		lines = append(lines, fmt.Sprintf("Margin is thin at %.1f%%. Small cost cuts would have a big relative effect.", s.Margin))
	case s.Margin > 30:
		lines = append(lines, fmt.Sprintf("Healthy margin of %.1f%%.", s.Margin))
	default:
		lines = append(lines, fmt.Sprintf("Margin is %.1f%%.", s.Margin))
	}

	if s.AvgSale > 0 {
		lines = append(lines, fmt.Sprintf("Average ticket: %s over %d sales.", format.Money(s.AvgSale), s.NumIncome))
	}

	if days := s.LastDate.Sub(s.FirstDate).Hours()/24 + 1; days >= 1 {
		perDay := float64(s.NumIncome+s.NumExpense) / days
		lines = append(lines, fmt.Sprintf("Activity: %.1f transactions per day across %.0f days.", perDay, days))
	}

	if expenses := a.ByCategory(domain.TxExpense); len(expenses) > 0 && s.TotalExpense > 0 {
		top := expenses[0]
		share := absShare(top.Sum, s.TotalExpense)
		lines = append(lines, fmt.Sprintf("Largest expense category: %s at %s (%.0f%% of all expenses).",
			top.Category, format.Money(top.Sum), share))
	}

	return "INSIGHTS\n\n• " + strings.Join(lines, "\n• ")
}

func absShare(part, total float64) float64 {
	if part < 0 {
		part = -part
	}
	return part / total * 100
}
