package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/dmorales/ledgerbot/internal/domain"
)

// Summary aggregates the whole table. Expenses are reported as positive
// magnitudes; NetProfit carries the true sign.
type Summary struct {
	TotalIncome  float64
	TotalExpense float64
	NetProfit    float64
	Margin       float64
	NumIncome    int
	NumExpense   int
	AvgSale      float64
	AvgExpense   float64
	FirstDate    time.Time
	LastDate     time.Time
}

// Summary computes the totals. Safe on an empty table: all zeros, no
// division by zero.
func (a *Analyzer) Summary() Summary {
	var s Summary
	for _, tx := range a.txs {
		if tx.Type == domain.TxIncome {
			s.TotalIncome += tx.Amount
			s.NumIncome++
		} else {
			s.TotalExpense += math.Abs(tx.Amount)
			s.NumExpense++
		}
		if s.FirstDate.IsZero() || tx.Date.Before(s.FirstDate) {
			s.FirstDate = tx.Date
		}
		if tx.Date.After(s.LastDate) {
			s.LastDate = tx.Date
		}
	}
	s.NetProfit = s.TotalIncome - s.TotalExpense
	if s.TotalIncome > 0 {
		s.Margin = s.NetProfit / s.TotalIncome * 100
	}
	if s.NumIncome > 0 {
		s.AvgSale = s.TotalIncome / float64(s.NumIncome)
	}
	if s.NumExpense > 0 {
		s.AvgExpense = s.TotalExpense / float64(s.NumExpense)
	}
	return s
}

// CategoryStat is one group of the by-category breakdown. Sum keeps the
// signed convention of the underlying amounts.
type CategoryStat struct {
	Category string
	Sum      float64
	Mean     float64
	Count    int
	First    time.Time
	Last     time.Time
}

// ByCategory groups by category, optionally filtered to one transaction
// type (empty filter means all rows). Sorted descending by |Sum|.
func (a *Analyzer) ByCategory(filter domain.TxType) []CategoryStat {
	groups := make(map[string]*CategoryStat)
	order := []string{}
	for _, tx := range a.txs {
		if filter != "" && tx.Type != filter {
			continue
		}
		g, ok := groups[tx.Category]
		if !ok {
			g = &CategoryStat{Category: tx.Category, First: tx.Date, Last: tx.Date}
			groups[tx.Category] = g
			order = append(order, tx.Category)
		}
		g.Sum += tx.Amount
		g.Count++
		if tx.Date.Before(g.First) {
			g.First = tx.Date
		}
		if tx.Date.After(g.Last) {
			g.Last = tx.Date
		}
	}

	stats := make([]CategoryStat, 0, len(order))
	for _, name := range order {
		g := groups[name]
		g.Mean = g.Sum / float64(g.Count)
		stats = append(stats, *g)
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return math.Abs(stats[i].Sum) > math.Abs(stats[j].Sum)
	})
	return stats
}

// MonthPoint is one calendar-month bucket of the trend. Expense keeps
// its negative sign, so Net is the plain sum of the two.
type MonthPoint struct {
	Year    int
	Month   int
	Income  float64
	Expense float64
	Net     float64
}

// MonthlyTrend buckets by year-month in chronological order.
func (a *Analyzer) MonthlyTrend() []MonthPoint {
	buckets := make(map[[2]int]*MonthPoint)
	for _, tx := range a.txs {
		key := [2]int{tx.Year, tx.Month}
		p, ok := buckets[key]
		if !ok {
			p = &MonthPoint{Year: tx.Year, Month: tx.Month}
			buckets[key] = p
		}
		if tx.Type == domain.TxIncome {
			p.Income += tx.Amount
		} else {
			p.Expense += tx.Amount
		}
	}

	points := make([]MonthPoint, 0, len(buckets))
	for _, p := range buckets {
		p.Net = p.Income + p.Expense
		points = append(points, *p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Year != points[j].Year {
			return points[i].Year < points[j].Year
		}
		return points[i].Month < points[j].Month
	})
	return points
}

// Anomaly is one flagged transaction with its deviation from the mean
// of its type, in standard-deviation units.
type Anomaly struct {
	Tx        domain.Transaction
	Deviation float64
}

// AnomalyThreshold is the default z-score cutoff.
const AnomalyThreshold = 2.5

// DetectAnomalies flags rows whose absolute amount deviates from their
// type's mean by more than threshold standard deviations, per type
// independently, merged and sorted descending by deviation. A type with
// zero spread contributes nothing.
func (a *Analyzer) DetectAnomalies(threshold float64) []Anomaly {
	var out []Anomaly
	for _, txType := range []domain.TxType{domain.TxIncome, domain.TxExpense} {
		out = append(out, anomaliesOfType(a.txs, txType, threshold)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deviation > out[j].Deviation })
	return out
}

func anomaliesOfType(txs []domain.Transaction, txType domain.TxType, threshold float64) []Anomaly {
	var values []float64
	var members []domain.Transaction
	for _, tx := range txs {
		if tx.Type == txType {
			values = append(values, math.Abs(tx.Amount))
			members = append(members, tx)
		}
	}
	if len(values) == 0 {
		return nil
	}

	mean := meanOf(values)
	std := stdOf(values, mean)
	if std == 0 {
		return nil
	}

	var out []Anomaly
	for i, v := range values {
		if dev := math.Abs(v-mean) / std; dev > threshold {
			out = append(out, Anomaly{Tx: members[i], Deviation: dev})
		}
	}
	return out
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdOf(values []float64, mean float64) float64 {
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
