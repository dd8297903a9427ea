package analytics

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/dmorales/ledgerbot/internal/domain"
)

// MinTrainingRows is the income-row floor below which training refuses
// to run.
const MinTrainingRows = 20

// ErrInsufficientData is returned by TrainSalesModel when the table has
// fewer than MinTrainingRows income rows. Callers render it as an
// explanation, not a failure.
var ErrInsufficientData = errors.New("not enough income transactions to train a model")

// FeatureNames labels the model inputs, in training order.
var FeatureNames = [featureCount]string{"year", "month", "day", "weekday", "quarter"}

const trainSeed = 42

// TrainResult reports the quality of a trained model.
type TrainResult struct {
	MAE         float64
	Precision   float64 // R² as a percentage, floored at zero
	Importances map[string]float64
	TrainRows   int
	TestRows    int
}

// salesModel is the published artifact: the fitted ensemble plus its
// evaluation, swapped in atomically once training completes.
type salesModel struct {
	ensemble *gbrt
	result   TrainResult
}

func features(year, month, day, weekday, quarter int) [featureCount]float64 {
	return [featureCount]float64{
		float64(year), float64(month), float64(day), float64(weekday), float64(quarter),
	}
}

// TrainSalesModel fits the forecaster on income rows. The training lock
// serializes concurrent triggers; readers see either no model or a
// fully trained one.
func (a *Analyzer) TrainSalesModel() (TrainResult, error) {
	a.trainMu.Lock()
	defer a.trainMu.Unlock()

	var xs [][featureCount]float64
	var ys []float64
	for _, tx := range a.txs {
		if tx.Type != domain.TxIncome {
			continue
		}
		xs = append(xs, features(tx.Year, tx.Month, tx.Day, tx.Weekday, tx.Quarter))
		ys = append(ys, tx.Amount)
	}
	if len(ys) < MinTrainingRows {
		return TrainResult{}, ErrInsufficientData
	}

	// Reproducible 80/20 split.
	perm := rand.New(rand.NewSource(trainSeed)).Perm(len(ys))
	cut := len(ys) * 8 / 10
	trainX := make([][featureCount]float64, 0, cut)
	trainY := make([]float64, 0, cut)
	testX := make([][featureCount]float64, 0, len(ys)-cut)
	testY := make([]float64, 0, len(ys)-cut)
	for i, p := range perm {
		if i < cut {
			trainX = append(trainX, xs[p])
			trainY = append(trainY, ys[p])
		} else {
			testX = append(testX, xs[p])
			testY = append(testY, ys[p])
		}
	}

	ensemble := fitGBRT(trainX, trainY)

	preds := make([]float64, len(testY))
	for i, x := range testX {
		preds[i] = ensemble.predict(x)
	}

	importances := make(map[string]float64, featureCount)
	for i, name := range FeatureNames {
		importances[name] = ensemble.importances[i]
	}
	result := TrainResult{
		MAE:         mae(preds, testY),
		Precision:   math.Max(0, rSquared(preds, testY)) * 100,
		Importances: importances,
		TrainRows:   len(trainY),
		TestRows:    len(testY),
	}

	a.model.Store(&salesModel{ensemble: ensemble, result: result})
	a.log.Info().
		Int("train_rows", result.TrainRows).
		Int("test_rows", result.TestRows).
		Float64("mae", result.MAE).
		Msg("Sales model trained")
	return result, nil
}

// Trained reports whether a model has been published.
func (a *Analyzer) Trained() bool { return a.model.Load() != nil }

// Prediction method markers.
const (
	MethodModel      = "model"
	MethodHistorical = "historical-average"
)

// Prediction is the month forecast. Both paths fill the same shape;
// Method distinguishes the fallback. Historical is the total income
// recorded for that calendar month across all years.
type Prediction struct {
	Year       int
	Month      int
	Predicted  float64
	Historical float64
	Variation  float64 // percent vs Historical; zero when no history
	Method     string
}

// PredictMonth forecasts total income for one calendar month. With a
// trained model it predicts each day of the month and sums; without one
// it falls back to the historical per-month average times the day
// count.
func (a *Analyzer) PredictMonth(year, month int) Prediction {
	p := Prediction{Year: year, Month: month}
	days := daysInMonth(year, month)
	p.Historical = a.historicalTotal(month)

	m := a.model.Load()
	if m == nil {
		p.Predicted = a.historicalMean(month) * float64(days)
		p.Method = MethodHistorical
		return p
	}

	quarter := (month-1)/3 + 1
	for day := 1; day <= days; day++ {
		date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		x := features(year, month, day, domain.MondayIndex(date.Weekday()), quarter)
		p.Predicted += m.ensemble.predict(x)
	}
	p.Method = MethodModel
	if p.Historical > 0 {
		p.Variation = (p.Predicted - p.Historical) / p.Historical * 100
	}
	return p
}

// historicalTotal sums the income recorded for that calendar month
// across all years.
func (a *Analyzer) historicalTotal(month int) float64 {
	var sum float64
	for _, tx := range a.txs {
		if tx.Type == domain.TxIncome && tx.Month == month {
			sum += tx.Amount
		}
	}
	return sum
}

// historicalMean is the mean income amount for that calendar month
// across all years, or the global income mean if that month has no
// history, or zero on an empty table.
func (a *Analyzer) historicalMean(month int) float64 {
	var monthSum, allSum float64
	var monthN, allN int
	for _, tx := range a.txs {
		if tx.Type != domain.TxIncome {
			continue
		}
		allSum += tx.Amount
		allN++
		if tx.Month == month {
			monthSum += tx.Amount
			monthN++
		}
	}
	if monthN > 0 {
		return monthSum / float64(monthN)
	}
	if allN > 0 {
		return allSum / float64(allN)
	}
	return 0
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
