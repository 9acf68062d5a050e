package engine

import (
	"log/slog"
	"math"

	"github.com/phenylab/pheno-engine/internal/models"
)

const (
	// DefaultLookbackDays is the trailing meal window preceding each
	// blood draw when the caller does not choose one.
	DefaultLookbackDays = 3

	// minSampleSize gates statistical output: below this many paired
	// observations Pearson r is too unstable to report.
	minSampleSize = 5
)

// CorrelationEngine pairs blood draws with trailing-window dietary Phe
// averages and fits a linear relationship between the two.
type CorrelationEngine struct {
	logger *slog.Logger
}

// NewCorrelationEngine constructs a CorrelationEngine.
func NewCorrelationEngine(logger *slog.Logger) *CorrelationEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorrelationEngine{logger: logger}
}

// CorrelationInput carries the record sets for one analysis pass.
type CorrelationInput struct {
	BloodRecords []models.BloodLevelRecord
	MealRecords  []models.MealRecord
	LookbackDays int
}

// Analyze builds diet/blood data points and, when enough are available,
// computes Pearson r and a least-squares regression line.
//
// A blood draw with no meals in its lookback window contributes no data
// point at all; it neither dilutes the average nor counts toward the
// sample size.
func (e *CorrelationEngine) Analyze(in CorrelationInput) models.CorrelationResult {
	lookback := in.LookbackDays
	if lookback <= 0 {
		lookback = DefaultLookbackDays
	}

	points := make([]models.CorrelationDataPoint, 0, len(in.BloodRecords))
	for _, record := range in.BloodRecords {
		drawDate := models.DateOf(record.CollectedAt)
		windowStart := drawDate.AddDays(-lookback)

		pheSum := 0.0
		mealDays := make(map[models.Date]struct{})
		for _, meal := range in.MealRecords {
			mealDate := models.DateOf(meal.Timestamp)
			// Half-open window [drawDate-lookback, drawDate): the
			// draw day itself is excluded.
			if mealDate.Before(windowStart) || !mealDate.Before(drawDate) {
				continue
			}
			pheSum += meal.Total.PheMg
			mealDays[mealDate] = struct{}{}
		}
		if len(mealDays) == 0 {
			continue
		}

		points = append(points, models.CorrelationDataPoint{
			Date:       drawDate,
			DietaryPhe: math.Round(pheSum / float64(len(mealDays))),
			BloodPhe:   record.ValueUmol,
		})
	}

	result := models.CorrelationResult{
		DataPoints: points,
		SampleSize: len(points),
	}

	if len(points) < minSampleSize {
		result.IsInsufficient = true
		result.Interpretation = models.InterpretationInsufficient
		e.logger.Debug("correlation sample below gate",
			slog.Int("sample_size", len(points)),
			slog.Int("lookback_days", lookback))
		return result
	}

	r := pearson(points)
	slope, intercept := leastSquares(points)

	result.PearsonR = &r
	result.Regression = &models.RegressionLine{Slope: slope, Intercept: intercept}
	result.Interpretation = classifyStrength(r)
	return result
}

// pearson computes the correlation coefficient over (dietary, blood)
// pairs using the sum-of-products formula, rounded to three decimals.
// Zero variance on either axis yields 0.
func pearson(points []models.CorrelationDataPoint) float64 {
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for _, p := range points {
		sumX += p.DietaryPhe
		sumY += p.BloodPhe
		sumXY += p.DietaryPhe * p.BloodPhe
		sumXX += p.DietaryPhe * p.DietaryPhe
		sumYY += p.BloodPhe * p.BloodPhe
	}

	denominator := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denominator == 0 {
		return 0
	}
	return round3((n*sumXY - sumX*sumY) / denominator)
}

// leastSquares fits bloodPhe = slope*dietaryPhe + intercept, both rounded
// to three decimals. A zero slope denominator yields 0/0.
func leastSquares(points []models.CorrelationDataPoint) (slope, intercept float64) {
	n := float64(len(points))
	var sumX, sumY, sumXY, sumXX float64
	for _, p := range points {
		sumX += p.DietaryPhe
		sumY += p.BloodPhe
		sumXY += p.DietaryPhe * p.BloodPhe
		sumXX += p.DietaryPhe * p.DietaryPhe
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denominator
	intercept = (sumY - slope*sumX) / n
	return round3(slope), round3(intercept)
}

func classifyStrength(r float64) models.Interpretation {
	abs := math.Abs(r)
	switch {
	case abs >= 0.7 && r > 0:
		return models.InterpretationStrongPositive
	case abs >= 0.7:
		return models.InterpretationStrongNegative
	case abs >= 0.4:
		return models.InterpretationModerate
	case abs >= 0.2:
		return models.InterpretationWeak
	default:
		return models.InterpretationNone
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
