// Package report reshapes multi-day records into per-day export summaries
// and renders them as CSV text.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/phenylab/pheno-engine/internal/models"
)

// DefaultPhePerExchange is the exchange-unit size assumed when the caller
// does not configure one.
const DefaultPhePerExchange = 50.0

// FormulaFetcher supplies formula completion for one calendar date. The
// aggregator awaits it once per date, sequentially.
type FormulaFetcher func(ctx context.Context, date models.Date) (models.FormulaDaySummary, error)

// Request describes one export aggregation.
type Request struct {
	Days           int
	Until          models.Date // zero value means today
	MealRecords    []models.MealRecord
	BloodRecords   []models.BloodLevelRecord
	Goals          models.DailyGoals
	PhePerExchange float64
	FetchFormula   FormulaFetcher
}

// Aggregator builds per-day export tables from raw record sets.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{logger: logger}
}

type dayBucket struct {
	nutrition    models.NutritionVector
	confirmedPhe float64
	hasMeal      bool
}

// BuildReport buckets meals by calendar date over the trailing period,
// joins in formula completion, and drops days with no activity at all.
// PeriodStart/PeriodEnd always cover the full requested span regardless
// of how sparse the retained days are.
func (a *Aggregator) BuildReport(ctx context.Context, req Request) (models.ExportData, error) {
	if req.Days <= 0 {
		return models.ExportData{}, fmt.Errorf("report period must be positive, got %d days", req.Days)
	}

	until := req.Until
	if until.IsZero() {
		until = models.DateOf(time.Now())
	}
	start := until.AddDays(-(req.Days - 1))

	phePerExchange := req.PhePerExchange
	if phePerExchange <= 0 {
		phePerExchange = DefaultPhePerExchange
	}

	buckets := make(map[models.Date]*dayBucket)
	for _, meal := range req.MealRecords {
		date := models.DateOf(meal.Timestamp)
		if date.Before(start) || date.After(until) {
			continue
		}
		bucket, ok := buckets[date]
		if !ok {
			bucket = &dayBucket{}
			buckets[date] = bucket
		}
		bucket.hasMeal = true
		bucket.nutrition = bucket.nutrition.Add(meal.Total)
		for _, item := range meal.Items {
			if item.Confirmed {
				bucket.confirmedPhe += item.PheMg
			}
		}
	}

	summaries := make([]models.DailySummary, 0, req.Days)
	for date := start; !date.After(until); date = date.AddDays(1) {
		var formula models.FormulaDaySummary
		if req.FetchFormula != nil {
			fetched, err := req.FetchFormula(ctx, date)
			if err != nil {
				return models.ExportData{}, fmt.Errorf("fetch formula summary for %s: %w", date, err)
			}
			formula = fetched
		}

		bucket := buckets[date]
		if bucket == nil && formula.CompletedSlots == 0 {
			// Zero-activity day: falls inside the period but is
			// omitted from the table.
			continue
		}

		summary := models.DailySummary{
			Date:           date,
			CompletedSlots: formula.CompletedSlots,
			TotalSlots:     formula.TotalSlots,
		}
		if bucket != nil {
			summary.Nutrition = bucket.nutrition
			summary.ConfirmedPheMg = bucket.confirmedPhe
			summary.Exchanges = math.Round(bucket.nutrition.PheMg/phePerExchange*10) / 10
		}
		summaries = append(summaries, summary)
	}

	blood := make([]models.BloodLevelRecord, 0, len(req.BloodRecords))
	for _, record := range req.BloodRecords {
		date := models.DateOf(record.CollectedAt)
		if date.Before(start) || date.After(until) {
			continue
		}
		blood = append(blood, record)
	}

	a.logger.Debug("report aggregated",
		slog.Int("days", req.Days),
		slog.Int("retained_days", len(summaries)),
		slog.Int("blood_records", len(blood)))

	return models.ExportData{
		PeriodStart:    start,
		PeriodEnd:      until,
		Days:           req.Days,
		Goals:          req.Goals,
		PhePerExchange: phePerExchange,
		DailySummaries: summaries,
		BloodRecords:   blood,
		GeneratedAt:    time.Now(),
	}, nil
}
