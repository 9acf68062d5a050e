package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/phenylab/pheno-engine/internal/config"
	"github.com/phenylab/pheno-engine/internal/engine"
	"github.com/phenylab/pheno-engine/internal/metrics"
	"github.com/phenylab/pheno-engine/internal/models"
	"github.com/phenylab/pheno-engine/internal/report"
	"github.com/phenylab/pheno-engine/internal/utils"
)

// RecordStore defines the persistence operations the analysis facade
// reads records through.
type RecordStore interface {
	ListMeals(ctx context.Context, from, to time.Time) ([]models.MealRecord, error)
	ListBloodLevels(ctx context.Context, from, to time.Time) ([]models.BloodLevelRecord, error)
	ListFormulaDays(ctx context.Context, from, to models.Date) ([]models.FormulaDaySummary, error)
	GetFormulaDay(ctx context.Context, date models.Date) (models.FormulaDaySummary, error)
}

// AnalysisService pulls stored records and feeds them through the pure
// analysis engines, recording metrics along the way.
type AnalysisService struct {
	logger      *slog.Logger
	store       RecordStore
	correlation *engine.CorrelationEngine
	insights    *engine.InsightEngine
	aggregator  *report.Aggregator
	cfg         config.AnalysisConfig

	// now is swappable for tests.
	now func() time.Time
}

// NewAnalysisService constructs the facade.
func NewAnalysisService(logger *slog.Logger, store RecordStore, cfg config.AnalysisConfig) *AnalysisService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalysisService{
		logger:      logger,
		store:       store,
		correlation: engine.NewCorrelationEngine(logger),
		insights:    engine.NewInsightEngine(logger),
		aggregator:  report.NewAggregator(logger),
		cfg:         cfg,
		now:         time.Now,
	}
}

// Correlation runs the diet-to-blood correlation over the configured
// history window. A non-positive lookback falls back to the configured
// default.
func (s *AnalysisService) Correlation(ctx context.Context, lookbackDays int) (models.CorrelationResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = s.cfg.LookbackDays
	}

	end := s.now()
	start := end.AddDate(0, 0, -s.cfg.HistoryDays)

	started := time.Now()
	meals, err := s.store.ListMeals(ctx, start, end)
	if err != nil {
		metrics.ObserveAnalysis(metrics.KindCorrelation, time.Since(started), metrics.OutcomeError)
		return models.CorrelationResult{}, utils.NewAppError("correlation", "list meals", err)
	}
	blood, err := s.store.ListBloodLevels(ctx, start, end)
	if err != nil {
		metrics.ObserveAnalysis(metrics.KindCorrelation, time.Since(started), metrics.OutcomeError)
		return models.CorrelationResult{}, utils.NewAppError("correlation", "list blood levels", err)
	}

	result := s.correlation.Analyze(engine.CorrelationInput{
		BloodRecords: blood,
		MealRecords:  meals,
		LookbackDays: lookbackDays,
	})
	metrics.ObserveAnalysis(metrics.KindCorrelation, time.Since(started), metrics.OutcomeSuccess)

	s.logger.Debug("correlation analysis complete",
		slog.Int("sample_size", result.SampleSize),
		slog.String("interpretation", string(result.Interpretation)))
	return result, nil
}

// WeeklyInsight analyses the trailing seven calendar days.
func (s *AnalysisService) WeeklyInsight(ctx context.Context) (models.WeeklyInsight, error) {
	today := models.DateOf(s.now())
	weekStart := today.AddDays(-6)

	from := weekStart.Time()
	to := today.AddDays(1).Time().Add(-time.Nanosecond)

	started := time.Now()
	meals, err := s.store.ListMeals(ctx, from, to)
	if err != nil {
		metrics.ObserveAnalysis(metrics.KindWeekly, time.Since(started), metrics.OutcomeError)
		return models.WeeklyInsight{}, utils.NewAppError("weekly_insight", "list meals", err)
	}
	formula, err := s.store.ListFormulaDays(ctx, weekStart, today)
	if err != nil {
		metrics.ObserveAnalysis(metrics.KindWeekly, time.Since(started), metrics.OutcomeError)
		return models.WeeklyInsight{}, utils.NewAppError("weekly_insight", "list formula days", err)
	}
	blood, err := s.store.ListBloodLevels(ctx, from, to)
	if err != nil {
		metrics.ObserveAnalysis(metrics.KindWeekly, time.Since(started), metrics.OutcomeError)
		return models.WeeklyInsight{}, utils.NewAppError("weekly_insight", "list blood levels", err)
	}

	result := s.insights.Analyze(engine.InsightInput{
		WeeklyPhe:      weeklySeries(weekStart, meals),
		FormulaSummary: formula,
		DailyGoals:     s.cfg.DailyGoals,
		BloodRecords:   blood,
	})
	metrics.ObserveAnalysis(metrics.KindWeekly, time.Since(started), metrics.OutcomeSuccess)

	s.logger.Debug("weekly insight complete",
		slog.String("status", string(result.DataStatus)),
		slog.Int("anomalies", len(result.Anomalies)))
	return result, nil
}

// ExportCSV aggregates the trailing period and renders it as CSV text.
func (s *AnalysisService) ExportCSV(ctx context.Context, days int) (string, error) {
	until := models.DateOf(s.now())
	start := until.AddDays(-(days - 1))

	from := start.Time()
	to := until.AddDays(1).Time().Add(-time.Nanosecond)

	meals, err := s.store.ListMeals(ctx, from, to)
	if err != nil {
		return "", utils.NewAppError("export", "list meals", err)
	}
	blood, err := s.store.ListBloodLevels(ctx, from, to)
	if err != nil {
		return "", utils.NewAppError("export", "list blood levels", err)
	}

	data, err := s.aggregator.BuildReport(ctx, report.Request{
		Days:           days,
		Until:          until,
		MealRecords:    meals,
		BloodRecords:   blood,
		Goals:          s.cfg.DailyGoals,
		PhePerExchange: s.cfg.PhePerExchange,
		FetchFormula:   s.store.GetFormulaDay,
	})
	if err != nil {
		return "", utils.NewAppError("export", "aggregate report", err)
	}

	metrics.IncReport()
	return report.RenderCSV(data), nil
}

// weeklySeries buckets meal totals into one entry per calendar day of
// the week starting at weekStart.
func weeklySeries(weekStart models.Date, meals []models.MealRecord) []models.DayPhe {
	byDate := make(map[models.Date]models.NutritionVector)
	for _, meal := range meals {
		date := models.DateOf(meal.Timestamp)
		byDate[date] = byDate[date].Add(meal.Total)
	}

	series := make([]models.DayPhe, 0, 7)
	for i := 0; i < 7; i++ {
		date := weekStart.AddDays(i)
		series = append(series, models.DayPhe{Date: date, Nutrition: byDate[date]})
	}
	return series
}
