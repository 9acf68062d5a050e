package engine

import (
	"log/slog"
	"math"
	"sort"

	"github.com/phenylab/pheno-engine/internal/models"
)

const (
	// spikeFactor is the strict day-over-day multiplier a Phe intake
	// must exceed to register as a spike.
	spikeFactor = 1.5

	// minStreakLength is the shortest run of fully missed formula days
	// worth flagging.
	minStreakLength = 2

	coldStartThreshold = 3
	partialThreshold   = 5
)

// InsightEngine computes weekly descriptive statistics and rule-based
// anomaly flags over a seven-day series.
type InsightEngine struct {
	logger *slog.Logger
}

// NewInsightEngine constructs an InsightEngine.
func NewInsightEngine(logger *slog.Logger) *InsightEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &InsightEngine{logger: logger}
}

// InsightInput carries one week of aggregated records. BloodRecords is
// accepted for contract stability; the current rules do not consume it.
type InsightInput struct {
	WeeklyPhe      []models.DayPhe
	FormulaSummary []models.FormulaDaySummary
	DailyGoals     models.DailyGoals
	BloodRecords   []models.BloodLevelRecord
}

// Analyze grades data coverage, computes stats, and runs the anomaly
// rules. Days with zero logged Phe are treated as "no data", not "zero
// intake", and never participate in stats or rules.
func (e *InsightEngine) Analyze(in InsightInput) models.WeeklyInsight {
	active := activeDays(in.WeeklyPhe)

	if len(active) < coldStartThreshold {
		e.logger.Debug("weekly insight cold start", slog.Int("active_days", len(active)))
		return models.WeeklyInsight{
			DataStatus: models.DataStatusColdStart,
			Anomalies:  []models.AnomalyItem{},
		}
	}

	status := models.DataStatusPartial
	if len(active) > partialThreshold {
		status = models.DataStatusFull
	}

	anomalies := make([]models.AnomalyItem, 0)
	anomalies = append(anomalies, detectSpikes(active)...)
	anomalies = append(anomalies, detectMissedStreaks(in.FormulaSummary)...)
	anomalies = append(anomalies, detectOverLimit(active, in.DailyGoals)...)

	return models.WeeklyInsight{
		DataStatus: status,
		Stats:      weeklyStats(active, in.FormulaSummary, in.DailyGoals),
		Anomalies:  anomalies,
	}
}

// activeDays filters out zero-Phe days and orders the rest chronologically.
func activeDays(week []models.DayPhe) []models.DayPhe {
	active := make([]models.DayPhe, 0, len(week))
	for _, day := range week {
		if day.Nutrition.PheMg > 0 {
			active = append(active, day)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Date.Before(active[j].Date) })
	return active
}

func weeklyStats(active []models.DayPhe, formula []models.FormulaDaySummary, goals models.DailyGoals) models.WeeklyStats {
	stats := models.WeeklyStats{
		MaxPhe:     active[0].Nutrition.PheMg,
		MinPhe:     active[0].Nutrition.PheMg,
		MaxPheDate: active[0].Date,
	}

	sum := 0.0
	for _, day := range active {
		phe := day.Nutrition.PheMg
		sum += phe
		if phe > stats.MaxPhe {
			stats.MaxPhe = phe
			stats.MaxPheDate = day.Date
		}
		if phe < stats.MinPhe {
			stats.MinPhe = phe
		}
		if phe <= goals.PheMg {
			stats.GoalHitDays++
		}
	}
	stats.AvgPhe = math.Round(sum / float64(len(active)))

	completed, total := 0, 0
	for _, day := range formula {
		if day.TotalSlots <= 0 {
			continue
		}
		completed += day.CompletedSlots
		total += day.TotalSlots
	}
	if total > 0 {
		stats.FormulaCompletionRate = math.Round(float64(completed)/float64(total)*100) / 100
	}
	return stats
}

// detectSpikes flags a day whose intake strictly exceeds 1.5x the
// previous active day. Exactly 1.5x does not qualify.
func detectSpikes(active []models.DayPhe) []models.AnomalyItem {
	anomalies := make([]models.AnomalyItem, 0)
	for i := 1; i < len(active); i++ {
		prev := active[i-1].Nutrition.PheMg
		curr := active[i].Nutrition.PheMg
		if prev > 0 && curr > prev*spikeFactor {
			anomalies = append(anomalies, models.AnomalyItem{
				Type:     models.AnomalyPheSpike,
				Severity: models.SeverityWarning,
				Date:     active[i].Date,
				Value:    curr,
			})
		}
	}
	return anomalies
}

// detectMissedStreaks flags runs of two or more fully missed formula
// days. Days with no configured slots are transparent: they neither
// count as missed nor break a running streak.
func detectMissedStreaks(formula []models.FormulaDaySummary) []models.AnomalyItem {
	ordered := append([]models.FormulaDaySummary(nil), formula...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date) })

	anomalies := make([]models.AnomalyItem, 0)
	streak := 0
	var streakStart models.Date

	flush := func() {
		if streak >= minStreakLength {
			anomalies = append(anomalies, models.AnomalyItem{
				Type:     models.AnomalyFormulaMissedStreak,
				Severity: models.SeverityWarning,
				Date:     streakStart,
				Value:    float64(streak),
			})
		}
		streak = 0
	}

	for _, day := range ordered {
		if day.TotalSlots <= 0 {
			continue
		}
		if day.CompletedSlots == 0 {
			if streak == 0 {
				streakStart = day.Date
			}
			streak++
			continue
		}
		flush()
	}
	flush()
	return anomalies
}

// detectOverLimit flags every active day exceeding the daily allowance.
func detectOverLimit(active []models.DayPhe, goals models.DailyGoals) []models.AnomalyItem {
	anomalies := make([]models.AnomalyItem, 0)
	for _, day := range active {
		if day.Nutrition.PheMg > goals.PheMg {
			anomalies = append(anomalies, models.AnomalyItem{
				Type:     models.AnomalyPheOverLimit,
				Severity: models.SeverityInfo,
				Date:     day.Date,
				Value:    day.Nutrition.PheMg,
			})
		}
	}
	return anomalies
}
