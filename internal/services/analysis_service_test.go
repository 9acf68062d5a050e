package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/phenylab/pheno-engine/internal/config"
	"github.com/phenylab/pheno-engine/internal/models"
)

type fakeStore struct {
	meals   []models.MealRecord
	blood   []models.BloodLevelRecord
	formula []models.FormulaDaySummary
	fail    bool
}

func (f *fakeStore) ListMeals(ctx context.Context, from, to time.Time) ([]models.MealRecord, error) {
	if f.fail {
		return nil, fmt.Errorf("store offline")
	}
	var out []models.MealRecord
	for _, meal := range f.meals {
		if !meal.Timestamp.Before(from) && !meal.Timestamp.After(to) {
			out = append(out, meal)
		}
	}
	return out, nil
}

func (f *fakeStore) ListBloodLevels(ctx context.Context, from, to time.Time) ([]models.BloodLevelRecord, error) {
	if f.fail {
		return nil, fmt.Errorf("store offline")
	}
	return f.blood, nil
}

func (f *fakeStore) ListFormulaDays(ctx context.Context, from, to models.Date) ([]models.FormulaDaySummary, error) {
	return f.formula, nil
}

func (f *fakeStore) GetFormulaDay(ctx context.Context, date models.Date) (models.FormulaDaySummary, error) {
	for _, day := range f.formula {
		if day.Date == date {
			return day, nil
		}
	}
	return models.FormulaDaySummary{Date: date}, nil
}

func testConfig() config.AnalysisConfig {
	return config.AnalysisConfig{
		LookbackDays:   3,
		HistoryDays:    90,
		PhePerExchange: 50,
		DailyGoals:     models.DailyGoals{PheMg: 300},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 7, 20, 15, 0, 0, 0, time.Local)
}

func newTestService(store RecordStore) *AnalysisService {
	svc := NewAnalysisService(nil, store, testConfig())
	svc.now = fixedNow
	return svc
}

func TestWeeklyInsightBucketsMealsPerDay(t *testing.T) {
	today := models.DateOf(fixedNow())
	store := &fakeStore{}
	// Two meals on each of the last four days; each day sums to 400mg.
	for i := 0; i < 4; i++ {
		date := today.AddDays(-i)
		store.meals = append(store.meals,
			models.MealRecord{Timestamp: date.Time().Add(8 * time.Hour), Total: models.NutritionVector{PheMg: 150}},
			models.MealRecord{Timestamp: date.Time().Add(19 * time.Hour), Total: models.NutritionVector{PheMg: 250}},
		)
	}

	svc := newTestService(store)
	insight, err := svc.WeeklyInsight(context.Background())
	if err != nil {
		t.Fatalf("WeeklyInsight: %v", err)
	}

	if insight.DataStatus != models.DataStatusPartial {
		t.Fatalf("status = %q, want partial for 4 active days", insight.DataStatus)
	}
	if insight.Stats.AvgPhe != 400 {
		t.Fatalf("avg phe = %v, want 400", insight.Stats.AvgPhe)
	}
	// Every active day exceeds the 300mg goal.
	over := 0
	for _, anomaly := range insight.Anomalies {
		if anomaly.Type == models.AnomalyPheOverLimit {
			over++
		}
	}
	if over != 4 {
		t.Fatalf("over-limit anomalies = %d, want 4", over)
	}
}

func TestCorrelationUsesStoredRecords(t *testing.T) {
	today := models.DateOf(fixedNow())
	store := &fakeStore{}
	for i := 0; i < 6; i++ {
		drawDate := today.AddDays(-i * 7)
		store.meals = append(store.meals, models.MealRecord{
			Timestamp: drawDate.AddDays(-1).Time().Add(12 * time.Hour),
			Total:     models.NutritionVector{PheMg: 200 + float64(i)*50},
		})
		store.blood = append(store.blood, models.BloodLevelRecord{
			CollectedAt: drawDate.Time().Add(8 * time.Hour),
			ValueUmol:   150 + float64(i)*40,
			TargetMin:   120,
			TargetMax:   360,
		})
	}

	svc := newTestService(store)
	result, err := svc.Correlation(context.Background(), 0)
	if err != nil {
		t.Fatalf("Correlation: %v", err)
	}
	if result.SampleSize != 6 {
		t.Fatalf("sample size = %d, want 6", result.SampleSize)
	}
	if result.Interpretation != models.InterpretationStrongPositive {
		t.Fatalf("interpretation = %q", result.Interpretation)
	}
}

func TestCorrelationStoreFailure(t *testing.T) {
	svc := newTestService(&fakeStore{fail: true})
	if _, err := svc.Correlation(context.Background(), 3); err == nil {
		t.Fatalf("expected store error to surface")
	}
}

func TestExportCSVIncludesStoredData(t *testing.T) {
	today := models.DateOf(fixedNow())
	store := &fakeStore{
		meals: []models.MealRecord{{
			Timestamp: today.Time().Add(12 * time.Hour),
			Total:     models.NutritionVector{PheMg: 275, Calories: 1500},
		}},
		blood: []models.BloodLevelRecord{{
			CollectedAt: today.Time().Add(9 * time.Hour),
			ValueUmol:   240,
			TargetMin:   120,
			TargetMax:   360,
		}},
		formula: []models.FormulaDaySummary{{Date: today, CompletedSlots: 4, TotalSlots: 4}},
	}

	svc := newTestService(store)
	csv, err := svc.ExportCSV(context.Background(), 7)
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}

	if !strings.Contains(csv, "7 Day") {
		t.Fatalf("missing period label:\n%s", csv)
	}
	if !strings.Contains(csv, "Blood Phe Levels") {
		t.Fatalf("missing blood section")
	}
	if !strings.Contains(csv, "4/4") {
		t.Fatalf("missing formula slots")
	}
	if !strings.Contains(csv, "\r\n") {
		t.Fatalf("missing CRLF separators")
	}
}
