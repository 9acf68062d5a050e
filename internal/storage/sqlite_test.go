package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/phenylab/pheno-engine/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveAndListMeals(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	meal := models.MealRecord{
		Timestamp: time.Date(2025, 4, 10, 12, 30, 0, 0, time.Local),
		Total:     models.NutritionVector{Calories: 420, ProteinG: 6, CarbsG: 80, FatG: 9, PheMg: 310},
		Items: []models.FoodItem{
			{Name: "pasta", PheMg: 280, Calories: 350, Confirmed: true},
			{Name: "sauce", PheMg: 30, Calories: 70},
		},
	}
	if err := store.SaveMeal(ctx, &meal); err != nil {
		t.Fatalf("save meal: %v", err)
	}
	if meal.ID == "" {
		t.Fatalf("expected generated meal ID")
	}

	from := time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local)
	to := time.Date(2025, 4, 30, 23, 59, 59, 0, time.Local)
	meals, err := store.ListMeals(ctx, from, to)
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("meals = %d, want 1", len(meals))
	}
	got := meals[0]
	if got.Total.PheMg != 310 {
		t.Fatalf("phe = %v, want 310", got.Total.PheMg)
	}
	if len(got.Items) != 2 || !got.Items[0].Confirmed || got.Items[1].Confirmed {
		t.Fatalf("items round-trip broken: %+v", got.Items)
	}
	if !got.Timestamp.Equal(meal.Timestamp) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, meal.Timestamp)
	}
}

func TestListMealsRangeExcludes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for _, day := range []int{5, 15, 25} {
		meal := models.MealRecord{
			Timestamp: time.Date(2025, 4, day, 12, 0, 0, 0, time.Local),
			Total:     models.NutritionVector{PheMg: 100},
		}
		if err := store.SaveMeal(ctx, &meal); err != nil {
			t.Fatalf("save meal: %v", err)
		}
	}

	from := time.Date(2025, 4, 10, 0, 0, 0, 0, time.Local)
	to := time.Date(2025, 4, 20, 0, 0, 0, 0, time.Local)
	meals, err := store.ListMeals(ctx, from, to)
	if err != nil {
		t.Fatalf("list meals: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("meals in range = %d, want 1", len(meals))
	}
}

func TestSaveBloodLevelValidatesRange(t *testing.T) {
	store := openTestStore(t)
	record := models.BloodLevelRecord{
		CollectedAt: time.Now(),
		ValueUmol:   250,
		TargetMin:   360,
		TargetMax:   120,
	}
	if err := store.SaveBloodLevel(context.Background(), &record); err == nil {
		t.Fatalf("expected inverted target range to be rejected")
	}
}

func TestBloodLevelRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	record := models.BloodLevelRecord{
		CollectedAt: time.Date(2025, 4, 12, 8, 0, 0, 0, time.Local),
		ValueUmol:   245.5,
		TargetMin:   120,
		TargetMax:   360,
		Notes:       "fasting draw",
	}
	if err := store.SaveBloodLevel(ctx, &record); err != nil {
		t.Fatalf("save blood level: %v", err)
	}

	records, err := store.ListBloodLevels(ctx,
		time.Date(2025, 4, 1, 0, 0, 0, 0, time.Local),
		time.Date(2025, 4, 30, 0, 0, 0, 0, time.Local))
	if err != nil {
		t.Fatalf("list blood levels: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].ValueUmol != 245.5 || records[0].Notes != "fasting draw" {
		t.Fatalf("round trip mismatch: %+v", records[0])
	}
}

func TestFormulaDayUpsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	date := models.Date{Year: 2025, Month: 4, Day: 12}

	if err := store.UpsertFormulaDay(ctx, models.FormulaDaySummary{Date: date, CompletedSlots: 1, TotalSlots: 4}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := store.UpsertFormulaDay(ctx, models.FormulaDaySummary{Date: date, CompletedSlots: 3, TotalSlots: 4}); err != nil {
		t.Fatalf("upsert update: %v", err)
	}

	day, err := store.GetFormulaDay(ctx, date)
	if err != nil {
		t.Fatalf("get formula day: %v", err)
	}
	if day.CompletedSlots != 3 || day.TotalSlots != 4 {
		t.Fatalf("day = %+v, want 3/4", day)
	}
}

func TestGetFormulaDayMissing(t *testing.T) {
	store := openTestStore(t)
	date := models.Date{Year: 2025, Month: 4, Day: 1}

	day, err := store.GetFormulaDay(context.Background(), date)
	if err != nil {
		t.Fatalf("get formula day: %v", err)
	}
	if day.CompletedSlots != 0 || day.TotalSlots != 0 || day.Date != date {
		t.Fatalf("missing day should be zero summary, got %+v", day)
	}
}

func TestUpsertFormulaDayValidatesSlots(t *testing.T) {
	store := openTestStore(t)
	err := store.UpsertFormulaDay(context.Background(), models.FormulaDaySummary{
		Date:           models.Date{Year: 2025, Month: 4, Day: 2},
		CompletedSlots: 5,
		TotalSlots:     4,
	})
	if err == nil {
		t.Fatalf("expected completed > total to be rejected")
	}
}
