package models

import "time"

// NutritionVector holds per-meal or per-day nutrient totals. A vector
// covering no items is the all-zero vector.
type NutritionVector struct {
	Calories float64 `json:"calories"`
	ProteinG float64 `json:"protein_g"`
	CarbsG   float64 `json:"carbs_g"`
	FatG     float64 `json:"fat_g"`
	PheMg    float64 `json:"phenylalanine_mg"`
}

// Add returns the element-wise sum of two vectors.
func (v NutritionVector) Add(other NutritionVector) NutritionVector {
	return NutritionVector{
		Calories: v.Calories + other.Calories,
		ProteinG: v.ProteinG + other.ProteinG,
		CarbsG:   v.CarbsG + other.CarbsG,
		FatG:     v.FatG + other.FatG,
		PheMg:    v.PheMg + other.PheMg,
	}
}

// FoodItem is a single logged food entry within a meal. Confirmed marks
// entries the user has verified rather than accepted from auto-logging.
type FoodItem struct {
	Name      string  `json:"name"`
	Calories  float64 `json:"calories"`
	ProteinG  float64 `json:"protein_g"`
	CarbsG    float64 `json:"carbs_g"`
	FatG      float64 `json:"fat_g"`
	PheMg     float64 `json:"phenylalanine_mg"`
	Confirmed bool    `json:"is_confirmed"`
}

// MealRecord is one logged meal with its item breakdown.
type MealRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Total     NutritionVector `json:"total_nutrition"`
	Items     []FoodItem      `json:"items"`
}

// BloodLevelRecord is a blood draw result. ValueUmol is always expressed
// in µmol/L; unit conversion happens at the write boundary.
type BloodLevelRecord struct {
	ID          string    `json:"id"`
	CollectedAt time.Time `json:"collected_at"`
	ValueUmol   float64   `json:"value_umol"`
	TargetMin   float64   `json:"target_min"`
	TargetMax   float64   `json:"target_max"`
	Notes       string    `json:"notes,omitempty"`
}

// FormulaDaySummary tracks medical-formula intake completion for one day.
type FormulaDaySummary struct {
	Date           Date `json:"date"`
	CompletedSlots int  `json:"completed_slots"`
	TotalSlots     int  `json:"total_slots"`
}

// DailyGoals are the user-configured daily nutrient targets.
type DailyGoals struct {
	Calories float64 `json:"calories" yaml:"calories"`
	ProteinG float64 `json:"protein_g" yaml:"proteinG"`
	CarbsG   float64 `json:"carbs_g" yaml:"carbsG"`
	FatG     float64 `json:"fat_g" yaml:"fatG"`
	PheMg    float64 `json:"phenylalanine_mg" yaml:"phenylalanineMg"`
}

// DayPhe is one day of aggregated nutrition inside a weekly series.
type DayPhe struct {
	Date      Date            `json:"date"`
	Nutrition NutritionVector `json:"nutrition"`
}
