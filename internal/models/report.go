package models

import "time"

// DailySummary is one retained day in an export report.
type DailySummary struct {
	Date           Date            `json:"date"`
	Nutrition      NutritionVector `json:"nutrition"`
	ConfirmedPheMg float64         `json:"confirmed_phe_mg"`
	Exchanges      float64         `json:"exchanges"`
	CompletedSlots int             `json:"completed_slots"`
	TotalSlots     int             `json:"total_slots"`
}

// ExportData is the aggregated multi-day report handed to the CSV
// renderer. PeriodStart/PeriodEnd always span the full requested period
// even when sparse logging leaves gaps in DailySummaries.
type ExportData struct {
	PeriodStart    Date               `json:"period_start"`
	PeriodEnd      Date               `json:"period_end"`
	Days           int                `json:"days"`
	Goals          DailyGoals         `json:"daily_goals"`
	PhePerExchange float64            `json:"phe_per_exchange"`
	DailySummaries []DailySummary     `json:"daily_summaries"`
	BloodRecords   []BloodLevelRecord `json:"blood_records"`
	GeneratedAt    time.Time          `json:"generated_at"`
}
