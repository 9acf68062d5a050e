package models

// DataStatus grades how much of the week carries logged data.
type DataStatus string

const (
	DataStatusColdStart DataStatus = "cold_start"
	DataStatusPartial   DataStatus = "partial"
	DataStatusFull      DataStatus = "full"
)

// AnomalyType enumerates the weekly anomaly rules.
type AnomalyType string

const (
	AnomalyPheSpike            AnomalyType = "phe_spike"
	AnomalyFormulaMissedStreak AnomalyType = "formula_missed_streak"
	AnomalyPheOverLimit        AnomalyType = "phe_over_limit"
)

// Severity captures how loudly an anomaly should surface.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
)

// AnomalyItem is one detected anomaly. Value carries the rule-specific
// magnitude: the day's Phe for spikes and over-limit days, the streak
// length for missed formula streaks.
type AnomalyItem struct {
	Type     AnomalyType `json:"type"`
	Severity Severity    `json:"severity"`
	Date     Date        `json:"date"`
	Value    float64     `json:"value"`
}

// WeeklyStats are descriptive statistics over the week's active days.
type WeeklyStats struct {
	AvgPhe                float64 `json:"avg_phe"`
	MaxPhe                float64 `json:"max_phe"`
	MinPhe                float64 `json:"min_phe"`
	MaxPheDate            Date    `json:"max_phe_date"`
	GoalHitDays           int     `json:"goal_hit_days"`
	FormulaCompletionRate float64 `json:"formula_completion_rate"`
}

// WeeklyInsight is the weekly analysis output.
type WeeklyInsight struct {
	DataStatus DataStatus    `json:"data_status"`
	Stats      WeeklyStats   `json:"stats"`
	Anomalies  []AnomalyItem `json:"anomalies"`
}
