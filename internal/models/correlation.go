package models

// CorrelationDataPoint pairs one blood draw with the trailing-window
// average dietary Phe preceding it.
type CorrelationDataPoint struct {
	Date       Date    `json:"date"`
	DietaryPhe float64 `json:"dietary_phe"`
	BloodPhe   float64 `json:"blood_phe"`
}

// RegressionLine is the least-squares fit bloodPhe = Slope*dietaryPhe + Intercept.
type RegressionLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Interpretation classifies correlation strength.
type Interpretation string

const (
	InterpretationInsufficient   Interpretation = "insufficient"
	InterpretationStrongPositive Interpretation = "strong_positive"
	InterpretationStrongNegative Interpretation = "strong_negative"
	InterpretationModerate       Interpretation = "moderate"
	InterpretationWeak           Interpretation = "weak"
	InterpretationNone           Interpretation = "none"
)

// CorrelationResult summarises the diet-to-blood Phe relationship.
// PearsonR and Regression are nil when the sample-size gate trips.
type CorrelationResult struct {
	DataPoints     []CorrelationDataPoint `json:"data_points"`
	SampleSize     int                    `json:"sample_size"`
	IsInsufficient bool                   `json:"is_insufficient"`
	PearsonR       *float64               `json:"pearson_r"`
	Regression     *RegressionLine        `json:"regression_line"`
	Interpretation Interpretation         `json:"interpretation_key"`
}
