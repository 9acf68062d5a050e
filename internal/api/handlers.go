package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phenylab/pheno-engine/internal/models"
	"github.com/phenylab/pheno-engine/internal/nutrition"
	"github.com/phenylab/pheno-engine/internal/units"
)

// AnalysisProvider is the analysis surface the handlers call into.
type AnalysisProvider interface {
	Correlation(ctx context.Context, lookbackDays int) (models.CorrelationResult, error)
	WeeklyInsight(ctx context.Context) (models.WeeklyInsight, error)
	ExportCSV(ctx context.Context, days int) (string, error)
}

// RecordWriter is the persistence surface for incoming records.
type RecordWriter interface {
	SaveMeal(ctx context.Context, meal *models.MealRecord) error
	SaveBloodLevel(ctx context.Context, record *models.BloodLevelRecord) error
	UpsertFormulaDay(ctx context.Context, day models.FormulaDaySummary) error
}

// Handlers bundles the HTTP endpoints.
type Handlers struct {
	logger   *slog.Logger
	analysis AnalysisProvider
	records  RecordWriter
}

// NewHandlers constructs the endpoint set.
func NewHandlers(logger *slog.Logger, analysis AnalysisProvider, records RecordWriter) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{logger: logger, analysis: analysis, records: records}
}

// Routes registers all endpoints on a fresh mux.
func (h *Handlers) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/v1/meals", h.handleMeals)
	mux.HandleFunc("/api/v1/blood-levels", h.handleBloodLevels)
	mux.HandleFunc("/api/v1/formula-days/", h.handleFormulaDay)
	mux.HandleFunc("/api/v1/analysis/correlation", h.handleCorrelation)
	mux.HandleFunc("/api/v1/analysis/weekly", h.handleWeekly)
	mux.HandleFunc("/api/v1/reports/csv", h.handleReportCSV)
	return mux
}

func (h *Handlers) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type mealPayload struct {
	Timestamp string            `json:"timestamp"`
	Items     []models.FoodItem `json:"items"`
}

func (h *Handlers) handleMeals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload mealPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	timestamp, err := time.Parse(time.RFC3339, payload.Timestamp)
	if err != nil {
		writeError(w, http.StatusBadRequest, "timestamp must be RFC3339")
		return
	}

	meal := models.MealRecord{
		Timestamp: timestamp,
		Items:     payload.Items,
		Total:     nutrition.TotalNutrition(payload.Items),
	}
	if err := h.records.SaveMeal(r.Context(), &meal); err != nil {
		h.logger.Error("save meal failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to save meal")
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

type bloodLevelPayload struct {
	CollectedAt string  `json:"collected_at"`
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	TargetMin   float64 `json:"target_min"`
	TargetMax   float64 `json:"target_max"`
	Notes       string  `json:"notes"`
}

func (h *Handlers) handleBloodLevels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload bloodLevelPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	collectedAt, err := time.Parse(time.RFC3339, payload.CollectedAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "collected_at must be RFC3339")
		return
	}
	if payload.TargetMin >= payload.TargetMax {
		writeError(w, http.StatusBadRequest, "target_min must be below target_max")
		return
	}

	// Values are normalised to µmol/L at this write boundary; the
	// engines never see mg/dL.
	value := payload.Value
	switch payload.Unit {
	case "mg_dl":
		value = units.MgDlToUmol(value)
	case "", "umol_l":
	default:
		writeError(w, http.StatusBadRequest, "unit must be mg_dl or umol_l")
		return
	}

	record := models.BloodLevelRecord{
		CollectedAt: collectedAt,
		ValueUmol:   value,
		TargetMin:   payload.TargetMin,
		TargetMax:   payload.TargetMax,
		Notes:       payload.Notes,
	}
	if err := h.records.SaveBloodLevel(r.Context(), &record); err != nil {
		h.logger.Error("save blood level failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to save blood level")
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

type formulaDayPayload struct {
	CompletedSlots int `json:"completed_slots"`
	TotalSlots     int `json:"total_slots"`
}

func (h *Handlers) handleFormulaDay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/formula-days/")
	date, err := models.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	var payload formulaDayPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if payload.CompletedSlots < 0 || payload.TotalSlots < 0 || payload.CompletedSlots > payload.TotalSlots {
		writeError(w, http.StatusBadRequest, "completed_slots must be within 0..total_slots")
		return
	}

	day := models.FormulaDaySummary{
		Date:           date,
		CompletedSlots: payload.CompletedSlots,
		TotalSlots:     payload.TotalSlots,
	}
	if err := h.records.UpsertFormulaDay(r.Context(), day); err != nil {
		h.logger.Error("upsert formula day failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to save formula day")
		return
	}
	writeJSON(w, http.StatusOK, day)
}

func (h *Handlers) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	lookback := 0
	if raw := r.URL.Query().Get("lookback_days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "lookback_days must be a positive integer")
			return
		}
		lookback = parsed
	}

	result, err := h.analysis.Correlation(r.Context(), lookback)
	if err != nil {
		h.logger.Error("correlation analysis failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleWeekly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	result, err := h.analysis.WeeklyInsight(r.Context())
	if err != nil {
		h.logger.Error("weekly insight failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "analysis failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 366 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 366")
			return
		}
		days = parsed
	}

	csv, err := h.analysis.ExportCSV(r.Context(), days)
	if err != nil {
		h.logger.Error("csv export failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="pku-diet-report.csv"`)
	_, _ = w.Write([]byte(csv))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
