// Package storage persists meal, blood-level, and formula records in
// sqlite. The analysis engines never touch it directly; the service
// facade reads records out and hands them over as plain values.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/phenylab/pheno-engine/internal/models"
)

// Store wraps the sqlite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the sqlite database at path and ensures the
// schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS meals (
        id TEXT PRIMARY KEY,
        timestamp TEXT NOT NULL,
        calories REAL NOT NULL,
        protein_g REAL NOT NULL,
        carbs_g REAL NOT NULL,
        fat_g REAL NOT NULL,
        phe_mg REAL NOT NULL
    );

    CREATE TABLE IF NOT EXISTS meal_items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        meal_id TEXT NOT NULL,
        name TEXT NOT NULL,
        calories REAL NOT NULL,
        protein_g REAL NOT NULL,
        carbs_g REAL NOT NULL,
        fat_g REAL NOT NULL,
        phe_mg REAL NOT NULL,
        confirmed INTEGER NOT NULL,
        FOREIGN KEY (meal_id) REFERENCES meals(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS blood_levels (
        id TEXT PRIMARY KEY,
        collected_at TEXT NOT NULL,
        value_umol REAL NOT NULL,
        target_min REAL NOT NULL,
        target_max REAL NOT NULL,
        notes TEXT NOT NULL DEFAULT ''
    );

    CREATE TABLE IF NOT EXISTS formula_days (
        date TEXT PRIMARY KEY,
        completed_slots INTEGER NOT NULL,
        total_slots INTEGER NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_meals_timestamp ON meals(timestamp);
    CREATE INDEX IF NOT EXISTS idx_meal_items_meal_id ON meal_items(meal_id);
    CREATE INDEX IF NOT EXISTS idx_blood_levels_collected_at ON blood_levels(collected_at);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// SaveMeal inserts a meal with its item breakdown in one transaction,
// assigning an ID when the record has none.
func (s *Store) SaveMeal(ctx context.Context, meal *models.MealRecord) error {
	if meal.ID == "" {
		meal.ID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO meals (id, timestamp, calories, protein_g, carbs_g, fat_g, phe_mg)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		meal.ID, meal.Timestamp.UTC().Format(time.RFC3339),
		meal.Total.Calories, meal.Total.ProteinG, meal.Total.CarbsG,
		meal.Total.FatG, meal.Total.PheMg)
	if err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}

	for _, item := range meal.Items {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO meal_items (meal_id, name, calories, protein_g, carbs_g, fat_g, phe_mg, confirmed)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			meal.ID, item.Name, item.Calories, item.ProteinG,
			item.CarbsG, item.FatG, item.PheMg, boolToInt(item.Confirmed))
		if err != nil {
			return fmt.Errorf("insert meal item: %w", err)
		}
	}

	return tx.Commit()
}

// ListMeals returns meals collected in [from, to], oldest first, with
// their item breakdowns.
func (s *Store) ListMeals(ctx context.Context, from, to time.Time) ([]models.MealRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, timestamp, calories, protein_g, carbs_g, fat_g, phe_mg
        FROM meals
        WHERE timestamp >= ? AND timestamp <= ?
        ORDER BY timestamp ASC`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	var meals []models.MealRecord
	for rows.Next() {
		var meal models.MealRecord
		var timestamp string
		if err := rows.Scan(&meal.ID, &timestamp,
			&meal.Total.Calories, &meal.Total.ProteinG, &meal.Total.CarbsG,
			&meal.Total.FatG, &meal.Total.PheMg); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		if meal.Timestamp, err = time.Parse(time.RFC3339, timestamp); err != nil {
			return nil, fmt.Errorf("parse meal timestamp: %w", err)
		}
		// Timestamps are stored in UTC; calendar bucketing happens in
		// the user's local zone.
		meal.Timestamp = meal.Timestamp.Local()
		meals = append(meals, meal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meals: %w", err)
	}

	for i := range meals {
		if err := s.loadItems(ctx, &meals[i]); err != nil {
			return nil, err
		}
	}
	return meals, nil
}

func (s *Store) loadItems(ctx context.Context, meal *models.MealRecord) error {
	rows, err := s.db.QueryContext(ctx, `
        SELECT name, calories, protein_g, carbs_g, fat_g, phe_mg, confirmed
        FROM meal_items
        WHERE meal_id = ?
        ORDER BY id`, meal.ID)
	if err != nil {
		return fmt.Errorf("query meal items: %w", err)
	}
	defer rows.Close()

	var items []models.FoodItem
	for rows.Next() {
		var item models.FoodItem
		var confirmed int
		if err := rows.Scan(&item.Name, &item.Calories, &item.ProteinG,
			&item.CarbsG, &item.FatG, &item.PheMg, &confirmed); err != nil {
			return fmt.Errorf("scan meal item: %w", err)
		}
		item.Confirmed = confirmed != 0
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate meal items: %w", err)
	}
	meal.Items = items
	return nil
}

// SaveBloodLevel inserts a blood draw, assigning an ID when absent.
func (s *Store) SaveBloodLevel(ctx context.Context, record *models.BloodLevelRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.TargetMin >= record.TargetMax {
		return fmt.Errorf("target range invalid: min %v >= max %v", record.TargetMin, record.TargetMax)
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO blood_levels (id, collected_at, value_umol, target_min, target_max, notes)
        VALUES (?, ?, ?, ?, ?, ?)`,
		record.ID, record.CollectedAt.UTC().Format(time.RFC3339),
		record.ValueUmol, record.TargetMin, record.TargetMax, record.Notes)
	if err != nil {
		return fmt.Errorf("insert blood level: %w", err)
	}
	return nil
}

// ListBloodLevels returns blood draws collected in [from, to], oldest
// first.
func (s *Store) ListBloodLevels(ctx context.Context, from, to time.Time) ([]models.BloodLevelRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, collected_at, value_umol, target_min, target_max, notes
        FROM blood_levels
        WHERE collected_at >= ? AND collected_at <= ?
        ORDER BY collected_at ASC`,
		from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query blood levels: %w", err)
	}
	defer rows.Close()

	var records []models.BloodLevelRecord
	for rows.Next() {
		var record models.BloodLevelRecord
		var collected string
		if err := rows.Scan(&record.ID, &collected, &record.ValueUmol,
			&record.TargetMin, &record.TargetMax, &record.Notes); err != nil {
			return nil, fmt.Errorf("scan blood level: %w", err)
		}
		if record.CollectedAt, err = time.Parse(time.RFC3339, collected); err != nil {
			return nil, fmt.Errorf("parse collected_at: %w", err)
		}
		record.CollectedAt = record.CollectedAt.Local()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blood levels: %w", err)
	}
	return records, nil
}

// UpsertFormulaDay records formula completion for one date, replacing any
// previous entry.
func (s *Store) UpsertFormulaDay(ctx context.Context, day models.FormulaDaySummary) error {
	if day.CompletedSlots < 0 || day.CompletedSlots > day.TotalSlots {
		return fmt.Errorf("completed slots %d out of range 0..%d", day.CompletedSlots, day.TotalSlots)
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO formula_days (date, completed_slots, total_slots)
        VALUES (?, ?, ?)
        ON CONFLICT(date) DO UPDATE SET
            completed_slots = excluded.completed_slots,
            total_slots = excluded.total_slots`,
		day.Date.String(), day.CompletedSlots, day.TotalSlots)
	if err != nil {
		return fmt.Errorf("upsert formula day: %w", err)
	}
	return nil
}

// GetFormulaDay returns the stored summary for a date, or a zero summary
// when none exists.
func (s *Store) GetFormulaDay(ctx context.Context, date models.Date) (models.FormulaDaySummary, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT completed_slots, total_slots FROM formula_days WHERE date = ?`,
		date.String())

	summary := models.FormulaDaySummary{Date: date}
	if err := row.Scan(&summary.CompletedSlots, &summary.TotalSlots); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.FormulaDaySummary{Date: date}, nil
		}
		return models.FormulaDaySummary{}, fmt.Errorf("query formula day: %w", err)
	}
	return summary, nil
}

// ListFormulaDays returns summaries for dates in [from, to], oldest first.
func (s *Store) ListFormulaDays(ctx context.Context, from, to models.Date) ([]models.FormulaDaySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT date, completed_slots, total_slots
        FROM formula_days
        WHERE date >= ? AND date <= ?
        ORDER BY date ASC`,
		from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query formula days: %w", err)
	}
	defer rows.Close()

	var days []models.FormulaDaySummary
	for rows.Next() {
		var day models.FormulaDaySummary
		var date string
		if err := rows.Scan(&date, &day.CompletedSlots, &day.TotalSlots); err != nil {
			return nil, fmt.Errorf("scan formula day: %w", err)
		}
		if day.Date, err = models.ParseDate(date); err != nil {
			return nil, fmt.Errorf("parse formula date: %w", err)
		}
		days = append(days, day)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate formula days: %w", err)
	}
	return days, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
