package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medmind/internal/database"
	"medmind/internal/models"
)

type JournalRepository struct {
	db *database.DB
}

func NewJournalRepository(db *database.DB) *JournalRepository {
	return &JournalRepository{db: db}
}

// Create creates a new journal entry
func (r *JournalRepository) Create(entry *models.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	symptoms, err := marshalStringList(entry.Symptoms)
	if err != nil {
		return fmt.Errorf("failed to encode symptoms: %w", err)
	}
	sideEffects, err := marshalStringList(entry.SideEffects)
	if err != nil {
		return fmt.Errorf("failed to encode side effects: %w", err)
	}

	query := `
		INSERT INTO journal_entries (
			id, user_id, entry_date, symptoms, notes, mood_rating,
			side_effects, caregiver_alerted, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`
	_, err = r.db.Exec(query,
		entry.ID,
		entry.UserID,
		entry.EntryDate.Format("2006-01-02"),
		symptoms,
		entry.Notes,
		entry.MoodRating,
		sideEffects,
		entry.CaregiverAlerted,
	)
	if err != nil {
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByID retrieves a journal entry by ID
func (r *JournalRepository) GetByID(id string) (*models.JournalEntry, error) {
	query := selectJournalColumns + ` WHERE id = ?`

	entry, err := scanJournalEntry(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return entry, nil
}

// GetByDate retrieves a user's journal entry for one calendar day
func (r *JournalRepository) GetByDate(userID string, date time.Time) (*models.JournalEntry, error) {
	query := selectJournalColumns + ` WHERE user_id = ? AND entry_date = ?`

	entry, err := scanJournalEntry(r.db.QueryRow(query, userID, date.Format("2006-01-02")))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get journal entry by date: %w", err)
	}

	return entry, nil
}

// ListByUser returns all of a user's journal entries, newest first
func (r *JournalRepository) ListByUser(userID string) ([]*models.JournalEntry, error) {
	query := selectJournalColumns + ` WHERE user_id = ? ORDER BY entry_date DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}
	defer rows.Close()

	return scanJournalEntries(rows)
}

// ListByRange returns a user's journal entries within [start, end], newest
// first
func (r *JournalRepository) ListByRange(userID string, start, end time.Time) ([]*models.JournalEntry, error) {
	query := selectJournalColumns + `
		WHERE user_id = ? AND entry_date BETWEEN ? AND ?
		ORDER BY entry_date DESC`

	rows, err := r.db.Query(query, userID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to list journal entries by range: %w", err)
	}
	defer rows.Close()

	return scanJournalEntries(rows)
}

// Update updates a journal entry's mutable fields and bumps updated_at
func (r *JournalRepository) Update(entry *models.JournalEntry) error {
	symptoms, err := marshalStringList(entry.Symptoms)
	if err != nil {
		return fmt.Errorf("failed to encode symptoms: %w", err)
	}
	sideEffects, err := marshalStringList(entry.SideEffects)
	if err != nil {
		return fmt.Errorf("failed to encode side effects: %w", err)
	}

	query := `
		UPDATE journal_entries
		SET symptoms = ?, notes = ?, mood_rating = ?, side_effects = ?,
		    caregiver_alerted = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		symptoms,
		entry.Notes,
		entry.MoodRating,
		sideEffects,
		entry.CaregiverAlerted,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update journal entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectJournalColumns = `
	SELECT id, user_id, entry_date, symptoms, notes, mood_rating,
	       side_effects, caregiver_alerted, created_at, updated_at
	FROM journal_entries`

func scanJournalEntry(row rowScanner) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	var symptoms, sideEffects string
	var moodRating sql.NullInt64

	// entry_date is a DATE column, so the driver hands back a time.Time
	err := row.Scan(
		&entry.ID,
		&entry.UserID,
		&entry.EntryDate,
		&symptoms,
		&entry.Notes,
		&moodRating,
		&sideEffects,
		&entry.CaregiverAlerted,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(symptoms), &entry.Symptoms); err != nil {
		return nil, fmt.Errorf("invalid symptoms document on journal entry %s: %w", entry.ID, err)
	}
	if err := json.Unmarshal([]byte(sideEffects), &entry.SideEffects); err != nil {
		return nil, fmt.Errorf("invalid side_effects document on journal entry %s: %w", entry.ID, err)
	}
	if entry.Symptoms == nil {
		entry.Symptoms = []string{}
	}
	if entry.SideEffects == nil {
		entry.SideEffects = []string{}
	}
	if moodRating.Valid {
		rating := int(moodRating.Int64)
		entry.MoodRating = &rating
	}

	return &entry, nil
}

func scanJournalEntries(rows *sql.Rows) ([]*models.JournalEntry, error) {
	var entries []*models.JournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
