package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"medmind/internal/database"
	"medmind/internal/models"
)

// DoseLogRepository is the dose ledger: it records scheduled dose events and
// serves the per-day reads the adherence aggregator folds over. All queries
// are scoped by user_id so a log can never leak across users regardless of
// what IDs a caller passes in.
type DoseLogRepository struct {
	db *database.DB
}

func NewDoseLogRepository(db *database.DB) *DoseLogRepository {
	return &DoseLogRepository{db: db}
}

// Create creates a new dose log entry
func (r *DoseLogRepository) Create(log *models.DoseLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.Status == "" {
		log.Status = models.DoseStatusPending
	}
	if !log.Status.Valid() {
		return fmt.Errorf("invalid dose status %q", log.Status)
	}

	query := `
		INSERT INTO dose_logs (
			id, user_id, medication_id, scheduled_time, taken_at, status,
			verification_photo, notes, caregiver_notified, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err := r.db.Exec(query,
		log.ID,
		log.UserID,
		log.MedicationID,
		log.ScheduledTime,
		nullTime(log.TakenAt),
		string(log.Status),
		log.VerificationPhoto,
		log.Notes,
		log.CaregiverNotified,
	)
	if err != nil {
		return fmt.Errorf("failed to create dose log: %w", err)
	}

	return nil
}

// GetByID retrieves a dose log by ID
func (r *DoseLogRepository) GetByID(id string) (*models.DoseLog, error) {
	query := selectDoseLogColumns + ` WHERE id = ?`

	log, err := scanDoseLog(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dose log: %w", err)
	}

	return log, nil
}

// Update updates a dose log's mutable fields
func (r *DoseLogRepository) Update(log *models.DoseLog) error {
	if !log.Status.Valid() {
		return fmt.Errorf("invalid dose status %q", log.Status)
	}

	query := `
		UPDATE dose_logs
		SET taken_at = ?, status = ?, verification_photo = ?, notes = ?, caregiver_notified = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		nullTime(log.TakenAt),
		string(log.Status),
		log.VerificationPhoto,
		log.Notes,
		log.CaregiverNotified,
		log.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dose log: %w", err)
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

// MarkTaken transitions a log to taken and stamps taken_at. Taken and missed
// are terminal, so already-terminal logs are left untouched and reported as
// not found.
func (r *DoseLogRepository) MarkTaken(id string, takenAt time.Time, verificationPhoto *string) error {
	query := `
		UPDATE dose_logs
		SET status = ?, taken_at = ?,
		    verification_photo = COALESCE(?, verification_photo)
		WHERE id = ? AND status IN (?, ?)
	`
	result, err := r.db.Exec(query,
		string(models.DoseStatusTaken),
		takenAt,
		verificationPhoto,
		id,
		string(models.DoseStatusPending),
		string(models.DoseStatusCurrent),
	)
	if err != nil {
		return fmt.Errorf("failed to mark dose taken: %w", err)
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

// DayLogs returns one user's dose logs whose scheduled time falls inside the
// inclusive [dayStart, dayEnd] window, in ascending scheduled order. The
// boundaries are taken as given: callers localize them to the day boundary
// they care about, no timezone conversion happens here. A user with no logs
// (or no rows at all) yields an empty result, not an error.
func (r *DoseLogRepository) DayLogs(ctx context.Context, userID string, dayStart, dayEnd time.Time) ([]*models.DoseLog, error) {
	query := selectDoseLogColumns + `
		WHERE user_id = ? AND scheduled_time BETWEEN ? AND ?
		ORDER BY scheduled_time ASC`

	rows, err := r.db.QueryContext(ctx, query, userID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to get day logs: %w", err)
	}
	defer rows.Close()

	return scanDoseLogs(rows)
}

// ListByRange returns a user's dose logs in [start, end], most recent first
// (display order)
func (r *DoseLogRepository) ListByRange(ctx context.Context, userID string, start, end time.Time) ([]*models.DoseLog, error) {
	query := selectDoseLogColumns + `
		WHERE user_id = ? AND scheduled_time BETWEEN ? AND ?
		ORDER BY scheduled_time DESC`

	rows, err := r.db.QueryContext(ctx, query, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list dose logs by range: %w", err)
	}
	defer rows.Close()

	return scanDoseLogs(rows)
}

// ListByUser returns all of a user's dose logs, most recent first
func (r *DoseLogRepository) ListByUser(ctx context.Context, userID string) ([]*models.DoseLog, error) {
	query := selectDoseLogColumns + `
		WHERE user_id = ?
		ORDER BY scheduled_time DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list dose logs: %w", err)
	}
	defer rows.Close()

	return scanDoseLogs(rows)
}

// MarkOverdueMissed flips pending and current logs scheduled before the
// cutoff to missed. Returns the number of logs swept.
func (r *DoseLogRepository) MarkOverdueMissed(cutoff time.Time) (int64, error) {
	query := `
		UPDATE dose_logs
		SET status = ?
		WHERE status IN (?, ?) AND scheduled_time < ?
	`
	result, err := r.db.Exec(query,
		string(models.DoseStatusMissed),
		string(models.DoseStatusPending),
		string(models.DoseStatusCurrent),
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue doses missed: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

const selectDoseLogColumns = `
	SELECT id, user_id, medication_id, scheduled_time, taken_at, status,
	       verification_photo, notes, caregiver_notified, created_at
	FROM dose_logs`

func scanDoseLog(row rowScanner) (*models.DoseLog, error) {
	var log models.DoseLog
	var takenAt sql.NullTime
	var status string
	var photo, notes sql.NullString

	err := row.Scan(
		&log.ID,
		&log.UserID,
		&log.MedicationID,
		&log.ScheduledTime,
		&takenAt,
		&status,
		&photo,
		&notes,
		&log.CaregiverNotified,
		&log.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	log.Status = models.DoseStatus(status)
	if !log.Status.Valid() {
		// A row with an unknown status is a data-integrity bug; fail loudly
		// instead of handing back a half-populated record.
		return nil, fmt.Errorf("invalid dose status %q on log %s", status, log.ID)
	}
	if takenAt.Valid {
		log.TakenAt = &takenAt.Time
	}
	if photo.Valid {
		log.VerificationPhoto = &photo.String
	}
	if notes.Valid {
		log.Notes = &notes.String
	}

	return &log, nil
}

func scanDoseLogs(rows *sql.Rows) ([]*models.DoseLog, error) {
	logs := []*models.DoseLog{}
	for rows.Next() {
		log, err := scanDoseLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dose log: %w", err)
		}
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
