package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"medmind/internal/database"
	"medmind/internal/models"
)

type MedicationRepository struct {
	db *database.DB
}

func NewMedicationRepository(db *database.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

// Create creates a new medication. RemainingPills starts at TotalPills.
func (r *MedicationRepository) Create(medication *models.Medication) error {
	if medication.ID == "" {
		medication.ID = uuid.NewString()
	}
	medication.RemainingPills = medication.TotalPills

	slots, err := marshalStringList(medication.TimeSlots)
	if err != nil {
		return fmt.Errorf("failed to encode time slots: %w", err)
	}

	query := `
		INSERT INTO medications (
			id, user_id, name, dosage, frequency, time_slots,
			total_pills, remaining_pills, refill_info, prescription_image,
			is_active, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err = r.db.Exec(query,
		medication.ID,
		medication.UserID,
		medication.Name,
		medication.Dosage,
		medication.Frequency,
		slots,
		medication.TotalPills,
		medication.RemainingPills,
		medication.RefillInfo,
		medication.PrescriptionImage,
		medication.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}

	return nil
}

// GetByID retrieves a medication by ID
func (r *MedicationRepository) GetByID(id string) (*models.Medication, error) {
	query := selectMedicationColumns + ` WHERE id = ?`

	medication, err := scanMedication(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	return medication, nil
}

// ListActive retrieves a user's active medications
func (r *MedicationRepository) ListActive(userID string) ([]*models.Medication, error) {
	query := selectMedicationColumns + ` WHERE user_id = ? AND is_active = 1 ORDER BY name`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active medications: %w", err)
	}
	defer rows.Close()

	return scanMedications(rows)
}

// List retrieves all of a user's medications, active or not
func (r *MedicationRepository) List(userID string) ([]*models.Medication, error) {
	query := selectMedicationColumns + ` WHERE user_id = ? ORDER BY name`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	defer rows.Close()

	return scanMedications(rows)
}

// Update updates a medication's mutable fields
func (r *MedicationRepository) Update(medication *models.Medication) error {
	slots, err := marshalStringList(medication.TimeSlots)
	if err != nil {
		return fmt.Errorf("failed to encode time slots: %w", err)
	}

	query := `
		UPDATE medications
		SET name = ?, dosage = ?, frequency = ?, time_slots = ?,
		    remaining_pills = ?, refill_info = ?, is_active = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		medication.Name,
		medication.Dosage,
		medication.Frequency,
		slots,
		medication.RemainingPills,
		medication.RefillInfo,
		medication.IsActive,
		medication.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
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

// Deactivate soft-deletes a medication by setting is_active to false.
// Rows are never physically removed so dose logs keep a valid reference.
func (r *MedicationRepository) Deactivate(id string) error {
	result, err := r.db.Exec(`UPDATE medications SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate medication: %w", err)
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

// DecrementRemaining reduces remaining_pills by one, never below zero
func (r *MedicationRepository) DecrementRemaining(id string) error {
	query := `
		UPDATE medications
		SET remaining_pills = remaining_pills - 1
		WHERE id = ? AND remaining_pills > 0
	`
	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to decrement remaining pills: %w", err)
	}
	return nil
}

const selectMedicationColumns = `
	SELECT id, user_id, name, dosage, frequency, time_slots,
	       total_pills, remaining_pills, refill_info, prescription_image,
	       is_active, created_at
	FROM medications`

func scanMedication(row rowScanner) (*models.Medication, error) {
	var medication models.Medication
	var slots string
	var refillInfo, prescriptionImage sql.NullString

	err := row.Scan(
		&medication.ID,
		&medication.UserID,
		&medication.Name,
		&medication.Dosage,
		&medication.Frequency,
		&slots,
		&medication.TotalPills,
		&medication.RemainingPills,
		&refillInfo,
		&prescriptionImage,
		&medication.IsActive,
		&medication.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(slots), &medication.TimeSlots); err != nil {
		return nil, fmt.Errorf("invalid time_slots document for medication %s: %w", medication.ID, err)
	}
	if medication.TimeSlots == nil {
		medication.TimeSlots = []string{}
	}
	if refillInfo.Valid {
		medication.RefillInfo = &refillInfo.String
	}
	if prescriptionImage.Valid {
		medication.PrescriptionImage = &prescriptionImage.String
	}

	return &medication, nil
}

func scanMedications(rows *sql.Rows) ([]*models.Medication, error) {
	var medications []*models.Medication
	for rows.Next() {
		medication, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}
		medications = append(medications, medication)
	}

	return medications, rows.Err()
}

// marshalStringList encodes a string slice as a JSON array, treating nil as
// empty
func marshalStringList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
