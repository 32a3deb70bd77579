package repository

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"medmind/internal/database"
	"medmind/internal/models"
)

type ProfileRepository struct {
	db *database.DB
}

func NewProfileRepository(db *database.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create creates a new user profile. A fresh UUID is assigned unless the
// caller supplied one.
func (r *ProfileRepository) Create(profile *models.UserProfile) error {
	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}

	query := `
		INSERT INTO user_profiles (
			id, name, age, phone_number, profile_photo,
			emergency_contact_name, emergency_contact_phone,
			caregiver_contact_name, caregiver_contact_phone,
			doctor_contact_name, doctor_contact_phone,
			appearance_mode, reminder_tone,
			notify_sms, notify_push, notify_email,
			fitbit_connected, apple_watch_connected, onboarding_completed,
			created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	_, err := r.db.Exec(query,
		profile.ID,
		profile.Name,
		profile.Age,
		profile.PhoneNumber,
		profile.ProfilePhoto,
		profile.EmergencyContact.Name,
		profile.EmergencyContact.Phone,
		profile.CaregiverContact.Name,
		profile.CaregiverContact.Phone,
		profile.DoctorContact.Name,
		profile.DoctorContact.Phone,
		profile.AppearanceMode,
		profile.ReminderTone,
		profile.NotificationPreferences.SMS,
		profile.NotificationPreferences.Push,
		profile.NotificationPreferences.Email,
		profile.FitbitConnected,
		profile.AppleWatchConnected,
		profile.OnboardingCompleted,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(id string) (*models.UserProfile, error) {
	query := selectProfileColumns + ` WHERE id = ?`

	profile, err := scanProfile(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return profile, nil
}

// List retrieves all profiles ordered by creation time
func (r *ProfileRepository) List() ([]*models.UserProfile, error) {
	query := selectProfileColumns + ` ORDER BY created_at`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.UserProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	return profiles, rows.Err()
}

// Update overwrites all mutable fields of a profile
func (r *ProfileRepository) Update(profile *models.UserProfile) error {
	query := `
		UPDATE user_profiles
		SET name = ?, age = ?, phone_number = ?, profile_photo = ?,
		    emergency_contact_name = ?, emergency_contact_phone = ?,
		    caregiver_contact_name = ?, caregiver_contact_phone = ?,
		    doctor_contact_name = ?, doctor_contact_phone = ?,
		    appearance_mode = ?, reminder_tone = ?,
		    notify_sms = ?, notify_push = ?, notify_email = ?,
		    fitbit_connected = ?, apple_watch_connected = ?
		WHERE id = ?
	`
	result, err := r.db.Exec(query,
		profile.Name,
		profile.Age,
		profile.PhoneNumber,
		profile.ProfilePhoto,
		profile.EmergencyContact.Name,
		profile.EmergencyContact.Phone,
		profile.CaregiverContact.Name,
		profile.CaregiverContact.Phone,
		profile.DoctorContact.Name,
		profile.DoctorContact.Phone,
		profile.AppearanceMode,
		profile.ReminderTone,
		profile.NotificationPreferences.SMS,
		profile.NotificationPreferences.Push,
		profile.NotificationPreferences.Email,
		profile.FitbitConnected,
		profile.AppleWatchConnected,
		profile.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
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

// CompleteOnboarding marks a profile's onboarding as finished
func (r *ProfileRepository) CompleteOnboarding(id string) error {
	result, err := r.db.Exec(`UPDATE user_profiles SET onboarding_completed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to complete onboarding: %w", err)
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

const selectProfileColumns = `
	SELECT id, name, age, phone_number, profile_photo,
	       emergency_contact_name, emergency_contact_phone,
	       caregiver_contact_name, caregiver_contact_phone,
	       doctor_contact_name, doctor_contact_phone,
	       appearance_mode, reminder_tone,
	       notify_sms, notify_push, notify_email,
	       fitbit_connected, apple_watch_connected, onboarding_completed,
	       created_at
	FROM user_profiles`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	var profile models.UserProfile
	var photo sql.NullString

	err := row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Age,
		&profile.PhoneNumber,
		&photo,
		&profile.EmergencyContact.Name,
		&profile.EmergencyContact.Phone,
		&profile.CaregiverContact.Name,
		&profile.CaregiverContact.Phone,
		&profile.DoctorContact.Name,
		&profile.DoctorContact.Phone,
		&profile.AppearanceMode,
		&profile.ReminderTone,
		&profile.NotificationPreferences.SMS,
		&profile.NotificationPreferences.Push,
		&profile.NotificationPreferences.Email,
		&profile.FitbitConnected,
		&profile.AppleWatchConnected,
		&profile.OnboardingCompleted,
		&profile.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if photo.Valid {
		profile.ProfilePhoto = &photo.String
	}
	return &profile, nil
}
