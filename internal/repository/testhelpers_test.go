package repository

import (
	"path/filepath"
	"testing"

	"medmind/internal/database"
	"medmind/internal/models"
)

const testSchema = `
	CREATE TABLE user_profiles (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		age INTEGER NOT NULL CHECK(age >= 0),
		phone_number TEXT NOT NULL,
		profile_photo TEXT,
		emergency_contact_name TEXT NOT NULL DEFAULT '',
		emergency_contact_phone TEXT NOT NULL DEFAULT '',
		caregiver_contact_name TEXT NOT NULL DEFAULT '',
		caregiver_contact_phone TEXT NOT NULL DEFAULT '',
		doctor_contact_name TEXT NOT NULL DEFAULT '',
		doctor_contact_phone TEXT NOT NULL DEFAULT '',
		appearance_mode TEXT NOT NULL DEFAULT 'light' CHECK(appearance_mode IN ('light', 'dark')),
		reminder_tone TEXT NOT NULL DEFAULT 'default',
		notify_sms BOOLEAN NOT NULL DEFAULT 0,
		notify_push BOOLEAN NOT NULL DEFAULT 1,
		notify_email BOOLEAN NOT NULL DEFAULT 0,
		fitbit_connected BOOLEAN NOT NULL DEFAULT 0,
		apple_watch_connected BOOLEAN NOT NULL DEFAULT 0,
		onboarding_completed BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE medications (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		dosage TEXT NOT NULL DEFAULT '',
		frequency TEXT NOT NULL DEFAULT '',
		time_slots TEXT NOT NULL DEFAULT '[]',
		total_pills INTEGER NOT NULL DEFAULT 0 CHECK(total_pills >= 0),
		remaining_pills INTEGER NOT NULL DEFAULT 0 CHECK(remaining_pills >= 0),
		refill_info TEXT,
		prescription_image TEXT,
		is_active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX idx_medications_user ON medications(user_id, is_active);

	CREATE TABLE dose_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
		medication_id TEXT NOT NULL REFERENCES medications(id) ON DELETE CASCADE,
		scheduled_time TIMESTAMP NOT NULL,
		taken_at TIMESTAMP,
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'taken', 'missed', 'current')),
		verification_photo TEXT,
		notes TEXT,
		caregiver_notified BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX idx_dose_logs_user_time ON dose_logs(user_id, scheduled_time);

	CREATE TABLE journal_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES user_profiles(id) ON DELETE CASCADE,
		entry_date DATE NOT NULL,
		symptoms TEXT NOT NULL DEFAULT '[]',
		notes TEXT NOT NULL DEFAULT '',
		mood_rating INTEGER CHECK(mood_rating BETWEEN 1 AND 10),
		side_effects TEXT NOT NULL DEFAULT '[]',
		caregiver_alerted BOOLEAN NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX idx_journal_user_date ON journal_entries(user_id, entry_date);
`

func setupTestDB(t *testing.T) *database.DB {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := database.Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return db
}

func createTestProfile(t *testing.T, db *database.DB, name string) *models.UserProfile {
	t.Helper()

	profile := &models.UserProfile{
		Name:           name,
		Age:            72,
		PhoneNumber:    "555-0100",
		AppearanceMode: "light",
		ReminderTone:   "default",
		NotificationPreferences: models.NotificationPreferences{
			Push: true,
		},
	}
	if err := NewProfileRepository(db).Create(profile); err != nil {
		t.Fatalf("Failed to create test profile: %v", err)
	}
	return profile
}

func createTestMedication(t *testing.T, db *database.DB, userID, name string, totalPills int) *models.Medication {
	t.Helper()

	medication := &models.Medication{
		UserID:     userID,
		Name:       name,
		Dosage:     "10mg",
		Frequency:  "twice daily",
		TimeSlots:  []string{"08:00", "20:00"},
		TotalPills: totalPills,
		IsActive:   true,
	}
	if err := NewMedicationRepository(db).Create(medication); err != nil {
		t.Fatalf("Failed to create test medication: %v", err)
	}
	return medication
}
