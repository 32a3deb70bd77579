package models

import (
	"time"
)

// Contact holds a name/phone pair for an emergency, caregiver, or doctor contact
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// NotificationPreferences controls which channels a user is notified on
type NotificationPreferences struct {
	SMS   bool `json:"sms"`
	Push  bool `json:"push"`
	Email bool `json:"email"`
}

// UserProfile represents a patient profile
type UserProfile struct {
	ID                      string                  `json:"id"`
	Name                    string                  `json:"name"`
	Age                     int                     `json:"age"`
	PhoneNumber             string                  `json:"phone_number"`
	ProfilePhoto            *string                 `json:"profile_photo,omitempty"` // base64 encoded
	EmergencyContact        Contact                 `json:"emergency_contact"`
	CaregiverContact        Contact                 `json:"caregiver_contact"`
	DoctorContact           Contact                 `json:"doctor_contact"`
	AppearanceMode          string                  `json:"appearance_mode"` // "light" or "dark"
	ReminderTone            string                  `json:"reminder_tone"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences"`
	FitbitConnected         bool                    `json:"fitbit_connected"`
	AppleWatchConnected     bool                    `json:"apple_watch_connected"`
	OnboardingCompleted     bool                    `json:"onboarding_completed"`
	CreatedAt               time.Time               `json:"created_at"`
}

// Medication represents a prescribed drug for one user.
// Deleting a medication flips IsActive to false; rows are never removed, so
// dose log history stays referentially intact.
type Medication struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	Dosage            string    `json:"dosage"`
	Frequency         string    `json:"frequency"`  // e.g. "twice daily", "every 8 hours"
	TimeSlots         []string  `json:"time_slots"` // HH:MM wall-clock times, daily recurring
	TotalPills        int       `json:"total_pills"`
	RemainingPills    int       `json:"remaining_pills"`
	RefillInfo        *string   `json:"refill_info,omitempty"`
	PrescriptionImage *string   `json:"prescription_image,omitempty"` // base64
	IsActive          bool      `json:"is_active"`
	CreatedAt         time.Time `json:"created_at"`
}

// PillsTaken returns the consumed pill count for this medication. The result
// is not clamped: a negative value means remaining_pills drifted above
// total_pills upstream, and callers that need a hardened number clamp it
// themselves.
func (m *Medication) PillsTaken() int {
	return m.TotalPills - m.RemainingPills
}

// DoseStatus is the lifecycle state of a dose log
type DoseStatus string

const (
	DoseStatusPending DoseStatus = "pending"
	DoseStatusTaken   DoseStatus = "taken"
	DoseStatusMissed  DoseStatus = "missed"
	// DoseStatusCurrent is a display alias for a pending dose that is due
	// right now; it transitions exactly like pending.
	DoseStatusCurrent DoseStatus = "current"
)

// Valid reports whether s is one of the known dose statuses
func (s DoseStatus) Valid() bool {
	switch s {
	case DoseStatusPending, DoseStatusTaken, DoseStatusMissed, DoseStatusCurrent:
		return true
	}
	return false
}

// Terminal reports whether no further transition leaves s
func (s DoseStatus) Terminal() bool {
	return s == DoseStatusTaken || s == DoseStatusMissed
}

// DoseLog represents one scheduled-or-taken dose event.
// Invariant: TakenAt is set if and only if Status is taken.
type DoseLog struct {
	ID                string     `json:"id"`
	UserID            string     `json:"user_id"`
	MedicationID      string     `json:"medication_id"`
	ScheduledTime     time.Time  `json:"scheduled_time"`
	TakenAt           *time.Time `json:"taken_at,omitempty"`
	Status            DoseStatus `json:"status"`
	VerificationPhoto *string    `json:"verification_photo,omitempty"` // base64
	Notes             *string    `json:"notes,omitempty"`
	CaregiverNotified bool       `json:"caregiver_notified"`
	CreatedAt         time.Time  `json:"created_at"`
}

// DateStr returns the date part of the scheduled time
func (d *DoseLog) DateStr() string {
	return d.ScheduledTime.Format("2006-01-02")
}

// TimeStr returns the time part of the scheduled time
func (d *DoseLog) TimeStr() string {
	return d.ScheduledTime.Format("15:04")
}

// JournalEntry represents one health journal entry
type JournalEntry struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	EntryDate        time.Time `json:"date"`
	Symptoms         []string  `json:"symptoms"`
	Notes            string    `json:"notes"`
	MoodRating       *int      `json:"mood_rating,omitempty"` // 1-10
	SideEffects      []string  `json:"side_effects"`
	CaregiverAlerted bool      `json:"caregiver_alerted"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
