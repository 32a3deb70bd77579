package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medmind/internal/database"
	"medmind/internal/models"
	"medmind/internal/repository"
)

// CreateProfileRequest represents the request body for creating a profile
type CreateProfileRequest struct {
	Name                    string                          `json:"name"`
	Age                     int                             `json:"age"`
	PhoneNumber             string                          `json:"phone_number"`
	ProfilePhoto            *string                         `json:"profile_photo,omitempty"`
	EmergencyContact        models.Contact                  `json:"emergency_contact"`
	CaregiverContact        models.Contact                  `json:"caregiver_contact"`
	DoctorContact           models.Contact                  `json:"doctor_contact"`
	AppearanceMode          string                          `json:"appearance_mode"`
	ReminderTone            string                          `json:"reminder_tone"`
	NotificationPreferences *models.NotificationPreferences `json:"notification_preferences,omitempty"`
	FitbitConnected         bool                            `json:"fitbit_connected"`
	AppleWatchConnected     bool                            `json:"apple_watch_connected"`
}

// UpdateProfileRequest represents the request body for updating a profile
type UpdateProfileRequest struct {
	Name                    *string                         `json:"name,omitempty"`
	Age                     *int                            `json:"age,omitempty"`
	PhoneNumber             *string                         `json:"phone_number,omitempty"`
	ProfilePhoto            *string                         `json:"profile_photo,omitempty"`
	EmergencyContact        *models.Contact                 `json:"emergency_contact,omitempty"`
	CaregiverContact        *models.Contact                 `json:"caregiver_contact,omitempty"`
	DoctorContact           *models.Contact                 `json:"doctor_contact,omitempty"`
	AppearanceMode          *string                         `json:"appearance_mode,omitempty"`
	ReminderTone            *string                         `json:"reminder_tone,omitempty"`
	NotificationPreferences *models.NotificationPreferences `json:"notification_preferences,omitempty"`
	FitbitConnected         *bool                           `json:"fitbit_connected,omitempty"`
	AppleWatchConnected     *bool                           `json:"apple_watch_connected,omitempty"`
}

// HandleCreateProfile creates a new user profile
func HandleCreateProfile(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if req.Age < 0 {
			http.Error(w, "age must be non-negative", http.StatusBadRequest)
			return
		}

		appearanceMode := req.AppearanceMode
		if appearanceMode == "" {
			appearanceMode = "light"
		}
		if appearanceMode != "light" && appearanceMode != "dark" {
			http.Error(w, "appearance_mode must be light or dark", http.StatusBadRequest)
			return
		}

		reminderTone := req.ReminderTone
		if reminderTone == "" {
			reminderTone = "default"
		}

		prefs := models.NotificationPreferences{Push: true}
		if req.NotificationPreferences != nil {
			prefs = *req.NotificationPreferences
		}

		profile := &models.UserProfile{
			Name:                    req.Name,
			Age:                     req.Age,
			PhoneNumber:             req.PhoneNumber,
			ProfilePhoto:            req.ProfilePhoto,
			EmergencyContact:        req.EmergencyContact,
			CaregiverContact:        req.CaregiverContact,
			DoctorContact:           req.DoctorContact,
			AppearanceMode:          appearanceMode,
			ReminderTone:            reminderTone,
			NotificationPreferences: prefs,
			FitbitConnected:         req.FitbitConnected,
			AppleWatchConnected:     req.AppleWatchConnected,
		}

		profileRepo := repository.NewProfileRepository(db)
		if err := profileRepo.Create(profile); err != nil {
			http.Error(w, "Failed to create profile", http.StatusInternalServerError)
			return
		}

		created, err := profileRepo.GetByID(profile.ID)
		if err != nil {
			http.Error(w, "Failed to retrieve created profile", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// HandleGetProfile returns a single profile by user ID
func HandleGetProfile(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		profileRepo := repository.NewProfileRepository(db)
		profile, err := profileRepo.GetByID(userID)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve profile", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

// HandleListProfiles returns all profiles
func HandleListProfiles(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profileRepo := repository.NewProfileRepository(db)
		profiles, err := profileRepo.List()
		if err != nil {
			http.Error(w, "Failed to list profiles", http.StatusInternalServerError)
			return
		}

		if profiles == nil {
			profiles = []*models.UserProfile{}
		}
		writeJSON(w, http.StatusOK, profiles)
	}
}

// HandleUpdateProfile applies a partial update to a profile
func HandleUpdateProfile(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		profileRepo := repository.NewProfileRepository(db)
		profile, err := profileRepo.GetByID(userID)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve profile", http.StatusInternalServerError)
			return
		}

		if req.Name != nil {
			profile.Name = *req.Name
		}
		if req.Age != nil {
			if *req.Age < 0 {
				http.Error(w, "age must be non-negative", http.StatusBadRequest)
				return
			}
			profile.Age = *req.Age
		}
		if req.PhoneNumber != nil {
			profile.PhoneNumber = *req.PhoneNumber
		}
		if req.ProfilePhoto != nil {
			profile.ProfilePhoto = req.ProfilePhoto
		}
		if req.EmergencyContact != nil {
			profile.EmergencyContact = *req.EmergencyContact
		}
		if req.CaregiverContact != nil {
			profile.CaregiverContact = *req.CaregiverContact
		}
		if req.DoctorContact != nil {
			profile.DoctorContact = *req.DoctorContact
		}
		if req.AppearanceMode != nil {
			if *req.AppearanceMode != "light" && *req.AppearanceMode != "dark" {
				http.Error(w, "appearance_mode must be light or dark", http.StatusBadRequest)
				return
			}
			profile.AppearanceMode = *req.AppearanceMode
		}
		if req.ReminderTone != nil {
			profile.ReminderTone = *req.ReminderTone
		}
		if req.NotificationPreferences != nil {
			profile.NotificationPreferences = *req.NotificationPreferences
		}
		if req.FitbitConnected != nil {
			profile.FitbitConnected = *req.FitbitConnected
		}
		if req.AppleWatchConnected != nil {
			profile.AppleWatchConnected = *req.AppleWatchConnected
		}

		if err := profileRepo.Update(profile); err != nil {
			http.Error(w, "Failed to update profile", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, profile)
	}
}

// HandleCompleteOnboarding marks a profile's onboarding as finished
func HandleCompleteOnboarding(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		profileRepo := repository.NewProfileRepository(db)
		if err := profileRepo.CompleteOnboarding(userID); err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to complete onboarding", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Onboarding completed successfully"})
	}
}
