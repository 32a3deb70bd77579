package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medmind/internal/database"
	"medmind/internal/models"
	"medmind/internal/repository"
)

// CreateMedicationRequest represents the request body for creating a medication
type CreateMedicationRequest struct {
	UserID            string   `json:"user_id"`
	Name              string   `json:"name"`
	Dosage            string   `json:"dosage"`
	Frequency         string   `json:"frequency"`
	TimeSlots         []string `json:"time_slots"`
	TotalPills        int      `json:"total_pills"`
	RefillInfo        *string  `json:"refill_info,omitempty"`
	PrescriptionImage *string  `json:"prescription_image,omitempty"`
}

// UpdateMedicationRequest represents the request body for updating a medication
type UpdateMedicationRequest struct {
	Name           *string  `json:"name,omitempty"`
	Dosage         *string  `json:"dosage,omitempty"`
	Frequency      *string  `json:"frequency,omitempty"`
	TimeSlots      []string `json:"time_slots,omitempty"`
	RemainingPills *int     `json:"remaining_pills,omitempty"`
	RefillInfo     *string  `json:"refill_info,omitempty"`
	IsActive       *bool    `json:"is_active,omitempty"`
}

// HandleCreateMedication creates a new medication for a user
func HandleCreateMedication(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if req.TotalPills < 0 {
			http.Error(w, "total_pills must be non-negative", http.StatusBadRequest)
			return
		}
		for _, slot := range req.TimeSlots {
			if !validTimeSlot(slot) {
				http.Error(w, fmt.Sprintf("invalid time slot %q, use HH:MM", slot), http.StatusBadRequest)
				return
			}
		}

		// The owning profile must exist; dose logs and dashboards key off it
		profileRepo := repository.NewProfileRepository(db)
		if _, err := profileRepo.GetByID(req.UserID); err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve profile", http.StatusInternalServerError)
			return
		}

		medication := &models.Medication{
			UserID:            req.UserID,
			Name:              req.Name,
			Dosage:            req.Dosage,
			Frequency:         req.Frequency,
			TimeSlots:         req.TimeSlots,
			TotalPills:        req.TotalPills,
			RefillInfo:        req.RefillInfo,
			PrescriptionImage: req.PrescriptionImage,
			IsActive:          true,
		}

		medicationRepo := repository.NewMedicationRepository(db)
		if err := medicationRepo.Create(medication); err != nil {
			http.Error(w, "Failed to create medication", http.StatusInternalServerError)
			return
		}

		created, err := medicationRepo.GetByID(medication.ID)
		if err != nil {
			http.Error(w, "Failed to retrieve created medication", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// HandleGetUserMedications returns a user's active medications
func HandleGetUserMedications(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		medicationRepo := repository.NewMedicationRepository(db)

		var medications []*models.Medication
		var err error
		if r.URL.Query().Get("filter") == "all" {
			medications, err = medicationRepo.List(userID)
		} else {
			medications, err = medicationRepo.ListActive(userID)
		}
		if err != nil {
			http.Error(w, "Failed to retrieve medications", http.StatusInternalServerError)
			return
		}

		if medications == nil {
			medications = []*models.Medication{}
		}
		writeJSON(w, http.StatusOK, medications)
	}
}

// HandleUpdateMedication applies a partial update to a medication
func HandleUpdateMedication(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medicationID := chi.URLParam(r, "medicationID")

		var req UpdateMedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		medicationRepo := repository.NewMedicationRepository(db)
		medication, err := medicationRepo.GetByID(medicationID)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Medication not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve medication", http.StatusInternalServerError)
			return
		}

		if req.Name != nil {
			medication.Name = *req.Name
		}
		if req.Dosage != nil {
			medication.Dosage = *req.Dosage
		}
		if req.Frequency != nil {
			medication.Frequency = *req.Frequency
		}
		if req.TimeSlots != nil {
			for _, slot := range req.TimeSlots {
				if !validTimeSlot(slot) {
					http.Error(w, fmt.Sprintf("invalid time slot %q, use HH:MM", slot), http.StatusBadRequest)
					return
				}
			}
			medication.TimeSlots = req.TimeSlots
		}
		if req.RemainingPills != nil {
			if *req.RemainingPills < 0 {
				http.Error(w, "remaining_pills must be non-negative", http.StatusBadRequest)
				return
			}
			medication.RemainingPills = *req.RemainingPills
		}
		if req.RefillInfo != nil {
			medication.RefillInfo = req.RefillInfo
		}
		if req.IsActive != nil {
			medication.IsActive = *req.IsActive
		}

		if err := medicationRepo.Update(medication); err != nil {
			http.Error(w, "Failed to update medication", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, medication)
	}
}

// HandleDeleteMedication soft-deletes a medication. The row survives so log
// history keeps a valid medication reference.
func HandleDeleteMedication(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		medicationID := chi.URLParam(r, "medicationID")

		medicationRepo := repository.NewMedicationRepository(db)
		if err := medicationRepo.Deactivate(medicationID); err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Medication not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to delete medication", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Medication deleted successfully"})
	}
}
