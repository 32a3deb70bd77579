package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"medmind/internal/database"
	"medmind/internal/models"
	"medmind/internal/repository"
)

// CreateDoseLogRequest represents the request body for creating a dose log
type CreateDoseLogRequest struct {
	UserID        string  `json:"user_id"`
	MedicationID  string  `json:"medication_id"`
	ScheduledTime string  `json:"scheduled_time"` // RFC3339
	Status        *string `json:"status,omitempty"`
	Notes         *string `json:"notes,omitempty"`
}

// UpdateDoseLogRequest represents the request body for updating a dose log
type UpdateDoseLogRequest struct {
	TakenAt           *string `json:"taken_at,omitempty"` // RFC3339
	Status            *string `json:"status,omitempty"`
	VerificationPhoto *string `json:"verification_photo,omitempty"`
	Notes             *string `json:"notes,omitempty"`
}

// MarkTakenRequest represents the request body for marking a dose taken
type MarkTakenRequest struct {
	VerificationPhoto *string `json:"verification_photo,omitempty"`
}

// HandleCreateDoseLog records a scheduled dose occurrence
func HandleCreateDoseLog(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateDoseLogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}
		if req.MedicationID == "" {
			http.Error(w, "medication_id is required", http.StatusBadRequest)
			return
		}

		scheduledTime, err := time.Parse(time.RFC3339, req.ScheduledTime)
		if err != nil {
			http.Error(w, "Invalid scheduled_time format, use RFC3339", http.StatusBadRequest)
			return
		}

		status := models.DoseStatusPending
		if req.Status != nil {
			status = models.DoseStatus(*req.Status)
			if !status.Valid() {
				http.Error(w, "Invalid status", http.StatusBadRequest)
				return
			}
			if status.Terminal() {
				http.Error(w, "New dose logs cannot start in a terminal status", http.StatusBadRequest)
				return
			}
		}

		// A log may only reference a medication owned by the same user
		medicationRepo := repository.NewMedicationRepository(db)
		medication, err := medicationRepo.GetByID(req.MedicationID)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Medication not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve medication", http.StatusInternalServerError)
			return
		}
		if medication.UserID != req.UserID {
			http.Error(w, "Medication belongs to a different user", http.StatusForbidden)
			return
		}

		doseLog := &models.DoseLog{
			UserID:        req.UserID,
			MedicationID:  req.MedicationID,
			ScheduledTime: scheduledTime,
			Status:        status,
			Notes:         req.Notes,
		}

		logRepo := repository.NewDoseLogRepository(db)
		if err := logRepo.Create(doseLog); err != nil {
			http.Error(w, "Failed to create dose log", http.StatusInternalServerError)
			return
		}

		created, err := logRepo.GetByID(doseLog.ID)
		if err != nil {
			http.Error(w, "Failed to retrieve created dose log", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// HandleGetUserDoseLogs returns a user's dose logs, optionally filtered by a
// date range, most recent first
func HandleGetUserDoseLogs(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		startParam := r.URL.Query().Get("start_date")
		endParam := r.URL.Query().Get("end_date")

		logRepo := repository.NewDoseLogRepository(db)

		var logs []*models.DoseLog
		var err error
		if startParam != "" || endParam != "" {
			// Open-ended ranges default to a wide window on the missing side
			start := time.Time{}
			end := time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

			if startParam != "" {
				start, err = parseDate(startParam)
				if err != nil {
					http.Error(w, "Invalid start_date format, use YYYY-MM-DD", http.StatusBadRequest)
					return
				}
			}
			if endParam != "" {
				day, err := parseDate(endParam)
				if err != nil {
					http.Error(w, "Invalid end_date format, use YYYY-MM-DD", http.StatusBadRequest)
					return
				}
				end = day.AddDate(0, 0, 1).Add(-time.Millisecond)
			}
			if end.Before(start) {
				http.Error(w, "end_date must not precede start_date", http.StatusBadRequest)
				return
			}

			logs, err = logRepo.ListByRange(r.Context(), userID, start, end)
		} else {
			logs, err = logRepo.ListByUser(r.Context(), userID)
		}
		if err != nil {
			http.Error(w, "Failed to retrieve dose logs", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, logs)
	}
}

// HandleUpdateDoseLog applies a partial update to a dose log, enforcing the
// status machine: pending/current may move to taken or missed, terminal
// statuses never change, and taken_at is present exactly when status is taken.
func HandleUpdateDoseLog(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID := chi.URLParam(r, "logID")

		var req UpdateDoseLogRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		logRepo := repository.NewDoseLogRepository(db)
		doseLog, err := logRepo.GetByID(logID)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Dose log not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve dose log", http.StatusInternalServerError)
			return
		}

		if req.Status != nil {
			newStatus := models.DoseStatus(*req.Status)
			if !newStatus.Valid() {
				http.Error(w, "Invalid status", http.StatusBadRequest)
				return
			}
			if doseLog.Status.Terminal() && newStatus != doseLog.Status {
				http.Error(w, "Dose log already finalized", http.StatusConflict)
				return
			}
			doseLog.Status = newStatus
		}

		if req.TakenAt != nil {
			takenAt, err := time.Parse(time.RFC3339, *req.TakenAt)
			if err != nil {
				http.Error(w, "Invalid taken_at format, use RFC3339", http.StatusBadRequest)
				return
			}
			doseLog.TakenAt = &takenAt
		}

		// taken_at is set if and only if the dose was taken
		if doseLog.Status == models.DoseStatusTaken && doseLog.TakenAt == nil {
			now := time.Now()
			doseLog.TakenAt = &now
		}
		if doseLog.Status != models.DoseStatusTaken {
			doseLog.TakenAt = nil
		}

		if req.VerificationPhoto != nil {
			doseLog.VerificationPhoto = req.VerificationPhoto
		}
		if req.Notes != nil {
			doseLog.Notes = req.Notes
		}

		if err := logRepo.Update(doseLog); err != nil {
			http.Error(w, "Failed to update dose log", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, doseLog)
	}
}

// HandleMarkDoseTaken transitions a dose log to taken, stamps taken_at, and
// decrements the medication's remaining pill count
func HandleMarkDoseTaken(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logID := chi.URLParam(r, "logID")

		// Body is optional; an empty body means no verification photo
		var req MarkTakenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		logRepo := repository.NewDoseLogRepository(db)
		doseLog, err := logRepo.GetByID(logID)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Dose log not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve dose log", http.StatusInternalServerError)
			return
		}

		if err := logRepo.MarkTaken(logID, time.Now(), req.VerificationPhoto); err != nil {
			if err == repository.ErrNotFound {
				// Either raced with deletion or the log was already terminal
				http.Error(w, "Dose log already finalized", http.StatusConflict)
				return
			}
			http.Error(w, "Failed to mark dose taken", http.StatusInternalServerError)
			return
		}

		// Best-effort pill count update; the ledger is the source of truth
		// and medication counters are reconciled by the client if this races.
		medicationRepo := repository.NewMedicationRepository(db)
		if err := medicationRepo.DecrementRemaining(doseLog.MedicationID); err != nil {
			log.Printf("Failed to decrement remaining pills for medication %s: %v", doseLog.MedicationID, err)
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "Medication marked as taken"})
	}
}
