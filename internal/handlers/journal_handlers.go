package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"medmind/internal/database"
	"medmind/internal/models"
	"medmind/internal/repository"
)

// CreateJournalEntryRequest represents the request body for creating a
// journal entry
type CreateJournalEntryRequest struct {
	UserID      string   `json:"user_id"`
	Date        string   `json:"date"` // YYYY-MM-DD
	Symptoms    []string `json:"symptoms"`
	Notes       string   `json:"notes"`
	MoodRating  *int     `json:"mood_rating,omitempty"`
	SideEffects []string `json:"side_effects"`
}

// UpdateJournalEntryRequest represents the request body for updating a
// journal entry
type UpdateJournalEntryRequest struct {
	Symptoms         []string `json:"symptoms,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	MoodRating       *int     `json:"mood_rating,omitempty"`
	SideEffects      []string `json:"side_effects,omitempty"`
	CaregiverAlerted *bool    `json:"caregiver_alerted,omitempty"`
}

// HandleCreateJournalEntry creates a new health journal entry
func HandleCreateJournalEntry(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateJournalEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.UserID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		entryDate, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, "Invalid date format, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		if req.MoodRating != nil && (*req.MoodRating < 1 || *req.MoodRating > 10) {
			http.Error(w, "mood_rating must be between 1 and 10", http.StatusBadRequest)
			return
		}

		entry := &models.JournalEntry{
			UserID:      req.UserID,
			EntryDate:   entryDate,
			Symptoms:    req.Symptoms,
			Notes:       req.Notes,
			MoodRating:  req.MoodRating,
			SideEffects: req.SideEffects,
		}

		journalRepo := repository.NewJournalRepository(db)
		if err := journalRepo.Create(entry); err != nil {
			http.Error(w, "Failed to create journal entry", http.StatusInternalServerError)
			return
		}

		created, err := journalRepo.GetByID(entry.ID)
		if err != nil {
			http.Error(w, "Failed to retrieve created journal entry", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, created)
	}
}

// HandleGetJournalEntries returns a user's journal entries, optionally
// filtered by a date range, newest first
func HandleGetJournalEntries(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		startParam := r.URL.Query().Get("start_date")
		endParam := r.URL.Query().Get("end_date")

		journalRepo := repository.NewJournalRepository(db)

		var entries []*models.JournalEntry
		var err error
		if startParam != "" && endParam != "" {
			start, err1 := parseDate(startParam)
			end, err2 := parseDate(endParam)
			if err1 != nil || err2 != nil {
				http.Error(w, "Invalid date format, use YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			entries, err = journalRepo.ListByRange(userID, start, end)
		} else {
			entries, err = journalRepo.ListByUser(userID)
		}
		if err != nil {
			http.Error(w, "Failed to retrieve journal entries", http.StatusInternalServerError)
			return
		}

		if entries == nil {
			entries = []*models.JournalEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// HandleGetJournalEntryByDate returns a user's journal entry for one day
func HandleGetJournalEntryByDate(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		dateParam := chi.URLParam(r, "date")

		date, err := parseDate(dateParam)
		if err != nil {
			http.Error(w, "Invalid date format, use YYYY-MM-DD", http.StatusBadRequest)
			return
		}

		journalRepo := repository.NewJournalRepository(db)
		entry, err := journalRepo.GetByDate(userID, date)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Entry not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve journal entry", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}

// HandleUpdateJournalEntry applies a partial update to a journal entry
func HandleUpdateJournalEntry(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entryID := chi.URLParam(r, "entryID")

		var req UpdateJournalEntryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		journalRepo := repository.NewJournalRepository(db)
		entry, err := journalRepo.GetByID(entryID)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Journal entry not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to retrieve journal entry", http.StatusInternalServerError)
			return
		}

		if req.Symptoms != nil {
			entry.Symptoms = req.Symptoms
		}
		if req.Notes != nil {
			entry.Notes = *req.Notes
		}
		if req.MoodRating != nil {
			if *req.MoodRating < 1 || *req.MoodRating > 10 {
				http.Error(w, "mood_rating must be between 1 and 10", http.StatusBadRequest)
				return
			}
			entry.MoodRating = req.MoodRating
		}
		if req.SideEffects != nil {
			entry.SideEffects = req.SideEffects
		}
		if req.CaregiverAlerted != nil {
			entry.CaregiverAlerted = *req.CaregiverAlerted
		}

		if err := journalRepo.Update(entry); err != nil {
			http.Error(w, "Failed to update journal entry", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}
