package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"medmind/internal/adherence"
	"medmind/internal/database"
	"medmind/internal/models"
	"medmind/internal/repository"
)

// DashboardResponse is the assembled dashboard envelope
type DashboardResponse struct {
	UserProfile     *models.UserProfile  `json:"user_profile"`
	Medications     []*models.Medication `json:"medications"`
	TodayLogs       []*models.DoseLog    `json:"today_logs"`
	Streak          int                  `json:"streak"`
	TotalPillsTaken int                  `json:"total_pills_taken"`
	TodayDate       string               `json:"today_date"`
}

// HandleGetDashboard assembles the user dashboard: profile, active
// medications, today's dose logs, the adherence streak, and pill totals.
// The clock is injected so "today" is deterministic under test.
func HandleGetDashboard(db *database.DB, now adherence.Clock, lookbackDays int) http.HandlerFunc {
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

		medicationRepo := repository.NewMedicationRepository(db)
		medications, err := medicationRepo.ListActive(userID)
		if err != nil {
			http.Error(w, "Failed to retrieve medications", http.StatusInternalServerError)
			return
		}
		if medications == nil {
			medications = []*models.Medication{}
		}

		logRepo := repository.NewDoseLogRepository(db)
		today := now()
		todayLogs, err := logRepo.DayLogs(r.Context(), userID, adherence.DayStart(today), adherence.DayEnd(today))
		if err != nil {
			http.Error(w, "Failed to retrieve today's logs", http.StatusInternalServerError)
			return
		}

		aggregator := adherence.NewAggregator(logRepo, lookbackDays)
		streak, err := aggregator.ComputeStreak(r.Context(), userID, today)
		if err != nil {
			http.Error(w, "Failed to compute adherence streak", http.StatusInternalServerError)
			return
		}

		totals := adherence.ComputeDashboardTotals(medications)

		writeJSON(w, http.StatusOK, DashboardResponse{
			UserProfile:     profile,
			Medications:     medications,
			TodayLogs:       todayLogs,
			Streak:          streak,
			TotalPillsTaken: totals.TotalPillsTaken,
			TodayDate:       today.Format("2006-01-02"),
		})
	}
}
