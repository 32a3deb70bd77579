package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jung-kurt/gofpdf/v2"

	"medmind/internal/database"
	"medmind/internal/models"
	"medmind/internal/repository"
)

// ExportData collects everything a report covers for one user and range
type ExportData struct {
	ProfileName string
	DoseLogs    []*models.DoseLog
	Journal     []*models.JournalEntry
	MedNames    map[string]string // medication ID -> display name
	StartDate   time.Time
	EndDate     time.Time
}

// HandleExportCSV generates a CSV export of a user's dose logs and journal
// entries. type=doses, journal, or all (default all).
func HandleExportCSV(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		dataType := r.URL.Query().Get("type")
		if dataType == "" {
			dataType = "all"
		}

		start, end, err := parseExportRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data, err := gatherExportData(r, db, userID, start, end)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to gather export data", http.StatusInternalServerError)
			return
		}

		var csvBuffer bytes.Buffer
		csvWriter := csv.NewWriter(&csvBuffer)

		switch dataType {
		case "doses":
			err = writeDosesCSV(csvWriter, data)
		case "journal":
			err = writeJournalCSV(csvWriter, data)
		case "all":
			err = writeAllDataCSV(csvWriter, data)
		default:
			http.Error(w, "Invalid type parameter. Use: doses, journal, or all", http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, "Failed to generate CSV", http.StatusInternalServerError)
			return
		}

		csvWriter.Flush()
		if err := csvWriter.Error(); err != nil {
			http.Error(w, "Failed to flush CSV writer", http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("medmind-%s-%s-to-%s.csv", dataType, start.Format("2006-01-02"), end.Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", csvBuffer.Len()))
		w.Write(csvBuffer.Bytes())
	}
}

// HandleExportPDF generates a PDF adherence report for one user
func HandleExportPDF(db *database.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")

		start, end, err := parseExportRange(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		data, err := gatherExportData(r, db, userID, start, end)
		if err != nil {
			if err == repository.ErrNotFound {
				http.Error(w, "Profile not found", http.StatusNotFound)
				return
			}
			http.Error(w, "Failed to gather export data", http.StatusInternalServerError)
			return
		}

		pdfBytes, err := generatePDF(data)
		if err != nil {
			http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("medmind-report-%s-to-%s.pdf", start.Format("2006-01-02"), end.Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
		w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
		w.Write(pdfBytes)
	}
}

// parseExportRange reads start_date/end_date query params, defaulting to the
// last 30 days
func parseExportRange(r *http.Request) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error

	if param := r.URL.Query().Get("start_date"); param != "" {
		start, err = parseDate(param)
		if err != nil {
			return start, end, fmt.Errorf("Invalid start_date format. Use YYYY-MM-DD")
		}
	} else {
		start = time.Now().AddDate(0, 0, -30)
	}

	if param := r.URL.Query().Get("end_date"); param != "" {
		day, err := parseDate(param)
		if err != nil {
			return start, end, fmt.Errorf("Invalid end_date format. Use YYYY-MM-DD")
		}
		end = day.AddDate(0, 0, 1).Add(-time.Millisecond)
	} else {
		end = time.Now()
	}

	if end.Before(start) {
		return start, end, fmt.Errorf("end_date must be after start_date")
	}
	return start, end, nil
}

// gatherExportData collects the profile, dose logs, journal entries, and
// medication names needed for a report
func gatherExportData(r *http.Request, db *database.DB, userID string, start, end time.Time) (*ExportData, error) {
	profileRepo := repository.NewProfileRepository(db)
	profile, err := profileRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	logRepo := repository.NewDoseLogRepository(db)
	logs, err := logRepo.ListByRange(r.Context(), userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query dose logs: %w", err)
	}

	journalRepo := repository.NewJournalRepository(db)
	entries, err := journalRepo.ListByRange(userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal entries: %w", err)
	}

	medicationRepo := repository.NewMedicationRepository(db)
	medications, err := medicationRepo.List(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query medications: %w", err)
	}

	medNames := make(map[string]string, len(medications))
	for _, m := range medications {
		medNames[m.ID] = m.Name
	}

	return &ExportData{
		ProfileName: profile.Name,
		DoseLogs:    logs,
		Journal:     entries,
		MedNames:    medNames,
		StartDate:   start,
		EndDate:     end,
	}, nil
}

// writeDosesCSV writes dose log data to CSV
func writeDosesCSV(writer *csv.Writer, data *ExportData) error {
	header := []string{"ID", "Date", "Scheduled Time", "Medication", "Status", "Taken At", "Notes"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, log := range data.DoseLogs {
		takenAt := ""
		if log.TakenAt != nil {
			takenAt = log.TakenAt.Format("2006-01-02 15:04:05")
		}
		notes := ""
		if log.Notes != nil {
			notes = *log.Notes
		}
		name := data.MedNames[log.MedicationID]
		if name == "" {
			name = log.MedicationID
		}

		row := []string{
			log.ID,
			log.ScheduledTime.Format("2006-01-02"),
			log.ScheduledTime.Format("15:04:05"),
			name,
			string(log.Status),
			takenAt,
			notes,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// writeJournalCSV writes journal entry data to CSV
func writeJournalCSV(writer *csv.Writer, data *ExportData) error {
	header := []string{"ID", "Date", "Mood", "Symptoms", "Side Effects", "Notes"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, entry := range data.Journal {
		mood := ""
		if entry.MoodRating != nil {
			mood = fmt.Sprintf("%d", *entry.MoodRating)
		}

		row := []string{
			entry.ID,
			entry.EntryDate.Format("2006-01-02"),
			mood,
			strings.Join(entry.Symptoms, "; "),
			strings.Join(entry.SideEffects, "; "),
			entry.Notes,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return nil
}

// writeAllDataCSV writes both data types to a single CSV with sections
func writeAllDataCSV(writer *csv.Writer, data *ExportData) error {
	if err := writer.Write([]string{"MedMind - Complete Export"}); err != nil {
		return err
	}
	if err := writer.Write([]string{fmt.Sprintf("Patient: %s", data.ProfileName)}); err != nil {
		return err
	}
	if err := writer.Write([]string{fmt.Sprintf("Report Period: %s to %s", data.StartDate.Format("2006-01-02"), data.EndDate.Format("2006-01-02"))}); err != nil {
		return err
	}
	if err := writer.Write([]string{""}); err != nil {
		return err
	}

	if err := writer.Write([]string{"=== DOSE LOGS ==="}); err != nil {
		return err
	}
	if err := writeDosesCSV(writer, data); err != nil {
		return err
	}
	if err := writer.Write([]string{""}); err != nil {
		return err
	}

	if err := writer.Write([]string{"=== HEALTH JOURNAL ==="}); err != nil {
		return err
	}
	return writeJournalCSV(writer, data)
}

// generatePDF renders the report as a PDF
func generatePDF(data *ExportData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "MedMind - Medication Adherence Report")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Patient: %s", data.ProfileName))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Report Period: %s to %s",
		data.StartDate.Format("January 2, 2006"), data.EndDate.Format("January 2, 2006")))
	pdf.Ln(10)

	taken := 0
	for _, log := range data.DoseLogs {
		if log.Status == models.DoseStatusTaken {
			taken++
		}
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Dose Log (%d recorded, %d taken)", len(data.DoseLogs), taken))
	pdf.Ln(8)

	doseWidths := []float64{24, 16, 60, 20, 60}
	doseHeaders := []string{"Date", "Time", "Medication", "Status", "Notes"}
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range doseHeaders {
		pdf.CellFormat(doseWidths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, log := range data.DoseLogs {
		notes := ""
		if log.Notes != nil {
			notes = *log.Notes
		}
		name := data.MedNames[log.MedicationID]
		if name == "" {
			name = log.MedicationID
		}

		cells := []string{
			log.ScheduledTime.Format("2006-01-02"),
			log.ScheduledTime.Format("15:04"),
			truncateString(name, 34),
			string(log.Status),
			truncateString(notes, 34),
		}
		for i, c := range cells {
			pdf.CellFormat(doseWidths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Health Journal (%d entries)", len(data.Journal)))
	pdf.Ln(8)

	journalWidths := []float64{24, 14, 50, 92}
	journalHeaders := []string{"Date", "Mood", "Symptoms", "Notes"}
	pdf.SetFont("Helvetica", "B", 9)
	for i, h := range journalHeaders {
		pdf.CellFormat(journalWidths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, entry := range data.Journal {
		mood := ""
		if entry.MoodRating != nil {
			mood = fmt.Sprintf("%d", *entry.MoodRating)
		}

		cells := []string{
			entry.EntryDate.Format("2006-01-02"),
			mood,
			truncateString(strings.Join(entry.Symptoms, "; "), 28),
			truncateString(entry.Notes, 54),
		}
		for i, c := range cells {
			pdf.CellFormat(journalWidths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buffer bytes.Buffer
	if err := pdf.Output(&buffer); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buffer.Bytes(), nil
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
