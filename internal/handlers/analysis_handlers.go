package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"medmind/internal/services"
)

// AnalyzePrescriptionRequest represents the request body for prescription
// image analysis
type AnalyzePrescriptionRequest struct {
	ImageBase64    string `json:"image_base64"`
	MedicationName string `json:"medication_name"`
}

// HandleAnalyzePrescription delegates a prescription-label image to the
// external model and returns the structured extraction
func HandleAnalyzePrescription(analyzer services.PrescriptionAnalyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !analyzer.Configured() {
			http.Error(w, "Prescription analysis is not configured", http.StatusServiceUnavailable)
			return
		}

		var req AnalyzePrescriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.ImageBase64 == "" {
			http.Error(w, "image_base64 is required", http.StatusBadRequest)
			return
		}

		result, err := analyzer.Analyze(r.Context(), req.ImageBase64, req.MedicationName)
		if err != nil {
			log.Printf("Prescription analysis error: %v", err)
			http.Error(w, "Analysis failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}
