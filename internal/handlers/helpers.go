package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// writeJSON encodes v as the response body. Encode failures after the header
// is written can only be logged.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// parseDate parses a YYYY-MM-DD query parameter
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}

// validTimeSlot reports whether s is a wall-clock HH:MM time
func validTimeSlot(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}
