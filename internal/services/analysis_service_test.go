package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"medmind/internal/config"
)

func TestParseModelReply(t *testing.T) {
	goodJSON := `{
		"medication_name": "Lisinopril",
		"dosage": "10mg",
		"frequency": "once daily",
		"instructions": ["Take with water"],
		"warnings": ["May cause dizziness"],
		"pill_count": 30,
		"confidence": 0.92
	}`

	tests := []struct {
		name         string
		reply        string
		wantName     string
		wantFallback bool
	}{
		{
			name:     "Plain JSON",
			reply:    goodJSON,
			wantName: "Lisinopril",
		},
		{
			name:     "JSON in markdown fence",
			reply:    "```json\n" + goodJSON + "\n```",
			wantName: "Lisinopril",
		},
		{
			name:     "JSON in bare fence",
			reply:    "```\n" + goodJSON + "\n```",
			wantName: "Lisinopril",
		},
		{
			name:         "Prose reply falls back",
			reply:        "I'm sorry, I cannot read this image clearly.",
			wantName:     "Lisinopril",
			wantFallback: true,
		},
		{
			name:         "Empty reply falls back",
			reply:        "",
			wantName:     "Lisinopril",
			wantFallback: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parseModelReply(tt.reply, "Lisinopril")

			if result.MedicationName != tt.wantName {
				t.Errorf("Expected medication name %s, got %s", tt.wantName, result.MedicationName)
			}

			if tt.wantFallback {
				if result.Confidence != 0.5 {
					t.Errorf("Expected fallback confidence 0.5, got %v", result.Confidence)
				}
				if result.Dosage != "Please verify dosage" {
					t.Errorf("Expected fallback dosage, got %q", result.Dosage)
				}
				if result.PillCount != nil {
					t.Errorf("Fallback should have no pill count, got %v", *result.PillCount)
				}
				return
			}

			if result.Confidence != 0.92 {
				t.Errorf("Expected confidence 0.92, got %v", result.Confidence)
			}
			if result.PillCount == nil || *result.PillCount != 30 {
				t.Errorf("Expected pill count 30, got %v", result.PillCount)
			}
			if len(result.Instructions) != 1 || len(result.Warnings) != 1 {
				t.Errorf("Instructions/warnings did not parse: %v / %v", result.Instructions, result.Warnings)
			}
		})
	}
}

func TestParseModelReply_FallbackWithoutName(t *testing.T) {
	result := parseModelReply("not json", "")
	if result.MedicationName != "Unknown" {
		t.Errorf("Expected Unknown medication name, got %s", result.MedicationName)
	}
}

func TestParseModelReply_NilListsNormalized(t *testing.T) {
	result := parseModelReply(`{"medication_name":"X","confidence":0.8}`, "X")
	if result.Instructions == nil {
		t.Error("Expected non-nil instructions slice")
	}
	if result.Warnings == nil {
		t.Error("Expected non-nil warnings slice")
	}
}

func TestModelAnalyzer_Analyze(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("Expected model test-model, got %s", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Errorf("Expected system and user messages, got %d", len(req.Messages))
		}

		resp := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{
					"content": `{"medication_name":"Metformin","dosage":"500mg","frequency":"twice daily","confidence":0.9}`,
				}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	analyzer := NewModelAnalyzer(config.AnalysisConfig{
		APIKey:            "test-key",
		Endpoint:          server.URL,
		Model:             "test-model",
		RequestsPerMinute: 60,
		Timeout:           5 * time.Second,
	})

	if !analyzer.Configured() {
		t.Fatal("Expected analyzer to be configured")
	}

	result, err := analyzer.Analyze(context.Background(), "aW1hZ2U=", "Metformin")
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("Expected bearer auth header, got %q", gotAuth)
	}
	if result.MedicationName != "Metformin" {
		t.Errorf("Expected Metformin, got %s", result.MedicationName)
	}
	if result.Confidence != 0.9 {
		t.Errorf("Expected confidence 0.9, got %v", result.Confidence)
	}
}

func TestModelAnalyzer_Analyze_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	analyzer := NewModelAnalyzer(config.AnalysisConfig{
		APIKey:            "test-key",
		Endpoint:          server.URL,
		Model:             "test-model",
		RequestsPerMinute: 60,
		Timeout:           5 * time.Second,
	})

	if _, err := analyzer.Analyze(context.Background(), "aW1hZ2U=", ""); err == nil {
		t.Error("Expected error for provider failure")
	}
}

func TestModelAnalyzer_Unconfigured(t *testing.T) {
	analyzer := NewModelAnalyzer(config.AnalysisConfig{
		Endpoint:          "https://example.invalid",
		Model:             "test-model",
		RequestsPerMinute: 60,
		Timeout:           time.Second,
	})
	if analyzer.Configured() {
		t.Error("Expected analyzer without API key to report unconfigured")
	}
}
