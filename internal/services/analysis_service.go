package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"medmind/internal/config"
)

// AnalysisResult is the structured information extracted from a prescription
// label image
type AnalysisResult struct {
	MedicationName string   `json:"medication_name"`
	Dosage         string   `json:"dosage"`
	Frequency      string   `json:"frequency"`
	Instructions   []string `json:"instructions"`
	Warnings       []string `json:"warnings"`
	PillCount      *int     `json:"pill_count"`
	Confidence     float64  `json:"confidence"`
}

// PrescriptionAnalyzer delegates prescription-label images to an external
// multimodal model. Implementations may fail or return low-confidence data;
// callers decide what to do with either.
type PrescriptionAnalyzer interface {
	// Configured reports whether the analyzer has credentials to call its
	// provider. Unconfigured analyzers must not be asked to Analyze.
	Configured() bool
	Analyze(ctx context.Context, imageBase64, medicationName string) (*AnalysisResult, error)
}

const analysisPrompt = `Analyze this prescription image and extract the following information in JSON format:
{
    "medication_name": "name of the medication",
    "dosage": "dosage amount and unit",
    "frequency": "how often to take (e.g., 'twice daily', 'every 8 hours')",
    "instructions": ["list", "of", "taking", "instructions"],
    "warnings": ["list", "of", "warnings", "or", "side", "effects"],
    "pill_count": number_of_pills_if_visible,
    "confidence": confidence_score_0_to_1
}

Focus on extracting accurate medication details. If any information is unclear, use null for that field.`

const analysisSystemMessage = "You are a medical prescription analysis assistant. " +
	"Analyze prescription images and extract medication information accurately. " +
	"Always return structured JSON data."

// ModelAnalyzer calls an OpenAI-compatible chat-completions endpoint.
// Outbound calls are throttled with a token bucket so a burst of uploads
// cannot hammer the provider; this is a client-side bound on the external
// service, not request rate limiting.
type ModelAnalyzer struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewModelAnalyzer builds an analyzer from config
func NewModelAnalyzer(cfg config.AnalysisConfig) *ModelAnalyzer {
	return &ModelAnalyzer{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.RequestsPerMinute),
	}
}

// Configured reports whether an API key is present
func (a *ModelAnalyzer) Configured() bool {
	return a.apiKey != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	ImageURL *imageURLParam `json:"image_url,omitempty"`
}

type imageURLParam struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Analyze sends the image to the model and parses its JSON reply. A reply
// that is not parseable JSON yields the low-confidence fallback result
// rather than an error; transport and provider faults propagate.
func (a *ModelAnalyzer) Analyze(ctx context.Context, imageBase64, medicationName string) (*AnalysisResult, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("analysis rate limiter: %w", err)
	}

	reqBody := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: analysisSystemMessage},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: analysisPrompt},
				{Type: "image_url", ImageURL: &imageURLParam{
					URL: "data:image/jpeg;base64," + imageBase64,
				}},
			}},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read analysis response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analysis provider returned status %d", resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to decode analysis response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("analysis provider returned no choices")
	}

	return parseModelReply(chatResp.Choices[0].Message.Content, medicationName), nil
}

// parseModelReply extracts the structured result from the model's text reply.
// Models occasionally wrap JSON in markdown fences or prose; if no JSON can
// be recovered, a conservative fallback asks the user to verify everything.
func parseModelReply(reply, medicationName string) *AnalysisResult {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var result AnalysisResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return fallbackResult(medicationName)
	}
	if result.Instructions == nil {
		result.Instructions = []string{}
	}
	if result.Warnings == nil {
		result.Warnings = []string{}
	}
	return &result
}

func fallbackResult(medicationName string) *AnalysisResult {
	if medicationName == "" {
		medicationName = "Unknown"
	}
	return &AnalysisResult{
		MedicationName: medicationName,
		Dosage:         "Please verify dosage",
		Frequency:      "As directed",
		Instructions:   []string{"Take as prescribed by doctor"},
		Warnings:       []string{"Consult doctor for side effects"},
		PillCount:      nil,
		Confidence:     0.5,
	}
}

var _ PrescriptionAnalyzer = (*ModelAnalyzer)(nil)
