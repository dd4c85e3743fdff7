package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const availabilityToolName = "list_available_drivers"

// maxToolRounds bounds the tool-calling loop; one availability lookup plus the
// final answer is the expected shape.
const maxToolRounds = 4

// GeminiAssistant implements Assistant using Google's Gemini models.
type GeminiAssistant struct {
	client *genai.Client

	// suggestModel runs the tool-calling flow. It cannot use JSON response
	// mode because Gemini rejects forced JSON together with tools, so the
	// output is cleaned and parsed manually.
	suggestModel *genai.GenerativeModel

	// summaryModel answers plain prompts in forced JSON mode.
	summaryModel *genai.GenerativeModel

	drivers DriverLister
}

// NewGeminiAssistant initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiAssistant(ctx context.Context, apiKey string, drivers DriverLister) (*GeminiAssistant, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Gemini 2.0 Flash for low latency and cost efficiency.
	suggest := client.GenerativeModel("gemini-2.0-flash")
	suggest.SetTemperature(0.2)
	suggest.Tools = []*genai.Tool{{
		FunctionDeclarations: []*genai.FunctionDeclaration{{
			Name:        availabilityToolName,
			Description: "Returns the drivers currently available for assignment, with vehicle type and online state.",
		}},
	}}

	summary := client.GenerativeModel("gemini-2.0-flash")
	summary.ResponseMIMEType = "application/json"
	summary.SetTemperature(0.3)

	return &GeminiAssistant{
		client:       client,
		suggestModel: suggest,
		summaryModel: summary,
		drivers:      drivers,
	}, nil
}

// Close cleans up the Gemini client resources.
func (a *GeminiAssistant) Close() {
	a.client.Close()
}

// SuggestDriver runs the tool-calling flow: the model asks for the current
// availability pool, then answers with a driver ID and a reason. A suggestion
// naming a driver outside the pool is rejected. Every upstream failure wraps
// ErrSuggestionUnavailable so callers can degrade to manual selection.
func (a *GeminiAssistant) SuggestDriver(ctx context.Context, req SuggestRequest) (*Suggestion, error) {
	session := a.suggestModel.StartChat()

	resp, err := session.SendMessage(ctx, genai.Text(buildSuggestPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("%w: gemini generation: %v", ErrSuggestionUnavailable, err)
	}

	var pool []AvailableDriver
	poolLoaded := false

	for round := 0; round < maxToolRounds; round++ {
		parts, ok := responseParts(resp)
		if !ok {
			return nil, ErrSuggestionUnavailable
		}

		call := findFunctionCall(parts)
		if call == nil {
			break
		}
		if call.Name != availabilityToolName {
			return nil, fmt.Errorf("%w: unexpected tool call %q", ErrSuggestionUnavailable, call.Name)
		}

		pool, err = a.drivers.AvailableDrivers(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: load driver pool: %v", ErrSuggestionUnavailable, err)
		}
		poolLoaded = true
		if len(pool) == 0 {
			return nil, ErrSuggestionUnavailable
		}

		resp, err = session.SendMessage(ctx, genai.FunctionResponse{
			Name:     availabilityToolName,
			Response: map[string]any{"drivers": driversPayload(pool)},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: gemini tool response: %v", ErrSuggestionUnavailable, err)
		}
	}

	parts, ok := responseParts(resp)
	if !ok {
		return nil, ErrSuggestionUnavailable
	}
	text := collectText(parts)
	var s Suggestion
	if err := json.Unmarshal([]byte(cleanJSONString(text)), &s); err != nil {
		return nil, fmt.Errorf("%w: unparseable model output", ErrSuggestionUnavailable)
	}
	if s.DriverID == "" {
		return nil, ErrSuggestionUnavailable
	}
	if poolLoaded && !driverInPool(s.DriverID, pool) {
		return nil, fmt.Errorf("%w: model suggested unknown driver %q", ErrSuggestionUnavailable, s.DriverID)
	}
	return &s, nil
}

// SummarizeNotes condenses client notes into one or two sentences.
func (a *GeminiAssistant) SummarizeNotes(ctx context.Context, notes string) (string, error) {
	prompt := fmt.Sprintf(`Role: You are the dispatch assistant for a chauffeur company in the Algarve, Portugal.
Summarize the following client notes into at most two short sentences the driver can read at a glance.
Keep names, flight numbers, child seats, and payment remarks. Drop pleasantries.

Notes: %s

Output JSON Schema:
{"summary": "string"}
`, notes)

	resp, err := a.summaryModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var out struct {
		Summary string `json:"summary"`
	}
	text := cleanJSONString(collectText(resp.Candidates[0].Content.Parts))
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return "", fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, text)
	}
	return out.Summary, nil
}

func buildSuggestPrompt(req SuggestRequest) string {
	estimate := req.TravelEstimate
	if estimate == "" {
		estimate = "UNKNOWN"
	}
	notes := req.Notes
	if notes == "" {
		notes = "NONE"
	}
	return fmt.Sprintf(`Role: You are the dispatch core for a chauffeur company in Vilamoura, Algarve, Portugal.

Task: pick the single best driver for this booking.
- You MUST call %s first to learn who is available. Never invent a driver.
- Prefer online drivers. Respect the vehicle type: more than 4 passengers needs a Minivan.
- If several drivers fit, pick the one whose vehicle matches most closely.

Booking:
- Pickup: %s
- Dropoff: %s
- Pickup time: %s
- Passengers: %d
- Travel estimate: %s
- Client notes: %s

Output JSON Schema:
{"driver_id": "string (ID from the tool result)", "reason": "string (one sentence for the dispatcher)"}
Respond with JSON only.`,
		availabilityToolName,
		req.Pickup, req.Dropoff, req.PickupTime.Format("2006-01-02 15:04"),
		req.Pax, estimate, notes)
}

func driversPayload(pool []AvailableDriver) []map[string]any {
	out := make([]map[string]any, len(pool))
	for i, d := range pool {
		out[i] = map[string]any{
			"id":           d.ID,
			"name":         d.Name,
			"vehicle_type": d.VehicleType,
			"online":       d.Online,
		}
	}
	return out
}

func driverInPool(id string, pool []AvailableDriver) bool {
	for _, d := range pool {
		if d.ID == id {
			return true
		}
	}
	return false
}

// responseParts extracts the first candidate's parts. A response without a
// usable candidate (the model can return an empty set at any round) reports
// false rather than letting the caller index into nothing.
func responseParts(resp *genai.GenerateContentResponse) ([]genai.Part, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, false
	}
	return resp.Candidates[0].Content.Parts, true
}

func findFunctionCall(parts []genai.Part) *genai.FunctionCall {
	for _, part := range parts {
		if call, ok := part.(genai.FunctionCall); ok {
			return &call
		}
	}
	return nil
}

func collectText(parts []genai.Part) string {
	var b strings.Builder
	for _, part := range parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
