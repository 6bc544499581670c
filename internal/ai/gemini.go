package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-2.0-flash"

// GeminiProvider implements LLMProvider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiProvider creates a Gemini client configured for JSON extraction.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(geminiModel)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = intentSchema
	model.SetTemperature(0.1)

	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

var intentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"service":       {Type: genai.TypeString, Enum: []string{"FTL", "LTL", "MOVING", ""}},
		"origin":        {Type: genai.TypeString},
		"destination":   {Type: genai.TypeString},
		"weight_tons":   {Type: genai.TypeNumber},
		"length_cm":     {Type: genai.TypeNumber},
		"width_cm":      {Type: genai.TypeNumber},
		"height_cm":     {Type: genai.TypeNumber},
		"maneuver_cost": {Type: genai.TypeNumber},
		"service_date":  {Type: genai.TypeString},
		"missing":       {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"reply":         {Type: genai.TypeString},
	},
	Required: []string{"service", "origin", "destination", "missing", "reply"},
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

// ParseQuoteIntent analyzes user input to extract a freight quote request.
func (p *GeminiProvider) ParseQuoteIntent(ctx context.Context, userMessage string, currentContext map[string]string) (*QuoteIntent, error) {
	fullPrompt := fmt.Sprintf("%s\n\nUser Message: %s", buildSystemPrompt(currentContext), userMessage)

	resp, err := p.model.GenerateContent(ctx, genai.Text(fullPrompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no response candidates from Gemini")
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			responseText.WriteString(string(txt))
		}
	}
	return decodeIntent(responseText.String())
}

// decodeIntent parses the model's JSON answer.
func decodeIntent(text string) (*QuoteIntent, error) {
	cleanJSON := cleanJSONString(text)

	var result QuoteIntent
	if err := json.Unmarshal([]byte(cleanJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleanJSON)
	}
	result.Service = strings.ToUpper(strings.TrimSpace(result.Service))
	if result.Service == "MUDANZA" {
		result.Service = "MOVING"
	}
	return &result, nil
}

// buildSystemPrompt constructs the instructions for the AI.
func buildSystemPrompt(ctxMap map[string]string) string {
	currentDate := ctxMap["current_date"]
	if currentDate == "" {
		currentDate = "UNKNOWN_DATE"
	}

	return fmt.Sprintf(`Role: You are the quoting assistant of a Mexican freight company. Customers write in Spanish.
Context:
- Current Date: %s

Extract a freight quote request from the user's message.

RULES:

1. SERVICE:
   - "camión completo", "flete completo", "FTL" -> "FTL".
   - "consolidado", "paquetería", "LTL", a pallet or box with dimensions -> "LTL".
   - "mudanza", "cambio de casa", "moving" -> "MOVING".
   - If unclear, leave "" and add "service" to "missing".

2. LOCATIONS:
   - Origin and destination are Mexican municipalities. Write them as "City (State)" with the
     state spelled out ("Monterrey (Nuevo Leon)"). If the state cannot be inferred, write the city only.
   - "CDMX", "DF" -> "Ciudad de Mexico (Ciudad de Mexico)".

3. CARGO:
   - "weight_tons" in metric tons ("800 kilos" -> 0.8). Required for FTL and MOVING.
   - "length_cm", "width_cm", "height_cm" in centimeters ("1.2 m" -> 120). Required for LTL.
   - "maneuver_cost" in MXN, only when the user states a loading/unloading charge for a move. Default 0.

4. DATES:
   - "service_date" as YYYY-MM-DD resolved against Current Date ("mañana", "el lunes"). "" if not given.

5. MISSING DATA:
   - List every required field you could not extract in "missing" using the JSON field names.
   - When something is missing, "reply" asks for it in natural Mexican Spanish, in one short sentence.
   - When nothing is missing, "reply" confirms the request in one short sentence. Never state a price.

6. Output JSON Schema:
{
  "service": "FTL" | "LTL" | "MOVING" | "",
  "origin": "string",
  "destination": "string",
  "weight_tons": number,
  "length_cm": number,
  "width_cm": number,
  "height_cm": number,
  "maneuver_cost": number,
  "service_date": "YYYY-MM-DD or empty",
  "missing": ["string"],
  "reply": "string (user facing, Spanish)"
}
`, currentDate)
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
