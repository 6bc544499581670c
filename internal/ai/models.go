package ai

import "strings"

// QuoteIntent captures the structured output from the AI model.
type QuoteIntent struct {
	// Service is "FTL", "LTL" or "MOVING"; empty when the user did not say.
	Service string `json:"service"`

	// Origin and Destination are "City (State)" labels when the model could
	// infer the state, otherwise the municipality name as written.
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	WeightTons   float64 `json:"weight_tons"`
	LengthCm     float64 `json:"length_cm"`
	WidthCm      float64 `json:"width_cm"`
	HeightCm     float64 `json:"height_cm"`
	ManeuverCost float64 `json:"maneuver_cost"`

	// ServiceDate is YYYY-MM-DD or empty.
	ServiceDate string `json:"service_date,omitempty"`

	// Missing lists the fields the model still needs to ask for.
	Missing []string `json:"missing"`

	// Reply is a short Spanish response for the user.
	Reply string `json:"reply"`
}

// MissingFields reports what is still needed to price the request, merging
// the model's own list with the fields the selected service requires.
func (q *QuoteIntent) MissingFields() []string {
	seen := map[string]bool{}
	var out []string
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, f := range q.Missing {
		add(strings.TrimSpace(f))
	}
	if strings.TrimSpace(q.Origin) == "" {
		add("origin")
	}
	if strings.TrimSpace(q.Destination) == "" {
		add("destination")
	}
	switch strings.ToUpper(strings.TrimSpace(q.Service)) {
	case "FTL", "MOVING", "MUDANZA":
		if q.WeightTons <= 0 {
			add("weight_tons")
		}
	case "LTL":
		if q.LengthCm <= 0 || q.WidthCm <= 0 || q.HeightCm <= 0 {
			add("dimensions")
		}
	default:
		add("service")
	}
	return out
}
