// README: Municipality records resolved to coordinates.
package location

import (
	"errors"
	"strings"

	"cotizador/internal/types"
)

var ErrUnknownMunicipality = errors.New("municipality not found")

type Municipality struct {
	City  string      `json:"city"`
	State string      `json:"state"`
	Point types.Point `json:"point"`
}

// Label renders "City (State)", or just the city when the state is unknown.
func (m Municipality) Label() string {
	if m.State == "" {
		return m.City
	}
	return m.City + " (" + m.State + ")"
}

// SplitLabel parses "City (State)". A label without a state returns state "".
func SplitLabel(label string) (city, state string) {
	label = strings.TrimSpace(label)
	i := strings.LastIndex(label, " (")
	if i < 0 || !strings.HasSuffix(label, ")") {
		return label, ""
	}
	return strings.TrimSpace(label[:i]), strings.TrimSpace(label[i+2 : len(label)-1])
}
