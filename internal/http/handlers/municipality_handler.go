// README: Municipality catalog search and nearest-municipality lookup.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cotizador/internal/modules/location"
	"cotizador/internal/types"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 100
)

type MunicipalityHandler struct {
	location *location.Service
}

func NewMunicipalityHandler(svc *location.Service) *MunicipalityHandler {
	return &MunicipalityHandler{location: svc}
}

// Search handles GET /api/municipalities?q=&limit=.
func (h *MunicipalityHandler) Search(c *gin.Context) {
	limit, ok := searchLimit(c)
	if !ok {
		return
	}
	items := h.location.Catalog().Search(c.Query("q"), limit)
	if items == nil {
		items = []location.Municipality{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"municipalities": items})
}

// Nearest handles GET /api/municipalities/nearest?lat=&lng=&limit=.
func (h *MunicipalityHandler) Nearest(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(c, http.StatusBadRequest, "lat and lng are required")
		return
	}
	p := types.Point{Lat: lat, Lng: lng}
	if err := h.location.Territory().Validate(p); err != nil {
		writeQuoteError(c, err)
		return
	}
	limit, ok := searchLimit(c)
	if !ok {
		return
	}
	items := h.location.Catalog().Nearest(p, limit)
	if items == nil {
		items = []location.Nearby{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"municipalities": items})
}

// Resolve handles GET /api/municipalities/resolve?place=, falling back to
// the geocoder for places outside the catalog.
func (h *MunicipalityHandler) Resolve(c *gin.Context) {
	m, err := h.location.Resolve(c.Request.Context(), c.Query("place"))
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, m)
}

func searchLimit(c *gin.Context) (int, bool) {
	limit, ok := queryInt(c, "limit", defaultSearchLimit)
	if !ok || limit == 0 {
		writeError(c, http.StatusBadRequest, "invalid limit")
		return 0, false
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	return limit, true
}
