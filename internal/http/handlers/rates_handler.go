// README: Read-only view of the active rate tables.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cotizador/internal/modules/pricing"
	"cotizador/internal/types"
)

type RatesHandler struct {
	engine *pricing.Engine
}

func NewRatesHandler(engine *pricing.Engine) *RatesHandler {
	return &RatesHandler{engine: engine}
}

// Get handles GET /api/rates.
func (h *RatesHandler) Get(c *gin.Context) {
	writeJSON(c, http.StatusOK, map[string]any{
		"currency":      types.Currency,
		"moving_policy": h.engine.MovingPolicy(),
		"territory":     h.engine.Territory(),
		"tables":        h.engine.Tables(),
	})
}
