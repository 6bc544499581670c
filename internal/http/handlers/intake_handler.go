// README: Natural-language intake handler (token-guarded Gemini extraction).
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"cotizador/internal/http/middleware"
	"cotizador/internal/modules/intake"
)

type IntakeHandler struct {
	intake *intake.Service
}

func NewIntakeHandler(svc *intake.Service) *IntakeHandler {
	return &IntakeHandler{intake: svc}
}

type intakeReq struct {
	// UID is only read when the API runs without authentication.
	UID     string `json:"uid"`
	Client  string `json:"client"`
	Message string `json:"message"`
}

// Quote handles POST /api/intake.
func (h *IntakeHandler) Quote(c *gin.Context) {
	var req intakeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	uid := middleware.CallerUID(c)
	if uid == "" {
		uid = strings.TrimSpace(req.UID)
	}
	if uid == "" || strings.TrimSpace(req.Message) == "" {
		writeError(c, http.StatusBadRequest, "missing uid or message")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 20*time.Second)
	defer cancel()

	res, err := h.intake.Quote(ctx, uid, req.Client, req.Message)
	if err != nil {
		var incomplete *intake.IncompleteIntentError
		if errors.As(err, &incomplete) {
			writeJSON(c, http.StatusUnprocessableEntity, map[string]any{
				"error":   err.Error(),
				"missing": incomplete.Missing,
				"reply":   incomplete.Reply,
			})
			return
		}
		writeQuoteError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, res)
}
