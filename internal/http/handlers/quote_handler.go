// README: Quote handlers: create, fetch, list and PDF/XLSX downloads.
package handlers

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cotizador/internal/export"
	"cotizador/internal/modules/quote"
	"cotizador/internal/types"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type QuoteHandler struct {
	quotes *quote.Service
	now    func() time.Time
}

func NewQuoteHandler(svc *quote.Service) *QuoteHandler {
	return &QuoteHandler{quotes: svc, now: time.Now}
}

// Create handles POST /api/quotes.
func (h *QuoteHandler) Create(c *gin.Context) {
	var req quote.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	rec, err := h.quotes.Create(c.Request.Context(), req)
	if err != nil {
		writeQuoteError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, rec)
}

// Get handles GET /api/quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	writeJSON(c, http.StatusOK, rec)
}

// List handles GET /api/quotes?client=&limit=.
func (h *QuoteHandler) List(c *gin.Context) {
	recs, ok := h.list(c)
	if !ok {
		return
	}
	if recs == nil {
		recs = []quote.Record{}
	}
	writeJSON(c, http.StatusOK, map[string]any{"quotes": recs})
}

// PDF handles GET /api/quotes/:id/pdf.
func (h *QuoteHandler) PDF(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WritePDF(&buf, rec); err != nil {
		writeQuoteError(c, err)
		return
	}
	attachment(c, export.PDFFileName(rec), "application/pdf", buf.Bytes())
}

// XLSX handles GET /api/quotes/:id/xlsx. The single-quote sheet omits the breakdown.
func (h *QuoteHandler) XLSX(c *gin.Context) {
	rec, ok := h.load(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, []quote.Record{*rec}, false); err != nil {
		writeQuoteError(c, err)
		return
	}
	attachment(c, "cotizacion_"+string(rec.ID)+".xlsx", xlsxContentType, buf.Bytes())
}

// Export handles GET /api/quotes/export?client=&limit=: the history workbook
// with breakdowns.
func (h *QuoteHandler) Export(c *gin.Context) {
	recs, ok := h.list(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, recs, true); err != nil {
		writeQuoteError(c, err)
		return
	}
	attachment(c, export.DailyWorkbookName(h.now()), xlsxContentType, buf.Bytes())
}

func (h *QuoteHandler) load(c *gin.Context) (*quote.Record, bool) {
	id := c.Param("id")
	if !isValidQuoteID(id) {
		writeError(c, http.StatusBadRequest, "invalid quote id")
		return nil, false
	}
	rec, err := h.quotes.Get(c.Request.Context(), types.ID(id))
	if err != nil {
		writeQuoteError(c, err)
		return nil, false
	}
	return rec, true
}

func (h *QuoteHandler) list(c *gin.Context) ([]quote.Record, bool) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		writeError(c, http.StatusBadRequest, "invalid limit")
		return nil, false
	}
	recs, err := h.quotes.List(c.Request.Context(), c.Query("client"), limit)
	if err != nil {
		writeQuoteError(c, err)
		return nil, false
	}
	return recs, true
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}
