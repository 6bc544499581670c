// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"cotizador/internal/http/handlers"
	"cotizador/internal/http/middleware"
	"cotizador/internal/infra"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.Logging())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")
	staffOnly := []gin.HandlerFunc{}
	if deps.Verifier != nil {
		api.Use(middleware.Auth(deps.Verifier))
		staffOnly = append(staffOnly, middleware.RequireRole(infra.RoleStaff))
	}

	rates := handlers.NewRatesHandler(deps.Quotes.Engine())
	api.GET("/rates", rates.Get)

	municipalities := handlers.NewMunicipalityHandler(deps.Location)
	api.GET("/municipalities", municipalities.Search)
	api.GET("/municipalities/nearest", municipalities.Nearest)
	api.GET("/municipalities/resolve", municipalities.Resolve)

	quotes := handlers.NewQuoteHandler(deps.Quotes)
	api.POST("/quotes", quotes.Create)
	api.GET("/quotes", quotes.List)
	api.GET("/quotes/export", append(staffOnly, quotes.Export)...)
	api.GET("/quotes/:id", quotes.Get)
	api.GET("/quotes/:id/pdf", quotes.PDF)
	api.GET("/quotes/:id/xlsx", quotes.XLSX)

	if deps.Intake != nil {
		intake := handlers.NewIntakeHandler(deps.Intake)
		api.POST("/intake", intake.Quote)
	}
	return r
}
