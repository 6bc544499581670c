// README: API server; owns the http.Server lifecycle around the gin router.
package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"cotizador/internal/infra"
	"cotizador/internal/modules/intake"
	"cotizador/internal/modules/location"
	"cotizador/internal/modules/quote"
)

type ServerDeps struct {
	Quotes   *quote.Service
	Location *location.Service
	// Intake is nil when no Gemini key is configured.
	Intake *intake.Service
	// Verifier is nil when authentication is disabled.
	Verifier infra.TokenVerifier
}

type Server struct {
	srv *http.Server
}

func NewServer(addr string, deps ServerDeps) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("http listening on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
