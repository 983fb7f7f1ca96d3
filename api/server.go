package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

const shutdownTimeout = 5 * time.Second

type server struct {
	cfg    Config
	logger *slog.Logger
}

func NewServer(cfg Config, logger *slog.Logger) (*server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &server{
		cfg:    cfg,
		logger: logger,
	}, nil
}

func (s *server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/healthcheck", s.healthCheckHandler)

	mux.HandleFunc("POST /api/queries/parse", s.parseQueryHandler)
	mux.HandleFunc("POST /api/queries/compose", s.composeQueryHandler)
	mux.HandleFunc("POST /api/queries/validate", s.validateQueryHandler)
	mux.HandleFunc("POST /api/queries/variables", s.variablesHandler)
	mux.HandleFunc("POST /api/queries/bind", s.bindQueryHandler)

	return s.recoverPanicMiddleware(s.requestIDMiddleware(s.requestLoggerMiddleware(s.corsMiddleware(mux))))
}

func (s *server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down server", "addr", s.cfg.Addr)

		// ctx is already done here; in-flight requests get a grace period.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shutdown server", "addr", s.cfg.Addr, "error", err)
		}
	}()

	var serverErr error
	if s.cfg.CertFile != "" && s.cfg.KeyFile != "" {
		s.logger.Info("starting server with TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServeTLS(s.cfg.CertFile, s.cfg.KeyFile)
	} else {
		s.logger.Info("starting server without TLS", "addr", s.cfg.Addr)
		serverErr = srv.ListenAndServe()
	}

	if serverErr != nil && serverErr != http.ErrServerClosed {
		return serverErr
	}

	return nil
}
