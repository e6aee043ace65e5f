package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	appai "github.com/bryanwahyu/exploitsearch/internal/application/ai"
	"github.com/bryanwahyu/exploitsearch/internal/infra/httpserver"
	"github.com/bryanwahyu/exploitsearch/internal/middleware"
)

func newServeCmd(c *cli) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				c.cfg.Server.Port = port
			}
			return runServe(cmd.Context(), c)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}

func runServe(ctx context.Context, c *cli) error {
	a := buildApp(ctx, c.cfg)
	defer a.Close()

	metrics := middleware.Global()
	a.ai.OnSettled = func(res appai.Result, applied bool) {
		metrics.AnalysisSettled(!res.OK(), applied)
	}

	checkers := map[string]middleware.HealthChecker{
		"catalog": middleware.CatalogHealthChecker{Len: a.exploits.Catalog.Len},
	}
	if a.db != nil {
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: a.db}
	}

	handler := httpserver.NewRouter(a.exploits, a.ai, httpserver.Options{
		Auth: middleware.AuthConfig{
			Token:     c.cfg.Server.AuthToken,
			JWTSecret: []byte(c.cfg.Server.JWTSecret),
		},
		CORSOrigins:  c.cfg.Server.CORSOrigins,
		RateCapacity: c.cfg.Server.RateLimit.Capacity,
		RateRefill:   c.cfg.Server.RateLimit.Refill,
		Checkers:     checkers,
	})

	addr := fmt.Sprintf(":%d", c.cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("server listening on %s ai_enabled=%t", addr, a.ai.Enabled())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	// graceful shutdown
	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	return nil
}
