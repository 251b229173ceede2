package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/justsurfingit/jobboard/internal/auth"
	"github.com/justsurfingit/jobboard/internal/database"
	"github.com/justsurfingit/jobboard/internal/metrics"
	"github.com/justsurfingit/jobboard/internal/middleware"
	"github.com/justsurfingit/jobboard/internal/server"
	"github.com/justsurfingit/jobboard/internal/services"
)

func newServeCmd(e *env) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.cfg.Require("database_url", "jwt_secret"); err != nil {
				return err
			}
			db, err := e.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB(db, e.log)
			if migrate {
				if err := database.Migrate(db); err != nil {
					return err
				}
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			var limiter middleware.Limiter = middleware.NewMemoryLimiter(e.cfg.ApplyRateLimit, e.cfg.ApplyRateWindow)
			if e.cfg.RedisAddr != "" {
				client := redis.NewClient(&redis.Options{Addr: e.cfg.RedisAddr})
				defer client.Close()
				limiter = middleware.NewRedisLimiter(client, e.cfg.ApplyRateLimit, e.cfg.ApplyRateWindow, "apply")
			}

			generator, err := services.NewGeminiGenerator(ctx, e.cfg.GeminiAPIKey, e.cfg.GeminiModel)
			if err != nil {
				return err
			}
			if generator == nil {
				e.log.Warn("GEMINI_API_KEY not set, job extraction disabled")
			}

			gin.SetMode(gin.ReleaseMode)
			router := server.NewRouter(server.Options{
				DB:             db,
				Log:            e.log,
				Tokens:         auth.NewTokens(e.cfg.JWTSecret, e.cfg.JWTTTL),
				Registry:       reg,
				Metrics:        metrics.New(reg),
				Generator:      generator,
				ApplyLimiter:   limiter,
				ApplyWindow:    e.cfg.ApplyRateWindow,
				AllowedOrigins: e.cfg.AllowedOrigins(),
				PageSize:       e.cfg.PageSize,
				MediaRoot:      e.cfg.MediaRoot,
				MaxUploadBytes: e.cfg.MaxUploadBytes,
			})

			srv := &http.Server{
				Addr:              ":" + e.cfg.HTTPPort,
				Handler:           http.TimeoutHandler(router, e.cfg.RequestTimeout, `{"error":{"kind":"internal","code":"timeout","message":"request timed out"}}`),
				ReadHeaderTimeout: 5 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				e.log.WithField("addr", srv.Addr).Info("server starting")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			e.log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving")
	return cmd
}
