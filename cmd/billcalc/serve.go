package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/billcalc/internal/api"
	"github.com/mmynk/billcalc/internal/auth"
	"github.com/mmynk/billcalc/internal/config"
	"github.com/mmynk/billcalc/internal/metrics"
	"github.com/mmynk/billcalc/internal/middleware"
	"github.com/mmynk/billcalc/internal/service"
	"github.com/mmynk/billcalc/internal/storage"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Connect RPC server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringP("addr", "a", "", "Listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	logger.Info("Storage initialized", "driver", cfg.Database.Driver)

	if cfg.UsesDevSecret() {
		logger.Warn("Using the development JWT secret; set auth.jwt_secret or BILLCALC_JWT_SECRET")
	}

	handler, err := newHandler(cfg, store)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr: cfg.Server.Addr,
		// h2c serves HTTP/2 without TLS, which Connect clients use.
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Connect server starting", "address", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newHandler wires services, interceptors and plain HTTP endpoints.
func newHandler(cfg config.Config, store storage.Store) (http.Handler, error) {
	ttl, err := cfg.TokenTTL()
	if err != nil {
		return nil, err
	}
	defaultMode, err := cfg.DefaultMode()
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, ttl)

	authSvc := service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, logger)
	calcSvc := service.NewCalculatorService(store, logger,
		service.WithMetrics(m),
		service.WithDefaults(service.Defaults{Mode: defaultMode, TaxRate: cfg.Calculator.DefaultTaxRate}),
	)

	mux := http.NewServeMux()
	authPath, authHandler := api.NewAuthServiceHandler(authSvc,
		connect.WithInterceptors(m.Interceptor(), middleware.LoggingInterceptor(logger)),
	)
	mux.Handle(authPath, authHandler)

	calcPath, calcHandler := api.NewCalculatorServiceHandler(calcSvc,
		connect.WithInterceptors(
			m.Interceptor(),
			middleware.RequireAuth(jwtManager),
			middleware.LoggingInterceptor(logger),
		),
	)
	mux.Handle(calcPath, calcHandler)

	mux.Handle("/metrics", m.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return loggingMiddleware(corsMiddleware(mux)), nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
