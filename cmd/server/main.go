package main

import (
	"context"                           // Shutdown deadline
	"errors"                            // Server close detection
	"ledger_gateway/internal/api"       // HTTP surface
	"ledger_gateway/internal/bootstrap" // Config to collaborators
	"ledger_gateway/internal/config"    // Custom package for configuration
	"ledger_gateway/internal/gateway"   // Ledger access facade
	"ledger_gateway/internal/logging"   // Logger setup
	"ledger_gateway/internal/metrics"   // Prometheus metrics
	"ledger_gateway/internal/rpc"       // gRPC surface
	"net/http"                          // HTTP server
	"os"                                // Signals
	"os/signal"                         // Signal handling
	"syscall"                           // SIGTERM
	"time"                              // Shutdown timeout

	"github.com/prometheus/client_golang/prometheus" // Metrics registry
	"github.com/sirupsen/logrus"                     // Logrus for structured logging
)

// Main function to set up and run the gateway
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	closer := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,      // Minimum level
		JSON:       cfg.IsProd,        // JSON lines in production
		File:       cfg.LogFile,       // Optional rotated file
		MaxSizeMB:  cfg.LogMaxSizeMB,  // Rotation size
		MaxAgeDays: cfg.LogMaxAgeDays, // Retention
	})
	defer closer.Close()

	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Identity store and ledger connector
	store, closeStore, err := bootstrap.IdentityStore(context.Background(), cfg)
	if err != nil {
		logrus.Fatalf("failed to open identity store: %v", err)
	}
	defer closeStore()
	conn, err := bootstrap.Connector(cfg)
	if err != nil {
		logrus.Fatalf("failed to build ledger connector: %v", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer) // Gateway metrics
	svc := gateway.New(conn, store, bootstrap.GatewayConfig(cfg), gateway.WithMetrics(m))

	// gRPC surface
	grpcSrv := rpc.NewServer(svc, rpc.Options{
		JWTSecret:   cfg.JWTSecret, // Token verification
		RequireAuth: cfg.RPCAuth,   // Bearer token on every call
	})
	go func() {
		if err := rpc.Serve(grpcSrv, ":"+cfg.GRPCPort); err != nil {
			logrus.Fatalf("gRPC server failed: %v", err)
		}
	}()

	// HTTP surface
	httpSrv := &http.Server{
		Addr: ":" + cfg.AppPort,
		Handler: api.NewRouter(svc, api.RouterConfig{
			JWTSecret: cfg.JWTSecret,
			IsProd:    cfg.IsProd,
			Gatherer:  prometheus.DefaultGatherer,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logrus.WithField("addr", httpSrv.Addr).Info("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for SIGINT or SIGTERM, then drain both servers
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logrus.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout+5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown incomplete")
	}
	done := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop() // In-flight submissions finish
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}
	logrus.Info("Gateway stopped")
}
