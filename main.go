package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/EmpoweredVote/EV-FieldRecords/internal/config"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/db"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/fields"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/geometry"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/logging"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/observations"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/routes"
	"github.com/EmpoweredVote/EV-FieldRecords/internal/spatial"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	conn, err := db.Connect(connectCtx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(conn) }()

	if err := fields.Init(conn); err != nil {
		return err
	}
	if err := observations.Init(conn); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := spatial.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	gw := spatial.NewGateway(conn, spatial.WithLogger(log.Named("spatial")), spatial.WithMetrics(metrics))
	codec := geometry.Codec{CheckRange: cfg.CheckCoordinateRange}

	fieldRepo := fields.NewRepository(gw, codec)
	obsRepo := observations.NewRepository(gw, codec,
		observations.Strict(cfg.ReferentialMode == config.ReferentialStrict))

	handler := routes.NewRouter(routes.Deps{
		Fields:         fields.NewHandler(fieldRepo, log.Named("fields")),
		Observations:   observations.NewHandler(obsRepo, log.Named("observations")),
		Health:         gw,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		WriteRateLimit: cfg.WriteRateLimit,
		WriteBurst:     cfg.WriteBurst,
		Gatherer:       reg,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening",
			zap.String("addr", srv.Addr),
			zap.String("referential_mode", string(cfg.ReferentialMode)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
