package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/studioflow"
	"github.com/aretw0/studioflow/internal/config"
	"github.com/aretw0/studioflow/internal/runtime"
	httpadapter "github.com/aretw0/studioflow/pkg/adapters/http"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/observability"
)

const shutdownTimeout = 5 * time.Second

// Launcher runs submitted workflows in the background. Runs outlive the
// request that started them and are cancelled by Shutdown.
type Launcher struct {
	base    context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	options func() []studioflow.Option
	logger  *slog.Logger
	// workingDir resolves relative workflow paths. It is read once so that a
	// run holding the process in its own directory cannot redirect them.
	workingDir string
}

// NewLauncher creates a launcher whose runs share the options returned by
// options.
func NewLauncher(logger *slog.Logger, options func() []studioflow.Option) *Launcher {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Launcher{base: ctx, cancel: cancel, options: options, logger: logger}
	if wd, err := runtime.Getwd(); err == nil {
		l.workingDir = wd
	} else {
		logger.Warn("failed to read working directory", "err", err)
	}
	return l
}

// Launch implements httpadapter.Launcher.
func (l *Launcher) Launch(_ context.Context, req httpadapter.RunRequest, hooks domain.LifecycleHooks) (string, error) {
	if err := l.base.Err(); err != nil {
		return "", fmt.Errorf("launcher stopped: %w", err)
	}
	id := uuid.NewString()
	opts := append(l.options(),
		studioflow.WithRunID(id),
		studioflow.WithHooks(hooks),
		studioflow.WithMeasuresOnly(req.MeasuresOnly),
		studioflow.WithPostProcessOnly(req.PostProcessOnly),
	)
	if l.workingDir != "" {
		opts = append(opts, studioflow.WithWorkingDir(l.workingDir))
	}
	w, err := studioflow.New(req.WorkflowPath, opts...)
	if err != nil {
		return "", err
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if _, err := w.Run(l.base); err != nil {
			l.logger.Warn("background run failed", "run_id", id, "err", err)
		}
	}()
	return id, nil
}

// Shutdown cancels running workflows and waits for them to record their
// final state, or for ctx to end.
func (l *Launcher) Shutdown(ctx context.Context) error {
	l.cancel()
	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NewServer wires the run API: store, launcher, metrics and tracing. The
// returned cleanup stops background runs and flushes traces.
func NewServer(cfg config.Config, logger *slog.Logger, version string) (http.Handler, func(context.Context) error, error) {
	backend, err := OpenBackend(cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	tp, err := observability.NewTracerProvider(cfg.Tracing)
	if err != nil {
		return nil, nil, errors.Join(err, backend.Close())
	}
	base, err := workflowOptions(cfg, logger, backend)
	if err != nil {
		return nil, nil, errors.Join(err, backend.Close())
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	launcher := NewLauncher(logger, func() []studioflow.Option {
		return append(append([]studioflow.Option(nil), base...),
			studioflow.WithMetrics(metrics),
			studioflow.WithTracer(tp.Tracer()),
		)
	})

	srv := httpadapter.NewServer(backend.Store,
		httpadapter.WithLauncher(launcher),
		httpadapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		httpadapter.WithVersion(version),
		httpadapter.WithLogger(logger),
	)

	cleanup := func(ctx context.Context) error {
		return errors.Join(launcher.Shutdown(ctx), tp.Shutdown(ctx), backend.Close())
	}
	return srv.Handler(), cleanup, nil
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, out io.Writer, addr string, cfg config.Config, logger *slog.Logger, version string) error {
	handler, cleanup, err := NewServer(cfg, logger, version)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		printSystemMessage(out, "Starting studioflow server on %s", addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(fmt.Errorf("server error: %w", err), cleanup(shutdownCtx))

	case <-ctx.Done():
		printSystemMessage(out, "Start shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				logger.Error("error killing server", "err", err)
			}
		}
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn("cleanup incomplete", "err", err)
		}
		printSystemMessage(out, "Server stopped gracefully")
		return nil
	}
}
