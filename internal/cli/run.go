package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"

	"github.com/aretw0/studioflow"
	"github.com/aretw0/studioflow/internal/compiler"
	"github.com/aretw0/studioflow/internal/config"
	"github.com/aretw0/studioflow/internal/presentation/tui"
	"github.com/aretw0/studioflow/pkg/adapters/process"
	"github.com/aretw0/studioflow/pkg/domain"
	"github.com/aretw0/studioflow/pkg/observability"
)

// RunOptions holds the flags of the run command.
type RunOptions struct {
	WorkflowPath    string
	MeasuresOnly    bool
	PostProcessOnly bool
	// OutputsFile lists the output variables whose values become objective
	// functions.
	OutputsFile string
	JSON        bool
	Config      config.Config
}

// Run executes one workflow and prints its record to out: a rendered
// summary on a terminal, plain markdown otherwise, or JSON when asked.
func Run(ctx context.Context, out io.Writer, opts RunOptions) (*domain.RunRecord, error) {
	cfg := opts.Config
	logger, err := NewLogger(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return nil, err
	}

	backend, err := OpenBackend(cfg.Store)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close store", "err", err)
		}
	}()

	tp, err := observability.NewTracerProvider(cfg.Tracing)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to flush traces", "err", err)
		}
	}()

	wopts, err := workflowOptions(cfg, logger, backend)
	if err != nil {
		return nil, err
	}
	wopts = append(wopts,
		studioflow.WithTracer(tp.Tracer()),
		studioflow.WithMeasuresOnly(opts.MeasuresOnly),
		studioflow.WithPostProcessOnly(opts.PostProcessOnly),
	)
	if cfg.Debug {
		wopts = append(wopts, studioflow.WithHooks(debugHooks(logger)))
	}
	if opts.OutputsFile != "" {
		outputs, err := compiler.NewParser().ParseOutputsFile(opts.OutputsFile)
		if err != nil {
			return nil, err
		}
		wopts = append(wopts, studioflow.WithObjectives(outputs))
	}

	w, err := studioflow.New(opts.WorkflowPath, wopts...)
	if err != nil {
		return nil, err
	}

	rec, runErr := w.Run(ctx)
	if rec != nil {
		if err := printRecord(out, rec, opts.JSON); err != nil {
			logger.Warn("failed to print run summary", "err", err)
		}
	}
	if isInterrupted(runErr) && rec != nil {
		printSystemMessage(os.Stderr, "Run interrupted. Record kept as %s", rec.ID)
	}
	return rec, runErr
}

// workflowOptions maps the configuration onto facade options shared by the
// run command and the server.
func workflowOptions(cfg config.Config, logger *slog.Logger, backend *Backend) ([]studioflow.Option, error) {
	opts := []studioflow.Option{
		studioflow.WithLogger(logger),
		studioflow.WithEnginePath(cfg.EnergyPlusPath),
		studioflow.WithTimeout(cfg.Timeout),
		studioflow.WithDebug(cfg.Debug),
		studioflow.WithStore(backend.Store),
		studioflow.WithLocker(backend.Locker),
	}
	if cfg.CommandsFile != "" {
		cmds, err := process.LoadCommands(cfg.CommandsFile)
		if err != nil {
			return nil, err
		}
		opts = append(opts, studioflow.WithCommands(cmds))
	}
	return opts, nil
}

func printRecord(out io.Writer, rec *domain.RunRecord, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	summary := tui.Summary(rec)
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		rendered, err := tui.NewRenderer()(summary)
		if err == nil {
			summary = rendered
		}
	}
	_, err := fmt.Fprint(out, summary)
	return err
}
