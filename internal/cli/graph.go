package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/studioflow"
	"github.com/aretw0/studioflow/internal/config"
	"github.com/aretw0/studioflow/internal/presentation/graph"
)

// Graph prints the Mermaid flowchart of a workflow plan. When runID is set
// the steps of that stored run are styled as completed or failed.
func Graph(ctx context.Context, out io.Writer, workflowPath, runID string, cfg config.Config, logger *slog.Logger) error {
	w, err := studioflow.New(workflowPath, studioflow.WithLogger(logger))
	if err != nil {
		return err
	}
	plan, err := w.Validate()
	if err != nil {
		return err
	}

	var overlay *graph.Overlay
	if runID != "" {
		backend, err := OpenBackend(cfg.Store)
		if err != nil {
			return err
		}
		defer backend.Close()

		rec, err := backend.Store.Load(ctx, runID)
		if err != nil {
			return fmt.Errorf("load run %s: %w", runID, err)
		}
		overlay = graph.OverlayFromRecord(rec)
	}

	_, err = fmt.Fprint(out, graph.GenerateMermaid(plan.Steps, overlay))
	return err
}
