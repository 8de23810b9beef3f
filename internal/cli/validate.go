package cli

import (
	"io"
	"log/slog"

	"github.com/aretw0/studioflow"
)

// Validate checks a workflow document without running it and prints a
// confirmation. All problems are reported together in the returned error.
func Validate(out io.Writer, workflowPath string, logger *slog.Logger) error {
	w, err := studioflow.New(workflowPath, studioflow.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := w.Check(); err != nil {
		return err
	}
	printSystemMessage(out, "Workflow '%s' is valid", workflowPath)
	return nil
}
