/*
Package domain contains the core data model of the measure workflow engine.

It defines the workflow specification consumed from disk, the measure kinds and run
phases that constrain step ordering, the per-step measure results and the run
records persisted for external callers. This package is kept free of I/O so every
other package can depend on it.

# Key Entities

  - WorkflowSpec: the ordered list of Steps plus directory and search-path settings.
  - Step: a reference to a measure directory with its ordered argument overrides.
  - MeasureKind / Phase: the three capability contracts and the monotonic run phases.
  - MeasureResult: attributes, applicability and diagnostics produced by one step.
  - RunRecord: the persisted outcome of a whole run.
  - Error: a tagged error carrying the failing step, measure and path.
*/
package domain
