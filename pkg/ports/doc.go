/*
Package ports defines the driven ports (interfaces) of the workflow runner.

These interfaces decouple the run pipeline from external implementations, so run
records can be kept on disk, in Redis or in memory.

# Key Interfaces

  - RunStore: persists and loads run records.
  - DistributedLocker: guards a run directory against concurrent runs.
*/
package ports
