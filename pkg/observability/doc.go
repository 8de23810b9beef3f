/*
Package observability provides metrics and tracing for workflow runs.

Both are exposed as domain.LifecycleHooks, so the execution engine and the
simulation runner report to them without knowing about Prometheus or
OpenTelemetry.
*/
package observability
