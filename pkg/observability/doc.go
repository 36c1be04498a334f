/*
Package observability exposes Portico activity as Prometheus metrics.

Metrics are fed by domain.LifecycleHooks, so they can be combined with any
other hook set through domain.MergeHooks.
*/
package observability
