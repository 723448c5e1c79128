// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Card management metrics
	IncCardCreated()
	IncCardUpdated()
	IncCardDeleted()

	// Tag reconciliation metrics
	IncReconciliation()
	IncTagCreated()

	// Authentication metrics
	IncUserRegistered()
	IncLoginSuccess()
	IncLoginFailure()
	IncAuthCacheHit()
	IncAuthCacheMiss()
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
