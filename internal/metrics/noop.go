package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCardCreated is a no-op.
func (n *NoopRecorder) IncCardCreated() {}

// IncCardUpdated is a no-op.
func (n *NoopRecorder) IncCardUpdated() {}

// IncCardDeleted is a no-op.
func (n *NoopRecorder) IncCardDeleted() {}

// IncReconciliation is a no-op.
func (n *NoopRecorder) IncReconciliation() {}

// IncTagCreated is a no-op.
func (n *NoopRecorder) IncTagCreated() {}

// IncUserRegistered is a no-op.
func (n *NoopRecorder) IncUserRegistered() {}

// IncLoginSuccess is a no-op.
func (n *NoopRecorder) IncLoginSuccess() {}

// IncLoginFailure is a no-op.
func (n *NoopRecorder) IncLoginFailure() {}

// IncAuthCacheHit is a no-op.
func (n *NoopRecorder) IncAuthCacheHit() {}

// IncAuthCacheMiss is a no-op.
func (n *NoopRecorder) IncAuthCacheMiss() {}
