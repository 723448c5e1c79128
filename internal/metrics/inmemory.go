package metrics

import "sync/atomic"

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CardsCreated    uint64
	CardsUpdated    uint64
	CardsDeleted    uint64
	Reconciliations uint64
	TagsCreated     uint64
	UsersRegistered uint64
	LoginSuccesses  uint64
	LoginFailures   uint64
	AuthCacheHits   uint64
	AuthCacheMisses uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	cardsCreated    uint64
	cardsUpdated    uint64
	cardsDeleted    uint64
	reconciliations uint64
	tagsCreated     uint64
	usersRegistered uint64
	loginSuccesses  uint64
	loginFailures   uint64
	authCacheHits   uint64
	authCacheMisses uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		CardsCreated:    atomic.LoadUint64(&m.cardsCreated),
		CardsUpdated:    atomic.LoadUint64(&m.cardsUpdated),
		CardsDeleted:    atomic.LoadUint64(&m.cardsDeleted),
		Reconciliations: atomic.LoadUint64(&m.reconciliations),
		TagsCreated:     atomic.LoadUint64(&m.tagsCreated),
		UsersRegistered: atomic.LoadUint64(&m.usersRegistered),
		LoginSuccesses:  atomic.LoadUint64(&m.loginSuccesses),
		LoginFailures:   atomic.LoadUint64(&m.loginFailures),
		AuthCacheHits:   atomic.LoadUint64(&m.authCacheHits),
		AuthCacheMisses: atomic.LoadUint64(&m.authCacheMisses),
	}
}

// IncCardCreated increments the cards created counter.
func (m *InMemoryRecorder) IncCardCreated() {
	atomic.AddUint64(&m.cardsCreated, 1)
}

// IncCardUpdated increments the cards updated counter.
func (m *InMemoryRecorder) IncCardUpdated() {
	atomic.AddUint64(&m.cardsUpdated, 1)
}

// IncCardDeleted increments the cards deleted counter.
func (m *InMemoryRecorder) IncCardDeleted() {
	atomic.AddUint64(&m.cardsDeleted, 1)
}

// IncReconciliation increments the reconciliations counter.
func (m *InMemoryRecorder) IncReconciliation() {
	atomic.AddUint64(&m.reconciliations, 1)
}

// IncTagCreated increments the tags created counter.
func (m *InMemoryRecorder) IncTagCreated() {
	atomic.AddUint64(&m.tagsCreated, 1)
}

// IncUserRegistered increments the users registered counter.
func (m *InMemoryRecorder) IncUserRegistered() {
	atomic.AddUint64(&m.usersRegistered, 1)
}

// IncLoginSuccess increments the login success counter.
func (m *InMemoryRecorder) IncLoginSuccess() {
	atomic.AddUint64(&m.loginSuccesses, 1)
}

// IncLoginFailure increments the login failure counter.
func (m *InMemoryRecorder) IncLoginFailure() {
	atomic.AddUint64(&m.loginFailures, 1)
}

// IncAuthCacheHit increments the auth cache hit counter.
func (m *InMemoryRecorder) IncAuthCacheHit() {
	atomic.AddUint64(&m.authCacheHits, 1)
}

// IncAuthCacheMiss increments the auth cache miss counter.
func (m *InMemoryRecorder) IncAuthCacheMiss() {
	atomic.AddUint64(&m.authCacheMisses, 1)
}
