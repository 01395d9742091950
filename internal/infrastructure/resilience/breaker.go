package resilience

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// BreakerState is the circuit breaker state
type BreakerState string

const (
	StateClosed   BreakerState = "CLOSED"
	StateOpen     BreakerState = "OPEN"
	StateHalfOpen BreakerState = "HALF_OPEN"
)

// String returns the string representation of BreakerState
func (s BreakerState) String() string {
	return string(s)
}

// DefaultOpenTimeout is how long an open breaker waits before probing
const DefaultOpenTimeout = 60 * time.Second

// StateChangeFunc is invoked after a breaker transition, outside the lock
type StateChangeFunc func(configID uuid.UUID, from, to BreakerState)

// CircuitBreaker tracks consecutive outcomes for one connector configuration.
// Failures in CLOSED count toward FailureThreshold; reaching it opens the
// circuit. After OpenTimeout the next Allow moves to HALF_OPEN, where
// SuccessThreshold consecutive successes close the circuit and any failure
// reopens it. Counters reset on every transition.
type CircuitBreaker struct {
	mu sync.Mutex

	configID         uuid.UUID
	failureThreshold int
	successThreshold int
	openTimeout      time.Duration
	onStateChange    StateChangeFunc

	state     BreakerState
	failures  int
	successes int
	openedAt  time.Time

	now func() time.Time
}

// BreakerSettings configures a circuit breaker
type BreakerSettings struct {
	FailureThreshold int
	SuccessThreshold int
	OpenTimeout      time.Duration
	OnStateChange    StateChangeFunc
}

// NewCircuitBreaker creates a closed breaker for the given configuration
func NewCircuitBreaker(configID uuid.UUID, settings BreakerSettings) *CircuitBreaker {
	if settings.FailureThreshold <= 0 {
		settings.FailureThreshold = 5
	}
	if settings.SuccessThreshold <= 0 {
		settings.SuccessThreshold = 2
	}
	if settings.OpenTimeout <= 0 {
		settings.OpenTimeout = DefaultOpenTimeout
	}
	return &CircuitBreaker{
		configID:         configID,
		failureThreshold: settings.FailureThreshold,
		successThreshold: settings.SuccessThreshold,
		openTimeout:      settings.OpenTimeout,
		onStateChange:    settings.OnStateChange,
		state:            StateClosed,
		now:              time.Now,
	}
}

// State returns the current state, promoting OPEN to HALF_OPEN if the
// open timeout has elapsed.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	state, notify := b.stateLocked()
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
	return state
}

// Allow reports whether a call may proceed. An expired OPEN breaker
// transitions to HALF_OPEN and admits the probe.
func (b *CircuitBreaker) Allow() bool {
	b.mu.Lock()
	state, notify := b.stateLocked()
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
	return state != StateOpen
}

// RecordSuccess records a successful call outcome
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	var notify func()
	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.successThreshold {
			notify = b.transitionLocked(StateClosed)
		}
	}
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}

// RecordFailure records a failed call outcome
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	var notify func()
	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.failureThreshold {
			notify = b.transitionLocked(StateOpen)
		}
	case StateHalfOpen:
		notify = b.transitionLocked(StateOpen)
	}
	b.mu.Unlock()
	if notify != nil {
		notify()
	}
}

func (b *CircuitBreaker) stateLocked() (BreakerState, func()) {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		return StateHalfOpen, b.transitionLocked(StateHalfOpen)
	}
	return b.state, nil
}

// transitionLocked moves to the target state, resets counters, and returns
// the deferred state-change notification. Callers must hold b.mu and invoke
// the returned func after unlocking.
func (b *CircuitBreaker) transitionLocked(to BreakerState) func() {
	from := b.state
	b.state = to
	b.failures = 0
	b.successes = 0
	if to == StateOpen {
		b.openedAt = b.now()
	}
	if b.onStateChange == nil || from == to {
		return nil
	}
	callback := b.onStateChange
	configID := b.configID
	return func() { callback(configID, from, to) }
}

// BreakerRegistry holds one breaker per connector configuration
type BreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[uuid.UUID]*CircuitBreaker
	settings BreakerSettings
}

// NewBreakerRegistry creates a registry using the given default settings
func NewBreakerRegistry(settings BreakerSettings) *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[uuid.UUID]*CircuitBreaker),
		settings: settings,
	}
}

// Get returns the breaker for a configuration, creating it on first use
func (r *BreakerRegistry) Get(configID uuid.UUID) *CircuitBreaker {
	r.mu.RLock()
	breaker, ok := r.breakers[configID]
	r.mu.RUnlock()
	if ok {
		return breaker
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if breaker, ok = r.breakers[configID]; ok {
		return breaker
	}
	breaker = NewCircuitBreaker(configID, r.settings)
	r.breakers[configID] = breaker
	return breaker
}

// GetWithThresholds returns the breaker for a configuration, creating it
// with connector-specific thresholds and an optional state-change hook on
// first use. The hook is not replaced on an existing breaker.
func (r *BreakerRegistry) GetWithThresholds(configID uuid.UUID, failureThreshold, successThreshold int, onStateChange StateChangeFunc) *CircuitBreaker {
	r.mu.RLock()
	breaker, ok := r.breakers[configID]
	r.mu.RUnlock()
	if ok {
		return breaker
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if breaker, ok = r.breakers[configID]; ok {
		return breaker
	}
	settings := r.settings
	if failureThreshold > 0 {
		settings.FailureThreshold = failureThreshold
	}
	if successThreshold > 0 {
		settings.SuccessThreshold = successThreshold
	}
	if onStateChange != nil {
		settings.OnStateChange = onStateChange
	}
	breaker = NewCircuitBreaker(configID, settings)
	r.breakers[configID] = breaker
	return breaker
}

// Remove drops the breaker for a configuration, if present
func (r *BreakerRegistry) Remove(configID uuid.UUID) {
	r.mu.Lock()
	delete(r.breakers, configID)
	r.mu.Unlock()
}
