// Package circuitbreaker protects upstream platform APIs from repeated calls
// while they are failing.
package circuitbreaker

import (
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state
type State string

const (
	// StateClosed means requests are allowed
	StateClosed State = "closed"
	// StateOpen means requests are blocked until the cooldown elapses
	StateOpen State = "open"
	// StateHalfOpen means probe requests are allowed through
	StateHalfOpen State = "half_open"
)

// ErrCircuitOpen is returned when the circuit breaker is open
var ErrCircuitOpen = errors.New("circuit breaker is open")

// Config configures a circuit breaker
type Config struct {
	MaxFailures int           // Consecutive failures before opening
	Cooldown    time.Duration // Time to wait before allowing a probe
}

// DefaultConfig returns a default circuit breaker configuration
func DefaultConfig() *Config {
	return &Config{
		MaxFailures: 5,
		Cooldown:    30 * time.Second,
	}
}

// CircuitBreaker trips after a run of consecutive failures and lets probes
// through once the cooldown has elapsed. A successful probe closes the
// circuit; a failed one restarts the cooldown.
type CircuitBreaker struct {
	maxFailures int
	cooldown    time.Duration

	mu               sync.Mutex
	state            State
	consecutiveFails int
	openedAt         time.Time

	// now is replaceable in tests
	now func() time.Time
}

// New creates a new circuit breaker
func New(config *Config) *CircuitBreaker {
	if config == nil {
		config = DefaultConfig()
	}
	return &CircuitBreaker{
		maxFailures: config.MaxFailures,
		cooldown:    config.Cooldown,
		state:       StateClosed,
		now:         time.Now,
	}
}

// Allow reports whether a request may proceed. In the open state it flips to
// half-open once the cooldown has elapsed, admitting one probe.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == StateOpen {
		if cb.now().Sub(cb.openedAt) < cb.cooldown {
			return ErrCircuitOpen
		}
		cb.state = StateHalfOpen
	}
	return nil
}

// Record feeds the outcome of an admitted request back into the breaker.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		cb.state = StateClosed
		cb.consecutiveFails = 0
		return
	}

	cb.consecutiveFails++
	if cb.state == StateHalfOpen || cb.consecutiveFails >= cb.maxFailures {
		cb.state = StateOpen
		cb.openedAt = cb.now()
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}
