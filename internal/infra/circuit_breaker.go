package infra

import (
	"errors"
	"fmt"
	"net/textproto"
	"sync"
	"time"

	"retailworks/internal/metrics"

	"github.com/rs/zerolog/log"
)

// ── Relay circuit breaker ─────────────────────────────────────────────────────
// Guards the SMTP relay shared by reorder alerts and commission statements.
// Only failures that say something about the relay count toward tripping:
// dial errors, timeouts and 4xx replies. A 5xx reply rejects one message
// (unknown mailbox, policy) while the relay itself is healthy.
//
//   closed    sends pass through
//   open      sends fail with ErrRelayUnavailable until the cool-down ends
//   half-open a single trial send is let through; the rest fail fast

type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrRelayUnavailable = errors.New("smtp relay unavailable")

// RelayBreakerConfig tunes a RelayBreaker. Zero values take the defaults.
type RelayBreakerConfig struct {
	Name      string
	Threshold int           // consecutive relay failures before opening (3)
	CoolDown  time.Duration // time spent open before a trial send (30s)
}

// IsRelayFailure reports whether err points at the relay rather than at the
// message being sent.
func IsRelayFailure(err error) bool {
	if err == nil {
		return false
	}
	var reply *textproto.Error
	if errors.As(err, &reply) {
		return reply.Code < 500 || reply.Code >= 600
	}
	return true
}

type RelayBreaker struct {
	mu        sync.Mutex
	name      string
	threshold int
	coolDown  time.Duration
	now       func() time.Time

	state    CircuitState
	failures int
	openedAt time.Time
	trialing bool
}

func NewRelayBreaker(cfg RelayBreakerConfig) *RelayBreaker {
	if cfg.Name == "" {
		cfg.Name = "smtp"
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 3
	}
	if cfg.CoolDown <= 0 {
		cfg.CoolDown = 30 * time.Second
	}
	b := &RelayBreaker{name: cfg.Name, threshold: cfg.Threshold, coolDown: cfg.CoolDown, now: time.Now}
	metrics.RelayCircuitState.WithLabelValues(b.name).Set(float64(CircuitClosed))
	return b
}

// State reports the current state, moving open to half-open once the
// cool-down has elapsed.
func (b *RelayBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.coolDownElapsed()
	return b.state
}

func (b *RelayBreaker) coolDownElapsed() {
	if b.state == CircuitOpen && b.now().Sub(b.openedAt) >= b.coolDown {
		b.moveTo(CircuitHalfOpen)
	}
}

// Do runs send unless the relay is considered down.
func (b *RelayBreaker) Do(send func() error) error {
	b.mu.Lock()
	b.coolDownElapsed()
	switch {
	case b.state == CircuitOpen:
		b.mu.Unlock()
		return fmt.Errorf("%w: %s circuit open", ErrRelayUnavailable, b.name)
	case b.state == CircuitHalfOpen && b.trialing:
		b.mu.Unlock()
		return fmt.Errorf("%w: %s trial send in flight", ErrRelayUnavailable, b.name)
	case b.state == CircuitHalfOpen:
		b.trialing = true
	}
	b.mu.Unlock()

	err := send()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.trialing = false
	if IsRelayFailure(err) {
		b.failures++
		if b.state == CircuitHalfOpen || b.failures >= b.threshold {
			b.openedAt = b.now()
			b.moveTo(CircuitOpen)
		}
		return err
	}
	b.failures = 0
	if b.state == CircuitHalfOpen {
		b.moveTo(CircuitClosed)
	}
	return err
}

func (b *RelayBreaker) moveTo(to CircuitState) {
	if b.state == to {
		return
	}
	log.Warn().Str("breaker", b.name).Str("from", b.state.String()).Str("to", to.String()).
		Int("failures", b.failures).Msg("relay circuit state change")
	b.state = to
	if to == CircuitClosed {
		b.failures = 0
	}
	metrics.RelayCircuitState.WithLabelValues(b.name).Set(float64(to))
}
