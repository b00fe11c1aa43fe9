package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shrinex/bastion/authc"
)

const namespace = "bastion"

// Outcome labels
const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_token"
	OutcomeNoRealms    = "no_realms"
	OutcomeUnsupported = "unsupported"
	OutcomeUnknown     = "unknown_account"
	OutcomeFailure     = "failure"
	OutcomeNotFound    = "not_found"
	OutcomeFault       = "fault"
)

// AuthMetrics is the Prometheus implementation of authc.Metrics.
// A nil *AuthMetrics records nothing.
type AuthMetrics struct {
	attempts      *prometheus.CounterVec
	realmAttempts *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

var _ authc.Metrics = (*AuthMetrics)(nil)

// NewAuthMetrics registers the collectors with reg. Collectors already
// registered by an earlier call are reused, so every AuthMetrics built on
// the same registerer feeds the same series.
//
// Returns nil if reg is nil.
func NewAuthMetrics(reg prometheus.Registerer) *AuthMetrics {
	if reg == nil {
		return nil
	}

	return &AuthMetrics{
		attempts: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "authentication_attempts_total",
				Help:      "Total number of authentication attempts by mode and outcome",
			},
			[]string{"mode", "outcome"}, // "single", "multi"
		)),
		realmAttempts: register(reg, prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "realm_attempts_total",
				Help:      "Total number of realm consultations by realm and outcome",
			},
			[]string{"realm", "outcome"}, // "success", "not_found", "fault"
		)),
		duration: register(reg, prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "authentication_duration_seconds",
				Help:      "Duration of authentication attempts in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
			},
			[]string{"mode"},
		)),
	}
}

func (m *AuthMetrics) ObserveAuthentication(mode string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(mode, outcomeOf(err)).Inc()
	m.duration.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *AuthMetrics) ObserveRealmAttempt(realm string, attempt authc.Attempt) {
	if m == nil {
		return
	}

	outcome := OutcomeSuccess
	switch {
	case attempt.Err != nil:
		outcome = OutcomeFault
	case attempt.Info == nil:
		outcome = OutcomeNotFound
	}
	m.realmAttempts.WithLabelValues(realm, outcome).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, authc.ErrInvalidToken):
		return OutcomeInvalid
	case errors.Is(err, authc.ErrNoRealms):
		return OutcomeNoRealms
	case errors.Is(err, authc.ErrUnsupportedToken):
		return OutcomeUnsupported
	case errors.Is(err, authc.ErrUnknownAccount) && !errors.Is(err, authc.ErrAuthenticationFailed):
		return OutcomeUnknown
	default:
		return OutcomeFailure
	}
}

// register panics on anything but a duplicate registration, like promauto does
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
