package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func newTestBreaker(threshold, halfOpenMaxReq int, now *time.Time) (*Breaker, *[]CircuitState) {
	var transitions []CircuitState
	b := NewBreaker("belvo", CircuitBreakerConfig{
		Enabled:          true,
		FailureThreshold: threshold,
		OpenTimeout:      5 * time.Second,
		HalfOpenMaxReq:   halfOpenMaxReq,
	}).OnStateChange(func(name string, _, to CircuitState) {
		transitions = append(transitions, to)
	})
	b.now = func() time.Time { return *now }
	return b, &transitions
}

func fail() error    { return errUpstream }
func succeed() error { return nil }

func TestBreaker_BasicTransitions(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b, transitions := newTestBreaker(2, 1, &now)

	require.ErrorIs(t, b.Execute(fail, nil), errUpstream)
	require.Equal(t, CircuitStateClosed, b.State())

	require.ErrorIs(t, b.Execute(fail, nil), errUpstream)
	require.Equal(t, CircuitStateOpen, b.State())

	calls := 0
	err := b.Execute(func() error { calls++; return nil }, nil)
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Zero(t, calls)

	now = now.Add(6 * time.Second)
	require.Equal(t, CircuitStateHalfOpen, b.State())
	require.NoError(t, b.Execute(succeed, nil))
	require.Equal(t, CircuitStateClosed, b.State())

	require.Equal(t, []CircuitState{CircuitStateOpen, CircuitStateHalfOpen, CircuitStateClosed}, *transitions)
}

func TestBreaker_FailedHalfOpenCallReopens(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b, _ := newTestBreaker(1, 1, &now)

	require.Error(t, b.Execute(fail, nil))
	now = now.Add(6 * time.Second)
	require.Error(t, b.Execute(fail, nil))

	require.Equal(t, CircuitStateOpen, b.State())
	require.ErrorIs(t, b.Execute(succeed, nil), ErrCircuitOpen)
}

func TestBreaker_ClassifierIgnoresClientErrors(t *testing.T) {
	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b, _ := newTestBreaker(1, 1, &now)
	errBadRequest := errors.New("bad request")

	onlyUpstream := func(err error) bool { return errors.Is(err, errUpstream) }
	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Execute(func() error { return errBadRequest }, onlyUpstream), errBadRequest)
	}
	require.Equal(t, CircuitStateClosed, b.State())
}

func TestBreaker_DisabledPassesThrough(t *testing.T) {
	b := NewBreaker("identity", CircuitBreakerConfig{Enabled: false, FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, b.Execute(fail, nil), errUpstream)
	}
	require.Equal(t, CircuitStateClosed, b.State())
}

func TestNormalizeCircuitBreakerConfig(t *testing.T) {
	got := NormalizeCircuitBreakerConfig(CircuitBreakerConfig{Enabled: true})
	require.Equal(t, DefaultCircuitBreakerConfig(), got)
}
