package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_TripsAfterConsecutiveFailures(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	s := DefaultSettings("test")
	s.ConsecutiveFailures = 2
	s.OpenTimeout = time.Minute
	cb := New[int](s, zap.New(core))

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
	}

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, gobreaker.StateOpen, cb.State())
	assert.Equal(t, 1, logs.FilterMessage("circuit breaker state changed").Len())
}

func TestNew_IsSuccessfulIgnoresErrors(t *testing.T) {
	ignored := errors.New("client error")
	s := DefaultSettings("test")
	s.ConsecutiveFailures = 1
	s.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, ignored) }
	cb := New[int](s, nil)

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, ignored })
		assert.ErrorIs(t, err, ignored)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
