package circuitbreaker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-cache/internal/common/errors"
)

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	invalid := Config{MaxFailures: 0, Timeout: time.Second, MaxConcurrentRequests: 1}
	assert.Error(t, invalid.Validate())
}

func TestGoBreaker_PassesThroughSuccess(t *testing.T) {
	breaker := NewGoBreaker("test", DefaultConfig(), nil)

	err := breaker.Execute(context.Background(), func() error { return nil })
	assert.NoError(t, err)
	assert.Equal(t, "closed", breaker.State())
}

func TestGoBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	breaker := NewGoBreaker("test", Config{
		MaxFailures:           3,
		Timeout:               time.Minute,
		MaxConcurrentRequests: 1,
	}, nil)
	ctx := context.Background()

	boom := errors.ConnectionError("redis down", fmt.Errorf("dial refused"))
	for i := 0; i < 3; i++ {
		err := breaker.Execute(ctx, func() error { return boom })
		require.Error(t, err)
	}

	assert.Equal(t, "open", breaker.State())

	// Calls now fail fast without invoking the function
	called := false
	err := breaker.Execute(ctx, func() error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
	assert.True(t, errors.IsType(err, errors.ErrTypeCache))
}

func TestGoBreaker_SerializationErrorsDoNotTrip(t *testing.T) {
	breaker := NewGoBreaker("test", Config{
		MaxFailures:           2,
		Timeout:               time.Minute,
		MaxConcurrentRequests: 1,
	}, nil)
	ctx := context.Background()

	badValue := errors.SerializationError("cannot encode", nil)
	for i := 0; i < 10; i++ {
		_ = breaker.Execute(ctx, func() error { return badValue })
	}

	assert.Equal(t, "closed", breaker.State())
}

func TestGoBreaker_InvalidConfigFallsBack(t *testing.T) {
	breaker := NewGoBreaker("test", Config{}, nil)
	assert.NoError(t, breaker.Execute(context.Background(), func() error { return nil }))
}
