package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nexus-cache/internal/common/errors"
	"nexus-cache/internal/locks"
)

// fakeLockProvider is an in-process lock provider that tracks how many
// holders are inside the critical section at once.
type fakeLockProvider struct {
	mu     sync.Mutex
	held   map[string]bool
	calls  atomic.Int64
	herded atomic.Int64 // callers that had to wait or fail

	holders       atomic.Int64
	maxConcurrent atomic.Int64
}

func newFakeLockProvider() *fakeLockProvider {
	return &fakeLockProvider{held: map[string]bool{}}
}

func (p *fakeLockProvider) TryLock(ctx context.Context, name string, wait time.Duration) (locks.Lock, error) {
	p.calls.Add(1)
	deadline := time.Now().Add(wait)

	for {
		p.mu.Lock()
		if !p.held[name] {
			p.held[name] = true
			p.mu.Unlock()

			holders := p.holders.Add(1)
			for {
				max := p.maxConcurrent.Load()
				if holders <= max || p.maxConcurrent.CompareAndSwap(max, holders) {
					break
				}
			}
			return &fakeLock{provider: p, name: name}, nil
		}
		p.mu.Unlock()
		p.herded.Add(1)

		if time.Now().After(deadline) {
			return nil, errors.LockTimeoutError(name, nil)
		}
		select {
		case <-ctx.Done():
			return nil, errors.LockTimeoutError(name, ctx.Err())
		case <-time.After(time.Millisecond):
		}
	}
}

func (p *fakeLockProvider) Close() error { return nil }

type fakeLock struct {
	provider *fakeLockProvider
	name     string
}

func (l *fakeLock) Key() string { return l.name }

func (l *fakeLock) Unlock(ctx context.Context) error {
	l.provider.holders.Add(-1)
	l.provider.mu.Lock()
	delete(l.provider.held, l.name)
	l.provider.mu.Unlock()
	return nil
}

// unavailableLockProvider simulates an unreachable lock backend.
type unavailableLockProvider struct{}

func (p *unavailableLockProvider) TryLock(ctx context.Context, name string, wait time.Duration) (locks.Lock, error) {
	return nil, errors.LockTimeoutError(name, nil)
}

func (p *unavailableLockProvider) Close() error { return nil }

func TestStampedeGuard_HitBypassesLock(t *testing.T) {
	inner := newLocal(t, 64, time.Minute)
	provider := newFakeLockProvider()
	guard := NewStampedeGuard(inner, "users", provider, time.Second, nil)
	ctx := context.Background()

	require.NoError(t, inner.Put(ctx, "42", "Ada", time.Minute))

	value, ok := guard.Get(ctx, "42")
	require.True(t, ok)
	assert.Equal(t, "Ada", value)
	assert.Zero(t, provider.calls.Load())
}

func TestStampedeGuard_MissAcquiresAndReleases(t *testing.T) {
	inner := newLocal(t, 64, time.Minute)
	provider := newFakeLockProvider()
	guard := NewStampedeGuard(inner, "users", provider, time.Second, nil)

	_, ok := guard.Get(context.Background(), "missing")
	assert.False(t, ok)
	assert.Equal(t, int64(1), provider.calls.Load())
	assert.Zero(t, provider.holders.Load())
}

func TestStampedeGuard_RecheckFindsConcurrentWrite(t *testing.T) {
	inner := newLocal(t, 64, time.Minute)
	provider := newFakeLockProvider()
	guard := NewStampedeGuard(inner, "users", provider, time.Second, nil)
	ctx := context.Background()

	// Hold the lock, then populate the key before releasing, as a
	// concurrent loader would.
	lock, err := provider.TryLock(ctx, "lock:users:42", time.Second)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		value, ok := guard.Get(ctx, "42")
		assert.True(t, ok)
		assert.Equal(t, "Ada", value)
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, inner.Put(ctx, "42", "Ada", time.Minute))
	require.NoError(t, lock.Unlock(ctx))

	<-done
}

func TestStampedeGuard_CollapsesConcurrentMisses(t *testing.T) {
	inner := newLocal(t, 64, time.Minute)
	provider := newFakeLockProvider()
	guard := NewStampedeGuard(inner, "users", provider, time.Second, nil)
	ctx := context.Background()

	const callers = 32
	var wg sync.WaitGroup
	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			_, _ = guard.Get(ctx, "hot-key")
		}()
	}
	wg.Wait()

	// At most one caller was ever inside the lock-held section.
	assert.Equal(t, int64(1), provider.maxConcurrent.Load())
	assert.Zero(t, provider.holders.Load())
}

func TestStampedeGuard_FailsOpenWhenLockUnavailable(t *testing.T) {
	inner := newLocal(t, 64, time.Minute)
	guard := NewStampedeGuard(inner, "users", &unavailableLockProvider{}, 50*time.Millisecond, nil)

	start := time.Now()
	value, ok := guard.Get(context.Background(), "missing")
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.Nil(t, value)
	assert.Less(t, elapsed, time.Second)
}

func TestStampedeGuard_MutatingOperationsBypassLock(t *testing.T) {
	inner := newLocal(t, 64, time.Minute)
	provider := newFakeLockProvider()
	guard := NewStampedeGuard(inner, "users", provider, time.Second, nil)
	ctx := context.Background()

	require.NoError(t, guard.Put(ctx, "k", "v", time.Minute))
	require.NoError(t, guard.Remove(ctx, "k"))

	stored, err := guard.PutIfAbsent(ctx, "k", "v", time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	_, err = guard.Increment(ctx, "counter", 1)
	require.NoError(t, err)

	_, err = guard.GetAll(ctx, []string{"k"})
	require.NoError(t, err)

	assert.Zero(t, provider.calls.Load())
}

func TestStampedeGuard_DifferentKeysDoNotSerialize(t *testing.T) {
	inner := newLocal(t, 64, time.Minute)
	provider := newFakeLockProvider()
	guard := NewStampedeGuard(inner, "users", provider, time.Second, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, key := range []string{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			_, _ = guard.Get(ctx, key)
		}(key)
	}
	wg.Wait()

	// Four distinct lock names, no cross-key contention recorded.
	assert.Equal(t, int64(4), provider.calls.Load())
}
