package readerregistry_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/readerregistry"
	"github.com/AntonStoeckl/library-lending-go/testutil/testdoubles"
)

func Test_CachedChecker_ServesRepeatedLookupsFromCache(t *testing.T) {
	// arrange
	ctx := context.Background()
	stub := testdoubles.NewActivityCheckerStub(readerActive)
	checker, err := readerregistry.NewCachedChecker(stub, 16, time.Minute)
	require.NoError(t, err)

	// act
	first := checker.IsActive(ctx, readerActive)
	second := checker.IsActive(ctx, readerActive)
	inactive := checker.IsActive(ctx, readerUnknown)
	inactiveAgain := checker.IsActive(ctx, readerUnknown)

	// assert
	assert.True(t, first)
	assert.True(t, second)
	assert.False(t, inactive)
	assert.False(t, inactiveAgain)
	assert.Equal(t, 1, stub.CallCount(readerActive), "Second lookup should hit the cache")
	assert.Equal(t, 1, stub.CallCount(readerUnknown), "Negative answers are cached as well")
	assert.Equal(t, 2, checker.Len())
}

func Test_CachedChecker_ExpiresAfterTTL(t *testing.T) {
	// arrange
	ctx := context.Background()
	stub := testdoubles.NewActivityCheckerStub(readerActive)
	checker, err := readerregistry.NewCachedChecker(stub, 16, 50*time.Millisecond)
	require.NoError(t, err)
	checker.IsActive(ctx, readerActive)

	// act
	stub.SetActive(readerActive, false)
	time.Sleep(120 * time.Millisecond)
	active := checker.IsActive(ctx, readerActive)

	// assert
	assert.False(t, active, "Expired entries should be looked up again")
	assert.Equal(t, 2, stub.CallCount(readerActive))
}

func Test_CachedChecker_Invalidate(t *testing.T) {
	// arrange
	ctx := context.Background()
	stub := testdoubles.NewActivityCheckerStub()
	checker, err := readerregistry.NewCachedChecker(stub, 16, time.Hour)
	require.NoError(t, err)
	require.False(t, checker.IsActive(ctx, readerActive))

	// act
	stub.SetActive(readerActive, true)
	checker.Invalidate(readerActive)

	// assert
	assert.True(t, checker.IsActive(ctx, readerActive))

	checker.Purge()
	assert.Zero(t, checker.Len())
}

func Test_CachedChecker_DoesNotCacheFailedLookups(t *testing.T) {
	// arrange
	ctx := context.Background()
	handled := &handledErrors{}
	lookuper := &flakyLookuper{failures: 1}
	checker, err := readerregistry.NewCachedChecker(lookuper, 16, time.Hour, readerregistry.WithErrorHandler(handled.record))
	require.NoError(t, err)

	// act
	duringOutage := checker.IsActive(ctx, readerActive)
	afterOutage := checker.IsActive(ctx, readerActive)

	// assert
	assert.False(t, duringOutage, "A failed lookup should answer inactive")
	assert.True(t, afterOutage, "The failure must not be cached")
	assert.Equal(t, []string{readerActive}, handled.readerIDs())
	assert.Equal(t, 2, lookuper.calls())
}

func Test_CachedChecker_WrapsSQLChecker(t *testing.T) {
	// arrange
	ctx := context.Background()
	sqlChecker := setupSQLiteChecker(t)
	registerReaders(t, sqlChecker)
	checker, err := readerregistry.NewCachedChecker(sqlChecker, 16, time.Hour)
	require.NoError(t, err)
	require.True(t, checker.IsActive(ctx, readerActive))

	// act
	require.NoError(t, sqlChecker.Cancel(ctx, readerActive, time.Now()))
	cached := checker.IsActive(ctx, readerActive)
	checker.Invalidate(readerActive)
	fresh := checker.IsActive(ctx, readerActive)

	// assert
	assert.True(t, cached, "Cached answer survives until invalidated")
	assert.False(t, fresh)
}

func Test_CachedChecker_ConstructorRejectsInvalidInput(t *testing.T) {
	_, err := readerregistry.NewCachedChecker(nil, 16, time.Minute)
	assert.ErrorIs(t, err, readerregistry.ErrNilActivityChecker)

	_, err = readerregistry.NewCachedChecker(testdoubles.NewActivityCheckerStub(), 0, time.Minute)
	assert.ErrorIs(t, err, readerregistry.ErrInvalidCacheSize)
}

// Test helper functions

// flakyLookuper fails the first n lookups and then reports every reader as active.
type flakyLookuper struct {
	mu       sync.Mutex
	failures int
	n        int
}

func (f *flakyLookuper) Lookup(_ context.Context, _ string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.n++
	if f.n <= f.failures {
		return false, errors.New("store unavailable")
	}

	return true, nil
}

func (f *flakyLookuper) IsActive(ctx context.Context, readerID string) bool {
	active, _ := f.Lookup(ctx, readerID)
	return active
}

func (f *flakyLookuper) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.n
}
