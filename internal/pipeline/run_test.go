package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

func TestRunner_Run_NoItems(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{fn: func(model.Platform, string) ([]model.ProductRecord, error) {
		return nil, errors.New("should not be called")
	}}
	runner := NewRunner(st, ex, testRegistry(t))

	_, err := runner.Run(context.Background(), testSelection("blinkit"), nil)
	require.ErrorIs(t, err, model.ErrNoItems)
	assert.Zero(t, ex.callCount())
}

func TestRunner_Run_PlatformFailureIsIsolated(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{fn: func(platform model.Platform, item string) ([]model.ProductRecord, error) {
		if platform.ID == "zepto" {
			return nil, errors.New("listing page rejected the session")
		}
		return okRecords(item, 2), nil
	}}
	runner := NewRunner(st, ex, testRegistry(t), WithRetry(fastRetry()))

	sel := testSelection("blinkit", "zepto")
	items := []string{"milk", "bread", "eggs"}

	summary, err := runner.Run(context.Background(), sel, items)
	require.NoError(t, err)
	require.NotNil(t, summary)

	blinkit := summary.PerPlatform["blinkit"]
	assert.Equal(t, 6, blinkit.Records)
	assert.Zero(t, blinkit.Failures)
	assert.Empty(t, blinkit.Err)

	zepto := summary.PerPlatform["zepto"]
	assert.Zero(t, zepto.Records)
	assert.Equal(t, 3, zepto.Failures)
	assert.Equal(t, "extraction_failed", zepto.Err)

	assert.True(t, summary.Failed())
	assert.Equal(t, 6, summary.Records())

	// Every blinkit record landed despite zepto failing throughout.
	stored, err := st.ListResults(context.Background(), sel.Owner)
	require.NoError(t, err)
	require.Len(t, stored, 6)
	for _, rec := range stored {
		assert.Equal(t, "blinkit", rec.PlatformID)
		assert.Equal(t, sel.Owner, rec.Owner)
	}
}

func TestRunner_Run_SecondRunReplacesFirst(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{fn: func(_ model.Platform, item string) ([]model.ProductRecord, error) {
		return okRecords(item, 1), nil
	}}
	runner := NewRunner(st, ex, testRegistry(t))

	_, err := runner.Run(context.Background(), testSelection("blinkit"), []string{"milk", "bread"})
	require.NoError(t, err)

	// The rerun scrapes a subset; the first batch must not linger.
	sel := testSelection("blinkit")
	_, err = runner.Run(context.Background(), sel, []string{"milk"})
	require.NoError(t, err)

	stored, err := st.ListResults(context.Background(), sel.Owner)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "milk", stored[0].GroceryItem)
}

func TestRunner_Run_UnknownPlatform(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{fn: func(_ model.Platform, item string) ([]model.ProductRecord, error) {
		return okRecords(item, 1), nil
	}}
	runner := NewRunner(st, ex, testRegistry(t))

	summary, err := runner.Run(context.Background(), testSelection("grofers"), []string{"milk", "bread"})
	require.NoError(t, err)

	outcome := summary.PerPlatform["grofers"]
	assert.Equal(t, 2, outcome.Failures)
	assert.Equal(t, "unknown_platform", outcome.Err)
	assert.Zero(t, ex.callCount())
}

func TestRunner_Run_UnsupportedPlatformSkipsWithoutCalls(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{fn: func(_ model.Platform, item string) ([]model.ProductRecord, error) {
		return okRecords(item, 1), nil
	}}
	runner := NewRunner(st, ex, testRegistry(t))

	// dmart is registered but carries no search target.
	summary, err := runner.Run(context.Background(), testSelection("dmart"), []string{"milk", "bread", "eggs"})
	require.NoError(t, err)

	outcome := summary.PerPlatform["dmart"]
	assert.Equal(t, 3, outcome.Failures)
	assert.Equal(t, "unsupported_platform", outcome.Err)
	assert.Zero(t, ex.callCount())
}

func TestRunner_Run_StoreWriteFailureRecorded(t *testing.T) {
	st := &brokenWriteStore{Store: newTestStore(t)}
	ex := &fakeExtractor{fn: func(_ model.Platform, item string) ([]model.ProductRecord, error) {
		return okRecords(item, 1), nil
	}}
	runner := NewRunner(st, ex, testRegistry(t))

	summary, err := runner.Run(context.Background(), testSelection("blinkit"), []string{"milk", "bread"})
	require.NoError(t, err)

	outcome := summary.PerPlatform["blinkit"]
	assert.Zero(t, outcome.Records)
	assert.Equal(t, 2, outcome.Failures)
	assert.Equal(t, "store_write_failed", outcome.Err)
	// Both items were still attempted.
	assert.Equal(t, 2, ex.callCount())
}

func TestRunner_Run_RetriesTransientFailures(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{}
	var attempts int
	ex.fn = func(_ model.Platform, item string) ([]model.ProductRecord, error) {
		attempts++
		if attempts == 1 {
			return nil, resilience.NewTransientError(errors.New("gateway hiccup"), 502)
		}
		return okRecords(item, 1), nil
	}
	runner := NewRunner(st, ex, testRegistry(t), WithRetry(fastRetry()))

	summary, err := runner.Run(context.Background(), testSelection("blinkit"), []string{"milk"})
	require.NoError(t, err)

	outcome := summary.PerPlatform["blinkit"]
	assert.Equal(t, 1, outcome.Records)
	assert.Zero(t, outcome.Failures)
	assert.Equal(t, 2, ex.callCount())
}

func TestRunner_Run_EmptyExtractionIsNotAFailure(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{fn: func(model.Platform, string) ([]model.ProductRecord, error) {
		return nil, nil
	}}
	runner := NewRunner(st, ex, testRegistry(t))

	summary, err := runner.Run(context.Background(), testSelection("blinkit"), []string{"saffron"})
	require.NoError(t, err)

	outcome := summary.PerPlatform["blinkit"]
	assert.Zero(t, outcome.Records)
	assert.Zero(t, outcome.Failures)
	assert.Empty(t, outcome.Err)
	assert.False(t, summary.Failed())
}

func TestRunner_Run_FillsSelectionIdentity(t *testing.T) {
	st := newTestStore(t)
	ex := &fakeExtractor{fn: func(_ model.Platform, item string) ([]model.ProductRecord, error) {
		return okRecords(item, 1), nil
	}}
	runner := NewRunner(st, ex, testRegistry(t))

	sel := testSelection("blinkit")
	summary, err := runner.Run(context.Background(), sel, []string{"milk"})
	require.NoError(t, err)

	assert.NotEmpty(t, sel.ID)
	assert.False(t, sel.CreatedAt.IsZero())
	assert.Equal(t, sel.ID, summary.SelectionID)
}
