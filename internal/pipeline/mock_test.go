package pipeline

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/basketwise/compare-cli/internal/model"
	"github.com/basketwise/compare-cli/internal/store"
)

// fakeExtractor routes each (platform, item) call through fn and records
// every call. Safe for concurrent use.
type fakeExtractor struct {
	mu    sync.Mutex
	calls []string
	fn    func(platform model.Platform, item string) ([]model.ProductRecord, error)
}

func (f *fakeExtractor) Extract(_ context.Context, platform model.Platform, item, _ string) ([]model.ProductRecord, error) {
	f.mu.Lock()
	f.calls = append(f.calls, platform.ID+"/"+item)
	f.mu.Unlock()
	return f.fn(platform, item)
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// okRecords returns n records for an item with distinct prices.
func okRecords(item string, n int) []model.ProductRecord {
	records := make([]model.ProductRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.ProductRecord{
			GroceryItem: item,
			ProductName: fmt.Sprintf("%s option %d", item, i+1),
			Price:       float64(10 * (i + 1)),
			IsAvailable: true,
		})
	}
	return records
}

// brokenWriteStore fails every InsertResults call.
type brokenWriteStore struct {
	store.Store
}

func (b *brokenWriteStore) InsertResults(context.Context, string, []model.ProductRecord) error {
	return model.ErrStoreWrite
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testRegistry(t *testing.T) *model.PlatformRegistry {
	t.Helper()
	r, err := model.LoadPlatformRegistry()
	require.NoError(t, err)
	return r
}

func testSelection(platformIDs ...string) *model.SelectionRequest {
	return &model.SelectionRequest{
		Owner:       "user-1",
		Pincode:     "400001",
		PlatformIDs: platformIDs,
	}
}
