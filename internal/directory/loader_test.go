package directory

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLister struct {
	calls   atomic.Int32
	records []Record
	err     error
}

func (s *stubLister) List(context.Context) ([]Record, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.records, nil
}

func TestLoaderLifecycle(t *testing.T) {
	lister := &stubLister{records: []Record{{ID: "1"}}}
	loader := NewLoader(lister)
	assert.Equal(t, StatusIdle, loader.State().Status)

	records, err := loader.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, StatusLoaded, loader.State().Status)

	lister.err = &StatusError{Status: 500}
	_, err = loader.Load(context.Background())
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	state := loader.State()
	assert.Equal(t, StatusFailed, state.Status)
	assert.Len(t, state.Records, 1, "previous records survive a failed reload")
	assert.Contains(t, state.Err.Error(), "HTTP 500")

	lister.err = nil
	lister.records = nil
	_, err = loader.Load(context.Background())
	require.NoError(t, err)
	state = loader.State()
	assert.NoError(t, state.Err)
	assert.True(t, state.Empty())
}

func TestLoaderAlwaysRefetches(t *testing.T) {
	lister := &stubLister{}
	loader := NewLoader(lister)
	for i := 0; i < 3; i++ {
		require.NoError(t, loader.Refresh(context.Background()))
	}
	assert.EqualValues(t, 3, lister.calls.Load())
}

func TestLoaderStateIsACopy(t *testing.T) {
	loader := NewLoader(&stubLister{records: []Record{{ID: "1", BusinessName: "Acme"}}})
	_, err := loader.Load(context.Background())
	require.NoError(t, err)

	state := loader.State()
	state.Records[0].BusinessName = "Mutated"
	assert.Equal(t, "Acme", loader.State().Records[0].BusinessName)
}

func TestFetchErrorUnwraps(t *testing.T) {
	err := &FetchError{Err: ErrMalformedResponse}
	assert.True(t, errors.Is(err, ErrMalformedResponse))
	assert.Equal(t, "load businesses: invalid data format received from server", err.Error())
}
