package directory

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledDraft(t *testing.T) Draft {
	t.Helper()
	d := NewDraft()
	for _, name := range EditableFields {
		require.NoError(t, d.Set(name, "value of "+name))
	}
	return d
}

func TestSubmitFailureKeepsDraft(t *testing.T) {
	fake := newFakeDirectory(`{}`)
	fake.status["/insert"] = http.StatusInternalServerError
	client := newTestClient(t, fake)

	form := NewFormController(client, filledDraft(t))
	form.SetLocation("https://maps.google.com/?q=1,2")
	before := form.Draft()

	err := form.Submit(context.Background())
	var submitErr *SubmitError
	require.ErrorAs(t, err, &submitErr)
	assert.Equal(t, "create", submitErr.Op)
	assert.Contains(t, err.Error(), "HTTP 500: boom")

	assert.Equal(t, before.Values(), form.Draft().Values())
	assert.False(t, form.InFlight(context.Background()))
}

func TestSubmitMergesLocationAndSignalsCompletion(t *testing.T) {
	fake := newFakeDirectory(`{}`)
	client := newTestClient(t, fake)

	var completed []Draft
	form := NewFormController(client, filledDraft(t), OnSubmitted(func(_ context.Context, d Draft) {
		completed = append(completed, d)
	}))
	form.SetLocation("https://maps.google.com/?q=10.8,78.6")
	require.NoError(t, form.Submit(context.Background()))

	calls := fake.calls("/insert")
	require.Len(t, calls, 1)
	assert.Equal(t, "https://maps.google.com/?q=10.8,78.6", calls[0]["locationLink"])
	require.Len(t, completed, 1)
	assert.False(t, completed[0].IsUpdate())

	form.Reset()
	assert.Empty(t, form.Draft().Get(FieldBusinessName))
	assert.Empty(t, form.Draft().Get(FieldLocationLink))
}

func TestSubmitWithIdentifierUpdates(t *testing.T) {
	fake := newFakeDirectory(`{}`)
	client := newTestClient(t, fake)

	form := NewFormController(client, DraftFromRecord(Record{ID: "9", BusinessName: "Old", LocationLink: "https://maps.google.com/?q=3,4"}))
	require.NoError(t, form.SetField(FieldBusinessName, "New"))
	require.NoError(t, form.Submit(context.Background()))

	assert.Empty(t, fake.calls("/insert"))
	calls := fake.calls("/update")
	require.Len(t, calls, 1)
	assert.Equal(t, "9", calls[0]["_id"])
	assert.Equal(t, "New", calls[0]["businessName"])
	assert.Equal(t, "https://maps.google.com/?q=3,4", calls[0]["locationLink"])
}

func TestSetFieldRejectsUnknownNames(t *testing.T) {
	form := NewFormController(nil, NewDraft())
	assert.ErrorIs(t, form.SetField("owner", "x"), ErrUnknownField)
}

type blockingSubmitter struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingSubmitter) Create(ctx context.Context, _ Draft) error {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return nil
}

func (b *blockingSubmitter) Update(ctx context.Context, d Draft) error {
	return b.Create(ctx, d)
}

func TestSubmitRejectsDuplicateWhileInFlight(t *testing.T) {
	submitter := &blockingSubmitter{started: make(chan struct{}), release: make(chan struct{})}
	form := NewFormController(submitter, filledDraft(t))

	done := make(chan error, 1)
	go func() { done <- form.Submit(context.Background()) }()
	<-submitter.started

	assert.True(t, form.InFlight(context.Background()))
	assert.ErrorIs(t, form.Submit(context.Background()), ErrSubmitInFlight)

	close(submitter.release)
	require.NoError(t, <-done)
	assert.False(t, form.InFlight(context.Background()))
}
