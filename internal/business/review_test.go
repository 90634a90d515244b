package business_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-directory/synapse/internal/audit"
)

func TestAdminListsEveryBusinessWithStatus(t *testing.T) {
	env := newTestEnv(t, sampleListing)

	rr := env.do(http.MethodGet, "/admin", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `action="/admin/b2/approve"`)
	assert.Contains(t, body, `action="/admin/c3/reject"`)
	assert.Contains(t, body, "badge-approved")
	assert.Contains(t, body, "badge-pending")
	assert.Contains(t, body, "No decisions recorded yet.")
	assert.NotContains(t, body, `http-equiv="refresh"`)
}

func TestApproveFlow(t *testing.T) {
	env := newTestEnv(t, sampleListing)

	rr := env.do(http.MethodPost, "/admin/b2/approve", url.Values{"businessName": {"Bolt Cycles"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin?refresh=1", rr.Header().Get("Location"))

	calls := env.api.calls("/validation")
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"documentId": "b2", "approved": "true"}, calls[0])

	assert.Equal(t, []scheduled{{delay: time.Second, id: "b2"}}, env.scheduler.all())

	history, err := env.history.RecentDecisions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "b2", history[0].ListingID)
	assert.Equal(t, "Bolt Cycles", history[0].BusinessName)
	assert.Equal(t, audit.ActionApprove, history[0].Action)

	rr = env.do(http.MethodGet, "/admin?refresh=1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Business approved successfully!")
	assert.Contains(t, body, `content="1;url=/admin"`)
	assert.Contains(t, body, "Refreshing listing...")
	assert.Contains(t, body, "Recent decisions")
	assert.Contains(t, body, "Approved</td>")

	rr = env.do(http.MethodGet, "/admin", nil)
	assert.NotContains(t, rr.Body.String(), "Business approved successfully!", "flash is shown once")
}

func TestRejectSendsFalse(t *testing.T) {
	env := newTestEnv(t, sampleListing)

	rr := env.do(http.MethodPost, "/admin/a1/reject", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)

	calls := env.api.calls("/validation")
	require.Len(t, calls, 1)
	assert.Equal(t, map[string]any{"documentId": "a1", "approved": "false"}, calls[0])

	history, err := env.history.RecentDecisions(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, audit.ActionReject, history[0].Action)

	rr = env.do(http.MethodGet, "/admin", nil)
	assert.Contains(t, rr.Body.String(), "Business rejected successfully!")
}

func TestDecisionFailureShowsError(t *testing.T) {
	env := newTestEnv(t, sampleListing)
	env.api.fail("/validation", http.StatusInternalServerError)

	rr := env.do(http.MethodPost, "/admin/b2/approve", url.Values{"businessName": {"Bolt Cycles"}})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin", rr.Header().Get("Location"))
	assert.Empty(t, env.scheduler.all())

	history, err := env.history.RecentDecisions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)

	rr = env.do(http.MethodGet, "/admin", nil)
	assert.Contains(t, rr.Body.String(), "Error updating approval status: HTTP 500: boom")

	_, ok, err := env.guard.Acquire(context.Background(), "approval:b2")
	require.NoError(t, err)
	assert.True(t, ok, "guard is released after a failed decision")
}

func TestDecisionRejectedWhileProcessing(t *testing.T) {
	env := newTestEnv(t, sampleListing)
	_, ok, err := env.guard.Acquire(context.Background(), "approval:a1")
	require.NoError(t, err)
	require.True(t, ok)

	rr := env.do(http.MethodPost, "/admin/a1/approve", url.Values{})
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/admin", rr.Header().Get("Location"))
	assert.Empty(t, env.api.calls("/validation"))

	rr = env.do(http.MethodGet, "/admin", nil)
	body := rr.Body.String()
	assert.Contains(t, body, "This business is already being processed.")
	assert.Contains(t, body, "Processing...")
}

func TestAdminReportsLoadError(t *testing.T) {
	env := newTestEnv(t, sampleListing)
	env.api.fail("/view", http.StatusBadGateway)

	rr := env.do(http.MethodGet, "/admin", nil)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Error: HTTP 502: boom")
}

func TestAdminSearchNarrowsRows(t *testing.T) {
	env := newTestEnv(t, sampleListing)

	rr := env.do(http.MethodGet, "/admin?q=hill", nil)
	body := rr.Body.String()
	assert.Contains(t, body, "Corner Books")
	assert.NotContains(t, body, "Bolt Cycles")

	rr = env.do(http.MethodGet, "/admin?q=nomatch", nil)
	assert.Contains(t, rr.Body.String(), "No results found")
}
