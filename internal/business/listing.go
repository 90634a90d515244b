package business

import (
	"net/http"
	"strings"

	"github.com/synapse-directory/synapse/internal/directory"
)

const corsHint = "Unable to load data due to server restrictions (CORS). " +
	"The directory service could not be reached from this server. " +
	"Contact the API provider or backend admin to allow requests from this deployment, " +
	"then try again."

type listView struct {
	Query   string
	Records []directory.Record
	Total   int
	Error   string
	Hint    string
	Empty   bool
}

func newListView(state directory.State, records []directory.Record, query string) listView {
	lv := listView{Query: query, Records: records, Total: len(records)}
	if state.Status == directory.StatusFailed {
		lv.Error = directory.Message(state.Err)
		if directory.IsNetwork(state.Err) {
			lv.Hint = corsHint
		}
		return lv
	}
	lv.Empty = len(records) == 0
	return lv
}

// list is the edit screen: every listing, narrowed by ?q=.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	state := h.load(r.Context())
	records := directory.Filter(state.Records, query)
	status := http.StatusOK
	if state.Status == directory.StatusFailed {
		status = http.StatusBadGateway
	}
	h.render(w, r, "pages/business_list.html", "Edit Businesses", map[string]any{
		"List": newListView(state, records, query),
	}, status)
}

// approved is the public view of approved listings.
func (h *Handler) approved(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	state := h.load(r.Context())
	records := directory.Filter(directory.FilterApproved(state.Records), query)
	status := http.StatusOK
	if state.Status == directory.StatusFailed {
		status = http.StatusBadGateway
	}
	h.render(w, r, "pages/approved.html", "Approved Businesses", map[string]any{
		"List": newListView(state, records, query),
	}, status)
}

// wantsApproved reads the approved=1 style switch used by the JSON listing.
func wantsApproved(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
