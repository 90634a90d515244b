package business

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/synapse-directory/synapse/internal/audit"
	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/shared"
	"github.com/synapse-directory/synapse/internal/view"
)

const (
	msgApproved           = "Business approved successfully!"
	msgRejected           = "Business rejected successfully!"
	msgDecisionInProgress = "This business is already being processed."
)

type reviewRow struct {
	Record     directory.Record
	Processing bool
}

type adminView struct {
	Rows           []reviewRow
	Query          string
	Error          string
	Empty          bool
	History        []audit.Decision
	HistoryEnabled bool
	Refreshing     bool
}

func (h *Handler) approvalController(r *http.Request, businessName string) *directory.ApprovalController {
	requestID := middleware.GetReqID(r.Context())
	return directory.NewApprovalController(h.directory, h.scheduler,
		directory.WithRefreshDelay(h.refreshDelay),
		directory.WithProcessingGuard(h.guard),
		directory.OnDecided(func(ctx context.Context, id string, approve bool) {
			err := h.history.Record(ctx, audit.Decision{
				ListingID:    id,
				BusinessName: businessName,
				Action:       audit.ActionFor(approve),
				RequestID:    requestID,
			})
			if err != nil {
				h.logger.Warn("record decision", slog.String("id", id), slog.Any("error", err))
			}
		}),
	)
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query().Get("q")
	state := h.load(ctx)
	controller := h.approvalController(r, "")

	records := directory.Filter(state.Records, query)
	av := adminView{
		Query:          query,
		Rows:           make([]reviewRow, 0, len(records)),
		HistoryEnabled: h.history.Enabled(),
	}
	for _, rec := range records {
		av.Rows = append(av.Rows, reviewRow{Record: rec, Processing: controller.Processing(ctx, rec.ID)})
	}
	status := http.StatusOK
	if state.Status == directory.StatusFailed {
		av.Error = directory.Message(state.Err)
		status = http.StatusBadGateway
	} else {
		av.Empty = len(records) == 0
	}
	history, err := h.history.Recent(ctx, 20)
	if err != nil {
		h.logger.Warn("load decision history", slog.Any("error", err))
	}
	av.History = history

	page := view.TemplateData{Title: "Admin Review"}
	if r.URL.Query().Get("refresh") == "1" {
		// One more reload once the backend has had time to apply the write.
		av.Refreshing = true
		if secs := refreshSeconds(controller.RefreshDelay()); secs > 0 {
			page.RefreshSeconds = secs
			page.RefreshURL = "/admin"
		}
	}
	page.Data = map[string]any{"Admin": av}
	h.renderPage(w, r, "pages/admin.html", page, status)
}

func (h *Handler) approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, true)
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, false)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, approve bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	id := chi.URLParam(r, "id")
	controller := h.approvalController(r, r.PostFormValue("businessName"))

	err := controller.Decide(r.Context(), id, approve)
	switch {
	case err == nil:
		msg := msgRejected
		if approve {
			msg = msgApproved
		}
		h.redirectWithFlash(w, r, "/admin?refresh=1", shared.FlashSuccess, msg)
	case errors.Is(err, directory.ErrDecisionInProgress):
		h.redirectWithFlash(w, r, "/admin", shared.FlashError, msgDecisionInProgress)
	default:
		h.logger.Error("update approval status", slog.String("id", id), slog.Bool("approve", approve), slog.Any("error", err))
		h.redirectWithFlash(w, r, "/admin", shared.FlashError, "Error updating approval status: "+directory.Message(err))
	}
}
