package business

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/location"
	"github.com/synapse-directory/synapse/internal/shared"
)

const (
	msgRegistered     = "Your business has been registered successfully."
	msgUpdated        = "Business updated successfully!"
	msgSubmitInFlight = "A submission for this business is already in progress."
)

type formView struct {
	Mode       string
	Action     string
	ID         string
	Values     map[string]string
	Errors     map[string]string
	Point      location.Point
	MapReady   bool
	MapsAPIKey string
	InFlight   bool
}

func (h *Handler) newForm(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	draft, ok := loadDraft(sess, "")
	if !ok {
		draft = directory.NewDraft()
	}
	fc := h.formController(sess, draft)
	h.renderForm(w, r, fc, h.placeMarker(r.Context(), fc), nil, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, "")
}

func (h *Handler) editForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess := shared.SessionFromContext(r.Context())
	draft, ok := loadDraft(sess, id)
	if !ok {
		state := h.load(r.Context())
		if state.Status == directory.StatusFailed {
			http.Error(w, "Failed to load business: "+directory.Message(state.Err), http.StatusBadGateway)
			return
		}
		record, found := directory.Find(state.Records, id)
		if !found {
			http.Error(w, "Business not found", http.StatusNotFound)
			return
		}
		draft = directory.DraftFromRecord(record)
	}
	fc := h.formController(sess, draft)
	h.renderForm(w, r, fc, h.placeMarker(r.Context(), fc), nil, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, chi.URLParam(r, "id"))
}

// submit handles both form posts. An empty id creates a listing.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request, id string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	sess := shared.SessionFromContext(ctx)
	form := formFromRequest(r)
	errs := h.validate(form)

	fc := h.formController(sess, directory.DraftFromValues(id, form.Values()))
	m := h.placeMarker(ctx, fc)
	if len(errs) > 0 {
		saveDraft(sess, fc.Draft())
		h.renderForm(w, r, fc, m, errs, http.StatusBadRequest)
		return
	}

	err := fc.Submit(ctx)
	switch {
	case err == nil:
		clearDraft(sess, id)
		if id == "" {
			h.redirectWithFlash(w, r, "/businesses/new", shared.FlashSuccess, msgRegistered)
			return
		}
		h.redirectWithFlash(w, r, "/businesses", shared.FlashSuccess, msgUpdated)
	case errors.Is(err, directory.ErrSubmitInFlight):
		h.renderForm(w, r, fc, m, map[string]string{"general": msgSubmitInFlight}, http.StatusConflict)
	default:
		h.logger.Error("submit business", slog.String("id", id), slog.Any("error", err))
		saveDraft(sess, fc.Draft())
		prefix := "Failed to register business: "
		if id != "" {
			prefix = "Error updating business: "
		}
		h.renderForm(w, r, fc, m, map[string]string{"general": prefix + directory.Message(err)}, http.StatusBadGateway)
	}
}

func (h *Handler) formController(sess *shared.Session, draft directory.Draft) *directory.FormController {
	return directory.NewFormController(h.directory, draft,
		directory.WithSubmitGuard(h.guard, submitKey(sess, draft.ID)),
		directory.OnSubmitted(func(ctx context.Context, submitted directory.Draft) {
			h.logger.Info("business submitted",
				slog.String("id", submitted.ID),
				slog.String("name", submitted.Get(directory.FieldBusinessName)))
		}),
	)
}

// submitKey scopes the in-flight flag: edits are exclusive per listing,
// creates per browser session.
func submitKey(sess *shared.Session, id string) string {
	if id != "" {
		return "submit:" + id
	}
	if sess != nil {
		return "submit:new:" + sess.ID
	}
	return "submit:new"
}

type marker struct {
	Point location.Point
	Ready bool
}

// placeMarker initialises a picker for the form. The picker reports its
// start position into the form controller; when the map never becomes ready
// the draft keeps whatever location it already had.
func (h *Handler) placeMarker(ctx context.Context, fc *directory.FormController) marker {
	ref := fc.Draft().Get(directory.FieldLocationLink)
	picker := location.NewPicker(h.maps, fc.SetLocation, location.StartAt(ref))
	waitCtx, cancel := context.WithTimeout(ctx, h.mapWait)
	defer cancel()
	if err := picker.Init(waitCtx); err != nil {
		h.logger.Warn("map provider not ready", slog.Any("error", err))
		if pt, err := location.ParseRef(ref); err == nil {
			return marker{Point: pt}
		}
		return marker{Point: location.Fallback}
	}
	current, _ := picker.Current()
	pt, err := location.ParseRef(current)
	if err != nil {
		pt = location.Fallback
	}
	return marker{Point: pt, Ready: true}
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, fc *directory.FormController, m marker, errs map[string]string, status int) {
	ctx := r.Context()
	draft := fc.Draft()
	if errs == nil {
		errs = map[string]string{}
	}
	fv := formView{
		Mode:       "create",
		Action:     "/businesses",
		ID:         draft.ID,
		Values:     draft.Values(),
		Errors:     errs,
		Point:      m.Point,
		MapReady:   m.Ready,
		MapsAPIKey: h.mapsAPIKey,
		InFlight:   fc.InFlight(ctx),
	}
	title := "Register Business"
	if draft.IsUpdate() {
		fv.Mode = "update"
		fv.Action = "/businesses/" + draft.ID
		title = "Edit Business"
	}
	h.render(w, r, "pages/business_form.html", title, map[string]any{"Form": fv}, status)
}
