package business

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/synapse-directory/synapse/internal/directory"
	"github.com/synapse-directory/synapse/internal/location"
	"github.com/synapse-directory/synapse/internal/platform/httpx"
)

type locationResponse struct {
	LocationLink string  `json:"locationLink"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
}

func newLocationResponse(ref string) locationResponse {
	pt, err := location.ParseRef(ref)
	if err != nil {
		pt = location.Fallback
		ref = location.FallbackRef()
	}
	return locationResponse{LocationLink: ref, Lat: pt.Lat, Lng: pt.Lng}
}

type listResponse struct {
	Data  []directory.Record `json:"data"`
	Total int                `json:"total"`
}

// apiList serves the normalised listing for the browser and integrations.
func (h *Handler) apiList(w http.ResponseWriter, r *http.Request) {
	state := h.load(r.Context())
	if state.Status == directory.StatusFailed {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUpstream, directory.Message(state.Err)))
		return
	}
	records := state.Records
	if wantsApproved(r.URL.Query().Get("approved")) {
		records = directory.FilterApproved(records)
	}
	records = directory.Filter(records, r.URL.Query().Get("q"))
	if records == nil {
		records = []directory.Record{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: records, Total: len(records)})
}

func (h *Handler) locationDefault(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, newLocationResponse(location.FallbackRef()))
}

// readyPicker returns an initialised picker with no form attached.
func (h *Handler) readyPicker(ctx context.Context) (*location.Picker, error) {
	picker := location.NewPicker(h.maps, nil)
	waitCtx, cancel := context.WithTimeout(ctx, h.mapWait)
	defer cancel()
	if err := picker.Init(waitCtx); err != nil {
		return nil, err
	}
	return picker, nil
}

func (h *Handler) locationSearch(w http.ResponseWriter, r *http.Request) {
	picker, err := h.readyPicker(r.Context())
	if err != nil {
		h.logger.Warn("map provider not ready", slog.Any("error", err))
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUnavailable, location.ErrNotReady.Error()))
		return
	}
	ref, err := picker.Select(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httpx.RespondError(w, locationError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, newLocationResponse(ref))
}

type pickRequest struct {
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Kind string  `json:"kind"`
}

// locationPick turns a map click or marker drop into a location reference.
func (h *Handler) locationPick(w http.ResponseWriter, r *http.Request) {
	var req pickRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: invalid JSON body", httpx.ErrValidation))
		return
	}
	picker, err := h.readyPicker(r.Context())
	if err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %s", httpx.ErrUnavailable, location.ErrNotReady.Error()))
		return
	}
	var ref string
	if req.Kind == "drag" {
		ref, err = picker.Drag(req.Lat, req.Lng)
	} else {
		ref, err = picker.Click(req.Lat, req.Lng)
	}
	if err != nil {
		httpx.RespondError(w, locationError(err))
		return
	}
	httpx.JSON(w, http.StatusOK, newLocationResponse(ref))
}

func locationError(err error) error {
	switch {
	case errors.Is(err, location.ErrNoPlace):
		return fmt.Errorf("%w: %s", httpx.ErrNotFound, err.Error())
	case errors.Is(err, location.ErrInvalidPoint):
		return fmt.Errorf("%w: %s", httpx.ErrValidation, err.Error())
	case errors.Is(err, location.ErrSearchUnsupported), errors.Is(err, location.ErrNotReady):
		return fmt.Errorf("%w: %s", httpx.ErrUnavailable, err.Error())
	}
	return fmt.Errorf("%w: %s", httpx.ErrUpstream, err.Error())
}
