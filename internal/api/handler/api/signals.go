package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/newthinker/signaldesk/internal/api/response"
	"github.com/newthinker/signaldesk/internal/backend"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/dashboard"
	"github.com/newthinker/signaldesk/internal/daterange"
)

// Dashboard is the part of the dashboard the JSON API drives.
type Dashboard interface {
	View() dashboard.View
	Fetch(ctx context.Context, exchange string, filter daterange.Filter) (*backend.SignalsResult, error)
	SetSort(st dashboard.SortState)
	LoadHistory(ctx context.Context, exchange string) ([]core.HistoryEntry, error)
}

// SignalsHandler serves the dashboard state as JSON.
type SignalsHandler struct {
	dashboard Dashboard
}

// NewSignalsHandler creates a new signals handler.
func NewSignalsHandler(d Dashboard) *SignalsHandler {
	return &SignalsHandler{dashboard: d}
}

// View returns the current dashboard snapshot.
func (h *SignalsHandler) View(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.dashboard.View())
}

// FetchRequest is the body of POST /api/fetch. Either DaysAgo or both dates
// must be given.
type FetchRequest struct {
	Exchange string               `json:"exchange"`
	DaysAgo  *int                 `json:"days_ago,omitempty"`
	FromDate string               `json:"from_date,omitempty"`
	ToDate   string               `json:"to_date,omitempty"`
	Sort     *dashboard.SortState `json:"sort,omitempty"`
}

func (req FetchRequest) filter() (daterange.Filter, error) {
	if req.DaysAgo != nil {
		return daterange.Days(*req.DaysAgo), nil
	}
	return daterange.Resolve(daterange.ModeCustom, "", req.FromDate, req.ToDate)
}

// Fetch runs a signal fetch and returns the resulting view. Empty results
// are not an error here; the view carries the empty-state message.
func (h *SignalsHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	var req FetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, core.WrapError(core.ErrBadRequest, err))
		return
	}
	if req.Exchange == "" {
		req.Exchange = h.dashboard.View().Exchange
	}

	filter, err := req.filter()
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return
	}
	if req.Sort != nil {
		h.dashboard.SetSort(*req.Sort)
	}

	_, err = h.dashboard.Fetch(r.Context(), req.Exchange, filter)
	switch {
	case err == nil, errors.Is(err, core.ErrNoSignals):
		response.JSON(w, http.StatusOK, h.dashboard.View())
	case errors.Is(err, core.ErrStaleResponse):
		response.Error(w, http.StatusConflict, err)
	case errors.Is(err, core.ErrBackend):
		response.Error(w, http.StatusBadGateway, err)
	default:
		response.Error(w, http.StatusServiceUnavailable, err)
	}
}

// History returns the history rows for the exchange in the path.
func (h *SignalsHandler) History(w http.ResponseWriter, r *http.Request) {
	exchange := r.PathValue("exchange")
	history, err := h.dashboard.LoadHistory(r.Context(), exchange)
	if err != nil && !errors.Is(err, core.ErrNoHistory) {
		response.Error(w, http.StatusServiceUnavailable, err)
		return
	}
	if history == nil {
		history = []core.HistoryEntry{}
	}
	response.JSON(w, http.StatusOK, map[string]any{
		"exchange": exchange,
		"history":  history,
	})
}
