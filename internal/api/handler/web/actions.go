// internal/api/handler/web/actions.go
package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/newthinker/signaldesk/internal/api/response"
	"github.com/newthinker/signaldesk/internal/core"
	"github.com/newthinker/signaldesk/internal/dashboard"
	"github.com/newthinker/signaldesk/internal/daterange"
	"github.com/newthinker/signaldesk/internal/storage/archive"
	"go.uber.org/zap"
)

// Fetch stores the submitted date inputs and fetches signals. Failures are
// shown in the page's empty state rather than as an alert.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, core.ErrBadRequest.Message)
		return
	}

	if m := r.PostForm.Get("mode"); m != "" {
		mode, err := daterange.ParseMode(m)
		if err != nil {
			redirect(w, r, core.UserMessage(err))
			return
		}
		h.controller.SetDateMode(mode)
	}

	cur := h.controller.View().Date
	h.controller.SetDateInputs(
		formOr(r, "days_ago", cur.DaysAgo),
		formOr(r, "from_date", cur.FromDate),
		formOr(r, "to_date", cur.ToDate),
	)

	if _, err := h.controller.FetchCurrent(r.Context()); err != nil {
		h.logger.Debug("fetch from page", zap.Error(err))
	}
	redirect(w, r, "")
}

// Sort applies the sort toggles. Unchecked boxes are absent from the form.
func (h *Handler) Sort(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirect(w, r, core.ErrBadRequest.Message)
		return
	}

	st := dashboard.SortState{
		BySentiment: r.PostForm.Get("by_sentiment") != "",
		ByPL:        r.PostForm.Get("by_pl") != "",
		PLDirection: dashboard.Descending,
	}
	if d := r.PostForm.Get("pl_direction"); d != "" {
		dir, err := dashboard.ParseDirection(d)
		if err != nil {
			redirect(w, r, err.Error())
			return
		}
		st.PLDirection = dir
	}
	h.controller.SetSort(st)
	redirect(w, r, "")
}

// Exchange switches the selected exchange and reloads its history.
func (h *Handler) Exchange(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.FormValue("exchange"))
	if code == "" {
		redirect(w, r, core.ErrBadRequest.Message)
		return
	}
	if err := h.controller.SetExchange(r.Context(), code); err != nil {
		h.logger.Debug("history after exchange change", zap.String("exchange", code), zap.Error(err))
	}
	redirect(w, r, "")
}

// Tab activates a page tab.
func (h *Handler) Tab(w http.ResponseWriter, r *http.Request) {
	tab := dashboard.Tab(r.FormValue("tab"))
	if tab != dashboard.TabSignals && tab != dashboard.TabHistory {
		redirect(w, r, core.ErrBadRequest.Message)
		return
	}
	if err := h.controller.ActivateTab(r.Context(), tab); err != nil {
		h.logger.Debug("history on tab activation", zap.Error(err))
	}
	redirect(w, r, "")
}

// DateMode switches between the days input and the date range inputs.
func (h *Handler) DateMode(w http.ResponseWriter, r *http.Request) {
	mode, err := daterange.ParseMode(r.FormValue("mode"))
	if err != nil {
		redirect(w, r, core.UserMessage(err))
		return
	}
	h.controller.SetDateMode(mode)
	redirect(w, r, "")
}

// Login signs in with the submitted email.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	if err := h.controller.Login(r.Context(), email); err != nil {
		redirect(w, r, core.UserMessage(err))
		return
	}
	redirect(w, r, "")
}

// Logout clears the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Logout(r.Context()); err != nil {
		h.logger.Warn("logout", zap.Error(err))
	}
	redirect(w, r, "")
}

// Export downloads the fetched signals as the backend formatted them.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	file, err := h.controller.Export(r.Context())
	switch {
	case errors.Is(err, core.ErrNothingToExport):
		redirect(w, r, core.ErrNothingToExport.Message)
		return
	case err != nil:
		redirect(w, r, core.ErrExportFailed.Message)
		return
	}
	response.Attachment(w, file.Filename, archive.ContentType(file.Filename), file.Content)
}

func formOr(r *http.Request, key, fallback string) string {
	if _, ok := r.PostForm[key]; ok {
		return r.PostForm.Get(key)
	}
	return fallback
}
