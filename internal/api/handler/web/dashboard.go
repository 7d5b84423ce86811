// internal/api/handler/web/dashboard.go
package web

import (
	"net/http"

	"github.com/newthinker/signaldesk/internal/dashboard"
)

// DashboardData holds data for the dashboard template
type DashboardData struct {
	Title string
	Alert string
	View  dashboard.View
}

// Dashboard renders the single dashboard page.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{
		Title: "Signal Dashboard",
		Alert: r.URL.Query().Get("alert"),
		View:  h.controller.View(),
	}
	h.render(w, "dashboard.html", data)
}
