package web

import (
	"net/http"

	"github.com/JonMunkholm/coverage/internal/logging"
	"github.com/JonMunkholm/coverage/internal/web/views"
	"github.com/go-chi/chi/v5"
)

// handleDashboard renders the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data := views.DashboardData{
		Workbooks:        s.service.Workbooks(),
		Keywords:         s.service.Keywords().Selected(),
		DefaultSheet:     s.cfg.Workbook.Sheet,
		SnapshotsEnabled: s.service.SnapshotsEnabled(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.Dashboard(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render dashboard", "error", err)
	}
}

// handleWorkbookPage renders the HTML report for one workbook.
func (s *Server) handleWorkbookPage(w http.ResponseWriter, r *http.Request) {
	rep, err := s.service.BuildReport(r.Context(), chi.URLParam(r, "id"), parseTerms(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.ReportPage(rep).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render report", "workbook_id", rep.WorkbookID, "error", err)
	}
}
