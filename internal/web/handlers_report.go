package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.service.BuildReport(r.Context(), chi.URLParam(r, "id"), parseTerms(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, rep)
}

// handleReportXLSX downloads the report as a workbook with one sheet per table.
func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rep, err := s.service.BuildReport(r.Context(), id, parseTerms(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Buffer so a failed export can still return an error status
	var buf bytes.Buffer
	if err := WriteReportXLSX(&buf, rep); err != nil {
		s.respondError(w, r, err)
		return
	}

	filename := fmt.Sprintf("coverage_report_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}

func (s *Server) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.SaveSnapshot(r.Context(), chi.URLParam(r, "id"), parseTerms(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, snap)
}

// handleListSnapshots lists snapshot headers. ?workbook= filters by workbook id.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.service.ListSnapshots(r.Context(), r.URL.Query().Get("workbook"), parseIntParam(r, "limit", 50))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []core.Snapshot{}
	}
	writeJSON(w, r, http.StatusOK, snaps)
}

func (s *Server) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.GetSnapshot(r.Context(), chi.URLParam(r, "snapshotID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, snap)
}
