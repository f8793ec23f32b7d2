package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/JonMunkholm/coverage/internal/logging"
	"github.com/go-chi/chi/v5"
)

// StatusResponse reports server capacity.
type StatusResponse struct {
	Workbooks        int                      `json:"workbooks"`
	SnapshotsEnabled bool                     `json:"snapshots_enabled"`
	Uploads          core.UploadLimiterStatus `json:"uploads"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, StatusResponse{
		Workbooks:        len(s.service.Workbooks()),
		SnapshotsEnabled: s.service.SnapshotsEnabled(),
		Uploads:          s.service.UploadLimiterStatus(),
	})
}

// handleKeywords returns the six configured keyword slots and the selected ones.
func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	ks := s.service.Keywords()
	slots := make([]string, coverage.MaxKeywordSlots)
	for i := range slots {
		slots[i] = ks.Slot(i + 1)
	}
	writeJSON(w, r, http.StatusOK, map[string][]string{
		"slots":    slots,
		"selected": ks.Selected(),
	})
}

func (s *Server) handleListWorkbooks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.service.Workbooks())
}

func (s *Server) handleGetWorkbook(w http.ResponseWriter, r *http.Request) {
	_, info, err := s.service.Workbook(chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

// handleWorkbookPreview returns data-quality counts and ?limit= sample rows.
func (s *Server) handleWorkbookPreview(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", core.DefaultPreviewRows)
	preview, err := s.service.Preview(chi.URLParam(r, "id"), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, preview)
}

func (s *Server) handleDeleteWorkbook(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveWorkbook(chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadWorkbook registers a multipart "file" upload. The optional
// "sheet" field overrides WORKBOOK_SHEET.
func (s *Server) handleUploadWorkbook(w http.ResponseWriter, r *http.Request) {
	info, err := s.receiveUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, info)
}

// handleUploadForm is the dashboard form target; it redirects to the report page.
func (s *Server) handleUploadForm(w http.ResponseWriter, r *http.Request) {
	info, err := s.receiveUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	http.Redirect(w, r, "/workbook/"+info.ID, http.StatusSeeOther)
}

// multipartOverhead allows for form boundaries and fields around the file.
// The file itself is held to MaxFileSize by the service.
const multipartOverhead = 1 << 20

func (s *Server) receiveUpload(w http.ResponseWriter, r *http.Request) (core.WorkbookInfo, error) {
	maxSize := s.cfg.Workbook.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return core.WorkbookInfo{}, core.ErrFileTooLarge
		}
		return core.WorkbookInfo{}, core.ErrNoFile
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return core.WorkbookInfo{}, core.ErrNoFile
	}
	defer file.Close()

	info, err := s.service.OpenWorkbook(r.Context(), header.Filename, file, r.FormValue("sheet"))
	if err != nil {
		return info, err
	}

	logging.WithFields(r.Context(), "workbook_id", info.ID, "file", info.Name).
		Info("workbook uploaded", "rows", info.Rows, "bytes", header.Size)
	return info, nil
}
