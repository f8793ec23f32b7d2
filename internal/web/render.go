package web

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/JonMunkholm/coverage/internal/logging"
)

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", "error", err)
	}
}

// wantsCSV reports whether the caller asked for ?format=csv.
func wantsCSV(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("format"), "csv")
}

// writeCSV streams a tabular result as a CSV download.
func writeCSV(w http.ResponseWriter, r *http.Request, name string, t coverage.Tabular) {
	filename := fmt.Sprintf("%s_%s.csv", name, time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns()); err != nil {
		return
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		// Can't change status code after writing, just log
		logging.FromContext(r.Context()).Error("csv write error", "error", err)
	}
}

// parseTerms returns the repeated ?keyword= values. Comma-separated values
// are split so that ?keyword=a,b works from a browser address bar.
func parseTerms(r *http.Request) []string {
	var terms []string
	for _, v := range r.URL.Query()["keyword"] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				terms = append(terms, part)
			}
		}
	}
	return terms
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
