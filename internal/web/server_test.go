package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/coverage/internal/config"
	"github.com/JonMunkholm/coverage/internal/core"
	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var coverageCSV = strings.Join([]string{
	"Date,Headline,Keywords,Source,Influencer,Reach,AVE,Sentiment,Opening Text,Hit Sentence",
	`15-Jan-2024 09:30AM,Delta expands routes,Delta,Reuters,Ann Lee,1000,50.25,Positive,Delta said,routes`,
	`15-Jan-2024 11:00AM,Airline news,delta,Bloomberg,Bo Chan,500,10,Negative,Flights,delta delays`,
	`16-Jan-2024 08:15AM,United strike,United,Reuters,Ann Lee,200,5,Neutral,United crews,strike`,
	`17-Jan-2024 10:45PM,Delta lounge opens,Delta,AP,Cy Ray,300,2.5,Positive,New lounge,Delta lounge`,
}, "\n") + "\n"

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           0,
			RequestTimeout: 10 * time.Second,
		},
		Workbook: config.WorkbookConfig{
			Sheet:       "Sheet1",
			MaxFileSize: 1 << 20,
		},
	}
}

type testServer struct {
	t   *testing.T
	srv *Server
	svc *core.Service
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()
	svc := core.NewService(core.Options{
		Keywords:     coverage.NewKeywordSet("Delta", "", "United"),
		DefaultSheet: cfg.Workbook.Sheet,
		MaxFileSize:  cfg.Workbook.MaxFileSize,
	})
	srv := NewServer(svc, cfg)
	t.Cleanup(func() { srv.Shutdown(context.Background()) })
	return &testServer{t: t, srv: srv, svc: svc}
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ts.srv.Router().ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func uploadRequest(t *testing.T, path, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// upload registers coverageCSV and returns its id.
func (ts *testServer) upload() string {
	ts.t.Helper()
	rec := ts.do(uploadRequest(ts.t, "/api/workbooks", "coverage.csv", coverageCSV))
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())

	var info core.WorkbookInfo
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &info))
	require.Equal(ts.t, 4, info.Rows)
	return info.ID
}

func decodeMetric(t *testing.T, rec *httptest.ResponseRecorder) MetricResponse {
	t.Helper()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp MetricResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

func TestScalarMetrics(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	tests := []struct {
		path string
		want float64
	}{
		{"/mentions?keyword=Delta", 3},
		{"/headline-mentions?keyword=Delta", 2},
		{"/reach?keyword=Delta", 1800},
		{"/ave?keyword=Delta", 62.75},
		{"/mentions?keyword=Delta&keyword=United", 4},
		{"/mentions?keyword=Delta,United", 4},
		{"/mentions", 4},
		{"/mentions?keyword=Nobody", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp := decodeMetric(t, ts.get("/api/workbooks/"+id+tt.path))
			assert.Equal(t, tt.want, resp.Value)
			assert.Equal(t, id, resp.WorkbookID)
		})
	}
}

func TestSentimentRecordsChart(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	resp := decodeMetric(t, ts.get("/api/workbooks/"+id+"/sentiment?keyword=Delta"))
	assert.Equal(t, map[string]any{"Positive": 2.0, "Neutral": 0.0, "Negative": 1.0}, resp.Value)
	require.Len(t, resp.Charts, 1)
	assert.Equal(t, coverage.ChartSentimentPie, resp.Charts[0].Kind)
	assert.Equal(t, []int{2, 0, 1}, resp.Charts[0].Inner)
}

func TestSummaryUsesConfiguredSlots(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	resp := decodeMetric(t, ts.get("/api/workbooks/"+id+"/summary?keyword=ignored"))
	assert.Empty(t, resp.Terms)

	rows, ok := resp.Value.([]any)
	require.True(t, ok, "summary value is %T", resp.Value)
	assert.Len(t, rows, 5, "two keywords and three sentiment rows")

	kinds := make([]coverage.ChartKind, len(resp.Charts))
	for i, c := range resp.Charts {
		kinds[i] = c.Kind
	}
	assert.Equal(t, []coverage.ChartKind{coverage.ChartSentimentPie, coverage.ChartPiePair}, kinds)
}

func TestTabularCSV(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	rec := ts.get("/api/workbooks/" + id + "/top-sources?keyword=Delta&format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "top_sources_")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Rank,Source,Volume,AVE", lines[0])
	// Equal volumes are ordered by name
	assert.Equal(t, "1,AP,1,2.50", lines[1])
	assert.Equal(t, "2,Reuters,1,50.25", lines[2])
}

func TestTrendlineAndProminence(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	trend := decodeMetric(t, ts.get("/api/workbooks/"+id+"/trendline?keyword=Delta"))
	assert.Len(t, trend.Value, 2)

	prom := decodeMetric(t, ts.get("/api/workbooks/"+id+"/prominence?keyword=Delta"))
	rows, ok := prom.Value.([]any)
	require.True(t, ok)
	assert.Len(t, rows, 3)

	empty := decodeMetric(t, ts.get("/api/workbooks/"+id+"/top-authors?keyword=Nobody"))
	assert.Equal(t, map[string]any{"group_column": "Influencer", "entries": []any{}}, empty.Value)
}

func TestUnknownWorkbook(t *testing.T) {
	ts := newTestServer(t, testConfig())

	rec := ts.get("/api/workbooks/missing/mentions")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "WB001", decodeError(t, rec).Code)

	page := ts.get("/workbook/missing")
	assert.Equal(t, http.StatusNotFound, page.Code)
	assert.Contains(t, page.Body.String(), "WB001")
}

func TestUploadErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Workbook.MaxFileSize = 100
	ts := newTestServer(t, cfg)

	rec := ts.do(uploadRequest(t, "/api/workbooks", "coverage.csv", coverageCSV))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "FILE001", decodeError(t, rec).Code)

	rec = ts.do(uploadRequest(t, "/api/workbooks", "bad.csv", "Date,Headline\nx,y\n"))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "LOAD003", decodeError(t, rec).Code)

	rec = ts.do(httptest.NewRequest(http.MethodPost, "/api/workbooks", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FILE004", decodeError(t, rec).Code)
}

func TestWorkbookLifecycle(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	var list []core.WorkbookInfo
	rec := ts.get("/api/workbooks")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)

	del := ts.do(httptest.NewRequest(http.MethodDelete, "/api/workbooks/"+id+"/", nil))
	assert.Equal(t, http.StatusNoContent, del.Code)
	assert.Equal(t, http.StatusNotFound, ts.get("/api/workbooks/"+id+"/").Code)
}

func TestReportJSONAndXLSX(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	rec := ts.get("/api/workbooks/" + id + "/report?keyword=Delta")
	require.Equal(t, http.StatusOK, rec.Code)
	var rep core.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 3, rep.TotalMentions)
	assert.NotEmpty(t, rep.Charts)

	x := ts.get("/api/workbooks/" + id + "/report.xlsx?keyword=Delta")
	require.Equal(t, http.StatusOK, x.Code, x.Body.String())

	f, err := excelize.OpenReader(bytes.NewReader(x.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{SheetOverview, SheetTrendline, SheetSources, SheetAuthors, SheetSummary, SheetSentiment, SheetProminent}, f.GetSheetList())

	rows, err := f.GetRows(SheetSources)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rank", "Source", "Volume", "AVE"}, rows[0])
	assert.Equal(t, "AP", rows[1][1])
}

func TestPages(t *testing.T) {
	ts := newTestServer(t, testConfig())

	dash := ts.get("/")
	require.Equal(t, http.StatusOK, dash.Code)
	assert.Contains(t, dash.Body.String(), "No workbooks loaded yet")
	assert.Equal(t, "nosniff", dash.Header().Get("X-Content-Type-Options"))

	rec := ts.do(uploadRequest(t, "/upload", "march.csv", coverageCSV))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/workbook/"), loc)

	page := ts.get(loc + "?keyword=Delta")
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, "march.csv")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "Reuters")

	assert.Contains(t, ts.get("/").Body.String(), "march.csv")
}

func TestSnapshotsDisabled(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	rec := ts.do(httptest.NewRequest(http.MethodPost, "/api/workbooks/"+id+"/snapshots", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "SNAP001", decodeError(t, rec).Code)

	assert.Equal(t, http.StatusNotImplemented, ts.get("/api/snapshots").Code)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"secret"}}
	ts := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, ts.get("/api/workbooks").Code)

	req := httptest.NewRequest(http.MethodGet, "/api/workbooks", nil)
	req.Header.Set("X-API-Key", "secret")
	assert.Equal(t, http.StatusOK, ts.do(req).Code)

	// Pages are not behind the key
	assert.Equal(t, http.StatusOK, ts.get("/").Code)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	ts := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, ts.get("/api/status").Code)
	assert.Equal(t, http.StatusOK, ts.get("/api/status").Code)

	rec := ts.get("/api/status")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE001", decodeError(t, rec).Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestKeywordsEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())

	var got map[string][]string
	require.NoError(t, json.Unmarshal(ts.get("/api/keywords").Body.Bytes(), &got))
	assert.Equal(t, []string{"Delta", "United"}, got["selected"])
	assert.Equal(t, []string{"Delta", "", "United", "", "", ""}, got["slots"])
}

func TestWorkbookPreview(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := ts.upload()

	rec := ts.get("/api/workbooks/" + id + "/preview?limit=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var preview core.PreviewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &preview))
	assert.Equal(t, 4, preview.Summary.TotalRows)
	assert.True(t, preview.Summary.TrendlineReady)
	require.Len(t, preview.Samples, 1)
	assert.Equal(t, "Delta expands routes", preview.Samples[0].Values["Headline"])

	rec = ts.get("/api/workbooks/missing/preview")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
