package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/google/uuid"
)

// ReportTimeout is the maximum duration for building one report.
var ReportTimeout = 2 * time.Minute

// Options configures a Service.
type Options struct {
	Keywords      coverage.KeywordSet
	DefaultSheet  string
	MaxFileSize   int64
	MaxConcurrent int
	MaxWaitTime   time.Duration

	// Store enables snapshots. Nil disables them.
	Store  SnapshotStore
	Logger *slog.Logger
}

// Service holds the loaded workbooks and builds reports over them.
type Service struct {
	keywords     coverage.KeywordSet
	defaultSheet string
	maxFileSize  int64
	limiter      *UploadLimiter
	store        SnapshotStore
	logger       *slog.Logger

	mu        sync.RWMutex
	workbooks map[string]*workbook
}

type workbook struct {
	info     WorkbookInfo
	analyzer *coverage.Analyzer
}

// NewService creates a new Service instance.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sheet := opts.DefaultSheet
	if sheet == "" {
		sheet = "Sheet1"
	}

	return &Service{
		keywords:     opts.Keywords,
		defaultSheet: sheet,
		maxFileSize:  opts.MaxFileSize,
		limiter:      NewUploadLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		store:        opts.Store,
		logger:       logger,
		workbooks:    make(map[string]*workbook),
	}
}

// Keywords returns the configured keyword slots.
func (s *Service) Keywords() coverage.KeywordSet {
	return s.keywords
}

// SnapshotsEnabled reports whether a snapshot store is configured.
func (s *Service) SnapshotsEnabled() bool {
	return s.store != nil
}

// RegisterFile loads the workbook at path and registers it under id.
// Used at startup for the configured default workbook.
func (s *Service) RegisterFile(ctx context.Context, id, path, sheet string) (WorkbookInfo, error) {
	if sheet == "" {
		sheet = s.defaultSheet
	}
	src := coverage.FileSource{Path: path}
	return s.register(ctx, id, filepath.Base(path), src, sheet)
}

// OpenWorkbook reads an uploaded workbook and registers it under a new id.
// The reader is consumed up to the configured size limit.
func (s *Service) OpenWorkbook(ctx context.Context, name string, r io.Reader, sheet string) (WorkbookInfo, error) {
	if r == nil {
		return WorkbookInfo{}, ErrNoFile
	}
	if sheet == "" {
		sheet = s.defaultSheet
	}

	data, err := s.readLimited(r)
	if err != nil {
		return WorkbookInfo{}, err
	}

	src := coverage.BytesSource{FileName: name, Data: data}
	return s.register(ctx, uuid.NewString(), name, src, sheet)
}

func (s *Service) readLimited(r io.Reader) ([]byte, error) {
	if s.maxFileSize <= 0 {
		return io.ReadAll(r)
	}

	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n > s.maxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxFileSize)
	}
	return buf.Bytes(), nil
}

func (s *Service) register(ctx context.Context, id, name string, src coverage.Source, sheet string) (WorkbookInfo, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return WorkbookInfo{}, err
	}
	defer s.limiter.Release()

	a := coverage.New(src, sheet, s.keywords,
		coverage.WithLogger(s.logger.With("workbook_id", id)),
	)
	t, err := a.Open()
	if err != nil {
		return WorkbookInfo{}, err
	}

	info := WorkbookInfo{
		ID:         id,
		Name:       name,
		Sheet:      sheet,
		Rows:       t.Len(),
		UploadedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.workbooks[id] = &workbook{info: info, analyzer: a}
	s.mu.Unlock()

	s.logger.Info("workbook registered",
		"workbook_id", id,
		"name", name,
		"sheet", sheet,
		"rows", info.Rows,
	)
	return info, nil
}

// Workbook returns the analyzer for id.
func (s *Service) Workbook(id string) (*coverage.Analyzer, WorkbookInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wb, ok := s.workbooks[id]
	if !ok {
		return nil, WorkbookInfo{}, fmt.Errorf("%w: %s", ErrWorkbookNotFound, id)
	}
	return wb.analyzer, wb.info, nil
}

// Workbooks lists registered workbooks, newest first.
func (s *Service) Workbooks() []WorkbookInfo {
	s.mu.RLock()
	out := make([]WorkbookInfo, 0, len(s.workbooks))
	for _, wb := range s.workbooks {
		out = append(out, wb.info)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// RemoveWorkbook drops a workbook from the registry.
func (s *Service) RemoveWorkbook(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workbooks[id]; !ok {
		return fmt.Errorf("%w: %s", ErrWorkbookNotFound, id)
	}
	delete(s.workbooks, id)
	s.logger.Info("workbook removed", "workbook_id", id)
	return nil
}

// ResolveTerms returns terms, or the selected keyword slots when terms is empty.
func (s *Service) ResolveTerms(terms []string) []string {
	var out []string
	for _, t := range terms {
		if t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return s.keywords.Selected()
	}
	return out
}

// BuildReport computes every metric for the workbook and terms.
// An unparseable date does not fail the report; the trendline is left empty
// and a warning is added instead.
func (s *Service) BuildReport(ctx context.Context, id string, terms []string) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, ReportTimeout)
	defer cancel()

	base, info, err := s.Workbook(id)
	if err != nil {
		return nil, err
	}

	terms = s.ResolveTerms(terms)
	charts := &coverage.ChartRecorder{}
	a := base.WithRenderer(charts)

	rep := &Report{
		WorkbookID:   info.ID,
		WorkbookName: info.Name,
		Sheet:        info.Sheet,
		Terms:        terms,
		GeneratedAt:  time.Now().UTC(),
	}

	steps := []func() error{
		func() (err error) { rep.TotalMentions, err = a.TotalMentions(terms...); return },
		func() (err error) { rep.HeadlineMentions, err = a.HeadlineMentions(terms...); return },
		func() (err error) { rep.Reach, err = a.ReachSum(terms...); return },
		func() (err error) { rep.AVE, err = a.AVESum(terms...); return },
		func() (err error) { rep.Sentiment, err = a.SentimentCounts(terms...); return },
		func() error {
			trend, err := a.DailyTrendline(terms...)
			if err != nil {
				rep.Warnings = append(rep.Warnings, FormatUserError(err))
				s.logger.Warn("trendline skipped", "workbook_id", id, "error", err)
				return nil
			}
			rep.Trendline = trend
			return nil
		},
		func() (err error) { rep.TopSources, err = a.TopSources(terms...); return },
		func() (err error) { rep.TopAuthors, err = a.TopAuthors(terms...); return },
		func() (err error) { rep.Summary, err = a.Summary(); return },
		func() (err error) { rep.SentimentOverview, err = a.SentimentOverview(); return },
		func() (err error) { rep.Prominence, err = a.ProminenceScores(coverage.KeywordGroup(terms)); return },
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step(); err != nil {
			return nil, fmt.Errorf("build report for %s: %w", id, err)
		}
	}

	rep.Charts = charts.Charts()
	return rep, nil
}

// SaveSnapshot builds a report and stores it.
func (s *Service) SaveSnapshot(ctx context.Context, id string, terms []string) (*Snapshot, error) {
	if s.store == nil {
		return nil, ErrSnapshotsDisabled
	}

	rep, err := s.BuildReport(ctx, id, terms)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		WorkbookID:   rep.WorkbookID,
		WorkbookName: rep.WorkbookName,
		Sheet:        rep.Sheet,
		Terms:        rep.Terms,
		Report:       rep,
	}
	if err := s.store.Save(ctx, snap); err != nil {
		return nil, err
	}

	s.logger.Info("snapshot saved", "snapshot_id", snap.ID, "workbook_id", id)
	return snap, nil
}

// ListSnapshots lists stored snapshots, newest first.
func (s *Service) ListSnapshots(ctx context.Context, workbookID string, limit int) ([]Snapshot, error) {
	if s.store == nil {
		return nil, ErrSnapshotsDisabled
	}
	return s.store.List(ctx, workbookID, limit)
}

// GetSnapshot returns one stored snapshot with its report.
func (s *Service) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	if s.store == nil {
		return nil, ErrSnapshotsDisabled
	}
	return s.store.Get(ctx, id)
}

// UploadLimiterStatus returns the current upload limiter state.
func (s *Service) UploadLimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight workbook parses finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// FileExists reports whether path names a regular file.
func FileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}
