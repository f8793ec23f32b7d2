package core

import (
	"context"
	"errors"
	"time"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrWorkbookNotFound is returned for an unknown workbook id.
	ErrWorkbookNotFound = errors.New("workbook not found")
	// ErrFileTooLarge is returned when an upload exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")
	// ErrNoFile is returned when an upload carries no data.
	ErrNoFile = errors.New("no file provided")
	// ErrSnapshotsDisabled is returned by snapshot calls without a database.
	ErrSnapshotsDisabled = errors.New("snapshots disabled")
	// ErrSnapshotNotFound is returned for an unknown snapshot id.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DefaultWorkbookID is the id of the workbook configured with WORKBOOK_PATH.
const DefaultWorkbookID = "default"

// WorkbookInfo describes a registered workbook.
type WorkbookInfo struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Sheet      string    `json:"sheet"`
	Rows       int       `json:"rows"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Report bundles every metric for one workbook and term list.
type Report struct {
	WorkbookID        string                   `json:"workbook_id"`
	WorkbookName      string                   `json:"workbook_name"`
	Sheet             string                   `json:"sheet"`
	Terms             []string                 `json:"terms"`
	GeneratedAt       time.Time                `json:"generated_at"`
	TotalMentions     int                      `json:"total_mentions"`
	HeadlineMentions  int                      `json:"headline_mentions"`
	Reach             float64                  `json:"reach"`
	AVE               float64                  `json:"ave"`
	Sentiment         coverage.SentimentCounts `json:"sentiment"`
	Trendline         coverage.Trendline       `json:"trendline"`
	TopSources        coverage.Ranking         `json:"top_sources"`
	TopAuthors        coverage.Ranking         `json:"top_authors"`
	Summary           coverage.SummaryTable    `json:"summary"`
	SentimentOverview coverage.SentimentTable  `json:"sentiment_overview"`
	Prominence        coverage.ProminenceTable `json:"prominence"`
	Charts            []coverage.Chart         `json:"charts"`
	Warnings          []string                 `json:"warnings,omitempty"`
}

// Snapshot is a stored report.
type Snapshot struct {
	ID           string    `json:"id"`
	WorkbookID   string    `json:"workbook_id"`
	WorkbookName string    `json:"workbook_name"`
	Sheet        string    `json:"sheet"`
	Terms        []string  `json:"terms"`
	CreatedAt    time.Time `json:"created_at"`
	Report       *Report   `json:"report,omitempty"`
}
