package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// SnapshotStore persists generated reports.
type SnapshotStore interface {
	EnsureSchema(ctx context.Context) error
	Save(ctx context.Context, snap *Snapshot) error
	List(ctx context.Context, workbookID string, limit int) ([]Snapshot, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	// Prune deletes snapshots created before cutoff and returns the count.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// PgSnapshotStore stores snapshots in PostgreSQL with the report as JSONB.
type PgSnapshotStore struct {
	db DBTX
}

// NewPgSnapshotStore creates a store over a pool or transaction.
func NewPgSnapshotStore(db DBTX) *PgSnapshotStore {
	return &PgSnapshotStore{db: db}
}

const createSnapshotsTable = `
CREATE TABLE IF NOT EXISTS report_snapshots (
	id            UUID PRIMARY KEY,
	workbook_id   TEXT NOT NULL,
	workbook_name TEXT NOT NULL,
	sheet         TEXT NOT NULL,
	terms         TEXT[] NOT NULL,
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS report_snapshots_workbook_idx
	ON report_snapshots (workbook_id, created_at DESC);`

// EnsureSchema creates the snapshot table if it does not exist.
func (s *PgSnapshotStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createSnapshotsTable); err != nil {
		return fmt.Errorf("create report_snapshots: %w", err)
	}
	return nil
}

// Save inserts snap, assigning an id and creation time when unset.
func (s *PgSnapshotStore) Save(ctx context.Context, snap *Snapshot) error {
	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	id := ToPgUUID(snap.ID)
	if !id.Valid {
		return fmt.Errorf("invalid snapshot id %q", snap.ID)
	}

	payload, err := json.Marshal(snap.Report)
	if err != nil {
		return fmt.Errorf("encode snapshot report: %w", err)
	}

	terms := snap.Terms
	if terms == nil {
		terms = []string{}
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO report_snapshots (id, workbook_id, workbook_name, sheet, terms, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, snap.WorkbookID, snap.WorkbookName, snap.Sheet, terms, payload,
		pgtype.Timestamptz{Time: snap.CreatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// List returns snapshot headers, newest first. An empty workbookID lists all.
// The Report field is not populated.
func (s *PgSnapshotStore) List(ctx context.Context, workbookID string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, workbook_id, workbook_name, sheet, terms, created_at
		 FROM report_snapshots
		 WHERE $1 = '' OR workbook_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		workbookID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var (
			id      pgtype.UUID
			created pgtype.Timestamptz
			snap    Snapshot
		)
		if err := rows.Scan(&id, &snap.WorkbookID, &snap.WorkbookName, &snap.Sheet, &snap.Terms, &created); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snap.ID = PgUUIDToString(id)
		snap.CreatedAt = created.Time
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return out, nil
}

// Get returns a snapshot with its report.
func (s *PgSnapshotStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	pgID := ToPgUUID(id)
	if !pgID.Valid {
		return nil, ErrSnapshotNotFound
	}

	var (
		rowID   pgtype.UUID
		created pgtype.Timestamptz
		payload []byte
		snap    Snapshot
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, workbook_id, workbook_name, sheet, terms, payload, created_at
		 FROM report_snapshots WHERE id = $1`,
		pgID,
	).Scan(&rowID, &snap.WorkbookID, &snap.WorkbookName, &snap.Sheet, &snap.Terms, &payload, &created)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	snap.ID = PgUUIDToString(rowID)
	snap.CreatedAt = created.Time
	snap.Report = &Report{}
	if err := json.Unmarshal(payload, snap.Report); err != nil {
		return nil, fmt.Errorf("decode snapshot report: %w", err)
	}
	return &snap, nil
}

// Prune deletes snapshots created before cutoff.
func (s *PgSnapshotStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM report_snapshots WHERE created_at < $1`,
		pgtype.Timestamptz{Time: cutoff, Valid: true},
	)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ToPgUUID converts a string to pgtype.UUID.
// Returns invalid if the string is empty or not a valid UUID.
func ToPgUUID(s string) pgtype.UUID {
	if s == "" {
		return pgtype.UUID{Valid: false}
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return pgtype.UUID{Valid: false}
	}
	return pgtype.UUID{Bytes: parsed, Valid: true}
}

// PgUUIDToString converts a pgtype.UUID to its string representation.
// Returns empty string if the UUID is invalid.
func PgUUIDToString(u pgtype.UUID) string {
	if !u.Valid {
		return ""
	}
	return uuid.UUID(u.Bytes).String()
}
