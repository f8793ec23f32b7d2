package core

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func TestPgSnapshotStore_EnsureSchema(t *testing.T) {
	db := &fakeDB{}
	if err := NewPgSnapshotStore(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if len(db.execSQL) != 1 || !strings.Contains(db.execSQL[0], "report_snapshots") {
		t.Errorf("EnsureSchema() executed %v", db.execSQL)
	}
}

func TestPgSnapshotStore_Save(t *testing.T) {
	db := &fakeDB{}
	store := NewPgSnapshotStore(db)

	snap := &Snapshot{
		WorkbookID:   DefaultWorkbookID,
		WorkbookName: "march.xlsx",
		Sheet:        "Sheet1",
		Report:       &Report{TotalMentions: 7},
	}
	if err := store.Save(context.Background(), snap); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := uuid.Parse(snap.ID); err != nil {
		t.Errorf("Save() assigned id %q: %v", snap.ID, err)
	}
	if snap.CreatedAt.IsZero() {
		t.Error("Save() did not set CreatedAt")
	}

	args := db.execArgs[0]
	if id, ok := args[0].(pgtype.UUID); !ok || !id.Valid {
		t.Errorf("id arg = %#v, want valid pgtype.UUID", args[0])
	}
	if terms, ok := args[4].([]string); !ok || terms == nil {
		t.Errorf("terms arg = %#v, want non-nil slice", args[4])
	}

	var rep Report
	if err := json.Unmarshal(args[5].([]byte), &rep); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if rep.TotalMentions != 7 {
		t.Errorf("payload TotalMentions = %d, want 7", rep.TotalMentions)
	}
}

func TestPgSnapshotStore_SaveRejectsBadID(t *testing.T) {
	db := &fakeDB{}
	err := NewPgSnapshotStore(db).Save(context.Background(), &Snapshot{ID: "not-a-uuid"})
	if err == nil {
		t.Fatal("Save() accepted an invalid id")
	}
	if len(db.execSQL) != 0 {
		t.Error("Save() ran a statement for an invalid id")
	}
}

func TestPgSnapshotStore_Get(t *testing.T) {
	id := uuid.New()
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	payload, _ := json.Marshal(&Report{WorkbookName: "march.xlsx", Reach: 1500})

	db := &fakeDB{row: []any{
		pgtype.UUID{Bytes: id, Valid: true},
		"default", "march.xlsx", "Sheet1", []string{"Delta"},
		payload,
		pgtype.Timestamptz{Time: created, Valid: true},
	}}

	snap, err := NewPgSnapshotStore(db).Get(context.Background(), id.String())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.ID != id.String() || !snap.CreatedAt.Equal(created) {
		t.Errorf("Get() = %+v", snap)
	}
	if snap.Report == nil || snap.Report.Reach != 1500 {
		t.Errorf("Report = %+v, want decoded payload", snap.Report)
	}
}

func TestPgSnapshotStore_GetNotFound(t *testing.T) {
	tests := []struct {
		name string
		id   string
		db   *fakeDB
	}{
		{"invalid id", "abc", &fakeDB{}},
		{"no rows", uuid.NewString(), &fakeDB{rowErr: pgx.ErrNoRows}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPgSnapshotStore(tt.db).Get(context.Background(), tt.id)
			if !errors.Is(err, ErrSnapshotNotFound) {
				t.Errorf("Get() error = %v, want ErrSnapshotNotFound", err)
			}
		})
	}
}

func TestPgSnapshotStore_List(t *testing.T) {
	now := time.Now().UTC()
	row := func(id uuid.UUID) []any {
		return []any{
			pgtype.UUID{Bytes: id, Valid: true},
			"default", "march.xlsx", "Sheet1", []string{"Delta"},
			pgtype.Timestamptz{Time: now, Valid: true},
		}
	}
	a, b := uuid.New(), uuid.New()
	db := &fakeDB{rows: [][]any{row(a), row(b)}}

	got, err := NewPgSnapshotStore(db).List(context.Background(), "default", 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != a.String() || got[1].ID != b.String() {
		t.Errorf("List() = %+v", got)
	}
	if got[0].Report != nil {
		t.Error("List() should not load reports")
	}
	if db.queryArgs[1] != 50 {
		t.Errorf("limit arg = %v, want default 50", db.queryArgs[1])
	}
}

func TestPgUUIDRoundTrip(t *testing.T) {
	id := uuid.NewString()
	if got := PgUUIDToString(ToPgUUID(id)); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}
	if ToPgUUID("").Valid || ToPgUUID("zzz").Valid {
		t.Error("ToPgUUID accepted an invalid id")
	}
	if PgUUIDToString(pgtype.UUID{}) != "" {
		t.Error("PgUUIDToString(invalid) should be empty")
	}
}
