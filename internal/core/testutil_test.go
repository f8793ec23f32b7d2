package core

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/coverage/internal/coverage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// coverageCSV is a small export: three Delta rows and one United row.
var coverageCSV = strings.Join([]string{
	"Date,Headline,Keywords,Source,Influencer,Reach,AVE,Sentiment,Opening Text,Hit Sentence",
	`15-Jan-2024 09:30AM,Delta expands routes,Delta,Reuters,Ann Lee,"1,000",$50.25,Positive,Delta said,routes`,
	`15-Jan-2024 11:00AM,Airline news,delta,Bloomberg,Bo Chan,500,10,Negative,Flights,delta delays`,
	`16-Jan-2024 08:15AM,United strike,United,Reuters,Ann Lee,200,5,Neutral,United crews,strike`,
	`17-Jan-2024 10:45PM,Delta lounge opens,Delta,AP,Cy Ray,300,2.5,Positive,New lounge,Delta lounge`,
}, "\n") + "\n"

func newTestService(t *testing.T, store SnapshotStore) *Service {
	t.Helper()
	return NewService(Options{
		Keywords:     coverage.NewKeywordSet("Delta", "", "United"),
		DefaultSheet: "Coverage",
		MaxFileSize:  1 << 20,
		Store:        store,
	})
}

func openCSV(t *testing.T, svc *Service, body string) WorkbookInfo {
	t.Helper()
	info, err := svc.OpenWorkbook(context.Background(), "coverage.csv", strings.NewReader(body), "")
	if err != nil {
		t.Fatalf("OpenWorkbook() error = %v", err)
	}
	return info
}

// memStore is an in-memory SnapshotStore.
type memStore struct {
	mu    sync.Mutex
	snaps []Snapshot
	err   error
}

func (m *memStore) EnsureSchema(context.Context) error { return m.err }

func (m *memStore) Save(_ context.Context, snap *Snapshot) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap.ID = fmt.Sprintf("00000000-0000-0000-0000-%012d", len(m.snaps)+1)
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}
	m.snaps = append(m.snaps, *snap)
	return nil
}

func (m *memStore) List(_ context.Context, workbookID string, _ int) ([]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Snapshot
	for _, s := range m.snaps {
		if workbookID == "" || s.WorkbookID == workbookID {
			s.Report = nil
			out = append(out, s)
		}
	}
	return out, m.err
}

func (m *memStore) Get(_ context.Context, id string) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snaps {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, ErrSnapshotNotFound
}

func (m *memStore) Prune(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.snaps[:0]
	var n int64
	for _, s := range m.snaps {
		if s.CreatedAt.Before(cutoff) {
			n++
			continue
		}
		kept = append(kept, s)
	}
	m.snaps = kept
	return n, m.err
}

// fakeDB records statements and replays canned rows.
type fakeDB struct {
	execSQL  []string
	execArgs [][]any
	execErr  error
	execTag  string

	queryArgs []any
	rows      [][]any
	row       []any
	rowErr    error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	f.execArgs = append(f.execArgs, args)
	tag := f.execTag
	if tag == "" {
		tag = "INSERT 0 1"
	}
	return pgconn.NewCommandTag(tag), f.execErr
}

func (f *fakeDB) Query(_ context.Context, _ string, args ...interface{}) (pgx.Rows, error) {
	f.queryArgs = args
	return &fakeRows{rows: f.rows, pos: -1}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, args ...interface{}) pgx.Row {
	f.queryArgs = args
	return fakeRow{values: f.row, err: f.rowErr}
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(dest, r.values)
}

type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(dest, r.rows[r.pos])
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos], nil
}

func assign(dest, values []any) error {
	if len(dest) != len(values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(values))
	}
	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}
