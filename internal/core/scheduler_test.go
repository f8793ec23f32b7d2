package core

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestService_RunMaintenance(t *testing.T) {
	store := &memStore{}
	svc := newTestService(t, store)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	path := filepath.Join(t.TempDir(), "default.csv")
	if err := os.WriteFile(path, []byte(coverageCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.RegisterFile(ctx, DefaultWorkbookID, path, ""); err != nil {
		t.Fatalf("RegisterFile() error = %v", err)
	}
	stale := openCSV(t, svc, coverageCSV)
	fresh := openCSV(t, svc, coverageCSV)

	svc.mu.Lock()
	svc.workbooks[DefaultWorkbookID].info.UploadedAt = now.Add(-72 * time.Hour)
	svc.workbooks[stale.ID].info.UploadedAt = now.Add(-48 * time.Hour)
	svc.workbooks[fresh.ID].info.UploadedAt = now.Add(-time.Hour)
	svc.mu.Unlock()

	for _, created := range []time.Time{now.AddDate(0, 0, -100), now.AddDate(0, 0, -1)} {
		if err := store.Save(ctx, &Snapshot{WorkbookID: fresh.ID, CreatedAt: created}); err != nil {
			t.Fatal(err)
		}
	}

	result := svc.RunMaintenance(ctx, MaintenanceConfig{
		WorkbookTTL:       24 * time.Hour,
		SnapshotRetention: 90 * 24 * time.Hour,
	}, now)

	if len(result.Evicted) != 1 || result.Evicted[0] != stale.ID {
		t.Errorf("Evicted = %v, want [%s]", result.Evicted, stale.ID)
	}
	if result.Pruned != 1 {
		t.Errorf("Pruned = %d, want 1", result.Pruned)
	}

	if _, _, err := svc.Workbook(DefaultWorkbookID); err != nil {
		t.Errorf("default workbook evicted: %v", err)
	}
	if _, _, err := svc.Workbook(fresh.ID); err != nil {
		t.Errorf("fresh workbook evicted: %v", err)
	}
	if snaps, _ := store.List(ctx, "", 0); len(snaps) != 1 {
		t.Errorf("%d snapshots left, want 1", len(snaps))
	}
}

func TestService_RunMaintenanceDisabled(t *testing.T) {
	svc := newTestService(t, nil)
	info := openCSV(t, svc, coverageCSV)

	result := svc.RunMaintenance(context.Background(), MaintenanceConfig{}, time.Now().Add(1000*time.Hour))
	if len(result.Evicted) != 0 || result.Pruned != 0 {
		t.Errorf("RunMaintenance() = %+v, want no-op", result)
	}
	if _, _, err := svc.Workbook(info.ID); err != nil {
		t.Errorf("workbook evicted with TTL disabled: %v", err)
	}
}

func TestService_StartMaintenanceStops(t *testing.T) {
	svc := newTestService(t, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.StartMaintenance(ctx, MaintenanceConfig{CheckInterval: time.Millisecond})
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartMaintenance did not return after cancel")
	}
}

func TestPgSnapshotStore_Prune(t *testing.T) {
	db := &fakeDB{execTag: "DELETE 3"}
	store := NewPgSnapshotStore(db)

	n, err := store.Prune(context.Background(), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Prune() = %d, want 3", n)
	}
	if len(db.execArgs) != 1 || len(db.execArgs[0]) != 1 {
		t.Fatalf("exec args = %v, want one cutoff", db.execArgs)
	}
}
