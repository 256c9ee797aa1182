package job

import (
	"context"
	"testing"

	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/bitfantasy/designatore/internal/procurement/testutil"
	"go.uber.org/zap"
)

func TestLowStockDigest_Run(t *testing.T) {
	db := testutil.SetupTestDB(t)
	notifier := &testutil.RecordingNotifier{}
	svc := service.NewServices(repository.NewRepositories(db), nil, notifier, zap.NewNop(), service.Options{})

	testutil.SeedMaterial(t, db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedMaterial(t, db, "M2", "Brass Hinge", "Nos.")
	testutil.SeedMaterial(t, db, "M3", "Teak Veneer", "Sq.ft")
	testutil.SeedStock(t, db, "M1", 4, 10, "Sheets")
	testutil.SeedStock(t, db, "M2", 50, 10, "Nos.")
	testutil.SeedStock(t, db, "M3", 2.5, 5, "Sq.ft")

	digest := NewLowStockDigest(svc.Inventory, notifier, nil)
	n, err := digest.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 low-stock items, got %d", n)
	}
	last, ok := notifier.Last()
	if !ok || last.Kind != service.NotifyWarning {
		t.Fatalf("expected a warning, got %+v", last)
	}
	want := "2 materials at or below reorder threshold: Plywood 18mm (4 Sheets), Teak Veneer (2.5 Sq.ft)"
	if last.Message != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", last.Message, want)
	}
}

func TestLowStockDigest_QuietWhenStocked(t *testing.T) {
	db := testutil.SetupTestDB(t)
	notifier := &testutil.RecordingNotifier{}
	svc := service.NewServices(repository.NewRepositories(db), nil, notifier, zap.NewNop(), service.Options{})
	testutil.SeedMaterial(t, db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedStock(t, db, "M1", 40, 10, "Sheets")

	n, err := NewLowStockDigest(svc.Inventory, notifier, nil).Run(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("expected nothing to report, got %d (%v)", n, err)
	}
	if len(notifier.All()) != 0 {
		t.Fatalf("no notification expected, got %+v", notifier.All())
	}
}

func TestLowStockDigest_ScheduleRejectsBadSpec(t *testing.T) {
	digest := NewLowStockDigest(nil, nil, nil)
	if _, err := digest.Schedule("not a cron spec"); err == nil {
		t.Fatal("expected an error for an invalid spec")
	}
	c, err := digest.Schedule("0 8 * * *")
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	c.Stop()
}
