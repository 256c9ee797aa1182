package service

import (
	"sync"
	"testing"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/testutil"
)

func TestIssue_DebitsStockAndRecords(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedStock(t, f.db, "M1", 10, 2, "Sheets")

	iss, err := f.svc.Issuance.Issue(f.ctx, IssueInput{MaterialID: "M1", Quantity: 3, IssuedToSite: "Alpha"}, store)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if iss.IssuedToSite != "Alpha" || iss.Unit != "Sheets" || iss.IssuedBy != testutil.StoreKeeperName {
		t.Fatalf("unexpected issuance %+v", iss)
	}
	if got := testutil.StockOf(t, f.db, "M1"); got != 7 {
		t.Fatalf("expected stock 7, got %v", got)
	}
	if n := countRows(t, f.db, &entity.MaterialIssuance{}, "material_id = ?", "M1"); n != 1 {
		t.Fatalf("expected one issuance record, got %d", n)
	}
	expectNotified(t, f.notifier, NotifySuccess, "3 Sheets of Plywood 18mm issued to Alpha.")

	list, total, err := f.svc.Issuance.List(f.ctx, 1, 20, map[string]string{"site": "alpha"})
	if err != nil || total != 1 || list[0].ID != iss.ID {
		t.Fatalf("site filter should match case-insensitively: total=%d err=%v", total, err)
	}
}

func TestIssue_FullStockBoundary(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Nos.")
	testutil.SeedStock(t, f.db, "M1", 10, 2, "Nos.")

	_, err := f.svc.Issuance.Issue(f.ctx, IssueInput{MaterialID: "M1", Quantity: 11, IssuedToSite: "Alpha"}, store)
	expectErr(t, err, ErrInsufficientStock)
	if got := testutil.StockOf(t, f.db, "M1"); got != 10 {
		t.Fatalf("failed issuance must not change stock, got %v", got)
	}
	if n := countRows(t, f.db, &entity.MaterialIssuance{}, ""); n != 0 {
		t.Fatalf("failed issuance must not leave a record, got %d", n)
	}

	if _, err := f.svc.Issuance.Issue(f.ctx, IssueInput{MaterialID: "M1", Quantity: 10, IssuedToSite: "Alpha"}, store); err != nil {
		t.Fatalf("issuing full stock: %v", err)
	}
	if got := testutil.StockOf(t, f.db, "M1"); got != 0 {
		t.Fatalf("expected stock 0, got %v", got)
	}
	expectNotified(t, f.notifier, NotifyWarning, "Plywood 18mm is at or below its reorder threshold (0 Nos. left).")

	_, err = f.svc.Issuance.Issue(f.ctx, IssueInput{MaterialID: "M1", Quantity: 1, IssuedToSite: "Alpha"}, store)
	expectErr(t, err, ErrInsufficientStock)
	if got := testutil.StockOf(t, f.db, "M1"); got != 0 {
		t.Fatalf("stock must stay 0, got %v", got)
	}
}

func TestIssue_ConcurrentNeverNegative(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Nos.")
	testutil.SeedStock(t, f.db, "M1", 10, 2, "Nos.")

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Issuance.Issue(f.ctx, IssueInput{MaterialID: "M1", Quantity: 1, IssuedToSite: "Alpha"}, store)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, short := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case isInsufficient(err):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 10 || short != workers-10 {
		t.Fatalf("expected 10 successes and %d shortages, got %d/%d", workers-10, ok, short)
	}
	if got := testutil.StockOf(t, f.db, "M1"); got != 0 {
		t.Fatalf("expected stock 0, got %v", got)
	}
	if n := countRows(t, f.db, &entity.MaterialIssuance{}, ""); n != 10 {
		t.Fatalf("expected 10 issuance records, got %d", n)
	}
}

func TestIssue_Validation(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Nos.")
	testutil.SeedMaterial(t, f.db, "M2", "Teak Veneer", "Nos.")
	testutil.SeedStock(t, f.db, "M1", 10, 2, "Nos.")

	_, err := f.svc.Issuance.Issue(f.ctx, IssueInput{MaterialID: "M1", Quantity: 1, IssuedToSite: "Alpha"}, buyer)
	expectErr(t, err, ErrForbidden)

	tests := []struct {
		name  string
		input IssueInput
	}{
		{"zero quantity", IssueInput{MaterialID: "M1", IssuedToSite: "Alpha"}},
		{"negative quantity", IssueInput{MaterialID: "M1", Quantity: -2, IssuedToSite: "Alpha"}},
		{"blank site", IssueInput{MaterialID: "M1", Quantity: 1, IssuedToSite: "  "}},
		{"unknown material", IssueInput{MaterialID: "M404", Quantity: 1, IssuedToSite: "Alpha"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Issuance.Issue(f.ctx, tt.input, manager)
			expectErr(t, err, ErrValidation)
		})
	}

	// 无台账记录视为库存为 0
	_, err = f.svc.Issuance.Issue(f.ctx, IssueInput{MaterialID: "M2", Quantity: 1, IssuedToSite: "Alpha"}, manager)
	expectErr(t, err, ErrInsufficientStock)
}
