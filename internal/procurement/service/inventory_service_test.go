package service

import (
	"testing"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/testutil"
)

func floatp(v float64) *float64 { return &v }

func TestSetOpeningStock(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedMaterial(t, f.db, "M2", "Brass Hinge", "Nos.")
	testutil.SeedStock(t, f.db, "M1", 50, 15, "Sheets")

	err := f.svc.Inventory.SetOpeningStock(f.ctx, OpeningStockRequest{
		Updates: []OpeningStockUpdate{
			{MaterialID: "M1", Quantity: 12},
			{MaterialID: "M2", Quantity: 30, Unit: "Pairs"},
		},
		NewItems: []OpeningStockNewItem{
			{Name: "Fevicol 1kg", Unit: "Tins", Quantity: 6},
			{Name: "Edge Band", Unit: "Rolls", Quantity: 2, Threshold: floatp(4)},
		},
	}, store)
	if err != nil {
		t.Fatalf("opening stock: %v", err)
	}
	expectNotified(t, f.notifier, NotifySuccess, "Stock levels have been updated.")

	m1, _ := f.svc.Inventory.Get(f.ctx, "M1")
	if m1.Quantity != 12 || m1.Threshold != 15 {
		t.Fatalf("M1 should be set to 12 keeping threshold 15, got %v/%v", m1.Quantity, m1.Threshold)
	}
	m2, _ := f.svc.Inventory.Get(f.ctx, "M2")
	if m2.Quantity != 30 || m2.Threshold != entity.DefaultThreshold || m2.Unit != "Pairs" {
		t.Fatalf("M2 ledger row should be created with defaults, got %+v", m2)
	}
	mat, _ := f.svc.Master.GetMaterial(f.ctx, "M2")
	if mat.Unit != "Pairs" {
		t.Fatalf("unit should propagate to the material, got %q", mat.Unit)
	}

	all, err := f.svc.Inventory.List(f.ctx, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 ledger rows, got %d", len(all))
	}
	for _, item := range all {
		if item.Material == nil {
			t.Fatalf("material should be preloaded for %s", item.MaterialID)
		}
		if item.Material.Name == "Edge Band" && (item.Threshold != 4 || item.Quantity != 2) {
			t.Fatalf("new item threshold/quantity not stored: %+v", item)
		}
	}
}

func TestSetOpeningStock_Rejects(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Sheets")

	err := f.svc.Inventory.SetOpeningStock(f.ctx, OpeningStockRequest{}, store)
	expectErr(t, err, ErrValidation)

	err = f.svc.Inventory.SetOpeningStock(f.ctx, OpeningStockRequest{Updates: []OpeningStockUpdate{{MaterialID: "M1", Quantity: -1}}}, store)
	expectErr(t, err, ErrValidation)

	err = f.svc.Inventory.SetOpeningStock(f.ctx, OpeningStockRequest{
		Updates:  []OpeningStockUpdate{{MaterialID: "M1", Quantity: 5}},
		NewItems: []OpeningStockNewItem{{Name: "plywood 18MM", Unit: "Sheets", Quantity: 1}},
	}, store)
	expectErr(t, err, ErrValidation)
	if got := testutil.StockOf(t, f.db, "M1"); got != -1 {
		t.Fatalf("rejected request must not write, got %v", got)
	}

	err = f.svc.Inventory.SetOpeningStock(f.ctx, OpeningStockRequest{Updates: []OpeningStockUpdate{{MaterialID: "M1", Quantity: 5}}}, buyer)
	expectErr(t, err, ErrForbidden)
}

func TestLowStockAndReorderDraft(t *testing.T) {
	f := setup(t)
	testutil.SeedVendor(t, f.db, "V1", "Acme Timber")
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedMaterial(t, f.db, "M2", "Brass Hinge", "Nos.")
	testutil.SeedMaterial(t, f.db, "M3", "Teak Veneer", "Sq.ft")
	testutil.SeedStock(t, f.db, "M1", 10, 10, "Sheets")
	testutil.SeedStock(t, f.db, "M2", 11, 10, "Nos.")
	testutil.SeedStock(t, f.db, "M3", 0, 5, "Sq.ft")

	low, err := f.svc.Inventory.LowStock(f.ctx)
	if err != nil {
		t.Fatalf("low stock: %v", err)
	}
	if len(low) != 2 || low[0].MaterialID != "M1" || low[1].MaterialID != "M3" {
		t.Fatalf("expected M1 (at threshold) and M3, got %+v", low)
	}

	_, err = f.svc.Inventory.LowStockDraft(f.ctx, "M2")
	expectErr(t, err, ErrValidation)

	draft, err := f.svc.Inventory.LowStockDraft(f.ctx, "M1")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if !draft.AutoGenerated || len(draft.LineItems) != 1 {
		t.Fatalf("unexpected draft %+v", draft)
	}
	li := draft.LineItems[0]
	if li.Quantity != 20 || li.Unit != "Sheets" || !li.Rate.IsZero() || !li.GST.Equal(entity.DefaultGST) {
		t.Fatalf("unexpected draft line %+v", li)
	}

	po, err := f.svc.Order.Create(f.ctx, OrderInputFromDraft(draft, "V1"), manager)
	if err != nil {
		t.Fatalf("create from draft: %v", err)
	}
	if po.DisplayStatus() != entity.DisplayAutoGenerated {
		t.Fatalf("expected Auto-Generated display status, got %s", po.DisplayStatus())
	}
}

func TestUpdateInventoryItem(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedStock(t, f.db, "M1", 8, 10, "Sheets")

	_, err := f.svc.Inventory.UpdateInventoryItem(f.ctx, "M1", UpdateInventoryRequest{Threshold: floatp(3)}, buyer)
	expectErr(t, err, ErrForbidden)
	_, err = f.svc.Inventory.UpdateInventoryItem(f.ctx, "M1", UpdateInventoryRequest{}, manager)
	expectErr(t, err, ErrValidation)
	_, err = f.svc.Inventory.UpdateInventoryItem(f.ctx, "M404", UpdateInventoryRequest{Threshold: floatp(3)}, manager)
	expectErr(t, err, ErrNotFound)

	unit := "Boards"
	item, err := f.svc.Inventory.UpdateInventoryItem(f.ctx, "M1", UpdateInventoryRequest{Threshold: floatp(3), Unit: &unit}, manager)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if item.Threshold != 3 || item.Unit != "Boards" || item.Quantity != 8 {
		t.Fatalf("unexpected item %+v", item)
	}
	if item.IsLowStock() {
		t.Fatal("8 > 3 should no longer be low stock")
	}
	if item.Material == nil || item.Material.Unit != "Boards" {
		t.Fatalf("unit should propagate to the material")
	}
	expectNotified(t, f.notifier, NotifySuccess, "Inventory item updated successfully.")
}

func TestAddBulkStock(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Sheets")
	testutil.SeedStock(t, f.db, "M1", 3, 7, "Sheets")

	n, err := f.svc.Inventory.AddBulkStock(f.ctx, []BulkStockInput{
		{Name: "plywood 18mm", Quantity: 25},
		{Name: "Brass Hinge", Unit: "Pairs", Quantity: 40, Threshold: floatp(12)},
		{Name: "BRASS HINGE", Unit: "Pairs", Quantity: 45, Threshold: floatp(12)},
		{Name: "Wood Screw", Quantity: 500},
	}, store)
	if err != nil {
		t.Fatalf("bulk stock: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 processed records, got %d", n)
	}
	expectNotified(t, f.notifier, NotifySuccess, "3 stock records processed from upload.")

	m1, _ := f.svc.Inventory.Get(f.ctx, "M1")
	if m1.Quantity != 25 || m1.Threshold != 7 || m1.Unit != "Sheets" {
		t.Fatalf("existing material should be overwritten keeping threshold, got %+v", m1)
	}

	all, _ := f.svc.Inventory.List(f.ctx, false)
	byName := map[string]entity.InventoryItem{}
	for _, item := range all {
		byName[item.Material.Name] = item
	}
	if hinge := byName["BRASS HINGE"]; hinge.Quantity != 45 || hinge.Threshold != 12 || hinge.Unit != "Pairs" {
		t.Fatalf("last duplicate row should win, got %+v", hinge)
	}
	if screw := byName["Wood Screw"]; screw.Unit != entity.DefaultMaterialUnit || screw.Threshold != entity.DefaultThreshold {
		t.Fatalf("new material should use defaults, got %+v", screw)
	}
}
