package service

import (
	"testing"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/testutil"
)

func TestDeleteVendor_ReferencedByOrder(t *testing.T) {
	f := setup(t)
	testutil.SeedVendor(t, f.db, "V1", "Acme Timber")
	testutil.SeedVendor(t, f.db, "V2", "Idle Supplies")
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Nos.")

	if _, err := f.svc.Order.Create(f.ctx, OrderInput{VendorID: "V1", LineItems: []OrderLineInput{line("M1", 1, 10)}}, manager); err != nil {
		t.Fatalf("create order: %v", err)
	}

	err := f.svc.Master.DeleteVendor(f.ctx, "V1", manager)
	expectErr(t, err, ErrReferentialIntegrity)
	if _, err := f.svc.Master.GetVendor(f.ctx, "V1"); err != nil {
		t.Fatalf("referenced vendor must survive: %v", err)
	}

	if err := f.svc.Master.DeleteVendor(f.ctx, "V2", manager); err != nil {
		t.Fatalf("delete unreferenced vendor: %v", err)
	}
	_, err = f.svc.Master.GetVendor(f.ctx, "V2")
	expectErr(t, err, ErrNotFound)
	expectNotified(t, f.notifier, NotifyDanger, `Vendor "Idle Supplies" deleted.`)

	err = f.svc.Master.DeleteVendor(f.ctx, "V2", manager)
	expectErr(t, err, ErrNotFound)
}

func TestDeleteMaterial_Guards(t *testing.T) {
	f := setup(t)
	testutil.SeedVendor(t, f.db, "V1", "Acme Timber")
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Nos.")
	testutil.SeedMaterial(t, f.db, "M2", "Brass Hinge", "Nos.")
	testutil.SeedMaterial(t, f.db, "M3", "Spare Screws", "Nos.")
	testutil.SeedStock(t, f.db, "M3", 0, 10, "Nos.")
	testutil.SeedMaterial(t, f.db, "M4", "Wall Plugs", "Nos.")
	testutil.SeedStock(t, f.db, "M4", 40, 10, "Nos.")

	if _, err := f.svc.Order.Create(f.ctx, OrderInput{VendorID: "V1", LineItems: []OrderLineInput{line("M1", 1, 10)}}, manager); err != nil {
		t.Fatalf("create order: %v", err)
	}
	if _, err := f.svc.Intent.Raise(f.ctx, IntentInput{LineItems: []IntentLineInput{{MaterialID: "M2", Quantity: 1}}}, store); err != nil {
		t.Fatalf("raise intent: %v", err)
	}

	expectErr(t, f.svc.Master.DeleteMaterial(f.ctx, "M1", manager), ErrReferentialIntegrity)
	expectErr(t, f.svc.Master.DeleteMaterial(f.ctx, "M2", manager), ErrReferentialIntegrity)

	// 仍有库存的物料不能删，否则台账被悄悄清空
	expectErr(t, f.svc.Master.DeleteMaterial(f.ctx, "M4", manager), ErrReferentialIntegrity)
	if got := testutil.StockOf(t, f.db, "M4"); got != 40 {
		t.Fatalf("stock must be untouched, got %v", got)
	}

	if err := f.svc.Master.DeleteMaterial(f.ctx, "M3", manager); err != nil {
		t.Fatalf("delete unreferenced material: %v", err)
	}
	if got := testutil.StockOf(t, f.db, "M3"); got != -1 {
		t.Fatalf("ledger row should be removed with the material, got %v", got)
	}
}

func TestDeleteSite_MatchesLineItemSiteIgnoringCase(t *testing.T) {
	f := setup(t)
	testutil.SeedVendor(t, f.db, "V1", "Acme Timber")
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Nos.")
	testutil.SeedSite(t, f.db, "S1", "Alpha Villa")
	testutil.SeedSite(t, f.db, "S2", "Beta Office")

	l := line("M1", 1, 10)
	l.Site = "alpha villa"
	if _, err := f.svc.Order.Create(f.ctx, OrderInput{VendorID: "V1", LineItems: []OrderLineInput{l}}, manager); err != nil {
		t.Fatalf("create order: %v", err)
	}

	expectErr(t, f.svc.Master.DeleteSite(f.ctx, "S1", manager), ErrReferentialIntegrity)
	if err := f.svc.Master.DeleteSite(f.ctx, "S2", manager); err != nil {
		t.Fatalf("delete unreferenced site: %v", err)
	}
}

func TestUpdateSite_RenameKeepsOrderLinesReferenced(t *testing.T) {
	f := setup(t)
	testutil.SeedVendor(t, f.db, "V1", "Acme Timber")
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Nos.")
	testutil.SeedSite(t, f.db, "S1", "Alpha")

	l := line("M1", 1, 10)
	l.Site = "Alpha"
	po, err := f.svc.Order.Create(f.ctx, OrderInput{VendorID: "V1", LineItems: []OrderLineInput{l}}, manager)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if _, err := f.svc.Master.UpdateSite(f.ctx, "S1", NameInput{Name: "Alpha Renamed"}, manager); err != nil {
		t.Fatalf("rename site: %v", err)
	}
	got, _ := f.svc.Order.Get(f.ctx, po.ID)
	if got.LineItems[0].Site != "Alpha Renamed" {
		t.Fatalf("order line should follow the rename, got %q", got.LineItems[0].Site)
	}

	expectErr(t, f.svc.Master.DeleteSite(f.ctx, "S1", manager), ErrReferentialIntegrity)
	if _, err := f.svc.Master.GetSite(f.ctx, "S1"); err != nil {
		t.Fatalf("referenced site must survive: %v", err)
	}
}

func TestAddBulkMaterials_SkipsExistingNames(t *testing.T) {
	f := setup(t)
	testutil.SeedMaterial(t, f.db, "M1", "Plywood 18mm", "Sheets")

	created, err := f.svc.Master.AddBulkMaterials(f.ctx, []BulkMaterialInput{
		{Name: "PLYWOOD  18MM"},
		{Name: "Teak Veneer", Unit: "Sq.ft"},
		{Name: " teak veneer "},
		{Name: "Straße Glue"},
		{Name: "STRASSE GLUE"},
	}, buyer)
	if err != nil {
		t.Fatalf("bulk: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 new materials, got %d: %+v", len(created), created)
	}
	if created[0].Name != "Teak Veneer" || created[0].Unit != "Sq.ft" {
		t.Fatalf("unexpected first material %+v", created[0])
	}
	if created[1].Unit != entity.DefaultMaterialUnit {
		t.Fatalf("missing unit should default to %q, got %q", entity.DefaultMaterialUnit, created[1].Unit)
	}
	expectNotified(t, f.notifier, NotifySuccess, "2 new materials added.")

	_, err = f.svc.Master.AddBulkMaterials(f.ctx, []BulkMaterialInput{{Name: "ok"}, {Name: "   "}}, buyer)
	expectErr(t, err, ErrValidation)
	if n := countRows(t, f.db, &entity.Material{}, ""); n != 3 {
		t.Fatalf("a rejected batch must not create anything, got %d materials", n)
	}
}

func TestAddBulkVendorsAndSites(t *testing.T) {
	f := setup(t)
	testutil.SeedVendor(t, f.db, "V1", "Acme Timber")

	vendors, err := f.svc.Master.AddBulkVendors(f.ctx, []NameInput{{Name: "acme timber"}, {Name: "Birch & Co"}}, manager)
	if err != nil || len(vendors) != 1 {
		t.Fatalf("expected one new vendor, got %d (%v)", len(vendors), err)
	}
	expectNotified(t, f.notifier, NotifySuccess, "1 new vendors added.")

	sites, err := f.svc.Master.AddBulkSites(f.ctx, []NameInput{{Name: "Alpha"}, {Name: "ALPHA"}, {Name: "Beta"}}, manager)
	if err != nil || len(sites) != 2 {
		t.Fatalf("expected two new sites, got %d (%v)", len(sites), err)
	}
	expectNotified(t, f.notifier, NotifySuccess, "2 new sites/clients added.")
}

func TestMasterCRUD(t *testing.T) {
	f := setup(t)

	v, err := f.svc.Master.CreateVendor(f.ctx, NameInput{Name: "  Acme   Timber "}, manager)
	if err != nil {
		t.Fatalf("create vendor: %v", err)
	}
	if v.Name != "Acme Timber" {
		t.Fatalf("name should be normalised, got %q", v.Name)
	}
	expectNotified(t, f.notifier, NotifySuccess, `Vendor "Acme Timber" added.`)

	_, err = f.svc.Master.CreateVendor(f.ctx, NameInput{Name: "ACME TIMBER"}, manager)
	expectErr(t, err, ErrValidation)

	if _, err := f.svc.Master.UpdateVendor(f.ctx, v.ID, NameInput{Name: "Acme Timber Works"}, manager); err != nil {
		t.Fatalf("update vendor: %v", err)
	}
	expectNotified(t, f.notifier, NotifySuccess, `Vendor "Acme Timber Works" updated.`)

	m, err := f.svc.Master.CreateMaterial(f.ctx, MaterialInput{Name: "Plywood 18mm", Unit: "Sheets"}, store)
	if err != nil {
		t.Fatalf("create material: %v", err)
	}
	testutil.SeedStock(t, f.db, m.ID, 5, 10, "Sheets")
	if _, err := f.svc.Master.UpdateMaterial(f.ctx, m.ID, MaterialInput{Name: "Plywood 18mm", Unit: "Sq.ft"}, store); err != nil {
		t.Fatalf("update material: %v", err)
	}
	item, _ := f.svc.Inventory.Get(f.ctx, m.ID)
	if item.Unit != "Sq.ft" {
		t.Fatalf("unit change should reach the ledger, got %q", item.Unit)
	}

	_, err = f.svc.Master.CreateMaterial(f.ctx, MaterialInput{Name: "Glue"}, store)
	expectErr(t, err, ErrValidation)

	_, err = f.svc.Master.CreateSite(f.ctx, NameInput{Name: "Alpha"}, entity.Actor{ID: "x", Role: "guest"})
	expectErr(t, err, ErrForbidden)
}
