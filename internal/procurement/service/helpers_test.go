package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"github.com/bitfantasy/designatore/internal/procurement/testutil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	manager = entity.Actor{ID: testutil.ManagerID, Name: testutil.ManagerName, Role: entity.RoleManager}
	buyer   = entity.Actor{ID: testutil.PurchaserID, Name: testutil.PurchaserName, Role: entity.RolePurchaser}
	buyer2  = entity.Actor{ID: testutil.OtherPurchaserID, Name: testutil.OtherPurchaserName, Role: entity.RolePurchaser}
	store   = entity.Actor{ID: testutil.StoreKeeperID, Name: testutil.StoreKeeperName, Role: entity.RoleInventoryManager}
)

type fixture struct {
	svc      *Services
	db       *gorm.DB
	notifier *testutil.RecordingNotifier
	ctx      context.Context
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	notifier := &testutil.RecordingNotifier{}
	svc := NewServices(repository.NewRepositories(db), NewLocalLocker(), notifier, zap.NewNop(), Options{})
	return &fixture{svc: svc, db: db, notifier: notifier, ctx: context.Background()}
}

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// line 最简订单行项
func line(materialID string, qty float64, rate int64) OrderLineInput {
	return OrderLineInput{MaterialID: materialID, Quantity: qty, Unit: "Nos.", Rate: dec(rate)}
}

func expectErr(t *testing.T, err, kind error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v, got nil", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

func expectNotified(t *testing.T, n *testutil.RecordingNotifier, kind, message string) {
	t.Helper()
	for _, got := range n.All() {
		if got.Kind == kind && got.Message == message {
			return
		}
	}
	t.Fatalf("notification %s %q not sent; got %+v", kind, message, n.All())
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, where string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if where != "" {
		q = q.Where(where, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	return n
}
