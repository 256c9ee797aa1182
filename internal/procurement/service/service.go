package service

import (
	"context"
	"strconv"
	"time"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"go.uber.org/zap"
)

// Options 业务参数，来自 inventory 配置段
type Options struct {
	DefaultThreshold float64
	ReorderFactor    float64
}

func (o Options) withDefaults() Options {
	if o.DefaultThreshold <= 0 {
		o.DefaultThreshold = entity.DefaultThreshold
	}
	if o.ReorderFactor <= 0 {
		o.ReorderFactor = 2
	}
	return o
}

// Services 服务集合
type Services struct {
	Master    *MasterService
	Inventory *InventoryService
	Order     *OrderService
	Intent    *IntentService
	Issuance  *IssuanceService
	Activity  *ActivityService

	notifier Notifier
}

// Notifier 服务使用的通知出口，供定时任务复用
func (s *Services) Notifier() Notifier {
	return s.notifier
}

// NewServices 创建服务集合
func NewServices(repos *repository.Repositories, locker Locker, notifier Notifier, logger *zap.Logger, opts Options) *Services {
	if locker == nil {
		locker = NewLocalLocker()
	}
	if notifier == nil {
		notifier = MultiNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &base{
		repos:    repos,
		locker:   locker,
		notifier: notifier,
		logger:   logger,
		opts:     opts.withDefaults(),
		now:      time.Now,
	}
	return &Services{
		Master:    &MasterService{base: b},
		Inventory: &InventoryService{base: b},
		Order:     &OrderService{base: b},
		Intent:    &IntentService{base: b},
		Issuance:  &IssuanceService{base: b},
		Activity:  &ActivityService{base: b},
		notifier:  notifier,
	}
}

// base 各服务共享的依赖
type base struct {
	repos    *repository.Repositories
	locker   Locker
	notifier Notifier
	logger   *zap.Logger
	opts     Options
	now      func() time.Time
}

// notify 只在事务提交后调用
func (b *base) notify(kind, message string) {
	b.notifier.Notify(kind, message)
}

// lockMaterials 锁定物料台账，返回的 unlock 必须调用
func (b *base) lockMaterials(ctx context.Context, materialIDs ...string) (func(), error) {
	keys := make([]string, 0, len(materialIDs))
	for _, id := range materialIDs {
		keys = append(keys, ledgerKey(id))
	}
	unlock, err := b.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, storeErr(err, "ledger lock")
	}
	return unlock, nil
}

// record 在事务内写操作日志，失败则整个操作回滚
func record(ctx context.Context, tx *repository.Repositories, actor entity.Actor, entry entity.ActivityLog) error {
	entry.OperatorID = actor.ID
	entry.OperatorName = actor.DisplayName()
	if err := tx.ActivityLog.Create(ctx, &entry); err != nil {
		return storeErr(err, "activity log")
	}
	return nil
}

// increment 入库，台账记录不存在时按默认补货点创建
func (b *base) increment(ctx context.Context, tx *repository.Repositories, materialID string, qty float64, unit string) error {
	if qty <= 0 {
		return newError(ErrValidation, "increment quantity must be positive, got %s", formatQty(qty))
	}
	if err := tx.Inventory.Increment(ctx, materialID, qty, unit, b.opts.DefaultThreshold); err != nil {
		return storeErr(err, "inventory "+materialID)
	}
	return nil
}

// decrement 出库，库存不足返回 ErrInsufficientStock 且不做任何修改
func (b *base) decrement(ctx context.Context, tx *repository.Repositories, materialID string, qty float64) error {
	if qty <= 0 {
		return newError(ErrValidation, "decrement quantity must be positive, got %s", formatQty(qty))
	}
	if err := tx.Inventory.Decrement(ctx, materialID, qty); err != nil {
		return storeErr(err, "material "+materialID)
	}
	return nil
}

// materialNames 现有物料名称，值为物料ID
func (b *base) materialNames(ctx context.Context) (nameSet, error) {
	items, err := b.repos.Material.Names(ctx)
	if err != nil {
		return nil, storeErr(err, "materials")
	}
	set := make(nameSet, len(items))
	for _, m := range items {
		set.add(m.Name, m.ID)
	}
	return set, nil
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}

func pageDefaults(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	return page, pageSize
}

// ActivityService 操作日志查询
type ActivityService struct {
	*base
}

// List 查询操作日志
func (s *ActivityService) List(ctx context.Context, entityType, entityID string, page, pageSize int) ([]entity.ActivityLog, int64, error) {
	page, pageSize = pageDefaults(page, pageSize)
	items, total, err := s.repos.ActivityLog.FindByEntity(ctx, entityType, entityID, page, pageSize)
	if err != nil {
		return nil, 0, storeErr(err, "activity log")
	}
	return items, total, nil
}
