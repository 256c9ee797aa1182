package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleStatus 条件状态更新未命中：当前状态已被并发修改
	ErrStaleStatus = errors.New("status changed concurrently")
	// ErrInsufficientStock 条件扣减未命中：库存不足或不存在
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Repositories 仓库集合
type Repositories struct {
	db *gorm.DB

	Material    *MaterialRepository
	Vendor      *VendorRepository
	Site        *SiteRepository
	Inventory   *InventoryRepository
	Order       *OrderRepository
	Intent      *IntentRepository
	Issuance    *IssuanceRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		db:          db,
		Material:    NewMaterialRepository(db),
		Vendor:      NewVendorRepository(db),
		Site:        NewSiteRepository(db),
		Inventory:   NewInventoryRepository(db),
		Order:       NewOrderRepository(db),
		Intent:      NewIntentRepository(db),
		Issuance:    NewIssuanceRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}

// Transaction 在同一事务内执行 fn，fn 拿到的仓库集合全部绑定该事务
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Ping 检查数据库连接
func (r *Repositories) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func pageOffset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}
