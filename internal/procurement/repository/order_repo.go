package repository

import (
	"context"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 采购订单仓库
type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// FindAll 查询订单列表
func (r *OrderRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	var items []entity.PurchaseOrder
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{})

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if vendorID := filters["vendor_id"]; vendorID != "" {
		query = query.Where("vendor_id = ?", vendorID)
	}
	if raisedBy := filters["raised_by_id"]; raisedBy != "" {
		query = query.Where("raised_by_id = ?", raisedBy)
	}
	if priority := filters["priority"]; priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if intentID := filters["intent_id"]; intentID != "" {
		query = query.Where("intent_id = ?", intentID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Vendor").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找订单（含行项）
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	var po entity.PurchaseOrder
	err := r.db.WithContext(ctx).
		Preload("Vendor").
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&po).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &po, nil
}

// Create 创建订单及行项
func (r *OrderRepository) Create(ctx context.Context, po *entity.PurchaseOrder) error {
	return r.db.WithContext(ctx).Omit("Vendor").Create(po).Error
}

// ReplaceGuarded 整单替换（含行项），仅当当前状态仍为 expectedStatus 时生效
func (r *OrderRepository) ReplaceGuarded(ctx context.Context, po *entity.PurchaseOrder, expectedStatus string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ? AND status = ?", po.ID, expectedStatus).
			Select("vendor_id", "notes", "priority", "status", "expected_delivery",
				"approved_by", "approved_on", "rejected_by", "rejected_on", "rejection_reason",
				"cancelled_by", "cancelled_on", "updated_at").
			Updates(po)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrStaleStatus
		}

		if err := tx.Where("order_id = ?", po.ID).Delete(&entity.OrderLineItem{}).Error; err != nil {
			return err
		}
		if len(po.LineItems) == 0 {
			return nil
		}
		return tx.Omit(clause.Associations).Create(&po.LineItems).Error
	})
}

// TransitionStatus 条件状态流转：UPDATE ... WHERE id = ? AND status IN (?)
// 未命中返回 ErrStaleStatus
func (r *OrderRepository) TransitionStatus(ctx context.Context, id string, from []string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&entity.PurchaseOrder{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
