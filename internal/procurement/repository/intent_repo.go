package repository

import (
	"context"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"gorm.io/gorm"
)

// IntentRepository 采购意向仓库
type IntentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

// FindAll 查询意向列表
func (r *IntentRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseIntent, int64, error) {
	var items []entity.PurchaseIntent
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.PurchaseIntent{})
	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if requestedBy := filters["requested_by_id"]; requestedBy != "" {
		query = query.Where("requested_by_id = ?", requestedBy)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Order("created_at DESC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID 根据ID查找意向（含行项）
func (r *IntentRepository) FindByID(ctx context.Context, id string) (*entity.PurchaseIntent, error) {
	var intent entity.PurchaseIntent
	err := r.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Where("id = ?", id).
		First(&intent).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &intent, nil
}

func (r *IntentRepository) Create(ctx context.Context, intent *entity.PurchaseIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

// TransitionStatus 条件状态流转，未命中返回 ErrStaleStatus
func (r *IntentRepository) TransitionStatus(ctx context.Context, id, from string, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&entity.PurchaseIntent{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}
