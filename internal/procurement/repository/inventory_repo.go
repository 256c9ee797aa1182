package repository

import (
	"context"
	"time"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryRepository 库存台账仓库
// 数量只通过 Increment / Decrement / SetQuantity 修改，均为单条原子SQL
type InventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

// FindAll 查询库存列表
func (r *InventoryRepository) FindAll(ctx context.Context, lowStockOnly bool) ([]entity.InventoryItem, error) {
	var items []entity.InventoryItem
	query := r.db.WithContext(ctx).Preload("Material")
	if lowStockOnly {
		query = query.Where("quantity <= threshold")
	}
	err := query.Order("material_id ASC").Find(&items).Error
	return items, err
}

// FindByMaterialID 获取物料库存
func (r *InventoryRepository) FindByMaterialID(ctx context.Context, materialID string) (*entity.InventoryItem, error) {
	var item entity.InventoryItem
	err := r.db.WithContext(ctx).Preload("Material").Where("material_id = ?", materialID).First(&item).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

// Increment 入库：记录不存在时按默认补货点创建，存在则原子累加
func (r *InventoryRepository) Increment(ctx context.Context, materialID string, qty float64, unit string, threshold float64) error {
	now := time.Now()
	item := &entity.InventoryItem{
		MaterialID: materialID,
		Quantity:   qty,
		Threshold:  threshold,
		Unit:       unit,
		UpdatedAt:  now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "material_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("inventory_items.quantity + ?", qty),
			"updated_at": now,
		}),
	}).Create(item).Error
}

// Decrement 出库：仅当库存足够时扣减，否则返回 ErrInsufficientStock
func (r *InventoryRepository) Decrement(ctx context.Context, materialID string, qty float64) error {
	result := r.db.WithContext(ctx).Model(&entity.InventoryItem{}).
		Where("material_id = ? AND quantity >= ?", materialID, qty).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrInsufficientStock
	}
	return nil
}

// SetQuantity 期初/盘点：绝对值设置数量与单位，记录不存在时创建
func (r *InventoryRepository) SetQuantity(ctx context.Context, materialID string, qty float64, unit string, threshold float64) error {
	now := time.Now()
	item := &entity.InventoryItem{
		MaterialID: materialID,
		Quantity:   qty,
		Threshold:  threshold,
		Unit:       unit,
		UpdatedAt:  now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "material_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   qty,
			"unit":       unit,
			"updated_at": now,
		}),
	}).Create(item).Error
}

// SetStock 批量导入：数量、补货点、单位一并覆盖
func (r *InventoryRepository) SetStock(ctx context.Context, item *entity.InventoryItem) error {
	item.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "material_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "threshold", "unit", "updated_at"}),
	}).Create(item).Error
}

// UpdateSettings 修改补货点/单位，不触碰数量
func (r *InventoryRepository) UpdateSettings(ctx context.Context, materialID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&entity.InventoryItem{}).
		Where("material_id = ?", materialID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
