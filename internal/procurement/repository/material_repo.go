package repository

import (
	"context"
	"strings"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"gorm.io/gorm"
)

// MaterialRepository 物料仓库
type MaterialRepository struct {
	db *gorm.DB
}

func NewMaterialRepository(db *gorm.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// FindAll 查询物料列表
func (r *MaterialRepository) FindAll(ctx context.Context, search string) ([]entity.Material, error) {
	var items []entity.Material
	query := r.db.WithContext(ctx).Model(&entity.Material{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

// FindByID 根据ID查找物料
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*entity.Material, error) {
	var m entity.Material
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}

// FindByIDs 批量查找，返回 id -> 物料
func (r *MaterialRepository) FindByIDs(ctx context.Context, ids []string) (map[string]entity.Material, error) {
	result := make(map[string]entity.Material, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var items []entity.Material
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	for _, m := range items {
		result[m.ID] = m
	}
	return result, nil
}

// Names 全部物料名称，用于批量导入去重
func (r *MaterialRepository) Names(ctx context.Context) ([]entity.Material, error) {
	var items []entity.Material
	err := r.db.WithContext(ctx).Select("id", "name", "unit").Find(&items).Error
	return items, err
}

func (r *MaterialRepository) Create(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// CreateBatch 批量创建
func (r *MaterialRepository) CreateBatch(ctx context.Context, items []entity.Material) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *MaterialRepository) Update(ctx context.Context, m *entity.Material) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// UpdateUnit 单位变更（库存单位同步）
func (r *MaterialRepository) UpdateUnit(ctx context.Context, id, unit string) error {
	return r.db.WithContext(ctx).Model(&entity.Material{}).Where("id = ?", id).Update("unit", unit).Error
}

// Delete 删除物料及其库存记录
func (r *MaterialRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("material_id = ?", id).Delete(&entity.InventoryItem{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&entity.Material{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// MaterialReferences 物料被引用情况
type MaterialReferences struct {
	OrderLines  int64
	IntentLines int64
	Issuances   int64
}

// Total 引用总数
func (m MaterialReferences) Total() int64 {
	return m.OrderLines + m.IntentLines + m.Issuances
}

// CountReferences 统计物料被订单、意向、领料记录引用的次数
func (r *MaterialRepository) CountReferences(ctx context.Context, id string) (MaterialReferences, error) {
	var refs MaterialReferences
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.OrderLineItem{}).Where("material_id = ?", id).Count(&refs.OrderLines).Error; err != nil {
		return refs, err
	}
	if err := db.Model(&entity.IntentLineItem{}).Where("material_id = ?", id).Count(&refs.IntentLines).Error; err != nil {
		return refs, err
	}
	if err := db.Model(&entity.MaterialIssuance{}).Where("material_id = ?", id).Count(&refs.Issuances).Error; err != nil {
		return refs, err
	}
	return refs, nil
}
