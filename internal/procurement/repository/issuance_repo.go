package repository

import (
	"context"
	"strings"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"gorm.io/gorm"
)

// IssuanceRepository 领料记录仓库，只有新增与查询
type IssuanceRepository struct {
	db *gorm.DB
}

func NewIssuanceRepository(db *gorm.DB) *IssuanceRepository {
	return &IssuanceRepository{db: db}
}

func (r *IssuanceRepository) FindAll(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialIssuance, int64, error) {
	var items []entity.MaterialIssuance
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.MaterialIssuance{})
	if materialID := filters["material_id"]; materialID != "" {
		query = query.Where("material_id = ?", materialID)
	}
	if site := filters["site"]; site != "" {
		query = query.Where("LOWER(issued_to_site) = ?", strings.ToLower(site))
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("Material").
		Order("created_at DESC").
		Offset(pageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

func (r *IssuanceRepository) FindByID(ctx context.Context, id string) (*entity.MaterialIssuance, error) {
	var item entity.MaterialIssuance
	if err := r.db.WithContext(ctx).Preload("Material").Where("id = ?", id).First(&item).Error; err != nil {
		return nil, notFound(err)
	}
	return &item, nil
}

func (r *IssuanceRepository) Create(ctx context.Context, item *entity.MaterialIssuance) error {
	return r.db.WithContext(ctx).Omit("Material").Create(item).Error
}
