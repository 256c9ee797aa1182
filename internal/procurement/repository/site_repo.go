package repository

import (
	"context"
	"strings"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"gorm.io/gorm"
)

// SiteRepository 工地仓库
type SiteRepository struct {
	db *gorm.DB
}

func NewSiteRepository(db *gorm.DB) *SiteRepository {
	return &SiteRepository{db: db}
}

func (r *SiteRepository) FindAll(ctx context.Context, search string) ([]entity.Site, error) {
	var items []entity.Site
	query := r.db.WithContext(ctx).Model(&entity.Site{})
	if search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	err := query.Order("name ASC").Find(&items).Error
	return items, err
}

func (r *SiteRepository) FindByID(ctx context.Context, id string) (*entity.Site, error) {
	var s entity.Site
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func (r *SiteRepository) Create(ctx context.Context, s *entity.Site) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *SiteRepository) CreateBatch(ctx context.Context, items []entity.Site) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *SiteRepository) Update(ctx context.Context, s *entity.Site) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *SiteRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entity.Site{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountOrderLines 行项 site 为自由文本，按名称忽略大小写匹配
func (r *SiteRepository) CountOrderLines(ctx context.Context, name string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&entity.OrderLineItem{}).
		Where("LOWER(site) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&n).Error
	return n, err
}

// RenameOrderLines 工地改名时同步行项上的 site 文本
func (r *SiteRepository) RenameOrderLines(ctx context.Context, oldName, newName string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&entity.OrderLineItem{}).
		Where("LOWER(site) = ?", strings.ToLower(strings.TrimSpace(oldName))).
		Update("site", newName)
	return result.RowsAffected, result.Error
}
