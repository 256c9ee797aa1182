package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"go.uber.org/zap"
)

// MasterService 基础数据：物料、供应商、工地
type MasterService struct {
	*base
}

// MaterialInput 物料
type MaterialInput struct {
	Name string `json:"name" validate:"required,max=200"`
	Unit string `json:"unit" validate:"required,max=20"`
}

// BulkMaterialInput 批量导入物料，单位可缺省
type BulkMaterialInput struct {
	Name string `json:"name" validate:"required,max=200"`
	Unit string `json:"unit" validate:"max=20"`
}

// NameInput 供应商、工地
type NameInput struct {
	Name string `json:"name" validate:"required,max=200"`
}

// === 物料 ===

func (s *MasterService) ListMaterials(ctx context.Context, search string) ([]entity.Material, error) {
	items, err := s.repos.Material.FindAll(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, storeErr(err, "materials")
	}
	return items, nil
}

func (s *MasterService) GetMaterial(ctx context.Context, id string) (*entity.Material, error) {
	m, err := s.repos.Material.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "material "+id)
	}
	return m, nil
}

// CreateMaterial 新建物料，名称忽略大小写不可重复
func (s *MasterService) CreateMaterial(ctx context.Context, in MaterialInput, actor entity.Actor) (*entity.Material, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	in.Name, in.Unit = normalizeName(in.Name), strings.TrimSpace(in.Unit)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	existing, err := s.materialNames(ctx)
	if err != nil {
		return nil, err
	}
	if existing.has(in.Name) {
		return nil, newError(ErrValidation, "material %q already exists", in.Name)
	}

	m := &entity.Material{ID: entity.NewID(entity.PrefixMaterial), Name: in.Name, Unit: in.Unit}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Material.Create(ctx, m); err != nil {
			return storeErr(err, "material")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeMaterial, EntityID: m.ID, Action: entity.ActionCreate,
			Content: fmt.Sprintf("Material %q created", m.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Material %q added.", m.Name))
	return m, nil
}

// UpdateMaterial 修改物料，单位变更同步到库存台账
func (s *MasterService) UpdateMaterial(ctx context.Context, id string, in MaterialInput, actor entity.Actor) (*entity.Material, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	in.Name, in.Unit = normalizeName(in.Name), strings.TrimSpace(in.Unit)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	m, err := s.GetMaterial(ctx, id)
	if err != nil {
		return nil, err
	}
	if foldName(in.Name) != foldName(m.Name) {
		existing, err := s.materialNames(ctx)
		if err != nil {
			return nil, err
		}
		if existing.has(in.Name) {
			return nil, newError(ErrValidation, "material %q already exists", in.Name)
		}
	}

	unitChanged := in.Unit != m.Unit
	m.Name, m.Unit = in.Name, in.Unit
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Material.Update(ctx, m); err != nil {
			return storeErr(err, "material "+id)
		}
		if unitChanged {
			err := tx.Inventory.UpdateSettings(ctx, id, map[string]interface{}{"unit": m.Unit})
			if err != nil && !isNotFound(err) {
				return storeErr(err, "inventory "+id)
			}
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeMaterial, EntityID: m.ID, Action: entity.ActionUpdate,
			Content: fmt.Sprintf("Material %q updated", m.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Material %q updated.", m.Name))
	return m, nil
}

// DeleteMaterial 删除物料，被订单/意向/领料引用时拒绝
func (s *MasterService) DeleteMaterial(ctx context.Context, id string, actor entity.Actor) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	m, err := s.GetMaterial(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.repos.Material.CountReferences(ctx, id)
	if err != nil {
		return storeErr(err, "material references")
	}
	if refs.Total() > 0 {
		return newError(ErrReferentialIntegrity,
			"material %q is referenced by %d order line(s), %d intent line(s) and %d issuance(s)",
			m.Name, refs.OrderLines, refs.IntentLines, refs.Issuances)
	}
	item, err := s.repos.Inventory.FindByMaterialID(ctx, id)
	switch {
	case err == nil && item.Quantity > 0:
		return newError(ErrReferentialIntegrity, "material %q still holds %v %s in stock", m.Name, item.Quantity, item.Unit)
	case err != nil && !isNotFound(err):
		return storeErr(err, "inventory "+id)
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Material.Delete(ctx, id); err != nil {
			return storeErr(err, "material "+id)
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeMaterial, EntityID: id, Action: entity.ActionDelete,
			Content: fmt.Sprintf("Material %q deleted", m.Name),
		})
	})
	if err != nil {
		return err
	}
	s.notify(NotifyDanger, fmt.Sprintf("Material %q deleted.", m.Name))
	return nil
}

// AddBulkMaterials 批量新增物料，已存在或批内重复的名称跳过
func (s *MasterService) AddBulkMaterials(ctx context.Context, items []BulkMaterialInput, actor entity.Actor) ([]entity.Material, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, newError(ErrValidation, "no materials supplied")
	}
	existing, err := s.materialNames(ctx)
	if err != nil {
		return nil, err
	}

	var created []entity.Material
	for i, in := range items {
		in.Name, in.Unit = normalizeName(in.Name), strings.TrimSpace(in.Unit)
		if err := validateStruct(in); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if existing.has(in.Name) {
			continue
		}
		if in.Unit == "" {
			in.Unit = entity.DefaultMaterialUnit
		}
		m := entity.Material{ID: entity.NewID(entity.PrefixMaterial), Name: in.Name, Unit: in.Unit}
		existing.add(m.Name, m.ID)
		created = append(created, m)
	}
	if len(created) == 0 {
		return created, nil
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Material.CreateBatch(ctx, created); err != nil {
			return storeErr(err, "materials")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeMaterial, EntityID: "bulk", Action: entity.ActionCreate,
			Content: fmt.Sprintf("%d materials imported", len(created)),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("materials imported", zap.Int("created", len(created)), zap.Int("rows", len(items)))
	s.notify(NotifySuccess, fmt.Sprintf("%d new materials added.", len(created)))
	return created, nil
}

// === 供应商 ===

func (s *MasterService) ListVendors(ctx context.Context, search string) ([]entity.Vendor, error) {
	items, err := s.repos.Vendor.FindAll(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, storeErr(err, "vendors")
	}
	return items, nil
}

func (s *MasterService) GetVendor(ctx context.Context, id string) (*entity.Vendor, error) {
	v, err := s.repos.Vendor.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "vendor "+id)
	}
	return v, nil
}

func (s *MasterService) CreateVendor(ctx context.Context, in NameInput, actor entity.Actor) (*entity.Vendor, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	in.Name = normalizeName(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	existing, err := s.vendorNames(ctx)
	if err != nil {
		return nil, err
	}
	if existing.has(in.Name) {
		return nil, newError(ErrValidation, "vendor %q already exists", in.Name)
	}

	v := &entity.Vendor{ID: entity.NewID(entity.PrefixVendor), Name: in.Name}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Vendor.Create(ctx, v); err != nil {
			return storeErr(err, "vendor")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeVendor, EntityID: v.ID, Action: entity.ActionCreate,
			Content: fmt.Sprintf("Vendor %q created", v.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Vendor %q added.", v.Name))
	return v, nil
}

func (s *MasterService) UpdateVendor(ctx context.Context, id string, in NameInput, actor entity.Actor) (*entity.Vendor, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	in.Name = normalizeName(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	v, err := s.GetVendor(ctx, id)
	if err != nil {
		return nil, err
	}
	if foldName(in.Name) != foldName(v.Name) {
		existing, err := s.vendorNames(ctx)
		if err != nil {
			return nil, err
		}
		if existing.has(in.Name) {
			return nil, newError(ErrValidation, "vendor %q already exists", in.Name)
		}
	}

	v.Name = in.Name
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Vendor.Update(ctx, v); err != nil {
			return storeErr(err, "vendor "+id)
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeVendor, EntityID: v.ID, Action: entity.ActionUpdate,
			Content: fmt.Sprintf("Vendor %q updated", v.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Vendor %q updated.", v.Name))
	return v, nil
}

// DeleteVendor 删除供应商，存在任何状态的订单引用时拒绝
func (s *MasterService) DeleteVendor(ctx context.Context, id string, actor entity.Actor) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	v, err := s.GetVendor(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.repos.Vendor.CountOrders(ctx, id)
	if err != nil {
		return storeErr(err, "vendor references")
	}
	if n > 0 {
		return newError(ErrReferentialIntegrity, "vendor %q is referenced by %d order(s)", v.Name, n)
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Vendor.Delete(ctx, id); err != nil {
			return storeErr(err, "vendor "+id)
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeVendor, EntityID: id, Action: entity.ActionDelete,
			Content: fmt.Sprintf("Vendor %q deleted", v.Name),
		})
	})
	if err != nil {
		return err
	}
	s.notify(NotifyDanger, fmt.Sprintf("Vendor %q deleted.", v.Name))
	return nil
}

func (s *MasterService) AddBulkVendors(ctx context.Context, items []NameInput, actor entity.Actor) ([]entity.Vendor, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, newError(ErrValidation, "no vendors supplied")
	}
	existing, err := s.vendorNames(ctx)
	if err != nil {
		return nil, err
	}

	var created []entity.Vendor
	for i, in := range items {
		in.Name = normalizeName(in.Name)
		if err := validateStruct(in); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if existing.has(in.Name) {
			continue
		}
		v := entity.Vendor{ID: entity.NewID(entity.PrefixVendor), Name: in.Name}
		existing.add(v.Name, v.ID)
		created = append(created, v)
	}
	if len(created) == 0 {
		return created, nil
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Vendor.CreateBatch(ctx, created); err != nil {
			return storeErr(err, "vendors")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeVendor, EntityID: "bulk", Action: entity.ActionCreate,
			Content: fmt.Sprintf("%d vendors imported", len(created)),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("%d new vendors added.", len(created)))
	return created, nil
}

func (s *MasterService) vendorNames(ctx context.Context) (nameSet, error) {
	items, err := s.repos.Vendor.FindAll(ctx, "")
	if err != nil {
		return nil, storeErr(err, "vendors")
	}
	set := make(nameSet, len(items))
	for _, v := range items {
		set.add(v.Name, v.ID)
	}
	return set, nil
}

// === 工地/客户 ===

func (s *MasterService) ListSites(ctx context.Context, search string) ([]entity.Site, error) {
	items, err := s.repos.Site.FindAll(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, storeErr(err, "sites")
	}
	return items, nil
}

func (s *MasterService) GetSite(ctx context.Context, id string) (*entity.Site, error) {
	site, err := s.repos.Site.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "site "+id)
	}
	return site, nil
}

func (s *MasterService) CreateSite(ctx context.Context, in NameInput, actor entity.Actor) (*entity.Site, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	in.Name = normalizeName(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	existing, err := s.siteNames(ctx)
	if err != nil {
		return nil, err
	}
	if existing.has(in.Name) {
		return nil, newError(ErrValidation, "site %q already exists", in.Name)
	}

	site := &entity.Site{ID: entity.NewID(entity.PrefixSite), Name: in.Name}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Site.Create(ctx, site); err != nil {
			return storeErr(err, "site")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeSite, EntityID: site.ID, Action: entity.ActionCreate,
			Content: fmt.Sprintf("Site %q created", site.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Site %q added.", site.Name))
	return site, nil
}

func (s *MasterService) UpdateSite(ctx context.Context, id string, in NameInput, actor entity.Actor) (*entity.Site, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	in.Name = normalizeName(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	site, err := s.GetSite(ctx, id)
	if err != nil {
		return nil, err
	}
	if foldName(in.Name) != foldName(site.Name) {
		existing, err := s.siteNames(ctx)
		if err != nil {
			return nil, err
		}
		if existing.has(in.Name) {
			return nil, newError(ErrValidation, "site %q already exists", in.Name)
		}
	}

	oldName := site.Name
	site.Name = in.Name
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Site.Update(ctx, site); err != nil {
			return storeErr(err, "site "+id)
		}
		// 行项按名称引用工地，改名要带上已有行项
		moved, err := tx.Site.RenameOrderLines(ctx, oldName, site.Name)
		if err != nil {
			return storeErr(err, "site references")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeSite, EntityID: site.ID, Action: entity.ActionUpdate,
			Content:  fmt.Sprintf("Site %q updated", site.Name),
			Metadata: map[string]interface{}{"previous_name": oldName, "order_lines": moved},
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Site %q updated.", site.Name))
	return site, nil
}

// DeleteSite 订单行项的 site 是自由文本，按名称匹配引用
func (s *MasterService) DeleteSite(ctx context.Context, id string, actor entity.Actor) error {
	if err := checkActor(actor); err != nil {
		return err
	}
	site, err := s.GetSite(ctx, id)
	if err != nil {
		return err
	}
	n, err := s.repos.Site.CountOrderLines(ctx, site.Name)
	if err != nil {
		return storeErr(err, "site references")
	}
	if n > 0 {
		return newError(ErrReferentialIntegrity, "site %q is referenced by %d order line(s)", site.Name, n)
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Site.Delete(ctx, id); err != nil {
			return storeErr(err, "site "+id)
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeSite, EntityID: id, Action: entity.ActionDelete,
			Content: fmt.Sprintf("Site %q deleted", site.Name),
		})
	})
	if err != nil {
		return err
	}
	s.notify(NotifyDanger, fmt.Sprintf("Site %q deleted.", site.Name))
	return nil
}

func (s *MasterService) AddBulkSites(ctx context.Context, items []NameInput, actor entity.Actor) ([]entity.Site, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, newError(ErrValidation, "no sites supplied")
	}
	existing, err := s.siteNames(ctx)
	if err != nil {
		return nil, err
	}

	var created []entity.Site
	for i, in := range items {
		in.Name = normalizeName(in.Name)
		if err := validateStruct(in); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		if existing.has(in.Name) {
			continue
		}
		site := entity.Site{ID: entity.NewID(entity.PrefixSite), Name: in.Name}
		existing.add(site.Name, site.ID)
		created = append(created, site)
	}
	if len(created) == 0 {
		return created, nil
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Site.CreateBatch(ctx, created); err != nil {
			return storeErr(err, "sites")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeSite, EntityID: "bulk", Action: entity.ActionCreate,
			Content: fmt.Sprintf("%d sites imported", len(created)),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("%d new sites/clients added.", len(created)))
	return created, nil
}

func (s *MasterService) siteNames(ctx context.Context) (nameSet, error) {
	items, err := s.repos.Site.FindAll(ctx, "")
	if err != nil {
		return nil, storeErr(err, "sites")
	}
	set := make(nameSet, len(items))
	for _, site := range items {
		set.add(site.Name, site.ID)
	}
	return set, nil
}
