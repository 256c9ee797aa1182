package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService 库存台账
type InventoryService struct {
	*base
}

// OpeningStockUpdate 已有物料的期初数量
type OpeningStockUpdate struct {
	MaterialID string  `json:"material_id" validate:"required"`
	Quantity   float64 `json:"quantity" validate:"gte=0"`
	Unit       string  `json:"unit" validate:"max=20"`
}

// OpeningStockNewItem 期初时新建的物料
type OpeningStockNewItem struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Unit      string   `json:"unit" validate:"required,max=20"`
	Quantity  float64  `json:"quantity" validate:"gte=0"`
	Threshold *float64 `json:"threshold" validate:"omitempty,gte=0"`
}

// OpeningStockRequest 期初库存
type OpeningStockRequest struct {
	Updates  []OpeningStockUpdate  `json:"updates" validate:"dive"`
	NewItems []OpeningStockNewItem `json:"new_items" validate:"dive"`
}

// UpdateInventoryRequest 修改补货点或单位
type UpdateInventoryRequest struct {
	Threshold *float64 `json:"threshold" validate:"omitempty,gte=0"`
	Unit      *string  `json:"unit" validate:"omitempty,max=20"`
}

// BulkStockInput 库存导入行
type BulkStockInput struct {
	Name      string   `json:"name" validate:"required,max=200"`
	Unit      string   `json:"unit" validate:"max=20"`
	Quantity  float64  `json:"quantity" validate:"gte=0"`
	Threshold *float64 `json:"threshold" validate:"omitempty,gte=0"`
}

// List 库存列表
func (s *InventoryService) List(ctx context.Context, lowStockOnly bool) ([]entity.InventoryItem, error) {
	items, err := s.repos.Inventory.FindAll(ctx, lowStockOnly)
	if err != nil {
		return nil, storeErr(err, "inventory")
	}
	return items, nil
}

// LowStock 库存不高于补货点的物料
func (s *InventoryService) LowStock(ctx context.Context) ([]entity.InventoryItem, error) {
	return s.List(ctx, true)
}

// Get 单个物料库存
func (s *InventoryService) Get(ctx context.Context, materialID string) (*entity.InventoryItem, error) {
	item, err := s.repos.Inventory.FindByMaterialID(ctx, materialID)
	if err != nil {
		return nil, storeErr(err, "inventory for material "+materialID)
	}
	return item, nil
}

// SetOpeningStock 期初/盘点：按绝对值设置已有物料数量，并可同时新建物料
// 全部在一个事务内完成
func (s *InventoryService) SetOpeningStock(ctx context.Context, req OpeningStockRequest, actor entity.Actor) error {
	if err := requireRole(actor, "set opening stock", entity.RoleManager, entity.RoleInventoryManager); err != nil {
		return err
	}
	for i := range req.Updates {
		req.Updates[i].MaterialID = strings.TrimSpace(req.Updates[i].MaterialID)
		req.Updates[i].Unit = strings.TrimSpace(req.Updates[i].Unit)
	}
	for i := range req.NewItems {
		req.NewItems[i].Name = normalizeName(req.NewItems[i].Name)
		req.NewItems[i].Unit = strings.TrimSpace(req.NewItems[i].Unit)
	}
	if err := validateStruct(req); err != nil {
		return err
	}
	if len(req.Updates) == 0 && len(req.NewItems) == 0 {
		return newError(ErrValidation, "no stock updates supplied")
	}

	ids := make([]string, 0, len(req.Updates))
	for _, u := range req.Updates {
		ids = append(ids, u.MaterialID)
	}
	materials, err := s.repos.Material.FindByIDs(ctx, ids)
	if err != nil {
		return storeErr(err, "materials")
	}
	for _, id := range ids {
		if _, ok := materials[id]; !ok {
			return newError(ErrValidation, "material %s does not exist", id)
		}
	}

	names, err := s.materialNames(ctx)
	if err != nil {
		return err
	}
	newMaterials := make([]entity.Material, 0, len(req.NewItems))
	for _, item := range req.NewItems {
		if names.has(item.Name) {
			return newError(ErrValidation, "material %q already exists", item.Name)
		}
		m := entity.Material{ID: entity.NewID(entity.PrefixMaterial), Name: item.Name, Unit: item.Unit}
		names.add(m.Name, m.ID)
		newMaterials = append(newMaterials, m)
	}

	unlock, err := s.lockMaterials(ctx, ids...)
	if err != nil {
		return err
	}
	defer unlock()

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		for _, u := range req.Updates {
			m := materials[u.MaterialID]
			unit := u.Unit
			if unit == "" {
				unit = m.Unit
			}
			if err := tx.Inventory.SetQuantity(ctx, u.MaterialID, u.Quantity, unit, s.opts.DefaultThreshold); err != nil {
				return storeErr(err, "inventory "+u.MaterialID)
			}
			if unit != m.Unit {
				if err := tx.Material.UpdateUnit(ctx, u.MaterialID, unit); err != nil {
					return storeErr(err, "material "+u.MaterialID)
				}
			}
			if err := record(ctx, tx, actor, entity.ActivityLog{
				EntityType: entity.EntityTypeInventory, EntityID: u.MaterialID, Action: entity.ActionStockSet,
				Content:  fmt.Sprintf("Stock of %s set to %s %s", m.Name, formatQty(u.Quantity), unit),
				Metadata: map[string]interface{}{"quantity": u.Quantity, "unit": unit},
			}); err != nil {
				return err
			}
		}
		for i, item := range req.NewItems {
			m := newMaterials[i]
			if err := tx.Material.Create(ctx, &m); err != nil {
				return storeErr(err, "material")
			}
			threshold := s.opts.DefaultThreshold
			if item.Threshold != nil {
				threshold = *item.Threshold
			}
			if err := tx.Inventory.SetStock(ctx, &entity.InventoryItem{
				MaterialID: m.ID, Quantity: item.Quantity, Threshold: threshold, Unit: m.Unit,
			}); err != nil {
				return storeErr(err, "inventory "+m.ID)
			}
			if err := record(ctx, tx, actor, entity.ActivityLog{
				EntityType: entity.EntityTypeInventory, EntityID: m.ID, Action: entity.ActionStockSet,
				Content:  fmt.Sprintf("New material %s stocked at %s %s", m.Name, formatQty(item.Quantity), m.Unit),
				Metadata: map[string]interface{}{"quantity": item.Quantity, "threshold": threshold, "unit": m.Unit},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("opening stock set",
		zap.Int("updated", len(req.Updates)),
		zap.Int("created", len(req.NewItems)),
		zap.String("actor", actor.ID))
	s.notify(NotifySuccess, "Stock levels have been updated.")
	return nil
}

// UpdateInventoryItem 修改补货点/单位，单位同步到物料
func (s *InventoryService) UpdateInventoryItem(ctx context.Context, materialID string, req UpdateInventoryRequest, actor entity.Actor) (*entity.InventoryItem, error) {
	if err := requireRole(actor, "update inventory items", entity.RoleManager, entity.RoleInventoryManager); err != nil {
		return nil, err
	}
	if req.Unit != nil {
		unit := strings.TrimSpace(*req.Unit)
		if unit == "" {
			return nil, newError(ErrValidation, "unit must not be empty")
		}
		req.Unit = &unit
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Threshold == nil && req.Unit == nil {
		return nil, newError(ErrValidation, "nothing to update")
	}
	if _, err := s.Get(ctx, materialID); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Threshold != nil {
		updates["threshold"] = *req.Threshold
	}
	if req.Unit != nil {
		updates["unit"] = *req.Unit
	}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Inventory.UpdateSettings(ctx, materialID, updates); err != nil {
			return storeErr(err, "inventory for material "+materialID)
		}
		if req.Unit != nil {
			if err := tx.Material.UpdateUnit(ctx, materialID, *req.Unit); err != nil {
				return storeErr(err, "material "+materialID)
			}
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeInventory, EntityID: materialID, Action: entity.ActionUpdate,
			Content: "Inventory settings updated",
		})
	})
	if err != nil {
		return nil, err
	}

	s.notify(NotifySuccess, "Inventory item updated successfully.")
	return s.Get(ctx, materialID)
}

// AddBulkStock 库存导入：按名称匹配已有物料覆盖数量，不存在则新建物料
// 返回处理的记录数
func (s *InventoryService) AddBulkStock(ctx context.Context, rows []BulkStockInput, actor entity.Actor) (int, error) {
	if err := requireRole(actor, "import stock", entity.RoleManager, entity.RoleInventoryManager); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, newError(ErrValidation, "no stock records supplied")
	}

	// 同名多行以最后一行为准
	order := make([]string, 0, len(rows))
	byName := make(map[string]BulkStockInput, len(rows))
	for i, row := range rows {
		row.Name, row.Unit = normalizeName(row.Name), strings.TrimSpace(row.Unit)
		if err := validateStruct(row); err != nil {
			return 0, fmt.Errorf("row %d: %w", i+1, err)
		}
		key := foldName(row.Name)
		if _, seen := byName[key]; !seen {
			order = append(order, key)
		}
		byName[key] = row
	}

	names, err := s.materialNames(ctx)
	if err != nil {
		return 0, err
	}
	stock, err := s.repos.Inventory.FindAll(ctx, false)
	if err != nil {
		return 0, storeErr(err, "inventory")
	}
	thresholds := make(map[string]float64, len(stock))
	for _, item := range stock {
		thresholds[item.MaterialID] = item.Threshold
	}
	materials, err := s.repos.Material.Names(ctx)
	if err != nil {
		return 0, storeErr(err, "materials")
	}
	units := make(map[string]string, len(materials))
	for _, m := range materials {
		units[m.ID] = m.Unit
	}

	type plannedRow struct {
		material entity.Material
		isNew    bool
		item     entity.InventoryItem
	}
	planned := make([]plannedRow, 0, len(order))
	var lockIDs []string
	for _, key := range order {
		row := byName[key]
		p := plannedRow{}
		if id, ok := names.get(row.Name); ok {
			p.material = entity.Material{ID: id, Name: row.Name, Unit: units[id]}
			lockIDs = append(lockIDs, id)
		} else {
			unit := row.Unit
			if unit == "" {
				unit = entity.DefaultMaterialUnit
			}
			p.material = entity.Material{ID: entity.NewID(entity.PrefixMaterial), Name: row.Name, Unit: unit}
			p.isNew = true
		}
		unit := row.Unit
		if unit == "" {
			unit = p.material.Unit
		}
		threshold := s.opts.DefaultThreshold
		if t, ok := thresholds[p.material.ID]; ok {
			threshold = t
		}
		if row.Threshold != nil {
			threshold = *row.Threshold
		}
		p.item = entity.InventoryItem{MaterialID: p.material.ID, Quantity: row.Quantity, Threshold: threshold, Unit: unit}
		planned = append(planned, p)
	}

	unlock, err := s.lockMaterials(ctx, lockIDs...)
	if err != nil {
		return 0, err
	}
	defer unlock()

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		for _, p := range planned {
			if p.isNew {
				m := p.material
				if err := tx.Material.Create(ctx, &m); err != nil {
					return storeErr(err, "material")
				}
			} else if p.item.Unit != p.material.Unit {
				if err := tx.Material.UpdateUnit(ctx, p.material.ID, p.item.Unit); err != nil {
					return storeErr(err, "material "+p.material.ID)
				}
			}
			item := p.item
			if err := tx.Inventory.SetStock(ctx, &item); err != nil {
				return storeErr(err, "inventory "+item.MaterialID)
			}
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeInventory, EntityID: "bulk", Action: entity.ActionStockSet,
			Content: fmt.Sprintf("%d stock records imported", len(planned)),
		})
	})
	if err != nil {
		return 0, err
	}

	s.notify(NotifySuccess, fmt.Sprintf("%d stock records processed from upload.", len(planned)))
	return len(planned), nil
}

// LowStockDraft 低库存补货草稿：补货量 = 补货点 × 系数
func (s *InventoryService) LowStockDraft(ctx context.Context, materialID string) (*entity.OrderDraft, error) {
	item, err := s.Get(ctx, materialID)
	if err != nil {
		return nil, err
	}
	if !item.IsLowStock() {
		return nil, newError(ErrValidation, "material %s is above its reorder threshold (%s > %s)",
			materialID, formatQty(item.Quantity), formatQty(item.Threshold))
	}
	qty := item.SuggestedReorderQty(s.opts.ReorderFactor)
	if qty <= 0 {
		qty = s.opts.DefaultThreshold * s.opts.ReorderFactor
	}
	name, unit := materialID, item.Unit
	if item.Material != nil {
		name, unit = item.Material.Name, item.Material.Unit
	}
	return &entity.OrderDraft{
		Priority:      entity.PriorityMedium,
		Notes:         fmt.Sprintf("Auto-generated reorder for low stock of %s.", name),
		AutoGenerated: true,
		LineItems: []entity.DraftLineItem{{
			MaterialID: materialID,
			Quantity:   qty,
			Unit:       unit,
			Rate:       decimal.Zero,
			GST:        entity.DefaultGST,
		}},
	}, nil
}
