package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"go.uber.org/zap"
)

// IssuanceService 领料出库
type IssuanceService struct {
	*base
}

// IssueInput 领料
type IssueInput struct {
	MaterialID   string  `json:"material_id" validate:"required"`
	Quantity     float64 `json:"quantity" validate:"gt=0"`
	Unit         string  `json:"unit" validate:"max=20"`
	IssuedToSite string  `json:"issued_to_site" validate:"required,max=200"`
	Notes        string  `json:"notes"`
}

func (s *IssuanceService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.MaterialIssuance, int64, error) {
	page, pageSize = pageDefaults(page, pageSize)
	items, total, err := s.repos.Issuance.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, storeErr(err, "issuances")
	}
	return items, total, nil
}

func (s *IssuanceService) Get(ctx context.Context, id string) (*entity.MaterialIssuance, error) {
	item, err := s.repos.Issuance.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "issuance "+id)
	}
	return item, nil
}

// Issue 领料：库存校验与扣减是同一条条件SQL，扣减与领料记录同一事务
func (s *IssuanceService) Issue(ctx context.Context, in IssueInput, actor entity.Actor) (*entity.MaterialIssuance, error) {
	if err := requireRole(actor, "issue materials", entity.RoleManager, entity.RoleInventoryManager); err != nil {
		return nil, err
	}
	in.MaterialID = strings.TrimSpace(in.MaterialID)
	in.Unit = strings.TrimSpace(in.Unit)
	in.IssuedToSite = normalizeName(in.IssuedToSite)
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	m, err := s.repos.Material.FindByID(ctx, in.MaterialID)
	if err != nil {
		if isNotFound(err) {
			return nil, newError(ErrValidation, "material %s does not exist", in.MaterialID)
		}
		return nil, storeErr(err, "material "+in.MaterialID)
	}
	if in.Unit == "" {
		in.Unit = m.Unit
	}

	unlock, err := s.lockMaterials(ctx, m.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	issuance := &entity.MaterialIssuance{
		ID:           entity.NewID(entity.PrefixIssuance),
		MaterialID:   m.ID,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		IssuedToSite: in.IssuedToSite,
		IssuedBy:     actor.DisplayName(),
		IssuedByID:   actor.ID,
		IssuedOn:     s.now(),
		Notes:        in.Notes,
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := s.decrement(ctx, tx, m.ID, in.Quantity); err != nil {
			return err
		}
		if err := tx.Issuance.Create(ctx, issuance); err != nil {
			return storeErr(err, "issuance")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeIssuance, EntityID: issuance.ID, Action: entity.ActionIssue,
			Content: fmt.Sprintf("%s %s of %s issued to %s", formatQty(in.Quantity), in.Unit, m.Name, in.IssuedToSite),
			Metadata: map[string]interface{}{
				"material_id": m.ID,
				"quantity":    in.Quantity,
			},
		})
	})
	if err != nil {
		if isInsufficient(err) {
			return nil, s.insufficient(ctx, m, in.Quantity)
		}
		return nil, err
	}
	issuance.Material = m

	s.logger.Info("material issued",
		zap.String("issuance_id", issuance.ID),
		zap.String("material_id", m.ID),
		zap.Float64("quantity", in.Quantity),
		zap.String("site", in.IssuedToSite),
		zap.String("actor", actor.ID))
	s.notify(NotifySuccess, fmt.Sprintf("%s %s of %s issued to %s.", formatQty(in.Quantity), in.Unit, m.Name, in.IssuedToSite))

	if item, err := s.repos.Inventory.FindByMaterialID(ctx, m.ID); err == nil && item.IsLowStock() {
		s.notify(NotifyWarning, fmt.Sprintf("%s is at or below its reorder threshold (%s %s left).", m.Name, formatQty(item.Quantity), item.Unit))
	}
	return issuance, nil
}

// insufficient 带上当前可用量的库存不足错误
func (s *IssuanceService) insufficient(ctx context.Context, m *entity.Material, requested float64) error {
	available := 0.0
	if item, err := s.repos.Inventory.FindByMaterialID(ctx, m.ID); err == nil {
		available = item.Quantity
	}
	return newError(ErrInsufficientStock, "%s: requested %s, available %s", m.Name, formatQty(requested), formatQty(available))
}
