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

// IntentService 采购意向
type IntentService struct {
	*base
}

// IntentLineInput 意向行项，单位缺省取物料单位
type IntentLineInput struct {
	MaterialID string  `json:"material_id" validate:"required"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
	Unit       string  `json:"unit" validate:"max=20"`
	Site       string  `json:"site" validate:"max=200"`
	Notes      string  `json:"notes"`
}

// IntentInput 提交意向
type IntentInput struct {
	LineItems []IntentLineInput `json:"line_items" validate:"required,min=1,dive"`
	Notes     string            `json:"notes"`
}

func (s *IntentService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseIntent, int64, error) {
	page, pageSize = pageDefaults(page, pageSize)
	items, total, err := s.repos.Intent.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, storeErr(err, "intents")
	}
	return items, total, nil
}

func (s *IntentService) Get(ctx context.Context, id string) (*entity.PurchaseIntent, error) {
	intent, err := s.repos.Intent.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "intent "+id)
	}
	return intent, nil
}

// Raise 提交采购意向，进入 Pending
func (s *IntentService) Raise(ctx context.Context, in IntentInput, actor entity.Actor) (*entity.PurchaseIntent, error) {
	if err := requireRole(actor, "raise purchase intents", entity.RolePurchaser, entity.RoleInventoryManager); err != nil {
		return nil, err
	}
	in.Notes = strings.TrimSpace(in.Notes)
	for i := range in.LineItems {
		li := &in.LineItems[i]
		li.MaterialID = strings.TrimSpace(li.MaterialID)
		li.Unit = strings.TrimSpace(li.Unit)
		li.Site = strings.TrimSpace(li.Site)
		li.Notes = strings.TrimSpace(li.Notes)
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(in.LineItems))
	for _, li := range in.LineItems {
		ids = append(ids, li.MaterialID)
	}
	materials, err := s.repos.Material.FindByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr(err, "materials")
	}

	now := s.now()
	intent := &entity.PurchaseIntent{
		ID:            entity.NewID(entity.PrefixIntent),
		Notes:         in.Notes,
		RequestedBy:   actor.DisplayName(),
		RequestedByID: actor.ID,
		RequestedOn:   now,
		Status:        entity.IntentStatusPending,
	}
	for i, li := range in.LineItems {
		m, ok := materials[li.MaterialID]
		if !ok {
			return nil, newError(ErrValidation, "line %d: material %s does not exist", i+1, li.MaterialID)
		}
		unit := li.Unit
		if unit == "" {
			unit = m.Unit
		}
		intent.LineItems = append(intent.LineItems, entity.IntentLineItem{
			ID:         entity.NewID(entity.PrefixLineItem),
			IntentID:   intent.ID,
			MaterialID: li.MaterialID,
			Quantity:   li.Quantity,
			Unit:       unit,
			Site:       li.Site,
			Notes:      li.Notes,
			SortOrder:  i + 1,
		})
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Intent.Create(ctx, intent); err != nil {
			return storeErr(err, "intent")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeIntent, EntityID: intent.ID, Action: entity.ActionCreate,
			ToStatus: intent.Status,
			Content:  fmt.Sprintf("Intent raised with %d line item(s)", len(intent.LineItems)),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("intent raised", zap.String("intent_id", intent.ID), zap.String("actor", actor.ID))
	s.notify(NotifySuccess, fmt.Sprintf("Purchase Intent %s raised successfully.", intent.ID))
	return intent, nil
}

// Approve Pending -> Approved
func (s *IntentService) Approve(ctx context.Context, id string, actor entity.Actor) (*entity.PurchaseIntent, error) {
	if err := requireRole(actor, "review purchase intents", entity.RolePurchaser, entity.RoleManager); err != nil {
		return nil, err
	}
	err := s.review(ctx, id, actor, entity.IntentStatusApproved, entity.ActionApprove, "", "Intent approved for PO creation")
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Intent %s approved for PO creation.", id))
	return s.Get(ctx, id)
}

// Reject Pending -> Rejected，原因必填
func (s *IntentService) Reject(ctx context.Context, id, reason string, actor entity.Actor) (*entity.PurchaseIntent, error) {
	if err := requireRole(actor, "review purchase intents", entity.RolePurchaser, entity.RoleManager); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newError(ErrValidation, "a rejection reason is required")
	}
	err := s.review(ctx, id, actor, entity.IntentStatusRejected, entity.ActionReject, reason, "Intent rejected: "+reason)
	if err != nil {
		return nil, err
	}
	s.notify(NotifyDanger, fmt.Sprintf("Intent %s has been rejected.", id))
	return s.Get(ctx, id)
}

func (s *IntentService) review(ctx context.Context, id string, actor entity.Actor, to, action, reason, content string) error {
	intent, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !entity.CanTransitionIntent(intent.Status, to) {
		return newError(ErrInvalidTransition, "intent %s is %s; cannot move to %s", id, intent.Status, to)
	}

	now := s.now()
	updates := map[string]interface{}{
		"status":      to,
		"reviewed_by": actor.DisplayName(),
		"reviewed_on": now,
		"updated_at":  now,
	}
	if reason != "" {
		updates["rejection_reason"] = reason
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Intent.TransitionStatus(ctx, id, intent.Status, updates); err != nil {
			return storeErr(err, "intent "+id)
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeIntent, EntityID: id, Action: action,
			FromStatus: intent.Status, ToStatus: to,
			Content: content,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("intent status changed",
		zap.String("intent_id", id),
		zap.String("from", intent.Status),
		zap.String("to", to),
		zap.String("actor", actor.ID))
	return nil
}

// ConvertToOrderDraft 已批准的意向生成订单草稿，不修改意向状态
// 草稿带 intent_id 下单成功时意向才转为 Converted
func (s *IntentService) ConvertToOrderDraft(ctx context.Context, id string, actor entity.Actor) (*entity.OrderDraft, error) {
	if err := requireRole(actor, "convert purchase intents", entity.RolePurchaser, entity.RoleManager); err != nil {
		return nil, err
	}
	intent, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransitionIntent(intent.Status, entity.IntentStatusConverted) {
		return nil, newError(ErrInvalidTransition, "intent %s is %s; only Approved intents can be converted", id, intent.Status)
	}

	intentID := intent.ID
	draft := &entity.OrderDraft{
		Priority: entity.PriorityMedium,
		Notes:    fmt.Sprintf("Generated from Purchase Intent %s. Reason: %s", intent.ID, intent.Notes),
		IntentID: &intentID,
	}
	for _, li := range intent.LineItems {
		draft.LineItems = append(draft.LineItems, entity.DraftLineItem{
			MaterialID:     li.MaterialID,
			Quantity:       li.Quantity,
			Unit:           li.Unit,
			Site:           li.Site,
			Specifications: li.Notes,
			Rate:           decimal.Zero,
			GST:            entity.DefaultGST,
		})
	}

	s.notify(NotifyInfo, fmt.Sprintf("Creating new PO from Intent %s.", intent.ID))
	return draft, nil
}
