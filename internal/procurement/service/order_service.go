package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderService 采购订单生命周期
type OrderService struct {
	*base
}

// OrderLineInput 订单行项
type OrderLineInput struct {
	MaterialID     string           `json:"material_id" validate:"required"`
	Quantity       float64          `json:"quantity" validate:"gt=0"`
	Unit           string           `json:"unit" validate:"required,max=20"`
	Specifications string           `json:"specifications"`
	Size           string           `json:"size" validate:"max=100"`
	Brand          string           `json:"brand" validate:"max=100"`
	Site           string           `json:"site" validate:"max=200"`
	Rate           *decimal.Decimal `json:"rate"`
	Discount       decimal.Decimal  `json:"discount"`
	GST            *decimal.Decimal `json:"gst"`
	Freight        decimal.Decimal  `json:"freight"`
}

// OrderInput 新建/修改订单，修改时行项整体替换
type OrderInput struct {
	VendorID         string           `json:"vendor_id" validate:"required"`
	LineItems        []OrderLineInput `json:"line_items" validate:"required,min=1,dive"`
	Priority         string           `json:"priority" validate:"omitempty,oneof=Urgent High Medium Low"`
	ExpectedDelivery *time.Time       `json:"expected_delivery"`
	Notes            string           `json:"notes"`
	IntentID         *string          `json:"intent_id"`
	AutoGenerated    bool             `json:"auto_generated"`
}

// OrderInputFromDraft 草稿转为下单请求，价格字段原样带入
func OrderInputFromDraft(draft *entity.OrderDraft, vendorID string) OrderInput {
	in := OrderInput{
		VendorID:      vendorID,
		Priority:      draft.Priority,
		Notes:         draft.Notes,
		IntentID:      draft.IntentID,
		AutoGenerated: draft.AutoGenerated,
	}
	if in.VendorID == "" {
		in.VendorID = draft.VendorID
	}
	for _, li := range draft.LineItems {
		rate, gst := li.Rate, li.GST
		in.LineItems = append(in.LineItems, OrderLineInput{
			MaterialID:     li.MaterialID,
			Quantity:       li.Quantity,
			Unit:           li.Unit,
			Site:           li.Site,
			Specifications: li.Specifications,
			Rate:           &rate,
			GST:            &gst,
		})
	}
	return in
}

func (in *OrderInput) normalize() {
	in.VendorID = strings.TrimSpace(in.VendorID)
	in.Notes = strings.TrimSpace(in.Notes)
	if in.Priority == "" {
		in.Priority = entity.PriorityMedium
	}
	for i := range in.LineItems {
		li := &in.LineItems[i]
		li.MaterialID = strings.TrimSpace(li.MaterialID)
		li.Unit = strings.TrimSpace(li.Unit)
		li.Site = strings.TrimSpace(li.Site)
	}
}

// validateOrderInput 结构校验 + 金额校验 + 供应商/物料存在性
func (s *OrderService) validateOrderInput(ctx context.Context, in *OrderInput) (*entity.Vendor, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	for i, li := range in.LineItems {
		row := i + 1
		switch {
		case li.Rate == nil:
			return nil, newError(ErrValidation, "line %d: rate is required", row)
		case li.Rate.IsNegative():
			return nil, newError(ErrValidation, "line %d: rate must not be negative", row)
		case li.Discount.IsNegative() || li.Discount.GreaterThan(hundred):
			return nil, newError(ErrValidation, "line %d: discount must be between 0 and 100", row)
		case li.GST != nil && li.GST.IsNegative():
			return nil, newError(ErrValidation, "line %d: gst must not be negative", row)
		case li.Freight.IsNegative():
			return nil, newError(ErrValidation, "line %d: freight must not be negative", row)
		}
	}

	vendor, err := s.repos.Vendor.FindByID(ctx, in.VendorID)
	if err != nil {
		if isNotFound(err) {
			return nil, newError(ErrValidation, "vendor %s does not exist", in.VendorID)
		}
		return nil, storeErr(err, "vendor "+in.VendorID)
	}
	if err := s.requireMaterials(ctx, materialIDsOf(in.LineItems)); err != nil {
		return nil, err
	}
	return vendor, nil
}

var hundred = decimal.NewFromInt(100)

func materialIDsOf(lines []OrderLineInput) []string {
	ids := make([]string, 0, len(lines))
	for _, li := range lines {
		ids = append(ids, li.MaterialID)
	}
	return ids
}

// matchIntentLines 由意向转来的订单必须覆盖意向的全部物料，不得夹带其他物料
func matchIntentLines(intent *entity.PurchaseIntent, lines []OrderLineInput) error {
	want := make(map[string]bool, len(intent.LineItems))
	for _, li := range intent.LineItems {
		want[li.MaterialID] = true
	}
	got := make(map[string]bool, len(lines))
	for _, li := range lines {
		if !want[li.MaterialID] {
			return newError(ErrValidation, "material %s is not part of intent %s", li.MaterialID, intent.ID)
		}
		got[li.MaterialID] = true
	}
	for id := range want {
		if !got[id] {
			return newError(ErrValidation, "order is missing material %s from intent %s", id, intent.ID)
		}
	}
	return nil
}

// requireMaterials 全部物料必须存在
func (b *base) requireMaterials(ctx context.Context, ids []string) error {
	found, err := b.repos.Material.FindByIDs(ctx, ids)
	if err != nil {
		return storeErr(err, "materials")
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return newError(ErrValidation, "material %s does not exist", id)
		}
	}
	return nil
}

func buildOrderLines(orderID string, lines []OrderLineInput) []entity.OrderLineItem {
	items := make([]entity.OrderLineItem, 0, len(lines))
	for i, li := range lines {
		gst := entity.DefaultGST
		if li.GST != nil {
			gst = *li.GST
		}
		items = append(items, entity.OrderLineItem{
			ID:             entity.NewID(entity.PrefixLineItem),
			OrderID:        orderID,
			MaterialID:     li.MaterialID,
			Quantity:       li.Quantity,
			Unit:           li.Unit,
			Specifications: li.Specifications,
			Size:           li.Size,
			Brand:          li.Brand,
			Site:           li.Site,
			Rate:           *li.Rate,
			Discount:       li.Discount,
			GST:            gst,
			Freight:        li.Freight,
			SortOrder:      i + 1,
		})
	}
	return items
}

// List 订单列表
func (s *OrderService) List(ctx context.Context, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	page, pageSize = pageDefaults(page, pageSize)
	items, total, err := s.repos.Order.FindAll(ctx, page, pageSize, filters)
	if err != nil {
		return nil, 0, storeErr(err, "orders")
	}
	return items, total, nil
}

// Get 订单详情
func (s *OrderService) Get(ctx context.Context, id string) (*entity.PurchaseOrder, error) {
	po, err := s.repos.Order.FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "order "+id)
	}
	return po, nil
}

// Create 下单：经理下单直接待到货，采购下单待审批
// 带 intent_id 时在同一事务内把意向从 Approved 转为 Converted
func (s *OrderService) Create(ctx context.Context, in OrderInput, actor entity.Actor) (*entity.PurchaseOrder, error) {
	status, err := initialOrderStatus(actor)
	if err != nil {
		return nil, err
	}
	vendor, err := s.validateOrderInput(ctx, &in)
	if err != nil {
		return nil, err
	}

	var intent *entity.PurchaseIntent
	if in.IntentID != nil && strings.TrimSpace(*in.IntentID) != "" {
		intentID := strings.TrimSpace(*in.IntentID)
		in.IntentID = &intentID
		intent, err = s.repos.Intent.FindByID(ctx, intentID)
		if err != nil {
			return nil, storeErr(err, "intent "+intentID)
		}
		if intent.Status != entity.IntentStatusApproved {
			return nil, newError(ErrInvalidTransition, "intent %s is %s; only Approved intents can be converted", intentID, intent.Status)
		}
		if err := matchIntentLines(intent, in.LineItems); err != nil {
			return nil, err
		}
	} else {
		in.IntentID = nil
	}

	now := s.now()
	po := &entity.PurchaseOrder{
		ID:               entity.NewID(entity.PrefixOrder),
		VendorID:         in.VendorID,
		Notes:            in.Notes,
		Priority:         in.Priority,
		Status:           status,
		OrderedOn:        now,
		ExpectedDelivery: in.ExpectedDelivery,
		RaisedBy:         actor.DisplayName(),
		RaisedByID:       actor.ID,
		AutoGenerated:    in.AutoGenerated,
		IntentID:         in.IntentID,
	}
	po.LineItems = buildOrderLines(po.ID, in.LineItems)

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if intent != nil {
			err := tx.Intent.TransitionStatus(ctx, intent.ID, entity.IntentStatusApproved, map[string]interface{}{
				"status":     entity.IntentStatusConverted,
				"order_id":   po.ID,
				"updated_at": now,
			})
			if err != nil {
				return storeErr(err, "intent "+intent.ID)
			}
			if err := record(ctx, tx, actor, entity.ActivityLog{
				EntityType: entity.EntityTypeIntent, EntityID: intent.ID, Action: entity.ActionConvert,
				FromStatus: entity.IntentStatusApproved, ToStatus: entity.IntentStatusConverted,
				Content:  fmt.Sprintf("Converted into order %s", po.ID),
				Metadata: map[string]interface{}{"order_id": po.ID},
			}); err != nil {
				return err
			}
		}
		if err := tx.Order.Create(ctx, po); err != nil {
			return storeErr(err, "order")
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeOrder, EntityID: po.ID, Action: entity.ActionCreate,
			ToStatus: po.Status,
			Content:  fmt.Sprintf("Order raised with %d line item(s), total %s", len(po.LineItems), po.Total().StringFixed(2)),
		})
	})
	if err != nil {
		return nil, err
	}
	po.Vendor = vendor

	s.logger.Info("order created",
		zap.String("order_id", po.ID),
		zap.String("status", po.Status),
		zap.String("actor", actor.ID),
		zap.Stringp("intent_id", po.IntentID))
	s.notify(NotifySuccess, fmt.Sprintf("Order %s created successfully.", po.ID))
	return po, nil
}

// Update 修改订单，行项整体替换
// 采购修改自己已取消的订单即重新提交审批
func (s *OrderService) Update(ctx context.Context, id string, in OrderInput, actor entity.Actor) (*entity.PurchaseOrder, error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrderEdit(actor, po); err != nil {
		return nil, err
	}
	vendor, err := s.validateOrderInput(ctx, &in)
	if err != nil {
		return nil, err
	}

	readStatus := po.Status
	po.VendorID = in.VendorID
	po.Notes = in.Notes
	po.Priority = in.Priority
	po.ExpectedDelivery = in.ExpectedDelivery
	po.UpdatedAt = s.now()
	po.LineItems = buildOrderLines(po.ID, in.LineItems)
	if readStatus == entity.OrderStatusCancelled {
		po.Status = entity.OrderStatusAwaitingApproval
		po.ApprovedBy, po.ApprovedOn = "", nil
		po.RejectedBy, po.RejectedOn, po.RejectionReason = "", nil, ""
		po.CancelledBy, po.CancelledOn = "", nil
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Order.ReplaceGuarded(ctx, po, readStatus); err != nil {
			return storeErr(err, "order "+id)
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeOrder, EntityID: po.ID, Action: entity.ActionUpdate,
			FromStatus: readStatus, ToStatus: po.Status,
			Content: fmt.Sprintf("Order updated with %d line item(s)", len(po.LineItems)),
		})
	})
	if err != nil {
		return nil, err
	}
	po.Vendor = vendor

	s.logger.Info("order updated",
		zap.String("order_id", po.ID),
		zap.String("from", readStatus),
		zap.String("to", po.Status),
		zap.String("actor", actor.ID))
	s.notify(NotifySuccess, fmt.Sprintf("Order %s updated successfully.", po.ID))
	return po, nil
}

// Approve 经理审批：AwaitingApproval -> Pending
func (s *OrderService) Approve(ctx context.Context, id string, actor entity.Actor) (*entity.PurchaseOrder, error) {
	if err := requireRole(actor, "approve orders", entity.RoleManager); err != nil {
		return nil, err
	}
	now := s.now()
	err := s.transition(ctx, id, actor, entity.ActionApprove,
		[]string{entity.OrderStatusAwaitingApproval}, entity.OrderStatusPending,
		map[string]interface{}{
			"approved_by": actor.DisplayName(),
			"approved_on": now,
		}, "Order approved")
	if err != nil {
		return nil, err
	}
	s.notify(NotifySuccess, fmt.Sprintf("Order %s has been approved.", id))
	return s.Get(ctx, id)
}

// Reject 经理驳回，原因必填；待到货的订单也可驳回
func (s *OrderService) Reject(ctx context.Context, id, reason string, actor entity.Actor) (*entity.PurchaseOrder, error) {
	if err := requireRole(actor, "reject orders", entity.RoleManager); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, newError(ErrValidation, "a rejection reason is required")
	}
	now := s.now()
	err := s.transition(ctx, id, actor, entity.ActionReject,
		[]string{entity.OrderStatusAwaitingApproval, entity.OrderStatusPending}, entity.OrderStatusCancelled,
		map[string]interface{}{
			"rejected_by":      actor.DisplayName(),
			"rejected_on":      now,
			"rejection_reason": reason,
		}, "Order rejected: "+reason)
	if err != nil {
		return nil, err
	}
	s.notify(NotifyDanger, fmt.Sprintf("Order %s has been rejected.", id))
	return s.Get(ctx, id)
}

// Cancel 取消待到货订单，无库存影响
func (s *OrderService) Cancel(ctx context.Context, id string, actor entity.Actor) (*entity.PurchaseOrder, error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeOrderCancel(actor, po); err != nil {
		return nil, err
	}
	now := s.now()
	err = s.transition(ctx, id, actor, entity.ActionCancel,
		[]string{entity.OrderStatusPending}, entity.OrderStatusCancelled,
		map[string]interface{}{
			"cancelled_by": actor.DisplayName(),
			"cancelled_on": now,
		}, "Order cancelled")
	if err != nil {
		return nil, err
	}
	s.notify(NotifyWarning, fmt.Sprintf("Order %s has been cancelled.", id))
	return s.Get(ctx, id)
}

// MarkDelivered 确认到货：状态流转与逐行入库在同一事务内，只会成功一次
func (s *OrderService) MarkDelivered(ctx context.Context, id string, actor entity.Actor) (*entity.PurchaseOrder, error) {
	if err := requireRole(actor, "confirm deliveries", entity.RoleManager, entity.RoleInventoryManager); err != nil {
		return nil, err
	}
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if po.Status != entity.OrderStatusPending {
		return nil, newError(ErrInvalidTransition, "order %s is %s; only Pending orders can be delivered", id, po.Status)
	}

	ids := make([]string, 0, len(po.LineItems))
	for _, li := range po.LineItems {
		ids = append(ids, li.MaterialID)
	}
	unlock, err := s.lockMaterials(ctx, ids...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	received := make(map[string]interface{}, len(po.LineItems))
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		err := tx.Order.TransitionStatus(ctx, id, []string{entity.OrderStatusPending}, map[string]interface{}{
			"status":       entity.OrderStatusDelivered,
			"delivered_on": now,
			"received_by":  actor.DisplayName(),
			"updated_at":   now,
		})
		if err != nil {
			return storeErr(err, "order "+id)
		}
		for _, li := range po.LineItems {
			if err := s.increment(ctx, tx, li.MaterialID, li.Quantity, li.Unit); err != nil {
				return err
			}
			prev, _ := received[li.MaterialID].(float64)
			received[li.MaterialID] = prev + li.Quantity
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeOrder, EntityID: id, Action: entity.ActionDeliver,
			FromStatus: entity.OrderStatusPending, ToStatus: entity.OrderStatusDelivered,
			Content:  fmt.Sprintf("Delivery received by %s", actor.DisplayName()),
			Metadata: received,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("order delivered",
		zap.String("order_id", id),
		zap.Int("lines", len(po.LineItems)),
		zap.String("actor", actor.ID))
	s.notify(NotifySuccess, fmt.Sprintf("Order %s marked as delivered. Inventory updated.", id))
	return s.Get(ctx, id)
}

// transition 条件状态流转 + 操作日志，同一事务
func (s *OrderService) transition(ctx context.Context, id string, actor entity.Actor, action string, from []string, to string, fields map[string]interface{}, content string) error {
	po, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !containsStatus(from, po.Status) || !entity.CanTransitionOrder(po.Status, to) {
		return newError(ErrInvalidTransition, "order %s is %s; cannot %s", id, po.Status, action)
	}

	updates := map[string]interface{}{"status": to, "updated_at": s.now()}
	for k, v := range fields {
		updates[k] = v
	}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Order.TransitionStatus(ctx, id, []string{po.Status}, updates); err != nil {
			return storeErr(err, "order "+id)
		}
		return record(ctx, tx, actor, entity.ActivityLog{
			EntityType: entity.EntityTypeOrder, EntityID: id, Action: action,
			FromStatus: po.Status, ToStatus: to,
			Content: content,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("order status changed",
		zap.String("order_id", id),
		zap.String("from", po.Status),
		zap.String("to", to),
		zap.String("action", action),
		zap.String("actor", actor.ID))
	return nil
}

func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
