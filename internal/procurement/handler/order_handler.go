package handler

import (
	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// OrderHandler 采购订单处理器
type OrderHandler struct {
	svc *service.OrderService
}

// orderView 订单附带展示状态与含税总额
type orderView struct {
	*entity.PurchaseOrder
	DisplayStatus string          `json:"display_status"`
	Total         decimal.Decimal `json:"total"`
	WasRejected   bool            `json:"was_rejected"`
}

func viewOrder(po *entity.PurchaseOrder) orderView {
	return orderView{
		PurchaseOrder: po,
		DisplayStatus: po.DisplayStatus(),
		Total:         po.Total(),
		WasRejected:   po.WasRejected(),
	}
}

// List 订单列表
// GET /orders?status=xxx&vendor_id=xxx&raised_by_id=xxx&priority=xxx&intent_id=xxx
func (h *OrderHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":       c.Query("status"),
		"vendor_id":    c.Query("vendor_id"),
		"raised_by_id": c.Query("raised_by_id"),
		"priority":     c.Query("priority"),
		"intent_id":    c.Query("intent_id"),
	}

	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]orderView, len(items))
	for i := range items {
		views[i] = viewOrder(&items[i])
	}
	Success(c, paged(views, page, pageSize, total))
}

func (h *OrderHandler) Get(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewOrder(po))
}

// Create 创建订单，经理直接生效，采购待审批
// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req service.OrderInput
	if !bind(c, &req) {
		return
	}
	po, err := h.svc.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, viewOrder(po))
}

// PUT /orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	var req service.OrderInput
	if !bind(c, &req) {
		return
	}
	po, err := h.svc.Update(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewOrder(po))
}

// POST /orders/:id/approve
func (h *OrderHandler) Approve(c *gin.Context) {
	po, err := h.svc.Approve(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewOrder(po))
}

// POST /orders/:id/reject {"reason": "..."}
func (h *OrderHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if c.Request.ContentLength > 0 && !bind(c, &req) {
		return
	}
	po, err := h.svc.Reject(c.Request.Context(), c.Param("id"), req.Reason, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewOrder(po))
}

// Deliver 确认到货并入库
// POST /orders/:id/deliver
func (h *OrderHandler) Deliver(c *gin.Context) {
	po, err := h.svc.MarkDelivered(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewOrder(po))
}

// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	po, err := h.svc.Cancel(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewOrder(po))
}
