package handler

import (
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// IntentHandler 采购意向处理器
type IntentHandler struct {
	svc *service.IntentService
}

// GET /intents?status=xxx&requested_by_id=xxx
func (h *IntentHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":          c.Query("status"),
		"requested_by_id": c.Query("requested_by_id"),
	}
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, paged(items, page, pageSize, total))
}

func (h *IntentHandler) Get(c *gin.Context) {
	intent, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, intent)
}

// Raise 提交采购意向
// POST /intents
func (h *IntentHandler) Raise(c *gin.Context) {
	var req service.IntentInput
	if !bind(c, &req) {
		return
	}
	intent, err := h.svc.Raise(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, intent)
}

func (h *IntentHandler) Approve(c *gin.Context) {
	intent, err := h.svc.Approve(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, intent)
}

func (h *IntentHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	if !bind(c, &req) {
		return
	}
	intent, err := h.svc.Reject(c.Request.Context(), c.Param("id"), req.Reason, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, intent)
}

// Convert 生成订单草稿，意向在订单创建时才转为 Converted
// POST /intents/:id/convert
func (h *IntentHandler) Convert(c *gin.Context) {
	draft, err := h.svc.ConvertToOrderDraft(c.Request.Context(), c.Param("id"), actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, draft)
}
