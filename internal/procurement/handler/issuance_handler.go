package handler

import (
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// IssuanceHandler 领料处理器
type IssuanceHandler struct {
	svc *service.IssuanceService
}

// GET /issuances?material_id=xxx&site=xxx
func (h *IssuanceHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"material_id": c.Query("material_id"),
		"site":        c.Query("site"),
	}
	items, total, err := h.svc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, paged(items, page, pageSize, total))
}

func (h *IssuanceHandler) Get(c *gin.Context) {
	iss, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, iss)
}

// Issue 领料出库
// POST /issuances
func (h *IssuanceHandler) Issue(c *gin.Context) {
	var req service.IssueInput
	if !bind(c, &req) {
		return
	}
	iss, err := h.svc.Issue(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, iss)
}
