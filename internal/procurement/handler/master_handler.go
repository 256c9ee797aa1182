package handler

import (
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// MasterHandler 主数据处理器：材料、供应商、项目地点
type MasterHandler struct {
	svc *service.MasterService
}

// GET /materials?search=xxx
func (h *MasterHandler) ListMaterials(c *gin.Context) {
	items, err := h.svc.ListMaterials(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, ListResponse{Items: items})
}

func (h *MasterHandler) GetMaterial(c *gin.Context) {
	m, err := h.svc.GetMaterial(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, m)
}

func (h *MasterHandler) CreateMaterial(c *gin.Context) {
	var req service.MaterialInput
	if !bind(c, &req) {
		return
	}
	m, err := h.svc.CreateMaterial(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, m)
}

func (h *MasterHandler) UpdateMaterial(c *gin.Context) {
	var req service.MaterialInput
	if !bind(c, &req) {
		return
	}
	m, err := h.svc.UpdateMaterial(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, m)
}

func (h *MasterHandler) DeleteMaterial(c *gin.Context) {
	if err := h.svc.DeleteMaterial(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// BulkMaterials 批量导入材料，已存在的名称跳过
// POST /materials/bulk
func (h *MasterHandler) BulkMaterials(c *gin.Context) {
	var req struct {
		Items []service.BulkMaterialInput `json:"items"`
	}
	if !bind(c, &req) {
		return
	}
	created, err := h.svc.AddBulkMaterials(c.Request.Context(), req.Items, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, ListResponse{Items: created})
}

func (h *MasterHandler) ListVendors(c *gin.Context) {
	items, err := h.svc.ListVendors(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, ListResponse{Items: items})
}

func (h *MasterHandler) GetVendor(c *gin.Context) {
	v, err := h.svc.GetVendor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, v)
}

func (h *MasterHandler) CreateVendor(c *gin.Context) {
	var req service.NameInput
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.CreateVendor(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, v)
}

func (h *MasterHandler) UpdateVendor(c *gin.Context) {
	var req service.NameInput
	if !bind(c, &req) {
		return
	}
	v, err := h.svc.UpdateVendor(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, v)
}

func (h *MasterHandler) DeleteVendor(c *gin.Context) {
	if err := h.svc.DeleteVendor(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

func (h *MasterHandler) BulkVendors(c *gin.Context) {
	var req struct {
		Items []service.NameInput `json:"items"`
	}
	if !bind(c, &req) {
		return
	}
	created, err := h.svc.AddBulkVendors(c.Request.Context(), req.Items, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, ListResponse{Items: created})
}

func (h *MasterHandler) ListSites(c *gin.Context) {
	items, err := h.svc.ListSites(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, ListResponse{Items: items})
}

func (h *MasterHandler) GetSite(c *gin.Context) {
	s, err := h.svc.GetSite(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, s)
}

func (h *MasterHandler) CreateSite(c *gin.Context) {
	var req service.NameInput
	if !bind(c, &req) {
		return
	}
	s, err := h.svc.CreateSite(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, s)
}

func (h *MasterHandler) UpdateSite(c *gin.Context) {
	var req service.NameInput
	if !bind(c, &req) {
		return
	}
	s, err := h.svc.UpdateSite(c.Request.Context(), c.Param("id"), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, s)
}

func (h *MasterHandler) DeleteSite(c *gin.Context) {
	if err := h.svc.DeleteSite(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

func (h *MasterHandler) BulkSites(c *gin.Context) {
	var req struct {
		Items []service.NameInput `json:"items"`
	}
	if !bind(c, &req) {
		return
	}
	created, err := h.svc.AddBulkSites(c.Request.Context(), req.Items, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Created(c, ListResponse{Items: created})
}
