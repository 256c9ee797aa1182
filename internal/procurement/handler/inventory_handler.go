package handler

import (
	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// InventoryHandler 库存台账处理器
type InventoryHandler struct {
	svc *service.InventoryService
}

// inventoryView 台账行附带低库存标记
type inventoryView struct {
	entity.InventoryItem
	LowStock bool `json:"low_stock"`
}

func viewInventory(item entity.InventoryItem) inventoryView {
	return inventoryView{InventoryItem: item, LowStock: item.IsLowStock()}
}

// List 台账列表
// GET /inventory?low_stock=true
func (h *InventoryHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), c.Query("low_stock") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]inventoryView, len(items))
	for i := range items {
		views[i] = viewInventory(items[i])
	}
	Success(c, ListResponse{Items: views})
}

// GET /inventory/:material_id
func (h *InventoryHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("material_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewInventory(*item))
}

// Update 修改补货点或单位
// PUT /inventory/:material_id
func (h *InventoryHandler) Update(c *gin.Context) {
	var req service.UpdateInventoryRequest
	if !bind(c, &req) {
		return
	}
	item, err := h.svc.UpdateInventoryItem(c.Request.Context(), c.Param("material_id"), req, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, viewInventory(*item))
}

// OpeningStock 期初盘点
// POST /inventory/opening-stock
func (h *InventoryHandler) OpeningStock(c *gin.Context) {
	var req service.OpeningStockRequest
	if !bind(c, &req) {
		return
	}
	if err := h.svc.SetOpeningStock(c.Request.Context(), req, actorFromContext(c)); err != nil {
		respondError(c, err)
		return
	}
	Success(c, nil)
}

// BulkStock 按名称批量导入库存
// POST /inventory/bulk
func (h *InventoryHandler) BulkStock(c *gin.Context) {
	var req struct {
		Items []service.BulkStockInput `json:"items"`
	}
	if !bind(c, &req) {
		return
	}
	n, err := h.svc.AddBulkStock(c.Request.Context(), req.Items, actorFromContext(c))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, gin.H{"processed": n})
}

// ReorderDraft 低库存补货订单草稿
// GET /inventory/:material_id/reorder-draft
func (h *InventoryHandler) ReorderDraft(c *gin.Context) {
	draft, err := h.svc.LowStockDraft(c.Request.Context(), c.Param("material_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, draft)
}
