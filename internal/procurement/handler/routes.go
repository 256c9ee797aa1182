package handler

import (
	"github.com/bitfantasy/designatore/internal/middleware"
	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes 注册采购相关路由，group 需已挂载认证中间件
func (h *Handlers) RegisterRoutes(r *gin.RouterGroup) {
	r.Use(middleware.RequireRole(entity.RoleManager, entity.RolePurchaser, entity.RoleInventoryManager))

	materials := r.Group("/materials")
	{
		materials.GET("", h.Master.ListMaterials)
		materials.POST("", h.Master.CreateMaterial)
		materials.POST("/bulk", h.Master.BulkMaterials)
		materials.GET("/:id", h.Master.GetMaterial)
		materials.PUT("/:id", h.Master.UpdateMaterial)
		materials.DELETE("/:id", h.Master.DeleteMaterial)
	}

	vendors := r.Group("/vendors")
	{
		vendors.GET("", h.Master.ListVendors)
		vendors.POST("", h.Master.CreateVendor)
		vendors.POST("/bulk", h.Master.BulkVendors)
		vendors.GET("/:id", h.Master.GetVendor)
		vendors.PUT("/:id", h.Master.UpdateVendor)
		vendors.DELETE("/:id", h.Master.DeleteVendor)
	}

	sites := r.Group("/sites")
	{
		sites.GET("", h.Master.ListSites)
		sites.POST("", h.Master.CreateSite)
		sites.POST("/bulk", h.Master.BulkSites)
		sites.GET("/:id", h.Master.GetSite)
		sites.PUT("/:id", h.Master.UpdateSite)
		sites.DELETE("/:id", h.Master.DeleteSite)
	}

	inventory := r.Group("/inventory")
	{
		inventory.GET("", h.Inventory.List)
		inventory.POST("/opening-stock", h.Inventory.OpeningStock)
		inventory.POST("/bulk", h.Inventory.BulkStock)
		inventory.GET("/:material_id", h.Inventory.Get)
		inventory.PUT("/:material_id", h.Inventory.Update)
		inventory.GET("/:material_id/reorder-draft", h.Inventory.ReorderDraft)
	}

	orders := r.Group("/orders")
	{
		orders.GET("", h.Order.List)
		orders.POST("", h.Order.Create)
		orders.GET("/:id", h.Order.Get)
		orders.PUT("/:id", h.Order.Update)
		orders.POST("/:id/approve", h.Order.Approve)
		orders.POST("/:id/reject", h.Order.Reject)
		orders.POST("/:id/deliver", h.Order.Deliver)
		orders.POST("/:id/cancel", h.Order.Cancel)
	}

	intents := r.Group("/intents")
	{
		intents.GET("", h.Intent.List)
		intents.POST("", h.Intent.Raise)
		intents.GET("/:id", h.Intent.Get)
		intents.POST("/:id/approve", h.Intent.Approve)
		intents.POST("/:id/reject", h.Intent.Reject)
		intents.POST("/:id/convert", h.Intent.Convert)
	}

	issuances := r.Group("/issuances")
	{
		issuances.GET("", h.Issuance.List)
		issuances.POST("", h.Issuance.Issue)
		issuances.GET("/:id", h.Issuance.Get)
	}

	r.GET("/activity", h.Activity.List)

	if h.SSE != nil {
		r.GET("/notifications/stream", h.SSE.Stream)
	}
}
