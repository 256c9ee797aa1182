package handler

import (
	"errors"
	"strconv"

	"github.com/bitfantasy/designatore/internal/middleware"
	"github.com/bitfantasy/designatore/internal/procurement/entity"
	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/bitfantasy/designatore/internal/shared/sse"
	"github.com/gin-gonic/gin"
)

// Handlers 采购处理器集合
type Handlers struct {
	Master    *MasterHandler
	Inventory *InventoryHandler
	Order     *OrderHandler
	Intent    *IntentHandler
	Issuance  *IssuanceHandler
	Activity  *ActivityHandler
	SSE       *SSEHandler
}

// NewHandlers 创建处理器集合，hub 为空时不注册事件流
func NewHandlers(svc *service.Services, hub *sse.Hub) *Handlers {
	h := &Handlers{
		Master:    &MasterHandler{svc: svc.Master},
		Inventory: &InventoryHandler{svc: svc.Inventory},
		Order:     &OrderHandler{svc: svc.Order},
		Intent:    &IntentHandler{svc: svc.Intent},
		Issuance:  &IssuanceHandler{svc: svc.Issuance},
		Activity:  &ActivityHandler{svc: svc.Activity},
	}
	if hub != nil {
		h.SSE = &SSEHandler{hub: hub}
	}
	return h
}

// === 响应辅助函数 ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// 错误码
const (
	CodeValidation           = 40000
	CodeForbidden            = 40300
	CodeNotFound             = 40400
	CodeInvalidTransition    = 40900
	CodeReferentialIntegrity = 40901
	CodeInsufficientStock    = 42200
	CodeInternal             = 50000
)

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, CodeValidation, message)
}

// respondError 按错误分类映射响应码
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		Error(c, CodeValidation, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Error(c, CodeForbidden, err.Error())
	case errors.Is(err, service.ErrNotFound):
		Error(c, CodeNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		Error(c, CodeInvalidTransition, err.Error())
	case errors.Is(err, service.ErrReferentialIntegrity):
		Error(c, CodeReferentialIntegrity, err.Error())
	case errors.Is(err, service.ErrInsufficientStock):
		Error(c, CodeInsufficientStock, err.Error())
	default:
		// 持久化细节不外泄
		c.Error(err)
		Error(c, CodeInternal, "internal error, please retry")
	}
}

// actorFromContext 从认证中间件写入的上下文取操作人
func actorFromContext(c *gin.Context) entity.Actor {
	return entity.Actor{
		ID:   c.GetString(middleware.CtxUserID),
		Name: c.GetString(middleware.CtxUserName),
		Role: c.GetString(middleware.CtxRole),
	}
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func paged(items interface{}, page, pageSize int, total int64) ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}

// bind 解析请求体，失败时直接返回 400
func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}
