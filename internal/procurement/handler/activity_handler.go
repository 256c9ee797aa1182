package handler

import (
	"fmt"
	"time"

	"github.com/bitfantasy/designatore/internal/procurement/service"
	"github.com/bitfantasy/designatore/internal/shared/sse"
	"github.com/gin-gonic/gin"
)

// ActivityHandler 操作日志处理器
type ActivityHandler struct {
	svc *service.ActivityService
}

// GET /activity?entity_type=order&entity_id=PO-xxx
func (h *ActivityHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	items, total, err := h.svc.List(c.Request.Context(), c.Query("entity_type"), c.Query("entity_id"), page, pageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	Success(c, paged(items, page, pageSize, total))
}

// SSEHandler 通知事件流
type SSEHandler struct {
	hub *sse.Hub
}

// Stream handles the SSE endpoint
// GET /notifications/stream?token=xxx
func (h *SSEHandler) Stream(c *gin.Context) {
	userID := actorFromContext(c).ID
	clientID := fmt.Sprintf("%s_%d", userID, time.Now().UnixNano())

	client := h.hub.NewClient(clientID, userID)
	h.hub.Register(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	c.Writer.WriteString("event: connected\ndata: {\"client_id\":\"" + clientID + "\"}\n\n")
	c.Writer.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			h.hub.Unregister(clientID)
			return
		case event, ok := <-client.Events:
			if !ok {
				return
			}
			c.Writer.WriteString(fmt.Sprintf("event: %s\ndata: %s\n\n", event.EventType, event.Data))
			c.Writer.Flush()
		case <-heartbeat.C:
			c.Writer.WriteString(": keepalive\n\n")
			c.Writer.Flush()
		}
	}
}
