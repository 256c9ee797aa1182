package entity

import (
	"time"

	"gorm.io/datatypes"
)

// 日志实体类型
const (
	EntityTypeOrder     = "order"
	EntityTypeIntent    = "intent"
	EntityTypeInventory = "inventory"
	EntityTypeIssuance  = "issuance"
	EntityTypeMaterial  = "material"
	EntityTypeVendor    = "vendor"
	EntityTypeSite      = "site"
)

// 日志动作
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionApprove  = "approve"
	ActionReject   = "reject"
	ActionCancel   = "cancel"
	ActionDeliver  = "deliver"
	ActionConvert  = "convert"
	ActionIssue    = "issue"
	ActionStockSet = "stock_set"
)

// ActivityLog 操作日志，只追加
type ActivityLog struct {
	ID         string `json:"id" gorm:"primaryKey;size:64"`
	EntityType string `json:"entity_type" gorm:"size:50;not null;index:idx_activity_entity"`
	EntityID   string `json:"entity_id" gorm:"size:64;not null;index:idx_activity_entity"`

	Action     string `json:"action" gorm:"size:50;not null"`
	FromStatus string `json:"from_status" gorm:"size:20"`
	ToStatus   string `json:"to_status" gorm:"size:20"`

	Content  string            `json:"content" gorm:"type:text"`
	Metadata datatypes.JSONMap `json:"metadata,omitempty"`

	OperatorID   string    `json:"operator_id" gorm:"size:64"`
	OperatorName string    `json:"operator_name" gorm:"size:100"`
	CreatedAt    time.Time `json:"created_at"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
