package entity

import "time"

// 采购意向状态
const (
	IntentStatusPending   = "Pending"
	IntentStatusApproved  = "Approved"
	IntentStatusRejected  = "Rejected"
	IntentStatusConverted = "Converted"
)

// ValidIntentTransitions 合法的意向状态流转，Rejected/Converted 为终态
var ValidIntentTransitions = map[string][]string{
	IntentStatusPending:  {IntentStatusApproved, IntentStatusRejected},
	IntentStatusApproved: {IntentStatusConverted},
}

// CanTransitionIntent 判断意向能否从 from 流转到 to
func CanTransitionIntent(from, to string) bool {
	for _, s := range ValidIntentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PurchaseIntent 采购意向（先提需求，经采购审核后转为订单）
type PurchaseIntent struct {
	ID              string     `json:"id" gorm:"primaryKey;size:64"`
	Notes           string     `json:"notes" gorm:"type:text"`
	RequestedBy     string     `json:"requested_by" gorm:"size:100;not null"`
	RequestedByID   string     `json:"requested_by_id" gorm:"size:64;index"`
	RequestedOn     time.Time  `json:"requested_on"`
	Status          string     `json:"status" gorm:"size:20;not null;index"`
	ReviewedBy      string     `json:"reviewed_by,omitempty" gorm:"size:100"`
	ReviewedOn      *time.Time `json:"reviewed_on,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	OrderID         *string    `json:"order_id,omitempty" gorm:"size:64"` // 转单后关联的订单
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	LineItems []IntentLineItem `json:"line_items" gorm:"foreignKey:IntentID"`
}

func (PurchaseIntent) TableName() string {
	return "purchase_intents"
}

// IntentLineItem 意向行项，不含价格
type IntentLineItem struct {
	ID         string  `json:"id" gorm:"primaryKey;size:64"`
	IntentID   string  `json:"intent_id" gorm:"size:64;not null;index"`
	MaterialID string  `json:"material_id" gorm:"size:64;not null;index"`
	Quantity   float64 `json:"quantity" gorm:"type:decimal(14,4);not null"`
	Unit       string  `json:"unit" gorm:"size:20;not null"`
	Site       string  `json:"site,omitempty" gorm:"size:200"`
	Notes      string  `json:"notes,omitempty" gorm:"type:text"`
	SortOrder  int     `json:"sort_order" gorm:"default:0"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (IntentLineItem) TableName() string {
	return "purchase_intent_line_items"
}
