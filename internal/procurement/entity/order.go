package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// 采购订单状态
const (
	OrderStatusAwaitingApproval = "AwaitingApproval" // 采购员下单，待经理审批
	OrderStatusPending          = "Pending"          // 已生效，待到货
	OrderStatusDelivered        = "Delivered"        // 已到货入库
	OrderStatusCancelled        = "Cancelled"        // 已取消或被驳回
)

// 优先级
const (
	PriorityUrgent = "Urgent"
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// DisplayAutoGenerated 低库存自动生成且待到货的订单展示状态
const DisplayAutoGenerated = "Auto-Generated"

// DefaultGST 未指定时的税率（%）
var DefaultGST = decimal.NewFromInt(18)

// ValidOrderTransitions 合法的订单状态流转
var ValidOrderTransitions = map[string][]string{
	OrderStatusAwaitingApproval: {OrderStatusPending, OrderStatusCancelled},
	OrderStatusPending:          {OrderStatusDelivered, OrderStatusCancelled},
}

// ValidPriorities 合法的优先级
var ValidPriorities = []string{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// CanTransitionOrder 判断订单能否从 from 流转到 to
func CanTransitionOrder(from, to string) bool {
	for _, s := range ValidOrderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminalOrderStatus 已到货的订单不可再修改；已取消的订单仅允许下单人重新提交
func IsTerminalOrderStatus(status string) bool {
	return status == OrderStatusDelivered || status == OrderStatusCancelled
}

// PurchaseOrder 采购订单
type PurchaseOrder struct {
	ID               string     `json:"id" gorm:"primaryKey;size:64"`
	VendorID         string     `json:"vendor_id" gorm:"size:64;not null;index"`
	Notes            string     `json:"notes" gorm:"type:text"`
	Priority         string     `json:"priority" gorm:"size:20;not null"`
	Status           string     `json:"status" gorm:"size:20;not null;index"`
	OrderedOn        time.Time  `json:"ordered_on"`
	ExpectedDelivery *time.Time `json:"expected_delivery"`
	DeliveredOn      *time.Time `json:"delivered_on,omitempty"`
	RaisedBy         string     `json:"raised_by" gorm:"size:100;not null"`
	RaisedByID       string     `json:"raised_by_id" gorm:"size:64;index"`
	AutoGenerated    bool       `json:"auto_generated"`
	IntentID         *string    `json:"intent_id,omitempty" gorm:"size:64;index"`

	// 审批
	ApprovedBy      string     `json:"approved_by,omitempty" gorm:"size:100"`
	ApprovedOn      *time.Time `json:"approved_on,omitempty"`
	RejectedBy      string     `json:"rejected_by,omitempty" gorm:"size:100"`
	RejectedOn      *time.Time `json:"rejected_on,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	CancelledBy     string     `json:"cancelled_by,omitempty" gorm:"size:100"`
	CancelledOn     *time.Time `json:"cancelled_on,omitempty"`

	// 收货
	ReceivedBy string `json:"received_by,omitempty" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 关联
	LineItems []OrderLineItem `json:"line_items" gorm:"foreignKey:OrderID"`
	Vendor    *Vendor         `json:"vendor,omitempty" gorm:"foreignKey:VendorID"`
}

func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// DisplayStatus 列表展示用状态
func (o *PurchaseOrder) DisplayStatus() string {
	if o.AutoGenerated && o.Status == OrderStatusPending {
		return DisplayAutoGenerated
	}
	return o.Status
}

// WasRejected 区分经理驳回与普通取消
func (o *PurchaseOrder) WasRejected() bool {
	return o.Status == OrderStatusCancelled && o.RejectedOn != nil
}

// Total 订单含税总额
func (o *PurchaseOrder) Total() decimal.Decimal {
	total := decimal.Zero
	for i := range o.LineItems {
		total = total.Add(o.LineItems[i].Total())
	}
	return total.Round(2)
}

// OrderLineItem 订单行项
type OrderLineItem struct {
	ID             string          `json:"id" gorm:"primaryKey;size:64"`
	OrderID        string          `json:"order_id" gorm:"size:64;not null;index"`
	MaterialID     string          `json:"material_id" gorm:"size:64;not null;index"`
	Quantity       float64         `json:"quantity" gorm:"type:decimal(14,4);not null"`
	Unit           string          `json:"unit" gorm:"size:20;not null"`
	Specifications string          `json:"specifications" gorm:"type:text"`
	Size           string          `json:"size,omitempty" gorm:"size:100"`
	Brand          string          `json:"brand,omitempty" gorm:"size:100"`
	Site           string          `json:"site,omitempty" gorm:"size:200;index"`
	Rate           decimal.Decimal `json:"rate" gorm:"type:decimal(14,2);not null"`
	Discount       decimal.Decimal `json:"discount" gorm:"type:decimal(6,2);not null"`
	GST            decimal.Decimal `json:"gst" gorm:"column:gst;type:decimal(6,2);not null"`
	Freight        decimal.Decimal `json:"freight" gorm:"type:decimal(14,2);not null"`
	SortOrder      int             `json:"sort_order" gorm:"default:0"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (OrderLineItem) TableName() string {
	return "order_line_items"
}

var hundred = decimal.NewFromInt(100)

// Total 行项金额 = 数量*单价*(1-折扣%)*(1+GST%)+运费
func (li *OrderLineItem) Total() decimal.Decimal {
	qty := decimal.NewFromFloat(li.Quantity)
	discounted := decimal.NewFromInt(1).Sub(li.Discount.Div(hundred))
	taxed := decimal.NewFromInt(1).Add(li.GST.Div(hundred))
	return qty.Mul(li.Rate).Mul(discounted).Mul(taxed).Add(li.Freight)
}
