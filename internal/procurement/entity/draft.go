package entity

import "github.com/shopspring/decimal"

// OrderDraft 预填的订单草稿，不落库
// 来源：采购意向转单、低库存补货建议
type OrderDraft struct {
	VendorID      string          `json:"vendor_id,omitempty"`
	Priority      string          `json:"priority,omitempty"`
	Notes         string          `json:"notes"`
	IntentID      *string         `json:"intent_id,omitempty"`
	AutoGenerated bool            `json:"auto_generated"`
	LineItems     []DraftLineItem `json:"line_items"`
}

// DraftLineItem 草稿行项，价格字段由采购补全
type DraftLineItem struct {
	MaterialID     string          `json:"material_id"`
	Quantity       float64         `json:"quantity"`
	Unit           string          `json:"unit"`
	Site           string          `json:"site,omitempty"`
	Specifications string          `json:"specifications"`
	Rate           decimal.Decimal `json:"rate"`
	GST            decimal.Decimal `json:"gst"`
}
