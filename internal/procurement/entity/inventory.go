package entity

import "time"

// DefaultThreshold 新建库存记录的默认补货点
const DefaultThreshold = 10

// InventoryItem 库存台账，每个物料一条
type InventoryItem struct {
	MaterialID string    `json:"material_id" gorm:"primaryKey;size:64"`
	Quantity   float64   `json:"quantity" gorm:"type:decimal(14,4);not null;check:chk_inventory_quantity,quantity >= 0"`
	Threshold  float64   `json:"threshold" gorm:"type:decimal(14,4);not null"`
	Unit       string    `json:"unit" gorm:"size:20;not null"`
	UpdatedAt  time.Time `json:"updated_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

// IsLowStock 库存不高于补货点即视为低库存
func (i InventoryItem) IsLowStock() bool {
	return i.Quantity <= i.Threshold
}

// SuggestedReorderQty 低库存时建议的补货数量
func (i InventoryItem) SuggestedReorderQty(factor float64) float64 {
	if factor <= 0 {
		factor = 2
	}
	return i.Threshold * factor
}
