package entity

import "time"

// MaterialIssuance 领料记录，创建后不可修改
type MaterialIssuance struct {
	ID           string    `json:"id" gorm:"primaryKey;size:64"`
	MaterialID   string    `json:"material_id" gorm:"size:64;not null;index"`
	Quantity     float64   `json:"quantity" gorm:"type:decimal(14,4);not null"`
	Unit         string    `json:"unit" gorm:"size:20;not null"`
	IssuedToSite string    `json:"issued_to_site" gorm:"size:200;not null;index"`
	IssuedBy     string    `json:"issued_by" gorm:"size:100;not null"`
	IssuedByID   string    `json:"issued_by_id" gorm:"size:64"`
	IssuedOn     time.Time `json:"issued_on"`
	Notes        string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`

	Material *Material `json:"material,omitempty" gorm:"foreignKey:MaterialID"`
}

func (MaterialIssuance) TableName() string {
	return "material_issuances"
}
