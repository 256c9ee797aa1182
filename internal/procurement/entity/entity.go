package entity

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Models 全部业务表，按依赖顺序排列
func Models() []interface{} {
	return []interface{}{
		// 基础数据
		&Material{},
		&Vendor{},
		&Site{},

		// 库存
		&InventoryItem{},
		&MaterialIssuance{},

		// 采购
		&PurchaseOrder{},
		&OrderLineItem{},
		&PurchaseIntent{},
		&IntentLineItem{},
	}
}

// Migrations 版本化迁移列表，只追加不修改
func Migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "20261001_create_procurement_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(Models()...)
			},
			Rollback: func(tx *gorm.DB) error {
				models := Models()
				for i := len(models) - 1; i >= 0; i-- {
					if err := tx.Migrator().DropTable(models[i]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			ID: "20261008_add_activity_logs",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&ActivityLog{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable(&ActivityLog{})
			},
		},
	}
}

// Migrate 执行全部迁移
func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.Migrate()
}

// RollbackLast 回滚最近一次迁移
func RollbackLast(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, Migrations())
	return m.RollbackLast()
}
