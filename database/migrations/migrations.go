// Package migrations lists the schema changes of the storefront in the order
// they apply.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/app/models"
	"github.com/shashiranjanraj/pehnawa/pkg/migration"
	"github.com/shashiranjanraj/pehnawa/pkg/queue"
)

// Sales reports range over orders by creation time.
const ordersCreatedAt = "idx_orders_created_at"

// All returns every migration. The runner sorts them by name.
func All() []migration.Migration {
	return []migration.Migration{
		create("20260101000000_create_users_table", &models.User{}),
		create("20260101000100_create_categories_table", &models.Category{}),
		create("20260101000200_create_products_tables",
			&models.Product{}, &models.Variant{}, &models.ProductImage{}),
		create("20260101000300_create_collections_tables", &models.Collection{}),
		create("20260101000400_create_carts_tables", &models.Cart{}, &models.CartItem{}),
		create("20260101000500_create_orders_tables", &models.Order{}, &models.OrderItem{}),
		create("20260101000600_create_failed_jobs_table", &queue.FailedJob{}),
		{
			Name: "20260101000700_index_orders_created_at",
			Up: func(tx *gorm.DB) error {
				if tx.Migrator().HasIndex(&models.Order{}, ordersCreatedAt) {
					return nil
				}
				return tx.Exec("CREATE INDEX " + ordersCreatedAt + " ON orders (created_at)").Error
			},
			Down: func(tx *gorm.DB) error {
				return tx.Migrator().DropIndex(&models.Order{}, ordersCreatedAt)
			},
		},
	}
}

// create migrates the tables of ms on Up and drops them in reverse on Down.
// Many-to-many join tables are dropped with their owning model.
func create(name string, ms ...interface{}) migration.Migration {
	return migration.Migration{
		Name: name,
		Up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(ms...)
		},
		Down: func(tx *gorm.DB) error {
			for i := len(ms) - 1; i >= 0; i-- {
				if err := dropJoinTables(tx, ms[i]); err != nil {
					return err
				}
				if err := tx.Migrator().DropTable(ms[i]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func dropJoinTables(tx *gorm.DB, m interface{}) error {
	if _, ok := m.(*models.Collection); ok {
		return tx.Migrator().DropTable("product_collections")
	}
	return nil
}
