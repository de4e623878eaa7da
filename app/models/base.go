// Package models holds the GORM entities of the storefront.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Base carries the primary key and timestamps with JSON names matching the
// rest of the API.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// All lists every model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Collection{},
		&Product{},
		&Variant{},
		&ProductImage{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
	}
}
