package models

type Category struct {
	Base
	Name        string `gorm:"size:100;not null" json:"name"`
	Slug        string `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Description string `gorm:"size:500" json:"description"`
	Image       string `gorm:"size:500" json:"image"`
	ParentID    *uint  `gorm:"index" json:"parentId"`
	IsActive    bool   `gorm:"not null;default:true" json:"isActive"`
	SortOrder   int    `gorm:"not null;default:0" json:"sortOrder"`

	ProductCount int64 `gorm:"-" json:"productCount"`
}

type Collection struct {
	Base
	Name        string    `gorm:"size:100;not null" json:"name"`
	Slug        string    `gorm:"size:120;not null;uniqueIndex" json:"slug"`
	Description string    `gorm:"size:500" json:"description"`
	Image       string    `gorm:"size:500" json:"image"`
	IsActive    bool      `gorm:"not null;default:true" json:"isActive"`
	Products    []Product `gorm:"many2many:product_collections" json:"products,omitempty"`
}
