package models

import (
	"time"

	"gorm.io/gorm"
)

// CategoryType is the top level of the equipment taxonomy.
type CategoryType struct {
	// ID is the unique identifier for the category type.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the display name, e.g. "Refractories".
	Name string `gorm:"size:255;not null" json:"name"`
	// Slug is the URL-safe key derived from Name unless given. Unique across trashed rows too.
	Slug string `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	// Description is optional free text.
	Description *string `gorm:"size:1000" json:"description"`
	// Variant tells which kind of stock the type holds (equipment or scaffolding).
	Variant Variant `gorm:"type:varchar(20);not null" json:"variant"`
	// Status is active or inactive. Inactive types are hidden from select lists.
	Status Status `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	// Categories filed under this type.
	Categories []Category `gorm:"foreignKey:CategoryTypeID" json:"categories,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt is set while the type is in the trash.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the database table name for the CategoryType model.
func (CategoryType) TableName() string {
	return "category_types"
}

// Category belongs to a CategoryType and groups equipment items.
type Category struct {
	// ID is the unique identifier for the category.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the display name, e.g. "Fire Bricks".
	Name string `gorm:"size:255;not null" json:"name"`
	// Slug is the URL-safe key derived from Name unless given. Unique across trashed rows too.
	Slug string `gorm:"size:255;not null;uniqueIndex" json:"slug"`
	// Description is optional free text.
	Description *string `gorm:"size:1000" json:"description"`
	// CategoryTypeID points at the owning CategoryType.
	CategoryTypeID uint `gorm:"not null;index" json:"category_type_id"`
	// HSN is the Harmonized System of Nomenclature code used on invoices. Digits only.
	HSN *string `gorm:"column:hsn;size:20" json:"hsn"`
	// Status is active or inactive.
	Status Status `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	// SortOrder orders categories inside a type, lowest first.
	SortOrder int `gorm:"not null;default:0" json:"sort_order"`

	// CategoryType is the owning type, preloaded on reads.
	CategoryType *CategoryType `gorm:"foreignKey:CategoryTypeID" json:"category_type,omitempty"`
	// Equipment filed under this category.
	Equipment []Equipment `gorm:"foreignKey:CategoryID" json:"equipment,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt is set while the category is in the trash.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the database table name for the Category model.
func (Category) TableName() string {
	return "categories"
}
