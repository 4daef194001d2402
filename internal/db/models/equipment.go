package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Equipment is a stock item filed under a Category.
type Equipment struct {
	// ID is the unique identifier for the item.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the display name, e.g. "Swivel clamp".
	Name string `gorm:"size:255;not null" json:"name"`
	// Code is the unique stock code printed on labels.
	Code string `gorm:"size:100;not null;uniqueIndex" json:"code"`
	// CategoryID points at the owning Category.
	CategoryID uint `gorm:"not null;index" json:"category_id"`
	// Description is optional free text.
	Description *string `gorm:"size:1000" json:"description"`
	// UnitPrice is rounded to two places and never negative.
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`
	// Quantity on hand.
	Quantity int `gorm:"not null;default:0" json:"quantity"`
	// Status is active or inactive.
	Status Status `gorm:"type:varchar(20);not null;default:'active'" json:"status"`

	// Category is the owning category, preloaded on reads.
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt is set while the item is in the trash.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName specifies the database table name for the Equipment model.
func (Equipment) TableName() string {
	return "equipment"
}
