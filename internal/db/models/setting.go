package models

import "time"

// Setting is a named value kept by the application itself, e.g. the seed state.
type Setting struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:100;not null"`
	Value     []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Setting model.
func (Setting) TableName() string {
	return "settings"
}
