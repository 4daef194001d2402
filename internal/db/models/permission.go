package models

import (
	"strings"
	"time"
)

const (
	// ActionCreate allows creating records of a module.
	ActionCreate = "create"
	// ActionRead allows listing and viewing records of a module.
	ActionRead = "read"
	// ActionUpdate allows changing records of a module.
	ActionUpdate = "update"
	// ActionDelete allows deleting records of a module.
	ActionDelete = "delete"
)

// Actions returns the fixed action vocabulary in display order.
func Actions() []string {
	return []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// Permission represents a single grant in module.action format.
// Module and Action are stored next to Name for ordering and grouping.
type Permission struct {
	// ID is the unique identifier for the permission.
	ID uint `gorm:"primaryKey" json:"id"`
	// Name is the unique permission identifier, e.g. "category.create".
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// Module is the part of Name before the dot.
	Module string `gorm:"size:100;not null;index" json:"module"`
	// Action is the part of Name after the dot.
	Action string `gorm:"size:50;not null" json:"action"`
	// Description provides a human-readable explanation of what this permission grants.
	Description string `gorm:"size:255" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Permission model.
func (Permission) TableName() string {
	return "permissions"
}

// PermissionName joins module and action.
func PermissionName(module, action string) string {
	return module + "." + action
}

// SplitPermissionName returns module and action of a permission name.
// ok is false if name has no dot.
func SplitPermissionName(name string) (module, action string, ok bool) {
	return strings.Cut(name, ".")
}
