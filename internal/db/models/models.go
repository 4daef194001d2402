// Package models contains database model definitions.
package models

import "slices"

// Status is the lifecycle flag shared by the equipment taxonomy and items.
// It is independent of soft deletion.
type Status string

const (
	// StatusActive marks a record as in use.
	StatusActive Status = "active"
	// StatusInactive marks a record as retired but kept.
	StatusInactive Status = "inactive"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Toggle flips active and inactive.
func (s Status) Toggle() Status {
	if s == StatusActive {
		return StatusInactive
	}

	return StatusActive
}

// Variant groups category types by what kind of stock they describe.
type Variant string

const (
	// VariantEquipment is regular plant equipment.
	VariantEquipment Variant = "equipment"
	// VariantScaffolding is scaffolding material.
	VariantScaffolding Variant = "scaffolding"
)

// Variants lists all known variants.
func Variants() []Variant {
	return []Variant{VariantEquipment, VariantScaffolding}
}

// Valid reports whether v is a known variant.
func (v Variant) Valid() bool {
	return slices.Contains(Variants(), v)
}

// All returns every model in migration order.
func All() []any {
	return []any{
		&Permission{},
		&Role{},
		&User{},
		&CategoryType{},
		&Category{},
		&Equipment{},
		&Setting{},
	}
}
