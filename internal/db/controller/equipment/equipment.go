// Package equipment manages stock items filed under categories.
package equipment

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/crud"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/logger"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

const auditEntity = "equipment"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNotFound is returned when no live item has the requested id.
	ErrNotFound = errors.New("equipment not found")
	// ErrParentTrashed is returned when restoring an item whose category is deleted.
	ErrParentTrashed = errors.New("category of this item is deleted")

	// maxUnitPrice fits decimal(12,2).
	maxUnitPrice = decimal.New(1, 10) //nolint:mnd,gochecknoglobals
)

// Input is the create and update payload.
type Input struct {
	Name        string          `json:"name" form:"name" validate:"required,max=255"`
	Code        string          `json:"code" form:"code" validate:"required,max=100"`
	CategoryID  uint            `json:"category_id" form:"category_id" validate:"required"`
	Description *string         `json:"description" form:"description" validate:"omitempty,max=1000"`
	UnitPrice   decimal.Decimal `json:"unit_price" form:"unit_price"`
	Quantity    int             `json:"quantity" form:"quantity" validate:"gte=0"`
	Status      models.Status   `json:"status" form:"status" validate:"omitempty,oneof=active inactive"`
}

// Query extends the listing parameters with a category filter.
type Query struct {
	crud.Query

	CategoryID uint `query:"category_id"`
}

// List returns one page of equipment ordered by name, with the category.
// Search matches name and code.
func List(db *gorm.DB, q Query) (*crud.Page[models.Equipment], error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if q.CategoryID != 0 {
		db = db.Where("category_id = ?", q.CategoryID)
	}

	q.SearchIn = []string{"name", "code"}

	return crud.Find[models.Equipment](db, q.Query, "name, id", "Category")
}

// GetByID returns a live item with its category.
func GetByID(db *gorm.DB, id uint) (*models.Equipment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var e models.Equipment
	if err := db.Preload("Category").First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get equipment: %w", err)
	}

	return &e, nil
}

// Create validates in and stores a new item.
func Create(db *gorm.DB, in Input) (*models.Equipment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	e := models.Equipment{}
	if err := apply(db, &e, in); err != nil {
		return nil, err
	}

	if err := db.Omit("Category").Create(&e).Error; err != nil {
		return nil, fmt.Errorf("create equipment: %w", err)
	}

	logger.AuditEvent(auditEntity, "create").Uint("id", e.ID).Str("code", e.Code).Msg("equipment created")

	return GetByID(db, e.ID)
}

// Update revalidates the full record and stores it.
func Update(db *gorm.DB, id uint, in Input) (*models.Equipment, error) {
	e, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	if err = apply(db, e, in); err != nil {
		return nil, err
	}

	e.Category = nil

	if err = db.Omit("Category").Save(e).Error; err != nil {
		return nil, fmt.Errorf("update equipment: %w", err)
	}

	logger.AuditEvent(auditEntity, "update").Uint("id", e.ID).Str("code", e.Code).Msg("equipment updated")

	return GetByID(db, id)
}

// Delete soft deletes an item.
func Delete(db *gorm.DB, id uint) error {
	e, err := GetByID(db, id)
	if err != nil {
		return err
	}

	if err = db.Delete(&models.Equipment{}, e.ID).Error; err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}

	logger.AuditEvent(auditEntity, "delete").Uint("id", id).Msg("equipment deleted")

	return nil
}

// Restore brings back a soft deleted item. Its category must be live.
func Restore(db *gorm.DB, id uint) (*models.Equipment, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var trashed models.Equipment
	if err := db.Unscoped().First(&trashed, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get equipment: %w", err)
	}

	var categories int64
	if err := db.Model(&models.Category{}).Where("id = ?", trashed.CategoryID).Count(&categories).Error; err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}

	if categories == 0 {
		return nil, ErrParentTrashed
	}

	if _, err := crud.Restore[models.Equipment](db, id); err != nil {
		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "restore").Uint("id", id).Msg("equipment restored")

	return GetByID(db, id)
}

// SetStatus sets the status of an item. A nil status toggles it.
func SetStatus(db *gorm.DB, id uint, status *models.Status) (*models.Equipment, error) {
	e, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	next := e.Status.Toggle()
	if status != nil {
		if !status.Valid() {
			return nil, validation.Field("status", validation.Invalid("status"))
		}

		next = *status
	}

	if err = db.Model(&models.Equipment{}).Where("id = ?", e.ID).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("update equipment status: %w", err)
	}

	e.Status = next

	logger.AuditEvent(auditEntity, "status").Uint("id", id).Str("status", string(next)).Msg("equipment status changed")

	return e, nil
}

func apply(db *gorm.DB, e *models.Equipment, in Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Code = strings.TrimSpace(in.Code)

	if err := validation.Struct(in); err != nil {
		return err //nolint:wrapcheck
	}

	errs := validation.Errors{}

	if in.UnitPrice.IsNegative() {
		errs.Add("unit_price", "The unit price field must be at least 0.")
	}

	if in.UnitPrice.GreaterThanOrEqual(maxUnitPrice) {
		errs.Add("unit_price", "The unit price field must be less than 10000000000.")
	}

	var categories int64
	if err := db.Model(&models.Category{}).Where("id = ?", in.CategoryID).Count(&categories).Error; err != nil {
		return fmt.Errorf("check category: %w", err)
	}

	if categories == 0 {
		errs.Add("category_id", validation.Invalid("category_id"))
	}

	var taken int64

	q := db.Unscoped().Model(&models.Equipment{}).Where("code = ?", in.Code)
	if e.ID != 0 {
		q = q.Where("id <> ?", e.ID)
	}

	if err := q.Count(&taken).Error; err != nil {
		return fmt.Errorf("check equipment code: %w", err)
	}

	if taken > 0 {
		errs.Add("code", validation.Taken("code"))
	}

	if err := errs.OrNil(); err != nil {
		return err
	}

	e.Name = in.Name
	e.Code = in.Code
	e.CategoryID = in.CategoryID
	e.Description = crud.NullIfBlank(in.Description)
	e.UnitPrice = in.UnitPrice.Round(2) //nolint:mnd
	e.Quantity = in.Quantity

	switch {
	case in.Status != "":
		e.Status = in.Status
	case e.Status == "":
		e.Status = models.StatusActive
	}

	return nil
}
