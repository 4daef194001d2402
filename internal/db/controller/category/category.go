// Package category manages equipment categories below a category type.
package category

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/crud"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/logger"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

const auditEntity = "category"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNotFound is returned when no live category has the requested id.
	ErrNotFound = errors.New("category not found")
	// ErrHasEquipment is returned when deleting a category that still has live equipment.
	ErrHasEquipment = errors.New("category has equipment")
	// ErrParentTrashed is returned when restoring a category whose type is deleted.
	ErrParentTrashed = errors.New("category type of this category is deleted")
)

// Input is the create and update payload.
type Input struct {
	Name           string        `json:"name" form:"name" validate:"required,max=255"`
	Slug           string        `json:"slug" form:"slug" validate:"omitempty,max=255"`
	Description    *string       `json:"description" form:"description" validate:"omitempty,max=1000"`
	CategoryTypeID uint          `json:"category_type_id" form:"category_type_id" validate:"required"`
	HSN            *string       `json:"hsn" form:"hsn" validate:"omitempty,max=20,number"`
	Status         models.Status `json:"status" form:"status" validate:"omitempty,oneof=active inactive"`
	SortOrder      int           `json:"sort_order" form:"sort_order" validate:"gte=0"`
}

// Query extends the listing parameters with a category type filter.
type Query struct {
	crud.Query

	CategoryTypeID uint `query:"category_type_id"`
}

// List returns one page of categories ordered by sort order and name, with their type.
func List(db *gorm.DB, q Query) (*crud.Page[models.Category], error) {
	if db == nil {
		return nil, ErrDBNil
	}

	if q.CategoryTypeID != 0 {
		db = db.Where("category_type_id = ?", q.CategoryTypeID)
	}

	return crud.Find[models.Category](db, q.Query, "sort_order, name, id", "CategoryType")
}

// GetByID returns a live category with its type.
func GetByID(db *gorm.DB, id uint) (*models.Category, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var c models.Category
	if err := db.Preload("CategoryType").First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get category: %w", err)
	}

	return &c, nil
}

// Create validates in and stores a new category. Status defaults to active.
func Create(db *gorm.DB, in Input) (*models.Category, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	c := models.Category{}
	if err := apply(db, &c, in); err != nil {
		return nil, err
	}

	if err := db.Omit("CategoryType").Create(&c).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}

	logger.AuditEvent(auditEntity, "create").Uint("id", c.ID).Str("slug", c.Slug).Msg("category created")

	return GetByID(db, c.ID)
}

// Update revalidates the full record and stores it.
func Update(db *gorm.DB, id uint, in Input) (*models.Category, error) {
	c, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	if err = apply(db, c, in); err != nil {
		return nil, err
	}

	c.CategoryType = nil

	if err = db.Omit("CategoryType").Save(c).Error; err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}

	logger.AuditEvent(auditEntity, "update").Uint("id", c.ID).Str("slug", c.Slug).Msg("category updated")

	return GetByID(db, id)
}

// Delete soft deletes a category without live equipment.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var c models.Category
		if err := tx.First(&c, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("get category: %w", err)
		}

		var equipment int64
		if err := tx.Model(&models.Equipment{}).Where("category_id = ?", c.ID).Count(&equipment).Error; err != nil {
			return fmt.Errorf("count equipment: %w", err)
		}

		if equipment > 0 {
			return fmt.Errorf("%w: %d left", ErrHasEquipment, equipment)
		}

		if err := tx.Delete(&c).Error; err != nil {
			return fmt.Errorf("delete category: %w", err)
		}

		return nil
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "delete").Uint("id", id).Msg("category deleted")

	return nil
}

// Restore brings back a soft deleted category. Restoring a live one is a no-op.
// A category whose type is deleted can not be restored.
func Restore(db *gorm.DB, id uint) (*models.Category, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var trashed models.Category
	if err := db.Unscoped().First(&trashed, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get category: %w", err)
	}

	var types int64
	if err := db.Model(&models.CategoryType{}).Where("id = ?", trashed.CategoryTypeID).Count(&types).Error; err != nil {
		return nil, fmt.Errorf("check category type: %w", err)
	}

	if types == 0 {
		return nil, ErrParentTrashed
	}

	if _, err := crud.Restore[models.Category](db, id); err != nil {
		if crud.IsNotFound(err) {
			return nil, ErrNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "restore").Uint("id", id).Msg("category restored")

	return GetByID(db, id)
}

// SetStatus sets the status of a category. A nil status toggles it.
func SetStatus(db *gorm.DB, id uint, status *models.Status) (*models.Category, error) {
	c, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	next := c.Status.Toggle()
	if status != nil {
		if !status.Valid() {
			return nil, validation.Field("status", validation.Invalid("status"))
		}

		next = *status
	}

	if err = db.Model(&models.Category{}).Where("id = ?", c.ID).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("update category status: %w", err)
	}

	c.Status = next

	logger.AuditEvent(auditEntity, "status").Uint("id", id).Str("status", string(next)).Msg("category status changed")

	return c, nil
}

func apply(db *gorm.DB, c *models.Category, in Input) error {
	in.Name = strings.TrimSpace(in.Name)
	in.HSN = crud.NullIfBlank(in.HSN)

	if err := validation.Struct(in); err != nil {
		return err //nolint:wrapcheck
	}

	errs := validation.Errors{}

	var types int64
	if err := db.Model(&models.CategoryType{}).Where("id = ?", in.CategoryTypeID).Count(&types).Error; err != nil {
		return fmt.Errorf("check category type: %w", err)
	}

	if types == 0 {
		errs.Add("category_type_id", validation.Invalid("category_type_id"))
	}

	slug, err := crud.ResolveSlug(db, &models.Category{}, in.Slug, in.Name, c.ID)
	if err != nil {
		slugErrs, ok := validation.AsErrors(err)
		if !ok {
			return err //nolint:wrapcheck
		}

		for field, msg := range slugErrs {
			errs.Add(field, msg)
		}
	}

	if err = errs.OrNil(); err != nil {
		return err
	}

	c.Name = in.Name
	c.Slug = slug
	c.Description = crud.NullIfBlank(in.Description)
	c.CategoryTypeID = in.CategoryTypeID
	c.HSN = crud.NullIfBlank(in.HSN)
	c.SortOrder = in.SortOrder

	switch {
	case in.Status != "":
		c.Status = in.Status
	case c.Status == "":
		c.Status = models.StatusActive
	}

	return nil
}
