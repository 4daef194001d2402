// Package categorytype manages the top level of the equipment taxonomy.
package categorytype

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

const auditEntity = "category_type"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrNotFound is returned when no live category type has the requested id.
	ErrNotFound = errors.New("category type not found")
	// ErrHasCategories is returned when deleting a category type that still has live categories.
	ErrHasCategories = errors.New("category type has categories")
)

// Input is the create and update payload.
type Input struct {
	Name        string         `json:"name" form:"name" validate:"required,max=255"`
	Slug        string         `json:"slug" form:"slug" validate:"omitempty,max=255"`
	Description *string        `json:"description" form:"description" validate:"omitempty,max=1000"`
	Variant     models.Variant `json:"variant" form:"variant" validate:"required,oneof=equipment scaffolding"`
	Status      models.Status  `json:"status" form:"status" validate:"omitempty,oneof=active inactive"`
}

// List returns one page of category types ordered by name.
func List(db *gorm.DB, q crud.Query) (*crud.Page[models.CategoryType], error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return crud.Find[models.CategoryType](db, q, "name, id")
}

// Active returns all active category types ordered by name, e.g. for select boxes.
func Active(db *gorm.DB) ([]models.CategoryType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var types []models.CategoryType
	if err := db.Where("status = ?", models.StatusActive).Order("name").Find(&types).Error; err != nil {
		return nil, fmt.Errorf("list active category types: %w", err)
	}

	return types, nil
}

// GetByID returns a live category type.
func GetByID(db *gorm.DB, id uint) (*models.CategoryType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var ct models.CategoryType
	if err := db.First(&ct, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("get category type: %w", err)
	}

	return &ct, nil
}

// Create validates in and stores a new category type. Status defaults to active.
func Create(db *gorm.DB, in Input) (*models.CategoryType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	ct := models.CategoryType{}
	if err := apply(db, &ct, in); err != nil {
		return nil, err
	}

	if err := db.Create(&ct).Error; err != nil {
		return nil, fmt.Errorf("create category type: %w", err)
	}

	logger.AuditEvent(auditEntity, "create").Uint("id", ct.ID).Str("slug", ct.Slug).Msg("category type created")

	return &ct, nil
}

// Update revalidates the full record and stores it.
func Update(db *gorm.DB, id uint, in Input) (*models.CategoryType, error) {
	ct, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	if err = apply(db, ct, in); err != nil {
		return nil, err
	}

	if err = db.Save(ct).Error; err != nil {
		return nil, fmt.Errorf("update category type: %w", err)
	}

	logger.AuditEvent(auditEntity, "update").Uint("id", ct.ID).Str("slug", ct.Slug).Msg("category type updated")

	return ct, nil
}

// Delete soft deletes a category type without live categories.
func Delete(db *gorm.DB, id uint) error {
	if db == nil {
		return ErrDBNil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		ct, err := GetByID(tx, id)
		if err != nil {
			return err
		}

		var categories int64
		if err = tx.Model(&models.Category{}).Where("category_type_id = ?", ct.ID).Count(&categories).Error; err != nil {
			return fmt.Errorf("count categories: %w", err)
		}

		if categories > 0 {
			return fmt.Errorf("%w: %d left", ErrHasCategories, categories)
		}

		if err = tx.Delete(ct).Error; err != nil {
			return fmt.Errorf("delete category type: %w", err)
		}

		return nil
	})
	if err != nil {
		return err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "delete").Uint("id", id).Msg("category type deleted")

	return nil
}

// Restore brings back a soft deleted category type. Restoring a live one is a no-op.
func Restore(db *gorm.DB, id uint) (*models.CategoryType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	ct, err := crud.Restore[models.CategoryType](db, id)
	if err != nil {
		if crud.IsNotFound(err) {
			return nil, ErrNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	logger.AuditEvent(auditEntity, "restore").Uint("id", id).Msg("category type restored")

	return ct, nil
}

// SetStatus sets the status of a category type. A nil status toggles it.
func SetStatus(db *gorm.DB, id uint, status *models.Status) (*models.CategoryType, error) {
	ct, err := GetByID(db, id)
	if err != nil {
		return nil, err
	}

	next := ct.Status.Toggle()
	if status != nil {
		if !status.Valid() {
			return nil, validation.Field("status", validation.Invalid("status"))
		}

		next = *status
	}

	if err = db.Model(ct).Update("status", next).Error; err != nil {
		return nil, fmt.Errorf("update category type status: %w", err)
	}

	ct.Status = next

	logger.AuditEvent(auditEntity, "status").Uint("id", id).Str("status", string(next)).Msg("category type status changed")

	return ct, nil
}

func apply(db *gorm.DB, ct *models.CategoryType, in Input) error {
	in.Name = strings.TrimSpace(in.Name)

	if err := validation.Struct(in); err != nil {
		return err //nolint:wrapcheck
	}

	slug, err := crud.ResolveSlug(db, &models.CategoryType{}, in.Slug, in.Name, ct.ID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	ct.Name = in.Name
	ct.Slug = slug
	ct.Description = crud.NullIfBlank(in.Description)
	ct.Variant = in.Variant

	switch {
	case in.Status != "":
		ct.Status = in.Status
	case ct.Status == "":
		ct.Status = models.StatusActive
	}

	return nil
}
