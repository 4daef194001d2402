// Package crud holds listing, slug and restore helpers shared by the soft deletable controllers.
package crud

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/slug"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

const (
	// DefaultPageSize is used when no page size was requested.
	DefaultPageSize = 25
	// MaxPageSize caps the requested page size.
	MaxPageSize = 100

	// TrashedWith lists live and soft deleted rows.
	TrashedWith = "with"
	// TrashedOnly lists soft deleted rows only.
	TrashedOnly = "only"
)

// likeEscaper makes % and _ in a search term literal. '!' needs no quoting
// in MySQL, PostgreSQL or SQLite string literals.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_") //nolint:gochecknoglobals

// Query carries the listing parameters of an index request.
type Query struct {
	Page     int    `query:"page"`
	PageSize int    `query:"pageSize"`
	Search   string `query:"search"`
	Status   string `query:"status"`
	Trashed  string `query:"trashed"`

	// SearchIn lists the columns Search matches. Default: name and slug.
	SearchIn []string `query:"-"`
}

// Page is one page of a listing.
type Page[T any] struct {
	Data     []T   `json:"data"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	LastPage int   `json:"last_page"`
}

// Normalize clamps paging values and drops unknown filters.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}

	switch {
	case q.PageSize < 1:
		q.PageSize = DefaultPageSize
	case q.PageSize > MaxPageSize:
		q.PageSize = MaxPageSize
	}

	if !models.Status(q.Status).Valid() {
		q.Status = ""
	}

	if q.Trashed != TrashedWith && q.Trashed != TrashedOnly {
		q.Trashed = ""
	}

	q.Search = strings.TrimSpace(q.Search)

	return q
}

// Apply adds the trashed, status and search filters of q to db.
func (q Query) Apply(db *gorm.DB) *gorm.DB {
	switch q.Trashed {
	case TrashedWith:
		db = db.Unscoped()
	case TrashedOnly:
		db = db.Unscoped().Where("deleted_at IS NOT NULL")
	}

	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}

	if q.Search != "" {
		columns := q.SearchIn
		if len(columns) == 0 {
			columns = []string{"name", "slug"}
		}

		like := "%" + likeEscaper.Replace(q.Search) + "%"
		conds := make([]string, 0, len(columns))
		args := make([]any, 0, len(columns))

		for _, column := range columns {
			conds = append(conds, column+" LIKE ? ESCAPE '!'")
			args = append(args, like)
		}

		db = db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	return db
}

// Find runs a paginated listing of T ordered by orderBy.
// db may already carry extra conditions. preloads only apply to the row query.
func Find[T any](db *gorm.DB, q Query, orderBy string, preloads ...string) (*Page[T], error) {
	q = q.Normalize()

	var (
		total int64
		rows  []T
	)

	scoped := q.Apply(db.Model(new(T)))

	if err := scoped.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count: %w", err)
	}

	rowQuery := scoped.Session(&gorm.Session{})
	for _, p := range preloads {
		rowQuery = rowQuery.Preload(p)
	}

	err := rowQuery.
		Order(orderBy).
		Offset((q.Page - 1) * q.PageSize).
		Limit(q.PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}

	lastPage := int((total + int64(q.PageSize) - 1) / int64(q.PageSize))
	if lastPage < 1 {
		lastPage = 1
	}

	return &Page[T]{
		Data:     rows,
		Total:    total,
		Page:     q.Page,
		PageSize: q.PageSize,
		LastPage: lastPage,
	}, nil
}

// ResolveSlug returns the requested slug or, if blank, one derived from name.
// Uniqueness is checked against live and soft deleted rows of model, except exceptID.
func ResolveSlug(db *gorm.DB, model any, requested, name string, exceptID uint) (string, error) {
	s := strings.TrimSpace(requested)
	if s == "" {
		s = slug.Make(name)
	}

	if s == "" {
		return "", validation.Field("slug", "The slug field is required.")
	}

	if !validation.Slug(s) {
		return "", validation.Field("slug", "The slug field format is invalid.")
	}

	var count int64

	q := db.Unscoped().Model(model).Where("slug = ?", s)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}

	if err := q.Count(&count).Error; err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}

	if count > 0 {
		return "", validation.Field("slug", validation.Taken("slug"))
	}

	return s, nil
}

// Restore clears the soft delete flag of the T with id.
// Restoring a live row succeeds without a change. gorm.ErrRecordNotFound is
// returned if the id never existed.
func Restore[T any](db *gorm.DB, id uint) (*T, error) {
	var row T

	if err := db.Unscoped().First(&row, id).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	err := db.Unscoped().Model(&row).Where("id = ? AND deleted_at IS NOT NULL", id).
		Update("deleted_at", nil).Error
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	if err = db.First(&row, id).Error; err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}

	return &row, nil
}

// NullIfBlank maps a blank optional text to nil.
func NullIfBlank(s *string) *string {
	if s == nil {
		return nil
	}

	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}

	return &trimmed
}

// IsNotFound reports whether err is gorm's record not found.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
