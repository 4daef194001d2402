package categorytype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/crud"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/db/testdb"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

func TestCreate(t *testing.T) {
	db := testdb.New(t)

	blank := "   "

	ct, err := Create(db, Input{Name: "Fire Bricks", Variant: models.VariantEquipment, Description: &blank})
	require.NoError(t, err)
	assert.Equal(t, "fire-bricks", ct.Slug)
	assert.Equal(t, models.StatusActive, ct.Status)
	assert.Nil(t, ct.Description)

	testCases := []struct {
		name   string
		input  Input
		fields []string
	}{
		{
			name:   "slug taken",
			input:  Input{Name: "Other", Slug: "fire-bricks", Variant: models.VariantEquipment},
			fields: []string{"slug"},
		},
		{
			name:   "derived slug taken",
			input:  Input{Name: "Fire  Bricks!", Variant: models.VariantEquipment},
			fields: []string{"slug"},
		},
		{
			name:   "missing name and variant",
			input:  Input{},
			fields: []string{"name", "variant"},
		},
		{
			name:   "unknown variant and status",
			input:  Input{Name: "Mortar", Variant: "tools", Status: "archived"},
			fields: []string{"variant", "status"},
		},
		{
			name:   "bad slug",
			input:  Input{Name: "Mortar", Slug: "Mortar Mix", Variant: models.VariantScaffolding},
			fields: []string{"slug"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Create(db, tc.input)
			errs, ok := validation.AsErrors(err)
			require.True(t, ok, "expected validation error, got %v", err)

			for _, field := range tc.fields {
				assert.Contains(t, errs, field)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	db := testdb.New(t)

	ct, err := Create(db, Input{Name: "Fire Bricks", Variant: models.VariantEquipment, Status: models.StatusInactive})
	require.NoError(t, err)

	_, err = Create(db, Input{Name: "Castables", Variant: models.VariantEquipment})
	require.NoError(t, err)

	// keeping the own slug is fine
	updated, err := Update(db, ct.ID, Input{Name: "Fire Bricks HD", Slug: "fire-bricks", Variant: models.VariantScaffolding})
	require.NoError(t, err)
	assert.Equal(t, "Fire Bricks HD", updated.Name)
	assert.Equal(t, models.VariantScaffolding, updated.Variant)
	assert.Equal(t, models.StatusInactive, updated.Status, "status kept when not sent")

	_, err = Update(db, ct.ID, Input{Name: "x", Slug: "castables", Variant: models.VariantEquipment})
	_, ok := validation.AsErrors(err)
	assert.True(t, ok)

	_, err = Update(db, 999, Input{Name: "x", Variant: models.VariantEquipment})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRefusedWithCategories(t *testing.T) {
	db := testdb.New(t)

	ct, err := Create(db, Input{Name: "Fire Bricks", Variant: models.VariantEquipment})
	require.NoError(t, err)

	cat := models.Category{Name: "Alumina", Slug: "alumina", CategoryTypeID: ct.ID, Status: models.StatusActive}
	require.NoError(t, db.Create(&cat).Error)

	err = Delete(db, ct.ID)
	require.ErrorIs(t, err, ErrHasCategories)

	// unchanged
	still, err := GetByID(db, ct.ID)
	require.NoError(t, err)
	assert.False(t, still.DeletedAt.Valid)

	// trashed categories do not block
	require.NoError(t, db.Delete(&cat).Error)
	require.NoError(t, Delete(db, ct.ID))

	_, err = GetByID(db, ct.ID)
	require.ErrorIs(t, err, ErrNotFound)

	require.ErrorIs(t, Delete(db, ct.ID), ErrNotFound)
}

func TestRestore(t *testing.T) {
	db := testdb.New(t)

	ct, err := Create(db, Input{Name: "Fire Bricks", Variant: models.VariantEquipment})
	require.NoError(t, err)
	require.NoError(t, Delete(db, ct.ID))

	page, err := List(db, crud.Query{})
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	restored, err := Restore(db, ct.ID)
	require.NoError(t, err)
	assert.False(t, restored.DeletedAt.Valid)

	page, err = List(db, crud.Query{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, ct.ID, page.Data[0].ID)

	_, err = Restore(db, 999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetStatus(t *testing.T) {
	db := testdb.New(t)

	ct, err := Create(db, Input{Name: "Fire Bricks", Variant: models.VariantEquipment})
	require.NoError(t, err)

	got, err := SetStatus(db, ct.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.Status)

	active := models.StatusActive
	got, err = SetStatus(db, ct.ID, &active)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)

	types, err := Active(db)
	require.NoError(t, err)
	assert.Len(t, types, 1)

	bogus := models.Status("archived")
	_, err = SetStatus(db, ct.ID, &bogus)
	_, ok := validation.AsErrors(err)
	assert.True(t, ok)
}
