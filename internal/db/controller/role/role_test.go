package role

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/db/testdb"
	"github.com/RefractoryERP/RefractoryERP/internal/validation"
)

func seedPermissions(t *testing.T, db *gorm.DB, names ...string) []uint {
	t.Helper()

	ids := make([]uint, 0, len(names))

	for _, name := range names {
		module, action, _ := models.SplitPermissionName(name)
		p := models.Permission{Name: name, Module: module, Action: action}
		require.NoError(t, db.Create(&p).Error)
		ids = append(ids, p.ID)
	}

	return ids
}

func permissionIDs(r *models.Role) []uint {
	out := make([]uint, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, p.ID)
	}

	return out
}

func TestCreate(t *testing.T) {
	db := testdb.New(t)
	ids := seedPermissions(t, db, "category.read", "category.create")

	r, err := Create(db, CreateInput{Name: "storekeeper", PermissionIDs: []uint{ids[0], ids[1], ids[0]}})
	require.NoError(t, err)
	assert.Equal(t, "storekeeper", r.Name)
	assert.ElementsMatch(t, ids, permissionIDs(r))

	_, err = Create(db, CreateInput{Name: "storekeeper"})
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Equal(t, "The name has already been taken.", errs["name"])

	_, err = Create(db, CreateInput{})
	errs, ok = validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "name")

	_, err = Create(db, CreateInput{Name: "auditor", PermissionIDs: []uint{999}})
	errs, ok = validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "permission_ids")

	// the failed create rolled back
	_, err = GetByName(db, "auditor")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Create(nil, CreateInput{Name: "x"})
	require.ErrorIs(t, err, ErrDBNil)
}

func TestAssignPermissionsReplaces(t *testing.T) {
	db := testdb.New(t)
	ids := seedPermissions(t, db, "posts.create", "posts.read", "posts.update")

	r, err := Create(db, CreateInput{Name: "editor"})
	require.NoError(t, err)

	testCases := []struct {
		name     string
		input    []uint
		expected []uint
	}{
		{name: "first assignment", input: []uint{ids[0], ids[1]}, expected: []uint{ids[0], ids[1]}},
		{name: "replaces not merges", input: []uint{ids[1], ids[2]}, expected: []uint{ids[1], ids[2]}},
		{name: "same set is idempotent", input: []uint{ids[2], ids[1]}, expected: []uint{ids[1], ids[2]}},
		{name: "duplicates collapse", input: []uint{ids[0], ids[0]}, expected: []uint{ids[0]}},
		{name: "empty clears", input: []uint{}, expected: []uint{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AssignPermissions(db, AssignInput{RoleID: r.ID, PermissionIDs: tc.input})
			require.NoError(t, err)
			assert.ElementsMatch(t, tc.expected, permissionIDs(got))

			var links int64
			require.NoError(t, db.Model(&models.RolePermission{}).Where("role_id = ?", r.ID).Count(&links).Error)
			assert.Equal(t, int64(len(tc.expected)), links)
		})
	}
}

func TestAssignPermissionsErrors(t *testing.T) {
	db := testdb.New(t)
	ids := seedPermissions(t, db, "posts.read")

	r, err := Create(db, CreateInput{Name: "editor", PermissionIDs: ids})
	require.NoError(t, err)

	_, err = AssignPermissions(db, AssignInput{RoleID: 999, PermissionIDs: ids})
	require.ErrorIs(t, err, ErrNotFound)

	// unknown permission leaves the set untouched
	_, err = AssignPermissions(db, AssignInput{RoleID: r.ID, PermissionIDs: []uint{ids[0], 42}})
	_, ok := validation.AsErrors(err)
	require.True(t, ok)

	got, err := GetByID(db, r.ID)
	require.NoError(t, err)
	assert.Equal(t, ids, permissionIDs(got))

	_, err = AssignPermissions(db, AssignInput{})
	errs, ok := validation.AsErrors(err)
	require.True(t, ok)
	assert.Contains(t, errs, "role_id")
}

func TestDelete(t *testing.T) {
	db := testdb.New(t)
	ids := seedPermissions(t, db, "posts.read")

	r, err := Create(db, CreateInput{Name: "editor", PermissionIDs: ids})
	require.NoError(t, err)

	u := models.User{Username: "alice", Active: true}
	require.NoError(t, db.Create(&u).Error)
	require.NoError(t, db.Create(&models.UserRole{UserID: u.ID, RoleID: r.ID}).Error)

	require.NoError(t, Delete(db, r.ID))

	var links int64
	require.NoError(t, db.Model(&models.RolePermission{}).Count(&links).Error)
	assert.Zero(t, links)
	require.NoError(t, db.Model(&models.UserRole{}).Count(&links).Error)
	assert.Zero(t, links)

	require.ErrorIs(t, Delete(db, r.ID), ErrNotFound)

	admin := models.Role{Name: "admin", IsSystem: true}
	require.NoError(t, db.Create(&admin).Error)
	require.ErrorIs(t, Delete(db, admin.ID), ErrSystemRole)
}

func TestList(t *testing.T) {
	db := testdb.New(t)
	ids := seedPermissions(t, db, "posts.update", "posts.read")

	_, err := Create(db, CreateInput{Name: "viewer", PermissionIDs: ids[1:]})
	require.NoError(t, err)
	_, err = Create(db, CreateInput{Name: "editor", PermissionIDs: ids})
	require.NoError(t, err)

	roles, err := List(db)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, "editor", roles[0].Name)
	require.Len(t, roles[0].Permissions, 2)
	assert.Equal(t, "posts.read", roles[0].Permissions[0].Name)
	assert.Equal(t, "viewer", roles[1].Name)
}
