package daemon

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/RefractoryERP/RefractoryERP/internal/auth"
	"github.com/RefractoryERP/RefractoryERP/internal/config"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/permission"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/role"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/setting"
	"github.com/RefractoryERP/RefractoryERP/internal/db/controller/user"
	"github.com/RefractoryERP/RefractoryERP/internal/db/models"
	"github.com/RefractoryERP/RefractoryERP/internal/uniuri"
)

const (
	// AdminRole is the system role granted every permission.
	AdminRole = "admin"
	// SeedSetting names the setting recording the last seed run.
	SeedSetting = "seed"

	seedVersion = 1
)

// SeedState is stored under SeedSetting after each run.
type SeedState struct {
	Version  int       `json:"version"`
	SeededAt time.Time `json:"seeded_at"`
	Admin    string    `json:"admin"`
}

// Seed creates the permissions of every module, the admin role holding all of them and
// the admin account. Running it again adds missing permissions and grants them to admin.
func Seed(cfg *config.Config, db *gorm.DB) (*SeedState, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	for _, module := range auth.Modules() {
		res, err := permission.CreateGroup(db, permission.GroupInput{Module: module, Actions: models.Actions()})
		if err != nil {
			return nil, fmt.Errorf("seed %s permissions: %w", module, err)
		}

		if len(res.Created) > 0 {
			log.Info().Str("module", module).Int("created", len(res.Created)).Msg("seeded permissions")
		}
	}

	adminRole, err := seedAdminRole(db)
	if err != nil {
		return nil, err
	}

	if err = seedAdminUser(cfg, db, adminRole); err != nil {
		return nil, err
	}

	state := SeedState{Version: seedVersion, SeededAt: time.Now().UTC(), Admin: cfg.Seed.AdminUsername}
	if err = setting.SaveJSON(db, SeedSetting, state); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &state, nil
}

func seedAdminRole(db *gorm.DB) (*models.Role, error) {
	r, err := role.GetByName(db, AdminRole)
	if errors.Is(err, role.ErrNotFound) {
		r, err = role.Create(db, role.CreateInput{Name: AdminRole, Description: "Full access to every module"})
		if err != nil {
			return nil, fmt.Errorf("seed admin role: %w", err)
		}

		if err = db.Model(&models.Role{}).Where("id = ?", r.ID).Update("is_system", true).Error; err != nil {
			return nil, fmt.Errorf("mark admin role as system: %w", err)
		}
	} else if err != nil {
		return nil, err //nolint:wrapcheck
	}

	var ids []uint
	if err = db.Model(&models.Permission{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list permission ids: %w", err)
	}

	r, err = role.AssignPermissions(db, role.AssignInput{RoleID: r.ID, PermissionIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("grant admin permissions: %w", err)
	}

	return r, nil
}

func seedAdminUser(cfg *config.Config, db *gorm.DB, adminRole *models.Role) error {
	_, err := user.GetByUsername(db, cfg.Seed.AdminUsername)
	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err //nolint:wrapcheck
	}

	password := cfg.Seed.AdminPassword
	generated := password == ""

	if generated {
		password = uniuri.NewLen(uniuri.StdLen)
	}

	_, err = user.Create(db, user.CreateInput{
		Username: cfg.Seed.AdminUsername,
		Email:    cfg.Seed.AdminEmail,
		Password: password,
		Roles:    []string{adminRole.Name},
	})
	if err != nil {
		return fmt.Errorf("seed admin user: %w", err)
	}

	ev := log.Warn().Str("username", cfg.Seed.AdminUsername)
	if generated {
		ev = ev.Str("password", password)
	}

	ev.Msg("admin account created, change the password after the first login")

	return nil
}
