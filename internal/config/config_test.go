package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectConfigPath(t *testing.T) string {
	t.Helper()

	// Get the project root by going up from internal/config
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("failed to get project root: %v", err)
	}

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(projectConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	if cfg.Title == "" {
		t.Error("Config.Title should not be empty")
	}

	if cfg.Webserver.Port == 0 {
		t.Error("Webserver.Port should not be 0")
	}

	if cfg.Webserver.URL == "" {
		t.Error("Webserver.URL should not be empty")
	}

	if cfg.DB.Host == "" {
		t.Error("DB.Host should not be empty")
	}

	assert.Equal(t, GormEngineMySQL, cfg.DB.GormEngine)
	assert.Equal(t, 8*time.Hour, cfg.Webserver.Session.ExpiryTime)
	assert.Equal(t, "/checkalive", cfg.Webserver.CheckAliveURI)
	assert.Equal(t, "info", cfg.Log.LogLevel)
	assert.True(t, cfg.Log.Console.Enabled)
	assert.False(t, cfg.Auth.OIDC.Enabled)
	assert.Equal(t, "groups", cfg.Auth.OIDC.GroupsClaim)
	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.Auth.OIDC.Scopes)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name: "valid config",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				DB:        DB{Name: "erp"},
			},
		},
		{
			name: "missing port",
			config: Config{
				Webserver: Webserver{Port: 0, URL: "http://localhost:8080"},
				DB:        DB{Name: "erp"},
			},
			wantErr: ErrWebServerPortCanNotBeZero,
		},
		{
			name: "missing URL",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: ""},
				DB:        DB{Name: "erp"},
			},
			wantErr: ErrEmptyURL,
		},
		{
			name: "unknown engine",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				DB:        DB{Name: "erp", GormEngine: "oracle"},
			},
			wantErr: ErrUnknownGormEngine,
		},
		{
			name: "missing db name",
			config: Config{
				Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
				DB:        DB{GormEngine: GormEngineSQLite},
			},
			wantErr: ErrEmptyDBName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(&tt.config)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	cfg := Config{
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080"},
		DB:        DB{Name: "erp"},
	}

	require.NoError(t, validate(&cfg))

	assert.Equal(t, GormEngineMySQL, cfg.DB.GormEngine)
	assert.Equal(t, 5, cfg.Webserver.ShutDownTime)
	assert.Equal(t, "/checkalive", cfg.Webserver.CheckAliveURI)
	assert.Equal(t, 8*time.Hour, cfg.Webserver.Session.ExpiryTime)
	assert.Equal(t, "admin", cfg.Seed.AdminUsername)
	assert.Equal(t, "admin@example.com", cfg.Seed.AdminEmail)
}

func TestReadConfigWithJSONOverride(t *testing.T) {
	jsonOverride := `{"Title":"Test Override","Webserver":{"Port":9090},"DB":{"GormEngine":"sqlite"}}`
	t.Setenv(EnvConfigJSON, jsonOverride)

	cfg, err := ReadConfig(projectConfigPath(t))
	if err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}

	assert.Equal(t, "Test Override", cfg.Title)
	assert.Equal(t, 9090, cfg.Webserver.Port)
	assert.Equal(t, GormEngineSQLite, cfg.DB.GormEngine)
	// untouched values survive the merge
	assert.Equal(t, "refractory_erp", cfg.DB.Name)
}

func TestReadConfigWithDotEnv(t *testing.T) {
	dir := t.TempDir() + string(filepath.Separator)

	mainToml := `
Title = "From Disk"
[Webserver]
Port = 8081
URL = "http://localhost:8081"
[DB]
GormEngine = "sqlite"
Name = "erp.db"
`
	require.NoError(t, os.WriteFile(dir+"main.toml", []byte(mainToml), 0o600))
	require.NoError(t, os.WriteFile(dir+".env", []byte(EnvConfigJSON+`='{"Title":"From DotEnv"}'`+"\n"), 0o600))

	// make sure the variable is restored and unset for godotenv to apply it
	t.Setenv(EnvConfigJSON, "")
	require.NoError(t, os.Unsetenv(EnvConfigJSON))

	cfg, err := ReadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "From DotEnv", cfg.Title)
	assert.Equal(t, 8081, cfg.Webserver.Port)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir() + string(filepath.Separator))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read main config file")
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	tomlStr, err := DumpConfig(&cfg)
	if err != nil {
		t.Fatalf("DumpConfig() error = %v", err)
	}

	if !strings.Contains(tomlStr, "Test") {
		t.Error("DumpConfig() output should contain Title")
	}
}

func TestDumpConfigJSON(t *testing.T) {
	cfg := Config{
		Title:   "Test",
		DevMode: true,
		Webserver: Webserver{
			Port: 8080,
			URL:  "http://localhost:8080",
		},
	}

	jsonStr, err := DumpConfigJSON(&cfg)
	if err != nil {
		t.Fatalf("DumpConfigJSON() error = %v", err)
	}

	if !strings.Contains(jsonStr, "Test") {
		t.Error("DumpConfigJSON() output should contain Title")
	}
}
