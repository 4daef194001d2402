// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	// EnvConfigJSON names the environment variable holding a JSON config override.
	EnvConfigJSON = "REFRACTORY_ERP_CONFIG_JSON"

	defaultShutDownTime   = 5
	defaultCheckAliveURI  = "/checkalive"
	defaultSessionExpiry  = 8 * time.Hour
	defaultAdminUsername  = "admin"
	defaultAdminEmail     = "admin@example.com"
	mainConfigFile        = "main.toml"
	dotEnvFile            = ".env"
	defaultConfigLocation = "./etc/"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = defaultConfigLocation
	}

	if _, err = toml.DecodeFile(path+mainConfigFile, &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// a .env next to main.toml may carry the json override
	if _, errStat := os.Stat(path + dotEnvFile); errStat == nil {
		if err = godotenv.Load(path + dotEnvFile); err != nil {
			return Config{}, errors.Wrap(err, "failed to read .env file")
		}
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config json override")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate minimal config settings and fill in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case GormEngineMySQL, GormEnginePostgres, GormEngineSQLite:
	case "":
		c.DB.GormEngine = GormEngineMySQL
	default:
		return errors.Wrap(ErrUnknownGormEngine, invalidErrMessage)
	}

	if c.DB.Name == "" {
		return errors.Wrap(ErrEmptyDBName, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.CheckAliveURI == "" {
		c.Webserver.CheckAliveURI = defaultCheckAliveURI
	}

	if c.Webserver.Session.ExpiryTime == 0 {
		c.Webserver.Session.ExpiryTime = defaultSessionExpiry
	}

	if c.Seed.AdminUsername == "" {
		c.Seed.AdminUsername = defaultAdminUsername
	}

	if c.Seed.AdminEmail == "" {
		c.Seed.AdminEmail = defaultAdminEmail
	}

	return nil
}
