package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "local", cfg.Owner)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "compare.db", cfg.Store.Path)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://api.firecrawl.dev/v1", cfg.Firecrawl.BaseURL)
	assert.InDelta(t, 2.0, cfg.Firecrawl.RatePerSecond, 0.001)
	assert.Equal(t, 60, cfg.Extract.CallTimeoutSecs)
	assert.Equal(t, 2, cfg.Extract.MaxAttempts)
	assert.Equal(t, 4, cfg.Run.MaxConcurrentPlatforms)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/basket
log:
  level: debug
  format: json
server:
  port: 9090
extract:
  call_timeout_secs: 30
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/basket", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Extract.CallTimeoutSecs)
	// Defaults still apply for unset values
	assert.Equal(t, 2, cfg.Extract.MaxAttempts)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BASKET_STORE_DRIVER", "postgres")
	t.Setenv("BASKET_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("BASKET_FIRECRAWL_KEY", "fc-test")
	t.Setenv("BASKET_SERVER_PORT", "3000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fc-test", cfg.Firecrawl.Key)
	assert.Equal(t, 3000, cfg.Server.Port)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.Store.Driver = "sqlite"
	cfg.Store.Path = "compare.db"
	cfg.Extract.CallTimeoutSecs = 60
	cfg.Extract.MaxAttempts = 2
	cfg.Run.MaxConcurrentPlatforms = 4
	cfg.Server.Port = 8080
	return cfg
}

func TestValidateCompare_KeyPresent(t *testing.T) {
	cfg := validDefaults()
	cfg.Firecrawl.Key = "fc-key"

	assert.NoError(t, cfg.Validate("compare"))
}

func TestValidateCompare_MissingKey(t *testing.T) {
	cfg := validDefaults()

	err := cfg.Validate("compare")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "firecrawl.key is required")
}

func TestValidatePostgres_RequiresURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "postgres"
	cfg.Store.DatabaseURL = ""

	err := cfg.Validate("local")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")

	cfg.Store.DatabaseURL = "postgres://localhost/basket"
	assert.NoError(t, cfg.Validate("local"))
}

func TestValidateUnknownDriver(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "mysql"

	err := cfg.Validate("local")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver must be sqlite or postgres")
}

func TestValidateServe_InvalidPort(t *testing.T) {
	cfg := validDefaults()
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidateUnknownMode(t *testing.T) {
	cfg := validDefaults()
	err := cfg.Validate("unknown")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidateBounds(t *testing.T) {
	cfg := validDefaults()

	cfg.Extract.MaxAttempts = 0
	err := cfg.Validate("local")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "extract.max_attempts must be between 1 and 5")

	cfg.Extract.MaxAttempts = 6
	err = cfg.Validate("local")
	assert.Error(t, err)

	cfg.Extract.MaxAttempts = 2
	cfg.Run.MaxConcurrentPlatforms = 0
	err = cfg.Validate("local")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "run.max_concurrent_platforms must be between 1 and 8")

	cfg.Run.MaxConcurrentPlatforms = 4
	assert.NoError(t, cfg.Validate("local"))
}
