package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "PERSISTENCE_DRIVER", "DB_DSN", "DB_HOST", "STATIC_DIR", "SHUTDOWN_TIMEOUT",
		"DB_PORT", "DB_USER", "DB_NAME", "DB_PASSWORD", "DB_PASSWORD_FILE", "DB_DSN_FILE", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Equal(t, "static", cfg.Server.StaticDir)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Persistence.Driver)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, "host=localhost port=5432 user=postgres password= dbname=todos sslmode=disable", cfg.Database.ConnString())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PERSISTENCE_DRIVER", "REDIS")
	t.Setenv("REDIS_ADDR", "cache:6379")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverRedis, cfg.Persistence.Driver)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, 5432, cfg.Database.Port, "invalid integers fall back to the default")
}

func TestLoad_SecretFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db_password")
	require.NoError(t, os.WriteFile(path, []byte("s3cret\n"), 0o600))

	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PASSWORD_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Password)
}

func TestLoad_MissingSecretFile(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("DB_PASSWORD_FILE", filepath.Join(t.TempDir(), "missing"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:      ServerConfig{Port: "3000"},
			Database:    DatabaseConfig{Host: "localhost"},
			Redis:       RedisConfig{Addr: "localhost:6379"},
			Persistence: PersistenceConfig{Driver: DriverPostgres},
		}
	}

	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		c := valid()
		c.Persistence.Driver = "sqlite"
		assert.Error(t, c.Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		c := valid()
		c.Server.Port = ""
		assert.Error(t, c.Validate())
	})

	t.Run("negative rate limit", func(t *testing.T) {
		c := valid()
		c.HTTP.RateLimitRPS = -1
		assert.Error(t, c.Validate())
	})
}

func TestServerAddr_HostPort(t *testing.T) {
	s := ServerConfig{Port: "127.0.0.1:3000"}
	assert.Equal(t, "127.0.0.1:3000", s.Addr())
}
