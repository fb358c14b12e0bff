package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  http:
    port: 9090
    corsOrigins: ["https://app.example.com"]
auth:
  secret: "0123456789abcdef0123456789abcdef"
  tokenLifetime: 15m
  bcryptCost: 12
seed:
  admin:
    email: admin@ausyexpo.com
    password: admin123
db:
  driver: mysql
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_FileAndDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, c.App.HTTP.Port)
	assert.Equal(t, []string{"https://app.example.com"}, c.App.HTTP.CORSOrigins)
	assert.Equal(t, 15*time.Minute, c.Auth.TokenLifetime)
	assert.Equal(t, 12, c.Auth.BcryptCost)
	assert.Equal(t, 30*time.Second, c.Auth.Leeway)
	assert.Equal(t, "ausyexpo", c.Auth.Issuer)
	assert.Equal(t, "admin@ausyexpo.com", c.Seed.Admin.Email)
	assert.Equal(t, "System", c.Seed.Admin.FirstName)
	assert.Equal(t, "mysql", c.DB.Driver)
	assert.Equal(t, 10*time.Second, c.App.HTTP.RequestTimeout)
	assert.Equal(t, 5*time.Minute, c.Redis.TTL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("APP_AUTH_TOKENLIFETIME", "5m")
	t.Setenv("APP_REDIS_ADDR", "127.0.0.1:6379")

	c, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.Auth.TokenLifetime)
	assert.Equal(t, "127.0.0.1:6379", c.Redis.Addr)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("APP_AUTH_SECRET", "fedcba9876543210fedcba9876543210")

	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, c.Auth.TokenLifetime)
}

func TestValidate(t *testing.T) {
	_, err := Load(writeConfig(t, "auth:\n  secret: short\n"))
	assert.ErrorContains(t, err, "auth.secret")

	c := &Config{Auth: Auth{Secret: "0123456789abcdef0123456789abcdef"}}
	assert.ErrorContains(t, c.Validate(), "tokenLifetime")

	c.Auth.TokenLifetime = time.Minute
	c.Seed.Admin.Email = "admin@x.com"
	assert.ErrorContains(t, c.Validate(), "seed.admin.password")

	c.Seed.Admin.Password = "pw"
	assert.NoError(t, c.Validate())
}
