package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultTablePrefix, cfg.TablePrefix)
	assert.Equal(t, DefaultLogTable, cfg.LogTable)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Error(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Setenv("DOBEE_DSN", "")
	t.Setenv("DOBEE_DB_PASSWORD", "")
	path := writeFile(t, `
database:
  host: db.internal
  user: shop
  password: secret
  name: shop
  params:
    charset: utf8mb4
model: model.yaml
log_table: audit_log
debug: true
slow_query_threshold: 250ms
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "model.yaml", cfg.Model)
	assert.Equal(t, DefaultTablePrefix, cfg.TablePrefix)
	assert.Equal(t, "audit_log", cfg.LogTable)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryThreshold)
	assert.Equal(t, "shop:secret@tcp(db.internal:3306)/shop?charset=utf8mb4", cfg.Database.FormatDSN())
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeFile(t, "database:\n  name: shop\n  user: shop\n")

	t.Setenv("DOBEE_DB_PASSWORD", "fromenv")
	t.Setenv("DOBEE_DSN", "")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Database.Password)
	assert.Equal(t, "shop:fromenv@tcp(localhost:3306)/shop", cfg.Database.FormatDSN())

	t.Setenv("DOBEE_DSN", "root@tcp(127.0.0.1:3307)/other")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "root@tcp(127.0.0.1:3307)/other", cfg.Database.FormatDSN())
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("DOBEE_DSN", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "database: [\n"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "database:\n  name: shop\ntable_prefix: \"\"\n"))
	assert.ErrorContains(t, err, "table_prefix")
}
