package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airagroup/dobee/internal/testmodel"
)

func writeModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testmodel.YAML), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", "--model", writeModel(t))
	require.NoError(t, err)
	assert.Contains(t, out, "10 entities")
	assert.Contains(t, out, "order (dobee_order) [loggable, soft-deletable, blameable updatedBy]")
	assert.Contains(t, out, "dog (dobee_dog) [extends animal, loggable]")
	assert.Contains(t, out, "  id int pk\n")
	assert.Contains(t, out, "  link dobee_order_mtm_tag (order_id, tag_id)")
	assert.Contains(t, out, "  link dobee_tag_mtm_tag (master_tag_id, slave_tag_id)")
}

func TestCheckConfig(t *testing.T) {
	dir := t.TempDir()
	model := writeModel(t)
	cfg := filepath.Join(dir, "dobee.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("model: "+model+"\ntable_prefix: shop\ndatabase:\n  name: shop\n"), 0o600))

	out, err := execute(t, "check", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "order (shop_order)")

	_, err = execute(t, "check", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSQL(t *testing.T) {
	model := writeModel(t)
	out, err := execute(t, "sql", "item", "--model", model,
		"--options", `{where: [{property: this.price, operator: ">", value: 5}], order: [{property: this.title, direction: desc}], limit: {firstResult: 10, maxResults: 5}}`)
	require.NoError(t, err)
	assert.Equal(t, "SELECT this.* FROM dobee_item this WHERE (this.price > ?) ORDER BY this.title DESC LIMIT 10,5\n-- types: d\n-- 1: 5\n", out)

	out, err = execute(t, "sql", "order", "--model", model, "--pk", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "SELECT this.* FROM dobee_order this WHERE this.`id` = ? AND this.`deleted` = 0 LIMIT 0,1\n")

	_, err = execute(t, "sql", "ghost", "--model", model)
	assert.Error(t, err)
	_, err = execute(t, "sql", "item", "--model", model, "--options", "{where: [")
	assert.Error(t, err)
}

func TestGen(t *testing.T) {
	out := filepath.Join(t.TempDir(), "model")
	stdout, err := execute(t, "gen", "--model", writeModel(t), "--out", out, "--package", "model")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(out, "order.go"))
	_, err = os.Stat(filepath.Join(out, "factories.go"))
	assert.NoError(t, err)
}
