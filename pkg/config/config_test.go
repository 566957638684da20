package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (c *testConfig) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	c.valid = true
	return nil
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_NAME", "lodmerge")
	p := writeFile(t, "name: ${TEST_CONFIG_NAME}\nport: 9000\n")

	cfg := &testConfig{Port: 8080}
	require.NoError(t, Load(p, cfg))
	assert.Equal(t, "lodmerge", cfg.Name)
	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.valid)
}

func TestLoad_KeepsDefaults(t *testing.T) {
	p := writeFile(t, "name: x\n")

	cfg := &testConfig{Port: 8080}
	require.NoError(t, Load(p, cfg))
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoad_UnknownKey(t *testing.T) {
	p := writeFile(t, "name: x\nprot: 1\n")
	assert.Error(t, Load(p, &testConfig{}))
}

func TestLoad_ValidationFails(t *testing.T) {
	p := writeFile(t, "port: 1\n")
	err := Load(p, &testConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoad_MissingFile(t *testing.T) {
	assert.Error(t, Load(filepath.Join(t.TempDir(), "nope.yaml"), &testConfig{}))
}

func TestLoadOptional_MissingFileValidatesDefaults(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	cfg := &testConfig{Name: "default"}
	require.NoError(t, LoadOptional(missing, cfg))
	assert.True(t, cfg.valid)

	assert.Error(t, LoadOptional(missing, &testConfig{}))
}

func TestDecode_EmptyDocument(t *testing.T) {
	cfg := &testConfig{Name: "default"}
	require.NoError(t, Decode([]byte(""), cfg))
	assert.Equal(t, "default", cfg.Name)
}
