package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REFLECT_CONFIG_PATH", "")
	t.Setenv("GEMINI_API_KEY", "gem-key")

	cfg, err := Load(New())
	require.NoError(t, err)

	home, err := homedir.Dir()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(home, ".reflect", "reflect.db"), cfg.Storage.Path)
	assert.Equal(t, "reflect_state_v3", cfg.Storage.Key)
	assert.Equal(t, "snapshots", cfg.Firestore.Collection)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.InDelta(t, 0.3, cfg.LLM.Temperature, 1e-9)
	assert.InDelta(t, 0.9, cfg.LLM.TopP, 1e-9)
	assert.Zero(t, cfg.LLM.Timeout)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REFLECT_CONFIG_PATH", "")
	t.Setenv("REFLECT_LLM_PROVIDER", "Anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "ant-key")
	t.Setenv("REFLECT_LLM_TIMEOUT", "45s")
	t.Setenv("REFLECT_STORAGE_BACKEND", "diskv")

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "ant-key", cfg.LLM.APIKey)
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, "diskv", cfg.Storage.Backend)
	assert.Equal(t, ".reflect", filepath.Base(filepath.Dir(cfg.Storage.Path)))
	assert.Equal(t, "reflect", filepath.Base(cfg.Storage.Path))
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(t.TempDir())
	t.Setenv("REFLECT_CONFIG_PATH", dir)

	yaml := "storage:\n  backend: memory\nllm:\n  provider: mock\n  temperature: 0.7\nserver:\n  addr: 127.0.0.1:9999\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".reflect.yaml"), []byte(yaml), 0644))

	cfg, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}
