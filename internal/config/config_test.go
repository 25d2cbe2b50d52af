package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "/make-server", cfg.Server.RoutePrefix)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "classic", cfg.Curriculum.Catalog)
	assert.Equal(t, 5, cfg.Curriculum.MaxStage)
	assert.Equal(t, 72*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, geminiBaseURL, cfg.AI.BaseURL)
	assert.Equal(t, geminiModel, cfg.AI.Model)
	assert.Empty(t, cfg.ConfigFile)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  mode: release
curriculum:
  catalog: extended
  max_stage: 30
ai:
  provider: openai
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("GEMINI_API_KEY", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "extended", cfg.Curriculum.Catalog)
	assert.Equal(t, 30, cfg.Curriculum.MaxStage)
	assert.Equal(t, openAIBaseURL, cfg.AI.BaseURL)
	assert.Equal(t, openAIModel, cfg.AI.Model)
	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), cfg.ConfigFile)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown catalog", "curriculum:\n  catalog: huge\n"},
		{"zero max stage", "curriculum:\n  max_stage: 0\n"},
		{"unknown store", "store:\n  driver: etcd\n"},
		{"dev secret in release", "server:\n  mode: release\n"},
		{"supabase without url", "auth:\n  provider: supabase\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(tt.yaml), 0644))
			_, err := LoadConfig(dir)
			assert.Error(t, err)
		})
	}
}
