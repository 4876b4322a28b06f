package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, "8080", c.Server.Port)
	assert.Equal(t, "sqlite", c.Database.Type)
	assert.Equal(t, "Llama-4-Maverick-17B-128E-Instruct", c.LLM.Model)
	assert.Equal(t, 4*time.Second, c.Workflow.FeedbackDuration)
	assert.Equal(t, 2*time.Second, c.Workflow.DemoDelay)
	assert.True(t, c.DemoMode(), "默认没有 API Key，应为演示模式")
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: \"9090\"\nllm:\n  api_url: http://file.example/v1\n  model: file-model\nworkflow:\n  feedback_duration: 3s\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("LLAMA_API_KEY", "env-key")
	t.Setenv("LLAMA_MODEL_NAME", "env-model")
	t.Setenv("DATA_DIR", dir)

	c := loadConfig()

	assert.Equal(t, "9090", c.Server.Port)
	assert.Equal(t, "http://file.example/v1", c.LLM.APIURL)
	assert.Equal(t, "env-model", c.LLM.Model, "环境变量应覆盖配置文件")
	assert.Equal(t, "env-key", c.LLM.APIKey)
	assert.Equal(t, 3*time.Second, c.Workflow.FeedbackDuration)
	assert.Equal(t, filepath.Join(dir, "yoshilog.db"), c.Database.DSN)
	assert.False(t, c.DemoMode())
}

func TestLoadConfigMissingFileKeepsDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("SERVER_PORT", "7000")
	t.Setenv("LLAMA_MODEL_NAME", "")

	c := loadConfig()
	assert.Equal(t, "7000", c.Server.Port)
	assert.Equal(t, Default().LLM.Model, c.LLM.Model)
}
