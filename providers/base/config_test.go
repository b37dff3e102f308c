package base_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inspirepan/dispatch"
	"github.com/inspirepan/dispatch/providers/base"
)

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("DISPATCH_TEST_MODEL=gpt-test\n"), 0o600))
	t.Setenv("DISPATCH_TEST_MODEL", "")
	require.NoError(t, os.Unsetenv("DISPATCH_TEST_MODEL"))

	require.NoError(t, base.LoadEnv(path))
	cfg := base.NewConfig()
	base.ApplyEnvDefaults(&cfg, "DISPATCH_TEST_MODEL")
	assert.Equal(t, "gpt-test", cfg.Model)

	assert.Error(t, base.LoadEnv(filepath.Join(dir, "missing.env")))
}

func TestApplyEnvDefaultsKeepsExplicitModel(t *testing.T) {
	t.Setenv("DISPATCH_TEST_MODEL", "from-env")
	cfg := base.NewConfig(base.WithModel("explicit"), base.WithTemperature(0.2), base.WithMaxOutputTokens(64))
	base.ApplyEnvDefaults(&cfg, "DISPATCH_TEST_MODEL")
	assert.Equal(t, "explicit", cfg.Model)
	assert.Equal(t, 0.2, *cfg.Temperature)
	assert.Equal(t, 64, *cfg.MaxOutputTokens)
}

func TestRequestSystemPrompt(t *testing.T) {
	tools := []dispatch.ToolSpec{{Name: "ping", Description: "Ping"}}

	text := base.Request{
		Config:     base.NewConfig(base.WithSystemPrompt("Be brief.")),
		Dispatcher: dispatch.NewTextDispatcher(),
		Tools:      tools,
	}
	assert.Contains(t, text.SystemPrompt(), "Be brief.\n\n## Tool Use Protocol")
	assert.False(t, text.Native())

	native := base.Request{
		Config:     base.NewConfig(base.WithSystemPrompt("Be brief.")),
		Dispatcher: dispatch.NewNativeDispatcher(),
		Tools:      tools,
	}
	assert.Equal(t, "Be brief.", native.SystemPrompt())
	assert.True(t, native.Native())
}
