package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr)
	assert.Equal(t, "./questagram.db", cfg.Database.Path)
	assert.Equal(t, 100, cfg.Progression.LevelStep)
	assert.Equal(t, 1.5, cfg.Progression.BonusMultiplier)
	assert.Equal(t, 50, cfg.Progression.LevelUpGold)
	assert.Equal(t, 5, cfg.Progression.LevelUpGems)
	assert.Equal(t, 25, cfg.Progression.PostXP)
	assert.False(t, cfg.LLM.Enabled)
	assert.Equal(t, 128, cfg.Leaderboard.CacheSize)
	assert.Equal(t, "@hourly", cfg.Leaderboard.RefreshCron)
	assert.Equal(t, "@every 15m", cfg.Quests.RefreshCron)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
database:
  path: /tmp/qg.db
progression:
  post_xp: 40
log:
  level: debug
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))
	t.Setenv("QUESTAGRAM_SERVER_ADDR", "127.0.0.1:9999")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/qg.db", cfg.Database.Path)
	assert.Equal(t, 40, cfg.Progression.PostXP)
	assert.Equal(t, 100, cfg.Progression.LevelStep)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}
