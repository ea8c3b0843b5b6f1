package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, int64(5*1024*1024), cfg.Imports.MaxFileSizeBytes)
	assert.Equal(t, 4, cfg.Imports.SubjectMatchMinLength)
	assert.Equal(t, 7*24*time.Hour, cfg.Imports.HistoryTTL)
	assert.Empty(t, cfg.Imports.SubjectAliases)
}

func TestLoadImportOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("IMPORT_SUBJECT_ALIASES", "maths=Mathematics, bio = Biology,broken")
	t.Setenv("IMPORT_SUBJECT_MIN_MATCH", "0")
	t.Setenv("IMPORT_HISTORY_TTL", "not-a-duration")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"maths": "Mathematics", "bio": "Biology"}, cfg.Imports.SubjectAliases)
	assert.Equal(t, 0, cfg.Imports.SubjectMatchMinLength)
	assert.Equal(t, 7*24*time.Hour, cfg.Imports.HistoryTTL)
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"a", "b"}, splitAndTrim(" a, ,b "))
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
