package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearGazetteEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GAZETTE_URL", "GAZETTE_PAGE_URL", "GAZETTE_SOURCE_TYPE", "GAZETTE_TIMEOUT", "GAZETTE_USER_AGENT"} {
		t.Setenv(k, "")
	}
}

func TestLoadGazetteConfig_Defaults(t *testing.T) {
	clearGazetteEnv(t)

	cfg, warnings, err := LoadGazetteConfig("")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, DefaultGazetteConfig(), cfg)
	assert.Equal(t, "https://www.gazette.gov.mv", cfg.BaseURL)
	assert.Equal(t, ".gazette-item", cfg.Selectors.Item)
	assert.Equal(t, ".gazette-title", cfg.Selectors.Title)
	assert.Equal(t, "a", cfg.Selectors.Link)
	assert.Equal(t, ".gazette-date", cfg.Selectors.Date)
}

func TestLoadGazetteConfig_YAMLFile(t *testing.T) {
	clearGazetteEnv(t)
	path := filepath.Join(t.TempDir(), "gazette.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
base_url: https://gazette.example.org
page_url: https://gazette.example.org/feed.xml
source_type: rss
timeout: 12s
`), 0o600))

	cfg, _, err := LoadGazetteConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://gazette.example.org", cfg.BaseURL)
	assert.Equal(t, "https://gazette.example.org/feed.xml", cfg.PageURL)
	assert.Equal(t, SourceTypeRSS, cfg.SourceType)
	assert.Equal(t, 12*time.Second, cfg.Timeout)
	// untouched keys keep their defaults
	assert.Equal(t, ".gazette-item", cfg.Selectors.Item)
}

func TestLoadGazetteConfig_PageURLFollowsFileBaseURL(t *testing.T) {
	clearGazetteEnv(t)
	path := filepath.Join(t.TempDir(), "gazette.yaml")
	require.NoError(t, os.WriteFile(path, []byte("base_url: https://gazette.example.org\n"), 0o600))

	cfg, _, err := LoadGazetteConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://gazette.example.org", cfg.BaseURL)
	assert.Equal(t, "https://gazette.example.org", cfg.PageURL)

	t.Setenv("GAZETTE_URL", "http://localhost:9000")
	cfg, _, err = LoadGazetteConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cfg.PageURL, "env base moves an unset page url")
}

func TestLoadGazetteConfig_FileErrors(t *testing.T) {
	clearGazetteEnv(t)
	dir := t.TempDir()

	_, _, err := LoadGazetteConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("source_type: [oops"), 0o600))
	_, _, err = LoadGazetteConfig(bad)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("source_type: atom\n"), 0o600))
	_, _, err = LoadGazetteConfig(invalid)
	assert.ErrorContains(t, err, "source_type")
}

func TestLoadGazetteConfig_EnvOverrides(t *testing.T) {
	clearGazetteEnv(t)
	t.Setenv("GAZETTE_URL", "http://localhost:9000")
	t.Setenv("GAZETTE_TIMEOUT", "5s")
	t.Setenv("GAZETTE_USER_AGENT", "test-agent")

	cfg, warnings, err := LoadGazetteConfig("")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "http://localhost:9000", cfg.BaseURL)
	assert.Equal(t, "http://localhost:9000", cfg.PageURL, "page follows base when not set separately")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "test-agent", cfg.UserAgent)
}

func TestLoadGazetteConfig_InvalidEnvFallsBack(t *testing.T) {
	clearGazetteEnv(t)
	t.Setenv("GAZETTE_URL", "ftp://gazette")
	t.Setenv("GAZETTE_SOURCE_TYPE", "atom")
	t.Setenv("GAZETTE_TIMEOUT", "1h")

	cfg, warnings, err := LoadGazetteConfig("")
	require.NoError(t, err)
	assert.Len(t, warnings, 3)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, SourceTypeHTML, cfg.SourceType)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}
