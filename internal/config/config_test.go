package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portraits/internal/core/apperror"
	"portraits/internal/domain/directory"
	"portraits/internal/infrastructure/export"
)

var configKeys = []string{
	"APP_ENV", "LOG_LEVEL", "PORTRAITS_ACCESS_KEY", "ACCESS_KEY", "PORTRAITS_BASE_URL",
	"PORTRAITS_API_VERSION", "PORTRAITS_TIMEOUT", "PORTRAITS_REQUEST_INTERVAL", "UNIV_LIST_CSV",
	"DEPA_LIST_CSV", "DIRECTORY_ENCODING", "RULES_FILE", "TARGET_YEAR", "OUTPUT_DIR",
	"OUTPUT_COMPRESSION", "DATABASE_URL", "HTTP_ADDR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := fromEnv()
	require.NoError(t, err)

	assert.Equal(t, "https://edit.portraits.niad.ac.jp/api/", cfg.BaseURL)
	assert.Equal(t, "v1", cfg.APIVersion)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestInterval)
	assert.Equal(t, "./Data/UnivList.csv", cfg.UniversityCSV)
	assert.Equal(t, "./Data/DepaList.csv", cfg.OrganizationCSV)
	assert.Equal(t, directory.EncodingUTF8, cfg.DirectoryEncoding)
	assert.Equal(t, 2024, cfg.TargetYear)
	assert.Equal(t, ".", cfg.OutputDir)
	assert.Equal(t, export.CompressionNone, cfg.OutputCompression)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.AccessKey)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.Development())
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACCESS_KEY", "legacy")
	t.Setenv("PORTRAITS_TIMEOUT", "5s")
	t.Setenv("PORTRAITS_REQUEST_INTERVAL", "bogus")
	t.Setenv("DIRECTORY_ENCODING", "sjis")
	t.Setenv("OUTPUT_COMPRESSION", "zstd")
	t.Setenv("TARGET_YEAR", "2023")
	t.Setenv("APP_ENV", "development")

	cfg, err := fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "legacy", cfg.AccessKey)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestInterval)
	assert.Equal(t, directory.EncodingShiftJIS, cfg.DirectoryEncoding)
	assert.Equal(t, export.CompressionZstd, cfg.OutputCompression)
	assert.Equal(t, 2023, cfg.TargetYear)
	assert.True(t, cfg.Development())

	t.Setenv("PORTRAITS_ACCESS_KEY", "primary")
	cfg, err = fromEnv()
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.AccessKey)

	pc := cfg.Portraits()
	assert.Equal(t, "primary", pc.AccessKey)
	assert.Equal(t, 5*time.Second, pc.Timeout)
}

func TestFromEnv_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("OUTPUT_COMPRESSION", "brotli")
	_, err := fromEnv()
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	t.Setenv("OUTPUT_COMPRESSION", "")
	t.Setenv("DIRECTORY_ENCODING", "latin1")
	_, err = fromEnv()
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TARGET_YEAR=2022\nHTTP_ADDR=:9090\n"), 0o600))
	t.Chdir(dir)

	// godotenv does not override variables that are set, even when empty,
	// so unset the two keys the file provides.
	require.NoError(t, os.Unsetenv("TARGET_YEAR"))
	require.NoError(t, os.Unsetenv("HTTP_ADDR"))
	t.Cleanup(func() {
		_ = os.Unsetenv("TARGET_YEAR")
		_ = os.Unsetenv("HTTP_ADDR")
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2022, cfg.TargetYear)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
}

func TestLoad_NoDotEnv(t *testing.T) {
	clearEnv(t)
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2024, cfg.TargetYear)
}
