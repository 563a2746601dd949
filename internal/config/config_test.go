package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup returns an in-memory filesystem, the working directory and a fake
// home directory, with METASQL_* variables cleared.
func setup(t *testing.T) (afero.Fs, string, string) {
	t.Helper()
	home := filepath.Join(t.TempDir(), "home")
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)

	for _, k := range []string{"METASQL_DIALECT", "METASQL_DSN", "METASQL_STRICT_MACROS", "METASQL_FORMAT", "DATABASE_URL"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}

	wd, err := os.Getwd()
	require.NoError(t, err)
	return afero.NewMemMapFs(), wd, home
}

func write(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	fs, _, _ := setup(t)

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, &Config{Dialect: "mysql", StrictMacros: true, Format: "text"}, cfg)
}

func TestLoad_ConfigFile(t *testing.T) {
	fs, wd, _ := setup(t)
	write(t, fs, filepath.Join(wd, ".metasql.yaml"), "dialect: postgres\ndsn: postgres://localhost/app\nstrict_macros: false\n")

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "postgres://localhost/app", cfg.DSN)
	assert.False(t, cfg.StrictMacros)
	assert.Equal(t, "text", cfg.Format)
	assert.Equal(t, filepath.Join(wd, ".metasql.yaml"), cfg.File)
}

func TestLoad_HomeConfig(t *testing.T) {
	fs, _, home := setup(t)
	write(t, fs, filepath.Join(home, ".config", "metasql", ".metasql.yaml"), "format: json\n")

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Format)
}

func TestLoad_Precedence(t *testing.T) {
	fs, wd, _ := setup(t)
	write(t, fs, filepath.Join(wd, ".metasql.yaml"), "dialect: postgres\nformat: json\ndsn: from-file\n")
	write(t, fs, filepath.Join(wd, ".env"), "METASQL_DIALECT=sqlite\nMETASQL_DSN=from-env-file\nUNRELATED=1\n")
	write(t, fs, filepath.Join(wd, ".env.local"), "METASQL_DSN=from-env-local\n")
	t.Setenv("METASQL_FORMAT", "text")

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect, ".env beats the config file")
	assert.Equal(t, "from-env-local", cfg.DSN, ".env.local beats .env")
	assert.Equal(t, "text", cfg.Format, "environment beats the config file")
}

func TestLoad_DatabaseURL(t *testing.T) {
	fs, wd, _ := setup(t)
	write(t, fs, filepath.Join(wd, ".env"), "DATABASE_URL=file:app.db\n")

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "file:app.db", cfg.DSN)

	fs, _, _ = setup(t)
	t.Setenv("DATABASE_URL", "root@tcp(db)/app")
	cfg, err = Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "root@tcp(db)/app", cfg.DSN)
}

func TestLoad_MalformedConfig(t *testing.T) {
	fs, wd, _ := setup(t)
	write(t, fs, filepath.Join(wd, ".metasql.yaml"), "dialect: [unterminated\n")

	_, err := Load(fs)
	assert.ErrorContains(t, err, "read config")
}

func TestSave(t *testing.T) {
	fs, _, home := setup(t)

	path, err := Save(fs, &Config{Dialect: "sqlite", DSN: ":memory:", StrictMacros: true, Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "metasql", ".metasql.yaml"), path)

	cfg, err := Load(fs)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Dialect)
	assert.Equal(t, ":memory:", cfg.DSN)
	assert.Equal(t, "json", cfg.Format)
}
