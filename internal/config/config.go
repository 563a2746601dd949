// Package config loads metasql settings from a config file, the
// environment and dotenv files.
//
// Precedence, highest first: METASQL_* environment variables, .env.local,
// .env, .metasql.yaml, defaults. Command-line flags are applied on top by
// the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const (
	// FileName is the config file name without extension.
	FileName = ".metasql"

	// EnvPrefix prefixes every environment variable read.
	EnvPrefix = "METASQL"
)

// Keys.
const (
	KeyDialect      = "dialect"
	KeyDSN          = "dsn"
	KeyStrictMacros = "strict_macros"
	KeyFormat       = "format"
)

// Config holds the application configuration.
type Config struct {
	Dialect      string
	DSN          string
	StrictMacros bool
	Format       string

	// File is the config file that was read, empty when none was found.
	File string
}

// Load reads configuration through fs. A missing config file or dotenv
// file is not an error; a malformed one is.
func Load(fs afero.Fs) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "metasql"))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault(KeyDialect, "mysql")
	v.SetDefault(KeyStrictMacros, true)
	v.SetDefault(KeyFormat, "text")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	// Dotenv values sit above the config file and below the real
	// environment, so they are merged as config.
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("working directory: %w", err)
	}
	for _, name := range []string{".env", ".env.local"} {
		if err := mergeDotenv(v, fs, filepath.Join(wd, name)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Dialect:      v.GetString(KeyDialect),
		DSN:          v.GetString(KeyDSN),
		StrictMacros: v.GetBool(KeyStrictMacros),
		Format:       v.GetString(KeyFormat),
		File:         v.ConfigFileUsed(),
	}
	if cfg.DSN == "" {
		cfg.DSN = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// mergeDotenv merges METASQL_* entries of a dotenv file into v.
// DATABASE_URL fills the DSN when nothing else set one.
func mergeDotenv(v *viper.Viper, fs afero.Fs, path string) error {
	name := filepath.Base(path)
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}

	env, err := godotenv.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}

	values := make(map[string]any)
	for k, val := range env {
		key, ok := strings.CutPrefix(k, EnvPrefix+"_")
		if !ok {
			continue
		}
		values[strings.ToLower(key)] = val
	}
	if url, ok := env["DATABASE_URL"]; ok {
		if _, set := values[KeyDSN]; !set && v.GetString(KeyDSN) == "" {
			values[KeyDSN] = url
		}
	}
	if len(values) == 0 {
		return nil
	}
	return v.MergeConfigMap(values)
}

// Save writes cfg to $HOME/.config/metasql/.metasql.yaml through fs and
// returns the path written.
func Save(fs afero.Fs, cfg *Config) (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(home, ".config", "metasql")
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	v := viper.New()
	v.SetFs(fs)
	v.Set(KeyDialect, cfg.Dialect)
	v.Set(KeyDSN, cfg.DSN)
	v.Set(KeyStrictMacros, cfg.StrictMacros)
	v.Set(KeyFormat, cfg.Format)

	path := filepath.Join(dir, FileName+".yaml")
	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("write config: %w", err)
	}
	return path, nil
}
