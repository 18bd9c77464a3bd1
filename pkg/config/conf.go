package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	FileName = "config.yaml"
	dirMode  = 0700
	fileMode = 0600

	artifactDirName = "artifacts"
	dataFileName    = "data.db"

	AddressDefault  = "127.0.0.1"
	PortDefault     = 8080
	LogLevelDefault = "info"
)

// Config represents app config object.
type Config struct {
	ArtifactDir string `yaml:"artifact_dir"`
	DB          string `yaml:"db"`
	Address     string `yaml:"address"`
	Port        int    `yaml:"port"`
	LogLevel    string `yaml:"log_level"`
	DefaultApp  string `yaml:"default_app,omitempty"`
}

// Default returns the config used when no file exists, rooted in dirPath.
func Default(dirPath string) *Config {
	return &Config{
		ArtifactDir: filepath.Join(dirPath, artifactDirName),
		DB:          filepath.Join(dirPath, dataFileName),
		Address:     AddressDefault,
		Port:        PortDefault,
		LogLevel:    LogLevelDefault,
	}
}

// applyDefaults fills the values a hand edited file may have left out.
func (c *Config) applyDefaults(dirPath string) {
	d := Default(dirPath)
	if c.ArtifactDir == "" {
		c.ArtifactDir = d.ArtifactDir
	}
	if c.DB == "" {
		c.DB = d.DB
	}
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.Port <= 0 {
		c.Port = d.Port
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

func Save(dirPath string, c *Config) error {
	if dirPath == "" {
		return errors.New("config directory required")
	}
	if c == nil {
		return errors.New("config required")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	path := filepath.Join(dirPath, FileName)
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", FileName, err)
	}
	return nil
}

// ReadOrCreate reads app config from directory or creates a new one.
func ReadOrCreate(dirPath string) (*Config, error) {
	if dirPath == "" {
		return nil, errors.New("config directory required")
	}

	if err := os.MkdirAll(dirPath, dirMode); err != nil {
		return nil, fmt.Errorf("failed to create dir %s: %w", dirPath, err)
	}

	path := filepath.Join(dirPath, FileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating default config", "path", path)
		if err := Save(dirPath, Default(dirPath)); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("error unmarshalling config file %s: %w", path, err)
	}
	c.applyDefaults(dirPath)
	return &c, nil
}

// GetOrCreateHomeDir returns the home directory for the current user.
// The create flag is set to true if the directory was created.
func GetOrCreateHomeDir(name string) (path string, created bool, err error) {
	if name == "" {
		return "", false, errors.New("name cannot be empty")
	}

	if !strings.HasPrefix(name, ".") {
		name = "." + name
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("failed to get user home dir: %w", err)
	}
	slog.Debug("home dir", "path", home)

	dir := filepath.Join(home, name)
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		slog.Debug("creating dir", "path", dir)
		err := os.Mkdir(dir, dirMode)
		if err != nil {
			return "", false, fmt.Errorf("failed to create dir %s: %w", dir, err)
		}
		created = true
	}
	return dir, created, nil
}
