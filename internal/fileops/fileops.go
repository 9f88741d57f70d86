package fileops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrConfigNotFound is returned when a configuration file does not exist
var ErrConfigNotFound = errors.New("configuration file not found")

const appDirName = "sonicstream"

// FileOps defines operations on the sonicstream config directory
type FileOps interface {
	// GetConfigDir returns the full path to the config directory
	GetConfigDir() string

	// SaveConfig saves data to a file in the config directory
	SaveConfig(filename string, data []byte) error

	// LoadConfig loads data from a file in the config directory
	LoadConfig(filename string) ([]byte, error)

	// GetStatsPath returns the path of the usage statistics file
	GetStatsPath() string

	// EnsureDirectories creates necessary directories if they don't exist
	EnsureDirectories() error
}

// DefaultFileOps implements FileOps rooted at a single directory
type DefaultFileOps struct {
	configDir string
}

// NewDefaultFileOps returns FileOps rooted at ~/.config/sonicstream
func NewDefaultFileOps() (*DefaultFileOps, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return NewFileOps(filepath.Join(homeDir, ".config", appDirName)), nil
}

// NewFileOps returns FileOps rooted at dir
func NewFileOps(dir string) *DefaultFileOps {
	return &DefaultFileOps{configDir: dir}
}

func (f *DefaultFileOps) GetConfigDir() string {
	return f.configDir
}

func (f *DefaultFileOps) SaveConfig(filename string, data []byte) error {
	if err := f.EnsureDirectories(); err != nil {
		return err
	}
	path := filepath.Join(f.configDir, filename)
	return os.WriteFile(path, data, 0o600)
}

func (f *DefaultFileOps) LoadConfig(filename string) ([]byte, error) {
	path := filepath.Join(f.configDir, filename)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrConfigNotFound
	}
	return data, err
}

func (f *DefaultFileOps) GetStatsPath() string {
	return filepath.Join(f.configDir, "stats.json")
}

func (f *DefaultFileOps) EnsureDirectories() error {
	if err := os.MkdirAll(f.configDir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}
