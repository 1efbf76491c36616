package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DataDir returns the default data directory for kpsyche.
// Windows: %LOCALAPPDATA%\kpsyche
// Linux/Mac: ~/.local/share/kpsyche
func DataDir() string {
	if dir := os.Getenv("KPSYCHE_DATA_DIR"); dir != "" {
		return dir
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "kpsyche")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "kpsyche")
}

// MemoryDir returns the directory where the vector memory data is stored.
func (c *Config) MemoryDir() string {
	return filepath.Join(c.DataDir, "memory")
}

// PersonaPath returns the path of the persona profile index file.
func (c *Config) PersonaPath() string {
	return filepath.Join(c.DataDir, "personas.json")
}

// EnsureDirs creates the required directories if they don't exist.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.MemoryDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
