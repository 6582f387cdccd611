package configs

import (
	"os"
	"path/filepath"
)

type PathSettings struct {
	ConfigPath string
	DataPath   string
	KeysPath   string
}

// Settings holds the per-user directories. Tests may repoint it.
var Settings *PathSettings

func init() {
	Settings = DefaultPaths()
}

// DefaultPaths resolves the config and data directories, falling back to the
// working directory when the home directory is unknown.
func DefaultPaths() *PathSettings {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}

	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		if homeDir, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(homeDir, ".local", "share")
		} else {
			dataDir = "."
		}
	}

	return &PathSettings{
		ConfigPath: filepath.Join(configDir, "tokensmith", "config.toml"),
		DataPath:   filepath.Join(dataDir, "tokensmith"),
		KeysPath:   filepath.Join(dataDir, "tokensmith", "keys"),
	}
}
