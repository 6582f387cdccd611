package configs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"
)

const (
	BackendFile    = "file"
	BackendKeyring = "keyring"

	DefaultAPIURL         = "https://app.infisical.com"
	DefaultTimeoutSeconds = 30
	DefaultKeyringService = "tokensmith"
)

// Environment overrides.
const (
	EnvAPIURL      = "TOKENSMITH_API_URL"
	EnvToken       = "TOKENSMITH_TOKEN"
	EnvWorkspaceID = "TOKENSMITH_WORKSPACE_ID"
)

type Config struct {
	APIURL         string         `toml:"api_url"`
	AuthToken      string         `toml:"auth_token,omitempty"`
	WorkspaceID    string         `toml:"workspace_id,omitempty"`
	TimeoutSeconds int            `toml:"timeout_seconds"`
	ClientID       string         `toml:"client_id,omitempty"`
	AuditLog       string         `toml:"audit_log,omitempty"`
	KeyStore       KeyStoreConfig `toml:"keystore"`
	Export         ExportConfig   `toml:"export"`
}

type KeyStoreConfig struct {
	// Backend is "file" or "keyring".
	Backend string `toml:"backend"`
	// Path is the private key file for the file backend.
	Path string `toml:"path,omitempty"`
	// Service is the keyring service name.
	Service string `toml:"service,omitempty"`
	// KeyringBackend pins a specific OS keyring (e.g. "keychain", "secret-service", "file").
	KeyringBackend string `toml:"keyring_backend,omitempty"`
}

type ExportConfig struct {
	Dir    string `toml:"dir,omitempty"`
	Prefix string `toml:"prefix,omitempty"`
}

// Default returns a config with every default applied.
func Default() *Config {
	return &Config{
		APIURL:         DefaultAPIURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		AuditLog:       filepath.Join(Settings.DataPath, "audit.jsonl"),
		KeyStore: KeyStoreConfig{
			Backend: BackendFile,
			Path:    filepath.Join(Settings.KeysPath, "privkey"),
			Service: DefaultKeyringService,
		},
	}
}

// Timeout returns the backend request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

var httpURL = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("validation_url", "must be an http or https URL")
	}
	return nil
})

// Validate checks the fields every command relies on.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.APIURL, validation.Required, httpURL),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrInvalidConfig, err)
	}

	err = validation.ValidateStruct(&c.KeyStore,
		validation.Field(&c.KeyStore.Backend, validation.Required, validation.In(BackendFile, BackendKeyring)),
		validation.Field(&c.KeyStore.Path, validation.When(c.KeyStore.Backend == BackendFile, validation.Required)),
		validation.Field(&c.KeyStore.Service, validation.When(c.KeyStore.Backend == BackendKeyring, validation.Required)),
	)
	if err != nil {
		return fmt.Errorf("%w: keystore: %v", kerrors.ErrInvalidConfig, err)
	}
	return nil
}

// Load reads the config at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	config, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	applyEnv(config)
	return config, nil
}

// LoadFile is Load without environment overrides. Use it when the result is
// written back, so secrets from the environment never land on disk.
func LoadFile(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(path, config); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", kerrors.ErrInvalidConfig, path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to check config file: %w", err)
	}
	return config, nil
}

func applyEnv(c *Config) {
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.AuthToken = v
	}
	if v := os.Getenv(EnvWorkspaceID); v != "" {
		c.WorkspaceID = v
	}
}

// Save writes the config to path.
func Save(path string, config *Config) error {
	if err := SaveTOML(path, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// GenerateClientID generates a new id for this installation.
func GenerateClientID() string {
	return uuid.New().String()
}

// EnsureClientID loads the config and assigns a client id on first use.
func EnsureClientID(path string) (*Config, error) {
	config, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	if config.ClientID == "" {
		config.ClientID = GenerateClientID()
		if err := Save(path, config); err != nil {
			return nil, err
		}
	}
	return config, nil
}
