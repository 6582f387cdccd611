package keystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/PolarWolf314/tokensmith/internal/configs"
	"github.com/PolarWolf314/tokensmith/internal/envelope"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
	logger "github.com/PolarWolf314/tokensmith/internal/logging"

	"github.com/99designs/keyring"
)

// ItemKey is the keyring item holding the private key.
const ItemKey = "private-key"

// Store holds the requester's long-lived private key.
type Store interface {
	PrivateKey(ctx context.Context) (*[envelope.KeySize]byte, error)
	Save(key *[envelope.KeySize]byte, overwrite bool) error
}

// Open returns the store selected by the configuration.
func Open(cfg configs.KeyStoreConfig, log logger.Logger) (Store, error) {
	switch cfg.Backend {
	case configs.BackendFile, "":
		return &FileStore{Path: cfg.Path, Logger: log}, nil
	case configs.BackendKeyring:
		ring, err := openKeyring(cfg)
		if err != nil {
			return nil, err
		}
		return &KeyringStore{Ring: ring}, nil
	default:
		return nil, fmt.Errorf("%w: %q", kerrors.ErrUnknownKeyStore, cfg.Backend)
	}
}

func openKeyring(cfg configs.KeyStoreConfig) (keyring.Keyring, error) {
	kc := keyring.Config{
		ServiceName:      cfg.Service,
		FileDir:          configs.Settings.KeysPath,
		FilePasswordFunc: keyring.TerminalPrompt,
	}
	if cfg.KeyringBackend != "" {
		kc.AllowedBackends = []keyring.BackendType{keyring.BackendType(cfg.KeyringBackend)}
	}

	ring, err := keyring.Open(kc)
	if err != nil {
		return nil, fmt.Errorf("opening keyring %s: %w", cfg.Service, err)
	}
	return ring, nil
}

func decodePrivateKey(data []byte) (*[envelope.KeySize]byte, error) {
	key, err := envelope.DecodeKey(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", kerrors.ErrInvalidPrivateKey, err)
	}
	return key, nil
}

// FileStore keeps the key base64-encoded in a file with 0600 permissions.
type FileStore struct {
	Path   string
	Logger logger.Logger
}

func (s *FileStore) PrivateKey(ctx context.Context) (*[envelope.KeySize]byte, error) {
	info, err := os.Stat(s.Path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", kerrors.ErrPrivateKeyNotFound, s.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("checking private key file: %w", err)
	}

	// Permissions are reported, not enforced.
	if runtime.GOOS != "windows" && info.Mode().Perm()&0077 != 0 {
		s.Logger.WarnfAlways("private key %s has permissions %o, expected 600", s.Path, info.Mode().Perm())
	}

	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading private key: %w", err)
	}
	return decodePrivateKey(data)
}

func (s *FileStore) Save(key *[envelope.KeySize]byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(s.Path); err == nil {
			return fmt.Errorf("%w: %s", kerrors.ErrPrivateKeyExists, s.Path)
		}
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0700); err != nil {
		return fmt.Errorf("creating key directory: %w", err)
	}
	if err := os.WriteFile(s.Path, []byte(envelope.EncodeKey(key)+"\n"), 0600); err != nil {
		return fmt.Errorf("writing private key: %w", err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(s.Path, 0600); err != nil {
		return fmt.Errorf("restricting private key permissions: %w", err)
	}
	return nil
}

// KeyringStore keeps the key in an OS keyring.
type KeyringStore struct {
	Ring keyring.Keyring
}

func (s *KeyringStore) PrivateKey(ctx context.Context) (*[envelope.KeySize]byte, error) {
	item, err := s.Ring.Get(ItemKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: keyring item %s", kerrors.ErrPrivateKeyNotFound, ItemKey)
	}
	if err != nil {
		return nil, fmt.Errorf("reading keyring: %w", err)
	}
	return decodePrivateKey(item.Data)
}

func (s *KeyringStore) Save(key *[envelope.KeySize]byte, overwrite bool) error {
	if !overwrite {
		if _, err := s.Ring.Get(ItemKey); err == nil {
			return fmt.Errorf("%w: keyring item %s", kerrors.ErrPrivateKeyExists, ItemKey)
		}
	}

	err := s.Ring.Set(keyring.Item{
		Key:         ItemKey,
		Data:        []byte(envelope.EncodeKey(key)),
		Label:       "tokensmith private key",
		Description: "Long-lived key used to open workspace key envelopes",
	})
	if err != nil {
		return fmt.Errorf("writing keyring: %w", err)
	}
	return nil
}

// Static serves a fixed key. It is used when the key arrives on stdin.
type Static struct {
	Key *[envelope.KeySize]byte
}

func (s Static) PrivateKey(ctx context.Context) (*[envelope.KeySize]byte, error) {
	if s.Key == nil {
		return nil, kerrors.ErrPrivateKeyNotFound
	}
	return s.Key, nil
}

func (s Static) Save(key *[envelope.KeySize]byte, overwrite bool) error {
	return fmt.Errorf("static key store is read-only")
}

// ParseStatic reads a base64 private key, e.g. from stdin.
func ParseStatic(data []byte) (Static, error) {
	key, err := decodePrivateKey(data)
	if err != nil {
		return Static{}, err
	}
	return Static{Key: key}, nil
}
