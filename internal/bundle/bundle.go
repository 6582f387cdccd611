// Package bundle writes the credential bundle handed to the service token's
// holder: the token plus the key pair that can open its workspace key.
package bundle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
)

// DefaultPrefix is prepended to bundle file names.
const DefaultPrefix = "tokensmith"

// Bundle is the downloadable credential. PrivateKey is the only copy of the
// service token's private key.
type Bundle struct {
	PublicKey    string `json:"publicKey"`
	PrivateKey   string `json:"privateKey"`
	ServiceToken string `json:"serviceToken"`
}

// Marshal renders the bundle as indented JSON.
func (b *Bundle) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// FileName returns the bundle file name for a token name. Characters outside
// [A-Za-z0-9._-] become underscores.
func FileName(prefix, name string) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	clean := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	return fmt.Sprintf("%s_%s.json", prefix, clean)
}

// FileExporter writes bundles into Dir with owner-only permissions.
type FileExporter struct {
	Dir    string
	Prefix string
}

// Export writes the bundle and returns its path. An existing file is never
// overwritten.
func (e FileExporter) Export(name string, b *Bundle) (string, error) {
	data, err := b.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshaling bundle: %w", err)
	}

	dir := e.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating bundle directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, FileName(e.Prefix, name))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", kerrors.ErrBundleExists, path)
		}
		return "", fmt.Errorf("creating bundle file %s: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing bundle file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing bundle file %s: %w", path, err)
	}
	return path, nil
}

// WriterExporter writes bundles to a stream such as stdout.
type WriterExporter struct {
	W io.Writer
}

func (e WriterExporter) Export(name string, b *Bundle) (string, error) {
	data, err := b.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshaling bundle: %w", err)
	}
	if _, err := e.W.Write(data); err != nil {
		return "", fmt.Errorf("writing bundle: %w", err)
	}
	return "-", nil
}
