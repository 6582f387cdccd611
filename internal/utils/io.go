package utils

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// MaxSecretSize bounds how much is read for a single secret.
const MaxSecretSize = 4096

// ReadSecret reads a secret from r. When r is a terminal the user is
// prompted and the input is not echoed; otherwise r is read to EOF.
// Surrounding whitespace is trimmed, and empty input is an error.
func ReadSecret(r io.Reader, prompt string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if IsTerminal(r) {
		data, err = readHidden(r.(*os.File), prompt)
	} else {
		data, err = io.ReadAll(io.LimitReader(r, MaxSecretSize))
		if err != nil {
			err = fmt.Errorf("failed to read from stdin: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("no input provided (hint: pipe your private key to this command)")
	}
	return data, nil
}
