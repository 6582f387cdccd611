package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry represents a single audit log entry. Key material never appears here.
type Entry struct {
	Timestamp string `json:"ts"`                  // RFC3339 with microseconds.
	ClientID  string `json:"client_id,omitempty"` // Installation that acted.
	Operation string `json:"op"`                  // "create" or "update".

	CredentialName string `json:"name,omitempty"`
	CredentialID   string `json:"id,omitempty"`
	WorkspaceID    string `json:"workspace_id,omitempty"`
	ScopesCount    int    `json:"scopes_count,omitempty"`
	Expiry         string `json:"expiry,omitempty"`
	BundlePath     string `json:"bundle_path,omitempty"` // For create.
}

// Trail appends entries to a JSON Lines file. The zero value records nothing.
type Trail struct {
	Path     string
	ClientID string
}

// Log appends an entry. Failures are swallowed: an issuance must not fail
// because auditing failed.
func (t *Trail) Log(entry Entry) {
	if t == nil || t.Path == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.ClientID == "" {
		entry.ClientID = t.ClientID
	}

	if err := os.MkdirAll(filepath.Dir(t.Path), 0700); err != nil {
		return
	}

	f, err := os.OpenFile(t.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the trail.
// Returns an empty slice if the log doesn't exist.
func (t *Trail) ReadEntries() ([]Entry, error) {
	if t == nil || t.Path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(t.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
