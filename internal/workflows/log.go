package workflows

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PolarWolf314/tokensmith/internal/audit"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
)

const (
	auditTimestampLayout = "2006-01-02T15:04:05.000000Z"
	dateLayout           = "2006-01-02"
)

// LogOptions configures the log workflow.
type LogOptions struct {
	// Limit is the maximum number of entries to return. 0 means no limit.
	Limit int

	// Reverse orders entries from most recent to oldest when true.
	Reverse bool

	// Workspace filters entries by workspace id.
	Workspace string

	// Name filters entries by service token name (case-insensitive).
	Name string

	// Operations filters entries by operation (comma-separated).
	Operations string

	// Since and Until bound entries by date (YYYY-MM-DD), both inclusive.
	Since string
	Until string
}

// LogResult contains the outcome of a log read.
type LogResult struct {
	Entries []audit.Entry

	// TotalEntriesBeforeFilter is the count of entries before filtering.
	TotalEntriesBeforeFilter int
}

// Log reads and filters the issuance audit trail.
//
// Returns ErrAuditDisabled if the trail has no path.
// Returns ErrInvalidDateFormat if Since or Until cannot be parsed.
func Log(ctx context.Context, trail *audit.Trail, opts LogOptions) (*LogResult, error) {
	if trail == nil || trail.Path == "" {
		return nil, kerrors.ErrAuditDisabled
	}

	var since, until time.Time
	if opts.Since != "" {
		t, err := time.Parse(dateLayout, opts.Since)
		if err != nil {
			return nil, fmt.Errorf("%w: --since %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Since)
		}
		since = t
	}
	if opts.Until != "" {
		t, err := time.Parse(dateLayout, opts.Until)
		if err != nil {
			return nil, fmt.Errorf("%w: --until %q, use YYYY-MM-DD", kerrors.ErrInvalidDateFormat, opts.Until)
		}
		// Include the entire day.
		until = t.Add(24*time.Hour - time.Nanosecond)
	}

	entries, err := trail.ReadEntries()
	if err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	result := &LogResult{TotalEntriesBeforeFilter: len(entries)}

	var ops map[string]bool
	if opts.Operations != "" {
		ops = make(map[string]bool)
		for _, op := range strings.Split(opts.Operations, ",") {
			ops[strings.ToLower(strings.TrimSpace(op))] = true
		}
	}

	filtered := make([]audit.Entry, 0, len(entries))
	for _, e := range entries {
		if opts.Workspace != "" && e.WorkspaceID != opts.Workspace {
			continue
		}
		if opts.Name != "" && !strings.EqualFold(e.CredentialName, opts.Name) {
			continue
		}
		if ops != nil && !ops[strings.ToLower(e.Operation)] {
			continue
		}
		if !since.IsZero() || !until.IsZero() {
			t, ok := parseTimestamp(e.Timestamp)
			if !ok {
				continue
			}
			if !since.IsZero() && t.Before(since) {
				continue
			}
			if !until.IsZero() && t.After(until) {
				continue
			}
		}
		filtered = append(filtered, e)
	}

	if opts.Reverse {
		for i, j := 0, len(filtered)-1; i < j; i, j = i+1, j-1 {
			filtered[i], filtered[j] = filtered[j], filtered[i]
		}
	}

	// The limit always keeps the most recent entries.
	if opts.Limit > 0 && len(filtered) > opts.Limit {
		if opts.Reverse {
			filtered = filtered[:opts.Limit]
		} else {
			filtered = filtered[len(filtered)-opts.Limit:]
		}
	}

	result.Entries = filtered
	return result, nil
}

func parseTimestamp(ts string) (time.Time, bool) {
	t, err := time.Parse(auditTimestampLayout, ts)
	if err != nil {
		t, err = time.Parse(time.RFC3339, ts)
	}
	return t, err == nil
}

// FormatDate formats an audit timestamp as YYYY-MM-DD.
func FormatDate(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 10 {
			return ts[:10]
		}
		return ts
	}
	return t.Format(dateLayout)
}

// FormatDateTime formats an audit timestamp as YYYY-MM-DD HH:MM:SS.
func FormatDateTime(ts string) string {
	t, ok := parseTimestamp(ts)
	if !ok {
		if len(ts) >= 19 {
			return ts[:19]
		}
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

// FormatDetails describes an entry for the default log view.
func FormatDetails(e audit.Entry) string {
	details := fmt.Sprintf("%s, %s", pluralScopes(e.ScopesCount), e.Expiry)
	if e.WorkspaceID != "" {
		details = e.WorkspaceID + ", " + details
	}
	if e.BundlePath != "" {
		details += " -> " + e.BundlePath
	}
	return details
}

// FormatDetailsOneline describes an entry for the compact log view.
func FormatDetailsOneline(e audit.Entry) string {
	return fmt.Sprintf("%s %s", pluralScopes(e.ScopesCount), e.Expiry)
}

func pluralScopes(n int) string {
	if n == 1 {
		return "1 scope"
	}
	return fmt.Sprintf("%d scopes", n)
}
