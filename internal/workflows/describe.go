package workflows

import (
	"context"
	"fmt"
	"time"

	"github.com/PolarWolf314/tokensmith/internal/scopes"
)

// Description is an existing service token in the shape IssueOptions takes,
// so it can be edited and submitted again.
type Description struct {
	ID          string
	Name        string
	WorkspaceID string
	Scopes      []scopes.RawScope
	ExpiresAt   *time.Time
}

// Options returns update options prefilled from the description. ExpiresIn
// is left blank; the backend only accepts a new lifetime.
func (d *Description) Options() IssueOptions {
	return IssueOptions{
		CredentialID: d.ID,
		Name:         d.Name,
		WorkspaceID:  d.WorkspaceID,
		Scopes:       append([]scopes.RawScope(nil), d.Scopes...),
	}
}

// Describe fetches an existing service token and maps its grants back to
// permission labels.
func (i *Issuer) Describe(ctx context.Context, id string) (*Description, error) {
	cred, err := i.Store.GetCredential(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching service token %s: %w", id, err)
	}

	raw := make([]scopes.RawScope, 0, len(cred.Scopes))
	for _, g := range cred.Scopes {
		raw = append(raw, scopes.ToRaw(g))
	}

	credID := cred.ID
	if credID == "" {
		credID = id
	}
	return &Description{
		ID:          credID,
		Name:        cred.Name,
		WorkspaceID: cred.WorkspaceID,
		Scopes:      raw,
		ExpiresAt:   cred.ExpiresAt,
	}, nil
}
