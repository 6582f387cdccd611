package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/tokensmith/internal/audit"
	"github.com/PolarWolf314/tokensmith/internal/bundle"
	"github.com/PolarWolf314/tokensmith/internal/credentials"
	"github.com/PolarWolf314/tokensmith/internal/envelope"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
	logger "github.com/PolarWolf314/tokensmith/internal/logging"
	"github.com/PolarWolf314/tokensmith/internal/notify"
	"github.com/PolarWolf314/tokensmith/internal/scopes"
)

// KeyDistributor hands out the requester's envelope of a workspace key.
type KeyDistributor interface {
	GetWrappedKey(ctx context.Context, workspaceID string) (*credentials.WrappedKey, error)
}

// PrivateKeyProvider yields the requester's long-lived private key.
type PrivateKeyProvider interface {
	PrivateKey(ctx context.Context) (*[envelope.KeySize]byte, error)
}

// CredentialStore persists service tokens.
type CredentialStore interface {
	CreateCredential(ctx context.Context, spec credentials.CreateSpec) (*credentials.Issued, error)
	UpdateCredential(ctx context.Context, id string, spec credentials.UpdateSpec) error
	GetCredential(ctx context.Context, id string) (*credentials.Credential, error)
}

// Notifier shows the outcome of an invocation to the user.
type Notifier interface {
	Notify(message string, kind notify.Kind)
}

// BundleExporter delivers a freshly issued bundle. It returns where the
// bundle went.
type BundleExporter interface {
	Export(name string, b *bundle.Bundle) (string, error)
}

// Mode tells whether an invocation creates or updates a token.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

// Issuer creates and updates service tokens. It keeps no state between
// calls and may be shared across goroutines as long as its collaborators
// can.
type Issuer struct {
	Keys        KeyDistributor
	PrivateKeys PrivateKeyProvider
	Store       CredentialStore
	Notifier    Notifier
	Exporter    BundleExporter

	// Logger receives the raw error detail. The user only sees the
	// notification.
	Logger logger.Logger

	// Audit is optional.
	Audit *audit.Trail
}

// IssueOptions configures one create or update.
type IssueOptions struct {
	// CredentialID selects update mode when set.
	CredentialID string

	Name string

	// WorkspaceID is required for create and ignored for update.
	WorkspaceID string

	Scopes []scopes.RawScope

	// ExpiresIn is a preset name, a number of seconds, "never" or blank.
	ExpiresIn string
}

// Mode reports which path the options select.
func (o IssueOptions) Mode() Mode {
	if o.CredentialID != "" {
		return ModeUpdate
	}
	return ModeCreate
}

// IssueResult contains the outcome of an issuance.
type IssueResult struct {
	Mode         Mode
	CredentialID string
	Name         string
	Grants       []scopes.Grant
	Expiry       credentials.Expiry

	// PublicKey is the new token's public key (create only).
	PublicKey string

	// BundlePath is where the exporter put the bundle (create only).
	BundlePath string
}

// Issue creates a service token when opts.CredentialID is empty and updates
// it otherwise.
//
// Returns ErrValidation for bad input, before any key or network work.
// Returns ErrPrecondition if the workspace key or the requester's private key
// is unavailable.
// Returns ErrDecryption if the workspace key envelope fails authentication.
// Returns ErrIssuance if the backend rejects the token or the bundle cannot
// be exported.
//
// Exactly one notification is sent per call.
func (i *Issuer) Issue(ctx context.Context, opts IssueOptions) (*IssueResult, error) {
	mode := opts.Mode()

	var (
		result *IssueResult
		err    error
	)
	if mode == ModeUpdate {
		result, err = i.update(ctx, opts)
	} else {
		result, err = i.create(ctx, opts)
	}

	if err != nil {
		i.Logger.Errorf("Failed to %s service token %q: %v", mode, opts.Name, err)
		i.notify(fmt.Sprintf("Failed to %s service token", mode), notify.Error)
		return nil, err
	}

	i.Audit.Log(audit.Entry{
		Operation:      string(mode),
		CredentialName: result.Name,
		CredentialID:   result.CredentialID,
		WorkspaceID:    opts.WorkspaceID,
		ScopesCount:    len(result.Grants),
		Expiry:         result.Expiry.String(),
		BundlePath:     result.BundlePath,
	})
	i.notify(fmt.Sprintf("Successfully %sd service token", mode), notify.Success)
	return result, nil
}

func (i *Issuer) notify(message string, kind notify.Kind) {
	if i.Notifier != nil {
		i.Notifier.Notify(message, kind)
	}
}

type validated struct {
	grants []scopes.Grant
	expiry credentials.Expiry
}

func validate(opts IssueOptions) (*validated, error) {
	if err := credentials.ValidateName(opts.Name); err != nil {
		return nil, err
	}
	grants, err := scopes.NormalizeSet(opts.Scopes)
	if err != nil {
		return nil, err
	}
	expiry, err := credentials.ParseExpiry(opts.ExpiresIn)
	if err != nil {
		return nil, err
	}
	return &validated{grants: grants, expiry: expiry}, nil
}

func (i *Issuer) create(ctx context.Context, opts IssueOptions) (*IssueResult, error) {
	v, err := validate(opts)
	if err != nil {
		return nil, err
	}

	if opts.WorkspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", kerrors.ErrPrecondition)
	}

	wrapped, err := i.Keys.GetWrappedKey(ctx, opts.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching workspace key: %w", kerrors.ErrPrecondition, err)
	}
	if wrapped == nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrPrecondition, kerrors.ErrWrappedKeyNotFound)
	}

	requesterKey, err := i.PrivateKeys.PrivateKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: loading private key: %w", kerrors.ErrPrecondition, err)
	}

	env, err := wrapped.Envelope()
	if err != nil {
		return nil, err
	}
	workspaceKey, err := env.Open(requesterKey)
	if err != nil {
		return nil, err
	}
	defer wipe(workspaceKey)

	keyPair, err := envelope.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("generating key pair: %w", err)
	}
	defer keyPair.Wipe()

	sealed, err := envelope.Encrypt(workspaceKey, keyPair.PublicKey, requesterKey)
	if err != nil {
		return nil, fmt.Errorf("sealing workspace key: %w", err)
	}

	publicKey := envelope.EncodeKey(keyPair.PublicKey)
	i.Logger.Debugf("Submitting service token %q with %d scope(s), expiry %s", opts.Name, len(v.grants), v.expiry)

	issued, err := i.Store.CreateCredential(ctx, credentials.CreateSpec{
		Name:         opts.Name,
		WorkspaceID:  opts.WorkspaceID,
		PublicKey:    publicKey,
		Scopes:       v.grants,
		ExpiresIn:    v.expiry.Seconds(),
		EncryptedKey: envelope.EncodeBytes(sealed.Ciphertext),
		Nonce:        envelope.EncodeBytes(sealed.Nonce[:]),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrIssuance, err)
	}

	path, err := i.Exporter.Export(opts.Name, &bundle.Bundle{
		PublicKey:    publicKey,
		PrivateKey:   envelope.EncodeKey(keyPair.PrivateKey),
		ServiceToken: issued.ServiceToken,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: exporting bundle: %w", kerrors.ErrIssuance, err)
	}
	i.Logger.Infof("Bundle for %q written to %s", opts.Name, path)

	return &IssueResult{
		Mode:       ModeCreate,
		Name:       opts.Name,
		Grants:     v.grants,
		Expiry:     v.expiry,
		PublicKey:  publicKey,
		BundlePath: path,
	}, nil
}

func (i *Issuer) update(ctx context.Context, opts IssueOptions) (*IssueResult, error) {
	v, err := validate(opts)
	if err != nil {
		return nil, err
	}

	i.Logger.Debugf("Updating service token %s with %d scope(s), expiry %s", opts.CredentialID, len(v.grants), v.expiry)

	err = i.Store.UpdateCredential(ctx, opts.CredentialID, credentials.UpdateSpec{
		Name:      opts.Name,
		Scopes:    v.grants,
		ExpiresIn: v.expiry.Seconds(),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", kerrors.ErrIssuance, err)
	}

	return &IssueResult{
		Mode:         ModeUpdate,
		CredentialID: opts.CredentialID,
		Name:         opts.Name,
		Grants:       v.grants,
		Expiry:       v.expiry,
	}, nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
