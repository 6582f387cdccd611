package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PolarWolf314/tokensmith/internal/credentials"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"

	"github.com/go-resty/resty/v2"
)

const (
	encryptedKeyPath = "/api/v2/workspace/{workspaceId}/encrypted-key"
	serviceTokenPath = "/api/v3/service-token"
	serviceTokenByID = "/api/v3/service-token/{id}"
)

// Client talks to the secrets backend. It serves both key distribution and
// credential persistence.
type Client struct {
	http *resty.Client
}

// New creates a client with bearer auth and the given request timeout.
func New(baseURL, token string, timeout time.Duration) *Client {
	cl := resty.New().SetBaseURL(baseURL).SetTimeout(timeout)
	cl.SetHeader("Content-Type", "application/json")
	cl.SetHeader("Accept", "application/json")
	cl.SetHeader("User-Agent", "tokensmith/1.0.0")
	if token != "" {
		cl.SetAuthToken(token)
	}
	return &Client{http: cl}
}

// HTTPClient exposes the underlying transport, e.g. for httpmock.
func (c *Client) HTTPClient() *http.Client {
	return c.http.GetClient()
}

// Error is a non-2xx answer from the backend.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Detail  string `json:"error"`
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Detail
	}
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, msg)
}

func handleError(res *resty.Response, notFound error) error {
	if !res.IsError() {
		return nil
	}

	apiErr, ok := res.Error().(*Error)
	if !ok || apiErr == nil {
		apiErr = &Error{}
	}
	apiErr.Status = res.StatusCode()

	switch res.StatusCode() {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %w", kerrors.ErrUnauthorized, apiErr)
	case http.StatusNotFound:
		if notFound != nil {
			return fmt.Errorf("%w: %w", notFound, apiErr)
		}
	}
	return apiErr
}

// GetWrappedKey returns the requester's envelope of the workspace key.
func (c *Client) GetWrappedKey(ctx context.Context, workspaceID string) (*credentials.WrappedKey, error) {
	var out credentials.WrappedKey
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("workspaceId", workspaceID).
		SetResult(&out).
		SetError(&Error{}).
		Get(encryptedKeyPath)
	if err != nil {
		return nil, fmt.Errorf("fetching workspace key: %w", err)
	}
	if err := handleError(res, kerrors.ErrWrappedKeyNotFound); err != nil {
		return nil, err
	}
	if out.EncryptedKey == "" {
		return nil, kerrors.ErrWrappedKeyNotFound
	}
	return &out, nil
}

// CreateCredential submits a new service token.
func (c *Client) CreateCredential(ctx context.Context, spec credentials.CreateSpec) (*credentials.Issued, error) {
	var out credentials.Issued
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(spec).
		SetResult(&out).
		SetError(&Error{}).
		Post(serviceTokenPath)
	if err != nil {
		return nil, fmt.Errorf("creating service token: %w", err)
	}
	if err := handleError(res, nil); err != nil {
		return nil, err
	}
	if out.ServiceToken == "" {
		return nil, fmt.Errorf("creating service token: backend returned no token")
	}
	return &out, nil
}

// UpdateCredential changes an existing service token's name, scopes and expiry.
func (c *Client) UpdateCredential(ctx context.Context, id string, spec credentials.UpdateSpec) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetBody(spec).
		SetError(&Error{}).
		Patch(serviceTokenByID)
	if err != nil {
		return fmt.Errorf("updating service token: %w", err)
	}
	return handleError(res, kerrors.ErrCredentialNotFound)
}

type credentialEnvelope struct {
	ServiceTokenData credentials.Credential `json:"serviceTokenData"`
}

// GetCredential fetches an existing service token.
func (c *Client) GetCredential(ctx context.Context, id string) (*credentials.Credential, error) {
	var out credentialEnvelope
	res, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetResult(&out).
		SetError(&Error{}).
		Get(serviceTokenByID)
	if err != nil {
		return nil, fmt.Errorf("fetching service token: %w", err)
	}
	if err := handleError(res, kerrors.ErrCredentialNotFound); err != nil {
		return nil, err
	}
	return &out.ServiceTokenData, nil
}
