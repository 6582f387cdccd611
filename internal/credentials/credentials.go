package credentials

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PolarWolf314/tokensmith/internal/envelope"
	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
	"github.com/PolarWolf314/tokensmith/internal/scopes"

	validation "github.com/jellydator/validation"
)

// MaxNameLength bounds service token names.
const MaxNameLength = 64

// MaxExpirySeconds is the longest lifetime a time.Duration can hold.
const MaxExpirySeconds = math.MaxInt64 / int64(time.Second)

// CreateSpec is the body submitted when a new service token is created.
type CreateSpec struct {
	Name         string         `json:"name"`
	WorkspaceID  string         `json:"workspaceId"`
	PublicKey    string         `json:"publicKey"`
	Scopes       []scopes.Grant `json:"scopes"`
	ExpiresIn    *int64         `json:"expiresIn,omitempty"`
	EncryptedKey string         `json:"encryptedKey"`
	Nonce        string         `json:"nonce"`
}

// UpdateSpec is the body submitted when an existing service token changes.
// It has no key material fields.
type UpdateSpec struct {
	Name      string         `json:"name"`
	Scopes    []scopes.Grant `json:"scopes"`
	ExpiresIn *int64         `json:"expiresIn,omitempty"`
}

// Issued is the backend's answer to a create.
type Issued struct {
	ServiceToken string `json:"serviceToken"`
}

// Credential is a service token as the backend reports it.
type Credential struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	WorkspaceID string         `json:"workspaceId"`
	PublicKey   string         `json:"publicKey"`
	Scopes      []scopes.Grant `json:"scopes"`
	ExpiresAt   *time.Time     `json:"expiresAt,omitempty"`
}

// WrappedKey is the requester's copy of the workspace key as returned by the
// key distribution endpoint.
type WrappedKey struct {
	EncryptedKey string `json:"encryptedKey"`
	Nonce        string `json:"nonce"`
	Sender       struct {
		PublicKey string `json:"publicKey"`
	} `json:"sender"`
}

// Envelope decodes the wrapped key. Malformed fields are a bad response from
// key distribution, not an authentication failure, so they are ErrPrecondition.
func (w *WrappedKey) Envelope() (*envelope.Envelope, error) {
	ciphertext, err := envelope.DecodeBytes(w.EncryptedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding encrypted key: %v", kerrors.ErrPrecondition, err)
	}
	nonce, err := envelope.DecodeBytes(w.Nonce)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding nonce: %v", kerrors.ErrPrecondition, err)
	}
	sender, err := envelope.DecodeKey(w.Sender.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding sender public key: %v", kerrors.ErrPrecondition, err)
	}
	return &envelope.Envelope{Ciphertext: ciphertext, Nonce: nonce, SenderPublicKey: sender}, nil
}

// ValidateName checks a service token name.
func ValidateName(name string) error {
	err := validation.Validate(name,
		validation.Required.Error("name is required"),
		validation.NewStringRuleWithError(
			func(s string) bool { return strings.TrimSpace(s) != "" },
			validation.NewError("validation_not_blank", "name must not be blank"),
		),
		validation.RuneLength(1, MaxNameLength).Error(fmt.Sprintf("name must be at most %d characters", MaxNameLength)),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", kerrors.ErrValidation, err)
	}
	return nil
}

// Expiry is a token lifetime. The zero value never expires.
type Expiry struct {
	seconds int64
}

// Never is the expiry of a token without an end date.
var Never = Expiry{}

// In returns an expiry after the given number of seconds.
func In(seconds int64) Expiry {
	return Expiry{seconds: seconds}
}

// IsNever reports whether the token never expires.
func (e Expiry) IsNever() bool {
	return e.seconds <= 0
}

// Seconds returns the lifetime for the wire, or nil when the token never
// expires so the field is omitted.
func (e Expiry) Seconds() *int64 {
	if e.IsNever() {
		return nil
	}
	s := e.seconds
	return &s
}

func (e Expiry) String() string {
	if e.IsNever() {
		return "never"
	}
	for _, p := range presets {
		if p.Seconds == e.seconds {
			return p.Label
		}
	}
	if e.seconds > MaxExpirySeconds {
		return strconv.FormatInt(e.seconds, 10) + "s"
	}
	return (time.Duration(e.seconds) * time.Second).String()
}

// Preset is a named lifetime offered for convenience.
type Preset struct {
	Name    string
	Label   string
	Seconds int64
}

var presets = []Preset{
	{Name: "1d", Label: "1 day", Seconds: 86400},
	{Name: "7d", Label: "7 days", Seconds: 604800},
	{Name: "1m", Label: "1 month", Seconds: 2592000},
	{Name: "6m", Label: "6 months", Seconds: 15552000},
	{Name: "12m", Label: "12 months", Seconds: 31104000},
}

// Presets lists the named lifetimes.
func Presets() []Preset {
	return append([]Preset(nil), presets...)
}

// ParseExpiry reads an expiry. Blank input and "never" mean the token never
// expires; they are not a zero lifetime. Otherwise the input is a preset name
// or a positive number of seconds no larger than MaxExpirySeconds.
func ParseExpiry(s string) (Expiry, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "never") {
		return Never, nil
	}

	for _, p := range presets {
		if s == p.Name {
			return In(p.Seconds), nil
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Never, fmt.Errorf("%w: expires-in %q is not a number of seconds or a preset", kerrors.ErrValidation, s)
	}
	if n <= 0 {
		return Never, fmt.Errorf("%w: expires-in must be positive, got %d", kerrors.ErrValidation, n)
	}
	if n > MaxExpirySeconds {
		return Never, fmt.Errorf("%w: expires-in must be at most %d seconds, got %d", kerrors.ErrValidation, MaxExpirySeconds, n)
	}
	return In(n), nil
}
