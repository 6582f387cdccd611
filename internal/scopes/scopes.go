package scopes

import (
	"fmt"
	"strings"

	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"

	validation "github.com/jellydator/validation"
)

// Permission is a single capability granted on a secret path.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
)

// Label is the user-facing name for a permission set.
type Label string

const (
	LabelRead      Label = "read"
	LabelReadWrite Label = "readWrite"
)

const (
	// RootPath is the default secret path and the only one allowed to end in a slash.
	RootPath = "/"

	// MaxEnvironmentLength bounds environment slugs.
	MaxEnvironmentLength = 50
)

var permissionsByLabel = map[Label][]Permission{
	LabelRead:      {PermissionRead},
	LabelReadWrite: {PermissionRead, PermissionWrite},
}

// RawScope is a scope as entered by the user.
type RawScope struct {
	Permission  string
	Environment string
	SecretPath  string
}

// Grant is a normalized scope as submitted to the backend.
type Grant struct {
	Permissions []Permission `json:"permissions"`
	Environment string       `json:"environment"`
	SecretPath  string       `json:"secretPath"`
}

// String renders the grant in the same form Parse accepts.
func (g Grant) String() string {
	return fmt.Sprintf("%s:%s:%s", LabelFor(g.Permissions), g.Environment, g.SecretPath)
}

var notBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// Validate checks the raw scope without normalizing it.
func (r *RawScope) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Permission,
			validation.Required,
			validation.In(string(LabelRead), string(LabelReadWrite)).
				Error("must be one of read, readWrite"),
		),
		validation.Field(&r.Environment,
			validation.Required,
			notBlank,
			validation.RuneLength(1, MaxEnvironmentLength),
		),
		validation.Field(&r.SecretPath,
			validation.Required,
		),
	)
}

// Normalize validates a raw scope and maps it to a grant. A single trailing
// slash is stripped from the secret path unless the path is the root.
func Normalize(raw RawScope) (Grant, error) {
	if err := raw.Validate(); err != nil {
		return Grant{}, fmt.Errorf("%w: scope: %v", kerrors.ErrValidation, err)
	}

	perms := permissionsByLabel[Label(raw.Permission)]
	return Grant{
		Permissions: append([]Permission(nil), perms...),
		Environment: raw.Environment,
		SecretPath:  normalizePath(raw.SecretPath),
	}, nil
}

func normalizePath(p string) string {
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return p[:len(p)-1]
	}
	return p
}

// ValidateSet checks that at least one scope was supplied.
func ValidateSet(raw []RawScope) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: at least one scope is required", kerrors.ErrValidation)
	}
	return nil
}

// NormalizeSet validates and normalizes every scope, preserving order.
func NormalizeSet(raw []RawScope) ([]Grant, error) {
	if err := ValidateSet(raw); err != nil {
		return nil, err
	}

	grants := make([]Grant, 0, len(raw))
	for i, r := range raw {
		g, err := Normalize(r)
		if err != nil {
			return nil, fmt.Errorf("scope %d: %w", i+1, err)
		}
		grants = append(grants, g)
	}
	return grants, nil
}

// LabelFor maps a permission set back to its label. Any set that includes
// write is shown as readWrite.
func LabelFor(perms []Permission) Label {
	for _, p := range perms {
		if p == PermissionWrite {
			return LabelReadWrite
		}
	}
	return LabelRead
}

// ToRaw turns a stored grant back into editable input.
func ToRaw(g Grant) RawScope {
	return RawScope{
		Permission:  string(LabelFor(g.Permissions)),
		Environment: g.Environment,
		SecretPath:  g.SecretPath,
	}
}

// Parse reads the command-line form permission:environment[:path]. The path
// defaults to the root. Parse does not validate; use Normalize for that.
func Parse(s string) (RawScope, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return RawScope{}, fmt.Errorf("%w: scope %q must look like permission:environment[:path]", kerrors.ErrValidation, s)
	}

	raw := RawScope{
		Permission:  parts[0],
		Environment: parts[1],
		SecretPath:  RootPath,
	}
	if len(parts) == 3 {
		raw.SecretPath = parts[2]
	}
	return raw, nil
}
