package scopes

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  RawScope
		want Grant
	}{
		{
			name: "read strips trailing slash",
			raw:  RawScope{Permission: "read", Environment: "dev", SecretPath: "/foo/"},
			want: Grant{Permissions: []Permission{PermissionRead}, Environment: "dev", SecretPath: "/foo"},
		},
		{
			name: "root stays unchanged",
			raw:  RawScope{Permission: "read", Environment: "prod", SecretPath: "/"},
			want: Grant{Permissions: []Permission{PermissionRead}, Environment: "prod", SecretPath: "/"},
		},
		{
			name: "readWrite expands to read and write",
			raw:  RawScope{Permission: "readWrite", Environment: "staging", SecretPath: "/api/keys"},
			want: Grant{Permissions: []Permission{PermissionRead, PermissionWrite}, Environment: "staging", SecretPath: "/api/keys"},
		},
		{
			name: "only one trailing slash is stripped",
			raw:  RawScope{Permission: "read", Environment: "dev", SecretPath: "/foo//"},
			want: Grant{Permissions: []Permission{PermissionRead}, Environment: "dev", SecretPath: "/foo/"},
		},
		{
			name: "environment at length bound",
			raw:  RawScope{Permission: "read", Environment: strings.Repeat("e", MaxEnvironmentLength), SecretPath: "/"},
			want: Grant{Permissions: []Permission{PermissionRead}, Environment: strings.Repeat("e", MaxEnvironmentLength), SecretPath: "/"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw)
			if err != nil {
				t.Fatalf("Normalize failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%+v) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  RawScope
	}{
		{"unknown permission", RawScope{Permission: "admin", Environment: "dev", SecretPath: "/"}},
		{"empty permission", RawScope{Permission: "", Environment: "dev", SecretPath: "/"}},
		{"label is case sensitive", RawScope{Permission: "ReadWrite", Environment: "dev", SecretPath: "/"}},
		{"empty environment", RawScope{Permission: "read", Environment: "", SecretPath: "/"}},
		{"blank environment", RawScope{Permission: "read", Environment: "   ", SecretPath: "/"}},
		{"environment too long", RawScope{Permission: "read", Environment: strings.Repeat("e", MaxEnvironmentLength+1), SecretPath: "/"}},
		{"empty secret path", RawScope{Permission: "read", Environment: "dev", SecretPath: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.raw)
			if !errors.Is(err, kerrors.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestNormalize_DoesNotShareSlices(t *testing.T) {
	a, err := Normalize(RawScope{Permission: "readWrite", Environment: "dev", SecretPath: "/"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	a.Permissions[0] = "mutated"

	b, err := Normalize(RawScope{Permission: "readWrite", Environment: "dev", SecretPath: "/"})
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if b.Permissions[0] != PermissionRead {
		t.Errorf("mutating one grant leaked into another: %v", b.Permissions)
	}
}

func TestValidateSet(t *testing.T) {
	if err := ValidateSet(nil); !errors.Is(err, kerrors.ErrValidation) {
		t.Errorf("ValidateSet(nil): expected ErrValidation, got %v", err)
	}
	if err := ValidateSet([]RawScope{}); !errors.Is(err, kerrors.ErrValidation) {
		t.Errorf("ValidateSet([]): expected ErrValidation, got %v", err)
	}
	if err := ValidateSet([]RawScope{{Permission: "read", Environment: "dev", SecretPath: "/"}}); err != nil {
		t.Errorf("ValidateSet with one scope: unexpected error %v", err)
	}
}

func TestNormalizeSet_PreservesOrder(t *testing.T) {
	raw := []RawScope{
		{Permission: "readWrite", Environment: "prod", SecretPath: "/b/"},
		{Permission: "read", Environment: "dev", SecretPath: "/"},
		{Permission: "read", Environment: "prod", SecretPath: "/a"},
	}

	grants, err := NormalizeSet(raw)
	if err != nil {
		t.Fatalf("NormalizeSet failed: %v", err)
	}

	want := []string{"readWrite:prod:/b", "read:dev:/", "read:prod:/a"}
	for i, g := range grants {
		if g.String() != want[i] {
			t.Errorf("grant %d = %s, want %s", i, g, want[i])
		}
	}
}

func TestNormalizeSet_ReportsIndex(t *testing.T) {
	raw := []RawScope{
		{Permission: "read", Environment: "dev", SecretPath: "/"},
		{Permission: "admin", Environment: "dev", SecretPath: "/"},
	}

	_, err := NormalizeSet(raw)
	if !errors.Is(err, kerrors.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if !strings.Contains(err.Error(), "scope 2") {
		t.Errorf("error should name the failing scope, got: %v", err)
	}
}

func TestLabelFor(t *testing.T) {
	tests := []struct {
		perms []Permission
		want  Label
	}{
		{[]Permission{PermissionRead}, LabelRead},
		{[]Permission{PermissionRead, PermissionWrite}, LabelReadWrite},
		{[]Permission{PermissionWrite}, LabelReadWrite},
		{nil, LabelRead},
	}

	for _, tt := range tests {
		if got := LabelFor(tt.perms); got != tt.want {
			t.Errorf("LabelFor(%v) = %s, want %s", tt.perms, got, tt.want)
		}
	}
}

func TestToRaw_RoundTripsThroughNormalize(t *testing.T) {
	g := Grant{Permissions: []Permission{PermissionRead, PermissionWrite}, Environment: "prod", SecretPath: "/db"}

	back, err := Normalize(ToRaw(g))
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if !reflect.DeepEqual(back, g) {
		t.Errorf("got %+v, want %+v", back, g)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    RawScope
		wantErr bool
	}{
		{"read:dev", RawScope{Permission: "read", Environment: "dev", SecretPath: "/"}, false},
		{"readWrite:prod:/api/", RawScope{Permission: "readWrite", Environment: "prod", SecretPath: "/api/"}, false},
		{"read:dev:/a:b", RawScope{Permission: "read", Environment: "dev", SecretPath: "/a:b"}, false},
		{"read", RawScope{}, true},
		{"", RawScope{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				if !errors.Is(err, kerrors.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
