package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/PolarWolf314/tokensmith/internal/bundle"
	"github.com/PolarWolf314/tokensmith/internal/configs"
	"github.com/PolarWolf314/tokensmith/internal/envelope"
	"github.com/PolarWolf314/tokensmith/internal/keystore"
	"github.com/PolarWolf314/tokensmith/internal/scopes"

	"github.com/jarcoal/httpmock"
)

var testWorkspaceKey = []byte("fedcba9876543210fedcba9876543210")

// grantWorkspaceAccess runs keys init and registers an envelope of the
// workspace key sealed to the new public key, as a workspace admin would.
func grantWorkspaceAccess(t *testing.T) *[envelope.KeySize]byte {
	t.Helper()

	if _, err := runCLI(t, "keys", "init"); err != nil {
		t.Fatalf("keys init failed: %v", err)
	}

	store := &keystore.FileStore{Path: filepath.Join(configs.Settings.KeysPath, "privkey")}
	private, err := store.PrivateKey(context.Background())
	if err != nil {
		t.Fatalf("Failed to load private key: %v", err)
	}
	public, err := envelope.PublicKeyFor(private)
	if err != nil {
		t.Fatalf("PublicKeyFor failed: %v", err)
	}

	admin, err := envelope.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair failed: %v", err)
	}
	sealed, err := envelope.Encrypt(testWorkspaceKey, public, admin.PrivateKey)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	responder, err := httpmock.NewJsonResponder(200, map[string]any{
		"encryptedKey": envelope.EncodeBytes(sealed.Ciphertext),
		"nonce":        envelope.EncodeBytes(sealed.Nonce[:]),
		"sender":       map[string]string{"publicKey": envelope.EncodeKey(admin.PublicKey)},
	})
	if err != nil {
		t.Fatalf("NewJsonResponder failed: %v", err)
	}
	httpmock.RegisterResponder("GET", testAPIURL+"/api/v2/workspace/ws-1/encrypted-key", responder)
	return public
}

// recordBody registers a responder that stores the decoded request body.
func recordBody(t *testing.T, method, url string, status int, response any) *map[string]any {
	t.Helper()
	body := map[string]any{}
	httpmock.RegisterResponder(method, url, func(req *http.Request) (*http.Response, error) {
		data, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(data, &body); err != nil {
			return nil, err
		}
		return httpmock.NewJsonResponse(status, response)
	})
	return &body
}

// decodeGrants reads the scopes of a recorded request body back into grants.
func decodeGrants(t *testing.T, raw any) []scopes.Grant {
	t.Helper()
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var grants []scopes.Grant
	if err := json.Unmarshal(data, &grants); err != nil {
		t.Fatalf("scopes are not grants: %v\n%s", err, data)
	}
	return grants
}

func TestTokenCreate(t *testing.T) {
	tempDir := setupTestEnvironment(t)
	mockBackend(t)
	requesterPublic := grantWorkspaceAccess(t)

	body := recordBody(t, "POST", testAPIURL+"/api/v3/service-token", 200, map[string]string{"serviceToken": "st.v3.ci"})

	output, err := runCLI(t, "token", "create", "--name", "ci-bot", "--workspace", "ws-1", "--scope", "read:prod")
	if err != nil {
		t.Fatalf("token create failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "Successfully created service token") {
		t.Errorf("Expected success message, got: %s", output)
	}
	if strings.Count(output, "service token\n") > 1 {
		t.Errorf("Expected a single notification, got: %s", output)
	}

	if _, ok := (*body)["expiresIn"]; ok {
		t.Errorf("expiresIn must be omitted when the token never expires: %v", *body)
	}

	bundlePath := filepath.Join(tempDir, "tokensmith_ci-bot.json")
	data, err := os.ReadFile(bundlePath)
	if err != nil {
		t.Fatalf("Bundle was not written: %v", err)
	}
	var b bundle.Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		t.Fatalf("Bundle is not JSON: %v", err)
	}
	if b.ServiceToken != "st.v3.ci" || b.PublicKey != (*body)["publicKey"] {
		t.Errorf("Bundle does not match the submission: %+v", b)
	}

	tokenPrivate, err := envelope.DecodeKey(b.PrivateKey)
	if err != nil {
		t.Fatalf("DecodeKey failed: %v", err)
	}
	ciphertext, _ := envelope.DecodeBytes((*body)["encryptedKey"].(string))
	nonce, _ := envelope.DecodeBytes((*body)["nonce"].(string))
	got, err := envelope.Decrypt(ciphertext, nonce, requesterPublic, tokenPrivate)
	if err != nil {
		t.Fatalf("Token cannot open the workspace key: %v", err)
	}
	if string(got) != string(testWorkspaceKey) {
		t.Errorf("Recovered key does not match the workspace key")
	}

	entries, err := os.ReadFile(filepath.Join(tempDir, "data", "audit.jsonl"))
	if err != nil {
		t.Fatalf("Audit log not written: %v", err)
	}
	if !strings.Contains(string(entries), `"op":"create"`) || strings.Contains(string(entries), "st.v3.ci") {
		t.Errorf("Unexpected audit log: %s", entries)
	}
}

func TestTokenCreate_ToStdout(t *testing.T) {
	setupTestEnvironment(t)
	mockBackend(t)
	grantWorkspaceAccess(t)
	recordBody(t, "POST", testAPIURL+"/api/v3/service-token", 200, map[string]string{"serviceToken": "st.v3.ci"})

	ResetGlobalState()
	stdout, stderr, err := captureStreams(func() error {
		return createTestCLI("token", "create", "-n", "ci-bot", "-w", "ws-1", "-s", "read:prod", "-e", "7d", "--out", "-").Execute()
	})
	if err != nil {
		t.Fatalf("token create failed: %v\nOutput: %s%s", err, stdout, stderr)
	}

	var b bundle.Bundle
	if err := json.Unmarshal([]byte(stdout), &b); err != nil {
		t.Fatalf("stdout is not a bundle: %v\n%s", err, stdout)
	}
	if b.ServiceToken != "st.v3.ci" {
		t.Errorf("unexpected bundle: %+v", b)
	}
	if !strings.Contains(stderr, "Successfully created service token") {
		t.Errorf("Expected notification on stderr, got: %s", stderr)
	}
}

func TestTokenCreate_InvalidScope(t *testing.T) {
	tempDir := setupTestEnvironment(t)
	mockBackend(t)

	output, err := runCLI(t, "token", "create", "--name", "ci-bot", "--workspace", "ws-1", "--scope", "admin:prod")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("Expected ErrReported, got %v", err)
	}
	if !strings.Contains(output, "Failed to create service token") {
		t.Errorf("Expected failure message, got: %s", output)
	}
	if httpmock.GetTotalCallCount() != 0 {
		t.Errorf("No request may be sent for invalid input")
	}
	if _, err := os.Stat(filepath.Join(tempDir, "tokensmith_ci-bot.json")); !os.IsNotExist(err) {
		t.Errorf("No bundle may be written on failure")
	}
}

func TestTokenCreate_WithoutPrivateKey(t *testing.T) {
	setupTestEnvironment(t)
	mockBackend(t)
	httpmock.RegisterResponder("GET", testAPIURL+"/api/v2/workspace/ws-1/encrypted-key",
		httpmock.NewStringResponder(200, `{"encryptedKey":"eA==","nonce":"eA==","sender":{"publicKey":"eA=="}}`).
			HeaderSet(http.Header{"Content-Type": []string{"application/json"}}))

	output, err := runCLI(t, "token", "create", "--name", "ci-bot", "--workspace", "ws-1", "--scope", "read:prod")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("Expected ErrReported, got %v", err)
	}
	if !strings.Contains(output, "keys init") {
		t.Errorf("Expected a keys init hint, got: %s", output)
	}
}

func TestTokenCreate_BackendRejects(t *testing.T) {
	setupTestEnvironment(t)
	mockBackend(t)
	grantWorkspaceAccess(t)

	responder, _ := httpmock.NewJsonResponder(400, map[string]string{"message": "Environment staging does not exist"})
	httpmock.RegisterResponder("POST", testAPIURL+"/api/v3/service-token", responder)

	output, err := runCLI(t, "token", "create", "--name", "ci-bot", "--workspace", "ws-1", "--scope", "read:staging")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("Expected ErrReported, got %v", err)
	}
	if !strings.Contains(output, "Failed to create service token") {
		t.Errorf("Expected failure message, got: %s", output)
	}
	if strings.Contains(output, "does not exist") {
		t.Errorf("Raw backend error must only appear with --verbose: %s", output)
	}

	output, _ = runCLI(t, "token", "create", "--verbose", "--name", "ci-bot", "--workspace", "ws-1", "--scope", "read:staging")
	if !strings.Contains(output, "does not exist") {
		t.Errorf("Expected raw error with --verbose, got: %s", output)
	}
}

func TestTokenUpdate(t *testing.T) {
	setupTestEnvironment(t)
	mockBackend(t)

	body := recordBody(t, "PATCH", testAPIURL+"/api/v3/service-token/abc123", 200, map[string]any{})

	output, err := runCLI(t, "token", "update", "abc123", "--name", "ci-bot", "--scope", "readWrite:dev:/api/", "--expires-in", "1d")
	if err != nil {
		t.Fatalf("token update failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(output, "Successfully updated service token") {
		t.Errorf("Expected success message, got: %s", output)
	}

	for _, field := range []string{"publicKey", "encryptedKey", "nonce"} {
		if _, ok := (*body)[field]; ok {
			t.Errorf("update payload must not contain %s", field)
		}
	}
	want := []scopes.Grant{{
		Permissions: []scopes.Permission{scopes.PermissionRead, scopes.PermissionWrite},
		Environment: "dev",
		SecretPath:  "/api",
	}}
	if got := decodeGrants(t, (*body)["scopes"]); !reflect.DeepEqual(got, want) {
		t.Errorf("unexpected scopes: %+v", got)
	}
	if (*body)["expiresIn"] != float64(86400) {
		t.Errorf("expiresIn = %v, want 86400", (*body)["expiresIn"])
	}
}

func TestTokenUpdate_KeepsCurrentScopes(t *testing.T) {
	setupTestEnvironment(t)
	mockBackend(t)

	httpmock.RegisterResponder("GET", testAPIURL+"/api/v3/service-token/abc123",
		httpmock.NewStringResponder(200, `{"serviceTokenData":{"id":"abc123","name":"ci-bot","scopes":[{"permissions":["read"],"environment":"prod","secretPath":"/"}]}}`).
			HeaderSet(http.Header{"Content-Type": []string{"application/json"}}))
	body := recordBody(t, "PATCH", testAPIURL+"/api/v3/service-token/abc123", 200, map[string]any{})

	output, err := runCLI(t, "token", "update", "abc123", "--name", "ci-bot-renamed")
	if err != nil {
		t.Fatalf("token update failed: %v\nOutput: %s", err, output)
	}

	if (*body)["name"] != "ci-bot-renamed" {
		t.Errorf("name = %v, want ci-bot-renamed", (*body)["name"])
	}
	want := []scopes.Grant{{
		Permissions: []scopes.Permission{scopes.PermissionRead},
		Environment: "prod",
		SecretPath:  "/",
	}}
	if got := decodeGrants(t, (*body)["scopes"]); !reflect.DeepEqual(got, want) {
		t.Errorf("current scopes were not kept: %+v", got)
	}
}

func TestTokenShow_JSON(t *testing.T) {
	setupTestEnvironment(t)
	mockBackend(t)

	httpmock.RegisterResponder("GET", testAPIURL+"/api/v3/service-token/abc123",
		httpmock.NewStringResponder(200, `{"serviceTokenData":{"id":"abc123","name":"ci-bot","scopes":[{"permissions":["read","write"],"environment":"dev","secretPath":"/api"}]}}`).
			HeaderSet(http.Header{"Content-Type": []string{"application/json"}}))

	output, err := runCLI(t, "token", "show", "abc123", "--json")
	if err != nil {
		t.Fatalf("token show failed: %v\nOutput: %s", err, output)
	}

	var shown tokenShowOutput
	if err := json.Unmarshal([]byte(output), &shown); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, output)
	}
	if len(shown.Scopes) != 1 || shown.Scopes[0].Permission != "readWrite" {
		t.Errorf("unexpected scopes: %+v", shown.Scopes)
	}
}

func TestTokenShow_NotFound(t *testing.T) {
	setupTestEnvironment(t)
	mockBackend(t)

	responder, _ := httpmock.NewJsonResponder(404, map[string]string{"message": "Not found"})
	httpmock.RegisterResponder("GET", testAPIURL+"/api/v3/service-token/nope", responder)

	output, err := runCLI(t, "token", "show", "nope")
	if !errors.Is(err, ErrReported) {
		t.Fatalf("Expected ErrReported, got %v", err)
	}
	if !strings.Contains(output, "No service token with that id exists") {
		t.Errorf("Expected not-found hint, got: %s", output)
	}
}
