package errors

import "errors"

// Issuance errors form the taxonomy every workflow reports through.
var (
	// ErrValidation indicates bad user input (name, scopes, expiry). It is
	// always reported before any cryptographic or network work happens.
	ErrValidation = errors.New("invalid input")

	// ErrDecryption indicates an envelope failed authentication. Retrying with
	// the same inputs cannot succeed.
	ErrDecryption = errors.New("failed to decrypt envelope")

	// ErrPrecondition indicates the workspace context (workspace id, wrapped
	// workspace key, requester private key) is missing or unavailable.
	ErrPrecondition = errors.New("issuance precondition not met")

	// ErrIssuance indicates the backend rejected a create or update, or the
	// credential bundle could not be delivered.
	ErrIssuance = errors.New("credential issuance failed")
)

// Key store errors indicate problems with the requester's long-lived key.
var (
	// ErrPrivateKeyNotFound indicates no private key has been stored yet.
	ErrPrivateKeyNotFound = errors.New("private key not found")

	// ErrPrivateKeyExists indicates a key is already stored and would be overwritten.
	ErrPrivateKeyExists = errors.New("private key already exists")

	// ErrInvalidPrivateKey indicates the stored key is malformed.
	ErrInvalidPrivateKey = errors.New("invalid or unsupported private key format")

	// ErrUnknownKeyStore indicates the configured key store backend is not supported.
	ErrUnknownKeyStore = errors.New("unknown key store backend")
)

// Backend errors indicate issues talking to the secrets backend.
var (
	// ErrWrappedKeyNotFound indicates the backend holds no workspace key for the requester.
	ErrWrappedKeyNotFound = errors.New("workspace key not found for current user")

	// ErrCredentialNotFound indicates the referenced service token does not exist.
	ErrCredentialNotFound = errors.New("service token not found")

	// ErrUnauthorized indicates the backend rejected the auth token.
	ErrUnauthorized = errors.New("not authorized")
)

// Configuration and output errors.
var (
	// ErrInvalidConfig indicates the configuration file is malformed.
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrBundleExists indicates a bundle file would be overwritten.
	ErrBundleExists = errors.New("credential bundle already exists")

	// ErrAuditDisabled indicates no audit log path is configured.
	ErrAuditDisabled = errors.New("audit log is disabled")

	// ErrInvalidDateFormat indicates a --since or --until date is not YYYY-MM-DD.
	ErrInvalidDateFormat = errors.New("invalid date format")
)
