// Package workflows provides high-level orchestration for tokensmith commands.
//
// The Issuer coordinates key distribution, the local key store, the
// credential backend, bundle export and notifications to implement service
// token issuance. It is independent of CLI concerns like flag parsing,
// spinners and output formatting; collaborators are injected as interfaces.
//
// # Create
//
//  1. Validate name, scopes and expiry
//  2. Fetch the requester's envelope of the workspace key
//  3. Open it with the requester's private key
//  4. Generate a fresh key pair for the token
//  5. Seal the workspace key to the new public key
//  6. Submit the token and export the bundle holding the new private key
//
// The new private key never leaves the process except inside the bundle, and
// no bundle is produced when any earlier step fails.
//
// # Update
//
// An update changes name, scopes and expiry only. No key material is read,
// generated or sent.
//
// # Error Handling
//
// Issue returns errors from the internal/errors taxonomy so the CLI can
// pick a message without string matching:
//
//	result, err := issuer.Issue(ctx, opts)
//	if errors.Is(err, kerrors.ErrPrecondition) {
//	    // Ask the user to run keys init or check the workspace id
//	}
//
// Each call sends exactly one notification. The raw error goes to the
// operator log, not to the notifier.
//
// # Log
//
// Log reads the audit trail written by Issue and filters it by workspace,
// name, operation and date.
package workflows
