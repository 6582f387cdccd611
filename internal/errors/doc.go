// Package errors provides typed error values for tokensmith.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
// Issuance errors are the four outcomes a workflow can fail with:
//
//   - ErrValidation: bad scope, name or expiry input. Recoverable.
//   - ErrDecryption: an envelope failed authentication. Fatal for the invocation.
//   - ErrPrecondition: workspace context is missing. Recoverable by re-fetching.
//   - ErrIssuance: the backend rejected the request. The caller decides on retry.
//
// Key store, backend and configuration errors add detail and are usually
// wrapped inside one of the issuance errors.
//
// # Usage
//
// Wrap errors with additional context, joining a detail sentinel where useful:
//
//	return fmt.Errorf("%w: %w", kerrors.ErrPrecondition, kerrors.ErrPrivateKeyNotFound)
//
// Handle errors in the CLI layer:
//
//	result, err := issuer.Issue(ctx, opts)
//	if errors.Is(err, kerrors.ErrValidation) {
//	    // Show the validation message
//	}
package errors
