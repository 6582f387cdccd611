// Package keystore provides the requester's long-lived private key to the
// issuance workflow without any ambient global access.
//
// Two backends exist:
//
//   - file: the key is stored base64-encoded in a 0600 file under
//     $XDG_DATA_HOME/tokensmith/keys. Looser permissions produce a warning but
//     are not enforced.
//   - keyring: the key is stored in the OS keyring (macOS Keychain, Secret
//     Service, Windows Credential Manager, or an encrypted file) via
//     github.com/99designs/keyring.
//
// The key is read once per command and never written anywhere else.
package keystore
