// Package envelope provides the asymmetric envelope codec used to hand a
// workspace key from one keyholder to another.
//
// # Encryption Architecture
//
// Every workspace has a single symmetric workspace key. It is never stored in
// plaintext by the backend; instead each member holds an envelope: the key
// boxed with NaCl box (Curve25519, XSalsa20, Poly1305) for the member's public
// key and authenticated by the sender's private key.
//
// Issuing a service token re-wraps the workspace key:
//
//  1. The requester opens their own envelope with their long-lived private key
//  2. A fresh key pair is generated for the service token
//  3. The workspace key is boxed for the new public key, with the requester as sender
//
// # Nonces
//
// Encrypt always draws a 24-byte nonce from crypto/rand. There is no API that
// accepts a caller-supplied nonce for encryption, so a nonce cannot be reused
// with the same key pair by construction.
//
// # Wire Format
//
// Keys, ciphertexts and nonces travel as standard base64, the same encoding
// the backend and its browser client use.
package envelope
