package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	kerrors "github.com/PolarWolf314/tokensmith/internal/errors"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/nacl/box"
)

const (
	// KeySize is the length of Curve25519 public and private keys.
	KeySize = 32
	// NonceSize is the length of an XSalsa20 nonce.
	NonceSize = 24
)

// randReader is the entropy source for keys and nonces. Tests swap it out.
var randReader io.Reader = rand.Reader

// KeyPair is a box key pair. The private key stays with the process that
// generated it.
type KeyPair struct {
	PublicKey  *[KeySize]byte
	PrivateKey *[KeySize]byte
}

// Sealed is the output of Encrypt: the boxed message and the nonce it was
// sealed under.
type Sealed struct {
	Ciphertext []byte
	Nonce      [NonceSize]byte
}

// Envelope is a workspace key boxed for one recipient by one sender.
type Envelope struct {
	Ciphertext      []byte
	Nonce           []byte
	SenderPublicKey *[KeySize]byte
}

// GenerateKeyPair creates a fresh key pair from crypto/rand.
func GenerateKeyPair() (*KeyPair, error) {
	pub, priv, err := box.GenerateKey(randReader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate box key pair: %w", err)
	}
	return &KeyPair{PublicKey: pub, PrivateKey: priv}, nil
}

// PublicKeyFor derives the public key that belongs to privateKey.
func PublicKeyFor(privateKey *[KeySize]byte) (*[KeySize]byte, error) {
	pub, err := curve25519.X25519(privateKey[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive public key: %w", err)
	}

	var key [KeySize]byte
	copy(key[:], pub)
	return &key, nil
}

// Wipe zeroes the private key. The key pair cannot decrypt afterwards.
func (kp *KeyPair) Wipe() {
	if kp == nil || kp.PrivateKey == nil {
		return
	}
	for i := range kp.PrivateKey {
		kp.PrivateKey[i] = 0
	}
}

// Encrypt boxes plaintext for recipientPublicKey, authenticated by
// senderPrivateKey. A new random nonce is drawn for every call.
func Encrypt(plaintext []byte, recipientPublicKey, senderPrivateKey *[KeySize]byte) (*Sealed, error) {
	if recipientPublicKey == nil || senderPrivateKey == nil {
		return nil, fmt.Errorf("failed to encrypt: missing key")
	}

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(randReader, nonce[:]); err != nil {
		return nil, fmt.Errorf("failed to read nonce: %w", err)
	}

	ciphertext := box.Seal(nil, plaintext, &nonce, recipientPublicKey, senderPrivateKey)
	return &Sealed{Ciphertext: ciphertext, Nonce: nonce}, nil
}

// Decrypt opens a box sealed by senderPublicKey for recipientPrivateKey.
// Any authentication failure returns ErrDecryption and no plaintext.
func Decrypt(ciphertext, nonce []byte, senderPublicKey, recipientPrivateKey *[KeySize]byte) ([]byte, error) {
	if senderPublicKey == nil || recipientPrivateKey == nil {
		return nil, fmt.Errorf("%w: missing key", kerrors.ErrDecryption)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", kerrors.ErrDecryption, NonceSize, len(nonce))
	}

	var n [NonceSize]byte
	copy(n[:], nonce)

	plaintext, ok := box.Open(nil, ciphertext, &n, senderPublicKey, recipientPrivateKey)
	if !ok {
		return nil, kerrors.ErrDecryption
	}
	return plaintext, nil
}

// Open decrypts the envelope with the recipient's private key.
func (e *Envelope) Open(recipientPrivateKey *[KeySize]byte) ([]byte, error) {
	return Decrypt(e.Ciphertext, e.Nonce, e.SenderPublicKey, recipientPrivateKey)
}

// EncodeKey returns the standard base64 form of a key.
func EncodeKey(key *[KeySize]byte) string {
	return base64.StdEncoding.EncodeToString(key[:])
}

// DecodeKey parses a standard base64 key and checks its length.
func DecodeKey(s string) (*[KeySize]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding key: %w", err)
	}
	if len(raw) != KeySize {
		return nil, fmt.Errorf("invalid key length: expected %d bytes, got %d bytes", KeySize, len(raw))
	}

	var key [KeySize]byte
	copy(key[:], raw)
	return &key, nil
}

// EncodeBytes returns the standard base64 form of b.
func EncodeBytes(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBytes parses standard base64.
func DecodeBytes(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
