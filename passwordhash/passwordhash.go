// Package passwordhash derives cipher keys from a user password and encodes
// the parameters needed to re-derive them as a PHC-format string, stored
// verbatim in an archive's PHSF chunk. The Strategy split (one deriver type
// per algorithm, selected at construction) follows
// DataDog-go-secure-sdk/crypto/hashutil/password/internal/hasher; the two
// concrete key-derivation calls are grounded on bpfs-defs/wallets
// (PBKDF2) and golang.org/x/crypto/argon2, already a dependency of the
// teacher repo.
package passwordhash

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

// Algorithm selects the password hashing / key derivation function. Values
// match the spec's hash_algorithm enumeration.
type Algorithm uint8

const (
	Argon2id Algorithm = iota
	Pbkdf2Sha256
)

func (a Algorithm) String() string {
	switch a {
	case Argon2id:
		return "argon2id"
	case Pbkdf2Sha256:
		return "pbkdf2-sha256"
	default:
		return "unknown"
	}
}

// SaltSize is the random salt length generated for every PHSF, regardless
// of algorithm.
const SaltSize = 16

var (
	// ErrUnknownAlgorithm is returned for an Algorithm value outside the
	// supported set.
	ErrUnknownAlgorithm = errors.New("passwordhash: unknown algorithm")
	// ErrShortKey is an encoder bug guard: a derived key shorter than the
	// cipher's key size must never reach the wire.
	ErrShortKey = errors.New("passwordhash: derived key shorter than requested length")
)

// deriver is the per-algorithm key-derivation strategy: derive a key from a
// password and a salt, given the parameters already fixed at construction.
type deriver interface {
	derive(password []byte) []byte
	encode(key []byte) string // PHC string, e.g. "$argon2id$v=19$m=...,t=...,p=...$salt$hash"
}

// Derive produces a new random salt, derives a keyLen-byte key from
// password under alg, and returns the key plus the PHC string to store in
// PHSF. This is the write-side entry point: §4.6 step 3.
func Derive(alg Algorithm, password []byte, keyLen int) (key []byte, phc string, err error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, "", errors.Wrap(err, "passwordhash: generate salt")
	}

	d, err := newDeriver(alg, salt, keyLen)
	if err != nil {
		return nil, "", err
	}

	key = d.derive(password)
	if len(key) < keyLen {
		return nil, "", errors.Wrapf(ErrShortKey, "got %d, want %d", len(key), keyLen)
	}
	return key, d.encode(key), nil
}

// Verify re-derives a key from password using the parameters embedded in
// phc, returning the key plus whether the stored hash matches it. This is
// the read-side entry point: §4.3's "verify against PHSF" step.
func Verify(phc string, password []byte) (key []byte, ok bool, err error) {
	return verifyPHC(phc, password)
}

func newDeriver(alg Algorithm, salt []byte, keyLen int) (deriver, error) {
	switch alg {
	case Argon2id:
		return newArgon2idDeriver(salt, keyLen), nil
	case Pbkdf2Sha256:
		return newPbkdf2Deriver(salt, keyLen), nil
	default:
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%d", alg)
	}
}
