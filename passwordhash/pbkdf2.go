package passwordhash

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

// Pbkdf2Iterations matches OWASP's 2023 recommendation for
// PBKDF2-HMAC-SHA256, grounded on the same pbkdf2.Key(...) call shape
// bpfs-defs/wallets/key_management.go and bpfs-defs/examples/defs_core.go
// already use (only the hash function and iteration count differ: those
// call sites use SHA-512 key material at a caller-supplied iteration
// count; PHSF needs a fixed, interoperable choice).
const Pbkdf2Iterations = 600_000

type pbkdf2Deriver struct {
	salt   []byte
	keyLen int
}

func newPbkdf2Deriver(salt []byte, keyLen int) *pbkdf2Deriver {
	return &pbkdf2Deriver{salt: salt, keyLen: keyLen}
}

func (d *pbkdf2Deriver) derive(password []byte) []byte {
	return pbkdf2.Key(password, d.salt, Pbkdf2Iterations, d.keyLen, sha256.New)
}

func (d *pbkdf2Deriver) encode(key []byte) string {
	return fmt.Sprintf("$pbkdf2-sha256$i=%d$%s$%s",
		Pbkdf2Iterations, b64NoPad(d.salt), b64NoPad(key))
}

func parsePbkdf2(fields []string) (deriver func([]byte) []byte, salt, hash []byte, err error) {
	// fields is everything after "$pbkdf2-sha256$", i.e.
	// ["i=600000", "<salt>", "<hash>"].
	if len(fields) != 3 {
		return nil, nil, nil, errInvalidPHC
	}

	var iterations int
	if _, err := fmt.Sscanf(fields[0], "i=%d", &iterations); err != nil {
		return nil, nil, nil, errInvalidPHC
	}

	salt, err = base64.RawStdEncoding.DecodeString(fields[1])
	if err != nil {
		return nil, nil, nil, errInvalidPHC
	}
	hash, err = base64.RawStdEncoding.DecodeString(fields[2])
	if err != nil {
		return nil, nil, nil, errInvalidPHC
	}

	keyLen := len(hash)
	deriver = func(password []byte) []byte {
		return pbkdf2.Key(password, salt, iterations, keyLen, sha256.New)
	}
	return deriver, salt, hash, nil
}
