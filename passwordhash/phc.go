package passwordhash

import (
	"crypto/subtle"
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidHash is returned when a stored PHSF string does not parse as a
// recognized PHC-format string.
var ErrInvalidHash = errors.New("passwordhash: invalid PHC string")

var errInvalidPHC = ErrInvalidHash

func verifyPHC(phc string, password []byte) ([]byte, bool, error) {
	if !strings.HasPrefix(phc, "$") {
		return nil, false, ErrInvalidHash
	}
	parts := strings.Split(phc[1:], "$")
	if len(parts) < 2 {
		return nil, false, ErrInvalidHash
	}
	alg, rest := parts[0], parts[1:]

	var derive func([]byte) []byte
	var stored []byte
	var err error

	switch alg {
	case "argon2id":
		derive, _, _, stored, err = parseArgon2id(rest)
	case "pbkdf2-sha256":
		derive, _, stored, err = parsePbkdf2(rest)
	default:
		return nil, false, errors.Wrapf(ErrInvalidHash, "unknown algorithm tag %q", alg)
	}
	if err != nil {
		return nil, false, err
	}

	key := derive(password)
	match := subtle.ConstantTimeCompare(key, stored) == 1
	return key, match, nil
}
