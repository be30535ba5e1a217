package passwordhash

import (
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters: the values golang.org/x/crypto/argon2 suggests for
// IDKey (time=1, 64 MiB of memory, 4 threads), matching the call shape of
// DataDog-go-secure-sdk/crypto/hashutil/password/internal/hasher/argon2id_deriver.go's
// argon2.IDKey(...) invocation.
const (
	argon2idVersion = argon2.Version // always encoded, even though it's a build constant
	argon2idTime    = 1
	argon2idMemory  = 64 * 1024 // KiB
	argon2idThreads = 4
)

type argon2idDeriver struct {
	salt   []byte
	keyLen int
}

func newArgon2idDeriver(salt []byte, keyLen int) *argon2idDeriver {
	return &argon2idDeriver{salt: salt, keyLen: keyLen}
}

func (d *argon2idDeriver) derive(password []byte) []byte {
	return argon2.IDKey(password, d.salt, argon2idTime, argon2idMemory, argon2idThreads, uint32(d.keyLen))
}

func (d *argon2idDeriver) encode(key []byte) string {
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2idVersion, argon2idMemory, argon2idTime, argon2idThreads,
		b64NoPad(d.salt), b64NoPad(key))
}

func b64NoPad(b []byte) string {
	return base64.RawStdEncoding.EncodeToString(b)
}

func parseArgon2id(fields []string) (deriver func([]byte) []byte, storedKeyLen int, salt, hash []byte, err error) {
	// fields is everything after "$argon2id$", i.e.
	// ["v=19", "m=65536,t=1,p=4", "<salt>", "<hash>"].
	if len(fields) != 4 {
		return nil, 0, nil, nil, errInvalidPHC
	}

	var version int
	if _, err := fmt.Sscanf(fields[0], "v=%d", &version); err != nil {
		return nil, 0, nil, nil, errInvalidPHC
	}

	var memory, time, threads int
	if _, err := fmt.Sscanf(fields[1], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return nil, 0, nil, nil, errInvalidPHC
	}

	salt, err = base64.RawStdEncoding.DecodeString(fields[2])
	if err != nil {
		return nil, 0, nil, nil, errInvalidPHC
	}
	hash, err = base64.RawStdEncoding.DecodeString(fields[3])
	if err != nil {
		return nil, 0, nil, nil, errInvalidPHC
	}

	keyLen := len(hash)
	deriver = func(password []byte) []byte {
		return argon2.IDKey(password, salt, uint32(time), uint32(memory), uint8(threads), uint32(keyLen))
	}
	return deriver, keyLen, salt, hash, nil
}
