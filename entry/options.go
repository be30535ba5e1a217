package entry

import (
	"github.com/bpfs/pna/cipher"
	"github.com/bpfs/pna/compress"
	"github.com/bpfs/pna/passwordhash"
)

// WriteOption is a flat struct of enumerated fields (not a builder chain of
// optional keywords), matching bpfs-defs/options.go's Options type.
type WriteOption struct {
	Compression      compress.Method
	CompressionLevel compress.Level
	Encryption       cipher.Algorithm
	CipherMode       cipher.Mode
	HashAlgorithm    passwordhash.Algorithm
	Password         string // empty means no encryption key material is derived
}

// StoreOption returns the "no compression, no encryption" WriteOption, the
// cheapest possible pipeline -- useful for tests and for entries whose data
// is already compressed.
func StoreOption() WriteOption {
	return WriteOption{
		Compression:   compress.MethodNone,
		Encryption:    cipher.AlgorithmNone,
		HashAlgorithm: passwordhash.Argon2id,
	}
}

// DefaultWriteOption returns Deflate + no encryption at the default level,
// a reasonable default for callers that don't otherwise care.
func DefaultWriteOption() WriteOption {
	return WriteOption{
		Compression:      compress.MethodDeflate,
		CompressionLevel: compress.LevelDefault,
		Encryption:       cipher.AlgorithmNone,
		HashAlgorithm:    passwordhash.Argon2id,
	}
}

// ReadOption carries everything a reader needs beyond the bytes themselves:
// the password to decrypt encrypted entries, if any.
type ReadOption struct {
	Password string
}
