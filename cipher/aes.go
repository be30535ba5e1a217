package cipher

import (
	"crypto/aes"
	stdcipher "crypto/cipher"

	"github.com/pkg/errors"
)

func newAESBlock(key []byte) (stdcipher.Block, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "cipher: new aes block")
	}
	return block, nil
}
