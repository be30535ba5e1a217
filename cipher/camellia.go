package cipher

import (
	stdcipher "crypto/cipher"

	"github.com/aead/camellia"
	"github.com/pkg/errors"
)

func newCamelliaBlock(key []byte) (stdcipher.Block, error) {
	block, err := camellia.New(key)
	if err != nil {
		return nil, errors.Wrap(err, "cipher: new camellia block")
	}
	return block, nil
}
