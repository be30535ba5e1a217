package cipher

import (
	stdcipher "crypto/cipher"
	"io"
)

// cbcWriter buffers the tail partial block until Close, then pads it with
// PKCS#7 and emits the final ciphertext block. Grounded on
// bpfs-defs/crypto/cbc.go's pkcs7Padding, generalized from one-shot
// encrypt-the-whole-[]byte to a streaming writer.
type cbcWriter struct {
	w         io.Writer
	mode      stdcipher.BlockMode
	blockSize int
	buf       []byte
}

func newCBCWriter(w io.Writer, block stdcipher.Block, iv []byte) *cbcWriter {
	return &cbcWriter{
		w:         w,
		mode:      stdcipher.NewCBCEncrypter(block, iv),
		blockSize: block.BlockSize(),
	}
}

func (c *cbcWriter) Write(p []byte) (int, error) {
	total := len(p)
	c.buf = append(c.buf, p...)

	// Keep the last, possibly-partial block buffered so Close can pad it;
	// encrypt and emit every other complete block now.
	n := len(c.buf) - (len(c.buf) % c.blockSize)
	if n == len(c.buf) && n > 0 {
		n -= c.blockSize
	}
	if n > 0 {
		out := make([]byte, n)
		c.mode.CryptBlocks(out, c.buf[:n])
		if _, err := c.w.Write(out); err != nil {
			return total, err
		}
		c.buf = c.buf[n:]
	}
	return total, nil
}

func (c *cbcWriter) Close() error {
	padded := pkcs7Pad(c.buf, c.blockSize)
	out := make([]byte, len(padded))
	c.mode.CryptBlocks(out, padded)
	_, err := c.w.Write(out)
	return err
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padding)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padding)
	}
	return padded
}

// cbcReader decrypts a CBC ciphertext stream one block at a time, always
// holding one decrypted block back (held) until it has confirmed there is a
// following block. That lookahead is what lets it recognize the true final
// block and strip its PKCS#7 padding only once the stream is exhausted --
// per ErrPaddingInvalid's doc comment, padding is never validated early.
type cbcReader struct {
	r         io.Reader
	mode      stdcipher.BlockMode
	blockSize int
	held      []byte // decrypted block whose "is it the last one" status is unknown
	out       []byte // decrypted bytes ready to hand to the caller
	done      bool
	err       error
}

func newCBCReader(r io.Reader, block stdcipher.Block, iv []byte) *cbcReader {
	return &cbcReader{
		r:         r,
		mode:      stdcipher.NewCBCDecrypter(block, iv),
		blockSize: block.BlockSize(),
	}
}

func (c *cbcReader) Read(p []byte) (int, error) {
	if len(c.out) == 0 {
		if c.err != nil {
			return 0, c.err
		}
		if c.done {
			return 0, io.EOF
		}
		if err := c.fill(); err != nil {
			c.err = err
			return 0, err
		}
	}
	n := copy(p, c.out)
	c.out = c.out[n:]
	return n, nil
}

// fill decrypts the next block of ciphertext and, using one block of
// lookahead, decides whether it has just seen the final block (in which
// case it unpads it into c.out and sets c.done) or an interior block (in
// which case it releases the previously held block into c.out and holds the
// new one instead).
func (c *cbcReader) fill() error {
	block := make([]byte, c.blockSize)
	n, err := io.ReadFull(c.r, block)

	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return err
	}
	if err == io.ErrUnexpectedEOF {
		// io.ReadFull only returns this when it read between 1 and
		// blockSize-1 bytes: the stream ended mid-block, which can never
		// be a legitimate PKCS#7-padded CBC ciphertext. Report it as
		// truncation rather than silently dropping the dangling bytes and
		// treating held as the final block.
		return ErrTruncatedCiphertext
	}
	if err == io.EOF {
		if c.held == nil {
			return ErrPaddingInvalid
		}
		unpadded, uerr := pkcs7Unpad(c.held, c.blockSize)
		if uerr != nil {
			return uerr
		}
		c.out = unpadded
		c.held = nil
		c.done = true
		return nil
	}

	dec := make([]byte, c.blockSize)
	c.mode.CryptBlocks(dec, block)

	if c.held == nil {
		c.held = dec
		return c.fill()
	}
	c.out = c.held
	c.held = dec
	return nil
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrPaddingInvalid
	}
	padding := int(data[len(data)-1])
	if padding == 0 || padding > blockSize || padding > len(data) {
		return nil, ErrPaddingInvalid
	}
	for _, b := range data[len(data)-padding:] {
		if int(b) != padding {
			return nil, ErrPaddingInvalid
		}
	}
	return data[:len(data)-padding], nil
}
