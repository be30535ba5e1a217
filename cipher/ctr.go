package cipher

import (
	stdcipher "crypto/cipher"
	"io"
)

// ctrWriter XORs writes against the keystream of a 128-bit big-endian
// counter seeded from the IV, directly grounded on bpfs-defs/crypto/ctr.go.
// Unlike CBC there is no padding and no buffering: plaintext length equals
// ciphertext length.
type ctrWriter struct {
	w      io.Writer
	stream stdcipher.Stream
}

func newCTRWriter(w io.Writer, block stdcipher.Block, iv []byte) *ctrWriter {
	return &ctrWriter{w: w, stream: stdcipher.NewCTR(block, iv)}
}

func (c *ctrWriter) Write(p []byte) (int, error) {
	out := make([]byte, len(p))
	c.stream.XORKeyStream(out, p)
	return c.w.Write(out)
}

func (c *ctrWriter) Close() error { return nil }

type ctrReader struct {
	r      io.Reader
	stream stdcipher.Stream
}

func newCTRReader(r io.Reader, block stdcipher.Block, iv []byte) *ctrReader {
	return &ctrReader{r: r, stream: stdcipher.NewCTR(block, iv)}
}

func (c *ctrReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 {
		c.stream.XORKeyStream(p[:n], p[:n])
	}
	return n, err
}
