package cipher

import "crypto/rand"

// randRead fills p with platform CSPRNG output, matching the
// crypto/rand.Reader usage in bpfs-defs/crypto/cbc and crypto/ctr.
func randRead(p []byte) error {
	_, err := rand.Read(p)
	return err
}
