package entry

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/bpfs/pna/chunk"
	"github.com/bpfs/pna/cipher"
	"github.com/bpfs/pna/compress"
	"github.com/bpfs/pna/passwordhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, opt WriteOption, meta Metadata, payload []byte) (*Reader, []byte) {
	t.Helper()
	w, err := NewWriter("greeting.txt", File, opt, meta)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	encoded, err := w.Finalize()
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader(encoded), ReadOption{Password: opt.Password})
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	return r, got
}

func TestRoundTripStoreNoEncryption(t *testing.T) {
	payload := []byte("hello, archive")
	_, got := roundTrip(t, StoreOption(), Metadata{}, payload)
	assert.Equal(t, payload, got)
}

func TestRoundTripAllCompressionMethods(t *testing.T) {
	payload := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog. "), 200)
	methods := []compress.Method{compress.MethodNone, compress.MethodDeflate, compress.MethodZstd, compress.MethodXZ}
	for _, m := range methods {
		opt := WriteOption{Compression: m, CompressionLevel: compress.LevelDefault, HashAlgorithm: passwordhash.Argon2id}
		_, got := roundTrip(t, opt, Metadata{}, payload)
		assert.Equal(t, payload, got, "method %v", m)
	}
}

func TestRoundTripAllCipherCombinations(t *testing.T) {
	payload := []byte("a secret message that spans more than one cipher block of sixteen bytes")
	combos := []struct {
		alg  cipher.Algorithm
		mode cipher.Mode
	}{
		{cipher.AlgorithmAES, cipher.ModeCBC},
		{cipher.AlgorithmAES, cipher.ModeCTR},
		{cipher.AlgorithmCamellia, cipher.ModeCBC},
		{cipher.AlgorithmCamellia, cipher.ModeCTR},
	}
	for _, c := range combos {
		opt := WriteOption{
			Compression:   compress.MethodNone,
			Encryption:    c.alg,
			CipherMode:    c.mode,
			HashAlgorithm: passwordhash.Argon2id,
			Password:      "correct horse battery staple",
		}
		_, got := roundTrip(t, opt, Metadata{}, payload)
		assert.Equal(t, payload, got)
	}
}

func TestRoundTripPreservesMetadata(t *testing.T) {
	size := uint64(11)
	created := time.Unix(1700000000, 123000000).UTC()
	meta := Metadata{
		RawSize:   &size,
		CreatedAt: &created,
		Permission: &Permission{
			UID: 1000, UName: "alice", GID: 1000, GName: "alice", Mode: 0o644,
		},
		Xattrs: []ExtendedAttribute{{Name: "user.comment", Value: []byte("hi")}},
	}
	r, got := roundTrip(t, StoreOption(), meta, []byte("hello world"))
	assert.Equal(t, []byte("hello world"), got)
	require.NotNil(t, r.Metadata.RawSize)
	assert.Equal(t, size, *r.Metadata.RawSize)
	require.NotNil(t, r.Metadata.CreatedAt)
	assert.Equal(t, created.Unix(), r.Metadata.CreatedAt.Unix())
	assert.Equal(t, created.Nanosecond(), r.Metadata.CreatedAt.Nanosecond())
	require.NotNil(t, r.Metadata.Permission)
	assert.Equal(t, "alice", r.Metadata.Permission.UName)
	require.Len(t, r.Metadata.Xattrs, 1)
	assert.Equal(t, "user.comment", r.Metadata.Xattrs[0].Name)
}

func TestWrongPasswordFailsToVerify(t *testing.T) {
	opt := WriteOption{
		Encryption:    cipher.AlgorithmAES,
		CipherMode:    cipher.ModeCTR,
		HashAlgorithm: passwordhash.Argon2id,
		Password:      "right password",
	}
	w, err := NewWriter("secret.bin", File, opt, Metadata{})
	require.NoError(t, err)
	_, err = w.Write([]byte("classified"))
	require.NoError(t, err)
	encoded, err := w.Finalize()
	require.NoError(t, err)

	_, err = NewReader(bytes.NewReader(encoded), ReadOption{Password: "wrong password"})
	assert.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestNoPasswordFailsLazilyWithPasswordRequired(t *testing.T) {
	opt := WriteOption{
		Encryption:    cipher.AlgorithmAES,
		CipherMode:    cipher.ModeCTR,
		HashAlgorithm: passwordhash.Argon2id,
		Password:      "right password",
	}
	w, err := NewWriter("secret.bin", File, opt, Metadata{})
	require.NoError(t, err)
	_, err = w.Write([]byte("classified"))
	require.NoError(t, err)
	encoded, err := w.Finalize()
	require.NoError(t, err)

	// Construction must succeed even though no password was supplied --
	// only the first Read reports the failure (§4.7 step 2).
	r, err := NewReader(bytes.NewReader(encoded), ReadOption{})
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestTruncatedCBCStreamReturnsTruncatedStream(t *testing.T) {
	opt := WriteOption{
		Encryption:    cipher.AlgorithmAES,
		CipherMode:    cipher.ModeCBC,
		HashAlgorithm: passwordhash.Argon2id,
		Password:      "correct horse battery staple",
	}
	w, err := NewWriter("secret.bin", File, opt, Metadata{})
	require.NoError(t, err)
	_, err = w.Write([]byte("a payload worth more than one cipher block"))
	require.NoError(t, err)
	encoded, err := w.Finalize()
	require.NoError(t, err)

	// Re-frame the entry with its FDAT body cut 5 bytes short, so the chunk
	// framing and CRCs stay valid and the truncation lands mid final CBC
	// block, simulating a truncated transfer.
	var truncated bytes.Buffer
	src := bytes.NewReader(encoded)
	for src.Len() > 0 {
		typ, data, err := chunk.Read(src)
		require.NoError(t, err)
		if typ == chunk.TypeFDAT {
			data = data[:len(data)-5]
		}
		require.NoError(t, chunk.Write(&truncated, typ, data))
	}

	r, err := NewReader(bytes.NewReader(truncated.Bytes()), ReadOption{Password: opt.Password})
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, ErrTruncatedStream)
}

func TestCorruptedCompressedBodyReturnsDecryptionOrDecompression(t *testing.T) {
	opt := WriteOption{Compression: compress.MethodDeflate, CompressionLevel: compress.LevelDefault, HashAlgorithm: passwordhash.Argon2id}
	w, err := NewWriter("note.txt", File, opt, Metadata{})
	require.NoError(t, err)
	_, err = w.Write(bytes.Repeat([]byte("compress me please "), 50))
	require.NoError(t, err)
	encoded, err := w.Finalize()
	require.NoError(t, err)

	// Corrupt the deflate stream inside the FDAT body and re-frame the
	// chunk with a fresh CRC, so the chunk codec accepts it and only the
	// decompressor sees the damage. Setting both BTYPE bits of the first
	// block header selects the reserved block type, which deflate always
	// rejects.
	var corrupted bytes.Buffer
	src := bytes.NewReader(encoded)
	for src.Len() > 0 {
		typ, data, err := chunk.Read(src)
		require.NoError(t, err)
		if typ == chunk.TypeFDAT {
			data[0] |= 0x06
		}
		require.NoError(t, chunk.Write(&corrupted, typ, data))
	}

	r, err := NewReader(bytes.NewReader(corrupted.Bytes()), ReadOption{})
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	assert.ErrorIs(t, err, ErrDecryptionOrDecompression)
}

func TestNewWriterRequiresPasswordWhenEncrypted(t *testing.T) {
	opt := WriteOption{Encryption: cipher.AlgorithmAES, CipherMode: cipher.ModeCTR}
	_, err := NewWriter("x", File, opt, Metadata{})
	assert.ErrorIs(t, err, ErrPasswordRequired)
}

func TestNewWriterRejectsBadName(t *testing.T) {
	_, err := NewWriter("../escape", File, StoreOption(), Metadata{})
	assert.ErrorIs(t, err, ErrBadName)
}

func TestDirectoryEntryHasEmptyBody(t *testing.T) {
	w, err := NewWriter("subdir", Directory, StoreOption(), Metadata{})
	require.NoError(t, err)
	encoded, err := w.Finalize()
	require.NoError(t, err)

	r, err := NewReader(bytes.NewReader(encoded), ReadOption{})
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, Directory, r.Header.DataKind)
}

func TestUnknownAncillaryChunksPreserved(t *testing.T) {
	// Build a valid entry, then splice an unknown ancillary chunk in
	// between the header and the data to confirm the reader preserves it.
	w, err := NewWriter("note.txt", File, StoreOption(), Metadata{})
	require.NoError(t, err)
	_, err = w.Write([]byte("payload"))
	require.NoError(t, err)
	encoded, err := w.Finalize()
	require.NoError(t, err)

	var spliced bytes.Buffer
	src := bytes.NewReader(encoded)
	for src.Len() > 0 {
		typ, data, err := chunk.Read(src)
		require.NoError(t, err)
		require.NoError(t, chunk.Write(&spliced, typ, data))
		if typ == chunk.TypeFHED {
			require.NoError(t, chunk.Write(&spliced, chunk.Type{'p', 'r', 'V', 't'}, []byte("private")))
		}
	}

	r, err := NewReader(bytes.NewReader(spliced.Bytes()), ReadOption{})
	require.NoError(t, err)
	_, err = io.ReadAll(r)
	require.NoError(t, err)
	require.Len(t, r.Unknown, 1)
	assert.Equal(t, "prVt", r.Unknown[0].Type.String())
	assert.Equal(t, []byte("private"), r.Unknown[0].Data)
}
