package pna

import (
	"bytes"
	"crypto/rand"
	"io"
	"testing"

	"github.com/bpfs/pna/chunk"
	"github.com/bpfs/pna/cipher"
	"github.com/bpfs/pna/compress"
	"github.com/bpfs/pna/entry"
	"github.com/bpfs/pna/passwordhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildEntry(t *testing.T, name string, opt WriteOption, payload []byte) []byte {
	t.Helper()
	w, err := entry.NewWriter(name, entry.File, opt, entry.Metadata{})
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	out, err := w.Finalize()
	require.NoError(t, err)
	return out
}

func TestEmptyArchive(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Finalize())

	var want bytes.Buffer
	want.Write(Magic[:])
	require.NoError(t, chunk.Write(&want, chunk.TypeAHED, encodeAHED(1)))
	require.NoError(t, chunk.Write(&want, chunk.TypeAEND, nil))
	assert.Equal(t, want.Bytes(), buf.Bytes())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), ReadOption{})
	require.NoError(t, err)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSingleStoreEntry(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.AddEntry(buildEntry(t, "a.txt", StoreOption(), []byte("hello"))))
	require.NoError(t, w.Finalize())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), ReadOption{})
	require.NoError(t, err)
	item, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, ItemEntry, item.Kind)
	assert.Equal(t, "a.txt", item.Entry.Header.Name)
	assert.Equal(t, entry.File, item.Entry.Header.DataKind)
	got, err := io.ReadAll(item.Entry)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestZstdAESCTRArgon2idWithPassword(t *testing.T) {
	payload := make([]byte, 1<<20)
	_, err := rand.Read(payload)
	require.NoError(t, err)

	opt := WriteOption{
		Compression:      compress.MethodZstd,
		CompressionLevel: compress.LevelDefault,
		Encryption:       cipher.AlgorithmAES,
		CipherMode:       cipher.ModeCTR,
		HashAlgorithm:    passwordhash.Argon2id,
		Password:         "pw",
	}

	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.AddEntry(buildEntry(t, "big.bin", opt, payload)))
	require.NoError(t, w.Finalize())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), ReadOption{Password: "pw"})
	require.NoError(t, err)
	item, err := r.Next()
	require.NoError(t, err)
	got, err := io.ReadAll(item.Entry)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	r2, err := NewReader(bytes.NewReader(buf.Bytes()), ReadOption{Password: "wrong"})
	require.NoError(t, err)
	_, err = r2.Next()
	assert.ErrorIs(t, err, entry.ErrPasswordMismatch)
}

func TestSplitArchive(t *testing.T) {
	opt := StoreOption()
	entries := [][]byte{
		buildEntry(t, "one.txt", opt, bytes.Repeat([]byte{1}, 40000)),
		buildEntry(t, "two.txt", opt, bytes.Repeat([]byte{2}, 40000)),
		buildEntry(t, "three.txt", opt, bytes.Repeat([]byte{3}, 40000)),
	}

	var part1, part2 bytes.Buffer
	w, err := NewWriter(&part1)
	require.NoError(t, err)
	require.NoError(t, w.AddEntry(entries[0]))
	require.NoError(t, w.AddEntry(entries[1]))
	require.NoError(t, w.SplitTo(&part2))
	require.NoError(t, w.AddEntry(entries[2]))
	require.NoError(t, w.Finalize())

	r, err := NewReader(bytes.NewReader(part1.Bytes()), ReadOption{})
	require.NoError(t, err)

	var names []string
	for {
		item, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, item.Entry.Header.Name)
		_, _ = io.ReadAll(item.Entry)
	}
	assert.True(t, r.NextArchive)
	assert.Equal(t, []string{"one.txt", "two.txt"}, names)

	require.NoError(t, r.ReadNextArchive(bytes.NewReader(part2.Bytes())))
	for {
		item, err := r.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, item.Entry.Header.Name)
	}
	assert.False(t, r.NextArchive)
	assert.Equal(t, []string{"one.txt", "two.txt", "three.txt"}, names)
}

func TestSplitOrderViolation(t *testing.T) {
	var part1, part2 bytes.Buffer
	w, err := NewWriter(&part1)
	require.NoError(t, err)
	require.NoError(t, w.SplitTo(&part2))
	require.NoError(t, w.Finalize())

	r, err := NewReader(bytes.NewReader(part1.Bytes()), ReadOption{})
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, io.EOF)
	require.True(t, r.NextArchive)

	// Leave part2's AHED (part 2) untouched and hand it to a reader whose
	// previous part was 5, so it expects part 6: a misordered part.
	r2 := &Reader{part: 5}
	err = r2.ReadNextArchive(bytes.NewReader(part2.Bytes()))
	assert.ErrorIs(t, err, ErrSplitOrderViolation)
}

func TestBadMagic(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("not a pna archive!!")), ReadOption{})
	assert.ErrorIs(t, err, ErrBadMagic)
}
