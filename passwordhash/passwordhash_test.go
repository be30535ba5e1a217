package passwordhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveVerifyRoundTrip(t *testing.T) {
	for _, alg := range []Algorithm{Argon2id, Pbkdf2Sha256} {
		key, phc, err := Derive(alg, []byte("correct horse battery staple"), 32)
		require.NoError(t, err, alg)
		assert.Len(t, key, 32, alg)
		assert.Contains(t, phc, "$"+alg.String()+"$", alg)

		gotKey, ok, err := Verify(phc, []byte("correct horse battery staple"))
		require.NoError(t, err, alg)
		assert.True(t, ok, alg)
		assert.Equal(t, key, gotKey, alg)
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	_, phc, err := Derive(Argon2id, []byte("pw"), 32)
	require.NoError(t, err)

	_, ok, err := Verify(phc, []byte("not the password"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, _, err := Verify("not a phc string", []byte("pw"))
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestDeriveUnknownAlgorithm(t *testing.T) {
	_, _, err := Derive(Algorithm(99), []byte("pw"), 32)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestDerivedSaltsAreRandom(t *testing.T) {
	_, phc1, err := Derive(Pbkdf2Sha256, []byte("pw"), 32)
	require.NoError(t, err)
	_, phc2, err := Derive(Pbkdf2Sha256, []byte("pw"), 32)
	require.NoError(t, err)
	assert.NotEqual(t, phc1, phc2)
}
