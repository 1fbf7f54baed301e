package ir

import (
	"encoding/hex"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashDeterminism(t *testing.T) {
	a := IRObject{"fields": IRArray{IRString("key")}, "version": IRInt(1)}
	b := IRObject{"version": IRInt(1), "fields": IRArray{IRString("key")}}

	ha, err := Hash(DomainSchema, a)
	require.NoError(t, err)
	hb, err := Hash(DomainSchema, b)
	require.NoError(t, err)

	assert.Equal(t, ha, hb)
}

func TestHashChangesWithContent(t *testing.T) {
	h1 := MustHash(DomainSchema, IRObject{"a": IRInt(1)})
	h2 := MustHash(DomainSchema, IRObject{"a": IRInt(2)})
	assert.NotEqual(t, h1, h2)
}

func TestHashDomainSeparation(t *testing.T) {
	v := IRObject{"key": IRString("k")}
	assert.NotEqual(t, MustHash(DomainSchema, v), MustHash(DomainRecord, v))
}

func TestHashWithDomainNullSeparator(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must not collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}

func TestHashHexEncoding(t *testing.T) {
	h := MustHash(DomainRecord, IRString("x"))
	assert.Len(t, h, 64)
	_, err := hex.DecodeString(h)
	assert.NoError(t, err)
}

func TestHashErrorHandling(t *testing.T) {
	_, err := Hash(DomainRecord, IRFloat(math.Inf(1)))
	assert.Error(t, err)

	assert.Panics(t, func() { MustHash(DomainRecord, IRFloat(math.NaN())) })
}

func TestHashIgnoresUnicodeNormalization(t *testing.T) {
	composed := IRObject{"name": IRString("caf\u00E9")}
	decomposed := IRObject{"name": IRString("cafe\u0301")}
	assert.Equal(t, MustHash(DomainRecord, composed), MustHash(DomainRecord, decomposed))
}
