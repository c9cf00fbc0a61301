package attest

import (
	"strings"
	"testing"

	"github.com/peterldowns/testy/check"
)

func TestSealed_EncodeBase64(t *testing.T) {
	sealed := Sealed([]byte("mock-sealed-report"))

	encoded := sealed.EncodeBase64()
	check.NotEqual(t, "", encoded.String())

	decoded, err := encoded.Decode()
	check.Nil(t, err)
	check.Equal(t, sealed, decoded)
}

func TestSealed_CompressGzip(t *testing.T) {
	sealed := Sealed([]byte("mock-sealed-report-for-compression-testing"))

	compressed, err := sealed.CompressGzip()
	check.Nil(t, err)
	check.NotEqual(t, "", compressed.String())

	compressedStr := compressed.String()
	check.True(t, !strings.Contains(compressedStr, "+"))
	check.True(t, !strings.Contains(compressedStr, "/"))
	check.True(t, !strings.Contains(compressedStr, "="))

	decompressed, err := compressed.Decompress()
	check.Nil(t, err)
	check.Equal(t, sealed, decompressed)
}

func TestSealed_DecodeInvalid(t *testing.T) {
	_, err := SealedBase64("!!!").Decode()
	check.NotNil(t, err)

	_, err = SealedGzip("!!!").Decompress()
	check.NotNil(t, err)

	// Valid base64 that is not gzip
	_, err = SealedGzip("bm90LWd6aXA").Decompress()
	check.NotNil(t, err)
}

func TestParseSealed(t *testing.T) {
	sealed := Sealed([]byte("mock-sealed-report"))

	parsed, err := ParseSealed(sealed.EncodeBase64().String() + "\n")
	check.Nil(t, err)
	check.Equal(t, sealed, parsed)

	compressed, err := sealed.CompressGzip()
	check.Nil(t, err)
	check.True(t, strings.HasPrefix(compressed.String(), "H4sI"))
	parsed, err = ParseSealed("  " + compressed.String())
	check.Nil(t, err)
	check.Equal(t, sealed, parsed)

	_, err = ParseSealed(" \n")
	check.NotNil(t, err)

	_, err = ParseSealed("H4sI!!!")
	check.NotNil(t, err)
}
