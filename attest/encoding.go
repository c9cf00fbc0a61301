package attest

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// ReportExtension names the compressed report written next to a game file.
const ReportExtension = ".report"

// gzipPrefix is how every URL-safe base64 gzip stream starts.
const gzipPrefix = "H4sI"

// Sealed is a COSE_Sign1 message carrying a CBOR-encoded Report.
type Sealed []byte

// SealedBase64 is the standard base64 text form of a sealed report, as
// stored in the run history.
type SealedBase64 string

// SealedGzip is the gzipped, URL-safe unpadded base64 form of a sealed
// report, as written next to the game files.
type SealedGzip string

func (s SealedBase64) String() string {
	return string(s)
}

func (s SealedGzip) String() string {
	return string(s)
}

// EncodeBase64 encodes the sealed bytes with standard base64.
func (s Sealed) EncodeBase64() SealedBase64 {
	return SealedBase64(base64.StdEncoding.EncodeToString(s))
}

// Decode returns the sealed bytes.
func (s SealedBase64) Decode() (Sealed, error) {
	data, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("decode sealed report: %w", err)
	}
	return Sealed(data), nil
}

// CompressGzip gzips the sealed bytes and encodes them URL-safe.
func (s Sealed) CompressGzip() (SealedGzip, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(s); err != nil {
		return "", fmt.Errorf("gzip sealed report: %w", err)
	}
	if err := gz.Close(); err != nil {
		return "", fmt.Errorf("gzip sealed report: %w", err)
	}
	return SealedGzip(base64.RawURLEncoding.EncodeToString(buf.Bytes())), nil
}

// Decompress reverses CompressGzip.
func (s SealedGzip) Decompress() (Sealed, error) {
	data, err := base64.RawURLEncoding.DecodeString(string(s))
	if err != nil {
		return nil, fmt.Errorf("decode compressed report: %w", err)
	}
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open compressed report: %w", err)
	}
	defer gz.Close()

	raw, err := io.ReadAll(gz)
	if err != nil {
		return nil, fmt.Errorf("decompress report: %w", err)
	}
	return Sealed(raw), nil
}

// ParseSealed reads either text form of a sealed report. Surrounding
// whitespace is ignored.
func ParseSealed(text string) (Sealed, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("sealed report is empty")
	}
	if strings.HasPrefix(text, gzipPrefix) {
		return SealedGzip(text).Decompress()
	}
	return SealedBase64(text).Decode()
}
