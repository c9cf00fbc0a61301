package attest

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"

	"github.com/veraison/go-cose"
)

const reportContentType = "application/cbor"

// Sealer signs reports as COSE_Sign1 messages with ES384.
type Sealer struct {
	Keys   *KeyManager
	Logger *slog.Logger
}

func (s *Sealer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Seal embeds the sealer's public key in a copy of report and signs it.
func (s *Sealer) Seal(report *Report) (Sealed, error) {
	if s.Keys == nil {
		return nil, errors.New("sealer has no signing key")
	}
	if report == nil {
		return nil, errors.New("report is nil")
	}

	publicKeyPEM, err := s.Keys.PublicKeyPEM()
	if err != nil {
		return nil, fmt.Errorf("failed to export public key: %w", err)
	}
	sealed := *report
	sealed.KeyAlgorithm = KeyAlgorithm
	sealed.PublicKey = publicKeyPEM

	payload, err := encodeReport(&sealed)
	if err != nil {
		return nil, err
	}

	signer, err := cose.NewSigner(cose.AlgorithmES384, s.Keys.privateKey)
	if err != nil {
		return nil, fmt.Errorf("create signer: %w", err)
	}

	msg := cose.NewSign1Message()
	msg.Headers.Protected[cose.HeaderLabelAlgorithm] = cose.AlgorithmES384
	msg.Headers.Protected[cose.HeaderLabelContentType] = reportContentType
	msg.Payload = payload
	if err := msg.Sign(rand.Reader, nil, signer); err != nil {
		return nil, fmt.Errorf("sign report: %w", err)
	}

	data, err := msg.MarshalCBOR()
	if err != nil {
		return nil, fmt.Errorf("marshal COSE_Sign1: %w", err)
	}

	s.logger().Info("report sealed",
		slog.String("run_id", report.RunID),
		slog.String("game", report.GameName),
		slog.Int("bytes", len(data)),
	)
	return Sealed(data), nil
}

func parseMessage(sealed Sealed) (*cose.Sign1Message, error) {
	var msg cose.Sign1Message
	if err := msg.UnmarshalCBOR(sealed); err != nil {
		return nil, fmt.Errorf("parse COSE_Sign1: %w", err)
	}
	if len(msg.Payload) == 0 {
		return nil, fmt.Errorf("invalid payload in COSE structure")
	}
	return &msg, nil
}

// ExtractReport decodes the report of a sealed message without checking its
// signature.
func ExtractReport(sealed Sealed) (*Report, error) {
	msg, err := parseMessage(sealed)
	if err != nil {
		return nil, err
	}
	return decodeReport(msg.Payload)
}
