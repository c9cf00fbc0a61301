package attest

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/veraison/go-cose"

	"github.com/cloudx-io/bayesauction/core"
	"github.com/cloudx-io/bayesauction/gambit"
)

// VerificationInput contains everything needed to check a sealed report
type VerificationInput struct {
	Sealed    Sealed
	PublicKey *ecdsa.PublicKey // Trusted sealing key (required)

	// Table, when set, is recomputed locally and compared against the
	// hashes in the report.
	Table *core.PayoffTable
}

// VerificationResult contains the outcome of every check and a line of
// detail per check.
type VerificationResult struct {
	SignatureValid     bool
	PublicKeyMatch     bool
	EquilibriaValid    bool
	TableChecked       bool
	CatalogueHashValid bool
	TableHashValid     bool
	ValidationDetails  []string
	Report             *Report
}

// IsValid returns true if all performed checks passed
func (r *VerificationResult) IsValid() bool {
	valid := r.SignatureValid && r.PublicKeyMatch && r.EquilibriaValid
	if r.TableChecked {
		valid = valid && r.CatalogueHashValid && r.TableHashValid
	}
	return valid
}

// Verify checks a sealed report.
//
// Returns:
//   - VerificationResult with detailed results (call result.IsValid() to check overall status)
//   - error if verification cannot be performed (e.g., malformed input, missing key)
func Verify(input *VerificationInput) (*VerificationResult, error) {
	if input.PublicKey == nil {
		return nil, errors.New("no trusted public key supplied")
	}

	msg, err := parseMessage(input.Sealed)
	if err != nil {
		return nil, err
	}
	report, err := decodeReport(msg.Payload)
	if err != nil {
		return nil, err
	}

	result := &VerificationResult{
		ValidationDetails: []string{},
		Report:            report,
	}

	result.SignatureValid = verifySignature(msg, input.PublicKey, result)
	result.PublicKeyMatch = verifyPublicKey(report, input.PublicKey, result)
	result.EquilibriaValid = verifyEquilibria(report, result)

	if input.Table != nil {
		result.TableChecked = true
		result.CatalogueHashValid = verifyCatalogueHash(report, input.Table, result)
		result.TableHashValid = verifyTableHash(report, input.Table, result)
	} else {
		result.ValidationDetails = append(result.ValidationDetails, "No payoff table supplied: table hashes not checked")
	}

	return result, nil
}

func verifySignature(msg *cose.Sign1Message, key *ecdsa.PublicKey, result *VerificationResult) bool {
	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil || alg != cose.AlgorithmES384 {
		result.ValidationDetails = append(result.ValidationDetails, "COSE algorithm is not ES384")
		return false
	}

	verifier, err := cose.NewVerifier(cose.AlgorithmES384, key)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Create verifier failed: %v", err))
		return false
	}
	if err := msg.Verify(nil, verifier); err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("COSE signature verification failed: %v", err))
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, "COSE signature verified")
	return true
}

func verifyPublicKey(report *Report, key *ecdsa.PublicKey, result *VerificationResult) bool {
	if report.PublicKey == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Public key missing from report")
		return false
	}

	embedded, err := ParsePublicKeyPEM(report.PublicKey)
	if err != nil {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Public key in report is unreadable: %v", err))
		return false
	}
	if !embedded.Equal(key) {
		result.ValidationDetails = append(result.ValidationDetails, "Public key mismatch: report was sealed with a different key")
		return false
	}

	result.ValidationDetails = append(result.ValidationDetails, "Public key matches report")
	return true
}

func verifyEquilibria(report *Report, result *VerificationResult) bool {
	total := 0
	for _, size := range report.CatalogueSizes {
		total += size
	}

	for i, eq := range report.Equilibria {
		if len(eq) != total {
			result.ValidationDetails = append(result.ValidationDetails,
				fmt.Sprintf("Equilibrium %d has %d probabilities for %d strategies", i+1, len(eq), total))
			return false
		}
		for _, p := range eq {
			if _, err := gambit.ParseProbability(p); err != nil {
				result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Equilibrium %d: %v", i+1, err))
				return false
			}
		}
	}

	result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("%d equilibria well formed", len(report.Equilibria)))
	return true
}

func verifyCatalogueHash(report *Report, table *core.PayoffTable, result *VerificationResult) bool {
	computed := core.ComputeCatalogueHash(table.Descriptions, report.HashNonce)
	if computed == report.CatalogueHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Catalogue hash validation passed: %s", computed))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Catalogue hash mismatch: computed %s, report has %s", computed, report.CatalogueHash))
	return false
}

func verifyTableHash(report *Report, table *core.PayoffTable, result *VerificationResult) bool {
	if report.HashNonce == "" {
		result.ValidationDetails = append(result.ValidationDetails, "Hash nonce missing from report")
		return false
	}

	computed := core.ComputeTableHash(table, report.HashNonce)
	if computed == report.TableHash {
		result.ValidationDetails = append(result.ValidationDetails, fmt.Sprintf("Table hash validation passed: %s", computed))
		return true
	}
	result.ValidationDetails = append(result.ValidationDetails,
		fmt.Sprintf("Table hash mismatch: computed %s, report has %s", computed, report.TableHash))
	return false
}

// Summary renders the result as one line per check, the way the CLI prints it.
func (r *VerificationResult) Summary() string {
	var sb strings.Builder
	status := "INVALID"
	if r.IsValid() {
		status = "VALID"
	}
	fmt.Fprintf(&sb, "Report %s: %s\n", r.Report.RunID, status)
	for _, d := range r.ValidationDetails {
		fmt.Fprintf(&sb, "  - %s\n", d)
	}
	return sb.String()
}
