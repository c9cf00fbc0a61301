package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudx-io/bayesauction/attest"
	"github.com/cloudx-io/bayesauction/core"
	"github.com/cloudx-io/bayesauction/experiment"
)

// ErrValidationFailed is returned by verify when a check did not pass.
var ErrValidationFailed = errors.New("validation failed")

func newVerifyCmd(opts *globalOptions) *cobra.Command {
	var (
		reportPath    string
		publicKeyPath string
		checkTable    bool
		outputFormat  string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the signature and contents of a sealed equilibrium report",
		Long: `Checks a sealed equilibrium report against a trusted public key. The
report may be the base64 file written by run --report-out or the compressed
.report file written next to the game file.

With --check-table the configured game is rebuilt and its payoff table is
compared with the fingerprints recorded in the report.

Exit codes:
  0 - Validation passed
  1 - Validation failed
  2 - Invalid input or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "text" && outputFormat != "json" {
				return fmt.Errorf("--format must be text or json, got %q", outputFormat)
			}

			sealed, err := readSealedReport(reportPath)
			if err != nil {
				return fmt.Errorf("error reading report: %w", err)
			}
			pemData, err := os.ReadFile(publicKeyPath)
			if err != nil {
				return fmt.Errorf("error reading public key: %w", err)
			}
			publicKey, err := attest.ParsePublicKeyPEM(string(pemData))
			if err != nil {
				return err
			}

			input := &attest.VerificationInput{Sealed: sealed, PublicKey: publicKey}
			if checkTable {
				cfg, _, err := loadConfig(cmd, opts)
				if err != nil {
					return err
				}
				game, err := experiment.BuildGame(cfg.Game)
				if err != nil {
					return err
				}
				input.Table, err = core.BuildPayoffTable(cmd.Context(), game, core.WithWorkers(cfg.Compute.Workers))
				if err != nil {
					return err
				}
			}

			result, err := attest.Verify(input)
			if err != nil {
				return fmt.Errorf("validation error: %w", err)
			}

			if outputFormat == "json" {
				if err := outputJSON(cmd, result); err != nil {
					return fmt.Errorf("error marshaling JSON: %w", err)
				}
			} else {
				outputText(cmd, result)
			}

			if !result.IsValid() {
				return ErrValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "path to the sealed report, base64 or compressed (required)")
	cmd.Flags().StringVar(&publicKeyPath, "public-key", "", "path to the trusted public key PEM file (required)")
	cmd.Flags().BoolVar(&checkTable, "check-table", false, "rebuild the configured game and compare its payoff table")
	cmd.Flags().StringVar(&outputFormat, "format", "text", "output format: text or json")
	_ = cmd.MarkFlagRequired("report")
	_ = cmd.MarkFlagRequired("public-key")
	return cmd
}

func readSealedReport(path string) (attest.Sealed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	sealed, err := attest.ParseSealed(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sealed, nil
}

func outputText(cmd *cobra.Command, result *attest.VerificationResult) {
	out := newPrinter(cmd.OutOrStdout())
	out.Info("Equilibrium Report Validator")
	out.Info("============================")
	out.Info("")
	out.Info(strings.TrimRight(result.Summary(), "\n"))
	out.Info("")
	out.Info("Summary:")
	out.Info(fmt.Sprintf("  Signature Valid:   %v", result.SignatureValid))
	out.Info(fmt.Sprintf("  Public Key Match:  %v", result.PublicKeyMatch))
	out.Info(fmt.Sprintf("  Equilibria Valid:  %v", result.EquilibriaValid))
	if result.TableChecked {
		out.Info(fmt.Sprintf("  Catalogue Hash:    %v", result.CatalogueHashValid))
		out.Info(fmt.Sprintf("  Table Hash:        %v", result.TableHashValid))
	}
	out.Info("")
	out.Info("============================")
	if result.IsValid() {
		out.Info("VALIDATION: ✓ PASSED")
	} else {
		out.Info("VALIDATION: ✗ FAILED")
	}
}

func outputJSON(cmd *cobra.Command, result *attest.VerificationResult) error {
	output := map[string]any{
		"valid":            result.IsValid(),
		"run_id":           result.Report.RunID,
		"game_name":        result.Report.GameName,
		"signature_valid":  result.SignatureValid,
		"public_key_match": result.PublicKeyMatch,
		"equilibria_valid": result.EquilibriaValid,
		"table_checked":    result.TableChecked,
		"details":          result.ValidationDetails,
	}
	if result.TableChecked {
		output["catalogue_hash_valid"] = result.CatalogueHashValid
		output["table_hash_valid"] = result.TableHashValid
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return err
	}
	newPrinter(cmd.OutOrStdout()).Info(string(data))
	return nil
}
