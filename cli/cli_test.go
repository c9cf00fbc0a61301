package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/bayesauction/attest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), err
}

// writeConfig writes a configuration for the default game whose files all
// live under a fresh temporary directory.
func writeConfig(t *testing.T, extra string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf(`log_level = "error"

[solver]
output_dir = %q

[store]
path = %q

[attest]
key_path = %q
%s`, filepath.Join(dir, "games"), filepath.Join(dir, "runs.db"), filepath.Join(dir, "key.pem"), extra)
	path := filepath.Join(dir, "auctionlab.toml")
	assert.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path, dir
}

func writeSolverScript(t *testing.T, dir, output string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not supported on windows")
	}
	path := filepath.Join(dir, "enumpure.sh")
	assert.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho \""+output+"\"\n"), 0o755))
	return path
}

func TestPresetsCmd(t *testing.T) {
	out, err := execute(t, "presets")
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "first-price"))
	check.True(t, strings.Contains(out, "pezanis"))
	check.True(t, strings.Contains(out, "valuation-cap (default)"))
	check.True(t, strings.Contains(out, "eleven-valuations"))
}

func TestStrategiesCmd(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")

	out, err := execute(t, "strategies", "--config", cfgPath)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	check.Equal(t, "Player_0: 5 strategies", lines[0])
	check.Equal(t, 6, len(lines))
	check.True(t, strings.Contains(lines[1], "Type_0_action_0_Type_1_action_0_Type_2_action_0"))

	_, err = execute(t, "strategies", "--config", cfgPath, "--player", "2")
	check.Error(t, err)
}

func TestStrategiesCmd_Preset(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")

	out, err := execute(t, "strategies", "--config", cfgPath, "--preset", "three-bidders", "--player", "2")
	assert.NoError(t, err)
	check.True(t, strings.HasPrefix(out, "Player_2: "))

	_, err = execute(t, "strategies", "--config", cfgPath, "--preset", "dutch")
	check.Error(t, err)
}

func TestPayoffsCmd(t *testing.T) {
	cfgPath, dir := writeConfig(t, "")

	out, err := execute(t, "payoffs", "--config", cfgPath, "--print")
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "Strategies: [5 5]"))
	check.True(t, strings.Contains(out, "Profiles:   25"))
	check.True(t, strings.Contains(out, "[0 0] "))

	name := "num_players_2_allpay_false_noties_false_nojumps_false_3_valuations_auction.nfg"
	_, err = os.Stat(filepath.Join(dir, "games", name))
	check.NoError(t, err)
}

func TestSimulateCmd(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")

	out, err := execute(t, "simulate", "--config", cfgPath, "--draws", "10")
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "Profile:  [0 0]"))
	check.True(t, strings.Contains(out, "Exact:    0.5,0.5"))
	check.True(t, strings.Contains(out, "(10 draws)"))

	// Truthful bids earn nothing whoever wins a tie.
	out, err = execute(t, "simulate", "--config", cfgPath, "--profile", "4,4")
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "Player_1: Type_0_action_0_Type_1_action_1_Type_2_action_2"))
	check.True(t, strings.Contains(out, "Exact:    0,0"))
	check.True(t, strings.Contains(out, "Sampled:  0.0000,0.0000 (1000 draws)"))

	_, err = execute(t, "simulate", "--config", cfgPath, "--profile", "9,0")
	check.Error(t, err)

	_, err = execute(t, "simulate", "--config", cfgPath, "--draws", "0")
	check.Error(t, err)
}

func TestPayoffsCmd_InvalidConfig(t *testing.T) {
	cfgPath, _ := writeConfig(t, "\n[game]\npolicy = \"generous\"\n")
	_, err := execute(t, "payoffs", "--config", cfgPath)
	assert.NotNil(t, err)
	check.True(t, strings.Contains(err.Error(), "config validation failed"))
}

func TestRunVerifyHistory(t *testing.T) {
	cfgPath, dir := writeConfig(t, "")
	script := writeSolverScript(t, dir, "NE,1,0,0,0,0,1,0,0,0,0")

	body, err := os.ReadFile(cfgPath)
	assert.NoError(t, err)
	body = bytes.Replace(body, []byte("[solver]\n"), []byte(fmt.Sprintf("[solver]\npure_path = %q\n", script)), 1)
	body = bytes.Replace(body, []byte("[store]\n"), []byte("[store]\nenabled = true\n"), 1)
	body = bytes.Replace(body, []byte("[attest]\n"), []byte("[attest]\nenabled = true\n"), 1)
	assert.NoError(t, os.WriteFile(cfgPath, body, 0o600))

	reportPath := filepath.Join(dir, "report.b64")
	out, err := execute(t, "run", "--config", cfgPath, "--report-out", reportPath)
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "Equilibria: 1"))
	check.True(t, strings.Contains(out, "Player_0: Type_0_action_0_Type_1_action_0_Type_2_action_0 (p=1)"))
	check.True(t, strings.Contains(out, "Report:     "+filepath.Join(dir, "games")))

	keys, err := attest.LoadKeyManager(filepath.Join(dir, "key.pem"))
	assert.NoError(t, err)
	pemData, err := keys.PublicKeyPEM()
	assert.NoError(t, err)
	keyPath := filepath.Join(dir, "public.pem")
	assert.NoError(t, os.WriteFile(keyPath, []byte(pemData), 0o600))

	out, err = execute(t, "verify", "--config", cfgPath, "--report", reportPath, "--public-key", keyPath, "--check-table")
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "VALIDATION: ✓ PASSED"))
	check.True(t, strings.Contains(out, "Table Hash:        true"))

	// The compressed copy beside the game file verifies the same way.
	compressedPath := filepath.Join(dir, "games", "num_players_2_allpay_false_noties_false_nojumps_false_3_valuations_auction.report")
	out, err = execute(t, "verify", "--report", compressedPath, "--public-key", keyPath)
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "VALIDATION: ✓ PASSED"))

	out, err = execute(t, "verify", "--report", reportPath, "--public-key", keyPath, "--format", "json")
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, `"valid": true`))
	check.True(t, strings.Contains(out, `"table_checked": false`))

	// A different game does not match the recorded fingerprints.
	out, err = execute(t, "verify", "--config", cfgPath, "--preset", "pezanis", "--report", reportPath, "--public-key", keyPath, "--check-table")
	check.True(t, errors.Is(err, ErrValidationFailed))
	check.True(t, strings.Contains(out, "VALIDATION: ✗ FAILED"))

	out, err = execute(t, "history", "--config", cfgPath)
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "1 equilibria"))
	runID := strings.Fields(out)[1]

	out, err = execute(t, "history", "--config", cfgPath, "--run", runID)
	assert.NoError(t, err)
	check.True(t, strings.Contains(out, "Sealed:     true"))
	check.True(t, strings.Contains(out, "NE 1: 1,0,0,0,0,1,0,0,0,0"))
}

func TestVerifyCmd_WrongKey(t *testing.T) {
	dir := t.TempDir()
	cfgPath, _ := writeConfig(t, "")
	script := writeSolverScript(t, dir, "NE,1,0,0,0,0,1,0,0,0,0")
	t.Setenv("AUCTIONLAB_SOLVER_PURE_PATH", script)
	t.Setenv("AUCTIONLAB_ATTEST_ENABLED", "true")

	reportPath := filepath.Join(dir, "report.b64")
	_, err := execute(t, "run", "--config", cfgPath, "--report-out", reportPath)
	assert.NoError(t, err)

	other, err := attest.NewKeyManager()
	assert.NoError(t, err)
	pemData, err := other.PublicKeyPEM()
	assert.NoError(t, err)
	keyPath := filepath.Join(dir, "other.pem")
	assert.NoError(t, os.WriteFile(keyPath, []byte(pemData), 0o600))

	out, err := execute(t, "verify", "--report", reportPath, "--public-key", keyPath)
	check.True(t, errors.Is(err, ErrValidationFailed))
	check.True(t, strings.Contains(out, "Signature Valid:   false"))
}

func TestVerifyCmd_BadInput(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.b64")
	assert.NoError(t, os.WriteFile(empty, nil, 0o600))

	_, err := execute(t, "verify", "--report", empty, "--public-key", filepath.Join(dir, "missing.pem"))
	check.Error(t, err)
	check.False(t, errors.Is(err, ErrValidationFailed))

	_, err = execute(t, "verify", "--report", empty)
	check.Error(t, err)

	_, err = execute(t, "verify", "--report", empty, "--public-key", empty, "--format", "xml")
	check.Error(t, err)
}

func TestRunCmd_ReportNeedsAttest(t *testing.T) {
	cfgPath, dir := writeConfig(t, "")
	_, err := execute(t, "run", "--config", cfgPath, "--report-out", filepath.Join(dir, "r.b64"))
	check.Error(t, err)
}

func TestHistoryCmd_Empty(t *testing.T) {
	cfgPath, _ := writeConfig(t, "")
	out, err := execute(t, "history", "--config", cfgPath)
	assert.NoError(t, err)
	check.Equal(t, "No runs recorded\n", out)
}
