package attest

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/cloudx-io/bayesauction/core"
	"github.com/cloudx-io/bayesauction/gambit"
)

// Report is the record of one solved game: which game was built, a
// fingerprint of its payoff table and the equilibria the solver returned.
type Report struct {
	RunID          string     `cbor:"run_id" json:"run_id"`
	GameName       string     `cbor:"game_name" json:"game_name"`
	NumPlayers     int        `cbor:"num_players" json:"num_players"`
	Policy         string     `cbor:"policy" json:"policy"`
	AllPay         bool       `cbor:"all_pay" json:"all_pay"`
	NoTies         bool       `cbor:"no_ties" json:"no_ties"`
	CatalogueSizes []int      `cbor:"catalogue_sizes" json:"catalogue_sizes"`
	CatalogueHash  string     `cbor:"catalogue_hash" json:"catalogue_hash"`
	TableHash      string     `cbor:"table_hash" json:"table_hash"`
	HashNonce      string     `cbor:"hash_nonce" json:"hash_nonce"`
	Equilibria     [][]string `cbor:"equilibria" json:"equilibria"`
	KeyAlgorithm   string     `cbor:"key_algorithm" json:"key_algorithm"`
	PublicKey      string     `cbor:"public_key" json:"public_key"` // PEM, filled in when sealed
	Timestamp      time.Time  `cbor:"timestamp" json:"timestamp"`
}

// RunInfo describes the run a report belongs to.
type RunInfo struct {
	RunID  string
	Policy string
	AllPay bool
	NoTies bool
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("attest: cbor encoding mode: %v", err))
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("attest: cbor decoding mode: %v", err))
	}
}

// generateSecureRandomBytes generates cryptographically secure random bytes
func generateSecureRandomBytes(length int) ([]byte, error) {
	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return nil, fmt.Errorf("entropy generation failed: %w", err)
	}
	return randomBytes, nil
}

func generateNonce() (string, error) {
	randomBytes, err := generateSecureRandomBytes(32) // 256 bits of entropy
	if err != nil {
		return "", fmt.Errorf("failed to generate secure nonce - %w", err)
	}
	return hex.EncodeToString(randomBytes), nil
}

// NewReport fingerprints table under a fresh nonce and records equilibria in
// solver order.
func NewReport(info RunInfo, table *core.PayoffTable, equilibria []gambit.Equilibrium) (*Report, error) {
	nonce, err := generateNonce()
	if err != nil {
		return nil, fmt.Errorf("failed to generate hash nonce: %w", err)
	}

	sizes := table.CatalogueSizes()
	records := make([][]string, len(equilibria))
	for i, eq := range equilibria {
		record := make([]string, 0)
		for player, size := range sizes {
			for strategy := range size {
				p, ok := eq.Probability(gambit.StrategyRef{Player: player, Strategy: strategy})
				if !ok {
					return nil, fmt.Errorf("equilibrium %d has no probability for player %d strategy %d", i+1, player, strategy)
				}
				record = append(record, p)
			}
		}
		records[i] = record
	}

	return &Report{
		RunID:          info.RunID,
		GameName:       table.GameName,
		NumPlayers:     len(sizes),
		Policy:         info.Policy,
		AllPay:         info.AllPay,
		NoTies:         info.NoTies,
		CatalogueSizes: sizes,
		CatalogueHash:  core.ComputeCatalogueHash(table.Descriptions, nonce),
		TableHash:      core.ComputeTableHash(table, nonce),
		HashNonce:      nonce,
		Equilibria:     records,
		Timestamp:      time.Now().UTC().Truncate(time.Second),
	}, nil
}

func encodeReport(r *Report) ([]byte, error) {
	data, err := encMode.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return data, nil
}

func decodeReport(data []byte) (*Report, error) {
	var r Report
	if err := decMode.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
