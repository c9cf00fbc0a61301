package core

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// ComputeTableHash fingerprints a payoff table.
//
// Formula: SHA256(game_name + "|" + nonce + "|" + row_1 + "|" + row_2 ...)
// where row_i = profile_name + ":" + comma-separated reduced-fraction payoffs.
//
// Rows are hashed in table order, so any reordering changes the hash.
func ComputeTableHash(table *PayoffTable, nonce string) string {
	var sb strings.Builder
	sb.WriteString(table.GameName)
	sb.WriteString("|")
	sb.WriteString(nonce)
	for _, row := range table.Rows {
		sb.WriteString("|")
		sb.WriteString(row.Name)
		sb.WriteString(":")
		sb.WriteString(strings.Join(row.Payoffs.Strings(), ","))
	}
	hash := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", hash)
}

// ComputeCatalogueHash fingerprints the strategy catalogues in player order.
//
// Formula: SHA256(nonce + "|" + player_0 + "|" + player_1 ...)
// where player_i = its strategy descriptions joined by ";".
func ComputeCatalogueHash(descriptions [][]string, nonce string) string {
	data := nonce
	for _, catalogue := range descriptions {
		data += "|" + strings.Join(catalogue, ";")
	}
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}
