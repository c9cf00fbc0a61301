package gambit

import (
	"bufio"
	"fmt"
	"io"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cloudx-io/bayesauction/core"
)

// FileExtension is appended to the game name to form the NFG file name.
const FileExtension = ".nfg"

var (
	two  = big.NewInt(2)
	five = big.NewInt(5)
)

// FormatPayoff renders r without loss. Integers print as integers, rationals
// with a terminating decimal expansion as decimals and everything else as a
// reduced fraction "a/b".
func FormatPayoff(r *big.Rat) string {
	if r.IsInt() {
		return r.Num().String()
	}
	places, ok := decimalPlaces(r.Denom())
	if !ok {
		return r.RatString()
	}
	num := decimal.NewFromBigInt(r.Num(), 0)
	den := decimal.NewFromBigInt(r.Denom(), 0)
	return num.DivRound(den, places).String()
}

// decimalPlaces returns the number of digits after the point needed to write
// 1/den exactly, or false when the expansion does not terminate.
func decimalPlaces(den *big.Int) (int32, bool) {
	rest := new(big.Int).Set(den)
	mod := new(big.Int)
	count := func(p *big.Int) int32 {
		var n int32
		for {
			q, m := new(big.Int).QuoRem(rest, p, mod)
			if m.Sign() != 0 {
				return n
			}
			rest = q
			n++
		}
	}
	twos := count(two)
	fives := count(five)
	if rest.Cmp(big.NewInt(1)) != 0 {
		return 0, false
	}
	return max(twos, fives), true
}

func quote(s string) (string, error) {
	if strings.ContainsAny(s, "\"\n") {
		return "", fmt.Errorf("label %q cannot be written to an NFG file: %w", s, core.ErrInvalidSpecification)
	}
	return `"` + s + `"`, nil
}

// PlayerLabel names player i in the NFG header.
func PlayerLabel(i int) string {
	return "Player_" + strconv.Itoa(i)
}

// WriteNFG serializes table in Gambit's outcome-based strategic game format.
// The table is verified first: a missing or misplaced row would silently
// shift every payoff after it.
func WriteNFG(w io.Writer, table *core.PayoffTable) error {
	if err := table.Verify(); err != nil {
		return err
	}
	name, err := quote(table.GameName)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	players := make([]string, len(table.Descriptions))
	for i := range table.Descriptions {
		players[i] = `"` + PlayerLabel(i) + `"`
	}
	fmt.Fprintf(bw, "NFG 1 R %s { %s } \n\n ", name, strings.Join(players, " "))

	lists := make([]string, len(table.Descriptions))
	for i, catalogue := range table.Descriptions {
		labels := make([]string, len(catalogue))
		for j, desc := range catalogue {
			if labels[j], err = quote(desc); err != nil {
				return err
			}
		}
		lists[i] = "{ " + strings.Join(labels, " ") + " }"
	}
	fmt.Fprintf(bw, "{ %s \n}\n\"\"\n\n{\n", strings.Join(lists, "\n"))

	for _, row := range table.Rows {
		label, err := quote(row.Name)
		if err != nil {
			return err
		}
		payoffs := make([]string, len(row.Payoffs))
		for i, p := range row.Payoffs {
			payoffs[i] = FormatPayoff(p)
		}
		fmt.Fprintf(bw, "{ %s %s }\n", label, strings.Join(payoffs, ","))
	}
	bw.WriteString("}\n")

	for i := range table.Rows {
		if i > 0 {
			bw.WriteByte(' ')
		}
		bw.WriteString(strconv.Itoa(i + 1))
	}
	bw.WriteByte('\n')

	return bw.Flush()
}

// WriteNFGFile writes table to <dir>/<game_name>.nfg and returns the path.
func WriteNFGFile(dir string, table *core.PayoffTable) (string, error) {
	if table.GameName == "" || strings.ContainsAny(table.GameName, `/\`) {
		return "", fmt.Errorf("game name %q is not a valid file name: %w", table.GameName, core.ErrInvalidSpecification)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	path := filepath.Join(dir, table.GameName+FileExtension)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create game file: %w", err)
	}
	if err := WriteNFG(f, table); err != nil {
		f.Close()
		return "", fmt.Errorf("write game file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close game file %s: %w", path, err)
	}
	return path, nil
}
