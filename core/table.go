package core

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// PayoffRow is one cell of the normal-form game: a strategy profile, given as
// catalogue indices, and its expected payoffs.
type PayoffRow struct {
	Profile []int
	Name    string
	Payoffs Utilities
}

// PayoffTable is the normal form of a BayesianGame. Rows follow the profile
// order of ProfileIndices: player 0's catalogue varies fastest.
type PayoffTable struct {
	GameName     string
	Catalogues   [][]Strategy
	Descriptions [][]string
	Rows         []PayoffRow
}

// CatalogueSizes returns the number of strategies of each player.
func (t *PayoffTable) CatalogueSizes() []int {
	sizes := make([]int, len(t.Catalogues))
	for i, c := range t.Catalogues {
		sizes[i] = len(c)
	}
	return sizes
}

// ExpectedRows returns the product of the catalogue sizes.
func (t *PayoffTable) ExpectedRows() int {
	n, _ := profileCount(t.CatalogueSizes())
	return n
}

// Verify checks that the table holds exactly one row per profile, in order.
func (t *PayoffTable) Verify() error {
	sizes := t.CatalogueSizes()
	expected, err := profileCount(sizes)
	if err != nil {
		return err
	}
	if len(t.Rows) != expected {
		return fmt.Errorf("game %q: %d payoff rows, expected %d: %w", t.GameName, len(t.Rows), expected, ErrPayoffCountMismatch)
	}
	for i, row := range t.Rows {
		want := ProfileIndices(i, sizes)
		if len(row.Profile) != len(want) {
			return fmt.Errorf("game %q: row %d addresses %d players: %w", t.GameName, i, len(row.Profile), ErrPayoffCountMismatch)
		}
		for p := range want {
			if row.Profile[p] != want[p] {
				return fmt.Errorf("game %q: row %d holds profile %v, expected %v: %w", t.GameName, i, row.Profile, want, ErrPayoffCountMismatch)
			}
		}
		if len(row.Payoffs) != len(sizes) {
			return fmt.Errorf("game %q: row %d has %d payoffs: %w", t.GameName, i, len(row.Payoffs), ErrPayoffCountMismatch)
		}
	}
	return nil
}

// ProfileIndices decodes the position of a profile in the table into one
// catalogue index per player, player 0 fastest.
func ProfileIndices(position int, sizes []int) []int {
	indices := make([]int, len(sizes))
	for p, size := range sizes {
		indices[p] = position % size
		position /= size
	}
	return indices
}

func profileCount(sizes []int) (int, error) {
	count := 1
	for p, size := range sizes {
		if size <= 0 {
			return 0, fmt.Errorf("player %d has an empty catalogue: %w", p, ErrInvalidSpecification)
		}
		if count > math.MaxInt/size {
			return 0, fmt.Errorf("profile count overflows: %w", ErrInvalidSpecification)
		}
		count *= size
	}
	return count, nil
}

type tableConfig struct {
	workers  int
	observer Observer
}

// TableOption configures BuildPayoffTable.
type TableOption func(*tableConfig)

// WithWorkers shards the profiles across n goroutines. n <= 0 uses one
// worker per CPU.
func WithWorkers(n int) TableOption {
	return func(c *tableConfig) {
		c.workers = n
	}
}

// WithObserver reports progress to o.
func WithObserver(o Observer) TableOption {
	return func(c *tableConfig) {
		if o != nil {
			c.observer = o
		}
	}
}

// BuildPayoffTable computes the expected payoffs of every strategy profile.
// Workers own contiguous, disjoint ranges of rows, so the result does not
// depend on the number of workers. Cancelling ctx abandons the batch.
func BuildPayoffTable(ctx context.Context, g *BayesianGame, opts ...TableOption) (*PayoffTable, error) {
	cfg := tableConfig{workers: 1, observer: NopObserver{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.NumCPU()
	}

	table := &PayoffTable{
		GameName:     g.name,
		Catalogues:   make([][]Strategy, len(g.players)),
		Descriptions: make([][]string, len(g.players)),
	}
	for i, p := range g.players {
		catalogue := p.PureStrategies()
		table.Catalogues[i] = catalogue
		table.Descriptions[i] = make([]string, len(catalogue))
		for j, s := range catalogue {
			table.Descriptions[i][j] = p.StrategyDescription(s)
		}
		cfg.observer.StrategiesEnumerated(i, len(catalogue))
	}

	sizes := table.CatalogueSizes()
	total, err := profileCount(sizes)
	if err != nil {
		return nil, fmt.Errorf("game %q: %w", g.name, err)
	}
	table.Rows = make([]PayoffRow, total)

	workers := min(cfg.workers, total)
	chunk := (total + workers - 1) / workers
	var done atomic.Int64

	eg, ctx := errgroup.WithContext(ctx)
	for start := 0; start < total; start += chunk {
		end := min(start+chunk, total)
		eg.Go(func() error {
			for position := start; position < end; position++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				table.Rows[position] = table.row(g, position, sizes)
				cfg.observer.ProfileEvaluated(int(done.Add(1)), total)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("game %q: payoff computation abandoned: %w", g.name, err)
	}
	return table, nil
}

func (t *PayoffTable) row(g *BayesianGame, position int, sizes []int) PayoffRow {
	indices := ProfileIndices(position, sizes)
	profile := make(StrategyProfile, len(indices))
	names := make([]string, len(indices))
	for p, idx := range indices {
		profile[p] = t.Catalogues[p][idx]
		names[p] = fmt.Sprintf("P%d_%s", p+1, t.Descriptions[p][idx])
	}
	return PayoffRow{
		Profile: indices,
		Name:    strings.Join(names, "_"),
		Payoffs: g.expectedUtilities(profile),
	}
}
