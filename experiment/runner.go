package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cloudx-io/bayesauction/attest"
	"github.com/cloudx-io/bayesauction/config"
	"github.com/cloudx-io/bayesauction/core"
	"github.com/cloudx-io/bayesauction/gambit"
	"github.com/cloudx-io/bayesauction/store"
)

// RunStore records finished runs.
type RunStore interface {
	SaveRun(ctx context.Context, run *store.Run) error
}

// Result is everything one run produced.
type Result struct {
	RunID      string
	Game       *core.BayesianGame
	Table      *core.PayoffTable
	NFGPath    string
	Equilibria []gambit.Equilibrium
	Report     *attest.Report
	// Sealed and ReportPath are empty unless the runner has a sealer.
	Sealed     attest.Sealed
	ReportPath string
	Elapsed    time.Duration
}

// Runner drives one configured auction from game construction to a recorded
// equilibrium report. Store and Sealer are optional.
type Runner struct {
	Config   *config.Config
	Solver   *gambit.Solver
	Store    RunStore
	Sealer   *attest.Sealer
	Observer core.Observer
	Logger   *slog.Logger

	closers []func() error
}

// NewRunner wires a runner from cfg: the Gambit solver it names, the run
// history database and the signing key when those are enabled. Close
// releases what NewRunner opened.
func NewRunner(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		Config: cfg,
		Solver: &gambit.Solver{
			PurePath:  cfg.Solver.PurePath,
			MixedPath: cfg.Solver.MixedPath,
			Timeout:   cfg.Solver.Timeout.Duration,
			Runner:    gambit.ExecRunner{},
			Logger:    logger,
		},
		Observer: core.LogObserver{Logger: logger},
		Logger:   logger,
	}

	if cfg.Store.Enabled {
		db, err := store.Open(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		r.Store = db
		r.closers = append(r.closers, db.Close)
	}

	if cfg.Attest.Enabled {
		keys, err := attest.LoadKeyManager(cfg.Attest.KeyPath)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to load signing key: %w", err)
		}
		r.Sealer = &attest.Sealer{Keys: keys, Logger: logger}
	}

	return r, nil
}

// Close releases the resources opened by NewRunner.
func (r *Runner) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) observer() core.Observer {
	if r.Observer == nil {
		return core.NopObserver{}
	}
	return r.Observer
}

// Payoffs builds the configured game and its payoff table and writes the
// table as an NFG file, returning the file's path.
func (r *Runner) Payoffs(ctx context.Context) (*core.BayesianGame, *core.PayoffTable, string, error) {
	game, err := BuildGame(r.Config.Game)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to build game: %w", err)
	}

	started := time.Now()
	table, err := core.BuildPayoffTable(ctx, game,
		core.WithWorkers(r.Config.Compute.Workers),
		core.WithObserver(r.observer()),
	)
	if err != nil {
		return nil, nil, "", err
	}
	r.logger().Info("payoff table built",
		slog.String("game", game.Name()),
		slog.Int("profiles", len(table.Rows)),
		slog.Duration("elapsed", time.Since(started)),
	)

	path, err := gambit.WriteNFGFile(r.Config.Solver.OutputDir, table)
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to write game file: %w", err)
	}
	if err := checkGameFile(path, table); err != nil {
		return nil, nil, "", err
	}
	r.logger().Info("game file written", slog.String("path", path))
	return game, table, path, nil
}

// checkGameFile reads path back and confirms it lists the table's catalogues.
func checkGameFile(path string, table *core.PayoffTable) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to reopen game file: %w", err)
	}
	defer f.Close()

	header, err := gambit.ReadHeader(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if got, want := header.CatalogueSizes(), table.CatalogueSizes(); !slices.Equal(got, want) {
		return fmt.Errorf("%s lists catalogues %v, table has %v: %w", path, got, want, gambit.ErrMalformedGame)
	}
	return nil
}

// writeSealedReport stores the compressed form of sealed beside the game
// file at nfgPath.
func writeSealedReport(nfgPath string, sealed attest.Sealed) (string, error) {
	compressed, err := sealed.CompressGzip()
	if err != nil {
		return "", err
	}
	path := strings.TrimSuffix(nfgPath, gambit.FileExtension) + attest.ReportExtension
	if err := os.WriteFile(path, []byte(compressed.String()+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("failed to write sealed report: %w", err)
	}
	return path, nil
}

// Run executes the whole pipeline: game, payoff table, NFG file, solver,
// report, optional seal with its report file, optional history record.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()
	log := r.logger().With(slog.String("run_id", runID))

	game, table, path, err := r.Payoffs(ctx)
	if err != nil {
		return nil, err
	}
	log.Info("running", slog.String("game", game.Name()))

	equilibria, err := r.Solver.Equilibria(ctx, path, table.CatalogueSizes(), r.Config.Solver.OnlyPure)
	if err != nil {
		return nil, err
	}
	if len(equilibria) == 0 {
		log.Warn("no equilibrium found", slog.String("game", game.Name()))
	} else {
		log.Info("equilibria found",
			slog.String("game", game.Name()),
			slog.Int("count", len(equilibria)),
		)
	}

	report, err := attest.NewReport(attest.RunInfo{
		RunID:  runID,
		Policy: PolicyLabel(r.Config.Game),
		AllPay: game.AllPay(),
		NoTies: game.NoTies(),
	}, table, equilibria)
	if err != nil {
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	result := &Result{
		RunID:      runID,
		Game:       game,
		Table:      table,
		NFGPath:    path,
		Equilibria: equilibria,
		Report:     report,
	}

	if r.Sealer != nil {
		sealed, err := r.Sealer.Seal(report)
		if err != nil {
			return nil, fmt.Errorf("failed to seal report: %w", err)
		}
		result.Sealed = sealed

		result.ReportPath, err = writeSealedReport(path, sealed)
		if err != nil {
			return nil, err
		}
		log.Info("sealed report written", slog.String("path", result.ReportPath))
	}

	if r.Store != nil {
		run := &store.Run{
			ID:             runID,
			GameName:       report.GameName,
			NumPlayers:     report.NumPlayers,
			Policy:         report.Policy,
			AllPay:         report.AllPay,
			NoTies:         report.NoTies,
			CatalogueSizes: report.CatalogueSizes,
			NFGPath:        path,
			TableHash:      report.TableHash,
			Equilibria:     report.Equilibria,
			CreatedAt:      report.Timestamp,
		}
		if len(result.Sealed) > 0 {
			run.SealedReport = result.Sealed.EncodeBase64().String()
		}
		if err := r.Store.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}

	result.Elapsed = time.Since(started)
	log.Info("run finished", slog.Duration("elapsed", result.Elapsed))
	return result, nil
}
