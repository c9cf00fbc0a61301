package gambit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	DefaultPurePath  = "gambit-enumpure"
	DefaultMixedPath = "gambit-enummixed"
	DefaultTimeout   = 10 * time.Minute

	// quietFlag suppresses the solver banner so stdout holds equilibria only.
	quietFlag = "-q"
)

// ErrSolverTimeout is returned when the solver does not finish in time.
var ErrSolverTimeout = errors.New("equilibrium solver timed out")

// SolverError reports a solver process that exited unsuccessfully.
type SolverError struct {
	Game     string
	Path     string
	Solver   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *SolverError) Error() string {
	msg := fmt.Sprintf("solver %s failed on game %q (%s): exit code %d", e.Solver, e.Game, e.Path, e.ExitCode)
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (e *SolverError) Unwrap() error {
	return e.Err
}

// Runner executes the solver process. Output is fully buffered.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs the solver as a local subprocess.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// Solver invokes an external Gambit command line tool on NFG files.
type Solver struct {
	PurePath  string
	MixedPath string
	Timeout   time.Duration
	Runner    Runner
	Logger    *slog.Logger
}

func (s *Solver) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Solver) command(onlyPure bool) string {
	if onlyPure {
		if s.PurePath != "" {
			return s.PurePath
		}
		return DefaultPurePath
	}
	if s.MixedPath != "" {
		return s.MixedPath
	}
	return DefaultMixedPath
}

// Solve runs the solver on nfgPath and returns its raw standard output.
// onlyPure selects the pure-strategy enumerator.
func (s *Solver) Solve(ctx context.Context, nfgPath string, onlyPure bool) ([]byte, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runner := s.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	command := s.command(onlyPure)
	game := strings.TrimSuffix(filepath.Base(nfgPath), FileExtension)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger().Info("starting equilibrium calculation",
		slog.String("solver", command),
		slog.String("game", game),
		slog.Duration("timeout", timeout),
	)
	started := time.Now()

	stdout, stderr, err := runner.Run(ctx, command, quietFlag, nfgPath)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("game %q: %s did not finish within %s: %w", game, command, timeout, ErrSolverTimeout)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("game %q: equilibrium calculation abandoned: %w", game, ctxErr)
		}

		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return nil, &SolverError{
			Game:     game,
			Path:     nfgPath,
			Solver:   command,
			ExitCode: exitCode,
			Stderr:   string(stderr),
			Err:      err,
		}
	}

	s.logger().Info("equilibrium calculation finished",
		slog.String("game", game),
		slog.Duration("elapsed", time.Since(started)),
	)
	return stdout, nil
}

// Equilibria solves nfgPath and parses the output against the catalogue
// sizes the file was written with. No equilibrium is an empty result.
func (s *Solver) Equilibria(ctx context.Context, nfgPath string, catalogueSizes []int, onlyPure bool) ([]Equilibrium, error) {
	output, err := s.Solve(ctx, nfgPath, onlyPure)
	if err != nil {
		return nil, err
	}
	equilibria, err := ParseEquilibria(output, catalogueSizes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", nfgPath, err)
	}
	for i, eq := range equilibria {
		s.logger().Debug("equilibrium found",
			slog.Int("index", i+1),
			slog.Int("of", len(equilibria)),
			slog.String("profile", eq.String()),
		)
	}
	return equilibria, nil
}
