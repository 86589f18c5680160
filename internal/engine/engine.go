// Package engine invokes the external MCMC occupancy-model engine.
//
// The engine binary is a black box: it reads a JSON visits file, fits the
// Bayesian occupancy model with the configured MCMC settings, and writes a
// posterior CSV (one row per modeled year: year, Rhat, then one column per
// posterior draw). This package only builds the input, runs the binary under
// a context timeout, and parses the output into a posterior.Store; the model,
// its priors, and its sampler live entirely in the engine.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/occutrend/occutrend/internal/logger"
	"github.com/occutrend/occutrend/internal/models"
	"github.com/occutrend/occutrend/internal/posterior"
)

// DefaultTimeout bounds a single engine run. MCMC fits are slow but not
// unbounded; a run exceeding this has almost certainly hung.
const DefaultTimeout = 30 * time.Minute

// ExecFunc is the signature for running a command and capturing stdout.
// Injectable so tests can fake the engine binary.
type ExecFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// MCMCSettings are the sampler parameters passed through to the engine.
type MCMCSettings struct {
	Iterations int `json:"iterations"`
	Burnin     int `json:"burnin"`
	Chains     int `json:"chains"`
	Thin       int `json:"thin"`
}

// Input is the JSON document written for the engine.
type Input struct {
	FocalSpecies string         `json:"focal_species"`
	FirstYear    int            `json:"first_year"`
	LastYear     int            `json:"last_year"`
	MCMC         MCMCSettings   `json:"mcmc"`
	Visits       []models.Visit `json:"visits"`
}

// Config describes how to invoke the engine binary.
type Config struct {
	Binary  string
	WorkDir string // input/output directory; a temp dir is created when empty
	Timeout time.Duration
	MCMC    MCMCSettings
}

// Engine runs the external fitting binary.
type Engine struct {
	cfg    Config
	execFn ExecFunc
}

// New creates an Engine. A nil execFn uses os/exec.
func New(cfg Config, execFn ExecFunc) *Engine {
	if execFn == nil {
		execFn = defaultExec
	}
	return &Engine{cfg: cfg, execFn: execFn}
}

// Fit writes the visits input file, runs the engine, and parses the posterior
// output. Returns the populated store and the path of the posterior CSV the
// engine wrote, so callers can re-load it later without refitting.
func (e *Engine) Fit(ctx context.Context, in Input) (*posterior.Store, string, error) {
	if e.cfg.Binary == "" {
		return nil, "", fmt.Errorf("engine binary is not configured")
	}
	if len(in.Visits) == 0 {
		return nil, "", fmt.Errorf("no visits to fit: run fetch first or widen the year window")
	}
	if in.FocalSpecies == "" {
		return nil, "", fmt.Errorf("focal species must not be empty")
	}

	workDir := e.cfg.WorkDir
	if workDir == "" {
		dir, err := os.MkdirTemp("", "occutrend-fit-*")
		if err != nil {
			return nil, "", fmt.Errorf("failed to create work directory: %w", err)
		}
		workDir = dir
	} else if err := os.MkdirAll(workDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("failed to create work directory: %w", err)
	}

	inputPath := filepath.Join(workDir, "visits.json")
	outputPath := filepath.Join(workDir, "posterior.csv")

	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal engine input: %w", err)
	}
	if err := os.WriteFile(inputPath, data, 0o600); err != nil {
		return nil, "", fmt.Errorf("failed to write engine input: %w", err)
	}

	timeout := e.cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	logger.Info("Running engine %s (%d visits, %d chains x %d iterations)",
		e.cfg.Binary, len(in.Visits), in.MCMC.Chains, in.MCMC.Iterations)

	start := time.Now()
	if _, err := e.execFn(runCtx, e.cfg.Binary, "--input", inputPath, "--output", outputPath); err != nil {
		return nil, "", fmt.Errorf("engine run failed after %v: %w", time.Since(start), err)
	}
	logger.Info("Engine finished in %v", time.Since(start))

	store, err := LoadPosteriorFile(outputPath)
	if err != nil {
		return nil, "", err
	}
	return store, outputPath, nil
}

// defaultExec runs the binary via os/exec, surfacing stderr in the error.
func defaultExec(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%w: %s", err, exitErr.Stderr)
		}
		return nil, err
	}
	return out, nil
}
