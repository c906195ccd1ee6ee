// Package batch drains a directory of JSON request files through the pipeline,
// writing one response file per input and stopping at the first failure.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/SyedDaiam9101/algosvc/internal/codec"
	"github.com/SyedDaiam9101/algosvc/internal/ledger"
	"github.com/SyedDaiam9101/algosvc/internal/metrics"
	"github.com/SyedDaiam9101/algosvc/internal/pipeline"
)

const inputSuffix = ".json"

// Config names the directories of one run.
type Config struct {
	InputDir  string
	OutputDir string
}

// Recorder receives per-file and per-run outcomes.
type Recorder interface {
	RecordFile(ctx context.Context, rec ledger.FileRecord) error
	RecordRun(ctx context.Context, rec ledger.RunRecord) error
}

// Summary describes a finished run.
type Summary struct {
	RunID     string
	Processed []string
	// Failed is the file that aborted the run, empty on success.
	Failed string
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger; the default discards output.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithRecorder sends outcomes to rec. Recorder failures are logged and never
// change the outcome of a run.
func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

// Runner processes the files of one input directory sequentially.
type Runner struct {
	fs       afero.Fs
	cfg      Config
	pipeline *pipeline.Pipeline
	log      zerolog.Logger
	recorder Recorder
}

// NewRunner creates a Runner over fs.
func NewRunner(fs afero.Fs, cfg Config, p *pipeline.Pipeline, opts ...Option) *Runner {
	r := &Runner{
		fs:       fs,
		cfg:      cfg,
		pipeline: p,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the batch. It returns an *EnvironmentError when the run cannot
// start and a *FileError naming the first file that failed.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	started := time.Now()
	log := r.log.With().Str("run_id", sum.RunID).Logger()

	if err := r.fs.MkdirAll(r.cfg.OutputDir, 0o755); err != nil {
		err = &EnvironmentError{Op: "create output directory", Path: r.cfg.OutputDir, Err: err}
		log.Error().Err(err).Msg("cannot start run")
		return sum, err
	}

	files, err := r.discover()
	if err != nil {
		log.Error().Err(err).Msg("cannot start run")
		return sum, err
	}

	if len(files) == 0 {
		log.Info().Str("input_dir", r.cfg.InputDir).Msg("no JSON files found in input directory")
		r.recordRun(ctx, log, sum, started, ledger.OutcomeEmpty)
		return sum, nil
	}

	log.Info().Int("files", len(files)).Str("input_dir", r.cfg.InputDir).Msg("processing files")

	for _, name := range files {
		res, err := r.processFile(ctx, name)
		if err != nil {
			sum.Failed = name
			metrics.RecordBatchFile(ledger.OutcomeFailed)
			log.Error().Str("file", name).Str("kind", pipeline.KindOf(err).String()).Err(err).Msg("failed to process file")
			r.recordFile(ctx, log, ledger.FileRecord{
				RunID:   sum.RunID,
				File:    name,
				Outcome: ledger.OutcomeFailed,
				Error:   err.Error(),
				At:      time.Now().UTC(),
			})
			r.recordRun(ctx, log, sum, started, ledger.OutcomeFailed)
			return sum, &FileError{File: name, Err: err}
		}

		sum.Processed = append(sum.Processed, name)
		metrics.RecordBatchFile(ledger.OutcomeOK)
		log.Info().
			Str("file", name).
			Str("output", filepath.Join(r.cfg.OutputDir, name)).
			Int64("elapsed_ns", res.Response.ElapsedNanos).
			Msg("processed file")
		r.recordFile(ctx, log, ledger.FileRecord{
			RunID:        sum.RunID,
			File:         name,
			Outcome:      ledger.OutcomeOK,
			ElapsedNanos: res.Response.ElapsedNanos,
			At:           time.Now().UTC(),
		})
	}

	log.Info().Int("files", len(sum.Processed)).Msg("successfully processed all files")
	r.recordRun(ctx, log, sum, started, ledger.OutcomeOK)
	return sum, nil
}

// discover lists the regular *.json files directly inside the input
// directory, sorted by name.
func (r *Runner) discover() ([]string, error) {
	info, err := r.fs.Stat(r.cfg.InputDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &EnvironmentError{Op: "input directory does not exist", Path: r.cfg.InputDir}
		}
		return nil, &EnvironmentError{Op: "stat input directory", Path: r.cfg.InputDir, Err: err}
	}
	if !info.IsDir() {
		return nil, &EnvironmentError{Op: "input path is not a directory", Path: r.cfg.InputDir}
	}

	entries, err := afero.ReadDir(r.fs, r.cfg.InputDir)
	if err != nil {
		return nil, &EnvironmentError{Op: "list input directory", Path: r.cfg.InputDir, Err: err}
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, inputSuffix) {
			continue
		}
		// Stat follows symlinks so linked request files are picked up.
		fi, err := r.fs.Stat(filepath.Join(r.cfg.InputDir, name))
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

func (r *Runner) processFile(ctx context.Context, name string) (pipeline.Result, error) {
	raw, err := afero.ReadFile(r.fs, filepath.Join(r.cfg.InputDir, name))
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("read input: %w", err)
	}

	res, err := r.pipeline.Process(ctx, raw, codec.BatchEnvelope)
	if err != nil {
		return pipeline.Result{}, err
	}

	if err := afero.WriteFile(r.fs, filepath.Join(r.cfg.OutputDir, name), res.Body, 0o644); err != nil {
		return pipeline.Result{}, fmt.Errorf("write output: %w", err)
	}
	return res, nil
}

func (r *Runner) recordFile(ctx context.Context, log zerolog.Logger, rec ledger.FileRecord) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.RecordFile(ctx, rec); err != nil {
		log.Warn().Err(err).Str("file", rec.File).Msg("ledger: record file failed")
	}
}

func (r *Runner) recordRun(ctx context.Context, log zerolog.Logger, sum Summary, started time.Time, outcome string) {
	if r.recorder == nil {
		return
	}
	rec := ledger.RunRecord{
		RunID:       sum.RunID,
		InputDir:    r.cfg.InputDir,
		OutputDir:   r.cfg.OutputDir,
		AlgoVersion: r.pipeline.AlgoVersion(),
		Processed:   len(sum.Processed),
		Failed:      sum.Failed,
		Outcome:     outcome,
		StartedAt:   started.UTC(),
		FinishedAt:  time.Now().UTC(),
	}
	if err := r.recorder.RecordRun(ctx, rec); err != nil {
		log.Warn().Err(err).Msg("ledger: record run failed")
	}
}
