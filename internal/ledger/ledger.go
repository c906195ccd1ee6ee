// Package ledger records batch run outcomes so operators can inspect what a
// run processed after the process has exited.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Outcome values used in records.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
	OutcomeEmpty  = "empty"
)

// ErrRunNotFound is returned when a run id has no record.
var ErrRunNotFound = errors.New("run not found")

// FileRecord describes the processing of one input file.
type FileRecord struct {
	RunID        string    `json:"runId"`
	File         string    `json:"file"`
	Outcome      string    `json:"outcome"`
	ElapsedNanos int64     `json:"elapsedNs,omitempty"`
	Error        string    `json:"error,omitempty"`
	At           time.Time `json:"at"`
}

// RunRecord summarises one batch run.
type RunRecord struct {
	RunID       string    `json:"runId"`
	InputDir    string    `json:"inputDir"`
	OutputDir   string    `json:"outputDir"`
	AlgoVersion string    `json:"algoVersion"`
	Processed   int       `json:"processed"`
	Failed      string    `json:"failed,omitempty"`
	Outcome     string    `json:"outcome"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Memory keeps records in process. It is safe for concurrent use.
type Memory struct {
	mu    sync.Mutex
	runs  map[string]RunRecord
	files map[string][]FileRecord
}

// NewMemory returns an empty in-process ledger.
func NewMemory() *Memory {
	return &Memory{
		runs:  make(map[string]RunRecord),
		files: make(map[string][]FileRecord),
	}
}

func (m *Memory) RecordFile(_ context.Context, rec FileRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[rec.RunID] = append(m.files[rec.RunID], rec)
	return nil
}

func (m *Memory) RecordRun(_ context.Context, rec RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[rec.RunID] = rec
	return nil
}

func (m *Memory) Run(_ context.Context, runID string) (RunRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.runs[runID]
	if !ok {
		return RunRecord{}, ErrRunNotFound
	}
	return rec, nil
}

func (m *Memory) Files(_ context.Context, runID string) ([]FileRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]FileRecord(nil), m.files[runID]...), nil
}

func (m *Memory) Close() error { return nil }
