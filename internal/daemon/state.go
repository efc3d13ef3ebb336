package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/vestalisvirginis/filehole/internal/audit"
	"github.com/vestalisvirginis/filehole/pkg/dateutil"
)

// WatchState is what the daemon remembers between restarts
type WatchState struct {
	LastRunDate string              `json:"last_run_date"`
	LastRunAt   string              `json:"last_run_at"`
	Jobs        map[string]JobState `json:"jobs"`
}

// JobState is the outcome of the last audit of one job
type JobState struct {
	RunID      string   `json:"run_id,omitempty"`
	Start      string   `json:"start,omitempty"`
	End        string   `json:"end,omitempty"`
	Missing    []string `json:"missing"`
	Error      string   `json:"error,omitempty"`
	FinishedAt string   `json:"finished_at"`
}

// StateManager persists WatchState as JSON. Safe for concurrent use.
type StateManager struct {
	fs        afero.Fs
	stateFile string
	state     *WatchState
	mu        sync.Mutex
	logger    *zap.Logger
}

// NewStateManager creates a new state manager
func NewStateManager(fs afero.Fs, stateFile string, logger *zap.Logger) *StateManager {
	return &StateManager{
		fs:        fs,
		stateFile: stateFile,
		state:     &WatchState{Jobs: make(map[string]JobState)},
		logger:    logger,
	}
}

// Load loads the state from file
func (sm *StateManager) Load() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, err := afero.ReadFile(sm.fs, sm.stateFile)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet - will be created on first save
			sm.state = &WatchState{Jobs: make(map[string]JobState)}
			return nil
		}
		return fmt.Errorf("failed to read state file: %w", err)
	}

	var state WatchState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to parse state file: %w", err)
	}
	if state.Jobs == nil {
		state.Jobs = make(map[string]JobState)
	}

	sm.state = &state
	sm.logger.Info("Watch state loaded",
		zap.String("last_run_date", state.LastRunDate),
		zap.Int("jobs", len(state.Jobs)))

	return nil
}

// Save saves the state to file
func (sm *StateManager) Save() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, err := json.MarshalIndent(sm.state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if dir := filepath.Dir(sm.stateFile); dir != "." {
		if err := sm.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	if err := afero.WriteFile(sm.fs, sm.stateFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}

	sm.logger.Debug("Watch state saved", zap.String("last_run_date", sm.state.LastRunDate))
	return nil
}

// RecordResult stores the outcome of a successful audit
func (sm *StateManager) RecordResult(result *audit.Result, finishedAt time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.state.Jobs[result.Job] = JobState{
		RunID:      result.RunID,
		Start:      result.Range.Start.Format(dateutil.ISODate),
		End:        result.Range.End.Format(dateutil.ISODate),
		Missing:    dateutil.FormatDates(result.Missing),
		FinishedAt: finishedAt.Format(time.RFC3339),
	}
}

// RecordError stores a failed audit. Missing dates of the previous run are kept.
func (sm *StateManager) RecordError(job string, err error, finishedAt time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	js := sm.state.Jobs[job]
	js.Error = err.Error()
	js.FinishedAt = finishedAt.Format(time.RFC3339)
	if js.Missing == nil {
		js.Missing = []string{}
	}
	sm.state.Jobs[job] = js
}

// MarkRun records that the daily run for date happened
func (sm *StateManager) MarkRun(date, at time.Time) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.state.LastRunDate = date.Format(dateutil.ISODate)
	sm.state.LastRunAt = at.Format(time.RFC3339)
}

// LastRunDate returns the date of the last daily run ("" if none)
func (sm *StateManager) LastRunDate() string {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.state.LastRunDate
}

// Job returns the stored state of job
func (sm *StateManager) Job(name string) (JobState, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	js, ok := sm.state.Jobs[name]
	return js, ok
}
