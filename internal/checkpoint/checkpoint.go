// Package checkpoint implements CheckpointStore: periodic durable snapshots
// of orchestration progress (not document content — the four canonical
// documents are already durable on every write) so a crashed or
// interrupted run can resume without re-doing completed turns or, worse,
// re-initializing documents that already hold real data.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Plswearpants/AI-debate/internal/phase"
)

const fileName = "checkpoint.json"

// CompletedTurn records one finished AgentRunner turn.
type CompletedTurn struct {
	TurnIndex   int       `json:"turn_index"`
	Agent       string    `json:"agent"`
	Phase       string    `json:"phase"`
	Round       int       `json:"round"`
	Cost        float64   `json:"cost"`
	DurationSec float64   `json:"duration_sec"`
	Timestamp   time.Time `json:"timestamp"`
}

// Checkpoint is the full resumable orchestration state.
type Checkpoint struct {
	DebateID          string          `json:"debate_id"`
	Machine           phase.Machine   `json:"machine"`
	TotalCost         float64         `json:"total_cost"`
	DeepResearchCalls int             `json:"deep_research_calls"`
	CompletedTurns    []CompletedTurn `json:"completed_turns"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Store reads and writes checkpoint.json for one debate directory.
type Store struct {
	path string
}

// New returns a Store rooted at dir.
func New(dir string) *Store {
	return &Store{path: filepath.Join(dir, fileName)}
}

// Exists reports whether a checkpoint has ever been written, the signal
// resume uses to decide whether a debate is resumable at all.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Write atomically persists cp as given; callers fill CompletedTurns.
func (s *Store) Write(cp Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}
	data = append(data, '\n')
	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("opening checkpoint temp file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("writing checkpoint: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("syncing checkpoint: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("renaming checkpoint into place: %w", err)
	}
	return nil
}

// Load reads the last written checkpoint.
func (s *Store) Load() (Checkpoint, error) {
	var cp Checkpoint
	data, err := os.ReadFile(s.path)
	if err != nil {
		return cp, fmt.Errorf("reading checkpoint: %w", err)
	}
	if err := json.Unmarshal(data, &cp); err != nil {
		return cp, fmt.Errorf("parsing checkpoint: %w", err)
	}
	return cp, nil
}

// ShouldCheckpoint reports whether completing a turn by this agent, at this
// phase transition boundary, should trigger a checkpoint write. Per the
// kernel's trigger policy: after the vote-0 initializer, after every
// Debator turn, after every Judge turn, and on every phase transition.
func ShouldCheckpoint(agent string, phaseTransitioned bool) bool {
	if phaseTransitioned {
		return true
	}
	switch agent {
	case "vote0", "debator_a", "debator_b", "judge":
		return true
	default:
		return false
	}
}
