package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/dooshek/sonicstream/internal/fileops"
	"github.com/dooshek/sonicstream/internal/logger"
)

// ModelStats holds synthesis totals for a specific model
type ModelStats struct {
	SynthesizedSeconds float64 `json:"synthesized_seconds"`
	SessionCount       int     `json:"session_count"`
}

// Stats holds all synthesis statistics
type Stats struct {
	Models map[string]*ModelStats `json:"models"`
}

// StatsManager manages synthesis statistics persistence
type StatsManager struct {
	stats    Stats
	filePath string
	mu       sync.Mutex
}

// NewStatsManager creates a stats manager for the stats file of fileOps and
// loads existing data
func NewStatsManager(fileOps fileops.FileOps) *StatsManager {
	sm := &StatsManager{
		filePath: fileOps.GetStatsPath(),
		stats: Stats{
			Models: make(map[string]*ModelStats),
		},
	}

	if err := sm.load(); err != nil {
		logger.Debugf("Could not load stats (will start fresh): %v", err)
	}

	return sm
}

// AddSession adds one finished session to statistics and persists immediately
func (sm *StatsManager) AddSession(model string, synthesizedSeconds float64) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.stats.Models == nil {
		sm.stats.Models = make(map[string]*ModelStats)
	}

	ms, exists := sm.stats.Models[model]
	if !exists {
		ms = &ModelStats{}
		sm.stats.Models[model] = ms
	}

	ms.SynthesizedSeconds += synthesizedSeconds
	ms.SessionCount++

	return sm.save()
}

// GetStats returns a deep copy of current statistics
func (sm *StatsManager) GetStats() Stats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	statsCopy := Stats{
		Models: make(map[string]*ModelStats),
	}
	for model, ms := range sm.stats.Models {
		copied := *ms
		statsCopy.Models[model] = &copied
	}
	return statsCopy
}

// GetStatsJSON returns statistics as a JSON string
func (sm *StatsManager) GetStatsJSON() (string, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	data, err := json.Marshal(sm.stats)
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats to JSON: %w", err)
	}
	return string(data), nil
}

// Reset clears all statistics and persists empty state
func (sm *StatsManager) Reset() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.stats = Stats{
		Models: make(map[string]*ModelStats),
	}

	if err := sm.save(); err != nil {
		return fmt.Errorf("failed to save reset stats: %w", err)
	}
	return nil
}

func (sm *StatsManager) load() error {
	data, err := os.ReadFile(sm.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debugf("Stats file not found, starting fresh: %s", sm.filePath)
			return nil
		}
		return fmt.Errorf("failed to read stats file: %w", err)
	}

	if err := json.Unmarshal(data, &sm.stats); err != nil {
		return fmt.Errorf("failed to unmarshal stats: %w", err)
	}
	if sm.stats.Models == nil {
		sm.stats.Models = make(map[string]*ModelStats)
	}

	logger.Debugf("Loaded stats from %s", sm.filePath)
	return nil
}

// save writes via a temp file and rename so a crash never leaves a torn file
func (sm *StatsManager) save() error {
	if err := os.MkdirAll(filepath.Dir(sm.filePath), 0o755); err != nil {
		return fmt.Errorf("failed to create stats directory: %w", err)
	}

	data, err := json.MarshalIndent(sm.stats, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := sm.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp stats file: %w", err)
	}
	if err := os.Rename(tempFile, sm.filePath); err != nil {
		return fmt.Errorf("failed to rename temp stats file: %w", err)
	}

	logger.Debugf("Saved stats to %s", sm.filePath)
	return nil
}
