/*

This file contains the append-only JSONL file sink, the agent's durable
decision record. One JSON object per line, fsynced on every append so a
crash mid-cycle loses at most the entry being written.

*/

package decisionlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/Div1912/Ageis/internal/types"
)

// FileSink appends decision entries to a JSONL file.
type FileSink struct {
	mu   sync.Mutex
	path string
	file *os.File
}

// NewFileSink opens (or creates) the decision log file for appending.
func NewFileSink(path string) (*FileSink, error) {
	if path == "" {
		return nil, fmt.Errorf("decisionlog: file path is required")
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open decision log %s: %w", path, err)
	}
	return &FileSink{path: path, file: file}, nil
}

// Append writes one entry as a JSON line and syncs it to disk.
func (s *FileSink) Append(_ context.Context, entry types.DecisionLogEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode decision entry: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("append to decision log: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sync decision log: %w", err)
	}
	return nil
}

// ReadRecent returns the last n entries in chronological order. Lines that
// fail to parse are skipped rather than failing the whole read.
func (s *FileSink) ReadRecent(_ context.Context, n int) ([]types.DecisionLogEntry, error) {
	if n <= 0 {
		n = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open decision log %s: %w", s.path, err)
	}
	defer file.Close()

	var entries []types.DecisionLogEntry
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var entry types.DecisionLogEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan decision log: %w", err)
	}

	if len(entries) > n {
		entries = entries[len(entries)-n:]
	}
	return entries, nil
}

// Close releases the underlying file handle.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
