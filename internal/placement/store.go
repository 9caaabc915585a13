// Package placement persists window geometry between runs.
package placement

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mj1618/browser-host/internal/model"
	"go.uber.org/zap"
)

// Store reads and writes the placement record at a fixed path.
type Store struct {
	path string
	log  *zap.Logger
	mu   sync.Mutex
}

// NewStore creates a store backed by path.
func NewStore(path string, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, log: log}
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// Load returns the stored placement. A missing or unreadable record is
// replaced with "{}" and an empty placement is returned; the failure is
// only logged.
func (s *Store) Load() model.Placement {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p model.Placement
	data, err := os.ReadFile(s.path)
	if err == nil {
		err = json.Unmarshal(data, &p)
	}
	if err != nil {
		s.log.Debug("placement unavailable, resetting", zap.String("path", s.path), zap.Error(err))
		p = model.Placement{}
		if werr := s.writeLocked(p); werr != nil {
			s.log.Debug("placement reset failed", zap.String("path", s.path), zap.Error(werr))
		}
	}
	return p
}

// Save writes p, creating the parent directory if needed.
func (s *Store) Save(p model.Placement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(p)
}

// Reset overwrites the record with "{}".
func (s *Store) Reset() error {
	return s.Save(model.Placement{})
}

func (s *Store) writeLocked(p model.Placement) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode placement: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create placement dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write placement: %w", err)
	}
	return nil
}
