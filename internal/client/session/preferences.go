package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/propnest/marketplace/internal/core/access"
)

// Preferences persists the active dashboard per principal. Load returns
// DashboardNone when nothing was saved.
type Preferences interface {
	Load(principalID string) (access.Dashboard, error)
	Save(principalID string, d access.Dashboard) error
}

type MemoryPreferences struct {
	mu sync.Mutex
	m  map[string]access.Dashboard
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{m: make(map[string]access.Dashboard)}
}

func (p *MemoryPreferences) Load(principalID string) (access.Dashboard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.m[principalID], nil
}

func (p *MemoryPreferences) Save(principalID string, d access.Dashboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[principalID] = d
	return nil
}

// FilePreferences keeps preferences in a single JSON object on disk, keyed
// by principal ID.
type FilePreferences struct {
	path string
	mu   sync.Mutex
}

func NewFilePreferences(path string) *FilePreferences {
	return &FilePreferences{path: path}
}

func (p *FilePreferences) Load(principalID string) (access.Dashboard, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.read()
	if err != nil {
		return access.DashboardNone, err
	}
	return m[principalID], nil
}

// Save rewrites the file through a temp file and rename.
func (p *FilePreferences) Save(principalID string, d access.Dashboard) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, err := p.read()
	if err != nil {
		return err
	}
	m[principalID] = d

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create preferences dir: %w", err)
	}
	tmp := p.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return os.Rename(tmp, p.path)
}

func (p *FilePreferences) read() (map[string]access.Dashboard, error) {
	m := make(map[string]access.Dashboard)
	b, err := os.ReadFile(p.path)
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	return m, nil
}
