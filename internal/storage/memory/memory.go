// internal/storage/memory/memory.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pitchside/tacticsboard/internal/config"
	"github.com/pitchside/tacticsboard/pkg/core"
)

// Backend keeps sessions in memory and mirrors every save to a JSON file
// in the output directory, optionally gzip-compressed.
type Backend struct {
	cfg      config.MemoryConfig
	sessions map[string]*core.Session
	mu       sync.RWMutex
}

// New creates a new memory backend.
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{
		cfg:      cfg,
		sessions: make(map[string]*core.Session),
	}
}

// Init creates the output directory and indexes any session files
// already present in it.
func (b *Backend) Init() error {
	if err := os.MkdirAll(b.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	entries, err := os.ReadDir(b.cfg.OutputDir)
	if err != nil {
		return fmt.Errorf("reading output dir: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".json") && !strings.HasSuffix(name, ".json.gz") {
			continue
		}
		s, err := b.readFile(filepath.Join(b.cfg.OutputDir, name))
		if err != nil {
			continue
		}
		b.sessions[s.Name] = s
	}
	return nil
}

// Close cleans up resources.
func (b *Backend) Close() error {
	return nil
}

// SaveSession stores the session and writes it to disk.
func (b *Backend) SaveSession(s *core.Session) error {
	if s.Name == "" {
		return fmt.Errorf("session name is empty")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.sessions[s.Name] = s
	return b.writeFile(s)
}

// LoadSession returns a previously saved session.
func (b *Backend) LoadSession(name string) (*core.Session, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s, ok := b.sessions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrSessionNotFound, name)
	}
	return s, nil
}

// ListSessions lists saved sessions sorted by name.
func (b *Backend) ListSessions() ([]core.SessionInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	infos := make([]core.SessionInfo, 0, len(b.sessions))
	for _, s := range b.sessions {
		infos = append(infos, core.SessionInfo{
			Name:    s.Name,
			SavedAt: s.SavedAt,
			Boards:  len(s.Boards),
			Marks:   len(s.Marks),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// DeleteSession removes a session and its file.
func (b *Backend) DeleteSession(name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.sessions[name]; !ok {
		return fmt.Errorf("%w: %q", core.ErrSessionNotFound, name)
	}
	delete(b.sessions, name)

	if err := os.Remove(b.filePath(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing session file: %w", err)
	}
	return nil
}

// FilePath returns the on-disk location of a session's export.
func (b *Backend) FilePath(name string) string {
	return b.filePath(name)
}

func (b *Backend) filePath(name string) string {
	ext := ".json"
	if b.cfg.CompressOutput {
		ext = ".json.gz"
	}
	return filepath.Join(b.cfg.OutputDir, name+ext)
}

func (b *Backend) writeFile(s *core.Session) error {
	file, err := os.Create(b.filePath(s.Name))
	if err != nil {
		return fmt.Errorf("creating session file: %w", err)
	}
	defer file.Close()

	if b.cfg.CompressOutput {
		gz := gzip.NewWriter(file)
		if err := json.NewEncoder(gz).Encode(s); err != nil {
			gz.Close()
			return fmt.Errorf("encoding session: %w", err)
		}
		return gz.Close()
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return nil
}

func (b *Backend) readFile(path string) (*core.Session, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var s core.Session
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		if err := json.NewDecoder(gz).Decode(&s); err != nil {
			return nil, err
		}
	} else {
		if err := json.NewDecoder(file).Decode(&s); err != nil {
			return nil, err
		}
	}
	if s.Name == "" {
		return nil, fmt.Errorf("session file %s has no name", path)
	}
	return &s, nil
}
