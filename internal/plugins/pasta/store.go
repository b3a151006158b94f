package pasta

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/parleybot/parley/internal/log"
)

// ErrBadTitle rejects titles that cannot become a file name in the data dir.
var ErrBadTitle = errors.New("pasta: invalid title")

type entry struct {
	body string
	sum  [32]byte
}

// Store keeps every snippet in memory, backed by one <title>.txt file per
// entry. Writes go to disk first, then to the map. Content hashes let Reload
// skip entries whose backing file has not changed.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]entry
}

// Open loads every .txt file under dir, creating the directory if needed.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, errors.New("pasta: data dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("pasta: create data dir: %w", err)
	}
	s := &Store{
		dir:     dir,
		logger:  log.WithPlugin("pasta"),
		entries: make(map[string]entry),
	}
	if _, _, err := s.loadAll(); err != nil {
		return nil, err
	}
	s.logger.Info("pasta store loaded", "dir", dir, "entries", len(s.entries))
	return s, nil
}

// Add stores body under title, writing the file before updating the map so a
// failed write leaves the store unchanged.
func (s *Store) Add(title, body string) error {
	if !validTitle(title) {
		return ErrBadTitle
	}
	path := filepath.Join(s.dir, title+".txt")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return fmt.Errorf("pasta: write %s: %w", path, err)
	}
	s.mu.Lock()
	s.entries[title] = entry{body: body, sum: blake3.Sum256([]byte(body))}
	s.mu.Unlock()
	return nil
}

// Get returns the entry stored under title.
func (s *Store) Get(title string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[title]
	return e.body, ok
}

// Random returns a uniformly chosen entry, or false when the store is empty.
func (s *Store) Random() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.entries) == 0 {
		return "", false
	}
	titles := make([]string, 0, len(s.entries))
	for t := range s.entries {
		titles = append(titles, t)
	}
	return s.entries[titles[rand.Intn(len(titles))]].body, true
}

// Titles returns all titles in sorted order.
func (s *Store) Titles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	titles := make([]string, 0, len(s.entries))
	for t := range s.entries {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Reload re-scans the data dir. Entries whose content hash is unchanged keep
// their in-memory copy; edited files are re-read, vanished files are dropped.
func (s *Store) Reload() error {
	changed, removed, err := s.loadAll()
	if err != nil {
		return err
	}
	s.logger.Info("pasta store reloaded", "changed", changed, "removed", removed, "entries", s.Len())
	return nil
}

func (s *Store) loadAll() (changed, removed int, err error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("pasta: read data dir: %w", err)
	}

	seen := make(map[string]bool, len(files))
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".txt") {
			continue
		}
		title := strings.TrimSuffix(name, ".txt")
		seen[title] = true

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			return changed, removed, fmt.Errorf("pasta: read %s: %w", name, err)
		}
		sum := blake3.Sum256(data)
		if old, ok := s.entries[title]; ok && old.sum == sum {
			continue
		}
		s.entries[title] = entry{body: string(data), sum: sum}
		changed++
	}

	for title := range s.entries {
		if !seen[title] {
			delete(s.entries, title)
			removed++
		}
	}
	return changed, removed, nil
}

func validTitle(title string) bool {
	if title == "" || strings.HasPrefix(title, ".") {
		return false
	}
	return !strings.ContainsAny(title, "/\\")
}
