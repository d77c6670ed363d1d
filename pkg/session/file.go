package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
)

// FileStore keeps the token in a 0600 file and caches it in memory.
// A watcher on the parent directory drops the cache whenever another
// process rewrites or removes the file.
type FileStore struct {
	path    string
	watcher *fsnotify.Watcher

	mu     sync.RWMutex
	cached bool
	token  string

	done chan struct{}
	once sync.Once
}

// NewFileStore opens a file-backed store. The parent directory is created
// with 0700 when missing.
func NewFileStore(path string) (*FileStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve session file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create session watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch session dir: %w", err)
	}

	s := &FileStore{path: abs, watcher: w, done: make(chan struct{})}
	go s.watch()
	return s, nil
}

// Path returns the token file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) watch() {
	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				s.invalidate()
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnw("session file watcher error", "path", s.path, "error", err)
		}
	}
}

func (s *FileStore) invalidate() {
	s.mu.Lock()
	s.cached = false
	s.token = ""
	s.mu.Unlock()
}

func (s *FileStore) Load(context.Context) (string, error) {
	s.mu.RLock()
	if s.cached {
		token := s.token
		s.mu.RUnlock()
		if token == "" {
			return "", ErrNoToken
		}
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.cached, s.token = true, ""
		return "", ErrNoToken
	case err != nil:
		return "", fmt.Errorf("read session file: %w", err)
	}
	s.cached, s.token = true, strings.TrimSpace(string(data))
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// Save writes the token through a temp file and rename.
func (s *FileStore) Save(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if _, err := tmp.WriteString(token); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	s.cached, s.token = true, token
	return nil
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	s.cached, s.token = true, ""
	return nil
}

// Close stops the watcher.
func (s *FileStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.watcher.Close()
	})
	return err
}
