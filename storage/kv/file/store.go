// Package filekv is a core.KeyValueStore kept in one JSON file,
// the terminal counterpart of browser local storage.
package filekv

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

// FileName is the name of the storage file inside the data directory.
const FileName = "storage.json"

type Store struct {
	path  string
	mutex sync.Mutex
}

var _ core.KeyValueStore = (*Store)(nil)

// New returns a Store kept under dataDir, which is created if needed.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}
	return &Store{path: filepath.Join(dataDir, FileName)}, nil
}

func (s *Store) Path() string {
	return s.path
}

// read loads every item. A missing or corrupt file reads as empty.
func (s *Store) read() (map[string]string, error) {
	items := make(map[string]string)
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return items, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading storage file")
	}
	if err = json.Unmarshal(b, &items); err != nil {
		return make(map[string]string), nil
	}
	return items, nil
}

// write replaces the file through a temp file and a rename.
func (s *Store) write(items map[string]string) error {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding storage file")
	}

	f, err := os.CreateTemp(filepath.Dir(s.path), FileName+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "creating temp file")
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err = f.Write(b); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = f.Chmod(0o600); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "writing temp file")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "writing temp file")
	}
	return errors.Wrap(os.Rename(tmp, s.path), "replacing storage file")
}

func (s *Store) Get(key string) (string, bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	items, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := items[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	items[key] = value
	return s.write(items)
}

func (s *Store) Remove(key string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	items, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := items[key]; !ok {
		return nil
	}
	delete(items, key)
	return s.write(items)
}
