// Package history remembers, per source file, what groom saw the last time
// it formatted the file, so unchanged files can be skipped.
package history

import (
	"errors"
	"fmt"
	"hash/adler32"
	"hash/crc32"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// Record is the state of one file after its last run: a modification time
// in milliseconds or a checksum, depending on the policy in effect.
type Record struct {
	Stamp   int64  `msgpack:"stamp"`
	Package string `msgpack:"package"`
}

// Store maps absolute file paths to records. It is safe for concurrent use;
// changes reach the disk on Save.
type Store struct {
	mu      sync.Mutex
	path    string
	records map[string]Record
	dirty   bool
}

// Open reads the store at path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path, records: make(map[string]Record)}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	if err := msgpack.Unmarshal(data, &s.records); err != nil {
		return nil, fmt.Errorf("failed to decode history %s: %w", path, err)
	}
	if s.records == nil {
		s.records = make(map[string]Record)
	}
	return s, nil
}

// NewMemory returns a store that is never written to disk.
func NewMemory() *Store {
	return &Store{records: make(map[string]Record)}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(file string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[file]
	return rec, ok
}

func (s *Store) Put(file string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.records[file]; ok && old == rec {
		return
	}
	s.records[file] = rec
	s.dirty = true
}

func (s *Store) Delete(file string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[file]; ok {
		delete(s.records, file)
		s.dirty = true
	}
}

// Files lists the recorded paths in order.
func (s *Store) Files() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := make([]string, 0, len(s.records))
	for f := range s.records {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Save writes the store atomically if it changed since it was opened or
// last saved.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty || s.path == "" {
		return nil
	}
	data, err := msgpack.Marshal(s.records)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(s.path), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(f.Name(), s.path); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

func CRC32(data []byte) int64 {
	return int64(crc32.ChecksumIEEE(data))
}

func Adler32(data []byte) int64 {
	return int64(adler32.Checksum(data))
}
