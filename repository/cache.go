package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/vmihailenco/msgpack/v5"
)

// FormatVersion is written into every cache file. Files whose major
// version differs are discarded.
const FormatVersion = "1.0.0"

const cacheExt = ".idx"

var formatVersion = semver.MustParse(FormatVersion)

type cacheRecord struct {
	Version  string    `msgpack:"version"`
	Location string    `msgpack:"location"`
	Archive  bool      `msgpack:"archive"`
	ModTime  time.Time `msgpack:"modTime"`
	Names    []string  `msgpack:"names"`
}

func compatible(version string) bool {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false
	}
	return v.Major() == formatVersion.Major()
}

// readCaches purges expired and incompatible cache files and registers the
// rest as unloaded entries.
func (r *Repository) readCaches() error {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("failed to read repository directory: %w", err)
	}
	cutoff := r.now().Add(-r.retention)
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != cacheExt {
			continue
		}
		path := filepath.Join(r.dir, f.Name())
		info, err := f.Info()
		if err != nil {
			continue
		}
		if r.retention > 0 && info.ModTime().Before(cutoff) {
			log.Infof("purging expired cache file %s", path)
			if err := os.Remove(path); err != nil {
				log.Warningf("failed to purge %s: %s", path, err)
			}
			continue
		}
		rec, err := readCache(path)
		if err != nil || !compatible(rec.Version) {
			log.Infof("discarding stale cache file %s", path)
			_ = os.Remove(path)
			continue
		}
		r.entries[rec.Location] = &Entry{
			Location: rec.Location,
			Names:    rec.Names,
			File:     path,
			Archive:  rec.Archive,
			ModTime:  rec.ModTime,
			Version:  rec.Version,
		}
	}
	return nil
}

func readCache(path string) (*cacheRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rec cacheRecord
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &rec, nil
}

// writeCache stores e atomically, assigning it a cache file name first if
// it has none.
func (r *Repository) writeCache(e *Entry) error {
	if e.File == "" {
		e.File = r.cacheFileName(e.Location)
	}
	f, err := os.CreateTemp(r.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	rec := cacheRecord{
		Version:  FormatVersion,
		Location: e.Location,
		Archive:  e.Archive,
		ModTime:  e.ModTime,
		Names:    e.Names,
	}
	if err := msgpack.NewEncoder(f).Encode(&rec); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode cache for %s: %w", e.Location, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	e.Version = FormatVersion
	return os.Rename(f.Name(), e.File)
}

// touch keeps a reused cache file from expiring.
func (r *Repository) touch(e *Entry) {
	now := r.now()
	if err := os.Chtimes(e.File, now, now); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warningf("failed to touch %s: %s", e.File, err)
	}
}

// cacheFileName picks "<base>.idx", or "<base> (n).idx" when another
// location already owns that name.
func (r *Repository) cacheFileName(location string) string {
	base := strings.TrimSuffix(filepath.Base(location), string(filepath.Separator))
	taken := make(map[string]bool, len(r.entries))
	for _, e := range r.entries {
		if e.File != "" {
			taken[e.File] = true
		}
	}
	name := filepath.Join(r.dir, base+cacheExt)
	for n := 1; taken[name] || exists(name); n++ {
		name = filepath.Join(r.dir, fmt.Sprintf("%s (%d)%s", base, n, cacheExt))
	}
	return name
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
