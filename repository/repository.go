// Package repository keeps a persistent index of the type names each
// classpath location (directory or .jar/.zip archive) provides. Import
// normalization resolves wildcard imports against it.
//
// The index of every location is cached on disk, one msgpack file per
// location, so archives are only rescanned when they change.
package repository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("groom.repository")

var (
	// ErrArchiveNotFound is returned when an archive location does not exist.
	ErrArchiveNotFound = errors.New("archive not found")
	// ErrNotRoot is returned when a directory is not the root of the class
	// namespace it contains.
	ErrNotRoot = errors.New("directory is not a classpath root")
)

// DefaultRetention is how long an unused cache file survives.
const DefaultRetention = 30 * 24 * time.Hour

// Entry describes one classpath location. Names holds binary names such as
// "java.util.Map$Entry"; the contents list them as "java.util.Map.Entry".
type Entry struct {
	Location string
	Names    []string
	File     string
	Loaded   bool
	Archive  bool
	ModTime  time.Time
	Version  string
}

// Repository is safe for concurrent use. Mutations are serialized; readers
// see an immutable snapshot of the contents.
type Repository struct {
	mu        sync.Mutex
	dir       string
	retention time.Duration
	now       func() time.Time

	entries  map[string]*Entry
	contents atomic.Pointer[[]string]
}

type Option func(*Repository)

// WithRetention sets the age after which untouched cache files are purged.
func WithRetention(d time.Duration) Option {
	return func(r *Repository) { r.retention = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// Open prepares the cache directory <workDir>/repository, purges stale cache
// files and reads the remaining ones. No location is loaded yet.
func Open(workDir string, opts ...Option) (*Repository, error) {
	r := &Repository{
		dir:       filepath.Join(workDir, "repository"),
		retention: DefaultRetention,
		now:       time.Now,
		entries:   make(map[string]*Entry),
	}
	for _, opt := range opts {
		opt(r)
	}
	empty := []string{}
	r.contents.Store(&empty)

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create repository directory: %w", err)
	}
	if err := r.readCaches(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the cache directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Contents returns the sorted type names of all loaded locations, package
// sentinels included. The slice is shared and must not be modified.
func (r *Repository) Contents() []string {
	return *r.contents.Load()
}

func (r *Repository) IsEmpty() bool {
	return len(r.Contents()) == 0
}

// Contains reports whether name is a known type.
func (r *Repository) Contains(name string) bool {
	contents := r.Contents()
	i := sort.SearchStrings(contents, name)
	return i < len(contents) && contents[i] == name
}

// HasPackage reports whether any loaded type lives in pkg or one of its
// subpackages.
func (r *Repository) HasPackage(pkg string) bool {
	return r.Contains(pkg + sentinelSuffix)
}

// PackageMembers returns the types directly inside pkg, which may also name
// a class to list its member types.
func (r *Repository) PackageMembers(pkg string) []string {
	contents := r.Contents()
	i := sort.SearchStrings(contents, pkg+sentinelSuffix)
	if i == len(contents) || contents[i] != pkg+sentinelSuffix {
		return nil
	}
	prefix := pkg + "."
	var members []string
	for _, name := range contents[i+1:] {
		if !strings.HasPrefix(name, prefix) {
			break
		}
		rest := name[len(prefix):]
		if strings.ContainsAny(rest, "."+sentinelSuffix) {
			continue
		}
		members = append(members, name)
	}
	return members
}

// Entries returns a copy of every known entry, loaded or cached only,
// ordered by location.
func (r *Repository) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Location < entries[j].Location })
	return entries
}

// Unload removes location from the contents. Its cache file is kept.
func (r *Repository) Unload(location string) error {
	loc, err := filepath.Abs(location)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[loc]; ok && e.Loaded {
		e.Loaded = false
		r.rebuildLocked()
		log.Debugf("unloaded %s", loc)
	}
	return nil
}

func (r *Repository) UnloadAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		e.Loaded = false
	}
	r.rebuildLocked()
}

// rebuildLocked publishes a fresh contents snapshot from the loaded entries.
func (r *Repository) rebuildLocked() {
	set := make(map[string]struct{})
	for _, e := range r.entries {
		if !e.Loaded {
			continue
		}
		for _, name := range e.Names {
			set[typeName(name)] = struct{}{}
			for _, s := range sentinels(name) {
				set[s] = struct{}{}
			}
		}
	}
	contents := make([]string, 0, len(set))
	for name := range set {
		contents = append(contents, name)
	}
	sort.Strings(contents)
	r.contents.Store(&contents)
}
