package repository

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/groom/classfile"
)

// Load scans location, or reuses its cache entry when the location is an
// archive whose modification time has not changed, and adds its names to
// the contents.
func (r *Repository) Load(location string) error {
	return r.LoadAll(context.Background(), []string{location})
}

// LoadAll loads several locations, scanning them in parallel. Either all of
// them are loaded or, on the first failure, none.
func (r *Repository) LoadAll(ctx context.Context, locations []string) error {
	abs := make([]string, len(locations))
	for i, loc := range locations {
		a, err := filepath.Abs(loc)
		if err != nil {
			return err
		}
		abs[i] = a
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	scanned := make([]*Entry, len(abs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, loc := range abs {
		cached := r.entries[loc]
		g.Go(func() error {
			e, err := r.scan(ctx, loc, cached)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", loc, err)
			}
			scanned[i] = e
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, e := range scanned {
		e.Loaded = true
		if old := r.entries[e.Location]; old == e {
			r.touch(e)
		} else {
			if old != nil {
				e.File = old.File
			}
			if err := r.writeCache(e); err != nil {
				log.Warningf("failed to cache %s: %s", e.Location, err)
			}
		}
		r.entries[e.Location] = e
	}
	r.rebuildLocked()
	return nil
}

// scan returns cached unchanged for an up-to-date archive and a fresh entry
// otherwise.
func (r *Repository) scan(ctx context.Context, loc string, cached *Entry) (*Entry, error) {
	info, err := os.Stat(loc)
	switch {
	case errors.Is(err, fs.ErrNotExist) && classfile.IsArchive(loc):
		return nil, fmt.Errorf("%w: %s", ErrArchiveNotFound, loc)
	case errors.Is(err, fs.ErrNotExist):
		log.Infof("creating missing classpath directory %s", loc)
		if err := os.MkdirAll(loc, 0o755); err != nil {
			return nil, err
		}
		return &Entry{Location: loc, ModTime: r.now()}, nil
	case err != nil:
		return nil, err
	}

	if !info.IsDir() {
		if cached != nil && cached.Archive && cached.ModTime.Equal(info.ModTime()) {
			log.Debugf("reusing cached index of %s", loc)
			return cached, nil
		}
		names, err := scanArchive(loc)
		if err != nil {
			return nil, err
		}
		log.Infof("indexed %d types in %s", len(names), loc)
		return &Entry{Location: loc, Names: names, Archive: true, ModTime: info.ModTime()}, nil
	}

	names, err := scanDirectory(ctx, loc)
	if err != nil {
		return nil, err
	}
	log.Infof("indexed %d types in %s", len(names), loc)
	return &Entry{Location: loc, Names: names, ModTime: info.ModTime()}, nil
}

func scanArchive(path string) ([]string, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		if name, ok := binaryName(f.Name); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// scanDirectory walks root for class files. The first one found is parsed
// to check that root really is the top of its package hierarchy.
func scanDirectory(ctx context.Context, root string) ([]string, error) {
	var names []string
	verified := false
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return ctx.Err()
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name, ok := binaryName(filepath.ToSlash(rel))
		if !ok {
			return nil
		}
		if !verified {
			if err := verifyRoot(path, name); err != nil {
				return err
			}
			verified = true
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func verifyRoot(path, name string) error {
	cf, err := classfile.ParseFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotRoot, err)
	}
	if got := cf.BinaryName(); got != name {
		return fmt.Errorf("%w: %s declares %s, expected %s", ErrNotRoot, path, got, name)
	}
	return nil
}
