package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

func (e *Engine) backupDir(path string) string {
	if dir := e.cfg.Backup.Directory; dir != "" {
		return dir
	}
	return filepath.Dir(path)
}

// backup copies path to <name>.<n> in the backup directory, n one above
// the highest number already taken, and returns the copy.
func (e *Engine) backup(path string) (string, error) {
	dir := e.backupDir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	base := filepath.Base(path)
	taken, err := backups(dir, base)
	if err != nil {
		return "", err
	}
	n := 1
	if len(taken) > 0 {
		n = taken[len(taken)-1].n + 1
	}
	dst := filepath.Join(dir, base+"."+strconv.Itoa(n))
	if err := copyFile(path, dst); err != nil {
		return "", fmt.Errorf("failed to back up %s: %w", path, err)
	}
	return dst, nil
}

// restore puts the backup back in place of path and removes it.
func restore(backup, path string) error {
	if err := copyFile(backup, path); err != nil {
		return fmt.Errorf("failed to restore %s from %s: %w", path, backup, err)
	}
	return os.Remove(backup)
}

// keepBackups removes the backup of a successful run, or with a backup
// level set, the oldest backups beyond that level.
func (e *Engine) keepBackups(path, backup string) {
	if e.backupLevel == 0 {
		if err := os.Remove(backup); err != nil {
			log.Warningf("failed to remove backup %s: %s", backup, err)
		}
		return
	}
	dir := e.backupDir(path)
	taken, err := backups(dir, filepath.Base(path))
	if err != nil {
		log.Warningf("failed to list backups of %s: %s", path, err)
		return
	}
	for len(taken) > e.backupLevel {
		old := filepath.Join(dir, taken[0].name)
		if err := os.Remove(old); err != nil {
			log.Warningf("failed to remove backup %s: %s", old, err)
		}
		taken = taken[1:]
	}
}

type numbered struct {
	name string
	n    int
}

// backups lists the numbered backups of base in dir, oldest first.
func backups(dir, base string) ([]numbered, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []numbered
	for _, de := range entries {
		suffix, ok := strings.CutPrefix(de.Name(), base+".")
		if !ok || de.IsDir() {
			continue
		}
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, numbered{de.Name(), n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].n < out[j].n })
	return out, nil
}

// copyFile copies src to dst byte for byte, with the mode and modification
// time of src.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
