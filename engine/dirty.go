package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/history"
	"github.com/dhamidi/groom/settings"
)

// upToDate applies the history policy to a file input. String and stream
// input is always dirty, and so is everything when force is set.
func (e *Engine) upToDate(raw []byte) (bool, error) {
	if e.force || e.in.kind != targetFile {
		return false, nil
	}
	policy := e.cfg.History.Policy
	if policy == settings.HistoryNone {
		return false, nil
	}
	info, err := os.Stat(e.in.name)
	if err != nil {
		return false, err
	}
	if policy == settings.HistoryComment {
		src, err := e.decode(raw)
		if err != nil {
			return false, nil
		}
		millis, _, ok := history.ParseMarker(src)
		return ok && millis == info.ModTime().UnixMilli(), nil
	}
	if e.history == nil {
		return false, nil
	}
	rec, ok := e.history.Get(e.in.name)
	if !ok {
		return false, nil
	}
	return rec.Stamp == stamp(policy, info.ModTime(), raw), nil
}

func stamp(policy settings.HistoryPolicy, mtime time.Time, data []byte) int64 {
	switch policy {
	case settings.HistoryCRC32:
		return history.CRC32(data)
	case settings.HistoryAdler32:
		return history.Adler32(data)
	}
	return mtime.UnixMilli()
}

// skip ends the run on an up-to-date file. Under the comment policy a
// separate destination is kept in sync by copying the file verbatim.
func (e *Engine) skip(raw []byte) error {
	log.Infof("%s is up to date", e.in.name)
	if e.cfg.History.Policy == settings.HistoryComment && e.out.kind == targetFile {
		src, _ := e.decode(raw)
		millis, pkg, _ := history.ParseMarker(src)
		if path := e.outputPath(pkg); path != e.in.name {
			if err := copyVerbatim(raw, path, time.UnixMilli(millis)); err != nil {
				return e.fail(diag.CodeIO, fmt.Errorf("failed to copy %s to %s: %w", e.in.name, path, err))
			}
		}
	}
	e.state = StateOk
	return nil
}

func copyVerbatim(data []byte, path string, mtime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	return os.Chtimes(path, mtime, mtime)
}

// remember records the state of the input file after a run for the
// timestamp and checksum policies.
func (e *Engine) remember(pkg string, written []byte) error {
	if e.in.kind != targetFile || e.history == nil || !usesStore(e.cfg.History.Policy) {
		return nil
	}
	info, err := os.Stat(e.in.name)
	if err != nil {
		return err
	}
	data := written
	if !e.sameFile(pkg) {
		if data, err = os.ReadFile(e.in.name); err != nil {
			return err
		}
	}
	e.history.Put(e.in.name, history.Record{
		Stamp:   stamp(e.cfg.History.Policy, info.ModTime(), data),
		Package: pkg,
	})
	return nil
}
