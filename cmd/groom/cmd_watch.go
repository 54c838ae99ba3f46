package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var delay time.Duration

	cmd := &cobra.Command{
		Use:   "watch [dir]...",
		Short: "Rewrite .java files in place whenever they change",
		Long: `Watch directories recursively and rewrite every .java file that is
created or written, using the same settings as 'groom fmt -w'.
Stops on interrupt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			cfg, err := loadSettings()
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer s.close()

			w, err := newWatcher(s, delay)
			if err != nil {
				return err
			}
			defer w.close()
			for _, dir := range args {
				if err := w.addTree(dir); err != nil {
					return err
				}
			}
			return w.run(cmd.Context())
		},
	}

	cmd.Flags().DurationVar(&delay, "delay", 200*time.Millisecond, "wait this long after the last change before formatting")

	return cmd
}

type watcher struct {
	session *session
	fs      *fsnotify.Watcher
	delay   time.Duration
	pending map[string]time.Time
	// written remembers the modification time of files this watcher
	// rewrote, so their own write events are not acted on.
	written map[string]time.Time
}

func newWatcher(s *session, delay time.Duration) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &watcher{
		session: s,
		fs:      fw,
		delay:   delay,
		pending: make(map[string]time.Time),
		written: make(map[string]time.Time),
	}, nil
}

func (w *watcher) close() error {
	return w.fs.Close()
}

// addTree watches root and every non-hidden directory below it.
func (w *watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		log.Debugf("watching %s", path)
		return w.fs.Add(path)
	})
}

func (w *watcher) run(ctx context.Context) error {
	ticker := time.NewTicker(w.delay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			log.Errorf("watch: %s", err)
		case now := <-ticker.C:
			w.flush(ctx, now)
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event) {
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				log.Warningf("failed to watch %s: %s", ev.Name, err)
			}
			return
		}
	}
	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		delete(w.pending, ev.Name)
		delete(w.written, ev.Name)
		return
	}
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || filepath.Ext(ev.Name) != ".java" {
		return
	}
	w.pending[ev.Name] = time.Now()
}

// flush formats the files that have been quiet for at least the delay.
func (w *watcher) flush(ctx context.Context, now time.Time) {
	for path, last := range w.pending {
		if now.Sub(last) < w.delay {
			continue
		}
		delete(w.pending, path)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		if mod, ok := w.written[path]; ok && mod.Equal(info.ModTime()) {
			continue
		}
		w.format(ctx, path)
	}
}

func (w *watcher) format(ctx context.Context, path string) {
	e, err := w.session.engine()
	if err != nil {
		log.Errorf("%s: %s", path, err)
		return
	}
	if err := e.SetInputFile(path); err != nil {
		log.Errorf("%s: %s", path, err)
		return
	}
	if err := e.SetOutputFile(path); err != nil {
		log.Errorf("%s: %s", path, err)
		return
	}
	if err := e.Format(ctx); err != nil {
		log.Debugf("%s: %s", path, err)
	}
	if info, err := os.Stat(path); err == nil {
		w.written[path] = info.ModTime()
	}
	if err := w.session.close(); err != nil {
		log.Errorf("failed to save history: %s", err)
	}
	report(os.Stdout, fmt.Sprintf("%s %s", time.Now().Format(time.TimeOnly), path), e)
}
