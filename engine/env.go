package engine

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/dhamidi/groom/format"
	"github.com/dhamidi/groom/history"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/settings"
)

// env is the environment of one render. It is built fresh for every run.
func (e *Engine) env(t *tree.Tree, pkg string, now time.Time) map[string]string {
	env := map[string]string{
		format.EnvFile:        e.in.name,
		format.EnvFileName:    filepath.Base(e.in.name),
		format.EnvPackageName: pkg,
		format.EnvFileFormat:  lineEndingName(e.detected),
		format.EnvIndentSize:  strconv.Itoa(e.cfg.Output.IndentSize),
		format.EnvTimestamp:   now.Format(time.RFC3339),
		format.EnvTypeName:    typeName(t, e.in.name),
	}
	if e.cfg.History.Policy == settings.HistoryComment {
		env[format.EnvHistoryMarker] = history.Marker(now.UnixMilli(), pkg)
	}
	return env
}

// typeName is the public top-level type of the file, else its first type,
// else the file name without extension.
func typeName(t *tree.Tree, file string) string {
	decls := t.TypeDecls(t.Root())
	for _, d := range decls {
		if t.HasModifier(d, "public") {
			if name, err := t.Name(d); err == nil {
				return name
			}
		}
	}
	for _, d := range decls {
		if name, err := t.Name(d); err == nil {
			return name
		}
	}
	return trimJava(filepath.Base(file))
}
