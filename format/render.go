package format

import (
	"io"

	"github.com/dhamidi/groom/java/tree"
)

// Keys of the environment handed to Render.
const (
	EnvFile          = "file"
	EnvFileName      = "fileName"
	EnvPackageName   = "packageName"
	EnvFileFormat    = "fileFormat"
	EnvIndentSize    = "indentSize"
	EnvTimestamp     = "timestamp"
	EnvTypeName      = "typeName"
	EnvHistoryMarker = "historyMarker"
)

// Renderer is the default printer behind the engine's render contract.
type Renderer struct{}

// Render writes t to w. When env carries a history marker it becomes the
// first line of the output.
func (Renderer) Render(t *tree.Tree, w io.Writer, lineEnding string, env map[string]string) error {
	p := NewPrinter(w, lineEnding)
	p.Expand(env)
	if marker := env[EnvHistoryMarker]; marker != "" {
		p.write(marker)
		p.write("\n")
	}
	return p.Print(t, t.Root())
}

// Render is a convenience wrapper around Renderer with an empty environment.
func Render(t *tree.Tree, w io.Writer, lineEnding string) error {
	return Renderer{}.Render(t, w, lineEnding, nil)
}
