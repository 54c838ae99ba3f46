package engine

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type targetKind int

const (
	targetNone targetKind = iota
	targetFile
	targetString
	targetStream
)

// input is where the source text comes from.
type input struct {
	kind targetKind
	// name is the absolute path of a file input, or the display name of
	// a string or stream input.
	name string
	text string
	r    io.Reader
}

// output is where the rendered text goes.
type output struct {
	kind targetKind
	path string
	s    *string
	w    io.Writer
}

func absPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty file name", ErrPrecondition)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrPrecondition, path, err)
	}
	return abs, nil
}

// SetInputFile reads the source from the file at path.
func (e *Engine) SetInputFile(path string) error {
	abs, err := absPath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrPrecondition, abs)
	}
	e.in = input{kind: targetFile, name: abs}
	return nil
}

// SetInputString takes the source from text. name labels diagnostics and
// the render environment.
func (e *Engine) SetInputString(name, text string) error {
	e.in = input{kind: targetString, name: displayName(name), text: text}
	return nil
}

// SetInputReader reads the source from r when the run starts.
func (e *Engine) SetInputReader(name string, r io.Reader) error {
	if r == nil {
		return fmt.Errorf("%w: nil reader", ErrPrecondition)
	}
	e.in = input{kind: targetStream, name: displayName(name), r: r}
	return nil
}

func displayName(name string) string {
	if name == "" {
		return "<input>"
	}
	return name
}

// SetOutputFile writes the result to the file at path. The input file
// itself is a valid output; it is backed up while the run is in flight.
func (e *Engine) SetOutputFile(path string) error {
	abs, err := absPath(path)
	if err != nil {
		return err
	}
	e.out = output{kind: targetFile, path: abs}
	return nil
}

// SetOutputString stores the result in *dst.
func (e *Engine) SetOutputString(dst *string) error {
	if dst == nil {
		return fmt.Errorf("%w: nil string", ErrPrecondition)
	}
	e.out = output{kind: targetString, s: dst}
	return nil
}

// SetOutputWriter writes the result to w.
func (e *Engine) SetOutputWriter(w io.Writer) error {
	if w == nil {
		return fmt.Errorf("%w: nil writer", ErrPrecondition)
	}
	e.out = output{kind: targetStream, w: w}
	return nil
}

func (e *Engine) resolved() error {
	if e.in.kind == targetNone {
		return fmt.Errorf("%w: no input", ErrPrecondition)
	}
	if e.out.kind == targetNone {
		return fmt.Errorf("%w: no output", ErrPrecondition)
	}
	return nil
}

// outputPath is where a file output goes once the package is known. With a
// destination directory the file lands below it in its package directory.
func (e *Engine) outputPath(pkg string) string {
	if e.destination == "" {
		return e.out.path
	}
	return filepath.Join(e.destination, filepath.FromSlash(packageDir(pkg)), filepath.Base(e.out.path))
}

func packageDir(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}

// sameFile reports whether the run rewrites its input in place.
func (e *Engine) sameFile(pkg string) bool {
	return e.in.kind == targetFile && e.out.kind == targetFile && e.outputPath(pkg) == e.in.name
}

func (e *Engine) readInput() ([]byte, error) {
	switch e.in.kind {
	case targetFile:
		return os.ReadFile(e.in.name)
	case targetString:
		return []byte(e.in.text), nil
	case targetStream:
		return io.ReadAll(e.in.r)
	}
	return nil, fmt.Errorf("%w: no input", ErrPrecondition)
}
