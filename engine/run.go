package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/history"
	"github.com/dhamidi/groom/java/parser"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/settings"
	"github.com/dhamidi/groom/transform"
)

// Parse reads and parses the input. Once a tree is there it is returned
// without reading the input again.
func (e *Engine) Parse(ctx context.Context) (*tree.Tree, error) {
	if err := e.resolved(); err != nil {
		return nil, err
	}
	if e.unit != nil {
		return e.unit.Tree, nil
	}
	if e.state.Final() {
		return nil, fmt.Errorf("%w: run already ended with state %s", ErrPrecondition, e.state)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.state = StateRunning
	raw, err := e.readInput()
	if err != nil {
		return nil, e.fail(diag.CodeIO, fmt.Errorf("failed to read %s: %w", e.in.name, err))
	}
	if err := e.parse(raw); err != nil {
		return nil, err
	}
	return e.unit.Tree, nil
}

func (e *Engine) parse(raw []byte) error {
	src, err := e.decode(raw)
	if err != nil {
		return e.fail(diag.CodeIO, fmt.Errorf("failed to decode %s: %w", e.in.name, err))
	}
	if e.cfg.History.Policy == settings.HistoryComment {
		src = history.StripMarker(src)
	}
	res, err := e.parser.Parse(src, e.fileName())
	if err != nil {
		var se *parser.SyntaxError
		if errors.As(err, &se) {
			e.report(diag.Diagnostic{Severity: diag.SevError, Code: diag.CodeSyntax, File: e.fileName(),
				Line: se.Pos.Line, Column: se.Pos.Column, Message: se.Msg})
			e.state = StateError
			return err
		}
		return e.fail(diag.CodeSyntax, err)
	}
	e.unit = transform.NewUnit(e.fileName(), res, e.cfg.Output.IndentSize)
	e.detected = res.LineEnding
	e.state = StateParsed
	return nil
}

// decode converts file and stream input from the configured encoding.
// String input is text already.
func (e *Engine) decode(raw []byte) ([]byte, error) {
	if e.in.kind == targetString || e.encoding == unicode.UTF8 {
		return raw, nil
	}
	return e.encoding.NewDecoder().Bytes(raw)
}

func (e *Engine) encode(text []byte) ([]byte, error) {
	if e.encoding == unicode.UTF8 {
		return text, nil
	}
	return e.encoding.NewEncoder().Bytes(text)
}

// Inspect runs the configured inspector over the parsed input.
func (e *Engine) Inspect(ctx context.Context) error {
	if e.inspector == nil {
		return fmt.Errorf("%w: no inspector configured", ErrPrecondition)
	}
	t, err := e.Parse(ctx)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, d := range e.inspector.Inspect(t) {
		if d.File == "" {
			d.File = e.fileName()
		}
		e.report(d)
	}
	e.state = StateInspected
	return nil
}

// Format runs the whole pipeline: dirty check, parse, passes and render.
// A file found up to date is left alone and the run ends in StateOk. When
// the output is the input file it is backed up first and restored if any
// later stage fails. Nothing is written once an error has been reported.
//
// The returned error is the pipeline error, if any; advisory problems only
// show in the diagnostics and the state.
func (e *Engine) Format(ctx context.Context) error {
	if err := e.resolved(); err != nil {
		return err
	}
	if e.state.Final() {
		return fmt.Errorf("%w: run already ended with state %s", ErrPrecondition, e.state)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	now := e.now()

	if e.unit == nil {
		e.state = StateRunning
		raw, err := e.readInput()
		if err != nil {
			return e.fail(diag.CodeIO, fmt.Errorf("failed to read %s: %w", e.in.name, err))
		}
		ok, err := e.upToDate(raw)
		if err != nil {
			return e.fail(diag.CodeIO, err)
		}
		if ok {
			return e.skip(raw)
		}
		if err := e.parse(raw); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bag, err := transform.Run(e.unit, e.cfg, transform.Deps{Index: e.index, Info: e.info})
	e.merge(bag)
	if err != nil {
		return e.fail(diag.CodePass, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.diags.HasErrors() {
		e.state = StateError
		return fmt.Errorf("%s has errors, output not written", e.in.name)
	}

	t := e.unit.Tree
	pkg := t.PackageName(t.Root())
	written, err := e.write(t, pkg, now)
	if err != nil {
		return e.fail(diag.CodeIO, err)
	}
	if err := e.remember(pkg, written); err != nil {
		log.Warningf("failed to record history of %s: %s", e.in.name, err)
	}
	e.settle()
	return nil
}

// write renders t to the output and returns the bytes that reached it.
func (e *Engine) write(t *tree.Tree, pkg string, now time.Time) ([]byte, error) {
	lineEnding := e.cfg.Output.LineEnding.Resolve(e.detected)
	env := e.env(t, pkg, now)
	switch e.out.kind {
	case targetString:
		var sb strings.Builder
		if err := e.renderer.Render(t, &sb, lineEnding, env); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", e.in.name, err)
		}
		*e.out.s = sb.String()
		return []byte(*e.out.s), nil
	case targetStream:
		var buf bytes.Buffer
		if err := e.renderer.Render(t, &buf, lineEnding, env); err != nil {
			return nil, fmt.Errorf("failed to render %s: %w", e.in.name, err)
		}
		data, err := e.encode(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", e.in.name, err)
		}
		_, err = e.out.w.Write(data)
		return data, err
	}

	path := e.outputPath(pkg)
	var backup string
	if e.sameFile(pkg) {
		b, err := e.backup(path)
		if err != nil {
			return nil, err
		}
		backup = b
	}
	data, err := e.writeFile(t, path, lineEnding, env)
	if err == nil && e.cfg.History.Policy == settings.HistoryComment {
		stamp := time.UnixMilli(now.UnixMilli())
		err = os.Chtimes(path, stamp, stamp)
	}
	if err != nil {
		if backup != "" {
			if rerr := restore(backup, path); rerr != nil {
				err = errors.Join(err, rerr)
			}
		}
		return nil, err
	}
	if backup != "" {
		e.keepBackups(path, backup)
	}
	return data, nil
}

func (e *Engine) writeFile(t *tree.Tree, path, lineEnding string, env map[string]string) ([]byte, error) {
	perm := os.FileMode(0o644)
	if info, err := os.Stat(e.in.name); err == nil && e.in.kind == targetFile {
		perm = info.Mode().Perm()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := e.renderer.Render(t, &buf, lineEnding, env); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", e.in.name, err)
	}
	data, err := e.encode(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", e.in.name, err)
	}
	if _, err := f.Write(data); err != nil {
		return nil, err
	}
	return data, f.Close()
}
