// Package engine runs the rewrite pipeline over one Java file at a time:
// it resolves the input and output, applies the configured dirty check,
// backs up files rewritten in place, parses, runs the passes of package
// transform, renders the tree and turns the diagnostics of all of that into
// a run State.
//
// An Engine is not safe for concurrent use. Run several engines to process
// files in parallel; they may share the type repository and history store.
package engine

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"github.com/dhamidi/groom/classfile"
	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/format"
	"github.com/dhamidi/groom/history"
	"github.com/dhamidi/groom/java/parser"
	"github.com/dhamidi/groom/java/tree"
	"github.com/dhamidi/groom/repository"
	"github.com/dhamidi/groom/settings"
	"github.com/dhamidi/groom/transform"
)

var log = commonlog.GetLogger("groom.engine")

// ErrPrecondition marks invalid setup: bad arguments to a setter or a run
// started without an input or output. These errors are returned at once and
// never change the run State.
var ErrPrecondition = errors.New("precondition failed")

var (
	_ transform.TypeIndex = (*repository.Repository)(nil)
	_ transform.TypeInfo  = (*classfile.SerialVersionProvider)(nil)
	_ Renderer            = format.Renderer{}
)

// Parser turns source text into a tree and the identifier lists the
// passes need.
type Parser interface {
	Parse(src []byte, filename string) (*parser.Result, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(src []byte, filename string) (*parser.Result, error)

func (f ParserFunc) Parse(src []byte, filename string) (*parser.Result, error) {
	return f(src, filename)
}

// Renderer writes a tree back to text. env carries the values comments of
// synthetic code may refer to.
type Renderer interface {
	Render(t *tree.Tree, w io.Writer, lineEnding string, env map[string]string) error
}

// Inspector checks a parsed tree without changing it.
type Inspector interface {
	Inspect(t *tree.Tree) []diag.Diagnostic
}

type Engine struct {
	cfg       *settings.Settings
	parser    Parser
	renderer  Renderer
	inspector Inspector
	index     transform.TypeIndex
	info      transform.TypeInfo
	history   *history.Store
	now       func() time.Time

	in          input
	out         output
	encoding    encoding.Encoding
	force       bool
	backupLevel int
	destination string

	state State
	diags *diag.Bag
	unit  *transform.Unit
	// detected is the line ending of the parsed input.
	detected string
}

type Option func(*Engine)

func WithParser(p Parser) Option {
	return func(e *Engine) { e.parser = p }
}

func WithRenderer(r Renderer) Option {
	return func(e *Engine) { e.renderer = r }
}

func WithInspector(i Inspector) Option {
	return func(e *Engine) { e.inspector = i }
}

// WithRepository sets the type index consulted by import expansion and
// collapsing. A *repository.Repository is the usual one.
func WithRepository(idx transform.TypeIndex) Option {
	return func(e *Engine) { e.index = idx }
}

// WithTypeInfo sets the provider of serialVersionUIDs. Without one the
// engine builds a classfile.SerialVersionProvider over the serial classpath
// of the settings, if there is any.
func WithTypeInfo(info transform.TypeInfo) Option {
	return func(e *Engine) { e.info = info }
}

// WithHistory sets the store behind the timestamp and checksum dirty
// checks. Without one the engine opens the file the settings name.
func WithHistory(s *history.Store) Option {
	return func(e *Engine) { e.history = s }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New returns an engine for cfg. cfg is read, never modified.
func New(cfg *settings.Settings, opts ...Option) (*Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil settings", ErrPrecondition)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPrecondition, err)
	}
	e := &Engine{
		cfg:      cfg,
		parser:   ParserFunc(parser.Parse),
		renderer: format.Renderer{},
		now:      time.Now,
		diags:    diag.NewBag(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.info == nil && len(cfg.Serial.Classpath) > 0 {
		e.info = classfile.NewSerialVersionProvider(cfg.Serial.Classpath...)
	}
	if e.history == nil && usesStore(cfg.History.Policy) {
		store, err := history.Open(cfg.HistoryFile())
		if err != nil {
			return nil, err
		}
		e.history = store
	}
	if err := e.SetEncoding(cfg.Output.Encoding); err != nil {
		return nil, err
	}
	if err := e.SetBackupLevel(cfg.Backup.Level); err != nil {
		return nil, err
	}
	e.SetDestination(cfg.Output.Destination)
	return e, nil
}

// SetEncoding selects the character set of the input and output files by
// IANA name. An empty name means UTF-8.
func (e *Engine) SetEncoding(name string) error {
	if name == "" {
		name = "UTF-8"
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return fmt.Errorf("%w: encoding %q: %v", ErrPrecondition, name, err)
	}
	if enc == nil {
		return fmt.Errorf("%w: encoding %q is not supported", ErrPrecondition, name)
	}
	e.encoding = enc
	return nil
}

// SetForce makes every file dirty, bypassing the history.
func (e *Engine) SetForce(force bool) {
	e.force = force
}

// SetBackupLevel sets how many backups of a file rewritten in place are
// kept after a successful run. 0 keeps none.
func (e *Engine) SetBackupLevel(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative backup level %d", ErrPrecondition, n)
	}
	e.backupLevel = n
	return nil
}

// SetDestination redirects file output into dir, below the directory of
// the file's package. An empty dir writes to the output file itself.
func (e *Engine) SetDestination(dir string) {
	e.destination = dir
}

func (e *Engine) State() State {
	return e.state
}

// Diagnostics returns everything reported since the last Reset.
func (e *Engine) Diagnostics() []diag.Diagnostic {
	return e.diags.Items()
}

// Tree returns the tree of the last successful parse, or nil.
func (e *Engine) Tree() *tree.Tree {
	if e.unit == nil {
		return nil
	}
	return e.unit.Tree
}

// Reset forgets the targets and results of the previous run. Settings,
// options, encoding, force, backup level and destination are kept.
func (e *Engine) Reset() {
	e.in = input{}
	e.out = output{}
	e.state = StateUndefined
	e.diags = diag.NewBag()
	e.unit = nil
	e.detected = ""
}

// fileName is the name diagnostics are reported against.
func (e *Engine) fileName() string {
	return e.in.name
}

// report logs d at its severity and keeps it.
func (e *Engine) report(d diag.Diagnostic) {
	e.diags.Add(d)
	switch d.Severity {
	case diag.SevError:
		log.Error(d.String())
	case diag.SevWarning:
		log.Warning(d.String())
	default:
		log.Info(d.String())
	}
}

func (e *Engine) merge(b *diag.Bag) {
	if b == nil {
		return
	}
	for _, d := range b.Items() {
		if d.File == "" {
			d.File = e.fileName()
		}
		e.report(d)
	}
}

// fail records a pipeline error and ends the run.
func (e *Engine) fail(code diag.Code, err error) error {
	e.report(diag.Diagnostic{Severity: diag.SevError, Code: code, File: e.fileName(), Message: err.Error()})
	e.state = StateError
	return err
}

// settle derives the final state from the diagnostics.
func (e *Engine) settle() {
	switch e.diags.Max() {
	case diag.SevError:
		e.state = StateError
	case diag.SevWarning:
		e.state = StateWarn
	default:
		e.state = StateOk
	}
}

func lineEndingName(s string) string {
	switch s {
	case "\r\n":
		return string(settings.LineEndingCRLF)
	case "\r":
		return string(settings.LineEndingCR)
	}
	return string(settings.LineEndingLF)
}

func usesStore(p settings.HistoryPolicy) bool {
	switch p {
	case settings.HistoryTimestamp, settings.HistoryCRC32, settings.HistoryAdler32:
		return true
	}
	return false
}

func trimJava(name string) string {
	return strings.TrimSuffix(name, ".java")
}
