package diag

import "fmt"

// Code identifies what a diagnostic is about, independent of its message.
type Code string

const (
	CodeSyntax             Code = "syntax"
	CodeIO                 Code = "io"
	CodePass               Code = "pass"
	CodeDuplicateImport    Code = "import.duplicate"
	CodeUnusedImport       Code = "import.unused"
	CodeObsoleteImport     Code = "import.obsolete"
	CodeImportConflict     Code = "import.conflict"
	CodeInnerClassImport   Code = "import.inner"
	CodeSerialUnresolved   Code = "serial.unresolved"
	CodeSerialInserted     Code = "serial.inserted"
	CodeLoggingGuard       Code = "logging.guard"
	CodeMemberForwardRef   Code = "members.forward-reference"
	CodeRepositoryLocation Code = "repository.location"
)

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	File     string
	Line     int
	Column   int
}

func (d Diagnostic) String() string {
	pos := d.File
	if d.Line > 0 {
		pos = fmt.Sprintf("%s:%d:%d", d.File, d.Line, d.Column)
	}
	if pos == "" {
		return fmt.Sprintf("%s [%s] %s", d.Severity, d.Code, d.Message)
	}
	return fmt.Sprintf("%s: %s [%s] %s", pos, d.Severity, d.Code, d.Message)
}
