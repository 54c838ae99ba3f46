package settings

import "fmt"

// ImportPolicy selects how on-demand imports are treated.
type ImportPolicy int

const (
	LeaveAsIs ImportPolicy = iota
	Expand
	Collapse
)

var importPolicyNames = map[ImportPolicy]string{
	LeaveAsIs: "leave",
	Expand:    "expand",
	Collapse:  "collapse",
}

func (p ImportPolicy) String() string {
	if s, ok := importPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("ImportPolicy(%d)", int(p))
}

func (p ImportPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ImportPolicy) UnmarshalText(text []byte) error {
	for k, v := range importPolicyNames {
		if v == string(text) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown import policy %q (want leave, expand or collapse)", text)
}

// HistoryPolicy selects the dirty check applied before a file is formatted.
type HistoryPolicy int

const (
	HistoryNone HistoryPolicy = iota
	HistoryTimestamp
	HistoryCRC32
	HistoryAdler32
	HistoryComment
)

var historyPolicyNames = map[HistoryPolicy]string{
	HistoryNone:      "none",
	HistoryTimestamp: "timestamp",
	HistoryCRC32:     "crc32",
	HistoryAdler32:   "adler32",
	HistoryComment:   "comment",
}

func (p HistoryPolicy) String() string {
	if s, ok := historyPolicyNames[p]; ok {
		return s
	}
	return fmt.Sprintf("HistoryPolicy(%d)", int(p))
}

func (p HistoryPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *HistoryPolicy) UnmarshalText(text []byte) error {
	for k, v := range historyPolicyNames {
		if v == string(text) {
			*p = k
			return nil
		}
	}
	return fmt.Errorf("unknown history policy %q (want none, timestamp, crc32, adler32 or comment)", text)
}

// LineEnding selects the line terminator of the output. LineEndingAuto keeps
// the one detected in the input.
type LineEnding string

const (
	LineEndingAuto LineEnding = "auto"
	LineEndingLF   LineEnding = "lf"
	LineEndingCRLF LineEnding = "crlf"
	LineEndingCR   LineEnding = "cr"
)

// Resolve returns the terminator to write given the one detected in the input.
func (e LineEnding) Resolve(detected string) string {
	switch e {
	case LineEndingLF:
		return "\n"
	case LineEndingCRLF:
		return "\r\n"
	case LineEndingCR:
		return "\r"
	default:
		if detected == "" {
			return "\n"
		}
		return detected
	}
}

// Group names a member bucket of the member sort.
type Group string

const (
	GroupStatic       Group = "static"
	GroupFields       Group = "fields"
	GroupInitializers Group = "initializers"
	GroupConstructors Group = "constructors"
	GroupMethods      Group = "methods"
	GroupInterfaces   Group = "interfaces"
	GroupClasses      Group = "classes"
	GroupAnnotations  Group = "annotations"
	GroupEnums        Group = "enums"
)

// DefaultOrder is the default group order of the member sort.
var DefaultOrder = []Group{
	GroupStatic, GroupFields, GroupInitializers, GroupConstructors, GroupMethods,
	GroupInterfaces, GroupClasses, GroupAnnotations, GroupEnums,
}

var defaultTitles = map[Group]string{
	GroupStatic:       "Static fields/initializers",
	GroupFields:       "Instance fields",
	GroupInitializers: "Instance initializers",
	GroupConstructors: "Constructors",
	GroupMethods:      "Methods",
	GroupInterfaces:   "Nested Interfaces",
	GroupClasses:      "Nested Classes",
	GroupAnnotations:  "Annotations",
	GroupEnums:        "Enums",
}

func (g Group) Valid() bool {
	_, ok := defaultTitles[g]
	return ok
}

// Title returns the banner title of g, honoring overrides in m.
func (m Members) Title(g Group) string {
	if t, ok := m.Titles[g]; ok && t != "" {
		return t
	}
	return defaultTitles[g]
}
