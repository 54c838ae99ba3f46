package settings

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/ianaindex"
)

// Validate reports every problem with s joined into one error.
func (s *Settings) Validate() error {
	var errs []error

	for i, g := range s.Imports.Groups {
		if strings.TrimSpace(g) == "" {
			errs = append(errs, fmt.Errorf("imports.groups[%d]: empty prefix", i))
		}
	}

	seen := map[Group]bool{}
	for _, g := range s.Members.Order {
		if !g.Valid() {
			errs = append(errs, fmt.Errorf("members.order: unknown group %q", g))
		}
		if seen[g] {
			errs = append(errs, fmt.Errorf("members.order: group %q listed twice", g))
		}
		seen[g] = true
	}
	for g := range s.Members.Titles {
		if !g.Valid() {
			errs = append(errs, fmt.Errorf("members.titles: unknown group %q", g))
		}
	}
	for _, r := range s.Members.Modifiers {
		switch r.Modifier {
		case "public", "protected", "package", "private", "abstract", "final", "static",
			"synchronized", "native", "transient", "volatile", "strictfp", "default":
		default:
			errs = append(errs, fmt.Errorf("members.modifiers: unknown modifier %q", r.Modifier))
		}
	}
	if s.Members.Banners {
		if utf8.RuneCountInString(s.Members.BannerFill) != 1 {
			errs = append(errs, fmt.Errorf("members.banner_fill: want a single character, got %q", s.Members.BannerFill))
		}
		if s.Members.LineLength < 20 {
			errs = append(errs, fmt.Errorf("members.line_length: %d is too short for a banner", s.Members.LineLength))
		}
	}

	for name, pred := range s.Logging.Predicates {
		if name == "" || pred == "" {
			errs = append(errs, fmt.Errorf("logging.predicates: empty entry %q = %q", name, pred))
		}
	}

	if s.Backup.Level < 0 {
		errs = append(errs, fmt.Errorf("backup.level: must not be negative, got %d", s.Backup.Level))
	}
	if s.Repository.WorkDir == "" {
		errs = append(errs, errors.New("repository.work_dir: must be set"))
	}
	if s.Repository.Retention.Duration < 0 {
		errs = append(errs, fmt.Errorf("repository.retention: must not be negative, got %s", s.Repository.Retention))
	}

	if _, err := ianaindex.IANA.Encoding(s.Output.Encoding); err != nil {
		errs = append(errs, fmt.Errorf("output.encoding: %w", err))
	}
	if s.Output.IndentSize < 0 {
		errs = append(errs, fmt.Errorf("output.indent_size: must not be negative, got %d", s.Output.IndentSize))
	}
	switch s.Output.LineEnding {
	case LineEndingAuto, LineEndingLF, LineEndingCRLF, LineEndingCR, "":
	default:
		errs = append(errs, fmt.Errorf("output.line_ending: unknown value %q", s.Output.LineEnding))
	}

	return errors.Join(errs...)
}
