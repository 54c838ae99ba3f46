package settings

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Settings)
		wantErr string
	}{
		{"negative backup", func(s *Settings) { s.Backup.Level = -1 }, "backup.level"},
		{"unknown encoding", func(s *Settings) { s.Output.Encoding = "no-such-charset" }, "output.encoding"},
		{"unknown group", func(s *Settings) { s.Members.Order = append(s.Members.Order, "widgets") }, "unknown group"},
		{"duplicate group", func(s *Settings) { s.Members.Order = append(s.Members.Order, GroupMethods) }, "listed twice"},
		{"wide fill", func(s *Settings) { s.Members.Banners = true; s.Members.BannerFill = "-=" }, "banner_fill"},
		{"unknown modifier", func(s *Settings) {
			s.Members.Modifiers = append(s.Members.Modifiers, ModifierRule{Modifier: "sealed", Sort: true})
		}, "unknown modifier"},
		{"line ending", func(s *Settings) { s.Output.LineEnding = "lfcr" }, "output.line_ending"},
		{"latin1 is fine", func(s *Settings) { s.Output.Encoding = "ISO-8859-1" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	content := `
[imports]
policy = "expand"
groups = ["com.example", "java", "*"]

[members]
banners = true
order = ["static", "fields", "constructors", "methods", "initializers", "interfaces", "classes", "annotations", "enums"]

[members.titles]
methods = "Operations"

[logging]
insert = true

[logging.predicates]
fine = "isLoggable"

[history]
policy = "crc32"

[repository]
retention = "48h"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if s.Imports.Policy != Expand {
		t.Errorf("Imports.Policy = %v, want expand", s.Imports.Policy)
	}
	if !s.Imports.Sort {
		t.Errorf("Imports.Sort lost its default")
	}
	if got := s.Members.Title(GroupMethods); got != "Operations" {
		t.Errorf("Title(methods) = %q", got)
	}
	if got := s.Members.Title(GroupFields); got != "Instance fields" {
		t.Errorf("Title(fields) = %q", got)
	}
	if s.Logging.Predicates["debug"] != "isDebugEnabled" || s.Logging.Predicates["fine"] != "isLoggable" {
		t.Errorf("Predicates = %v", s.Logging.Predicates)
	}
	if s.History.Policy != HistoryCRC32 {
		t.Errorf("History.Policy = %v", s.History.Policy)
	}
	if s.Repository.Retention.Duration != 48*time.Hour {
		t.Errorf("Retention = %v", s.Repository.Retention)
	}
}

func TestLoadFileRejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "[imports]\nsorting = true\n", "unknown keys"},
		{"bad policy", "[imports]\npolicy = \"sometimes\"\n", "unknown import policy"},
		{"bad duration", "[repository]\nretention = \"a month\"\n", "invalid duration"},
		{"invalid value", "[backup]\nlevel = -3\n", "backup.level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadFile(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestFind(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "src", "main", "java")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, FileName), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	path, ok, err := Find(nested)
	if err != nil || !ok {
		t.Fatalf("Find() = %q, %v, %v", path, ok, err)
	}
	if path != filepath.Join(root, FileName) {
		t.Errorf("Find() = %q", path)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Default().Encode(&buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile(encoded defaults) error = %v\n%s", err, buf.String())
	}
	if s.Imports.Policy != LeaveAsIs || s.Members.LineLength != 80 {
		t.Errorf("defaults not preserved: %+v", s)
	}
}

func TestLineEndingResolve(t *testing.T) {
	tests := []struct {
		setting  LineEnding
		detected string
		want     string
	}{
		{LineEndingAuto, "\r\n", "\r\n"},
		{LineEndingAuto, "", "\n"},
		{LineEndingLF, "\r\n", "\n"},
		{LineEndingCRLF, "\n", "\r\n"},
		{LineEndingCR, "\n", "\r"},
	}
	for _, tt := range tests {
		if got := tt.setting.Resolve(tt.detected); got != tt.want {
			t.Errorf("%s.Resolve(%q) = %q, want %q", tt.setting, tt.detected, got, tt.want)
		}
	}
}
