package transform

import (
	"archive/zip"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/repository"
	"github.com/dhamidi/groom/settings"
)

// loadJar writes an archive holding the given class entries and loads it
// into a fresh repository.
func loadJar(t *testing.T, entries ...string) *repository.Repository {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "lib.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		if _, err := zw.Create(e); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	repo, err := repository.Open(filepath.Join(dir, "cache"))
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Load(path); err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestImportsWithRepository(t *testing.T) {
	repo := loadJar(t, "a/Foo.class", "a/Bar.class", "b/Foo.class", "b/Baz.class")

	tests := []struct {
		name  string
		src   string
		cfg   settings.Imports
		want  string
		codes []string
	}{
		{
			name: "collapse",
			src:  "package p;\n\nimport a.Bar;\nimport b.Baz;\n\nclass C { Bar r; Baz z; }\n",
			cfg:  importConfig(settings.Collapse, "*"),
			want: "package p;\n\nimport a.*;\nimport b.*;\n\nclass C { Bar r; Baz z; }\n",
		},
		{
			name:  "collapse conflict",
			src:   "package p;\n\nimport a.Foo;\nimport a.Bar;\nimport b.Baz;\n\nclass C { Foo f; Bar r; Baz z; }\n",
			cfg:   importConfig(settings.Collapse, "*"),
			want:  "package p;\n\nimport a.Bar;\nimport a.Foo;\nimport b.Baz;\n\nclass C { Foo f; Bar r; Baz z; }\n",
			codes: []string{string(diag.CodeImportConflict), string(diag.CodeImportConflict)},
		},
		{
			name:  "collapse next to a wildcard",
			src:   "package p;\n\nimport a.Foo;\nimport a.Bar;\nimport b.*;\n\nclass C { Foo f; Bar r; Baz z; }\n",
			cfg:   importConfig(settings.Collapse, "*"),
			want:  "package p;\n\nimport a.Bar;\nimport a.Foo;\nimport b.*;\n\nclass C { Foo f; Bar r; Baz z; }\n",
			codes: []string{string(diag.CodeImportConflict)},
		},
		{
			name: "expand",
			src:  "package p;\n\nimport a.*;\n\nclass C { Foo f; Bar r; }\n",
			cfg:  importConfig(settings.Expand, "*"),
			want: "package p;\n\nimport a.Bar;\nimport a.Foo;\n\nclass C { Foo f; Bar r; }\n",
		},
		{
			name:  "expand conflict",
			src:   "package p;\n\nimport a.*;\nimport b.*;\n\nclass C { Foo f; Baz z; }\n",
			cfg:   importConfig(settings.Expand, "*"),
			want:  "package p;\n\nimport a.*;\nimport b.*;\n\nclass C { Foo f; Baz z; }\n",
			codes: []string{string(diag.CodeImportConflict)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := parseUnit(t, tt.src)
			bag, err := Imports(u, repo, tt.cfg)
			if err != nil {
				t.Fatalf("Imports() error = %v", err)
			}
			if got := render(t, u); got != tt.want {
				t.Errorf("Imports() =\n%q\nwant\n%q", got, tt.want)
			}
			if got := codes(bag); !slices.Equal(got, tt.codes) {
				t.Errorf("Imports() diagnostics = %v, want %v", got, tt.codes)
			}
		})
	}
}
