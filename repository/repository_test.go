package repository

import (
	"archive/zip"
	"context"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// classBytes returns a minimal class file declaring internalName.
func classBytes(internalName string) []byte {
	var b []byte
	u2 := func(v uint16) { b = binary.BigEndian.AppendUint16(b, v) }
	b = binary.BigEndian.AppendUint32(b, 0xCAFEBABE)
	u2(0)
	u2(61)
	u2(3)
	b = append(b, 1)
	u2(uint16(len(internalName)))
	b = append(b, internalName...)
	b = append(b, 7)
	u2(1)
	u2(0x21)
	u2(2)
	u2(0)
	u2(0)
	u2(0)
	u2(0)
	u2(0)
	return b
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func writeJar(t *testing.T, path string, entries ...string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte("x")); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func open(t *testing.T, workDir string, opts ...Option) *Repository {
	t.Helper()
	r, err := Open(workDir, opts...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return r
}

func TestBinaryName(t *testing.T) {
	tests := []struct {
		rel  string
		want string
		ok   bool
	}{
		{"a/b/C.class", "a.b.C", true},
		{"a/b/C$D.class", "a.b.C$D", true},
		{"a/b/C$1.class", "", false},
		{"a/b/C$1$D.class", "", false},
		{"a/b/a.class", "", false},
		{"a/b/C$x.class", "", false},
		{"a/b/Cx.class", "a.b.Cx", true},
		{"a/b/package-info.class", "", false},
		{"module-info.class", "", false},
		{"META-INF/versions/9/a/B.class", "", false},
		{"a/b/C.java", "", false},
		{"Top.class", "Top", true},
	}
	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			got, ok := binaryName(tt.rel)
			if got != tt.want || ok != tt.ok {
				t.Errorf("binaryName(%q) = %q, %v, want %q, %v", tt.rel, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	got := sentinels("a.b.C$D$E")
	want := []string{"a#", "a.b#", "a.b.C#", "a.b.C.D#"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("sentinels() = %v, want %v", got, want)
	}
	if got := sentinels("Top"); len(got) != 0 {
		t.Errorf("sentinels(Top) = %v", got)
	}
}

func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	writeFile(t, filepath.Join(classes, "a", "b", "C.class"), classBytes("a/b/C"))
	writeFile(t, filepath.Join(classes, "a", "b", "C$D.class"), classBytes("a/b/C$D"))
	writeFile(t, filepath.Join(classes, "a", "b", "C$1.class"), classBytes("a/b/C$1"))
	writeFile(t, filepath.Join(classes, "a", "b", "package-info.class"), classBytes("a/b/package-info"))
	writeFile(t, filepath.Join(classes, "a", "E.class"), classBytes("a/E"))

	r := open(t, filepath.Join(dir, "work"))
	if !r.IsEmpty() {
		t.Fatal("IsEmpty() = false before Load")
	}
	if err := r.Load(classes); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"a#", "a.E", "a.b#", "a.b.C", "a.b.C#", "a.b.C.D"}
	if got := r.Contents(); !reflect.DeepEqual(got, want) {
		t.Errorf("Contents() = %v, want %v", got, want)
	}

	lookups := []struct {
		pkg  string
		want []string
	}{
		{"a", []string{"a.E"}},
		{"a.b", []string{"a.b.C"}},
		{"a.b.C", []string{"a.b.C.D"}},
		{"z", nil},
	}
	for _, tt := range lookups {
		if got := r.PackageMembers(tt.pkg); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("PackageMembers(%q) = %v, want %v", tt.pkg, got, tt.want)
		}
	}
	if !r.Contains("a.b.C.D") || r.Contains("a.b.C$D") || r.Contains("a.b") {
		t.Error("Contains() mismatch")
	}
	if !r.HasPackage("a.b") || r.HasPackage("a.c") {
		t.Error("HasPackage() mismatch")
	}

	entries := r.Entries()
	if len(entries) != 1 || !entries[0].Loaded || entries[0].Archive {
		t.Fatalf("Entries() = %+v", entries)
	}
	if got := filepath.Base(entries[0].File); got != "classes.idx" {
		t.Errorf("cache file = %q, want classes.idx", got)
	}
}

func TestLoadRejectsNonRootDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a", "b", "C.class"), classBytes("b/C"))

	r := open(t, filepath.Join(dir, "work"))
	err := r.Load(filepath.Join(dir, "src"))
	if !errors.Is(err, ErrNotRoot) {
		t.Errorf("Load() error = %v, want ErrNotRoot", err)
	}
}

func TestLoadMissingLocations(t *testing.T) {
	dir := t.TempDir()
	r := open(t, filepath.Join(dir, "work"))

	missing := filepath.Join(dir, "out", "classes")
	if err := r.Load(missing); err != nil {
		t.Fatalf("Load(missing dir) error = %v", err)
	}
	if info, err := os.Stat(missing); err != nil || !info.IsDir() {
		t.Errorf("missing directory was not created: %v", err)
	}

	if err := r.Load(filepath.Join(dir, "nope.jar")); !errors.Is(err, ErrArchiveNotFound) {
		t.Errorf("Load(missing jar) error = %v, want ErrArchiveNotFound", err)
	}
}

func TestLoadAllIsAllOrNothing(t *testing.T) {
	dir := t.TempDir()
	jar := filepath.Join(dir, "lib.jar")
	writeJar(t, jar, "p/A.class")

	r := open(t, filepath.Join(dir, "work"))
	err := r.LoadAll(context.Background(), []string{jar, filepath.Join(dir, "missing.jar")})
	if !errors.Is(err, ErrArchiveNotFound) {
		t.Fatalf("LoadAll() error = %v, want ErrArchiveNotFound", err)
	}
	if !r.IsEmpty() {
		t.Errorf("Contents() = %v after failed LoadAll", r.Contents())
	}
}

func TestArchiveCacheReuse(t *testing.T) {
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	jar := filepath.Join(dir, "lib.jar")
	writeJar(t, jar, "p/A.class", "p/B$1.class", "META-INF/MANIFEST.MF")
	stamp := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(jar, stamp, stamp); err != nil {
		t.Fatal(err)
	}

	if err := open(t, work).Load(jar); err != nil {
		t.Fatal(err)
	}

	// Same mtime: the new content is not seen.
	writeJar(t, jar, "p/A.class", "p/C.class")
	if err := os.Chtimes(jar, stamp, stamp); err != nil {
		t.Fatal(err)
	}
	r := open(t, work)
	if err := r.Load(jar); err != nil {
		t.Fatal(err)
	}
	if got, want := r.Contents(), []string{"p#", "p.A"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Contents() = %v, want %v", got, want)
	}

	later := stamp.Add(time.Hour)
	if err := os.Chtimes(jar, later, later); err != nil {
		t.Fatal(err)
	}
	if err := r.Load(jar); err != nil {
		t.Fatal(err)
	}
	if got, want := r.Contents(), []string{"p#", "p.A", "p.C"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Contents() after change = %v, want %v", got, want)
	}
}

func TestCacheFileCollisions(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "one", "lib.jar")
	second := filepath.Join(dir, "two", "lib.jar")
	for _, p := range []string{first, second} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		writeJar(t, p, "p/A.class")
	}

	r := open(t, filepath.Join(dir, "work"))
	if err := r.Load(first); err != nil {
		t.Fatal(err)
	}
	if err := r.Load(second); err != nil {
		t.Fatal(err)
	}
	var files []string
	for _, e := range r.Entries() {
		files = append(files, filepath.Base(e.File))
	}
	if want := []string{"lib.jar.idx", "lib.jar (1).idx"}; !reflect.DeepEqual(files, want) {
		t.Errorf("cache files = %v, want %v", files, want)
	}

	// Reopening maps both files back to their locations.
	reopened := open(t, filepath.Join(dir, "work"))
	if got := len(reopened.Entries()); got != 2 {
		t.Errorf("Entries() after reopen has %d entries, want 2", got)
	}
}

func TestOpenPurgesStaleCaches(t *testing.T) {
	work := t.TempDir()
	cacheDir := filepath.Join(work, "repository")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	write := func(name, version string, age time.Duration) string {
		data, err := msgpack.Marshal(&cacheRecord{Version: version, Location: "/x/" + name, Names: []string{"p.A"}})
		if err != nil {
			t.Fatal(err)
		}
		path := filepath.Join(cacheDir, name+cacheExt)
		writeFile(t, path, data)
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(path, stamp, stamp); err != nil {
			t.Fatal(err)
		}
		return path
	}
	expired := write("old", FormatVersion, 40*24*time.Hour)
	incompatible := write("next", "2.0.0", time.Hour)
	fresh := write("fresh", "1.3.0", time.Hour)
	garbage := filepath.Join(cacheDir, "garbage"+cacheExt)
	writeFile(t, garbage, []byte{0xc1})

	r := open(t, work)
	for _, p := range []string{expired, incompatible, garbage} {
		if exists(p) {
			t.Errorf("%s was not purged", filepath.Base(p))
		}
	}
	if !exists(fresh) {
		t.Error("fresh cache file was purged")
	}
	entries := r.Entries()
	if len(entries) != 1 || entries[0].Location != "/x/fresh" || entries[0].Loaded {
		t.Errorf("Entries() = %+v", entries)
	}
}

func TestUnload(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.jar")
	b := filepath.Join(dir, "b.jar")
	writeJar(t, a, "p/A.class")
	writeJar(t, b, "q/B.class")

	r := open(t, filepath.Join(dir, "work"))
	if err := r.LoadAll(context.Background(), []string{a, b}); err != nil {
		t.Fatal(err)
	}
	before := r.Contents()
	if err := r.Unload(a); err != nil {
		t.Fatal(err)
	}
	if got, want := r.Contents(), []string{"q#", "q.B"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Contents() = %v, want %v", got, want)
	}
	if len(before) != 4 {
		t.Errorf("earlier snapshot changed: %v", before)
	}
	r.UnloadAll()
	if !r.IsEmpty() {
		t.Errorf("IsEmpty() = false after UnloadAll")
	}
	if got := len(r.Entries()); got != 2 {
		t.Errorf("Entries() has %d entries, want 2", got)
	}
}
