package classfile

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func sampleClass() *classBuilder {
	b := newClass("p/A", AccPublic|AccSuper).implements("java/io/Serializable")
	b.field(AccPrivate, "x", "I").
		field(AccPublic|AccStatic|AccFinal, "NAME", "Ljava/lang/String;").
		field(AccPrivate|AccStatic|AccFinal, "z", "J").
		field(AccPrivate|AccTransient, "t", "Ljava/util/List;")
	b.method(AccPublic, "<init>", "()V").
		method(AccPrivate, "<init>", "(Ljava/lang/String;)V").
		method(AccPublic, "run", "(Ljava/lang/String;)V").
		method(AccPrivate, "helper", "()V").
		method(AccPublic|AccFinal, "apply", "(Ljava/util/Map;)Ljava/lang/Object;").
		method(AccStatic, "<clinit>", "()V")
	return b
}

func TestParse(t *testing.T) {
	cf, err := Parse(bytes.NewReader(sampleClass().bytes()))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := cf.ClassName(); got != "p/A" {
		t.Errorf("ClassName() = %q, want %q", got, "p/A")
	}
	if got := cf.BinaryName(); got != "p.A" {
		t.Errorf("BinaryName() = %q, want %q", got, "p.A")
	}
	if got := cf.SuperClassName(); got != "java/lang/Object" {
		t.Errorf("SuperClassName() = %q", got)
	}
	if got := cf.InterfaceNames(); len(got) != 1 || got[0] != "java/io/Serializable" {
		t.Errorf("InterfaceNames() = %v", got)
	}
	if len(cf.Fields) != 4 || len(cf.Methods) != 6 {
		t.Fatalf("got %d fields, %d methods", len(cf.Fields), len(cf.Methods))
	}
	if f := cf.Field("NAME"); f == nil || f.Descriptor != "Ljava/lang/String;" || !f.AccessFlags.IsStatic() {
		t.Errorf("Field(NAME) = %+v", f)
	}
	if !cf.HasStaticInitializer() {
		t.Error("HasStaticInitializer() = false")
	}
	if cf.Method("run", "(Ljava/lang/String;)V") == nil {
		t.Error("Method(run) = nil")
	}
}

func TestParseRejectsNonClass(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte{0xCA, 0xFE, 0xBA, 0xBF, 0, 0, 0, 61}},
		{"truncated", sampleClass().bytes()[:40]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(bytes.NewReader(tt.data)); err == nil {
				t.Error("Parse() error = nil")
			}
		})
	}
	if _, err := Parse(bytes.NewReader([]byte{0, 0, 0, 0})); !errors.Is(err, ErrNotClassFile) {
		t.Errorf("Parse() error = %v, want ErrNotClassFile", err)
	}
}

func TestModifiedUtf8(t *testing.T) {
	for _, s := range []string{"", "abc", "a\x00b", "größe", "日本", "😀x"} {
		if got := decodeModifiedUtf8(encodeModifiedUtf8(s)); got != s {
			t.Errorf("round trip of %q = %q", s, got)
		}
	}
	if got := encodeModifiedUtf8("\x00"); !bytes.Equal(got, []byte{0xC0, 0x80}) {
		t.Errorf("encodeModifiedUtf8(NUL) = %x", got)
	}
	if got := encodeModifiedUtf8("😀"); len(got) != 6 {
		t.Errorf("encodeModifiedUtf8(emoji) has %d bytes, want 6", len(got))
	}
}

func TestSerialVersionUID(t *testing.T) {
	tests := []struct {
		name  string
		class func() *classBuilder
		want  int64
	}{
		{"class", sampleClass, -8433156252298556191},
		{"interface with methods", func() *classBuilder {
			return newClass("p/I", AccPublic|AccInterface|AccAbstract).
				implements("java/io/Serializable").
				method(AccPublic|AccAbstract, "call", "()V")
		}, 2221224749512926566},
		{"interface without methods", func() *classBuilder {
			return newClass("p/M", AccPublic|AccInterface|AccAbstract).implements("java/io/Serializable")
		}, 7211556055447724437},
		{"nested class uses inner flags", func() *classBuilder {
			return newClass("p/O$N", AccPublic|AccSuper).
				implements("java/io/Serializable").
				method(AccProtected, "<init>", "()V").
				innerClass("p/O", "N", AccProtected|AccStatic)
		}, -1290925045292466813},
		{"top level flags without inner entry", func() *classBuilder {
			return newClass("p/O$N", AccPublic|AccSuper).
				implements("java/io/Serializable").
				method(AccProtected, "<init>", "()V")
		}, 2365437078927939446},
		{"declared value", func() *classBuilder {
			b := newClass("p/D", AccPublic|AccSuper).implements("java/io/Serializable")
			return b.field(AccPrivate|AccStatic|AccFinal, "serialVersionUID", "J", b.constantValue(42))
		}, 42},
		{"enum", func() *classBuilder {
			return newClass("p/E", AccPublic|AccFinal|AccSuper|AccEnum).method(AccPublic, "values", "()[Lp/E;")
		}, 0},
		{"record", func() *classBuilder {
			return newClass("p/R", AccPublic|AccFinal|AccSuper).attribute("Record", []byte{0, 0})
		}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cf, err := Parse(bytes.NewReader(tt.class().bytes()))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := cf.SerialVersionUID(); got != tt.want {
				t.Errorf("SerialVersionUID() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSerialVersionProvider(t *testing.T) {
	dir := t.TempDir()
	classes := filepath.Join(dir, "classes")
	if err := os.MkdirAll(filepath.Join(classes, "p"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(classes, "p", "A.class"), sampleClass().bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	jar := filepath.Join(dir, "lib.jar")
	f, err := os.Create(jar)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("p/O$N.class")
	if err != nil {
		t.Fatal(err)
	}
	nested := newClass("p/O$N", AccPublic|AccSuper).
		implements("java/io/Serializable").
		method(AccProtected, "<init>", "()V").
		innerClass("p/O", "N", AccProtected|AccStatic)
	if _, err := w.Write(nested.bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	p := NewSerialVersionProvider(filepath.Join(dir, "missing"), classes, jar)
	tests := []struct {
		name string
		want int64
	}{
		{"p.A", -8433156252298556191},
		{"p.O$N", -1290925045292466813},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.SerialVersionUID(tt.name)
			if err != nil {
				t.Fatalf("SerialVersionUID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SerialVersionUID() = %d, want %d", got, tt.want)
			}
		})
	}

	if _, err := p.SerialVersionUID("p.Missing"); !errors.Is(err, ErrClassNotFound) {
		t.Errorf("SerialVersionUID(p.Missing) error = %v, want ErrClassNotFound", err)
	}
}
