package transform

import (
	"errors"
	"slices"
	"testing"

	"github.com/dhamidi/groom/diag"
	"github.com/dhamidi/groom/settings"
)

// uids is a TypeInfo backed by a map of binary names.
type uids map[string]int64

func (m uids) SerialVersionUID(name string) (int64, error) {
	uid, ok := m[name]
	if !ok {
		return 0, errors.New("class not found")
	}
	return uid, nil
}

func TestSerialVersionUID(t *testing.T) {
	info := uids{"p.A": 42, "A": 42, "Outer$In": 7}
	tests := []struct {
		name    string
		comment string
		src     string
		want    string
		codes   []string
	}{
		{
			name:    "insert with comment",
			comment: "/** c */",
			src: `package p;

class A implements java.io.Serializable {
    int x;
}
`,
			want: `package p;

class A implements java.io.Serializable {
    /** c */
    private static final long serialVersionUID = 42L;

    int x;
}
`,
			codes: []string{string(diag.CodeSerialInserted)},
		},
		{
			name:    "empty body",
			comment: "/** c */",
			src:     "class A implements Serializable {}\n",
			want:    "class A implements Serializable {\n    /** c */\n    private static final long serialVersionUID = 42L;\n}\n",
			codes:   []string{string(diag.CodeSerialInserted)},
		},
		{
			name: "nested class",
			src: `class Outer {
    static class In implements Serializable {
        int y;
    }
}
`,
			want: `class Outer {
    static class In implements Serializable {
        private static final long serialVersionUID = 7L;

        int y;
    }
}
`,
			codes: []string{string(diag.CodeSerialInserted)},
		},
		{
			name: "field already present",
			src: `package p;

class A implements Serializable {
    private static final long serialVersionUID = 1L;
}
`,
			want: `package p;

class A implements Serializable {
    private static final long serialVersionUID = 1L;
}
`,
		},
		{
			name: "not serializable",
			src:  "class A implements Runnable {}\n",
			want: "class A implements Runnable {}\n",
		},
		{
			name: "enum",
			src:  "enum A implements Serializable { X }\n",
			want: "enum A implements Serializable { X }\n",
		},
		{
			name:  "unknown class",
			src:   "class B implements Serializable {}\n",
			want:  "class B implements Serializable {}\n",
			codes: []string{string(diag.CodeSerialUnresolved)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := parseUnit(t, tt.src)
			bag, err := SerialVersionUID(u, info, settings.Serial{Insert: true, Comment: tt.comment})
			if err != nil {
				t.Fatalf("SerialVersionUID() error = %v", err)
			}
			if got := render(t, u); got != tt.want {
				t.Errorf("SerialVersionUID() =\n%s\nwant\n%s", got, tt.want)
			}
			if got := codes(bag); !slices.Equal(got, tt.codes) {
				t.Errorf("SerialVersionUID() diagnostics = %v, want %v", got, tt.codes)
			}
		})
	}
}

func TestRunSkipsSerialWithoutTypeInfo(t *testing.T) {
	src := "class A implements Serializable {}\n"
	cfg := settings.Default()
	cfg.Serial.Insert = true
	u := parseUnit(t, src)
	if _, err := Run(u, cfg, Deps{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := render(t, u); got != src {
		t.Errorf("Run() = %q, want %q", got, src)
	}
}
