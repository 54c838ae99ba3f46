package repository

import (
	"strings"
)

// sentinelSuffix marks a package entry in the contents. It sorts before
// '.', so "p#" directly precedes every "p.X".
const sentinelSuffix = "#"

// binaryName derives the binary name from a class file path relative to
// its root, e.g. "a/b/C$D.class" gives "a.b.C$D". ok is false for entries
// that do not name an importable type.
func binaryName(rel string) (string, bool) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if !strings.HasSuffix(rel, ".class") || strings.HasPrefix(rel, "META-INF/") {
		return "", false
	}
	rel = strings.TrimSuffix(rel, ".class")
	base := rel[strings.LastIndex(rel, "/")+1:]
	if base == "module-info" || base == "package-info" {
		return "", false
	}
	segs := strings.Split(base, "$")
	for _, seg := range segs {
		if seg == "" || numeric(seg) {
			return "", false
		}
	}
	if last := segs[len(segs)-1]; len(last) == 1 && last[0] >= 'a' && last[0] <= 'z' {
		return "", false
	}
	return strings.ReplaceAll(rel, "/", "."), true
}

// numeric matches anonymous class segments.
func numeric(seg string) bool {
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return false
		}
	}
	return true
}

// typeName turns a binary name into the dotted form used in source.
func typeName(binary string) string {
	return strings.ReplaceAll(binary, "$", ".")
}

// sentinels returns the sentinel entries a binary name contributes: one per
// package prefix and one per enclosing class.
func sentinels(binary string) []string {
	var out []string
	for i := 0; i < len(binary); i++ {
		switch binary[i] {
		case '.':
			out = append(out, binary[:i]+sentinelSuffix)
		case '$':
			out = append(out, typeName(binary[:i])+sentinelSuffix)
		}
	}
	return out
}
