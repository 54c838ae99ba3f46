package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Marker renders the first-line comment recording when a file was
// formatted: "// %<epoch-millis>:<package>%".
func Marker(millis int64, pkg string) string {
	return fmt.Sprintf("// %%%d:%s%%", millis, pkg)
}

// ParseMarker reads a marker from the first line of src.
func ParseMarker(src []byte) (millis int64, pkg string, ok bool) {
	line := string(src)
	if i := strings.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "// %") || !strings.HasSuffix(line, "%") || len(line) < 6 {
		return 0, "", false
	}
	body := line[len("// %") : len(line)-1]
	stamp, pkg, found := strings.Cut(body, ":")
	if !found {
		return 0, "", false
	}
	millis, err := strconv.ParseInt(stamp, 10, 64)
	if err != nil {
		return 0, "", false
	}
	return millis, pkg, true
}

// StripMarker removes a leading marker line so it is not duplicated when
// the file is formatted again.
func StripMarker(src []byte) []byte {
	if _, _, ok := ParseMarker(src); !ok {
		return src
	}
	i := 0
	for i < len(src) && src[i] != '\n' && src[i] != '\r' {
		i++
	}
	if i < len(src) && src[i] == '\r' {
		i++
	}
	if i < len(src) && src[i] == '\n' {
		i++
	}
	return src[i:]
}
