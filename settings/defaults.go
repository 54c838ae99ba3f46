package settings

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultRetention is how long untouched repository cache files are kept.
const DefaultRetention = 30 * 24 * time.Hour

// Default returns the built-in configuration: imports sorted but neither
// expanded nor collapsed, members sorted without banners, no synthetic
// code inserted and no dirty check.
func Default() *Settings {
	return &Settings{
		Imports: Imports{
			Policy:     LeaveAsIs,
			Sort:       true,
			Groups:     []string{"java", "javax", "*"},
			BlankLines: true,
		},
		Members: Members{
			Sort:             true,
			Order:            append([]Group(nil), DefaultOrder...),
			SortFields:       true,
			SortConstructors: true,
			SortMethods:      true,
			SortTypes:        true,
			Modifiers: []ModifierRule{
				{Modifier: "public", Sort: true},
				{Modifier: "protected", Sort: true},
				{Modifier: "package", Sort: true},
				{Modifier: "private", Sort: true},
			},
			BannerFill: "-",
			LineLength: 80,
		},
		Serial: Serial{
			Comment: "/** Use serialVersionUID for interoperability. */",
		},
		Logging: Logging{
			Predicates: map[string]string{
				"debug": "isDebugEnabled",
				"trace": "isTraceEnabled",
			},
		},
		History: History{
			Policy: HistoryNone,
			File:   "history.mp",
		},
		Repository: Repository{
			WorkDir:   defaultWorkDir(),
			Retention: Duration{DefaultRetention},
		},
		Output: Output{
			Encoding:   "UTF-8",
			IndentSize: 4,
			LineEnding: LineEndingAuto,
		},
	}
}

func defaultWorkDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "groom")
	}
	return ".groom"
}

// HistoryFile returns the history store path with relative paths resolved
// against the work directory.
func (s *Settings) HistoryFile() string {
	if filepath.IsAbs(s.History.File) {
		return s.History.File
	}
	return filepath.Join(s.Repository.WorkDir, s.History.File)
}
