// Package settings holds the configuration threaded through the rewrite
// passes and the engine. A Settings value is built once per run, from
// Default and optionally a groom.toml file, and never mutated by the code
// that reads it.
package settings

import (
	"time"
)

type Settings struct {
	Imports    Imports    `toml:"imports"`
	Members    Members    `toml:"members"`
	Serial     Serial     `toml:"serial"`
	Logging    Logging    `toml:"logging"`
	History    History    `toml:"history"`
	Backup     Backup     `toml:"backup"`
	Repository Repository `toml:"repository"`
	Output     Output     `toml:"output"`
}

type Imports struct {
	Policy ImportPolicy `toml:"policy"`
	Sort   bool         `toml:"sort"`
	// Groups lists package prefixes in priority order. "*" is the catch-all
	// rank for prefixes not listed.
	Groups []string `toml:"groups"`
	// BlankLines separates import groups with an empty line when sorting.
	BlankLines bool `toml:"blank_lines"`
}

type Members struct {
	Sort             bool           `toml:"sort"`
	Order            []Group        `toml:"order"`
	SortFields       bool           `toml:"sort_fields"`
	SortConstructors bool           `toml:"sort_constructors"`
	SortMethods      bool           `toml:"sort_methods"`
	SortTypes        bool           `toml:"sort_types"`
	BeanNames        bool           `toml:"bean_names"`
	Modifiers        []ModifierRule `toml:"modifiers"`
	Banners          bool           `toml:"banners"`
	BannerFill       string         `toml:"banner_fill"`
	LineLength       int            `toml:"line_length"`
	// Titles overrides the banner title of a group.
	Titles map[Group]string `toml:"titles"`
}

// ModifierRule is one dimension of the modifier comparison. "package"
// stands for the absence of an access modifier.
type ModifierRule struct {
	Modifier string `toml:"modifier"`
	Sort     bool   `toml:"sort"`
}

type Serial struct {
	Insert bool `toml:"insert"`
	// Classpath lists directories and archives searched for compiled
	// classes when computing the default serialVersionUID.
	Classpath []string `toml:"classpath"`
	// Comment is the doc comment put in front of an inserted field. ${key}
	// placeholders are filled in from the render environment.
	Comment string `toml:"comment"`
}

type Logging struct {
	Insert bool `toml:"insert"`
	// Predicates maps a logging method name to the predicate that guards it.
	Predicates map[string]string `toml:"predicates"`
}

type History struct {
	Policy HistoryPolicy `toml:"policy"`
	// File is the history store. Relative paths resolve against the
	// repository work directory.
	File string `toml:"file"`
}

type Backup struct {
	// Level is the number of backups kept after a successful run.
	Level     int    `toml:"level"`
	Directory string `toml:"directory"`
}

type Repository struct {
	WorkDir   string   `toml:"work_dir"`
	Classpath []string `toml:"classpath"`
	Retention Duration `toml:"retention"`
}

type Output struct {
	Encoding    string     `toml:"encoding"`
	IndentSize  int        `toml:"indent_size"`
	LineEnding  LineEnding `toml:"line_ending"`
	Destination string     `toml:"destination"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}
