package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dhamidi/groom/classfile"
	"github.com/dhamidi/groom/format"
	"github.com/dhamidi/groom/java/parser"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var includeHidden bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a .java or .class file and dump the result",
		Long: `Parse a .java file and dump its tree, or a .class file and print
its binary name and serialVersionUID.

Formats for .java files:
  json      the node tree as JSON (--hidden adds whitespace and comments)
  outline   one line per declaration
  names     the qualified and unqualified identifiers the source refers to`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]
			switch ext := filepath.Ext(filename); ext {
			case ".class":
				return parseClass(filename)
			case ".java":
				return parseJava(filename, outputFormat, includeHidden)
			default:
				return fmt.Errorf("unsupported file extension: %s (expected .class or .java)", ext)
			}
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format for .java files (json, outline, names)")
	cmd.Flags().BoolVar(&includeHidden, "hidden", false, "include hidden tokens in json output")

	return cmd
}

func parseJava(filename, outputFormat string, includeHidden bool) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read java file: %w", err)
	}
	res, err := parser.Parse(data, filename)
	if err != nil {
		return err
	}

	switch outputFormat {
	case "json":
		enc := format.NewTreeJSONEncoder(os.Stdout, includeHidden)
		if err := enc.Encode(res.Tree, res.Tree.Root()); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	case "outline":
		if err := format.NewLineEncoder(os.Stdout).Encode(res.Tree); err != nil {
			return fmt.Errorf("encode outline: %w", err)
		}
	case "names":
		for _, name := range res.Qualified {
			fmt.Printf("qualified\t%s\n", name)
		}
		for _, name := range res.Unqualified {
			fmt.Printf("unqualified\t%s\n", name)
		}
	default:
		return fmt.Errorf("unknown format: %s", outputFormat)
	}
	return nil
}

func parseClass(filename string) error {
	cf, err := classfile.ParseFile(filename)
	if err != nil {
		return fmt.Errorf("parse class file: %w", err)
	}
	fmt.Printf("%s\t%dL\n", cf.BinaryName(), cf.SerialVersionUID())
	return nil
}
